package pagination

import (
	"context"
	"errors"
	"sync"
	"time"

	"media-explorer/internal/logging"
	"media-explorer/internal/retry"
)

// ErrSuperseded is returned by Initialize when a newer Initialize started
// before the first page arrived. The result of the older call was discarded.
var ErrSuperseded = errors.New("pagination: superseded by a newer provider")

// Page is one response from a Provider. Offset may differ from the requested
// offset when the service clamps it.
type Page[T any] struct {
	Data   []T
	Offset int
	Total  int
}

// Provider fetches the page starting at offset.
type Provider[T any] func(ctx context.Context, offset int) (Page[T], error)

// Change is published to subscribers whenever the visible contents or
// loading state of the cache change.
type Change struct {
	Version uint64
	// Batch is the batch that settled, or -1 for a (re)initialization.
	Batch int
	// Err is the fetch error, if the batch fetch failed.
	Err error
}

// Observer receives cache activity, normally for metrics.
type Observer interface {
	ObserveRead(result string)
	ObserveFetchStarted()
	ObserveFetchFinished(duration time.Duration, stale bool, err error)
	ObserveBackoffSkip()
	ObserveInitialize(stale bool, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRead(string)                              {}
func (nopObserver) ObserveFetchStarted()                            {}
func (nopObserver) ObserveFetchFinished(time.Duration, bool, error) {}
func (nopObserver) ObserveBackoffSkip()                             {}
func (nopObserver) ObserveInitialize(bool, error)                   {}

// Option configures a Cache.
type Option func(*options)

type options struct {
	backoff  retry.Config
	observer Observer
	now      func() time.Time
}

// WithBackoff delays refetching a batch after it failed. The delay grows
// exponentially with consecutive failures of that batch. A zero Config keeps
// the plain behavior where the next read after a failure refetches at once.
func WithBackoff(config retry.Config) Option {
	return func(o *options) { o.backoff = config }
}

// WithObserver installs an Observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is an index-addressable view over a remote paginated collection.
// Items are fetched lazily, one batch of batchSize at a time, and at most one
// fetch per batch is outstanding at any moment.
//
// Cache is safe for concurrent use. Get never blocks on the network.
type Cache[T any] struct {
	batchSize int
	opts      options

	mu         sync.Mutex
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	provider   Provider[T]
	loaded     bool
	total      int
	items      []T
	present    []bool
	loading    []bool
	ready      []bool
	failures   []int
	retryAt    []time.Time
	version    uint64

	subs    map[int]chan Change
	nextSub int

	wg sync.WaitGroup
}

// New creates an empty cache that fetches batchSize items per request.
func New[T any](batchSize int, opts ...Option) *Cache[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	o := options{observer: nopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		batchSize: batchSize,
		opts:      o,
		subs:      make(map[int]chan Change),
	}
}

// Initialize discards all state and loads the first page from provider,
// blocking until it resolves. On success the cache holds exactly Total slots.
// Fetches still running for a previous provider are canceled and their
// results dropped.
func (c *Cache[T]) Initialize(ctx context.Context, provider Provider[T]) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.provider = provider
	c.reset()
	c.version++
	c.publish(Change{Version: c.version, Batch: -1})
	c.mu.Unlock()

	page, err := provider(ctx, 0)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.opts.observer.ObserveInitialize(true, err)
		return ErrSuperseded
	}
	if err != nil {
		c.opts.observer.ObserveInitialize(false, err)
		return err
	}

	total := page.Total
	if total < 0 {
		total = 0
	}
	batches := (total + c.batchSize - 1) / c.batchSize

	c.total = total
	c.items = make([]T, total)
	c.present = make([]bool, total)
	c.loading = make([]bool, batches)
	c.ready = make([]bool, batches)
	c.failures = make([]int, batches)
	c.retryAt = make([]time.Time, batches)
	c.write(page)
	c.loaded = true
	c.version++

	logging.Debug("pagination: initialized with %d items in %d batches", total, batches)
	c.opts.observer.ObserveInitialize(false, nil)
	c.publish(Change{Version: c.version, Batch: -1})
	return nil
}

func (c *Cache[T]) reset() {
	c.loaded = false
	c.total = 0
	c.items = nil
	c.present = nil
	c.loading = nil
	c.ready = nil
	c.failures = nil
	c.retryAt = nil
}

// Get returns the item at index if it has been fetched. On a miss it starts a
// background fetch of the containing batch, unless one is already running or
// the batch is backing off after a failure, and returns false. Indices
// outside [0, Len()) return false without fetching.
func (c *Cache[T]) Get(index int) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded || index < 0 || index >= c.total {
		c.opts.observer.ObserveRead("out_of_range")
		return zero, false
	}
	if c.present[index] {
		c.opts.observer.ObserveRead("hit")
		return c.items[index], true
	}
	c.opts.observer.ObserveRead("miss")

	batch := index / c.batchSize
	if c.loading[batch] {
		return zero, false
	}
	if c.opts.backoff.Enabled() && c.failures[batch] > 0 && c.opts.now().Before(c.retryAt[batch]) {
		c.opts.observer.ObserveBackoffSkip()
		return zero, false
	}

	c.loading[batch] = true
	c.wg.Add(1)
	go c.fetch(c.ctx, c.generation, c.provider, batch)

	return zero, false
}

func (c *Cache[T]) fetch(ctx context.Context, gen uint64, provider Provider[T], batch int) {
	defer c.wg.Done()

	c.opts.observer.ObserveFetchStarted()
	start := time.Now()
	logging.Debug("pagination: fetching batch %d (offset %d)", batch, batch*c.batchSize)

	page, err := provider(ctx, batch*c.batchSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.opts.observer.ObserveFetchFinished(time.Since(start), true, err)
		return
	}
	c.opts.observer.ObserveFetchFinished(time.Since(start), false, err)

	c.loading[batch] = false
	if err != nil {
		c.failures[batch]++
		delay := c.opts.backoff.Delay(c.failures[batch])
		c.retryAt[batch] = c.opts.now().Add(delay)
		logging.Warn("pagination: batch %d fetch failed (attempt %d, next retry after %v): %v",
			batch, c.failures[batch], delay, err)
	} else {
		c.write(page)
		if c.ready[batch] {
			c.failures[batch] = 0
		} else {
			// Nothing landed in the batch; back off as after a failure.
			c.failures[batch]++
			delay := c.opts.backoff.Delay(c.failures[batch])
			c.retryAt[batch] = c.opts.now().Add(delay)
			logging.Warn("pagination: batch %d fetch returned no items for its range (attempt %d, next retry after %v)",
				batch, c.failures[batch], delay)
		}
	}

	c.version++
	c.publish(Change{Version: c.version, Batch: batch, Err: err})
}

// write stores page items at Offset+i. Writes outside the buffer are dropped.
// Every batch that received a write is marked ready.
func (c *Cache[T]) write(page Page[T]) {
	for i, item := range page.Data {
		idx := page.Offset + i
		if idx < 0 || idx >= c.total {
			continue
		}
		c.items[idx] = item
		c.present[idx] = true
		c.ready[idx/c.batchSize] = true
	}
}

// Subscribe returns a channel of changes and a function that cancels the
// subscription. Delivery never blocks the cache: if the subscriber falls
// behind, changes are dropped and Version can be used to detect the gap.
func (c *Cache[T]) Subscribe() (<-chan Change, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Change, 16)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Cache[T]) publish(change Change) {
	for _, ch := range c.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Close cancels outstanding fetches, drops their results and empties the
// cache. It can be reused by calling Initialize again.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.reset()
	c.version++
	c.publish(Change{Version: c.version, Batch: -1})
	c.mu.Unlock()
}

// Wait blocks until every background fetch started so far has settled.
func (c *Cache[T]) Wait() {
	c.wg.Wait()
}

// Version increases on every observable change.
func (c *Cache[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Loaded reports whether the first page of the current provider has arrived.
func (c *Cache[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Len returns the total reported by the current provider, or 0 before it loads.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// BatchSize returns the number of items requested per fetch.
func (c *Cache[T]) BatchSize() int {
	return c.batchSize
}

// Batches returns the number of batches covering Len() items.
func (c *Cache[T]) Batches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ready)
}

// ReadyBatches returns how many batches have received data.
func (c *Cache[T]) ReadyBatches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.ready {
		if r {
			n++
		}
	}
	return n
}

// Ready reports whether batch has received data.
func (c *Cache[T]) Ready(batch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return batch >= 0 && batch < len(c.ready) && c.ready[batch]
}

// LoadingRange reports whether a fetch is outstanding for any batch holding
// an index in [start, end).
func (c *Cache[T]) LoadingRange(start, end int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if start < 0 {
		start = 0
	}
	end = min(end, c.total)
	if start >= end {
		return false
	}
	for b := start / c.batchSize; b <= (end-1)/c.batchSize && b < len(c.loading); b++ {
		if c.loading[b] {
			return true
		}
	}
	return false
}

// Loading reports whether a fetch for batch is outstanding.
func (c *Cache[T]) Loading(batch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return batch >= 0 && batch < len(c.loading) && c.loading[batch]
}

// Cached returns the number of slots holding a value.
func (c *Cache[T]) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.present {
		if p {
			n++
		}
	}
	return n
}
