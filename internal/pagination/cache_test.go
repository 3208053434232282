package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"media-explorer/internal/retry"
)

type fakeProvider struct {
	mu     sync.Mutex
	total  int
	limit  int
	prefix string
	calls  map[int]int
	gates  map[int]chan struct{}
	errs   map[int]error
	offset func(requested int) int
}

func newFakeProvider(prefix string, total, limit int) *fakeProvider {
	return &fakeProvider{
		total:  total,
		limit:  limit,
		prefix: prefix,
		calls:  make(map[int]int),
		gates:  make(map[int]chan struct{}),
		errs:   make(map[int]error),
	}
}

func (f *fakeProvider) gate(offset int) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[offset] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeProvider) fail(offset int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[offset] = err
}

func (f *fakeProvider) callCount(offset int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[offset]
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeProvider) item(i int) string {
	if f.prefix == "" && i < 3 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("%s%d", f.prefix, i)
}

func (f *fakeProvider) provide(ctx context.Context, offset int) (Page[string], error) {
	f.mu.Lock()
	f.calls[offset]++
	gate := f.gates[offset]
	err := f.errs[offset]
	shift := f.offset
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page[string]{}, ctx.Err()
		}
	}
	if err != nil {
		return Page[string]{}, err
	}

	start := offset
	if shift != nil {
		start = shift(offset)
	}
	var data []string
	for i := start; i < start+f.limit && i < f.total; i++ {
		data = append(data, f.item(i))
	}
	return Page[string]{Data: data, Offset: start, Total: f.total}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInitializeSizesBufferToTotal(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	c := New[string](3)

	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := c.Len(); got != 10 {
		t.Errorf("Len() = %d, want 10", got)
	}
	if got := c.Batches(); got != 4 {
		t.Errorf("Batches() = %d, want 4", got)
	}
	if !c.Ready(0) {
		t.Error("Ready(0) = false, want true")
	}
	if got := c.ReadyBatches(); got != 1 {
		t.Errorf("ReadyBatches() = %d, want 1", got)
	}
	if !c.Loaded() {
		t.Error("Loaded() = false, want true")
	}
	if got := c.Cached(); got != 3 {
		t.Errorf("Cached() = %d, want 3", got)
	}
}

func TestGetScenario(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	c := New[string](3)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if v, ok := c.Get(0); !ok || v != "a" {
		t.Errorf("Get(0) = %q, %v, want \"a\", true", v, ok)
	}

	release := p.gate(3)
	if _, ok := c.Get(5); ok {
		t.Error("Get(5) hit before fetch, want miss")
	}
	waitFor(t, func() bool { return p.callCount(3) == 1 })
	if !c.Loading(1) {
		t.Error("Loading(1) = false while fetch outstanding")
	}

	if v, ok := c.Get(0); !ok || v != "a" {
		t.Errorf("Get(0) = %q, %v during fetch, want \"a\", true", v, ok)
	}
	c.Get(4)
	c.Get(3)

	release()
	c.Wait()

	if got := p.totalCalls(); got != 2 {
		t.Errorf("provider calls = %d, want 2 (initialize + one batch)", got)
	}
	if v, ok := c.Get(5); !ok || v != "5" {
		t.Errorf("Get(5) = %q, %v, want \"5\", true", v, ok)
	}
	if c.Loading(1) {
		t.Error("Loading(1) = true after settle")
	}
}

func TestConcurrentGetsIssueOneFetchPerBatch(t *testing.T) {
	p := newFakeProvider("item-", 100, 10)
	c := New[string](10)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	release := p.gate(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 50; i < 60; i++ {
				c.Get(i)
			}
		}()
	}
	wg.Wait()
	release()
	c.Wait()

	if got := p.callCount(50); got != 1 {
		t.Errorf("fetches for offset 50 = %d, want 1", got)
	}
	for i := 50; i < 60; i++ {
		if v, ok := c.Get(i); !ok || v != fmt.Sprintf("item-%d", i) {
			t.Errorf("Get(%d) = %q, %v", i, v, ok)
		}
	}
}

func TestGetOutOfRange(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	c := New[string](3)

	if _, ok := c.Get(0); ok {
		t.Error("Get(0) before Initialize = true, want false")
	}

	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tests := []int{-1, 10, 11, 1000}
	for _, idx := range tests {
		if _, ok := c.Get(idx); ok {
			t.Errorf("Get(%d) = true, want false", idx)
		}
	}
	c.Wait()

	if got := p.totalCalls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestFailedFetchAllowsRetry(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	c := New[string](3)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	changes, cancel := c.Subscribe()
	defer cancel()

	p.fail(3, errors.New("connection reset"))
	c.Get(4)
	c.Wait()

	select {
	case ch := <-changes:
		if ch.Batch != 1 || ch.Err == nil {
			t.Errorf("change = %+v, want batch 1 with error", ch)
		}
	case <-time.After(time.Second):
		t.Fatal("no change published for failed fetch")
	}

	if c.Loading(1) {
		t.Error("Loading(1) = true after failure")
	}
	if c.Ready(1) {
		t.Error("Ready(1) = true after failure")
	}

	p.fail(3, nil)
	c.Get(4)
	c.Wait()

	if got := p.callCount(3); got != 2 {
		t.Errorf("fetches for offset 3 = %d, want 2", got)
	}
	if v, ok := c.Get(4); !ok || v != "4" {
		t.Errorf("Get(4) = %q, %v after retry", v, ok)
	}
}

func TestBackoffHoldsRetry(t *testing.T) {
	now := time.Unix(1000, 0)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(d)
	}

	p := newFakeProvider("", 10, 3)
	c := New[string](3,
		WithBackoff(retry.Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}),
		withClock(clock),
	)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	p.fail(6, errors.New("unavailable"))
	c.Get(6)
	c.Wait()

	c.Get(6)
	c.Wait()
	if got := p.callCount(6); got != 1 {
		t.Fatalf("fetches during backoff = %d, want 1", got)
	}

	advance(150 * time.Millisecond)
	c.Get(6)
	c.Wait()
	if got := p.callCount(6); got != 2 {
		t.Fatalf("fetches after first backoff = %d, want 2", got)
	}

	// Second failure doubles the delay to 200ms.
	advance(150 * time.Millisecond)
	c.Get(6)
	c.Wait()
	if got := p.callCount(6); got != 2 {
		t.Errorf("fetches inside doubled backoff = %d, want 2", got)
	}

	advance(100 * time.Millisecond)
	p.fail(6, nil)
	c.Get(6)
	c.Wait()
	if v, ok := c.Get(6); !ok || v != "6" {
		t.Errorf("Get(6) = %q, %v after recovery", v, ok)
	}
}

func TestEmptyPageBacksOff(t *testing.T) {
	now := time.Unix(1000, 0)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(d)
	}

	p := newFakeProvider("", 10, 3)
	c := New[string](3,
		WithBackoff(retry.Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}),
		withClock(clock),
	)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// The listing shrank on the server after the cache was sized.
	p.mu.Lock()
	p.total = 4
	p.mu.Unlock()

	c.Get(6)
	c.Wait()
	c.Get(7)
	c.Wait()
	if got := p.callCount(6); got != 1 {
		t.Fatalf("fetches after empty page = %d, want 1", got)
	}
	if c.Ready(2) {
		t.Error("Ready(2) = true after an empty page")
	}

	advance(150 * time.Millisecond)
	c.Get(6)
	c.Wait()
	if got := p.callCount(6); got != 2 {
		t.Errorf("fetches after backoff = %d, want 2", got)
	}
}

func TestReinitializeDropsStaleBatch(t *testing.T) {
	old := newFakeProvider("old-", 10, 3)
	fresh := newFakeProvider("new-", 10, 3)
	c := New[string](3)

	if err := c.Initialize(context.Background(), old.provide); err != nil {
		t.Fatalf("Initialize(old) error = %v", err)
	}
	release := old.gate(3)
	c.Get(3)
	waitFor(t, func() bool { return old.callCount(3) == 1 })

	if err := c.Initialize(context.Background(), fresh.provide); err != nil {
		t.Fatalf("Initialize(fresh) error = %v", err)
	}
	release()
	c.Wait()

	if c.Loading(1) {
		t.Error("Loading(1) = true, stale fetch leaked into new generation")
	}
	if v, ok := c.Get(3); ok {
		t.Errorf("Get(3) = %q, want miss (stale result must be dropped)", v)
	}
	c.Wait()
	if v, ok := c.Get(3); !ok || v != "new-3" {
		t.Errorf("Get(3) = %q, %v, want \"new-3\"", v, ok)
	}
}

func TestInitializeSuperseded(t *testing.T) {
	slow := newFakeProvider("slow-", 5, 3)
	fast := newFakeProvider("fast-", 7, 3)
	c := New[string](3)

	release := slow.gate(0)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Initialize(context.Background(), slow.provide) }()
	waitFor(t, func() bool { return slow.callCount(0) == 1 })

	if err := c.Initialize(context.Background(), fast.provide); err != nil {
		t.Fatalf("Initialize(fast) error = %v", err)
	}
	release()

	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Errorf("Initialize(slow) error = %v, want ErrSuperseded", err)
	}
	if got := c.Len(); got != 7 {
		t.Errorf("Len() = %d, want 7 from the newer provider", got)
	}
}

func TestInitializeError(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	p.fail(0, errors.New("down"))
	c := New[string](3)

	if err := c.Initialize(context.Background(), p.provide); err == nil {
		t.Fatal("Initialize() error = nil, want error")
	}
	if c.Loaded() {
		t.Error("Loaded() = true after failed initialize")
	}
	if _, ok := c.Get(0); ok {
		t.Error("Get(0) = true after failed initialize")
	}
}

func TestClampedOffsetWritesWhereServerSays(t *testing.T) {
	p := newFakeProvider("x", 10, 3)
	p.offset = func(requested int) int {
		if requested == 9 {
			return 8
		}
		return requested
	}
	c := New[string](3)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	c.Get(9)
	c.Wait()

	if v, ok := c.Get(8); !ok || v != "x8" {
		t.Errorf("Get(8) = %q, %v, want \"x8\"", v, ok)
	}
	if v, ok := c.Get(9); !ok || v != "x9" {
		t.Errorf("Get(9) = %q, %v, want \"x9\"", v, ok)
	}
	if !c.Ready(2) || !c.Ready(3) {
		t.Error("batches receiving writes should be ready")
	}
}

func TestSubscribeCancel(t *testing.T) {
	c := New[string](3)
	changes, cancel := c.Subscribe()

	p := newFakeProvider("", 4, 3)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var last Change
	for i := 0; i < 2; i++ {
		select {
		case last = <-changes:
		case <-time.After(time.Second):
			t.Fatal("missing initialization change")
		}
	}
	if last.Batch != -1 || last.Version != c.Version() {
		t.Errorf("last change = %+v, want batch -1 at version %d", last, c.Version())
	}

	cancel()
	cancel()
	if _, ok := <-changes; ok {
		t.Error("channel still open after cancel")
	}
}

func TestCloseDropsInFlight(t *testing.T) {
	p := newFakeProvider("", 10, 3)
	c := New[string](3)
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	p.gate(3)
	c.Get(3)
	waitFor(t, func() bool { return p.callCount(3) == 1 })

	c.Close()
	c.Wait()

	if c.Loaded() || c.Len() != 0 {
		t.Errorf("after Close: Loaded() = %v, Len() = %d", c.Loaded(), c.Len())
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	reads map[string]int
	fetch int
	stale int
	skips int
	inits int
}

func (r *recordingObserver) ObserveRead(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reads == nil {
		r.reads = make(map[string]int)
	}
	r.reads[result]++
}

func (r *recordingObserver) ObserveFetchStarted() {}

func (r *recordingObserver) ObserveFetchFinished(_ time.Duration, stale bool, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetch++
	if stale {
		r.stale++
	}
}

func (r *recordingObserver) ObserveBackoffSkip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skips++
}

func (r *recordingObserver) ObserveInitialize(bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	p := newFakeProvider("", 10, 3)
	c := New[string](3, WithObserver(obs))
	if err := c.Initialize(context.Background(), p.provide); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	c.Get(0)
	c.Get(3)
	c.Get(20)
	c.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.reads["hit"] != 1 || obs.reads["miss"] != 1 || obs.reads["out_of_range"] != 1 {
		t.Errorf("reads = %v, want one of each", obs.reads)
	}
	if obs.fetch != 1 {
		t.Errorf("fetches = %d, want 1", obs.fetch)
	}
	if obs.inits != 1 {
		t.Errorf("inits = %d, want 1", obs.inits)
	}
}
