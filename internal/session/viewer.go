package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"media-explorer/internal/api"
	"media-explorer/internal/history"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
	"media-explorer/internal/pagination"

	gocache "github.com/patrickmn/go-cache"
)

// DataSource is what the viewer is currently showing.
type DataSource string

const (
	SourceAll        DataSource = "all"
	SourceSearch     DataSource = "search"
	SourceSimilarity DataSource = "embedding-similarity"
)

// refreshSentinel is appended to a query equal to the current one so that
// resubmitting it still counts as a new search.
const refreshSentinel = " "

// Viewer browses one directory: the full listing, a text search, or the
// results of a similarity operation. Listing and search results are paged
// through a pagination.Cache; similarity results arrive whole.
type Viewer struct {
	backend    Backend
	cache      *pagination.Cache[api.ScoredFile]
	history    *history.Stack
	similarity *gocache.Cache
	opened     *pagination.ExtraData[bool]
	limit      int

	mu        sync.Mutex
	gen       uint64
	directory string
	source    DataSource
	query     string
	display   string
	results   []api.ScoredFile
}

func newViewer(backend Backend, cfg Config) *Viewer {
	v := &Viewer{
		backend: backend,
		cache: pagination.New[api.ScoredFile](cfg.FetchLimit,
			pagination.WithBackoff(cfg.BatchBackoff),
			pagination.WithObserver(metrics.NewCacheObserver("viewer")),
		),
		history: history.New(),
		opened:  pagination.NewExtraData(false),
		limit:   cfg.FetchLimit,
		source:  SourceAll,
	}
	if v.limit < 1 {
		v.limit = DefaultConfig().FetchLimit
	}
	if cfg.SimilarityTTL > 0 {
		v.similarity = gocache.New(cfg.SimilarityTTL, 2*cfg.SimilarityTTL)
	}
	return v
}

func (v *Viewer) allProvider(directory string) pagination.Provider[api.ScoredFile] {
	return func(ctx context.Context, offset int) (pagination.Page[api.ScoredFile], error) {
		page, err := v.backend.ListFiles(ctx, directory, offset, v.limit)
		if err != nil {
			return pagination.Page[api.ScoredFile]{}, err
		}
		data := make([]api.ScoredFile, len(page.Files))
		for i, f := range page.Files {
			data[i] = api.ScoredFile{File: f}
		}
		return pagination.Page[api.ScoredFile]{Data: data, Offset: page.Offset, Total: page.Total}, nil
	}
}

func (v *Viewer) searchProvider(directory, query string) pagination.Provider[api.ScoredFile] {
	return func(ctx context.Context, offset int) (pagination.Page[api.ScoredFile], error) {
		page, err := v.backend.SearchFiles(ctx, directory, query, offset, v.limit)
		if err != nil {
			return pagination.Page[api.ScoredFile]{}, err
		}
		return pagination.Page[api.ScoredFile]{Data: page.Results, Offset: page.Offset, Total: page.Total}, nil
	}
}

// load initializes the cache for source and blocks until the first page
// arrives. A newer load makes it return pagination.ErrSuperseded.
func (v *Viewer) load(ctx context.Context, directory string, source DataSource, query string) error {
	provider := v.allProvider(directory)
	if source == SourceSearch {
		provider = v.searchProvider(directory, query)
	}
	if err := v.cache.Initialize(ctx, provider); err != nil {
		return err
	}
	v.opened.Reset(v.cache.Len())
	return nil
}

// Open shows the full listing of directory and starts a fresh history.
func (v *Viewer) Open(ctx context.Context, directory string) error {
	v.mu.Lock()
	v.gen++
	v.directory = directory
	v.source = SourceAll
	v.query, v.display = "", ""
	v.results = nil
	v.mu.Unlock()

	v.history.Clear()
	logging.Debug("viewer: opening %s", directory)
	return v.load(ctx, directory, SourceAll, "")
}

// Close forgets the directory, its results and its history.
func (v *Viewer) Close() {
	v.mu.Lock()
	v.gen++
	v.directory = ""
	v.source = SourceAll
	v.query, v.display = "", ""
	v.results = nil
	v.mu.Unlock()

	v.history.Clear()
	v.cache.Close()
}

// showQuery switches to the listing or search for query and returns what to
// load. Must be called with mu held.
func (v *Viewer) showQuery(query string) (directory string, source DataSource, effective string) {
	effective = query
	if query == v.query {
		effective = query + refreshSentinel
	}
	source = SourceSearch
	if query == "" {
		source = SourceAll
	}
	v.gen++
	v.query = effective
	v.display = query
	v.source = source
	v.results = nil
	return v.directory, source, effective
}

// Submit runs a text search, or shows the full listing for an empty query,
// and records it in the history.
func (v *Viewer) Submit(ctx context.Context, query string) error {
	v.mu.Lock()
	directory, source, effective := v.showQuery(query)
	v.mu.Unlock()

	v.history.PushQuery(history.QueryAction{Query: query})
	return v.load(ctx, directory, source, effective)
}

// EmptyEnter returns to the full listing when something else is shown. It
// reports whether anything changed.
func (v *Viewer) EmptyEnter(ctx context.Context) (bool, error) {
	v.mu.Lock()
	if v.source == SourceAll {
		v.mu.Unlock()
		return false, nil
	}
	v.gen++
	v.source = SourceAll
	v.display = ""
	v.results = nil
	directory := v.directory
	v.mu.Unlock()

	v.history.PushQuery(history.QueryAction{Query: ""})
	return true, v.load(ctx, directory, SourceAll, "")
}

// RunSemantic runs a similarity operation and, on success, shows its results
// and records it in the history. On failure the current view is unchanged.
func (v *Viewer) RunSemantic(ctx context.Context, target history.Target, variant api.Variant) error {
	action, err := history.NewSemanticAction(variant, target)
	if err != nil {
		return err
	}

	v.mu.Lock()
	gen := v.gen
	directory := v.directory
	v.mu.Unlock()

	results, err := v.findSimilar(ctx, directory, action)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		return pagination.ErrSuperseded
	}
	v.gen++
	v.source = SourceSimilarity
	v.results = results
	v.mu.Unlock()

	v.opened.Reset(len(results))
	v.history.PushSemantic(action)
	return nil
}

// SimilarTo runs variant against the item at index. The variant must be
// one AvailableVariants offers for that item.
func (v *Viewer) SimilarTo(ctx context.Context, index int, variant api.Variant) error {
	item, ok := v.Item(index)
	if !ok {
		return fmt.Errorf("item %d is not loaded", index)
	}
	for _, available := range api.AvailableVariants(item.File) {
		if available == variant {
			return v.RunSemantic(ctx, history.FileTarget(item.File.ID), variant)
		}
	}
	return fmt.Errorf("%s is not available for %s", variant, item.File.Name)
}

func similarityKey(directory string, action history.SemanticAction) string {
	var target string
	switch t := action.Target.(type) {
	case history.FileTarget:
		target = "file:" + strconv.FormatInt(int64(t), 10)
	case history.ImageTarget:
		sum := sha256.Sum256([]byte(t))
		target = "image:" + hex.EncodeToString(sum[:])
	}
	return directory + "\x00" + string(action.Variant) + "\x00" + target
}

func (v *Viewer) findSimilar(ctx context.Context, directory string, action history.SemanticAction) ([]api.ScoredFile, error) {
	key := similarityKey(directory, action)
	if v.similarity != nil {
		if cached, found := v.similarity.Get(key); found {
			logging.Debug("viewer: %s served from memo", action)
			return cached.([]api.ScoredFile), nil
		}
	}

	var (
		results []api.ScoredFile
		err     error
	)
	switch t := action.Target.(type) {
	case history.FileTarget:
		results, err = v.backend.FindSimilar(ctx, directory, action.Variant, api.FileID(t))
	case history.ImageTarget:
		results, err = v.backend.FindSimilarToImage(ctx, directory, string(t))
	default:
		return nil, fmt.Errorf("%s: unsupported target %T", action.Variant, action.Target)
	}
	if err != nil {
		return nil, err
	}

	if v.similarity != nil {
		v.similarity.SetDefault(key, results)
	}
	return results, nil
}

// GoBack re-runs the action before the current one. The history's top item
// produced the current view and is discarded; the one beneath is popped and
// re-run, which pushes it again. Returning to the bottom of the history
// shows the full listing. It reports false when there is no history.
func (v *Viewer) GoBack(ctx context.Context) (bool, error) {
	item, ok := v.history.Back()
	if !ok {
		return false, nil
	}

	var query string
	switch it := item.(type) {
	case history.SemanticAction:
		return true, v.RunSemantic(ctx, it.Target, it.Variant)
	case history.QueryAction:
		query = it.Query
	case nil:
	default:
		return true, fmt.Errorf("unknown history item %T", item)
	}

	v.mu.Lock()
	directory, source, effective := v.showQuery(query)
	v.mu.Unlock()

	if item != nil {
		v.history.PushQuery(history.QueryAction{Query: query})
	}
	return true, v.load(ctx, directory, source, effective)
}

// Item returns the result at index. For paged sources a miss starts a
// background fetch and returns false; it never blocks.
func (v *Viewer) Item(index int) (api.ScoredFile, bool) {
	v.mu.Lock()
	source, results := v.source, v.results
	v.mu.Unlock()

	if source == SourceSimilarity {
		if index < 0 || index >= len(results) {
			return api.ScoredFile{}, false
		}
		return results[index], true
	}
	return v.cache.Get(index)
}

// Total returns the number of results in the current view.
func (v *Viewer) Total() int {
	v.mu.Lock()
	source, n := v.source, len(v.results)
	v.mu.Unlock()
	if source == SourceSimilarity {
		return n
	}
	return v.cache.Len()
}

// Loaded reports whether the current view has its first page.
func (v *Viewer) Loaded() bool {
	if v.Source() == SourceSimilarity {
		return true
	}
	return v.cache.Loaded()
}

// OpenItem asks the service host to open the item at index.
func (v *Viewer) OpenItem(ctx context.Context, index int) error {
	return v.access(ctx, index, v.backend.OpenFile)
}

// Reveal asks the service host to show the item at index in its file manager.
func (v *Viewer) Reveal(ctx context.Context, index int) error {
	return v.access(ctx, index, v.backend.OpenInDirectory)
}

func (v *Viewer) access(ctx context.Context, index int, call func(context.Context, string, api.FileID) error) error {
	item, ok := v.Item(index)
	if !ok {
		return fmt.Errorf("item %d is not loaded", index)
	}
	if err := call(ctx, v.Directory(), item.File.ID); err != nil {
		return err
	}
	v.opened.Set(index, true)
	return nil
}

// Opened reports whether the item at index was opened or revealed in the
// current view.
func (v *Viewer) Opened(index int) bool {
	opened, _ := v.opened.Get(index)
	return opened
}

// Changes subscribes to cache changes, for redrawing as pages arrive.
func (v *Viewer) Changes() (<-chan pagination.Change, func()) {
	return v.cache.Subscribe()
}

// Settle waits for background page fetches to finish.
func (v *Viewer) Settle() {
	v.cache.Wait()
}

// AwaitRange requests items [start, end) and waits until none of their
// pages is still being fetched, or ctx is done. Fetches left over from an
// earlier view are not waited for.
func (v *Viewer) AwaitRange(ctx context.Context, start, end int) error {
	changes, cancel := v.cache.Subscribe()
	defer cancel()

	for i := start; i < end; i++ {
		v.Item(i)
	}
	for v.Source() != SourceSimilarity && v.cache.LoadingRange(start, end) {
		select {
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Directory returns the directory being browsed, or "".
func (v *Viewer) Directory() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.directory
}

// Source returns the current data source.
func (v *Viewer) Source() DataSource {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source
}

// Query returns the query as typed, without any refresh sentinel.
func (v *Viewer) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.display
}

// CanGoBack reports whether GoBack has anything to do.
func (v *Viewer) CanGoBack() bool {
	return !v.history.IsEmpty()
}

// History describes the history bottom to top.
func (v *Viewer) History() []string {
	return v.history.Trail()
}

func (v *Viewer) memoEntries() int {
	if v.similarity == nil {
		return 0
	}
	return v.similarity.ItemCount()
}
