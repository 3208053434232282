package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
	"media-explorer/internal/poller"
	"media-explorer/internal/retry"
	"media-explorer/internal/settings"
)

// Backend is the part of the indexing service a Session uses. *api.Client
// implements it.
type Backend interface {
	poller.Lister
	ListFiles(ctx context.Context, directory string, offset, limit int) (api.FilePage, error)
	SearchFiles(ctx context.Context, directory, query string, offset, limit int) (api.SearchPage, error)
	FindSimilar(ctx context.Context, directory string, variant api.Variant, fileID api.FileID) ([]api.ScoredFile, error)
	FindSimilarToImage(ctx context.Context, directory, imageBase64 string) ([]api.ScoredFile, error)
	RegisterDirectory(ctx context.Context, req api.RegisterRequest) (api.DirectoryStatus, error)
	UnregisterDirectory(ctx context.Context, name string) error
	CancelInitialization(ctx context.Context, name string) error
	OpenFile(ctx context.Context, directory string, id api.FileID) error
	OpenInDirectory(ctx context.Context, directory string, id api.FileID) error
	SelectDirectory(ctx context.Context) (api.SelectDirectoryResponse, error)
}

// View is the top-level screen.
type View int

const (
	ViewLoading View = iota
	ViewSelector
	ViewViewer
)

func (v View) String() string {
	switch v {
	case ViewSelector:
		return "directory-selector"
	case ViewViewer:
		return "viewer"
	default:
		return "loading"
	}
}

// Event is published whenever the view, the current directory or the
// directory statuses change.
type Event struct {
	View        View
	Directory   string
	Readiness   Readiness
	Directories int
}

// Session ties the directory poller, the viewer and the settings service
// together. Create it with New, then call Start.
type Session struct {
	backend Backend
	prefs   *settings.Preferences
	cfg     Config
	poller  *poller.Poller
	viewer  *Viewer

	mu        sync.Mutex
	view      View
	directory string
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	subs      map[int]chan Event
	nextSub   int

	wg sync.WaitGroup
}

// New creates a Session in the loading view.
func New(backend Backend, prefs *settings.Preferences, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		backend: backend,
		prefs:   prefs,
		cfg:     cfg,
		poller:  poller.New(backend, cfg.PollInterval, poller.WithRequestTimeout(cfg.RequestTimeout)),
		viewer:  newViewer(backend, cfg),
		view:    ViewLoading,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[int]chan Event),
	}
}

// Start lists the registered directories, retrying until it succeeds or ctx
// is done, and picks the starting view: the stored default directory if it is
// still registered, otherwise the first one, or the directory selector when
// there are none.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.started = true
	s.mu.Unlock()

	var dirs []api.DirectoryStatus
	err := retry.Do(ctx, "list_directories", s.cfg.StartRetry, func(ctx context.Context) error {
		var err error
		dirs, err = s.backend.ListDirectories(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	updates, _ := s.poller.Subscribe()
	s.wg.Add(1)
	go s.watch(updates)

	s.poller.Track(dirs)
	return s.choose(ctx, dirs)
}

// Close stops polling and releases the viewer. The session cannot be
// restarted.
func (s *Session) Close() {
	s.cancel()
	s.poller.Stop()
	s.wg.Wait()
	s.viewer.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) watch(updates <-chan poller.Update) {
	defer s.wg.Done()
	for u := range updates {
		s.handleUpdate(u)
	}
}

func (s *Session) handleUpdate(u poller.Update) {
	if u.Empty {
		logging.Info("No directories registered, showing the directory selector")
		s.clearDirectory()
		s.publish()
		return
	}

	current := s.Directory()
	switch {
	case current == "":
	case !containsDirectory(u.Directories, current):
		logging.Info("Directory %s is no longer registered, switching to %s", current, u.Directories[0].Name)
		s.logOpenError(s.switchTo(s.ctx, u.Directories[0].Name))
	default:
		s.logOpenError(s.openIfReady(s.ctx, current))
	}
	s.publish()
}

func (s *Session) logOpenError(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("Failed to load directory listing: %v", err)
	}
}

// choose selects the directory and view for a fresh directory list.
func (s *Session) choose(ctx context.Context, dirs []api.DirectoryStatus) error {
	if len(dirs) == 0 {
		s.clearDirectory()
		s.publish()
		return nil
	}

	current := s.Directory()
	if !containsDirectory(dirs, current) {
		current = dirs[0].Name
		if def := s.prefs.DefaultDirectory(ctx); containsDirectory(dirs, def) {
			current = def
		}
	}

	err := s.switchTo(ctx, current)
	s.publish()
	return err
}

func (s *Session) clearDirectory() {
	s.mu.Lock()
	s.directory = ""
	s.view = ViewSelector
	s.mu.Unlock()
	s.viewer.Close()
}

// switchTo makes name the current directory and shows the viewer. The
// listing loads now if the directory is ready, otherwise once a poll reports
// it ready.
func (s *Session) switchTo(ctx context.Context, name string) error {
	s.mu.Lock()
	changed := s.directory != name
	s.directory = name
	s.view = ViewViewer
	s.mu.Unlock()

	if changed {
		logging.Debug("session: switched to directory %s", name)
		s.viewer.Close()
	}
	return s.openIfReady(ctx, name)
}

func (s *Session) openIfReady(ctx context.Context, name string) error {
	status, ok := s.poller.Status(name)
	if !ok || !status.Ready || s.viewer.Directory() == name {
		return nil
	}
	err := s.viewer.Open(ctx, name)
	if err == nil {
		logging.Info("Directory %s ready with %d files", name, s.viewer.Total())
	}
	return err
}

func containsDirectory(dirs []api.DirectoryStatus, name string) bool {
	if name == "" {
		return false
	}
	for _, d := range dirs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// SwitchDirectory browses another registered directory. The history starts
// over.
func (s *Session) SwitchDirectory(ctx context.Context, name string) error {
	if !containsDirectory(s.poller.Statuses(), name) {
		return fmt.Errorf("directory %q is not registered", name)
	}
	err := s.switchTo(ctx, name)
	s.publish()
	return err
}

// SetDefault stores name as the directory to open on the next start.
func (s *Session) SetDefault(ctx context.Context, name string) error {
	if !containsDirectory(s.poller.Statuses(), name) {
		return fmt.Errorf("directory %q is not registered", name)
	}
	return s.prefs.SetDefaultDirectory(ctx, name)
}

// Register registers a directory. The first directory becomes the default
// and is switched to. Failures are returned as *RegistrationError.
func (s *Session) Register(ctx context.Context, req api.RegisterRequest) (api.DirectoryStatus, error) {
	status, err := s.backend.RegisterDirectory(ctx, req)
	if err != nil {
		return status, &RegistrationError{Err: err}
	}
	logging.Info("Registered directory %s at %s", status.Name, req.Path)

	first := s.Directory() == "" || len(s.poller.Statuses()) == 0
	s.poller.Upsert(status)

	if first {
		if err := s.prefs.SetDefaultDirectory(ctx, status.Name); err != nil {
			logging.Warn("Failed to store default directory: %v", err)
		}
		s.logOpenError(s.switchTo(ctx, status.Name))
	} else {
		s.mu.Lock()
		s.view = ViewViewer
		s.mu.Unlock()
	}
	s.publish()
	return status, nil
}

// PickDirectory runs the service host's folder picker and fills req.Path
// with the choice. An empty req.Name is derived from the last path segment.
// A canceled picker returns req unchanged. Failures are returned as
// *PickerError.
func (s *Session) PickDirectory(ctx context.Context, req api.RegisterRequest) (api.RegisterRequest, error) {
	resp, err := s.backend.SelectDirectory(ctx)
	if err != nil {
		return req, &PickerError{Err: err}
	}
	if resp.SelectedPath == "" {
		if !resp.Canceled {
			return req, &PickerError{Err: errors.New("picker returned no path")}
		}
		return req, nil
	}

	req.Path = resp.SelectedPath
	if req.Name == "" {
		req.Name = lastSegment(resp.SelectedPath)
	}
	return req, nil
}

// lastSegment returns the final element of a path using the host's
// separator, which may be a backslash.
func lastSegment(path string) string {
	sep := "/"
	if strings.Contains(path, `\`) {
		sep = `\`
	}
	trimmed := strings.TrimRight(path, sep)
	if trimmed == "" {
		return ""
	}
	return trimmed[strings.LastIndex(trimmed, sep)+1:]
}

// Unregister removes a directory. Removing the current directory switches to
// another one, or to the directory selector if none is left. On failure the
// directory list is fetched again and the view re-chosen.
func (s *Session) Unregister(ctx context.Context, name string) error {
	if err := s.backend.UnregisterDirectory(ctx, name); err != nil {
		s.mu.Lock()
		s.view = ViewLoading
		s.mu.Unlock()
		s.publish()
		if rerr := s.reload(ctx); rerr != nil {
			logging.Warn("Failed to reload directories: %v", rerr)
		}
		return err
	}
	logging.Info("Unregistered directory %s", name)

	s.poller.Remove(name)
	remaining := s.poller.Statuses()
	switch {
	case len(remaining) == 0:
		s.clearDirectory()
	case s.Directory() == name:
		s.logOpenError(s.switchTo(ctx, remaining[0].Name))
	}
	s.publish()
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	var dirs []api.DirectoryStatus
	err := retry.Do(ctx, "refresh_directories", retry.DefaultConfig(), func(ctx context.Context) error {
		var err error
		dirs, err = s.poller.Refresh(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return s.choose(ctx, dirs)
}

// CancelInitialization asks the service to stop initializing name, or the
// current directory when name is empty.
func (s *Session) CancelInitialization(ctx context.Context, name string) error {
	if name == "" {
		name = s.Directory()
	}
	if err := s.backend.CancelInitialization(ctx, name); err != nil {
		return err
	}
	logging.Info("Requested cancellation of %s initialization", name)
	return nil
}

// ShowSelector switches to the directory selector, for adding a directory.
func (s *Session) ShowSelector() {
	s.mu.Lock()
	s.view = ViewSelector
	s.mu.Unlock()
	s.publish()
}

// ShowViewer leaves the directory selector.
func (s *Session) ShowViewer() error {
	s.mu.Lock()
	if s.directory == "" {
		s.mu.Unlock()
		return ErrNoDirectories
	}
	s.view = ViewViewer
	s.mu.Unlock()
	s.publish()
	return nil
}

// View returns the current top-level view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Directory returns the current directory, or "".
func (s *Session) Directory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory
}

// Directories returns the latest known directory statuses.
func (s *Session) Directories() []api.DirectoryStatus {
	return s.poller.Statuses()
}

// Readiness reports whether the current directory can be browsed.
func (s *Session) Readiness() Readiness {
	name := s.Directory()
	status, ok := s.poller.Status(name)
	r := readinessOf(status, ok && name != "")
	r.Directory = name
	return r
}

// Polling reports whether directory statuses are being polled.
func (s *Session) Polling() bool {
	return s.poller.Polling()
}

// Viewer returns the viewer of the current directory.
func (s *Session) Viewer() *Viewer {
	return s.viewer
}

// Preferences returns the settings service the session was created with.
func (s *Session) Preferences() *settings.Preferences {
	return s.prefs
}

// Subscribe returns a channel of session events and a function that cancels
// the subscription. Events are dropped when the subscriber falls behind.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *Session) publish() {
	readiness := s.Readiness()
	count := len(s.poller.Statuses())

	s.mu.Lock()
	defer s.mu.Unlock()
	event := Event{View: s.view, Directory: s.directory, Readiness: readiness, Directories: count}
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Stats implements metrics.StatsProvider.
func (s *Session) Stats() metrics.Stats {
	stats := metrics.Stats{
		CachedItems:       s.viewer.cache.Cached(),
		TotalItems:        s.viewer.Total(),
		HistoryDepth:      s.viewer.history.Len(),
		SimilarityEntries: s.viewer.memoEntries(),
	}
	for _, d := range s.poller.Statuses() {
		switch {
		case d.Ready:
			stats.Ready++
		case d.Failed:
			stats.Failed++
		default:
			stats.Initializing++
		}
	}
	return stats
}
