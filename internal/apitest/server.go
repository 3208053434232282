package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/mediatypes"

	"github.com/gorilla/mux"
)

// Route names accepted by Requests, Offsets, FailNext and Gate.
const (
	RouteListFiles         = "list-files"
	RouteSearch            = "search"
	RouteSimilarToImage    = "similar-to-image"
	RouteListDirectories   = "list-directories"
	RouteRegister          = "register"
	RouteUnregister        = "unregister"
	RouteCancel            = "cancel-initialization"
	RouteOpen              = "open"
	RouteOpenInDirectory   = "open-in-directory"
	RouteSelectDirectory   = "select-directory"
	defaultLimit           = 100
	missingDirectoryStatus = http.StatusUnprocessableEntity
)

// RouteSimilar returns the route name of a file-based similarity variant.
func RouteSimilar(v api.Variant) string {
	return string(v)
}

var similarPaths = map[api.Variant]string{
	api.SimilarDescription:    "/files/find-with-similar-description",
	api.SimilarMetadata:       "/files/find-with-similar-metadata",
	api.SimilarLLMDescription: "/files/find-with-similar-llm-text",
	api.SimilarImages:         "/files/find-visually-similar-images",
	api.SimilarVideos:         "/files/find-visually-similar-videos",
}

// Server is an in-memory stand-in for the indexing service.
type Server struct {
	*httptest.Server

	t  testing.TB
	mu sync.Mutex

	dirs    []api.DirectoryStatus
	files   map[string][]api.FileMetadata
	similar map[api.Variant][]api.ScoredFile
	picker  api.SelectDirectoryResponse

	requests map[string]int
	offsets  map[string][]int
	headers  map[string][]string
	failures map[string][]int
	gates    map[string]chan struct{}

	opened       []api.FileID
	revealed     []api.FileID
	registered   []api.RegisterRequest
	unregistered []string
	canceled     []string
}

// New starts a Server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:        t,
		files:    make(map[string][]api.FileMetadata),
		similar:  make(map[api.Variant][]api.ScoredFile),
		picker:   api.SelectDirectoryResponse{Canceled: true},
		requests: make(map[string]int),
		offsets:  make(map[string][]int),
		headers:  make(map[string][]string),
		failures: make(map[string][]int),
		gates:    make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	files := r.PathPrefix("/files").Subrouter()
	files.Use(requireDirectory)
	files.HandleFunc("/", s.listFiles).Methods("GET").Name(RouteListFiles)
	files.HandleFunc("/search", s.search).Methods("POST").Name(RouteSearch)
	for variant, path := range similarPaths {
		files.HandleFunc(strings.TrimPrefix(path, "/files"), s.findSimilar(variant)).
			Methods("POST").Name(RouteSimilar(variant))
	}
	files.HandleFunc("/find-similar-to-uploaded-image", s.findSimilarToImage).Methods("POST").Name(RouteSimilarToImage)

	r.HandleFunc("/directory/", s.listDirectories).Methods("GET").Name(RouteListDirectories)
	r.HandleFunc("/directory/", s.register).Methods("POST").Name(RouteRegister)
	r.HandleFunc("/directory/", s.unregister).Methods("DELETE").Name(RouteUnregister)
	r.HandleFunc("/directory/cancel-initialization/{name}", s.cancel).Methods("POST").Name(RouteCancel)

	access := r.PathPrefix("/access").Subrouter()
	access.HandleFunc("/select-directory", s.selectDirectory).Methods("POST").Name(RouteSelectDirectory)
	scoped := access.NewRoute().Subrouter()
	scoped.Use(requireDirectory)
	scoped.HandleFunc("/open", s.open(&s.opened)).Methods("POST").Name(RouteOpen)
	scoped.HandleFunc("/open-in-directory", s.open(&s.revealed)).Methods("POST").Name(RouteOpenInDirectory)

	return r
}

// Client returns an api.Client pointed at the server.
func (s *Server) Client() *api.Client {
	s.t.Helper()
	c, err := api.New(api.Options{BaseURL: s.URL, Timeout: 5 * time.Second})
	if err != nil {
		s.t.Fatalf("api.New: %v", err)
	}
	return c
}

// Close releases every gate and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	for route, gate := range s.gates {
		close(gate)
		delete(s.gates, route)
	}
	s.mu.Unlock()
	s.Server.Close()
}

// SetDirectories replaces the registered directory list.
func (s *Server) SetDirectories(dirs ...api.DirectoryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = append([]api.DirectoryStatus(nil), dirs...)
}

// SetFiles replaces the files of one directory.
func (s *Server) SetFiles(directory string, files []api.FileMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[directory] = append([]api.FileMetadata(nil), files...)
}

// GenerateFiles fills directory with n images named file-<id>.jpg, ids
// starting at 1, and returns them.
func (s *Server) GenerateFiles(directory string, n int) []api.FileMetadata {
	files := make([]api.FileMetadata, n)
	for i := range files {
		id := api.FileID(i + 1)
		files[i] = api.FileMetadata{
			ID:          id,
			Name:        fmt.Sprintf("file-%d.jpg", id),
			FileType:    mediatypes.FileTypeImage,
			Description: fmt.Sprintf("description %d", id),
		}
	}
	s.SetFiles(directory, files)
	return files
}

// SetSimilar fixes the results of a file-based similarity variant. Without
// it every other file of the directory is returned.
func (s *Server) SetSimilar(v api.Variant, results []api.ScoredFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similar[v] = results
}

// SetPicker sets the folder picker answer.
func (s *Server) SetPicker(resp api.SelectDirectoryResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker = resp
}

// Directories returns the current directory list.
func (s *Server) Directories() []api.DirectoryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.DirectoryStatus(nil), s.dirs...)
}

// Requests returns how many requests reached route.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Offsets returns the offset query parameter of each request to route.
func (s *Server) Offsets(route string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.offsets[route]...)
}

// DirectoryHeaders returns the X-Directory header of each request to route.
func (s *Server) DirectoryHeaders(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.headers[route]...)
}

// FailNext makes the next len(statuses) requests to route answer with the
// given status codes, in order.
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

// Gate holds requests to route until the returned release func is called.
// Requests already counted stay visible through Requests while held.
func (s *Server) Gate(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == gate {
				delete(s.gates, route)
				close(gate)
			}
			s.mu.Unlock()
		})
	}
}

// Opened returns the ids passed to the open endpoint.
func (s *Server) Opened() []api.FileID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.FileID(nil), s.opened...)
}

// Revealed returns the ids passed to the open-in-directory endpoint.
func (s *Server) Revealed() []api.FileID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.FileID(nil), s.revealed...)
}

// Registered returns every accepted registration request.
func (s *Server) Registered() []api.RegisterRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.RegisterRequest(nil), s.registered...)
}

// Unregistered returns the names of removed directories.
func (s *Server) Unregistered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.unregistered...)
}

// Canceled returns the names passed to cancel-initialization.
func (s *Server) Canceled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.canceled...)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ""
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}

		s.mu.Lock()
		s.requests[route]++
		if raw := r.URL.Query().Get("offset"); raw != "" {
			if offset, err := strconv.Atoi(raw); err == nil {
				s.offsets[route] = append(s.offsets[route], offset)
			}
		}
		s.headers[route] = append(s.headers[route], r.Header.Get(api.DirectoryHeader))
		gate := s.gates[route]
		status := 0
		if queue := s.failures[route]; len(queue) > 0 {
			status, s.failures[route] = queue[0], queue[1:]
		}
		s.mu.Unlock()

		logging.Debug("apitest: %s %s (route %s)", r.Method, r.URL.RequestURI(), route)

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSONError(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireDirectory(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(api.DirectoryHeader) == "" {
			writeJSONError(w, "missing "+api.DirectoryHeader+" header", missingDirectoryStatus)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON. Encoding failures are reported to the test.
func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("apitest: failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
