package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"media-explorer/internal/api"
	"media-explorer/internal/mediatypes"

	"github.com/gorilla/mux"
)

func score(v float64) *float64 {
	return &v
}

// pageBounds clamps offset into [0, total] and applies the limit.
func pageBounds(r *http.Request, total int) (start, end int) {
	q := r.URL.Query()
	start, _ = strconv.Atoi(q.Get("offset"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

// directoryFiles returns the files of the request's directory, or false
// after writing a 404 when the directory is unknown.
func (s *Server) directoryFiles(w http.ResponseWriter, r *http.Request) ([]api.FileMetadata, bool) {
	name := r.Header.Get(api.DirectoryHeader)
	s.mu.Lock()
	files, ok := s.files[name]
	if !ok {
		for _, d := range s.dirs {
			if d.Name == name {
				ok = true
				break
			}
		}
	}
	files = append([]api.FileMetadata(nil), files...)
	s.mu.Unlock()

	if !ok {
		writeJSONError(w, "directory "+name+" not found", http.StatusNotFound)
		return nil, false
	}
	return files, true
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, ok := s.directoryFiles(w, r)
	if !ok {
		return
	}
	start, end := pageBounds(r, len(files))
	s.writeJSON(w, api.FilePage{Files: files[start:end], Offset: start, Total: len(files)})
}

// matches applies @image, @video and @audio filters and a case-insensitive
// substring match of the remaining words against name and description.
// Other tags are accepted and ignored.
func matches(f api.FileMetadata, query string) bool {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if !strings.HasPrefix(word, "@") {
			words = append(words, word)
			continue
		}
		switch ft := mediatypes.FileType(strings.TrimPrefix(word, "@")); ft {
		case mediatypes.FileTypeImage, mediatypes.FileTypeVideo, mediatypes.FileTypeAudio:
			if f.FileType != ft {
				return false
			}
		}
	}
	text := strings.ToLower(f.Name + " " + f.Description)
	for _, word := range words {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	files, ok := s.directoryFiles(w, r)
	if !ok {
		return
	}
	var body struct {
		Query string `json:"query"`
	}
	if !decode(w, r, &body) {
		return
	}

	var results []api.ScoredFile
	for _, f := range files {
		if matches(f, body.Query) {
			results = append(results, api.ScoredFile{
				File:         f,
				LexicalScore: score(1),
				TotalScore:   score(1),
			})
		}
	}
	start, end := pageBounds(r, len(results))
	page := api.SearchPage{Results: results[start:end], Offset: start, Total: len(results)}
	if page.Results == nil {
		page.Results = []api.ScoredFile{}
	}
	s.writeJSON(w, page)
}

func (s *Server) findSimilar(variant api.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, ok := s.directoryFiles(w, r)
		if !ok {
			return
		}
		var body struct {
			FileID api.FileID `json:"fileId"`
		}
		if !decode(w, r, &body) {
			return
		}

		s.mu.Lock()
		fixed, isFixed := s.similar[variant]
		s.mu.Unlock()
		if isFixed {
			s.writeJSON(w, fixed)
			return
		}

		results := []api.ScoredFile{}
		found := false
		for _, f := range files {
			if f.ID == body.FileID {
				found = true
				continue
			}
			results = append(results, api.ScoredFile{File: f, DenseScore: score(0.5), TotalScore: score(0.5)})
		}
		if !found {
			writeJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, results)
	}
}

func (s *Server) findSimilarToImage(w http.ResponseWriter, r *http.Request) {
	files, ok := s.directoryFiles(w, r)
	if !ok {
		return
	}
	var body struct {
		ImageDataBase64 string `json:"imageDataBase64"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.ImageDataBase64 == "" {
		writeJSONError(w, "imageDataBase64 is required", http.StatusBadRequest)
		return
	}

	results := []api.ScoredFile{}
	for _, f := range files {
		if f.FileType == mediatypes.FileTypeImage {
			results = append(results, api.ScoredFile{File: f, DenseScore: score(0.75), TotalScore: score(0.75)})
		}
	}
	s.writeJSON(w, results)
}

func (s *Server) listDirectories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	dirs := append([]api.DirectoryStatus{}, s.dirs...)
	s.mu.Unlock()
	s.writeJSON(w, dirs)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Path == "" {
		writeJSONError(w, "name and path are required", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.dirs {
		if d.Name == req.Name {
			writeJSONError(w, "directory "+req.Name+" already exists", http.StatusConflict)
			return
		}
	}
	status := api.DirectoryStatus{Name: req.Name, InitProgressDescription: "queued"}
	s.dirs = append(s.dirs, status)
	s.registered = append(s.registered, req)
	s.writeJSON(w, status)
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.dirs {
		if d.Name == body.Name {
			s.dirs = append(s.dirs[:i:i], s.dirs[i+1:]...)
			delete(s.files, body.Name)
			s.unregistered = append(s.unregistered, body.Name)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSONError(w, "directory "+body.Name+" not found", http.StatusNotFound)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.dirs {
		if d.Name == name {
			if d.InProgress() {
				s.dirs[i].Failed = true
				s.dirs[i].InitProgressDescription = "initialization canceled"
			}
			s.canceled = append(s.canceled, name)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSONError(w, "directory "+name+" not found", http.StatusNotFound)
}

func (s *Server) open(into *[]api.FileID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FileID api.FileID `json:"fileId"`
		}
		if !decode(w, r, &body) {
			return
		}
		s.mu.Lock()
		*into = append(*into, body.FileID)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) selectDirectory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := s.picker
	s.mu.Unlock()
	s.writeJSON(w, resp)
}
