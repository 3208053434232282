package handlers

import (
	"time"

	"media-explorer/internal/api"
	"media-explorer/internal/session"
)

// StatusSource is the session state the status endpoints report on.
// *session.Session implements it.
type StatusSource interface {
	View() session.View
	Directory() string
	Readiness() session.Readiness
	Directories() []api.DirectoryStatus
	Polling() bool
}

// Handlers holds the dependencies of the status endpoints.
type Handlers struct {
	source    StatusSource
	serverURL string
	startTime time.Time
}

// New creates the status handlers for source, which talks to serverURL.
func New(source StatusSource, serverURL string) *Handlers {
	return &Handlers{
		source:    source,
		serverURL: serverURL,
		startTime: time.Now(),
	}
}
