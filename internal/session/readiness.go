package session

import (
	"fmt"

	"media-explorer/internal/api"
)

// ReadinessState gates the viewer on the current directory's initialization.
type ReadinessState int

const (
	StateUnknown ReadinessState = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s ReadinessState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Readiness describes whether the current directory can be browsed.
type Readiness struct {
	Directory   string
	State       ReadinessState
	Progress    float64
	Description string
}

func readinessOf(status api.DirectoryStatus, known bool) Readiness {
	r := Readiness{
		Directory:   status.Name,
		Progress:    status.InitProgress,
		Description: status.InitProgressDescription,
	}
	switch {
	case !known:
		r.State = StateUnknown
	case status.Ready:
		r.State = StateReady
	case status.Failed:
		r.State = StateFailed
	default:
		r.State = StateInitializing
	}
	return r
}

// Message is the text shown in place of the viewer while it is gated.
func (r Readiness) Message() string {
	switch r.State {
	case StateReady:
		return ""
	case StateFailed:
		return "Directory initialization failed. Unregister the directory and add it again; " +
			"check the server logs for more information. Last status: " + r.Description
	case StateInitializing:
		return fmt.Sprintf("Initializing directory and downloading models (%.0f%%): %s", r.Progress*100, r.Description)
	default:
		return "No directory selected."
	}
}
