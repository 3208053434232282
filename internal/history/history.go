package history

import (
	"fmt"
	"sync"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
)

// EncodedImage is a base64-encoded image used as a similarity target.
type EncodedImage string

// Target is what a similarity search is run against: a FileTarget or an
// ImageTarget.
type Target interface {
	isTarget()
	String() string
}

// FileTarget targets an indexed file.
type FileTarget api.FileID

func (FileTarget) isTarget() {}

func (t FileTarget) String() string {
	return fmt.Sprintf("file #%d", int64(t))
}

// ImageTarget targets a pasted image.
type ImageTarget EncodedImage

func (ImageTarget) isTarget() {}

func (t ImageTarget) String() string {
	return fmt.Sprintf("pasted image (%d bytes encoded)", len(t))
}

// Item is one recorded search action: a QueryAction or a SemanticAction.
type Item interface {
	isItem()
	String() string
}

// QueryAction is a text search. An empty query means the unfiltered listing.
type QueryAction struct {
	Query string
}

func (QueryAction) isItem() {}

func (a QueryAction) String() string {
	return fmt.Sprintf("%q", a.Query)
}

// SemanticAction is a similarity search.
type SemanticAction struct {
	Target  Target
	Variant api.Variant
}

func (SemanticAction) isItem() {}

func (a SemanticAction) String() string {
	if a.Target == nil {
		return string(a.Variant)
	}
	return fmt.Sprintf("%s(%s)", a.Variant, a.Target)
}

// NewSemanticAction pairs a variant with its target, rejecting combinations
// the service cannot run: similar-to-pasted needs an ImageTarget and every
// other variant needs a FileTarget.
func NewSemanticAction(variant api.Variant, target Target) (SemanticAction, error) {
	if !variant.Valid() {
		return SemanticAction{}, fmt.Errorf("unknown similarity variant %q", variant)
	}
	switch target.(type) {
	case ImageTarget:
		if variant != api.SimilarToPasted {
			return SemanticAction{}, fmt.Errorf("variant %s needs a file target", variant)
		}
	case FileTarget:
		if variant == api.SimilarToPasted {
			return SemanticAction{}, fmt.Errorf("variant %s needs an image target", variant)
		}
	default:
		return SemanticAction{}, fmt.Errorf("variant %s: missing target", variant)
	}
	return SemanticAction{Target: target, Variant: variant}, nil
}

// Stack is an unbounded, in-memory undo stack of search actions. It is safe
// for concurrent use.
type Stack struct {
	mu    sync.Mutex
	items []Item
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{}
}

// PushQuery records a text search.
func (s *Stack) PushQuery(a QueryAction) {
	s.push(a, "query")
}

// PushSemantic records a similarity search.
func (s *Stack) PushSemantic(a SemanticAction) {
	s.push(a, "semantic")
}

func (s *Stack) push(item Item, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	metrics.HistoryPushesTotal.WithLabelValues(kind).Inc()
	logging.Debug("history: push %s, depth %d", item, len(s.items))
}

// Pop removes and returns the top item.
func (s *Stack) Pop() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pop()
}

func (s *Stack) pop() (Item, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// Peek returns the top item without removing it.
func (s *Stack) Peek() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

// IsEmpty reports whether the stack holds no items.
func (s *Stack) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear empties the stack, as when switching directories.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Back performs the two-pop "go back" step. The top of the stack is the
// action that produced the current view, so it is discarded, and the item
// beneath it is popped and returned for the caller to re-run. The caller
// pushes it again once it has been re-run, so repeated Back calls walk down
// one view at a time and the depth drops by exactly 2 per call before the
// re-push.
//
// The asymmetry is deliberate. ok is false only when the stack was empty and
// nothing happened. A nil item with ok true means the stack held a single
// action, and going back leads to the unfiltered listing.
func (s *Stack) Back() (item Item, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, false
	}
	s.pop()
	item, _ = s.pop()
	metrics.HistoryBackTotal.Inc()
	logging.Debug("history: back to %v, depth %d", item, len(s.items))
	return item, true
}

// Trail describes the stack bottom to top, for display and debugging.
func (s *Stack) Trail() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	for i, item := range s.items {
		out[i] = item.String()
	}
	return out
}
