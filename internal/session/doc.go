// Package session orchestrates browsing one indexing service: which
// directory is shown, whether it is ready, and what the viewer displays.
//
// A Session starts by listing the registered directories and opening the
// stored default one. A poller keeps statuses fresh while any directory is
// initializing; the viewer of a directory only loads once it is ready, and an
// empty directory list falls back to the directory selector.
//
// The Viewer shows one of three data sources: the full listing, a text
// search, or similarity results. Listings and searches are paged lazily
// through pagination.Cache. Every search is recorded in a history.Stack and
// GoBack re-runs the previous one:
//
//	v := s.Viewer()
//	_ = v.Submit(ctx, "@image beach")
//	_ = v.SimilarTo(ctx, 3, api.SimilarImages)
//	_, _ = v.GoBack(ctx) // back to "@image beach"
package session
