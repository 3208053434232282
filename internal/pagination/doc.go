// Package pagination provides Cache, a lazily populated, index-addressable
// view over a remote paginated collection.
//
// A Cache is bound to one Provider at a time by Initialize, which blocks until
// the first page arrives and sizes the cache to the reported total. After
// that, Get is a non-blocking read: a miss starts one background fetch for
// the batch containing the index and returns false. Concurrent misses in the
// same batch share that fetch.
//
// Fetch results are applied in whatever order they arrive. Each Initialize
// starts a new generation; results belonging to an older generation are
// dropped, so items from a previous provider never appear after a switch.
//
// Failed fetches clear the batch's loading flag so a later read can retry.
// With WithBackoff the retry is held back for an exponentially growing delay
// per batch, which keeps a scrolling surface from hammering a service that is
// down.
//
// Subscribe delivers a Change after every settled fetch and every
// initialization:
//
//	changes, cancel := cache.Subscribe()
//	defer cancel()
//	for range changes {
//	    redraw()
//	}
package pagination
