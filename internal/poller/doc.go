// Package poller tracks the initialization state of registered directories.
//
// A Poller is Idle until it tracks a directory that is neither ready nor
// failed. It then fetches the full status list every interval, replacing its
// local copy wholesale, until no directory is in progress. Fetch errors are
// treated as transient and simply rescheduled.
//
// Status fetches go through a singleflight group, so an explicit Refresh
// issued while a poll is running shares that poll's request.
//
// Stop ends the poller for good. A request that is in flight when Stop runs
// is canceled, and its result is discarded if it arrives anyway.
package poller
