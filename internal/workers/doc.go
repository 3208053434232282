/*
Package workers sizes the explorer's outbound concurrency.

Scrolling through a large listing can leave many batch fetches in flight at
once. The API client bounds them with an HTTP connection pool and a rate
limiter burst, both sized from GOMAXPROCS so a container CPU limit is
respected:

	conns := workers.ForIO(32) // 4 per CPU, at most 32

Count takes an explicit multiplier and limit for other workloads:

	n := workers.Count(1.0, 8)

# Environment Variable Override

FETCH_WORKERS overrides the computed count, still capped by the limit:

	FETCH_WORKERS=4 media-explorer

All functions are safe for concurrent use.
*/
package workers
