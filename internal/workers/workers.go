package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the number of concurrent workers for a task. It respects
// container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work and
// 2.0 or more for work that mostly waits on the network.
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the FETCH_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("FETCH_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns the worker count for network-bound tasks (4 per CPU). The API
// client uses it to size its connection pool and limiter burst, which bounds
// how many batch fetches a fast scroll can have outstanding at once.
func ForIO(limit int) int {
	return Count(4.0, limit)
}
