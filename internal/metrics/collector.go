package metrics

import (
	"time"

	"media-explorer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	Stats() Stats
}

// Stats holds a point-in-time snapshot of session state
type Stats struct {
	CachedItems       int
	TotalItems        int
	HistoryDepth      int
	SimilarityEntries int
	Ready             int
	Failed            int
	Initializing      int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.Stats()

	SessionCachedItems.Set(float64(stats.CachedItems))
	SessionTotalItems.Set(float64(stats.TotalItems))
	SessionHistoryDepth.Set(float64(stats.HistoryDepth))
	SessionSimilarityCacheEntries.Set(float64(stats.SimilarityEntries))
	PollerDirectories.WithLabelValues("ready").Set(float64(stats.Ready))
	PollerDirectories.WithLabelValues("failed").Set(float64(stats.Failed))
	PollerDirectories.WithLabelValues("initializing").Set(float64(stats.Initializing))

	logging.Debug("Metrics collected: %d/%d items cached, history depth %d",
		stats.CachedItems, stats.TotalItems, stats.HistoryDepth)
}
