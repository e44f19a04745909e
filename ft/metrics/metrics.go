// Package metrics exposes a Pipeline's counters() (§4.1) and a
// producer's file-handle cache stats as Prometheus collectors. Grounded on
// etalazz-vsa's prom_counters.go (package-level metric vars,
// MustRegister in an explicit registration call rather than init, to
// avoid surprising a binary that links this package without wanting
// metrics) and runZeroInc-sockstats' pattern of a custom Collector
// that re-derives gauge values from live state at scrape time instead
// of mirroring them eagerly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/n-dise/ndnft/ft/pipeline"
)

// PipelineCollector is a prometheus.Collector pulling its values from
// a live Pipeline's Counters() snapshot on every scrape.
type PipelineCollector struct {
	name string
	pl   pipeline.Pipeline

	tx         *prometheus.Desc
	rx         *prometheus.Desc
	nacks      *prometheus.Desc
	timeouts   *prometheus.Desc
	unexpected *prometheus.Desc
	delaySum   *prometheus.Desc
}

// NewPipelineCollector returns a collector reporting pl's counters
// under the given pipeline name label.
func NewPipelineCollector(name string, pl pipeline.Pipeline) *PipelineCollector {
	labels := []string{"pipeline"}
	return &PipelineCollector{
		name: name,
		pl:   pl,
		tx: prometheus.NewDesc("ndnft_pipeline_tx_total",
			"Total Interests transmitted.", labels, nil),
		rx: prometheus.NewDesc("ndnft_pipeline_rx_total",
			"Total Data packets received.", labels, nil),
		nacks: prometheus.NewDesc("ndnft_pipeline_nacks_total",
			"Total NACKs received.", labels, nil),
		timeouts: prometheus.NewDesc("ndnft_pipeline_timeouts_total",
			"Total PIT entries that timed out.", labels, nil),
		unexpected: prometheus.NewDesc("ndnft_pipeline_unexpected_total",
			"Total inbound packets matching no PIT entry.", labels, nil),
		delaySum: prometheus.NewDesc("ndnft_pipeline_delay_seconds_total",
			"Cumulative round-trip delay across all deliveries.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PipelineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tx
	ch <- c.rx
	ch <- c.nacks
	ch <- c.timeouts
	ch <- c.unexpected
	ch <- c.delaySum
}

// Collect implements prometheus.Collector, pulling a fresh
// Counters() snapshot from the pipeline on every scrape.
func (c *PipelineCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.pl.Counters()
	ch <- prometheus.MustNewConstMetric(c.tx, prometheus.CounterValue, float64(snap.Tx), c.name)
	ch <- prometheus.MustNewConstMetric(c.rx, prometheus.CounterValue, float64(snap.Rx), c.name)
	ch <- prometheus.MustNewConstMetric(c.nacks, prometheus.CounterValue, float64(snap.Nacks), c.name)
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(snap.Timeouts), c.name)
	ch <- prometheus.MustNewConstMetric(c.unexpected, prometheus.CounterValue, float64(snap.Unexpected), c.name)
	ch <- prometheus.MustNewConstMetric(c.delaySum, prometheus.CounterValue, snap.DelaySum.Seconds(), c.name)
}

// CacheStats is a point-in-time snapshot of the producer's
// file-handle cache (§4.3), supplied by the producer package (which
// owns the cache and its lock) rather than read directly here.
type CacheStats struct {
	OpenHandles int
	Evictions   uint64
}

// CacheStatsFunc is polled by CacheCollector on every scrape.
type CacheStatsFunc func() CacheStats

// CacheCollector exposes a producer's file-handle cache occupancy and
// cumulative eviction count.
type CacheCollector struct {
	stats CacheStatsFunc

	openHandles *prometheus.Desc
	evictions   *prometheus.Desc
}

// NewCacheCollector returns a collector polling stats on every scrape.
func NewCacheCollector(stats CacheStatsFunc) *CacheCollector {
	return &CacheCollector{
		stats: stats,
		openHandles: prometheus.NewDesc("ndnft_producer_open_handles",
			"Number of file handles currently cached.", nil, nil),
		evictions: prometheus.NewDesc("ndnft_producer_handle_evictions_total",
			"Total file handles closed by the idle evictor.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openHandles
	ch <- c.evictions
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.openHandles, prometheus.GaugeValue, float64(s.OpenHandles))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
}

// Register attaches collectors to reg, matching etalazz-vsa's
// explicit-call registration rather than package-init registration so
// that a binary not interested in metrics never pays for them.
func Register(reg *prometheus.Registry, collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

