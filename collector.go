package distcount

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Loader is the read-side surface shared by Counter and ShardedCounter.
type Loader interface {
	Load() int64
}

// NewCollector adapts c into a prometheus.Collector exposing the current
// total as a gauge. A gauge rather than a prometheus counter because
// Exchange (and Sub) can move the total downward. Each scrape pays one Load,
// i.e. O(registered brokers).
func NewCollector(opts prometheus.GaugeOpts, c Loader) prometheus.Collector {
	return prometheus.NewGaugeFunc(opts, func() float64 {
		return float64(c.Load())
	})
}
