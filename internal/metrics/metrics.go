// Package metrics defines package-level Prometheus metric variables for the
// countbench load generator. Call Register() once at startup to expose them
// on the default registry, or RegisterWith() to use an isolated registry in
// tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OpsApplied counts counter increments performed by writer workers,
	// labelled by write path. Valid paths: broker, direct.
	OpsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "countbench_ops_applied_total",
		Help: "Counter increments performed, by write path (broker|direct).",
	}, []string{"path"})

	// SamplesTaken counts Load() observations made by the sampler.
	SamplesTaken = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "countbench_samples_taken_total",
		Help: "Total Load() samples taken by the background sampler.",
	})

	// LastObserved is the counter total seen by the most recent sample.
	LastObserved = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "countbench_last_observed_value",
		Help: "Counter total at the most recent sampler observation.",
	})

	// WritersActive is the number of writer workers currently running.
	WritersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "countbench_writers_active",
		Help: "Writer workers currently running.",
	})
)

// Register registers all metrics with prometheus.DefaultRegisterer.
// Call once at process startup.
func Register() {
	RegisterWith(prometheus.DefaultRegisterer)
}

// RegisterWith registers all metrics with the given registerer.
// Use an isolated prometheus.NewRegistry() in tests to avoid conflicts.
func RegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(
		OpsApplied,
		SamplesTaken,
		LastObserved,
		WritersActive,
	)
}
