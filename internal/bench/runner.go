// Package bench drives configurable write load against a distcount counter
// and verifies at the end of the run that the drained total matches the
// number of operations actually performed.
package bench

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/developingchet/distcount"
	"github.com/developingchet/distcount/internal/config"
	"github.com/developingchet/distcount/internal/metrics"
)

// Runner owns the counter under load, the writer pool, and the optional
// metrics HTTP server.
type Runner struct {
	cfg    *config.Config
	global *distcount.Counter // the counter being exercised

	// applied tracks how many increments the writers really performed. It is
	// the library's own sharded wrapper, so the tool's bookkeeping gets the
	// same lock-free hot path as the workload it measures.
	applied *distcount.ShardedCounter

	pool    *ants.Pool
	httpSrv *http.Server // nil when MetricsAddr == ""
}

// New creates a Runner and initialises all dependencies.
func New(cfg *config.Config) (*Runner, error) {
	pool, err := ants.NewPool(cfg.Writers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("bench: worker pool: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		global:  distcount.New(0),
		applied: distcount.NewSharded(),
		pool:    pool,
	}

	if cfg.MetricsAddr != "" {
		col := distcount.NewCollector(prometheus.GaugeOpts{
			Name: "countbench_counter_value",
			Help: "Current total of the counter under load.",
		}, r.global)
		if err := prometheus.Register(col); err != nil {
			log.Warn().Err(err).Msg("counter collector already registered")
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.httpSrv = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		}
	}

	return r, nil
}

// Run executes the configured workload and blocks until it completes or ctx
// is cancelled. On a clean or cancelled run it drains the counter and checks
// the drained total against the applied-op count.
func (r *Runner) Run(ctx context.Context) error {
	if r.httpSrv != nil {
		go func() {
			log.Info().Str("addr", r.cfg.MetricsAddr).Msg("metrics server listening")
			if err := r.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	log.Info().
		Int("writers", r.cfg.Writers).
		Int("ops_per_writer", r.cfg.OpsPerWriter).
		Int("direct_share_pct", r.cfg.DirectShare).
		Str("sample_interval", r.cfg.SampleInterval.String()).
		Msg("bench started")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, _ := errgroup.WithContext(runCtx)
	g.Go(func() error {
		r.runSampler(runCtx)
		return nil
	})

	directWriters := r.cfg.Writers * r.cfg.DirectShare / 100

	var wg sync.WaitGroup
	var submitErr error
	for i := 0; i < r.cfg.Writers; i++ {
		direct := i < directWriters
		wg.Add(1)
		task := func() {
			defer wg.Done()
			r.writerLoop(runCtx, direct)
		}
		if err := r.pool.Submit(task); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("bench: submit writer: %w", err)
			cancel()
			break
		}
	}
	wg.Wait()
	cancel()
	_ = g.Wait()

	if submitErr != nil {
		return submitErr
	}

	drained := r.global.Exchange(0)
	expected := r.applied.Exchange(0)
	log.Info().
		Int64("drained", drained).
		Int64("applied", expected).
		Msg("bench finished")

	if drained != expected {
		return fmt.Errorf("bench: drained total %d does not match %d applied ops", drained, expected)
	}
	return nil
}

// writerLoop performs this worker's share of increments. Broker writers own
// a private broker for the whole loop and flush it on the way out; direct
// writers hit the counter's residual on every op.
func (r *Runner) writerLoop(ctx context.Context, direct bool) {
	metrics.WritersActive.Inc()
	defer metrics.WritersActive.Dec()

	n := 0
	if direct {
		for ; n < r.cfg.OpsPerWriter && ctx.Err() == nil; n++ {
			r.global.Inc()
			r.applied.Inc()
		}
		metrics.OpsApplied.WithLabelValues("direct").Add(float64(n))
		return
	}

	b := distcount.NewBroker(r.global)
	defer b.Close()
	for ; n < r.cfg.OpsPerWriter && ctx.Err() == nil; n++ {
		b.Inc()
		r.applied.Inc()
	}
	metrics.OpsApplied.WithLabelValues("broker").Add(float64(n))
}

// runSampler observes the counter on a fixed interval until ctx is
// cancelled. Each observation pays one O(live brokers) Load.
func (r *Runner) runSampler(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v := r.global.Load()
			metrics.SamplesTaken.Inc()
			metrics.LastObserved.Set(float64(v))
			log.Debug().Int64("value", v).Msg("sample")
		}
	}
}

// Close performs graceful shutdown. Run must have returned first.
func (r *Runner) Close() {
	if r.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.httpSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown error")
		}
	}
	r.pool.Release()
	r.applied.Close()
	r.global.Close()
}
