package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/developingchet/distcount/internal/bench"
	"github.com/developingchet/distcount/internal/config"
	"github.com/developingchet/distcount/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// benchRunner is the surface of bench.Runner that main drives; a seam for
// tests.
type benchRunner interface {
	Run(ctx context.Context) error
	Close()
}

// Seam variables so tests can substitute dependencies without a subprocess.
var (
	loadConfig       = config.Load
	registerMetrics  = metrics.Register
	newRunner        = func(cfg *config.Config) (benchRunner, error) { return bench.New(cfg) }
	newSignalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

// newRootCmd builds and returns the root cobra command. Extracted from main so
// that tests can invoke it directly without spawning a subprocess.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "countbench",
		Short: "Generate write load against a distcount sharded counter",
		Long: `A load generator for the distcount library: drives concurrent writers
through per-worker brokers (and optionally the counter's direct path),
samples the aggregate on an interval, and verifies the drained total
against the operations performed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBench,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start the load run (same as running without a subcommand)",
		RunE:  runBench,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "countbench %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	initLogging(cfg.LogLevel, cfg.LogFormat)

	registerMetrics()

	ctx, cancel := newSignalContext(context.Background())
	defer cancel()

	r, err := newRunner(cfg)
	if err != nil {
		return fmt.Errorf("runner init: %w", err)
	}
	defer r.Close()

	return r.Run(ctx)
}

func initLogging(level string, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if format == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
