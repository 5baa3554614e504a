// auditdedup reassembles fragmented Linux audit records into events and
// drops repeated events before writing them to an append-only log.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/mrzor/auditdedup/internal/assembler"
	"github.com/mrzor/auditdedup/internal/config"
	"github.com/mrzor/auditdedup/internal/eventprocessor"
	"github.com/mrzor/auditdedup/internal/eventstream"
	"github.com/mrzor/auditdedup/internal/filter"
	"github.com/mrzor/auditdedup/internal/metrics"
	auditotel "github.com/mrzor/auditdedup/internal/otel"
	"github.com/mrzor/auditdedup/internal/output"
	"github.com/mrzor/auditdedup/internal/sieve"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// drainTimeout bounds the wait for the reader after a signal. A read blocked
// on stdin cannot be interrupted.
const drainTimeout = 500 * time.Millisecond

func main() {
	rootCmd := &cobra.Command{
		Use:   "auditdedup",
		Short: "Reassemble and deduplicate Linux audit records",
		Long: `auditdedup reads audit records (as delivered to an audispd plugin), groups the
SYSCALL, EXECVE, CWD and PATH records of each event by sequence number, and
writes every assembled event once. Events identical to a recently written one
are dropped. Records that cannot be assembled are written unchanged.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.RegisterFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	// stdout may be the output log.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// setupMetrics initializes the OTEL meter provider and returns the recorder
// and a cleanup function. Without an endpoint the recorder is a no-op.
func setupMetrics(logger *zap.Logger) (*metrics.Recorder, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}

	mp, err := auditotel.InitMeterProvider(otelCfg, version, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL meter provider: %w", err)
	}

	rec, err := metrics.NewRecorder(otel.Meter("auditdedup"))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := auditotel.ShutdownProvider(shutdownCtx, mp); err != nil {
			logger.Error("shutting down OTEL meter provider", zap.Error(err))
		}
	}
	return rec, cleanup, nil
}

// openInput returns the record source and a function closing it.
func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" || path == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	//nolint:gosec // input path comes from the operator's configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	return f, f.Close, nil
}

// setupProcessor builds the assembly and suppression pipeline.
func setupProcessor(cfg *config.Config, sink output.Sink, logger *zap.Logger, rec *metrics.Recorder) (*eventprocessor.Processor, error) {
	asm, err := assembler.New(assembler.Options{
		Capacity: cfg.PoolSize,
		Logger:   logger.Named("assembler"),
		Metrics:  rec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assembler: %w", err)
	}

	sv, err := sieve.New(cfg.SieveSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sieve: %w", err)
	}

	bypass, err := filter.NewBypass(cfg.BypassExpr)
	if err != nil {
		return nil, err
	}
	if bypass.String() != "" {
		logger.Info("bypass expression compiled", zap.String("expr", bypass.String()))
	}

	return eventprocessor.NewProcessor(asm, sv, bypass, sink, logger.Named("processor"), rec), nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }() //nolint:errcheck // Sync fails on non-file stderr

	logger.Info("starting auditdedup",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("built", date),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("sieve_size", cfg.SieveSize),
		zap.String("output", cfg.Output),
	)

	rec, cleanupMetrics, err := setupMetrics(logger)
	if err != nil {
		return err
	}
	defer cleanupMetrics()

	sink, err := output.OpenFile(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("closing output", zap.Error(err))
		}
	}()

	input, closeInput, err := openInput(cfg.Input)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeInput(); err != nil {
			logger.Error("closing input", zap.Error(err))
		}
	}()

	processor, err := setupProcessor(cfg, sink, logger, rec)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream := eventstream.New(input, processor, logger.Named("stream"))
	if err := stream.Start(ctx); err != nil {
		return err
	}

	select {
	case <-stream.Done():
	case <-ctx.Done():
		logger.Info("received signal, draining")
		if err := stream.Stop(); err != nil {
			logger.Error("stopping stream", zap.Error(err))
		}
		select {
		case <-stream.Done():
		case <-time.After(drainTimeout):
			logger.Warn("reader still blocked, closing anyway")
		}
	}

	// Incomplete events are written out rather than lost.
	if err := processor.Close(); err != nil {
		logger.Error("draining assembler", zap.Error(err))
	}

	select {
	case <-stream.Done():
		logger.Info("input processed", zap.Uint64("lines", stream.Lines()))
		return stream.Err()
	default:
		return nil
	}
}
