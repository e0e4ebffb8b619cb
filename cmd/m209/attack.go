package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"m209/internal/attack"
	"m209/internal/results"
)

var (
	attackCiphertext  string
	attackCrib        string
	attackConfig      string
	attackThreads     int
	attackCycles      int
	attackSlide       int
	attackStore       string
	attackMetricsAddr string
	attackTrace       bool
)

func init() {
	cmd := newAttackCmd()
	cmd.Flags().StringVarP(&attackCiphertext, "ciphertext", "c", "", "Ciphertext file (- for stdin)")
	cmd.Flags().StringVar(&attackCrib, "crib", "", "Crib file: known plaintext aligned with the ciphertext, ? for unknown letters")
	cmd.Flags().StringVar(&attackConfig, "config", "", "Attack config file (YAML)")
	cmd.Flags().IntVarP(&attackThreads, "threads", "t", 0, "Worker count (overrides the config)")
	cmd.Flags().IntVar(&attackCycles, "cycles", 0, "Cycles per worker, 0 runs until interrupted (overrides the config)")
	cmd.Flags().IntVar(&attackSlide, "slide", 0, "Known slide of the key, 0-25 (overrides the config)")
	cmd.Flags().StringVar(&attackStore, "store", "", "Directory of a result store to save accepted results in")
	cmd.Flags().StringVar(&attackMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (for example :9209)")
	cmd.Flags().BoolVar(&attackTrace, "trace", false, "Write trace spans to stderr")
	_ = cmd.MarkFlagRequired("ciphertext")
	rootCmd.AddCommand(cmd)
}

func newAttackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attack",
		Short: "Recover the key of a message",
		Long: `The attack command searches for the key of an M-209 message. With a crib
it runs the known-plaintext attack and stops once a key reproduces the
whole crib; without one it runs the ciphertext-only attack, scoring
decryptions by English letter frequencies, until its cycles are used up or
it is interrupted.

Example:
  m209 attack --ciphertext msg.txt --crib crib.txt --threads 8
  m209 attack --ciphertext msg.txt --config attack.yaml --store runs/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAttack(ctx, cmd, cmd.OutOrStdout())
		},
	}
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runAttack(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := attack.LoadConfig(attackConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threads") {
		cfg.Threads = attackThreads
	}
	if cmd.Flags().Changed("cycles") {
		cfg.Cycles = attackCycles
	}
	if cmd.Flags().Changed("slide") {
		cfg.Slide = attackSlide
	}

	ciphertext, err := readInput(attackCiphertext, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read ciphertext: %w", err)
	}
	var crib string
	if attackCrib != "" {
		if crib, err = readInput(attackCrib, cmd.InOrStdin()); err != nil {
			return fmt.Errorf("read crib: %w", err)
		}
		crib = strings.TrimRight(crib, "\r\n")
	}

	if attackTrace {
		shutdown, err := initTracer(os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("trace shutdown", slog.String("error", err.Error()))
			}
		}()
	}
	if attackMetricsAddr != "" {
		srv := serveMetrics(attackMetricsAddr, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	opts := []attack.Option{attack.WithLogger(logger)}
	if attackStore != "" {
		store, err := results.OpenStore(results.StoreConfig{Path: attackStore, Logger: logger})
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, attack.WithStore(store))
	}

	m, err := attack.NewManager(cfg, opts...)
	if err != nil {
		return err
	}
	summary, err := m.Run(ctx, ciphertext, crib)
	if err != nil {
		return err
	}

	status := "completed"
	switch {
	case summary.Found:
		status = "key found"
	case summary.Stopped:
		status = "interrupted"
	}
	fmt.Fprintf(w, "run %s (%s, %s): %s after %s, %d evaluations\n",
		summary.RunID, summary.Mode, cfg.Version, status,
		summary.Elapsed.Round(time.Millisecond), summary.Evaluations)
	if !summary.HasBest {
		fmt.Fprintln(w, "no result above the threshold")
		return nil
	}
	if err := printResults(w, m.Collector().Results()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "best key: %s\n", summary.Best.Key)
	return err
}

// initTracer installs a tracer provider exporting spans to w and returns
// its shutdown function.
func initTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", "m209"))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.String("error", err.Error()))
		}
	}()
	return srv
}
