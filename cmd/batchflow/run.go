package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	bfcontext "github.com/vnykmshr/batchflow/pkg/common/context"
	"github.com/vnykmshr/batchflow/pkg/common/validation"
	"github.com/vnykmshr/batchflow/pkg/config"
	"github.com/vnykmshr/batchflow/pkg/logger"
	"github.com/vnykmshr/batchflow/pkg/metrics"
	"github.com/vnykmshr/batchflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/batchflow/pkg/scheduling/workerpool"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

type runOptions struct {
	*rootOptions

	transform string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Transform every line of a file or stdin",
		Long: `run reads one element per line from file, or stdin when no file is
given, trims it, applies the selected transform and prints the results one
per line.

With --workers 0 the output keeps input order. With a pool the output is in
completion order and the whole run is bounded by --timeout.`,
		Example: `  batchflow run names.txt --transform upper
  cat ids.txt | batchflow run --workers 8 --transform sha256 --metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.Int("workers", config.DefaultWorkers, "worker pool size; 0 runs sequentially")
	flags.Int("queue", config.DefaultQueueSize, "pool queue size; 0 uses one slot per worker, -1 hands off")
	flags.Duration("timeout", config.DefaultTimeout, "aggregate timeout of a pooled run")
	flags.String("name", config.DefaultName, "pipeline name used in logs and metrics")
	flags.Bool("metrics", false, "print Prometheus metrics to stderr on exit")
	flags.StringVar(&opts.transform, "transform", "upper",
		"line transform ("+strings.Join(transformNames(), "|")+")")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string, opts *runOptions) error {
	if err := validation.ValidateOneOf("cli", "transform", opts.transform, transformNames()...); err != nil {
		return err
	}

	flags := cmd.Flags()
	cfg, err := config.Load(
		config.WithConfigFile(opts.configFile),
		config.WithEnvFile(opts.envFile),
		config.WithFlag("pipeline.workers", flags.Lookup("workers")),
		config.WithFlag("pipeline.queue_size", flags.Lookup("queue")),
		config.WithFlag("pipeline.timeout", flags.Lookup("timeout")),
		config.WithFlag("pipeline.name", flags.Lookup("name")),
		config.WithFlag("logging.level", flags.Lookup("log-level")),
		config.WithFlag("metrics.enabled", flags.Lookup("metrics")),
	)
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg.Logging)

	lines, err := readLines(cmd, args)
	if err != nil {
		return err
	}

	var (
		promReg  *prometheus.Registry
		registry *metrics.Registry
	)
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		registry = metrics.NewRegistryFromConfig(metrics.Config{
			Enabled:   true,
			Registry:  promReg,
			Namespace: cfg.Metrics.Namespace,
		})
	}

	fn := transforms[strings.ToLower(opts.transform)]
	p := pipeline.Transform(pipeline.From(lines), strings.TrimSpace)
	p = pipeline.Transform(p, fn).
		Inspect(func(_ context.Context, line string) error {
			log.Trace().Str("line", line).Msg("line transformed")
			return nil
		}).
		WithName(cfg.Pipeline.Name).
		WithLogger(log).
		WithMetrics(registry)

	if cfg.Pipeline.Pooled() {
		pool, err := newPool(cfg.Pipeline, registry)
		if err != nil {
			return err
		}
		defer func() { <-pool.Shutdown() }()

		if p, err = p.WithPool(pool).WithTimeout(cfg.Pipeline.Timeout); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().
		Int(logger.FieldElements, len(lines)).
		Int(logger.FieldWorkers, cfg.Pipeline.Workers).
		Str("transform", opts.transform).
		Msg("starting run")

	start := time.Now()
	results, runErr := p.Execute(ctx)
	if bfcontext.IsInterrupted(ctx) {
		log.Warn().Msg("run interrupted by signal")
	}
	if runErr == nil {
		runErr = writeLines(cmd.OutOrStdout(), results)
		log.Info().
			Int(logger.FieldCompleted, len(results)).
			Dur(logger.FieldDuration, time.Since(start)).
			Msg("run finished")
	}

	if promReg != nil {
		if err := metrics.WriteText(cmd.ErrOrStderr(), promReg); err != nil {
			log.Warn().Err(err).Msg("failed to write metrics")
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline %s: %w", cfg.Pipeline.Name, runErr)
	}
	return nil
}

// newPool builds the worker pool for a pooled run, instrumented when
// registry is set.
func newPool(cfg config.PipelineConfig, registry *metrics.Registry) (workerpool.Pool, error) {
	queue := cfg.QueueSize
	if queue == 0 {
		queue = cfg.Workers
	}

	poolCfg := workerpool.Config{
		WorkerCount:    cfg.Workers,
		QueueSize:      queue,
		DiscardResults: true,
	}
	if err := poolCfg.Validate(); err != nil {
		return nil, err
	}

	pool := workerpool.NewWithConfig(poolCfg)
	if registry != nil {
		return workerpool.Instrument(pool, cfg.Name, registry), nil
	}
	return pool, nil
}

// newLogger writes to the command's streams so output can be captured.
func newLogger(cmd *cobra.Command, cfg logger.Config) zerolog.Logger {
	w := cmd.ErrOrStderr()
	if cfg.Output == "stdout" {
		w = cmd.OutOrStdout()
	}
	return logger.NewWithWriter(cfg, w, "cli")
}

func readLines(cmd *cobra.Command, args []string) ([]string, error) {
	r := cmd.InOrStdin()
	if len(args) == 1 {
		if err := validation.ValidateNotEmpty("cli", "file", args[0]); err != nil {
			return nil, err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
