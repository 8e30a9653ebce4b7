package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askiada/go-geodiff/internal/config"
	"github.com/askiada/go-geodiff/internal/csvsource"
	"github.com/askiada/go-geodiff/internal/logging"
	"github.com/askiada/go-geodiff/pkg/compare"
	"github.com/askiada/go-geodiff/pkg/pipeline"
	"github.com/askiada/go-geodiff/pkg/pipeline/drawer"
	"github.com/askiada/go-geodiff/pkg/pipeline/measure"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

const (
	exitEqual = iota
	exitDifferences
	exitError
)

const compareStepName = "compare"

var ErrInputsRequired = errors.New("both -source and -other are required")

type flags struct {
	configPath string
	source     string
	other      string
	key        string
	format     string
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	fs := flag.NewFlagSet("geodiff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &flags{}
	fs.StringVar(&f.configPath, "config", "", "YAML or TOML configuration file")
	fs.StringVar(&f.source, "source", "", "CSV file of the source stream")
	fs.StringVar(&f.other, "other", "", "CSV file of the other stream")
	fs.StringVar(&f.key, "key", "", "attribute both files are sorted by, overrides the configuration")
	fs.StringVar(&f.format, "format", "", "diff output format, log or json, overrides the configuration")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if f.source == "" || f.other == "" {
		return nil, ErrInputsRequired
	}

	return f, nil
}

func (f *flags) apply(cfg *config.Config) {
	if f.key != "" {
		cfg.Compare.KeyAttribute = f.key
	}

	if f.format != "" {
		cfg.Output.Format = f.format
	}
}

// run compares the two files named in args and returns the exit code of the command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return exitError, err
	}

	cfg, err := config.Load(f.configPath, f.apply)
	if err != nil {
		return exitError, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return exitError, err
	}
	defer logger.Sync() //nolint:errcheck

	logger = logger.With(zap.String("run_id", uuid.NewString()))

	sink, closeSink, err := newSink(cfg, logger, stdout)
	if err != nil {
		return exitError, err
	}

	stats, err := compareFiles(ctx, cfg, f.source, f.other, sink, logger)
	if closeErr := closeSink(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		return exitError, err
	}

	logger.Info("comparison finished",
		zap.Int("matched", stats.Matched),
		zap.Int("geometry_mismatches", stats.GeometryMismatches),
		zap.Int("attribute_mismatches", stats.AttributeMismatches),
		zap.Int("source_unmatched", stats.SourceUnmatched),
		zap.Int("other_unmatched", stats.OtherUnmatched),
		zap.Int("missing_keys", stats.MissingKeys),
		zap.Int("invalid_keys", stats.InvalidKeys),
	)

	if stats.Differences() > 0 {
		return exitDifferences, nil
	}

	return exitEqual, nil
}

func newSink(cfg *config.Config, logger *zap.Logger, stdout io.Writer) (compare.LogSink, func() error, error) {
	noop := func() error { return nil }

	if cfg.Output.Format == config.OutputLog {
		return compare.NewZapSink(logger), noop, nil
	}

	if cfg.Output.Path == "" {
		return compare.NewJSONSink(stdout), noop, nil
	}

	file, err := os.Create(cfg.Output.Path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to create diff output %s", cfg.Output.Path)
	}

	return compare.NewJSONSink(file), file.Close, nil
}

// compareFiles builds and runs the pipeline reading both files into the compare step.
func compareFiles(ctx context.Context, cfg *config.Config, sourcePath, otherPath string, sink compare.LogSink, logger *zap.Logger) (compare.Stats, error) {
	var msr measure.Measure = measure.NewDefaultMeasure()

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		msr = measure.NewPrometheusMeasure(reg, cfg.Metrics.Namespace)

		if cfg.Metrics.Listen != "" {
			stop := serveMetrics(cfg.Metrics.Listen, reg, logger)
			defer stop()
		}
	}

	opts := []model.PipelineOption{measure.PipelineMeasure(msr)}

	var dot *drawer.DOTDrawer
	if cfg.Drawer.Output != "" {
		dot = drawer.NewDOTDrawer(cfg.Drawer.Output)
		opts = append(opts, drawer.PipelineDrawer(dot, msr))
	}

	pipe, err := pipeline.New(opts...)
	if err != nil {
		return compare.Stats{}, err
	}
	pipe.SetLogger(logger)

	compareCfg := cfg.Compare.WithDefaults()
	inputCfg := cfg.Input
	inputCfg.KeyAttribute = compareCfg.KeyAttribute

	source, err := pipeline.AddSource(pipe, compareCfg.SourceLabel, csvsource.Source(sourcePath, inputCfg))
	if err != nil {
		return compare.Stats{}, err
	}

	other, err := pipeline.AddSource(pipe, compareCfg.OtherLabel, csvsource.Source(otherPath, inputCfg))
	if err != nil {
		return compare.Stats{}, err
	}

	proc, err := pipeline.AddCompare(pipe, compareStepName, source, other, compareCfg, sink)
	if err != nil {
		return compare.Stats{}, err
	}

	if dot != nil {
		// the graph is drawn once every step has returned
		err := dot.Annotate(compareStepName, func() string {
			stats := proc.Stats()

			return fmt.Sprintf("matched: %d, differences: %d", stats.Matched, stats.Differences())
		})
		if err != nil {
			return compare.Stats{}, err
		}
	}

	if err := pipe.Run(ctx); err != nil {
		return compare.Stats{}, err
	}

	return proc.Stats(), nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("unable to stop metrics server", zap.Error(err))
		}
	}
}
