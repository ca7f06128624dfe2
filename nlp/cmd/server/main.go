// Command server runs the segtag HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oarkflow/supervisor"
	"golang.org/x/sync/errgroup"

	"github.com/oarkflow/segtag/nlp/config"
	"github.com/oarkflow/segtag/nlp/logging"
	"github.com/oarkflow/segtag/nlp/metrics"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/pipeline"
	"github.com/oarkflow/segtag/nlp/server"
	"github.com/oarkflow/segtag/nlp/store"
)

var (
	configPath       = flag.String("config", "", "config file (.yaml, .bcl or .json); empty uses defaults")
	envFile          = flag.String("env", ".env", "dotenv file with SEGTAG_* overrides")
	supervised       = flag.Bool("supervised", false, "run under the process supervisor")
	supervisorConfig = flag.String("supervisor-config", "supervisor.json", "supervisor settings")
)

func main() {
	flag.Parse()
	if *supervised {
		supervisor.Run(*supervisorConfig, Run)
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		slog.Error("server exited", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

// Run serves until ctx is cancelled, reloading the affix table whenever the
// config file changes.
func Run(ctx context.Context) error {
	if err := config.LoadEnvFile(*envFile); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	m := metrics.New()
	engine, err := buildEngine(cfg.Morphology, logger, m)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithPipeline(pipeline.Options{
			Workers:       cfg.Pipeline.Workers,
			RatePerSecond: cfg.Pipeline.RatePerSecond,
		}),
	}
	if cfg.Store.Enabled() {
		st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			return err
		}
		opts = append(opts, server.WithStore(st))
		logger.Info("record store ready", slog.String("driver", cfg.Store.Driver))
	}
	srv := server.New(cfg.Server, engine, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Listen(gctx) })
	if *configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, *configPath, config.DebounceDelay, func() {
				reload(*configPath, srv, logger, m)
			})
		})
	}
	return g.Wait()
}

func buildEngine(mc config.Morphology, logger *slog.Logger, m *metrics.Metrics) (*morphology.Analyzer, error) {
	opts, err := mc.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, morphology.WithLogger(logger), morphology.WithObserver(m))
	return morphology.New(opts...), nil
}

// reload swaps in a new analyzer; a bad file keeps the running one.
func reload(path string, srv *server.Server, logger *slog.Logger, m *metrics.Metrics) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config reload failed; keeping current engine", slog.String("err", err.Error()))
		return
	}
	engine, err := buildEngine(cfg.Morphology, logger, m)
	if err != nil {
		logger.Error("affix table reload failed; keeping current engine", slog.String("err", err.Error()))
		return
	}
	srv.SetEngine(engine)
	logger.Info("affix table reloaded",
		slog.Int("prefixes", len(engine.Table().Prefixes())),
		slog.Int("suffixes", len(engine.Table().Suffixes())))
}
