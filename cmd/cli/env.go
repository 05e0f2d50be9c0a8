package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/config"
	"github.com/arnavsurve/scrapebot/pkg/core"
	"github.com/arnavsurve/scrapebot/pkg/driver/chrome"
	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/arnavsurve/scrapebot/pkg/log/sinks"
	"github.com/arnavsurve/scrapebot/pkg/metrics"
	"github.com/arnavsurve/scrapebot/pkg/screenshot"
	"github.com/arnavsurve/scrapebot/pkg/security"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
	"github.com/arnavsurve/scrapebot/pkg/storage"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `help:"The scrapebot configuration file." default:"scrapebot.yml" type:"path"`
	Instance string `help:"Override the instance name from the configuration."`
	Verbose  bool   `short:"v" help:"Log debug output."`

	Stdout io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// env is everything a command needs once the configuration is loaded.
type env struct {
	cfg      *config.Config
	router   *log.Router
	logger   types.Logger
	store    *storage.Store
	metrics  *metrics.Metrics
	fileSink *sinks.FileSink
}

// setup loads the configuration, wires logging and opens the database. With
// withFileLog the operational log of this invocation is also written to a
// JSON lines file under log.dir.
func setup(ctx context.Context, g *Globals, withFileLog bool) (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Instance != "" {
		cfg.Instance.Name = g.Instance
	}

	router := log.NewRouter(sinks.NewConsoleSinkTo(os.Stderr))
	router.SetRedactor(security.NewRedactor(cfg.Secrets()...))
	router.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	if g.Verbose {
		router.SetMinLevel(types.DebugLevel)
	}

	e := &env{cfg: cfg, router: router, metrics: metrics.New()}
	if withFileLog && cfg.Log.Dir != "" {
		fileSink, err := sinks.NewSweepFileSink(cfg.Log.Dir, time.Now())
		if err != nil {
			return nil, fmt.Errorf("creating file log sink: %w", err)
		}
		router.AddSink(fileSink)
		e.fileSink = fileSink
	}
	e.logger = log.New(router).With().Str("instance", cfg.Instance.Name).Logger()
	if e.fileSink != nil {
		e.logger.Debug().Msgf("Logs will be saved to %q", e.fileSink.Path())
	}

	store, err := storage.Open(ctx, cfg.Database.Path, e.logger)
	if err != nil {
		router.Close()
		return nil, err
	}
	e.store = store
	return e, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("Closing database")
	}
	if err := e.router.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during log shutdown: %v\n", err)
	}
}

// engine builds a recipe engine driving a local Chrome.
// lookupInstance loads the configured instance. Instances are only ever
// created by import or instances add.
func (e *env) lookupInstance(ctx context.Context) (*types.Instance, error) {
	name := e.cfg.Instance.Name
	inst, err := e.store.InstanceByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("instance %q not found, register it with 'scrapebot instances add': %w", name, err)
	}
	return inst, err
}

func (e *env) engine(ctx context.Context) (*core.RecipeEngine, error) {
	var shots []screenshot.Sink
	if e.cfg.Screenshots.Dir != "" {
		shots = append(shots, screenshot.NewLocalSink(e.cfg.Screenshots.Dir))
	}
	if s3cfg := e.cfg.S3(); s3cfg != nil {
		s3sink, err := screenshot.NewS3Sink(ctx, *s3cfg)
		if err != nil {
			return nil, fmt.Errorf("configuring S3 screenshots: %w", err)
		}
		shots = append(shots, s3sink)
	}

	interp := steprunner.New(e.logger,
		steprunner.WithScreenshotSinks(shots...),
		steprunner.WithHistory(e.store, e.cfg.Screenshots.History),
	)
	engine := core.NewRecipeEngine(e.logger, chrome.New(), interp, e.store, e.cfg.SessionConfig())
	engine.Metrics = e.metrics
	return engine, nil
}

// pushMetrics sends the collected metrics when a Pushgateway is configured.
func (e *env) pushMetrics(ctx context.Context) {
	push := e.cfg.Push()
	if push == nil {
		return
	}
	if err := e.metrics.Push(ctx, *push, e.cfg.Instance.Name); err != nil {
		e.logger.Warn().Err(err).Msg("Pushing metrics failed")
	}
}
