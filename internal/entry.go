// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/installer"
	"github.com/starford/claudekit/internal/journal"
	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/mcpserver"
	"github.com/starford/claudekit/internal/metadata"
	"github.com/starford/claudekit/internal/storage"
	"github.com/starford/claudekit/internal/watch"
)

// App holds the collaborators wired for one invocation.
type App struct {
	cfg       *Config
	log       *logging.Logger
	journal   *journal.DB
	installer *installer.Installer
}

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	logger := app.logger
	if logger == nil {
		out := app.logOutput
		if out == nil {
			out = os.Stderr
		}
		logger = logging.New(out, cfg.App.LogLevel, cfg.App.LogFormat)
		slog.SetDefault(logger.Slog())
	}

	logger.Debug("Configuration loaded",
		slog.String("install_dir", cfg.Install.Dir),
		slog.String("source", cfg.Install.Source),
		slog.String("metadata_file", cfg.Metadata.File),
		slog.Bool("journal", cfg.Journal.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure install directory exists.
	if err := os.MkdirAll(cfg.Install.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create install dir: %w", err)
	}

	store, err := metadata.NewStore(cfg.Metadata.File)
	if err != nil {
		return nil, fmt.Errorf("init metadata: %w", err)
	}

	a := &App{cfg: cfg, log: logger}

	// The journal is optional: failing to open it only costs history.
	var rec journal.Recorder
	if cfg.Journal.Enabled {
		db, err := openJournal(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", slog.String("path", cfg.Journal.Path), logging.Err(err))
		} else {
			a.journal = db
			rec = a.journal
		}
	}

	files := app.files
	if files == nil {
		files = storage.NewFS()
	}

	env := component.Env{
		SourceRoot: cfg.Install.Source,
		InstallDir: cfg.Install.Dir,
		Files:      files,
		Settings:   store,
		Logger:     logger,
	}
	a.installer, err = installer.New(installer.Definitions(cfg.Components), env, rec)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init installer: %w", err)
	}
	return a, nil
}

func openJournal(path string) (*journal.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return journal.Open(path)
}

// Close releases the journal database.
func (a *App) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// Installer returns the component installer.
func (a *App) Installer() *installer.Installer { return a.installer }

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger { return a.log }

// Config returns the resolved configuration.
func (a *App) Config() *Config { return a.cfg }

// Components returns the named components, or all of them when names is empty.
func (a *App) Components(names []string) ([]*component.Component, error) {
	if len(names) == 0 {
		names = a.installer.Names()
	}
	comps := make([]*component.Component, 0, len(names))
	for _, n := range names {
		c, err := a.installer.Component(n)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// Lint validates the source artifacts of the named components.
func (a *App) Lint(names []string) ([]watch.Finding, error) {
	comps, err := a.Components(names)
	if err != nil {
		return nil, err
	}
	return watch.Lint(comps), nil
}

// Watch revalidates source artifacts as they change until ctx is cancelled
// or a shutdown signal arrives.
func (a *App) Watch(ctx context.Context, names []string, cb watch.Callback) error {
	comps, err := a.Components(names)
	if err != nil {
		return err
	}
	w := watch.NewWatcher(comps, a.log, cb)
	return a.runUntilSignal(ctx, w.Run)
}

// ServeMCP serves the MCP tools over stdin/stdout until the client
// disconnects, ctx is cancelled or a shutdown signal arrives.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	srv := mcpserver.New(a.installer, version, a.log)
	return a.runUntilSignal(ctx, func(ctx context.Context) error {
		err := srv.Serve(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// runUntilSignal runs fn and cancels its context on SIGINT or SIGTERM.
func (a *App) runUntilSignal(ctx context.Context, fn func(context.Context) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return fn(runCtx)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.log.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-runCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.log.Error("Application error", err)
		return err
	}
	return nil
}
