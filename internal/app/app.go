package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nezhatop/nezhatop/internal/config"
	"github.com/nezhatop/nezhatop/internal/history"
	"github.com/nezhatop/nezhatop/internal/logging"
	"github.com/nezhatop/nezhatop/internal/monitor"
	"github.com/nezhatop/nezhatop/internal/nezha"
	"github.com/nezhatop/nezhatop/internal/prefs"
	"github.com/nezhatop/nezhatop/internal/state"
	"github.com/nezhatop/nezhatop/internal/ui"
)

const uiTick = time.Second

// Options configure the nezhatop application.
type Options struct {
	ConfigPath string // empty uses ~/.config/nezhatop/config.toml
	PrefsPath  string // empty uses ~/.config/nezhatop/prefs.toml
	Overrides  config.Overrides
	Version    string
	// Console receives human-readable log lines next to the log file. The
	// TUI leaves it nil because it owns the terminal.
	Console io.Writer
}

// Env is what every entry point needs: resolved settings, a logger and a
// dashboard client.
type Env struct {
	Settings config.Settings
	Client   *nezha.Client
	Logger   *zap.Logger

	configPath string
	closeLog   func() error
}

// Setup loads layered settings and builds the logger and client.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.LoadLayered(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client := nezha.NewClient(
		config.FileResolver{Path: opts.ConfigPath, Overrides: opts.Overrides},
		nezha.Options{
			Transport: nezha.NewHTTPTransport(cfg.RequestTimeout.Duration),
			Logger:    logger,
			Version:   opts.Version,
		},
	)

	return &Env{
		Settings:   cfg,
		Client:     client,
		Logger:     logger,
		configPath: opts.ConfigPath,
		closeLog:   closeLog,
	}, nil
}

// ConfigPath is the settings file this environment was loaded from.
func (e *Env) ConfigPath() string {
	if e.configPath == "" {
		return config.DefaultPath()
	}
	return e.configPath
}

// Close flushes and closes the log file.
func (e *Env) Close() error {
	if e.closeLog == nil {
		return nil
	}
	return e.closeLog()
}

// Runtime is the background half of a running session.
type Runtime struct {
	Store   *state.Store
	Monitor *monitor.Monitor
	History *history.Store
}

// Start opens the sample history when enabled and starts the monitor. A
// history that cannot be opened is logged and skipped.
func (e *Env) Start(ctx context.Context) *Runtime {
	rt := &Runtime{Store: &state.Store{}}

	var hook monitor.SnapshotFunc
	if e.Settings.History.Enabled {
		hist, err := history.Open(e.Settings.History.Path, e.Logger)
		if err != nil {
			e.Logger.Warn("history disabled", zap.String("path", e.Settings.History.Path), zap.Error(err))
		} else {
			rt.History = hist
			hook = hist.Recorder(ctx, e.Settings.History.Retention.Duration)
		}
	}

	rt.Monitor = monitor.New(monitor.Options{
		Fetcher:    e.Client,
		Store:      rt.Store,
		Interval:   e.Settings.PollInterval.Duration,
		Feed:       monitor.Feed(e.Settings.Feed),
		Logger:     e.Logger,
		OnSnapshot: hook,
	})
	rt.Monitor.Start(ctx)
	return rt
}

// Stop halts the monitor, waits for in-flight fetches and closes history.
func (r *Runtime) Stop() error {
	r.Monitor.Stop()
	r.Monitor.Wait()
	if r.History != nil {
		return r.History.Close()
	}
	return nil
}

// Run boots the TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Console = nil
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info("nezhatop starting",
		zap.String("version", opts.Version),
		zap.String("config", env.ConfigPath()),
		zap.String("feed", env.Settings.Feed))

	rt := env.Start(ctx)
	defer func() {
		if err := rt.Stop(); err != nil {
			env.Logger.Warn("history close failed", zap.Error(err))
		}
	}()

	uiOpts := ui.Options{
		Context:   ctx,
		Store:     rt.Store,
		Monitor:   rt.Monitor,
		Services:  env.Client,
		Logger:    env.Logger,
		LogPath:   env.Settings.Log.File,
		PollTick:  uiTick,
		Prefs:     prefs.Load(opts.PrefsPath),
		PrefsPath: opts.PrefsPath,
	}
	// Leave the interface nil so the UI hides the history section.
	if rt.History != nil {
		uiOpts.History = rt.History
	}

	err = ui.Run(uiOpts)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
