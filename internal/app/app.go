package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/exploremaine/explore/internal/areas"
	"github.com/exploremaine/explore/internal/config"
	"github.com/exploremaine/explore/internal/explore"
	"github.com/exploremaine/explore/internal/logging"
	"github.com/exploremaine/explore/internal/logtail"
	"github.com/exploremaine/explore/internal/metrics"
	"github.com/exploremaine/explore/internal/offline"
	"github.com/exploremaine/explore/internal/portal"
	"github.com/exploremaine/explore/internal/prefs"
	"github.com/exploremaine/explore/internal/ui"
)

// Options configure the Explore application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/explore/prefs.toml
	// Console mirrors log output for headless commands. The TUI leaves it nil
	// because it owns the terminal.
	Console io.Writer
}

// Env is everything a run of Explore shares: configuration, the logger, the
// offline cache and the controller over it.
type Env struct {
	Config     config.Config
	Logger     zerolog.Logger
	Metrics    *metrics.Recorder
	Cache      *offline.Store
	Controller *explore.Controller

	logFile io.Closer
	started atomic.Bool
}

// Setup loads configuration and wires the portal client, offline cache,
// repository and controller. Nothing touches the network until the
// controller is started.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load explore config: %w", err)
	}

	logger, logFile, err := logging.New(logging.Options{
		Path:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := portal.NewClient(portal.Options{
		PortalURL:      cfg.PortalURL,
		MapID:          cfg.MapID,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("init portal client: %w", err)
	}

	recorder := metrics.New()
	cache := offline.NewStore(cfg.CacheDir, cfg.OfflineDir)
	repo := areas.NewRepository(client, cache, areas.Options{
		ThumbnailTimeout: cfg.ThumbnailTimeout,
		Logger:           logger,
		Metrics:          recorder,
	})
	controller := explore.New(repo, explore.Options{
		MapID:  client.MapID(),
		Logger: logger,
	})

	logger.Info().
		Str("portal", cfg.PortalURL).
		Str("map_id", cfg.MapID).
		Str("offline_root", cache.Root()).
		Msg("explore configured")

	return &Env{
		Config:     cfg,
		Logger:     logger,
		Metrics:    recorder,
		Cache:      cache,
		Controller: controller,
		logFile:    logFile,
	}, nil
}

// Start begins loading on ctx. Downloads and deletes run on ctx too, so it
// should live as long as the process, not as long as one wait.
func (e *Env) Start(ctx context.Context) {
	e.started.Store(true)
	e.Controller.Start(ctx)
}

// Close refuses further intents, waits for background work to settle and
// releases the log file. Cancel the context given to Start first, or Close
// waits for loading to finish.
func (e *Env) Close() error {
	e.Controller.Close()
	if e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

// Run boots the Explore TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	env, err := Setup(opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		_ = env.Close()
	}()

	if env.Config.MetricsAddr != "" {
		go func() {
			if err := env.Metrics.Serve(ctx, env.Config.MetricsAddr, env.Logger); err != nil {
				env.Logger.Error().Err(err).Msg("metrics endpoint stopped")
			}
		}()
	}

	env.Start(ctx)

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: env.Controller,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
		AreaPath:   env.Cache.Path,
		Logger:     env.Logger,
	})
}

// ListAreas waits for the areas to load and prints one line per area. The
// headless helpers need Start first; their ctx bounds only the wait for the
// portal.
func (e *Env) ListAreas(ctx context.Context, w io.Writer) error {
	if err := e.ready(ctx); err != nil {
		return err
	}
	snapshot := e.Controller.UiState()
	if snapshot.Map != nil {
		fmt.Fprintf(w, "%s (%s)\n", snapshot.Map.Title, snapshot.Map.ID)
	}
	for _, info := range snapshot.Areas {
		fmt.Fprintf(w, "%-12s  %s", info.Status, info.Title())
		if snippet := info.Area.Snippet; snippet != "" {
			fmt.Fprintf(w, "  %s", snippet)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Download fetches the named area and reports whether it ended Downloaded. An
// area that is already downloaded counts as success. ctx bounds finding the
// area; the download itself runs until it settles or Start's context ends.
func (e *Env) Download(ctx context.Context, title string) (bool, error) {
	info, err := e.find(ctx, title)
	if err != nil {
		return false, err
	}
	switch info.Status {
	case areas.Downloaded:
		e.Logger.Info().Str("area", title).Msg("area already downloaded")
		return true, nil
	case areas.Downloading:
		return false, fmt.Errorf("area %q is already downloading", title)
	}

	if !e.Controller.RequestDownload(info) {
		return false, fmt.Errorf("area %q could not be queued for download", title)
	}
	e.Controller.Wait()

	settled, ok := e.Controller.FindArea(title)
	return ok && settled.Status == areas.Downloaded, nil
}

// Delete removes the named area's offline copy. The controller flips the
// status before removal settles, so the cache is checked afterwards to report
// a failed removal.
func (e *Env) Delete(ctx context.Context, title string) error {
	info, err := e.find(ctx, title)
	if err != nil {
		return err
	}
	if info.Status != areas.Downloaded {
		return fmt.Errorf("area %q is not downloaded", title)
	}
	if !e.Controller.RequestDelete(info) {
		return fmt.Errorf("area %q could not be deleted", title)
	}
	e.Controller.Wait()

	if e.Cache.Exists(title) {
		return fmt.Errorf("offline copy of %q is still present at %s", title, e.Cache.Path(title))
	}
	return nil
}

func (e *Env) ready(ctx context.Context) error {
	if !e.started.Load() {
		return errors.New("explore environment not started")
	}
	if err := e.Controller.Ready(ctx); err != nil {
		return fmt.Errorf("load areas: %w", err)
	}
	return nil
}

func (e *Env) find(ctx context.Context, title string) (areas.AreaInfo, error) {
	if err := e.ready(ctx); err != nil {
		return areas.AreaInfo{}, err
	}
	info, ok := e.Controller.FindArea(title)
	if !ok {
		return areas.AreaInfo{}, fmt.Errorf("no map area titled %q", title)
	}
	return info, nil
}

// ErrNoLogLines is returned by Logs when nothing matched.
var ErrNoLogLines = errors.New("no log lines")

// Logs prints the last n lines of the configured log file at or above level.
func Logs(opts Options, w io.Writer, n int, level string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load explore config: %w", err)
	}
	minLevel, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	lines, err := logtail.Read(cfg.LogFile, n, minLevel)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w in %s", ErrNoLogLines, cfg.LogFile)
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
