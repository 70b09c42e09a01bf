package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/etd-wiki/dungeon/internal/cache"
	"github.com/etd-wiki/dungeon/internal/characters"
	"github.com/etd-wiki/dungeon/internal/config"
	"github.com/etd-wiki/dungeon/internal/imagehost"
	"github.com/etd-wiki/dungeon/internal/prefs"
	"github.com/etd-wiki/dungeon/internal/proxy"
	"github.com/etd-wiki/dungeon/internal/syncer"
	"github.com/etd-wiki/dungeon/internal/ui"
)

// Options configure the TUI.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/dungeon/prefs.toml
	LogLevel   string
	// NoCache keeps the cache in memory for this run only.
	NoCache bool
}

// RunTUI boots the character archive TUI until the user quits or the context
// is cancelled.
func RunTUI(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	logger, closer, err := newFileLogger(cfg.LogPath(), opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	store, closeCache, err := openCache(cfg, opts.NoCache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	client, err := characters.NewClient(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("init characters client: %w", err)
	}

	fallback, err := syncer.ParseFallbackPolicy(cfg.Fallback)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, err := syncer.New(syncer.Options{
		Gateway:     client,
		Cache:       store,
		Uploader:    imagehost.New(cfg.UploadURL, cfg.UploadPreset, nil),
		Fallback:    fallback,
		Logger:      logger,
		PreferredID: userPrefs.LastSelected,
	})
	if err != nil {
		return fmt.Errorf("init sync engine: %w", err)
	}

	logger.Info("dungeon starting",
		"api", client.BaseURL(),
		"fallback", fallback.String(),
		"upload", cfg.UploadEnabled(),
		"persistent_cache", !opts.NoCache)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if probe, err := dialProbe(client.BaseURL()); err != nil {
		logger.Warn("connectivity watcher disabled", "error", err)
	} else {
		StartWatcher(watchCtx, engine, probe, defaultProbeInterval, logger)
	}

	selected, err := ui.Run(ui.Options{
		Context:   ctx,
		Engine:    engine,
		LogPath:   cfg.LogPath(),
		APIBase:   client.BaseURL(),
		ThemeName: userPrefs.Theme,
		PrefsPath: prefsPath,
	})
	if selected != "" {
		if perr := prefs.Update(prefsPath, func(p *prefs.Prefs) { p.LastSelected = selected }); perr != nil {
			logger.Warn("save last selection failed", "error", perr)
		}
	}
	logger.Info("dungeon stopped")
	return err
}

func openCache(cfg config.Config, memory bool, logger *slog.Logger) (cache.Store, func(), error) {
	if memory {
		return cache.NewMemory(nil), func() {}, nil
	}
	db, err := cache.Open(cfg.CachePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("close cache failed", "error", err)
		}
	}, nil
}

// ProxyOptions override the configured proxy settings.
type ProxyOptions struct {
	ConfigPath string
	Listen     string
	Upstream   string
}

// RunProxy serves the Remote Data Gateway until ctx is cancelled.
func RunProxy(ctx context.Context, opts ProxyOptions, logger *slog.Logger) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	listen := cfg.ProxyListen
	if opts.Listen != "" {
		listen = opts.Listen
	}
	upstream := cfg.ProxyUpstream
	if opts.Upstream != "" {
		upstream = opts.Upstream
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := proxy.New(upstream,
		proxy.WithLogger(logger),
		proxy.WithMetrics(proxy.NewMetrics(reg)),
	)
	if err != nil {
		return fmt.Errorf("init proxy: %w", err)
	}

	logger.Info("proxy starting", "listen", listen, "upstream", handler.Upstream())
	return proxy.Serve(ctx, listen, proxy.NewMux(handler, reg), logger)
}
