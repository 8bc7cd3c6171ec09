package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/core/transform"
	"github.com/yndnr/seqlink-go/internal/infra/buildinfo"
	"github.com/yndnr/seqlink-go/internal/infra/confloader"
	"github.com/yndnr/seqlink-go/internal/infra/shutdown"
	"github.com/yndnr/seqlink-go/internal/infra/tlsroots"
	"github.com/yndnr/seqlink-go/internal/server/config"
	"github.com/yndnr/seqlink-go/internal/server/httpserver"
	"github.com/yndnr/seqlink-go/internal/server/httpserver/handler"
	"github.com/yndnr/seqlink-go/internal/storage"
	"github.com/yndnr/seqlink-go/internal/storage/memory"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
	"github.com/yndnr/seqlink-go/internal/telemetry/metric"
	"github.com/yndnr/seqlink-go/pkg/crypto/adaptive"
)

// readinessKey is probed on /ready; a miss proves the store answers.
const readinessKey = "seqlink/readiness"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		printConfig = flag.Bool("print-config", false, "Print the effective configuration (secrets masked) and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("seqlink-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *printConfig {
		return printYAML(config.Sanitize(cfg))
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting seqlink-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)

	registry := metric.NewRegistry()

	store, err := initStorage(cfg, slogLogger, registry)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	coord, err := initCoordinator(cfg, store, registry, log)
	if err != nil {
		store.Close()
		return fmt.Errorf("init coordinator: %w", err)
	}
	if err := registry.Register(metric.NewCollector(coord)); err != nil {
		store.Close()
		return fmt.Errorf("register collector: %w", err)
	}

	h := handler.New(coord, handler.Echo, slogLogger,
		handler.WithMaxFrameSize(cfg.Session.MaxFrameSize),
		handler.WithCipher(cfg.Session.Cipher),
		handler.WithReadiness(storeReadiness(store)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var limiter *httpserver.RateLimiter
	if rl := cfg.Server.HTTP.RateLimit; rl.Enabled {
		limiter = httpserver.NewRateLimiter(rl.RPS, rl.Burst)
		go limiter.Run(ctx)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:            h,
		Metrics:            registry.Handler(),
		Requests:           registry,
		Logger:             slogLogger,
		CORSAllowedOrigins: cfg.Server.HTTP.CORS.AllowedOrigins,
		RateLimiter:        limiter,
		TrustProxy:         cfg.Server.HTTP.TrustProxy,
		EnableAudit:        true,
	})

	httpCfg := cfg.Server.HTTP
	srvOpts := []httpserver.Option{
		httpserver.WithTimeouts(httpCfg.ReadTimeout, httpCfg.WriteTimeout, httpCfg.IdleTimeout),
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout)

	// Hooks run in reverse: server, then watchers, then store.
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		log.Info("closing storage")
		return store.Close()
	})

	useTLS := httpCfg.TLSCertFile != "" && httpCfg.TLSKeyFile != ""
	if useTLS {
		certs, err := tlsroots.NewCertReloader(httpCfg.TLSCertFile, httpCfg.TLSKeyFile,
			tlsroots.WithLogger(slogLogger))
		if err != nil {
			shutdownHandler.Shutdown()
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		if err := certs.Start(); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		}
		shutdownHandler.OnShutdown("cert-reloader", func(context.Context) error {
			return certs.Stop()
		})
		srvOpts = append(srvOpts, httpserver.WithTLSConfig(certs.ServerConfig()))
	}
	srv := httpserver.New(httpCfg.Addr, router, srvOpts...)

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, slogLogger, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		cancel()
		return srv.Shutdown(ctx)
	})

	// A listener failure ends the wait the same way a signal does.
	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()
	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", httpCfg.Addr,
			"tls", useTLS,
			"window", coord.DefaultWindow(),
			"backend", cfg.Storage.Backend)

		var err error
		if useTLS {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			stopWait()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	err = shutdownHandler.Wait(waitCtx)
	select {
	case listenErr := <-serveErr:
		err = errors.Join(listenErr, err)
	default:
	}
	if err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger initializes the structured logger.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
		Attrs:  []any{"service", "seqlink-server", "version", buildinfo.Get().Version},
	})
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// initStorage opens the configured backend and seals it when a state
// passphrase is set.
func initStorage(cfg *config.ServerConfig, log *slog.Logger, registry *metric.Registry) (storage.Store, error) {
	var store storage.Store
	switch cfg.Storage.Backend {
	case storage.BackendBadger:
		bs, err := storage.OpenBadger(cfg.Storage.BadgerConfig(), log)
		if err != nil {
			return nil, err
		}
		store = bs.RegisterMetrics(registry.Registerer())
	default:
		store = memory.NewStore()
	}

	if cfg.Security.StatePassphrase == "" {
		return store, nil
	}

	salt, err := storage.LoadOrCreateSalt(cfg.SaltPath())
	if err != nil {
		store.Close()
		return nil, err
	}
	key, err := storage.DeriveSealKey(cfg.Security.StatePassphrase, salt)
	if err != nil {
		store.Close()
		return nil, err
	}
	cipher, err := adaptive.New(key)
	if err != nil {
		store.Close()
		return nil, err
	}
	log.Info("conversation state sealed at rest", "cipher", cipher.Type(), "salt_file", cfg.SaltPath())
	return storage.NewSealed(store, cipher), nil
}

// initCoordinator builds the session coordinator from the session section.
func initCoordinator(cfg *config.ServerConfig, store storage.Store, registry *metric.Registry, log logger.Logger) (*service.Coordinator, error) {
	cipherType, err := adaptive.ParseCipherType(cfg.Session.Cipher)
	if err != nil {
		return nil, err
	}
	xf := transform.NewRatchet(
		transform.WithCipher(cipherType),
		transform.WithCompression(cfg.Session.Compress),
		transform.WithMaxFrameSize(cfg.Session.MaxFrameSize),
	)

	coord, err := service.NewCoordinator(store, xf,
		service.WithTTL(cfg.Session.TTL),
		service.WithHandshakeTTL(cfg.Session.HandshakeTTL),
		service.WithDefaultWindow(cfg.Session.Window),
		service.WithAllowWindowOverride(cfg.Session.AllowWindowOverride),
		service.WithObserver(registry),
		service.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	log.Info("coordinator initialized",
		"ttl", cfg.Session.TTL,
		"window", cfg.Session.Window,
		"cipher", cipherType.Resolve(),
		"compress", cfg.Session.Compress)
	return coord, nil
}

// storeReadiness reports the store as ready while a lookup of an absent
// key answers with ErrNotFound.
func storeReadiness(store storage.Store) handler.ReadinessFunc {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, readinessKey)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
}

// watchConfig re-reads the config file on change and applies log.level.
// Other settings need a restart.
func watchConfig(path string, slogLogger *slog.Logger, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLogger))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.OnChange(func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
