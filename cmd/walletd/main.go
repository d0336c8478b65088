package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/multichain-wallet/internal/alert"
	"github.com/emperorhan/multichain-wallet/internal/chain/factory"
	"github.com/emperorhan/multichain-wallet/internal/config"
	"github.com/emperorhan/multichain-wallet/internal/credential"
	"github.com/emperorhan/multichain-wallet/internal/httpapi"
	"github.com/emperorhan/multichain-wallet/internal/registry"
	redispkg "github.com/emperorhan/multichain-wallet/internal/store/redis"
	"github.com/emperorhan/multichain-wallet/internal/tracing"
	"github.com/emperorhan/multichain-wallet/internal/wallet"
)

const serviceName = "walletd"

// eventBackend is what the repository publishes to and main closes.
type eventBackend interface {
	wallet.EventPublisher
	Close() error
}

var (
	newStreamFactory         = func(redisURL string) (eventBackend, error) { return redispkg.NewStream(redisURL) }
	newInMemoryStreamFactory = func() eventBackend { return redispkg.NewInMemoryStream() }
)

// resolveEventBackend picks Redis when a URL is configured and the in-process
// stream otherwise.
func resolveEventBackend(cfg *config.Config, logger *slog.Logger) (eventBackend, error) {
	redisURL := strings.TrimSpace(cfg.Redis.URL)
	if redisURL == "" {
		logger.Info("submission events kept in process")
		return newInMemoryStreamFactory(), nil
	}

	stream, err := newStreamFactory(redisURL)
	if err != nil {
		return nil, fmt.Errorf("initialize redis event stream: %w", err)
	}
	if stream == nil {
		return nil, fmt.Errorf("initialize redis event stream: backend is nil")
	}
	logger.Info("redis event stream enabled", "stream", cfg.Redis.Stream)
	return stream, nil
}

// buildAlerter returns the configured outage channels, or nil when none is set.
func buildAlerter(cfg config.AlertConfig, logger *slog.Logger) *alert.MultiAlerter {
	var channels []alert.Alerter
	if url := strings.TrimSpace(cfg.SlackWebhookURL); url != "" {
		channels = append(channels, alert.NewSlackAlerter(url))
	}
	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		channels = append(channels, alert.NewWebhookAlerter(url))
	}
	if len(channels) == 0 {
		return nil
	}
	return alert.NewMultiAlerter(cfg.Cooldown, logger, channels...)
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// warmClients builds every configured client up front so misconfiguration
// shows at startup. Failures are logged, not fatal.
func warmClients(reg *registry.Registry, f *factory.Factory, logger *slog.Logger) int {
	built := 0
	for _, n := range reg.Networks() {
		if _, err := f.Create(n.ChainID); err != nil {
			logger.Warn("chain client unavailable", "network", n.Name, "error", err)
			continue
		}
		built++
	}
	return built
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.TracingSettings(serviceName))
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		logger.Error("failed to load network registry", "path", cfg.Registry.Path, "error", err)
		os.Exit(1)
	}

	creds, err := credential.FromEnv(reg.Networks(), os.LookupEnv)
	if err != nil {
		logger.Error("failed to load signing keys", "error", err)
		os.Exit(1)
	}

	events, err := resolveEventBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to start event stream", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	settings := cfg.ChainSettings()
	if alerter := buildAlerter(cfg.Alert, logger); alerter != nil {
		notifier := alert.NewFailoverNotifier(alerter, logger)
		defer notifier.Wait()
		settings = settings.WithStateHook(notifier.Observe)
		logger.Info("endpoint outage alerts enabled", "channels", alerter.Len())
	}

	clients := factory.New(reg, settings, logger)
	built := warmClients(reg, clients, logger)

	repo := wallet.New(reg, clients, creds, logger,
		wallet.WithWalletStore(reg),
		wallet.WithEventPublisher(events, cfg.Redis.Stream),
		wallet.WithConcurrency(cfg.Chain.WalletConcurrency),
	)

	logger.Info("starting walletd",
		"networks", len(reg.Networks()),
		"clients", built,
		"signing_keys", creds.Len(),
		"port", cfg.Server.Port,
	)

	limiter := httpapi.NewRateLimiter(logger)
	defer limiter.Stop()
	api := httpapi.NewServer(repo, reg, logger, httpapi.WithClientLister(clients))
	handler := limiter.Wrap(httpapi.Audit(logger, api.Handler()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runServer(gCtx, cfg.Server, handler, logger)
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("walletd exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("walletd shut down gracefully")
}

func runServer(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("api server shutdown error", "error", err)
		}
	}()

	logger.Info("api server started", "port", cfg.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
