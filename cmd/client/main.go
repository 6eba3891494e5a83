package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjunv/actorlink/internal/auth"
	"github.com/arjunv/actorlink/internal/center"
	"github.com/arjunv/actorlink/internal/config"
	"github.com/arjunv/actorlink/internal/connpool"
	"github.com/arjunv/actorlink/internal/discovery"
	"github.com/arjunv/actorlink/internal/gateway"
	"github.com/arjunv/actorlink/internal/metrics"
	"github.com/arjunv/actorlink/internal/model"
	"github.com/arjunv/actorlink/internal/store"
	"github.com/arjunv/actorlink/internal/transport"
	"github.com/arjunv/actorlink/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.local.yaml", "path to config file")
	flag.Parse()

	logger := newLogger()
	slog.SetDefault(logger)

	logger.Info("starting client",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"discovery_url", cfg.Discovery.BaseURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var creds *auth.Credentials
	if cfg.Discovery.KeyID != "" {
		creds, err = auth.LoadCredentials(cfg.Discovery.KeyID, cfg.Discovery.PrivateKeyPath)
		if err != nil {
			logger.Error("failed to load discovery credentials", "error", err)
			os.Exit(1)
		}
	}

	discoveryClient := discovery.NewClient(
		cfg.Discovery.BaseURL,
		creds,
		discovery.WithTimeout(cfg.Discovery.Timeout),
		discovery.WithRetries(cfg.Discovery.MaxRetries, cfg.Discovery.RetryBackoff),
	)

	seedStore, err := newSeedStore(ctx, cfg.SeedCache)
	if err != nil {
		logger.Error("failed to open seed cache", "error", err)
		os.Exit(1)
	}
	defer seedStore.Close()

	recorder := newSlogRecorder(logger)

	gatewayMgr := gateway.NewManager(gateway.Config{
		ReconcileInterval:     cfg.Gateway.ReconcileInterval,
		Concurrency:           cfg.Gateway.Concurrency,
		QuarantineGracePeriod: cfg.Gateway.QuarantineGracePeriod,
		Recorder:              recorder,
	}, discoveryClient, seedStore, logger)

	logger.Info("starting gateway manager")
	if err := gatewayMgr.Start(ctx); err != nil {
		logger.Error("failed to start gateway manager", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		gatewayMgr.Stop(shutdownCtx)
	}()

	live := gatewayMgr.GetLiveGateways()
	logger.Info("gateway manager started", "live_gateways", len(live))

	dialer := transport.NewDialer(transport.DialerConfig{
		TLS:              cfg.Transport.TLS,
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		WriteTimeout:     cfg.Transport.WriteTimeout,
		PingInterval:     cfg.Transport.PingInterval,
		PingTimeout:      cfg.Transport.PingTimeout,
		BufferSize:       cfg.Transport.BufferSize,
		RetryCount:       cfg.Transport.RetryCount,
		RetryInterval:    cfg.Transport.RetryInterval,
	}, nil, logger)

	myAddress := model.Endpoint{Host: cfg.Instance.Host, Port: cfg.Instance.Port}
	clientID := model.ActorId{Key: cfg.Instance.ID}

	var msgCenter *center.Center
	hooks := connpool.Hooks{
		OnReceive: func(msg model.Message) { msgCenter.OnReceivedMessage(msg) },
		OnOpened:  func(model.Endpoint) { msgCenter.OnConnectionOpened() },
		OnClosed:  func(model.Endpoint, error) { msgCenter.OnConnectionClosed() },
	}

	pool := connpool.NewManager(dialer, hooks, connpool.Config{
		MaxConnectionsPerEndpoint: cfg.Pool.MaxConnectionsPerEndpoint,
		ConnectRetryDelay:         cfg.Pool.ConnectRetryDelay,
		AttemptGuardTimeout:       cfg.Pool.AttemptGuardTimeout,
		ClosePollInterval:         cfg.Pool.ClosePollInterval,
		CloseWarnInterval:         cfg.Pool.CloseWarnInterval,
		Recorder:                  recorder,
	}, logger)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		pool.Close(shutdownCtx)
	}()

	msgCenter = center.NewCenter(center.Config{
		Buckets:             cfg.Center.Buckets,
		SendRetryDelay:      cfg.Center.SendRetryDelay,
		SelectionRetryLimit: cfg.Center.SelectionRetryLimit,
		Recorder:            recorder,
	}, pool, gatewayMgr, slogStatusListener{logger}, myAddress, clientID, logger)

	if err := msgCenter.Start(); err != nil {
		logger.Error("failed to start message center", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		msgCenter.Stop(shutdownCtx)
	}()

	logger.Info("client running", "instance_id", cfg.Instance.ID, "my_address", myAddress.String())

	<-ctx.Done()
	logger.Info("shutting down...")
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newSeedStore(ctx context.Context, cfg config.SeedCacheConfig) (store.Store, error) {
	if !cfg.Enabled {
		return store.NoopStore{}, nil
	}
	s, err := store.NewPostgresStore(ctx, store.DBConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Name:     cfg.Name,
		User:     cfg.User,
		Password: cfg.Password,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to seed cache: %w", err)
	}
	return s, nil
}

// slogStatusListener logs gateway-count transitions via slog, the
// simplest StatusListener a host can wire in without its own dashboard.
type slogStatusListener struct {
	logger *slog.Logger
}

func (l slogStatusListener) GatewayCountChanged(newCount, oldCount int) {
	l.logger.Info("gateway count changed", "new_count", newCount, "old_count", oldCount)
}

func (l slogStatusListener) ClusterConnectionLost() {
	l.logger.Warn("lost connection to every gateway")
}

// slogRecorder is a metrics.Recorder that logs every hook event at debug
// level, the simplest collector a host can wire in without a real
// Prometheus/StatsD integration.
type slogRecorder struct {
	logger *slog.Logger
}

func newSlogRecorder(logger *slog.Logger) metrics.Recorder {
	return slogRecorder{logger: logger}
}

func (r slogRecorder) ConnectionOpened(endpoint string) {
	r.logger.Debug("connection opened", "endpoint", endpoint)
}

func (r slogRecorder) ConnectionClosed(endpoint string) {
	r.logger.Debug("connection closed", "endpoint", endpoint)
}

func (r slogRecorder) MessageSent(category string, elapsed time.Duration) {
	r.logger.Debug("message sent", "category", category, "elapsed", elapsed)
}

func (r slogRecorder) MessageRejected(category, reason string) {
	r.logger.Debug("message rejected", "category", category, "reason", reason)
}

func (r slogRecorder) DialAttempt(endpoint string, success bool, elapsed time.Duration) {
	r.logger.Debug("dial attempt", "endpoint", endpoint, "success", success, "elapsed", elapsed)
}

func (r slogRecorder) GatewayCountChanged(count int) {
	r.logger.Debug("gateway count changed", "count", count)
}
