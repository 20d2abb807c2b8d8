package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/crashsense-ai/crashsense/internal/classify"
	"github.com/crashsense-ai/crashsense/internal/config"
	"github.com/crashsense-ai/crashsense/internal/logging"
	"github.com/crashsense-ai/crashsense/internal/notify"
	"github.com/crashsense-ai/crashsense/internal/reasoner"
	"github.com/crashsense-ai/crashsense/internal/server"
	"github.com/crashsense-ai/crashsense/internal/telemetry"
)

const version = "0.3.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "crashsense.yaml", "Path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, "crashsense")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "crashsense",
		Version:  version,
	})
	if err != nil {
		logger.Fatal("failed to set up telemetry", zap.Error(err))
	}

	engineOpts := []classify.Option{
		classify.WithFallbackHook(func(error) { tel.RecordFallback() }),
	}
	if cfg.Engine.Mode == "assisted" {
		client := reasoner.NewOpenAI(
			cfg.Reasoner.BaseURL,
			cfg.ReasonerAPIKey(),
			cfg.Reasoner.Model,
			cfg.ReasonerTimeout(),
			cfg.Reasoner.MaxResponseBytes,
		)
		engineOpts = append(engineOpts, classify.WithPrimary(classify.NewAssisted(client)))
	}
	engine := classify.NewEngine(logger, engineOpts...)

	var gateway notify.Gateway = noopGateway{}
	if cfg.Notifier.GatewayURL != "" {
		gateway = notify.NewWebhookGateway(cfg.Notifier.GatewayURL, cfg.NotifierAPIKey(), cfg.NotifierTimeout())
	} else {
		logger.Warn("no notification gateway configured, alerts will be logged only")
	}
	dispatcher := notify.NewDispatcher(gateway, notify.Config{
		Destination: cfg.Notifier.Destination,
		Async:       cfg.Notifier.Async,
		QueueSize:   cfg.Notifier.QueueSize,
		Workers:     cfg.Notifier.Workers,
	}, logger)

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	srv := server.New(cfg, engine, dispatcher, tel, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	dispatcher.Close(shutdownCtx)
	tel.Shutdown(shutdownCtx)
}

// noopGateway stands in when no gateway is configured; the dispatcher still
// logs every would-be alert.
type noopGateway struct{}

func (noopGateway) Send(context.Context, notify.Message) error { return nil }
