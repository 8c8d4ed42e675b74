package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/interpay/interpay-api/config"
	redisadapter "github.com/interpay/interpay-api/internal/adapters/redis"
	"github.com/interpay/interpay-api/internal/adapters/sandbox"
	"github.com/interpay/interpay-api/internal/core"
	"github.com/interpay/interpay-api/internal/data"
	"github.com/interpay/interpay-api/internal/observability/notify/pagerduty"
	"github.com/interpay/interpay-api/internal/observability/notify/slack"
	"github.com/interpay/interpay-api/internal/observability/statsd"
	"github.com/interpay/interpay-api/internal/service"
	"github.com/interpay/interpay-api/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Settlement    *service.SettlementService
	Jobs          *service.JobService
	Payments      *service.PaymentsService
	Publisher     core.JobEventPublisher // nil when Redis is disabled
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     statsd.Sink
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // Optional
	Client      core.AuthorizationClient
	Logger      *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink statsd.Sink
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	failureNotifier := buildFailureNotifier(obsLogger, cfg.Notifications)

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: failureNotifier,
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			Timeout:      cfg.Timeout,
			RetryLimit:   cfg.RetryLimit,
			JobURLPrefix: cfg.Slack.JobURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Endpoint:   cfg.PagerDuty.Endpoint,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:         baseLogger,
		Sinks:          sinks,
		NotifyCanceled: cfg.NotifyCanceled,
	})
}

// NewAuthorizationClient builds the client selected by AUTH_CLIENT_MODE.
// When the sandbox is selected and no wallets are configured, the scenario's
// first two wallets become the default sender and receiver.
//
//nolint:ireturn // the client implementation is chosen at runtime.
func NewAuthorizationClient(cfg *config.AppConfig, logger *slog.Logger) (core.AuthorizationClient, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Client.HasSigningKey() {
		if _, err := cfg.Client.ResolvePrivateKey(); err != nil {
			return nil, fmt.Errorf("load client signing key: %w", err)
		}
		logger.Info("client signing key loaded", "key_id", cfg.Client.KeyID, "wallet", cfg.Client.WalletURL)
	}

	switch cfg.Client.Mode {
	case config.ClientModeSandbox:
		scenario := sandbox.DefaultScenario()
		if path := cfg.Client.SandboxScenarioFile; path != "" {
			loaded, err := sandbox.LoadScenario(path)
			if err != nil {
				return nil, err
			}
			scenario = loaded
		}
		if len(scenario.Wallets) >= 2 {
			if cfg.Payments.SenderWalletURL == "" {
				cfg.Payments.SenderWalletURL = scenario.Wallets[0].ID
			}
			if cfg.Payments.ReceiverWalletURL == "" {
				cfg.Payments.ReceiverWalletURL = scenario.Wallets[1].ID
			}
		}
		client, err := sandbox.NewClient(sandbox.Options{Scenario: scenario, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("create sandbox client: %w", err)
		}
		logger.Info("using sandbox authorization client",
			"base_url", scenario.BaseURL,
			"wallets", len(scenario.Wallets))
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported client mode %q", cfg.Client.Mode)
	}
}

func newJobPublisher(client redis.UniversalClient, cfg config.RedisConfig) (core.JobEventPublisher, error) {
	if client == nil {
		return nil, nil
	}
	pub, err := redisadapter.NewJobPublisher(redisadapter.JobPublisherOptions{
		Client:      client,
		Channel:     cfg.JobChannel,
		SnapshotTTL: cfg.JobSnapshotTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create job publisher: %w", err)
	}
	return pub, nil
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.Client == nil {
		return ServiceContainer{}, errors.New("authorization client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)

	publisher, err := newJobPublisher(deps.RedisClient, cfg.Redis)
	if err != nil {
		return ServiceContainer{}, err
	}

	store := data.NewResourceStore()
	negotiator, err := service.NewGrantNegotiator(service.GrantNegotiatorOptions{
		Client:  deps.Client,
		Store:   store,
		Metrics: observability.MetricsSink,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create grant negotiator: %w", err)
	}

	defaults := service.SettlementDefaults{
		SenderWalletURL:    cfg.Payments.SenderWalletURL,
		ReceiverWalletURL:  cfg.Payments.ReceiverWalletURL,
		IncomingAmount:     cfg.Payments.IncomingAmount,
		IncomingGrantTypes: cfg.Payments.IncomingGrantTypes,
	}

	settlement, err := service.NewSettlementService(service.SettlementServiceOptions{
		Client:     deps.Client,
		Store:      store,
		Negotiator: negotiator,
		Defaults:   defaults,
		Poll: service.PollPolicy{
			InitialDelay: cfg.Payments.PollInitialDelay,
			Interval:     cfg.Payments.PollInterval,
			MaxAttempts:  cfg.Payments.PollMaxAttempts,
		},
		Publisher:       publisher,
		FailureNotifier: observability.FailureNotifier,
		Metrics:         observability.MetricsSink,
		Logger:          logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create settlement service: %w", err)
	}

	payments, err := service.NewPaymentsService(service.PaymentsServiceOptions{
		Client:     deps.Client,
		Store:      store,
		Negotiator: negotiator,
		Defaults:   defaults,
		Logger:     logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create payments service: %w", err)
	}

	return ServiceContainer{
		Settlement:    settlement,
		Jobs:          service.MustNewJobService(service.JobServiceOptions{Store: store, Logger: logger}),
		Payments:      payments,
		Publisher:     publisher,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// Signals overrides the OS signal channel. Tests use it to trigger shutdown.
	Signals <-chan os.Signal
}

// RunServicesWithShutdown starts the HTTP server and blocks until a shutdown
// signal is received or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	quit := cfg.Signals
	if quit == nil {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		quit = sigCh
	}

	return waitForShutdown(shutdownConfig{
		quit:       quit,
		errCh:      errCh,
		httpServer: server,
		settlement: cfg.Services.Settlement,
		timeout:    cfg.Config.HTTP.ShutdownTimeout,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit       <-chan os.Signal
	errCh      <-chan error
	httpServer *http.Server
	settlement *service.SettlementService
	timeout    time.Duration
	logger     *slog.Logger
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server, then cancels and drains settlement workers.
func gracefulStop(cfg shutdownConfig) error {
	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return ShutdownHTTPServer(ShutdownConfig{
		Context:    ctx,
		Server:     cfg.httpServer,
		Settlement: cfg.settlement,
		Logger:     cfg.logger,
	})
}
