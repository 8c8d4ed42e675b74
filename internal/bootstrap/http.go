package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/interpay/interpay-api/config"
	httpx "github.com/interpay/interpay-api/internal/http"
	"github.com/interpay/interpay-api/internal/service"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh, when set, receives the listener error if the server fails to serve.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	appCfg.HTTP.Sanitize()

	handler := httpx.NewRouter(httpx.RouterServices{
		Settlement: cfg.Services.Settlement,
		Jobs:       cfg.Services.Jobs,
		Payments:   cfg.Services.Payments,
		Logger:     logger,
	})

	return startServer(logger, handler, appCfg.HTTP, cfg.ErrCh)
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig, errCh chan<- error) *http.Server {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context    context.Context
	Server     *http.Server
	Settlement *service.SettlementService
	Logger     *slog.Logger
}

// ShutdownHTTPServer stops accepting requests, then cancels in-flight
// settlement workers and waits for them within the context deadline.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	if cfg.Server != nil {
		logger.Info("shutting down HTTP server")
		if err := cfg.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		} else {
			logger.Info("HTTP server stopped")
		}
	}

	if cfg.Settlement != nil {
		if err := cfg.Settlement.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		} else {
			logger.Info("settlement workers stopped")
		}
	}

	return errors.Join(errs...)
}
