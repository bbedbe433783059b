package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/searchbook/internal/api"
	"github.com/listenupapp/searchbook/internal/config"
	"github.com/listenupapp/searchbook/internal/logger"
)

// requestsPerMinute limits session and intent requests per client IP.
const requestsPerMinute = 600

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.handler.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	sessions := do.MustInvoke[*SessionsHandle](i)

	version, err := do.Invoke[Version](i)
	if err != nil {
		version = "dev"
	}

	handler := api.NewServer(sessions.Sessions, sseHandle.Manager, api.Options{
		Version:           string(version),
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerMinute: requestsPerMinute,
		Burst:             requestsPerMinute / 10,
		Checks: map[string]api.HealthCheck{
			"store": storeHandle.Ping,
		},
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// Open SSE streams never go idle; close them so Shutdown can finish.
	srv.RegisterOnShutdown(func() {
		if err := sseHandle.Shutdown(); err != nil {
			log.Warn("SSE shutdown", "error", err)
		}
	})

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
