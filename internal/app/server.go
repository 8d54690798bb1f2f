package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/shaderplan/internal/ctxlog"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// planHandler serves the last plan that compiled successfully.
func (a *App) planHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Plan endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	plan := a.LastPlan()
	if plan == nil {
		http.Error(w, "no plan compiled yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		a.logger.Error("Failed to encode plan.", "error", err)
	}
}

func (a *App) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/plan", a.planHandler)
	return mux
}

// startPlanServer binds the port before returning so a busy port fails Run.
func (a *App) startPlanServer(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring plan server.")

	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start plan server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Plan server starting", "address", fmt.Sprintf("http://localhost%s/plan", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Plan server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closePlanServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Plan server was not running.")
		return nil
	}

	// The run context is usually already cancelled here.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down plan server...")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Plan server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Plan server shut down gracefully.")
	return nil
}
