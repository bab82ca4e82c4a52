package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediaflow/internal/config"
	"mediaflow/internal/logging"
)

// resolveMetricsAddr prefers the flag over metrics.bind.
func resolveMetricsAddr(flag string, cfg *config.Config) string {
	if addr := strings.TrimSpace(flag); addr != "" {
		return addr
	}
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Metrics.Bind)
}

// serveMetrics exposes /metrics until ctx is done. An empty addr is a no-op.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started",
			logging.String(logging.FieldEventType, "metrics_start"),
			logging.String("addr", addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WarnWithContext(logger, "metrics listener stopped", "metrics_failed",
				logging.String("addr", addr), logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
