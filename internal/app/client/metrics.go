package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

var (
	metricsRegistry = prometheus.NewRegistry()

	writeOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "client",
		Name:      "writes_total",
		Help:      "Local-first writes, labeled by collection and resulting sync status.",
	}, []string{"collection", "status"})

	reconciledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "client",
		Name:      "reconciled_total",
		Help:      "Pending entries confirmed by the remote store during reconciliation.",
	}, []string{"collection"})

	readFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "client",
		Name:      "read_fallbacks_total",
		Help:      "Reads served from the local cache because the remote read failed.",
	}, []string{"collection"})

	reportedErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacekeeper",
		Subsystem: "client",
		Name:      "reported_errors_total",
		Help:      "Absorbed failures sent to the error sink, labeled by operation.",
	}, []string{"op"})
)

func init() {
	metricsRegistry.MustRegister(writeOutcomes, reconciledCounter, readFallbacks, reportedErrors)
}

// MetricsHandler отдаёт счётчики клиента в формате Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})
}

// serveMetrics держит /metrics на addr до отмены ctx.
func serveMetrics(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Метрики клиента доступны", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
