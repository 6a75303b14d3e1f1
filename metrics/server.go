package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
)

// MetricsServer exposes the process metrics in Prometheus text format on /metrics.
type MetricsServer struct {
	namespace  string
	metricsSrv *http.Server
}

func New(namespace, listenAddr string) (*MetricsServer, error) {
	s := &MetricsServer{namespace: namespace}

	mux := chi.NewRouter()
	mux.Get("/metrics", s.handleMetrics)

	s.metricsSrv = &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *MetricsServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metrics.WritePrometheus(w, true)
}

// Handler returns the router serving /metrics.
func (s *MetricsServer) Handler() http.Handler {
	return s.metricsSrv.Handler
}

func (s *MetricsServer) ListenAndServe() error {
	return s.metricsSrv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.metricsSrv.Shutdown(ctx)
}
