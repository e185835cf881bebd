// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

const namespace = "newstracker"

// Recorder counts stored and failed articles.
type Recorder struct {
	registry *prometheus.Registry
	stored   *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

var _ ports.Recorder = (*Recorder)(nil)

// NewRecorder registers the counters on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "articles_total",
				Help:      "Articles stored, by topic and sentiment",
			},
			[]string{"topic", "sentiment"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Pipeline failures, by topic and stage",
			},
			[]string{"topic", "stage"},
		),
	}
	r.registry.MustRegister(r.stored, r.failed)
	return r
}

// ArticleStored records one persisted classification.
func (r *Recorder) ArticleStored(topic string, sentiment domain.Sentiment) {
	r.stored.WithLabelValues(topic, string(sentiment)).Inc()
}

// ArticleFailed records one failure at stage.
func (r *Recorder) ArticleFailed(topic, stage string) {
	r.failed.WithLabelValues(topic, stage).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

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

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
