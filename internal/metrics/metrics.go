// Package metrics exports exploration loop measurements to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/types"
)

const namespace = "scout"

var _ explore.Metrics = (*Recorder)(nil)

// Recorder implements explore.Metrics on a Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	decisions        *prometheus.CounterVec
	decisionLatency  prometheus.Histogram
	actions          *prometheus.CounterVec
	actionLatency    *prometheus.HistogramVec
	sessions         *prometheus.CounterVec
	sessionIteration prometheus.Histogram
}

// New creates a Recorder with its own registry, which also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Labels: status (success, error)
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "decisions_total",
			Help:      "Decision oracle calls by status",
		}, []string{"status"}),

		decisionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "decision_latency_seconds",
			Help:      "Time to obtain a decision, including transport retries",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),

		// Labels: type (action type), status (success, failure)
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "executed_total",
			Help:      "Executed actions by type and outcome",
		}, []string{"type", "status"}),

		actionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "latency_seconds",
			Help:      "Action execution latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"type"}),

		// Labels: outcome (handed_off, insufficient_confidence, aborted)
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "finished_total",
			Help:      "Finished exploration sessions by outcome",
		}, []string{"outcome"}),

		sessionIteration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "iterations",
			Help:      "Iterations used per finished session",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20, 30, 50},
		}),
	}
}

// ObserveDecision records one oracle call.
func (r *Recorder) ObserveDecision(duration time.Duration, err error) {
	r.decisions.WithLabelValues(status(err == nil, "error")).Inc()
	r.decisionLatency.Observe(duration.Seconds())
}

// ObserveAction records one executed action.
func (r *Recorder) ObserveAction(actionType types.ActionType, success bool, duration time.Duration) {
	r.actions.WithLabelValues(string(actionType), status(success, "failure")).Inc()
	r.actionLatency.WithLabelValues(string(actionType)).Observe(duration.Seconds())
}

// ObserveSession records a finished session.
func (r *Recorder) ObserveSession(outcome types.Outcome, iterations int) {
	r.sessions.WithLabelValues(string(outcome)).Inc()
	r.sessionIteration.Observe(float64(iterations))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
		return nil
	}
}

func status(ok bool, failure string) string {
	if ok {
		return "success"
	}
	return failure
}
