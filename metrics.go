package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsJob = "tcping"

type probeMetrics struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	elapsedMs       *prometheus.GaugeVec
	resolveDuration *prometheus.GaugeVec
}

func newProbeMetrics() *probeMetrics {
	m := &probeMetrics{
		registry: prometheus.NewRegistry(),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcping_probe_attempts_total",
				Help: "Total number of TCP connection attempts by outcome",
			},
			[]string{"target", "outcome"},
		),

		elapsedMs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tcping_probe_elapsed_ms",
				Help: "Elapsed time of the latest TCP connection attempt in milliseconds",
			},
			[]string{"target"},
		),

		resolveDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tcping_resolve_duration_seconds",
				Help: "Time taken to resolve the target hostname",
			},
			[]string{"target"},
		),
	}

	m.registry.MustRegister(
		m.attemptsTotal,
		m.elapsedMs,
		m.resolveDuration,
	)
	return m
}

func (m *probeMetrics) observeAttempt(target string, r Result) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(target, r.Outcome.String()).Inc()
	m.elapsedMs.WithLabelValues(target).Set(float64(r.Millis()))
}

func (m *probeMetrics) observeResolve(target string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolveDuration.WithLabelValues(target).Set(d.Seconds())
}

func (m *probeMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// serve starts the /metrics listener in the background. The listener is
// bound before returning so address errors surface as configuration errors.
func (m *probeMetrics) serve(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	slog.Info("metrics server listening", "addr", ln.Addr().String(), "path", "/metrics")
	return ln.Addr(), nil
}

// push sends the collected metrics to a Prometheus pushgateway. The group
// key must not reuse a label the collectors carry, so the target goes in
// "instance".
func (m *probeMetrics) push(url, target string) error {
	err := push.New(url, metricsJob).
		Gatherer(m.registry).
		Grouping("instance", target).
		Push()
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
