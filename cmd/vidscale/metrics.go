package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vidscale/pipeline"
)

// metricsServer exposes the run counters for scraping while a job is
// in flight. The gauges read the processing context directly, so the
// endpoint always reports current values.
type metricsServer struct {
	srv *http.Server
}

func newMetricsServer(addr string, ctx *pipeline.Context) *metricsServer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vidscale",
			Name:      "processed_frames",
			Help:      "Frames that have passed the filter so far.",
		}, func() float64 { return float64(ctx.ProcessedFrames()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vidscale",
			Name:      "total_frames",
			Help:      "Estimated total frame count, 0 when unknown.",
		}, func() float64 { return float64(ctx.TotalFrames()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vidscale",
			Name:      "speed_fps",
			Help:      "Smoothed processing speed in frames per second.",
		}, func() float64 { return ctx.Speed() }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vidscale",
			Name:      "progress_ratio",
			Help:      "Completed fraction of the run, 0 to 1.",
		}, func() float64 { return ctx.Progress() }),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m := &metricsServer{srv: &http.Server{Addr: addr, Handler: mux}}
	go func() {
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithFields(logrus.Fields{
				"function": "newMetricsServer",
				"addr":     addr,
				"error":    err,
			}).Warn("Metrics server stopped")
		}
	}()
	return m
}

func (m *metricsServer) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.srv.Shutdown(shutdownCtx)
}
