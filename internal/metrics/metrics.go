// Package metrics holds the Prometheus collectors for area repository
// operations and the optional /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultTimeout = "timeout"
)

// Recorder owns a private registry and the collectors registered on it. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	downloads       *prometheus.CounterVec
	downloadSeconds prometheus.Histogram
	inFlight        prometheus.Gauge
	deletes         *prometheus.CounterVec
	thumbnails      *prometheus.CounterVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "explore_area_downloads_total", Help: "Offline area downloads by final result."},
			[]string{"result"},
		),
		downloadSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "explore_area_download_seconds", Help: "Duration of offline area downloads in seconds.", Buckets: prometheus.ExponentialBuckets(0.5, 2, 10)},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "explore_area_downloads_in_flight", Help: "Offline area downloads currently running."},
		),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "explore_area_deletes_total", Help: "Offline area deletions by result."},
			[]string{"result"},
		),
		thumbnails: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "explore_thumbnail_fetches_total", Help: "Thumbnail fetches by result."},
			[]string{"result"},
		),
	}
	r.registry.MustRegister(r.downloads, r.downloadSeconds, r.inFlight, r.deletes, r.thumbnails)
	return r
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// DownloadStarted marks a download as in flight. The returned func must be
// called once with the outcome.
func (r *Recorder) DownloadStarted() func(ok bool) {
	if r == nil {
		return func(bool) {}
	}
	start := time.Now()
	r.inFlight.Inc()
	return func(ok bool) {
		r.inFlight.Dec()
		r.downloadSeconds.Observe(time.Since(start).Seconds())
		r.downloads.WithLabelValues(result(ok)).Inc()
	}
}

// DeleteFinished records the outcome of a deletion.
func (r *Recorder) DeleteFinished(err error) {
	if r == nil {
		return
	}
	r.deletes.WithLabelValues(result(err == nil)).Inc()
}

// ThumbnailFetched records a thumbnail fetch with one of the Result labels.
func (r *Recorder) ThumbnailFetched(label string) {
	if r == nil {
		return
	}
	r.thumbnails.WithLabelValues(label).Inc()
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// Serve exposes the registry on addr at /metrics until ctx ends. An empty
// addr disables the endpoint and returns immediately.
func (r *Recorder) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	if r == nil || addr == "" {
		return nil
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return r.serve(ctx, listener, logger)
}

func (r *Recorder) serve(ctx context.Context, listener net.Listener, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", listener.Addr().String()).Msg("serving metrics")
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
