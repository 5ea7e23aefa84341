// Package metrics exports per-session counters as a Prometheus textfile.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rbright/warbler/internal/session"
	"github.com/rbright/warbler/internal/wav"
)

// Session outcome label values.
const (
	OutcomeComplete     = "complete"
	OutcomeDeviceError  = "device_error"
	OutcomeTooShort     = "too_short"
	OutcomeInvalidAudio = "invalid_audio"
	OutcomeUploadError  = "upload_error"
	OutcomeCancelled    = "cancelled"
	OutcomeBusy         = "busy"
	OutcomeError        = "error"
)

// Metrics holds the session collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Sessions       *prometheus.CounterVec
	CaptureBytes   prometheus.Gauge
	UploadDuration prometheus.Histogram
	Predictions    prometheus.Counter
}

// New creates and registers the session collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warbler_sessions_total",
			Help: "Recording sessions by terminal outcome",
		}, []string{"outcome"}),
		CaptureBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "warbler_capture_bytes",
			Help: "PCM bytes captured by the most recent session",
		}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "warbler_upload_duration_seconds",
			Help:    "Classifier upload round-trip time",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "warbler_predictions_total",
			Help: "Species predictions returned by the classifier",
		}),
	}
}

// Registry exposes the gatherer backing the textfile.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSession folds one session result into the collectors.
func (m *Metrics) RecordSession(result session.Result) {
	m.Sessions.WithLabelValues(Outcome(result.Err)).Inc()
	m.CaptureBytes.Set(float64(result.BytesCaptured))
	if result.UploadLatency > 0 {
		m.UploadDuration.Observe(result.UploadLatency.Seconds())
	}
	m.Predictions.Add(float64(len(result.Predictions)))
}

// WriteTextfile atomically replaces path with the current registry contents.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}

// Outcome maps a session error to its outcome label.
func Outcome(err error) string {
	var (
		deviceErr   *session.DeviceError
		tooShortErr *session.CaptureTooShortError
		invalidErr  *wav.InvalidInputError
		uploadErr   *session.UploadError
	)
	switch {
	case err == nil:
		return OutcomeComplete
	case errors.As(err, &deviceErr):
		return OutcomeDeviceError
	case errors.As(err, &tooShortErr):
		return OutcomeTooShort
	case errors.As(err, &invalidErr):
		return OutcomeInvalidAudio
	case errors.As(err, &uploadErr):
		return OutcomeUploadError
	case errors.Is(err, session.ErrSessionActive):
		return OutcomeBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}
