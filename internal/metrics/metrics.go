// Package metrics records per-run counters for OCR Runner. A CLI has no
// scrape endpoint, so the registry is written to a node_exporter textfile
// at the end of the run when metrics_file is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultSuccess           = "success"
	ResultPreparationFailed = "preparation_failed"
	ResultRecognitionFailed = "recognition_failed"
	ResultCanceled          = "canceled"
)

// Metrics holds one run's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	ImagesDiscovered prometheus.Gauge
	ImagesTotal      *prometheus.CounterVec
	InFlight         prometheus.Gauge
	ImageDuration    *prometheus.HistogramVec
	PayloadBytes     prometheus.Histogram
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		ImagesDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ocr_runner",
			Name:      "images_discovered",
			Help:      "Number of images found in the input directory for the last run.",
		}),
		ImagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocr_runner",
			Name:      "images_processed_total",
			Help:      "Images attempted, labeled by result.",
		}, []string{"result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ocr_runner",
			Name:      "images_in_flight",
			Help:      "Images currently being prepared or recognized.",
		}),
		ImageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ocr_runner",
			Name:      "image_duration_seconds",
			Help:      "End-to-end time per image (prepare + recognize).",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60, 120, 300},
		}, []string{"result"}),
		PayloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ocr_runner",
			Name:      "payload_bytes",
			Help:      "Size of the base64 payload sent per image.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ocr_runner",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ocr_runner",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp (seconds) at which the last run finished.",
		}),
	}

	m.Registry.MustRegister(
		m.ImagesDiscovered,
		m.ImagesTotal,
		m.InFlight,
		m.ImageDuration,
		m.PayloadBytes,
		m.RunDuration,
		m.LastRunTimestamp,
	)
	return m
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
