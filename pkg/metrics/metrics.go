package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Ingestion metrics
	UploadsTotal      *prometheus.CounterVec
	UploadDuration    *prometheus.HistogramVec
	UploadsInProgress prometheus.Gauge
	RowsDecoded       *prometheus.CounterVec
	CampaignsLoaded   *prometheus.CounterVec
	DatasetCampaigns  prometheus.Gauge

	// Analytics metrics
	AnalyticsComputed *prometheus.CounterVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_uploads_total",
				Help: "Total number of campaign file uploads",
			},
			[]string{"kind", "status"},
		),

		UploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campaign_upload_duration_seconds",
				Help:    "Time spent decoding and normalizing an uploaded file",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),

		UploadsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campaign_uploads_in_progress",
				Help: "Number of uploads currently being processed",
			},
		),

		RowsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_rows_decoded_total",
				Help: "Total number of raw rows read from uploaded files",
			},
			[]string{"kind"},
		),

		CampaignsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_records_loaded_total",
				Help: "Total number of campaigns built from uploaded rows",
			},
			[]string{"kind"},
		),

		DatasetCampaigns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "campaign_dataset_size",
				Help: "Number of campaigns in the loaded dataset",
			},
		),

		AnalyticsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_analytics_computed_total",
				Help: "Total number of analytics computations",
			},
			[]string{"type"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Upload outcome and timing
func (m *Metrics) RecordUpload(kind, status string, duration time.Duration) {
	m.UploadsTotal.WithLabelValues(kind, status).Inc()
	m.UploadDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// Rows read by a decoder
func (m *Metrics) RecordRowsDecoded(kind string, count int) {
	m.RowsDecoded.WithLabelValues(kind).Add(float64(count))
}

// Campaigns produced by the record builder
func (m *Metrics) RecordCampaignsLoaded(kind string, count int) {
	m.CampaignsLoaded.WithLabelValues(kind).Add(float64(count))
}

func (m *Metrics) SetDatasetSize(n int) {
	m.DatasetCampaigns.Set(float64(n))
}

func (m *Metrics) RecordAnalytics(kind string) {
	m.AnalyticsComputed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncUploadsInProgress() {
	m.UploadsInProgress.Inc()
}

func (m *Metrics) DecUploadsInProgress() {
	m.UploadsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
