// Package metrics holds the Prometheus collectors of the upload service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upload results used as the "result" label.
const (
	ResultStored   = "stored"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Uploads      *prometheus.CounterVec
	StoredBytes  prometheus.Counter
	UploadSize   prometheus.Histogram
	ListRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filedrop",
			Name:      "uploads_total",
			Help:      "Upload requests by result.",
		}, []string{"result"}),
		StoredBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filedrop",
			Name:      "stored_bytes_total",
			Help:      "Bytes written to blob storage.",
		}),
		UploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "filedrop",
			Name:      "upload_size_bytes",
			Help:      "Size of stored uploads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		ListRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filedrop",
			Name:      "list_requests_total",
			Help:      "Record listings by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Uploads, m.StoredBytes, m.UploadSize, m.ListRequests)
	return m
}

// ObserveUpload records one upload attempt.
func (m *Metrics) ObserveUpload(result string, size int64) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
	if result == ResultStored {
		m.StoredBytes.Add(float64(size))
		m.UploadSize.Observe(float64(size))
	}
}

// ObserveList records one listing.
func (m *Metrics) ObserveList(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ListRequests.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.ListRequests.WithLabelValues("ok").Inc()
}
