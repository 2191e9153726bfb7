package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpload(ResultStored, 100)
	m.ObserveUpload(ResultStored, 50)
	m.ObserveUpload(ResultRejected, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Uploads.WithLabelValues(ResultStored)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(ResultRejected)))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.StoredBytes))
}

func TestObserveList(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveList(nil)
	m.ObserveList(errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListRequests.WithLabelValues(ResultFailed)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpload(ResultStored, 1)
		m.ObserveList(nil)
	})
}
