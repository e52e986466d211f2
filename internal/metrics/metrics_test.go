package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFetch_CountsErrors(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	before := testutil.ToFloat64(fetchErrors.WithLabelValues("metrics_test"))

	m.ObserveFetch("metrics_test", 10*time.Millisecond, nil)
	m.ObserveFetch("metrics_test", 10*time.Millisecond, errors.New("HTTP 500"))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["pages_fetched"])
	assert.Equal(t, int64(1), stats["fetch_errors"])
	assert.Equal(t, "HTTP 500", stats["last_error"])
	assert.Equal(t, false, stats["is_healthy"])
	assert.Equal(t, before+1, testutil.ToFloat64(fetchErrors.WithLabelValues("metrics_test")))

	m.SetLastIngest()
	assert.Equal(t, true, m.GetStats()["is_healthy"])
}

func TestRecordClusterTime_Average(t *testing.T) {
	m := &Metrics{}
	m.RecordClusterTime(100 * time.Millisecond)
	m.RecordClusterTime(300 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, m.AverageClusterTime)
	assert.Equal(t, int64(2), m.ClusterRuns)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	Global.AddIngested("metrics_test", 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `newslens_articles_ingested_total{source="metrics_test"}`)
}
