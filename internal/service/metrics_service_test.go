package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/auth/login", http.StatusUnauthorized, 40*time.Millisecond)
	m.ObserveStoreOperation("get", "students", time.Millisecond, nil)
	m.ObserveStoreOperation("set", "students", time.Millisecond, errors.New("down"))
	m.RecordLogin(false)
	m.RecordLogin(true)
	m.RecordSubmission(false)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.StoreOperations)
	assert.Equal(t, uint64(1), snap.StoreFailures)
	assert.Equal(t, uint64(1), snap.LoginFailures)
	assert.Equal(t, uint64(1), snap.InvalidSubmissions)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordLogin(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `roster_logins_total{outcome="success"} 1`)
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordLogin(false)
	m.ObserveStoreOperation("get", "users", time.Millisecond, nil)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
