package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/indexpulse/backend/internal/scheduler"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQueryInt(t *testing.T) {
	newReq := func(query string) *http.Request {
		return httptest.NewRequest("GET", "/api/events?"+query, nil)
	}

	assert.Equal(t, 50, queryInt(newReq(""), "limit", 50, 1, 200))
	assert.Equal(t, 50, queryInt(newReq("limit=abc"), "limit", 50, 1, 200))
	assert.Equal(t, 120, queryInt(newReq("limit=120"), "limit", 50, 1, 200))
	assert.Equal(t, 200, queryInt(newReq("limit=999"), "limit", 50, 1, 200))
	assert.Equal(t, 1, queryInt(newReq("limit=0"), "limit", 50, 1, 200))
	assert.Equal(t, 1, queryInt(newReq("limit=-5"), "limit", 50, 1, 200))
}

func TestTrackedFundsHandler(t *testing.T) {
	h := NewPremiumHandler(nil, nil, testLogger())

	rec := httptest.NewRecorder()
	h.TrackedFunds(rec, httptest.NewRequest("GET", "/api/premium/tracked-funds", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(14), body["total"])

	groups := body["groups"].([]interface{})
	require.Len(t, groups, 4)
	first := groups[0].(map[string]interface{})
	assert.Equal(t, "sp500", first["index_type"])
	assert.Equal(t, "标普500", first["index_name"])
	assert.Len(t, first["funds"].([]interface{}), 4)
}

func TestIndicesMappingHandler(t *testing.T) {
	h := NewIndicesHandler(nil, nil, testLogger())

	rec := httptest.NewRecorder()
	h.Mapping(rec, httptest.NewRequest("GET", "/api/indices/config/mapping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(6), body["count"])

	indices := body["indices"].([]interface{})
	first := indices[0].(map[string]interface{})
	assert.Equal(t, "csi300", first["index_code"])
	assert.Equal(t, "沪深300", first["name"])
	assert.Equal(t, "sh000300", first["sina_code"])

	last := indices[5].(map[string]interface{})
	assert.Equal(t, "nasdaq100", last["index_code"])
	assert.Equal(t, "^NDX", last["yahoo_code"])
}

type noopJob struct{ name string }

func (j noopJob) Name() string                  { return j.name }
func (j noopJob) DisplayName() string           { return "테스트 " + j.name }
func (j noopJob) Schedule() string              { return "@every 1h" }
func (j noopJob) Run(ctx context.Context) error { return nil }

func newSystemHandler(t *testing.T) (*SystemHandler, *scheduler.Scheduler) {
	t.Helper()
	cfg := &config.Config{Env: "test", LogLevel: "error", LogFormat: "console"}
	sched := scheduler.New(testLogger(), nil)
	require.NoError(t, sched.AddJob(noopJob{name: "update_indices"}))
	return NewSystemHandler(cfg, sched, "1.0.0-test", testLogger()), sched
}

func TestHealthHandler(t *testing.T) {
	h, _ := newSystemHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["scheduler_running"])
}

func TestStatusHandler(t *testing.T) {
	h, _ := newSystemHandler(t)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "IndexPulse", body["service"])
	assert.Equal(t, "1.0.0-test", body["version"])

	monitored := body["monitored_indices"].([]interface{})
	assert.Len(t, monitored, 6)

	sessions := body["market_sessions"].(map[string]interface{})
	assert.Contains(t, sessions, "cn_open")
	assert.Contains(t, sessions, "us_open")
}

func TestTriggerHandler(t *testing.T) {
	h, _ := newSystemHandler(t)

	t.Run("known job via alias", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest("POST", "/api/trigger/indices", nil),
			map[string]string{"jobName": "indices"})
		rec := httptest.NewRecorder()
		h.Trigger(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, "update_indices", body["job"])
	})

	t.Run("unknown job", func(t *testing.T) {
		req := mux.SetURLVars(httptest.NewRequest("POST", "/api/trigger/nope", nil),
			map[string]string{"jobName": "nope"})
		rec := httptest.NewRecorder()
		h.Trigger(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSchedulerControlHandlers(t *testing.T) {
	h, sched := newSystemHandler(t)

	rec := httptest.NewRecorder()
	h.SchedulerStart(rec, httptest.NewRequest("POST", "/api/scheduler/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sched.Running())

	rec = httptest.NewRecorder()
	h.SchedulerStatus(rec, httptest.NewRequest("GET", "/api/scheduler/status", nil))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["running"])
	jobs := body["jobs"].(map[string]interface{})
	assert.Contains(t, jobs, "update_indices")

	rec = httptest.NewRecorder()
	h.SchedulerStop(rec, httptest.NewRequest("POST", "/api/scheduler/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sched.Running())
}
