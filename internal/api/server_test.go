package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/review-monitor/internal/core"
)

type stubScheduler struct {
	next   core.Outcome
	last   core.Outcome
	has    bool
	ticks  int
	ctxErr error
}

func (s *stubScheduler) Tick(ctx context.Context) core.Outcome {
	s.ticks++
	s.ctxErr = ctx.Err()
	s.last, s.has = s.next, true
	return s.next
}

func (s *stubScheduler) Last() (core.Outcome, bool) {
	return s.last, s.has
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReviewAcknowledgement(t *testing.T) {
	srv := NewServer(&stubScheduler{})

	rec := do(t, srv.Router(), http.MethodGet, "/review")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", rec.Body.String())

	rec = do(t, srv.Router(), http.MethodGet, "/health")
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCheckRunsTick(t *testing.T) {
	sched := &stubScheduler{next: core.Outcome{Stage: core.StageDone, Changed: true, Notified: true, Counter: "<b>5</b>"}}
	srv := NewServer(sched)

	rec := do(t, srv.Router(), http.MethodPost, "/check")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sched.ticks)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "done", body["stage"])
	assert.Equal(t, true, body["notified"])
	assert.Equal(t, "<b>5</b>", body["counter"])
}

func TestCheckOutlivesClient(t *testing.T) {
	sched := &stubScheduler{next: core.Outcome{Stage: core.StageDone}}
	srv := NewServer(sched)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/check", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, 1, sched.ticks)
	assert.NoError(t, sched.ctxErr)
}

func TestCheckReportsFailure(t *testing.T) {
	sched := &stubScheduler{next: core.Outcome{Stage: core.StageFetch, Err: errors.New("timeout")}}
	srv := NewServer(sched)

	rec := do(t, srv.Router(), http.MethodPost, "/check")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}

func TestStatsIncludesLastCheck(t *testing.T) {
	sched := &stubScheduler{last: core.Outcome{Stage: core.StageDone}, has: true}
	srv := NewServer(sched)

	rec := do(t, srv.Router(), http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "stats")
	assert.Contains(t, body, "last_check")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(&stubScheduler{})
	rec := do(t, srv.Router(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
