package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmehdipour/installbase-sync/internal/config"
	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmehdipour/installbase-sync/internal/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	cycles    []model.CycleReport
	failures  []model.CycleFailure
	err       error
	lastLimit int
	lastID    string
}

func (f *fakeHistory) InsertCycle(context.Context, model.CycleReport, []model.CycleFailure) error {
	return nil
}

func (f *fakeHistory) ListCycles(_ context.Context, limit, _ int) ([]model.CycleReport, error) {
	f.lastLimit = limit
	return f.cycles, f.err
}

func (f *fakeHistory) ListFailures(_ context.Context, cycleID string, limit, _ int) ([]model.CycleFailure, error) {
	f.lastID = cycleID
	f.lastLimit = limit
	return f.failures, f.err
}

type fakeLease struct {
	holder string
	err    error
}

func (f *fakeLease) Holder(context.Context) (string, error) { return f.holder, f.err }

func newTestServer(cfg config.Config, tracker *status.Tracker, history *fakeHistory) *Server {
	if history == nil {
		return NewServer(cfg, tracker, nil, nil, nil, prometheus.NewRegistry())
	}
	return NewServer(cfg, tracker, history, nil, nil, prometheus.NewRegistry())
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(config.Config{}, status.NewTracker(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	s := newTestServer(config.Config{}, status.NewTracker(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	tracker := status.NewTracker()
	s := newTestServer(config.Config{}, tracker, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap status.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, status.PhaseIdle, snap.Phase)
	assert.Nil(t, snap.LastCycle)

	tracker.CycleFinished(model.CycleReport{
		CycleID:    "01K3",
		Status:     model.CycleCompleted,
		Total:      4,
		Stored:     4,
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	})

	rec = do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.LastCycle)
	assert.Equal(t, model.CycleCompleted, snap.LastCycle.Status)
	assert.Equal(t, 1, snap.CyclesRun)
}

func TestStatusShowsLeaseHolder(t *testing.T) {
	t.Parallel()

	s := NewServer(config.Config{}, status.NewTracker(), nil,
		&fakeLease{holder: "01K3"}, nil, prometheus.NewRegistry())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Phase       status.Phase `json:"phase"`
		LeaseHolder string       `json:"lease_holder"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, status.PhaseIdle, resp.Phase)
	assert.Equal(t, "01K3", resp.LeaseHolder)
}

func TestStatusOmitsFreeLease(t *testing.T) {
	t.Parallel()

	s := NewServer(config.Config{}, status.NewTracker(), nil,
		&fakeLease{}, nil, prometheus.NewRegistry())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "lease_holder")
}

func TestStatusSurvivesLeaseReadError(t *testing.T) {
	t.Parallel()

	s := NewServer(config.Config{}, status.NewTracker(), nil,
		&fakeLease{err: errors.New("redis down")}, nil, prometheus.NewRegistry())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyGuard(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.HTTP.APIKey = "sekret"
	s := newTestServer(cfg, status.NewTracker(), nil)

	// missing key
	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// wrong key
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set("X-API-Key", "nope")
	rec = do(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// right key
	req = httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set("X-API-Key", "sekret")
	rec = do(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays open
	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListCycles(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{cycles: []model.CycleReport{
		{CycleID: "01K3", Status: model.CycleCompleted, Total: 2, Stored: 2},
	}}
	s := newTestServer(config.Config{}, status.NewTracker(), history)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/reports/cycles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Limit   int                 `json:"limit"`
		Count   int                 `json:"count"`
		Results []model.CycleReport `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "01K3", resp.Results[0].CycleID)
}

func TestListCyclesClampsLimit(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{}
	s := newTestServer(config.Config{}, status.NewTracker(), history)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/reports/cycles?limit=5000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, history.lastLimit, "out-of-range limit falls back to default")
}

func TestListFailuresFiltersByCycle(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{failures: []model.CycleFailure{
		{CycleID: "01K3", GDUNS: "069598425", Kind: model.FailureFetchFailed},
	}}
	s := newTestServer(config.Config{}, status.NewTracker(), history)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/reports/failures?cycle_id=01K3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01K3", history.lastID)
}

func TestListCyclesQueryError(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{err: errors.New("clickhouse down")}
	s := newTestServer(config.Config{}, status.NewTracker(), history)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/reports/cycles", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReportsAbsentWithoutHistory(t *testing.T) {
	t.Parallel()

	s := newTestServer(config.Config{}, status.NewTracker(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/v1/reports/cycles", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
