/*
handlers_test.go - HTTP endpoint tests

ORGANIZATION:
  1. Test server      - router wired onto an in-memory archive
  2. Calculation      - match, scenario, batch, sweep endpoints
  3. Runs archive     - list, get, delete, compare
  4. Jobs             - background optimization lifecycle
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/optimizer"
	"github.com/warp/comp-engine/store"
)

// =============================================================================
// 1. TEST SERVER
// =============================================================================

type testServer struct {
	store  *store.MemoryStore
	jobs   *JobManager
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	runStore := store.NewMemoryStore()
	jobs := NewJobManager(runStore, nil)
	t.Cleanup(jobs.Shutdown)

	h := NewHandler(runStore, jobs, engine.DefaultGlobals(), nil)
	return &testServer{
		store:  runStore,
		jobs:   jobs,
		router: NewRouter(h, nil),
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func testMarketRow() engine.MarketRow {
	return engine.MarketRow{
		Specialty: "Cardiology",
		TCC:       engine.MarketCurve{P25: 180000, P50: 220000, P75: 260000, P90: 300000},
		WRVU:      engine.MarketCurve{P25: 4000, P50: 4800, P75: 5600, P90: 6200},
		CF:        engine.MarketCurve{P25: 42, P50: 46, P75: 50, P90: 54},
	}
}

func testProvider() engine.ProviderRecord {
	return engine.ProviderRecord{
		ID:          "p1",
		Specialty:   "Cardiology",
		TotalFTE:    1,
		ClinicalFTE: 1,
		BaseSalary:  200000,
		TotalWRVUs:  5000,
		CurrentCF:   45,
	}
}

func archiveRun(t *testing.T, ts *testServer, id string, spend float64) {
	t.Helper()
	require.NoError(t, ts.store.SaveRun(context.Background(), &optimizer.RunResult{
		RunID:     id,
		CreatedAt: time.Now().UTC(),
		Specialties: []optimizer.SpecialtyResult{
			{Specialty: "Cardiology", CurrentCF: 44, RecommendedCF: 46, Action: optimizer.ActionIncrease},
		},
		Totals: optimizer.RunTotals{SpendImpact: spend},
	}))
}

// =============================================================================
// 2. CALCULATION ENDPOINTS
// =============================================================================

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, rec))
}

func TestMatchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/specialties/match", MatchRequest{
		Specialty:  "cardiology",
		MarketRows: []engine.MarketRow{testMarketRow()},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[MatchResponse](t, rec)
	assert.Equal(t, engine.MatchExact, resp.Status)
	assert.Equal(t, "Cardiology", resp.Specialty)
	require.NotNil(t, resp.Row)
}

func TestMatchEndpointRequiresMarketRows(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/specialties/match", MatchRequest{Specialty: "Cardiology"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "marketRows")
}

func TestScenarioEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/scenario", ScenarioRequest{
		Provider:  testProvider(),
		MarketRow: testMarketRow(),
		Inputs: engine.ScenarioInputs{
			CFMode:             engine.CFModeTargetPercentile,
			TargetCFPercentile: 50,
			ThresholdMethod:    engine.ThresholdDerived,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[engine.ScenarioResult](t, rec)
	assert.Equal(t, 46.0, result.ModeledCF)
}

func TestScenarioEndpointRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scenario", bytes.NewBufferString(`{"provider":`))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "invalid JSON")
}

func TestBatchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/batch", BatchRequest{
		Providers:  []engine.ProviderRecord{testProvider()},
		MarketRows: []engine.MarketRow{testMarketRow()},
		Scenarios: []engine.ScenarioInputs{
			{ID: "s1", CFMode: engine.CFModeTargetPercentile, TargetCFPercentile: 50},
			{ID: "s2", CFMode: engine.CFModeTargetPercentile, TargetCFPercentile: 75},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	results := decodeBody[engine.BatchResults](t, rec)
	assert.Len(t, results.Rows, 2)
	assert.Equal(t, 1, results.ProviderCount)
	assert.Zero(t, results.MissingCount)
}

func TestBatchEndpointRequiresScenarios(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/batch", BatchRequest{
		Providers: []engine.ProviderRecord{testProvider()},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/optimizer/sweep", SweepRequest{
		Providers:     []engine.ProviderRecord{testProvider()},
		MarketRows:    []engine.MarketRow{testMarketRow()},
		Settings:      optimizer.DefaultSettings(),
		CFPercentiles: []float64{25, 50, 75},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[optimizer.SweepResult](t, rec)
	require.Len(t, result.Specialties, 1)
	assert.Len(t, result.Specialties[0].Points, 3)
}

func TestSweepEndpointRequiresPercentiles(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/optimizer/sweep", SweepRequest{
		Providers:  []engine.ProviderRecord{testProvider()},
		MarketRows: []engine.MarketRow{testMarketRow()},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// 3. RUNS ARCHIVE
// =============================================================================

func TestRunsArchiveEndpoints(t *testing.T) {
	ts := newTestServer(t)
	archiveRun(t, ts, "r1", 120000)

	rec := ts.do(t, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metas := decodeBody[[]store.RunMeta](t, rec)
	require.Len(t, metas, 1)
	assert.Equal(t, "r1", metas[0].RunID)

	rec = ts.do(t, http.MethodGet, "/api/runs/r1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decodeBody[optimizer.RunResult](t, rec)
	assert.Equal(t, "r1", run.RunID)

	rec = ts.do(t, http.MethodDelete, "/api/runs/r1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/runs/r1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownRunIs404(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/runs/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareEndpoint(t *testing.T) {
	ts := newTestServer(t)
	archiveRun(t, ts, "r1", 100000)
	archiveRun(t, ts, "r2", 150000)

	rec := ts.do(t, http.MethodPost, "/api/compare", CompareRequest{
		RunIDs: []string{"r1", "r2"},
		Labels: []string{"Base", "Aggressive"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[CompareResponse](t, rec)
	require.NotNil(t, resp.Comparison)
	require.Len(t, resp.Comparison.Runs, 2)
	assert.Equal(t, "Base", resp.Comparison.Runs[0].Label)
	require.Len(t, resp.Comparison.Deltas, 1)
	assert.InDelta(t, 50000.0, resp.Comparison.Deltas[0].SpendImpactDelta, 1e-9)
}

func TestCompareEndpointUnknownRunIs404(t *testing.T) {
	ts := newTestServer(t)
	archiveRun(t, ts, "r1", 100000)

	rec := ts.do(t, http.MethodPost, "/api/compare", CompareRequest{RunIDs: []string{"r1", "ghost"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareEndpointRejectsSingleRun(t *testing.T) {
	ts := newTestServer(t)
	archiveRun(t, ts, "r1", 100000)

	rec := ts.do(t, http.MethodPost, "/api/compare", CompareRequest{RunIDs: []string{"r1"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// 4. JOBS
// =============================================================================

func awaitJob(t *testing.T, ts *testServer, jobID string) JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := ts.do(t, http.MethodGet, "/api/optimizer/jobs/"+jobID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		view := decodeBody[JobView](t, rec)
		if view.Status != JobRunning {
			return view
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return JobView{}
}

func TestOptimizeJobLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/optimizer/jobs", OptimizeRequest{
		Providers:    []engine.ProviderRecord{testProvider()},
		MarketRows:   []engine.MarketRow{testMarketRow()},
		Settings:     optimizer.DefaultSettings(),
		ScenarioName: "Nightly",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	started := decodeBody[JobView](t, rec)
	require.NotEmpty(t, started.JobID)

	view := awaitJob(t, ts, started.JobID)
	require.Equal(t, JobCompleted, view.Status)
	require.NotNil(t, view.Result)
	assert.Equal(t, "Nightly", view.Result.ScenarioName)
	assert.Len(t, view.Result.Specialties, 1)
	require.NotNil(t, view.EndedAt)
	assert.Equal(t, view.Progress.Done, view.Progress.Total)

	// Completed runs land in the archive. The save happens just after the
	// status flips, so allow it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		metas, err := ts.store.ListRuns(context.Background())
		require.NoError(t, err)
		if len(metas) == 1 {
			assert.Equal(t, view.Result.RunID, metas[0].RunID)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run was not archived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOptimizeJobValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/optimizer/jobs", OptimizeRequest{
		MarketRows: []engine.MarketRow{testMarketRow()},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/optimizer/jobs", OptimizeRequest{
		Providers: []engine.ProviderRecord{testProvider()},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobListIncludesStartedJobs(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/optimizer/jobs", OptimizeRequest{
		Providers:  []engine.ProviderRecord{testProvider()},
		MarketRows: []engine.MarketRow{testMarketRow()},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	started := decodeBody[JobView](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/optimizer/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeBody[[]JobView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, started.JobID, views[0].JobID)

	awaitJob(t, ts, started.JobID)
}

func TestUnknownJobIs404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/optimizer/jobs/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/optimizer/jobs/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
