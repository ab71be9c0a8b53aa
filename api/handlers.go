/*
handlers.go - HTTP handler implementations

PURPOSE:
  Translates HTTP requests into engine, optimizer, and compare calls.
  Handlers validate payloads and map sentinel errors to status codes;
  all calculation semantics live in the calculation packages.

ERROR MAPPING:
  400  malformed JSON, missing required fields, bad run counts
  404  unknown run or job ID
  500  store failures and anything unexpected
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/compare"
	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/optimizer"
	"github.com/warp/comp-engine/store"
)

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	Store   store.RunStore
	Jobs    *JobManager
	Globals engine.Globals
	Logger  *zap.Logger
}

// NewHandler wires a handler. A nil logger is replaced with a no-op.
func NewHandler(runStore store.RunStore, jobs *JobManager, globals engine.Globals, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: runStore, Jobs: jobs, Globals: globals, Logger: logger}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MatchSpecialty resolves a provider specialty against market rows.
func (h *Handler) MatchSpecialty(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.MarketRows) == 0 {
		h.writeError(w, http.StatusBadRequest, "marketRows is required")
		return
	}

	res := engine.MatchSpecialty(engine.ProviderRecord{Specialty: req.Specialty}, req.MarketRows, req.Synonyms)
	resp := MatchResponse{Status: res.Status, Row: res.Row}
	if res.Row != nil {
		resp.Specialty = res.Row.Specialty
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ComputeScenario models one provider under one scenario.
func (h *Handler) ComputeScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.MarketRow.Valid() {
		h.writeError(w, http.StatusBadRequest, "marketRow must carry valid percentile curves")
		return
	}

	result := engine.ComputeScenario(req.Provider, req.MarketRow, req.Inputs, h.resolveGlobals(req.Globals))
	h.writeJSON(w, http.StatusOK, result)
}

// RunBatch models every provider under every scenario.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Providers) == 0 || len(req.Scenarios) == 0 {
		h.writeError(w, http.StatusBadRequest, "providers and scenarios are required")
		return
	}

	results := engine.RunBatch(req.Providers, req.MarketRows, req.Scenarios, engine.BatchOptions{
		Synonyms: req.Synonyms,
		Globals:  h.resolveGlobals(req.Globals),
	})
	h.writeJSON(w, http.StatusOK, results)
}

// RunSweep evaluates fixed CF percentiles synchronously.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := optimizer.RunCFSweep(req.Providers, req.MarketRows, req.Settings, optimizer.SweepOptions{
		CFPercentiles:   req.CFPercentiles,
		Synonyms:        req.Synonyms,
		SpecialtyFilter: req.SpecialtyFilter,
	})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// StartOptimizeJob launches a background optimization run.
func (h *Handler) StartOptimizeJob(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Providers) == 0 {
		h.writeError(w, http.StatusBadRequest, "providers is required")
		return
	}
	if len(req.MarketRows) == 0 {
		h.writeError(w, http.StatusBadRequest, "marketRows is required")
		return
	}

	view := h.Jobs.Start(req)
	h.writeJSON(w, http.StatusAccepted, view)
}

// ListOptimizeJobs returns all known jobs.
func (h *Handler) ListOptimizeJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Jobs.List())
}

// GetOptimizeJob returns one job's status, progress, and result.
func (h *Handler) GetOptimizeJob(w http.ResponseWriter, r *http.Request) {
	view, err := h.Jobs.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrJobNotFound) {
		h.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// CancelOptimizeJob requests cancellation of a running job.
func (h *Handler) CancelOptimizeJob(w http.ResponseWriter, r *http.Request) {
	view, err := h.Jobs.Cancel(chi.URLParam(r, "id"))
	if errors.Is(err, ErrJobNotFound) {
		h.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ListRuns lists archived runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	metas, err := h.Store.ListRuns(r.Context())
	if err != nil {
		h.serverError(w, "listing runs", err)
		return
	}
	h.writeJSON(w, http.StatusOK, metas)
}

// GetRun returns one archived run in full.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.serverError(w, "loading run", err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// DeleteRun removes an archived run.
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.serverError(w, "deleting run", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompareRuns diffs 2-4 archived runs.
func (h *Handler) CompareRuns(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !h.decode(w, r, &req) {
		return
	}

	inputs := make([]compare.RunInput, 0, len(req.RunIDs))
	for i, id := range req.RunIDs {
		run, err := h.Store.GetRun(r.Context(), id)
		if errors.Is(err, store.ErrRunNotFound) {
			h.writeError(w, http.StatusNotFound, "run not found: "+id)
			return
		}
		if err != nil {
			h.serverError(w, "loading run", err)
			return
		}
		in := compare.RunInput{Run: run}
		if i < len(req.Labels) {
			in.Label = req.Labels[i]
		}
		inputs = append(inputs, in)
	}

	result, err := compare.CompareRuns(inputs)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, CompareResponse{Comparison: result})
}

func (h *Handler) resolveGlobals(override *engine.Globals) engine.Globals {
	if override != nil {
		return *override
	}
	return h.Globals
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) serverError(w http.ResponseWriter, action string, err error) {
	h.Logger.Error(action, zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal error")
}
