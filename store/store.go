/*
Package store archives completed optimizer runs.

PURPOSE:
  Persistence for finished run results so they can be listed, reloaded,
  and compared later. Three backends implement the same interface:

    memory   - in-process, for tests and the default server mode
    sqlite   - single-file archive for local deployments
    postgres - shared archive for multi-user deployments

  Runs are stored as JSON documents keyed by run ID. The calculation
  packages never touch this layer; only the API and CLI do.
*/
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/warp/comp-engine/optimizer"
)

// ErrRunNotFound is returned when a run ID does not exist in the archive.
var ErrRunNotFound = errors.New("run not found")

// RunMeta is the listing view of an archived run.
type RunMeta struct {
	RunID          string    `json:"runId"`
	ScenarioName   string    `json:"scenarioName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	SpecialtyCount int       `json:"specialtyCount"`
	SpendImpact    float64   `json:"spendImpact"`
}

// RunStore archives completed optimizer runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *optimizer.RunResult) error
	GetRun(ctx context.Context, runID string) (*optimizer.RunResult, error)
	ListRuns(ctx context.Context) ([]RunMeta, error)
	DeleteRun(ctx context.Context, runID string) error
	Close() error
}

// MemoryStore is the in-process RunStore. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*optimizer.RunResult
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*optimizer.RunResult)}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *optimizer.RunResult) error {
	if run == nil || run.RunID == "" {
		return errors.New("run must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.runs[run.RunID] = &copied
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*optimizer.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]RunMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metas := make([]RunMeta, 0, len(s.runs))
	for _, run := range s.runs {
		metas = append(metas, metaOf(run))
	}
	sortMetas(metas)
	return metas, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		return ErrRunNotFound
	}
	delete(s.runs, runID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func metaOf(run *optimizer.RunResult) RunMeta {
	return RunMeta{
		RunID:          run.RunID,
		ScenarioName:   run.ScenarioName,
		CreatedAt:      run.CreatedAt,
		SpecialtyCount: len(run.Specialties),
		SpendImpact:    run.Totals.SpendImpact,
	}
}

// sortMetas orders newest first, run ID as tiebreaker for stable output.
func sortMetas(metas []RunMeta) {
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.After(metas[j].CreatedAt)
		}
		return metas[i].RunID < metas[j].RunID
	})
}
