/*
jobs.go - Background optimization jobs

PURPOSE:
  Optimization over a large roster can take a while, so the API runs it
  off the request goroutine. Each job gets its own cancellable context
  and a mutex-guarded progress snapshot the status endpoint can read
  while the run is in flight. Completed runs are archived to the store.

LIFECYCLE:
  running -> completed | failed | cancelled

  Cancellation is cooperative: the optimizer checks its context between
  specialties, so a cancel lands at the next specialty boundary.
*/
package api

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/optimizer"
	"github.com/warp/comp-engine/store"
)

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

type job struct {
	id        string
	cancel    context.CancelFunc
	startedAt time.Time

	mu       sync.Mutex
	status   JobStatus
	progress JobProgress
	endedAt  *time.Time
	err      error
	result   *optimizer.RunResult
}

func (j *job) view() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := JobView{
		JobID:     j.id,
		Status:    j.status,
		Progress:  j.progress,
		StartedAt: j.startedAt,
		EndedAt:   j.endedAt,
		Result:    j.result,
	}
	if j.err != nil {
		v.Error = j.err.Error()
	}
	return v
}

// JobManager owns the background optimization jobs.
type JobManager struct {
	store  store.RunStore
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewJobManager creates a manager that archives completed runs to the
// given store.
func NewJobManager(runStore store.RunStore, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobManager{
		store:  runStore,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Start launches an optimization job and returns its initial view.
func (m *JobManager) Start(req OptimizeRequest) JobView {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:        uuid.NewString(),
		cancel:    cancel,
		startedAt: time.Now().UTC(),
		status:    JobRunning,
	}

	m.mu.Lock()
	m.jobs[j.id] = j
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, j, req)

	return j.view()
}

func (m *JobManager) run(ctx context.Context, j *job, req OptimizeRequest) {
	defer m.wg.Done()

	opts := optimizer.RunOptions{
		ScenarioID:      req.ScenarioID,
		ScenarioName:    req.ScenarioName,
		Synonyms:        req.Synonyms,
		SpecialtyFilter: req.SpecialtyFilter,
		Logger:          m.logger,
		OnProgress: func(done, total int, specialty string) {
			j.mu.Lock()
			j.progress = JobProgress{Done: done, Total: total, Specialty: specialty}
			j.mu.Unlock()
		},
	}

	result, err := optimizer.RunAllSpecialties(ctx, req.Providers, req.MarketRows, req.Settings, opts)

	now := time.Now().UTC()
	j.mu.Lock()
	j.endedAt = &now
	switch {
	case ctx.Err() != nil:
		j.status = JobCancelled
		j.err = ctx.Err()
	case err != nil:
		j.status = JobFailed
		j.err = err
	default:
		j.status = JobCompleted
		j.result = result
	}
	status := j.status
	j.mu.Unlock()

	if status == JobCompleted && m.store != nil {
		if saveErr := m.store.SaveRun(context.Background(), result); saveErr != nil {
			m.logger.Error("archiving run failed",
				zap.String("jobId", j.id),
				zap.String("runId", result.RunID),
				zap.Error(saveErr))
		}
	}
	m.logger.Info("optimization job finished",
		zap.String("jobId", j.id),
		zap.String("status", string(status)))
}

// Get returns the current view of a job.
func (m *JobManager) Get(jobID string) (JobView, error) {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok {
		return JobView{}, ErrJobNotFound
	}
	return j.view(), nil
}

// Cancel requests cooperative cancellation of a running job.
func (m *JobManager) Cancel(jobID string) (JobView, error) {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok {
		return JobView{}, ErrJobNotFound
	}
	j.cancel()
	return j.view(), nil
}

// List returns views of all known jobs, newest first.
func (m *JobManager) List() []JobView {
	m.mu.Lock()
	jobs := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, j.view())
	}
	// Newest first; IDs break ties so output is stable.
	sort.Slice(views, func(i, k int) bool {
		if !views[i].StartedAt.Equal(views[k].StartedAt) {
			return views[i].StartedAt.After(views[k].StartedAt)
		}
		return views[i].JobID < views[k].JobID
	})
	return views
}

// Shutdown waits for in-flight jobs after cancelling them.
func (m *JobManager) Shutdown() {
	m.mu.Lock()
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
