package service

import "sync"

// JobRegistry is the in-memory single-flight guard: at most one worker
// drains a given job per process. It is not durable; the sending lease on
// recipient rows damps the residual cross-restart race.
type JobRegistry struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{running: make(map[string]struct{})}
}

// Acquire reports whether the caller now owns the job.
func (r *JobRegistry) Acquire(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[jobID]; ok {
		return false
	}

	r.running[jobID] = struct{}{}
	return true
}

func (r *JobRegistry) Release(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, jobID)
}

func (r *JobRegistry) Running(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.running[jobID]
	return ok
}
