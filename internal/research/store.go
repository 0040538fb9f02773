package research

import (
	"errors"
	"fmt"
	"sync"

	"github.com/articleforge/articleforge/pkg/models"
)

var (
	// ErrNotFound means the job ID is unknown to the store. Distinct from
	// ErrNotReady so callers can tell a bad ID from an in-flight job.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the job exists but has not reached a terminal state.
	ErrNotReady = errors.New("job not complete")
	// ErrTerminal means a mutation targeted a job already in a terminal state.
	ErrTerminal = errors.New("job already in a terminal state")
	// ErrJobFailed wraps the captured upstream error when a result is
	// requested for a failed job.
	ErrJobFailed = errors.New("job failed")
)

// Store is the job registry interface. All job state goes through here.
// Implementations must be safe for concurrent use.
type Store interface {
	Create(job *models.Job) error
	Get(id string) (models.Job, error)
	MarkRunning(id string) error
	SetProgress(id string, progress int, message string) error
	Complete(id string, result *models.ResearchResult, savedTo string) error
	Fail(id string, message string) error
}

// MemoryStore is a mutex-guarded in-memory job registry. It is created at
// process start and lives for the process lifetime; retention beyond that is
// the operator's concern.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Create(job *models.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("duplicate job id %s", job.ID)
	}
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get returns a copy of the job so readers never observe a partial write.
func (s *MemoryStore) Get(id string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return *job, nil
}

func (s *MemoryStore) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}
	job.Status = models.JobStatusRunning
	return nil
}

// SetProgress updates the advisory progress fields. It is a no-op on a
// terminal job so a straggling runner update cannot resurrect one.
func (s *MemoryStore) SetProgress(id string, progress int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return nil
	}
	job.Progress = progress
	job.Message = message
	return nil
}

func (s *MemoryStore) Complete(id string, result *models.ResearchResult, savedTo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}
	job.Status = models.JobStatusComplete
	job.Progress = 100
	job.Message = "Research complete"
	job.Result = result
	job.SavedTo = savedTo
	return nil
}

func (s *MemoryStore) Fail(id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Terminal() {
		return ErrTerminal
	}
	job.Status = models.JobStatusFailed
	job.Message = "Research failed: " + message
	job.Error = message
	return nil
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
