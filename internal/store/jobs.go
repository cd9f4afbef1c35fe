package store

import (
	"context"
	"sync"

	"catalog-service/internal/models"
)

// MemoryJobStore tracks upload jobs in process memory. It is the
// fallback when Redis is unavailable; job history then lives only as
// long as the process.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.UploadJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]models.UploadJob),
	}
}

func (s *MemoryJobStore) SaveJob(ctx context.Context, job *models.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryJobStore) GetJob(ctx context.Context, id string) (*models.UploadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}
	return &job, nil
}
