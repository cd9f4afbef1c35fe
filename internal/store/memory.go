package store

import (
	"context"
	"sync"

	"catalog-service/internal/ingest"
)

// MemoryStore is the in-memory ProductStore. It serializes its own
// mutations; callers never coordinate access.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]ingest.Record
	order    []string // insertion order of ids, for stable listings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]ingest.Record),
	}
}

// UploadProducts merges one upload's full record sequence into the
// collection. Later records win when an upload repeats an id.
func (s *MemoryStore) UploadProducts(ctx context.Context, records []ingest.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		if _, exists := s.products[record.ID]; !exists {
			s.order = append(s.order, record.ID)
		}
		s.products[record.ID] = record
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]ingest.Record, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]ingest.Record, 0, len(s.order))
	for _, id := range s.order {
		record := s.products[id]
		if opts.Category != "" && record.Category != opts.Category {
			continue
		}
		filtered = append(filtered, record)
	}

	total := int64(len(filtered))

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}

	start := (page - 1) * limit
	if start >= len(filtered) {
		return []ingest.Record{}, total, nil
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], total, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*ingest.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &record, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

// All returns every record in insertion order. Used for catalog-wide
// aggregation.
func (s *MemoryStore) All(ctx context.Context) ([]ingest.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ingest.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.products[id])
	}
	return records, nil
}
