package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tendant/simple-upload/pkg/simpleupload/repo"
)

// Repository implements repo.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*repo.PresignRecord
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		records: make(map[uuid.UUID]*repo.PresignRecord),
	}
}

func (r *Repository) RecordPresign(ctx context.Context, record *repo.PresignRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records[record.ID] = clone(record)
	return nil
}

func (r *Repository) GetPresign(ctx context.Context, id uuid.UUID) (*repo.PresignRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, repo.ErrRecordNotFound
	}
	return clone(record), nil
}

func (r *Repository) ListPresigns(ctx context.Context, filter repo.ListFilter) ([]*repo.PresignRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*repo.PresignRecord
	for _, record := range r.records {
		if filter.Match(record) {
			result = append(result, clone(record))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*repo.PresignRecord{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Len returns the number of stored records
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// clone prevents callers from mutating stored records
func clone(record *repo.PresignRecord) *repo.PresignRecord {
	c := *record
	if record.Errors != nil {
		c.Errors = make(map[string][]string, len(record.Errors))
		for field, msgs := range record.Errors {
			c.Errors[field] = append([]string(nil), msgs...)
		}
	}
	if record.ExpiresAt != nil {
		t := *record.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

var _ repo.Repository = (*Repository)(nil)
