package repository

import (
	"context"

	"github.com/swasthya-ai/backend/internal/model/triage"
)

// MemoryConditionRepository implements ConditionRepository over a slice.
// It backs tests and the no-database deployment mode.
type MemoryConditionRepository struct {
	items []triage.ConditionRecord
}

// NewMemoryConditionRepository returns a repository preloaded with records.
func NewMemoryConditionRepository(items []triage.ConditionRecord) *MemoryConditionRepository {
	return &MemoryConditionRepository{items: append([]triage.ConditionRecord(nil), items...)}
}

// FindByTitle returns the first record with a matching title, in insertion
// order, mirroring the pinned ordering of the SQL repository.
func (r *MemoryConditionRepository) FindByTitle(_ context.Context, title string) (triage.ConditionRecord, bool, error) {
	for _, item := range r.items {
		if item.Title == title {
			return item, true, nil
		}
	}
	return triage.ConditionRecord{}, false, nil
}
