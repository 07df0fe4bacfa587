package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swasthya-ai/backend/internal/model/triage"
)

// ConditionRepository looks up first-aid condition records by exact title.
// The boolean reports whether a record was found; absence is not an error.
type ConditionRepository interface {
	FindByTitle(ctx context.Context, title string) (triage.ConditionRecord, bool, error)
}

// PgConditionRepository reads conditions from PostgreSQL.
type PgConditionRepository struct {
	pool *pgxpool.Pool
}

// NewPgConditionRepository wraps a pgx pool.
func NewPgConditionRepository(pool *pgxpool.Pool) *PgConditionRepository {
	return &PgConditionRepository{pool: pool}
}

// FindByTitle returns the first record whose title equals the argument.
// When several records share a title, insertion order wins: the query is
// pinned to ORDER BY position, id so the result is deterministic.
func (r *PgConditionRepository) FindByTitle(ctx context.Context, title string) (triage.ConditionRecord, bool, error) {
	const query = `
		SELECT id, title, symptoms
		FROM conditions
		WHERE title = $1
		ORDER BY position, id
		LIMIT 1
	`

	var record triage.ConditionRecord
	err := r.pool.QueryRow(ctx, query, title).Scan(&record.ID, &record.Title, &record.Symptoms)
	if errors.Is(err, pgx.ErrNoRows) {
		return triage.ConditionRecord{}, false, nil
	}
	if err != nil {
		return triage.ConditionRecord{}, false, err
	}
	return record, true, nil
}
