package pg

import (
	"context"
	"fmt"

	"bazaar-dashboard/internal/domain"
)

type historyRepository struct {
	db DBTX
	tx domain.TransactionManager
}

// NewHistoryRepository stores settled optimistic transitions in transition_history.
func NewHistoryRepository(db DBTX, tx domain.TransactionManager) domain.TransitionRecorder {
	return &historyRepository{db: db, tx: tx}
}

const insertTransition = `
INSERT INTO transition_history (entity, entity_id, from_state, to_state, outcome, reason, actor_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *historyRepository) Record(ctx context.Context, rec domain.TransitionRecord) error {
	_, err := conn(ctx, r.db).Exec(ctx, insertTransition,
		string(rec.Entity), rec.EntityID, string(rec.From), string(rec.To),
		rec.Outcome, rec.Reason, rec.ActorID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record transition %s/%s: %w", rec.Entity, rec.EntityID, err)
	}
	return nil
}

// RecordBatch writes all records or none.
func (r *historyRepository) RecordBatch(ctx context.Context, recs []domain.TransitionRecord) error {
	return r.tx.Do(ctx, func(txCtx context.Context) error {
		for _, rec := range recs {
			if err := r.Record(txCtx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *historyRepository) ListByEntity(ctx context.Context, entity domain.EntityType, entityID string) ([]domain.TransitionRecord, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
SELECT id, entity, entity_id, from_state, to_state, outcome, reason, actor_id, created_at
FROM transition_history
WHERE entity = $1 AND entity_id = $2
ORDER BY created_at, id`, string(entity), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TransitionRecord
	for rows.Next() {
		var (
			rec           domain.TransitionRecord
			ent, from, to string
		)
		if err := rows.Scan(&rec.ID, &ent, &rec.EntityID, &from, &to, &rec.Outcome, &rec.Reason, &rec.ActorID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Entity = domain.EntityType(ent)
		rec.From = domain.Status(from)
		rec.To = domain.Status(to)
		out = append(out, rec)
	}
	return out, rows.Err()
}
