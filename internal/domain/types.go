package domain

import (
	"context"
	"time"
)

// --- Shared Custom Types ---

// Entity is anything the optimistic store can hold.
type Entity interface {
	EntityID() string
	EntityState() Status
	EntityKind() EntityType
}

// TransactionManager runs fn inside a single database transaction.
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transition outcomes recorded in the history table.
const (
	OutcomeConfirmed  = "confirmed"
	OutcomeRolledBack = "rolled_back"
)

// TransitionRecord is one settled optimistic change.
type TransitionRecord struct {
	ID        int64      `json:"id"`
	Entity    EntityType `json:"entity"`
	EntityID  string     `json:"entityId"`
	From      Status     `json:"from"`
	To        Status     `json:"to"`
	Outcome   string     `json:"outcome"`
	Reason    *string    `json:"reason"`
	ActorID   *string    `json:"actorId"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TransitionRecorder persists settled transitions.
type TransitionRecorder interface {
	Record(ctx context.Context, rec TransitionRecord) error
	RecordBatch(ctx context.Context, recs []TransitionRecord) error
	ListByEntity(ctx context.Context, entity EntityType, entityID string) ([]TransitionRecord, error)
}

// StateBackend stores opaque client-state blobs (cart, address book).
// Get returns ErrNotFound for a missing key.
type StateBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pagination
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination fills TotalPages from the item count.
func NewPagination(page, limit int, total int64) Pagination {
	p := Pagination{Page: page, Limit: limit, TotalItems: total}
	if limit > 0 {
		p.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return p
}

// Response standardizes API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}
