package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"
	"bazaar-dashboard/pkg/report"
	"bazaar-dashboard/pkg/utils"
)

// Validator decides whether next may replace prior.
type Validator[T domain.Entity] func(prior, next T) error

// BatchItem is the server's per-id verdict in a batch call. Entity may be nil
// when the server accepted the change without echoing the record.
type BatchItem[T domain.Entity] struct {
	Entity *T
	Err    error
}

type pendingOp[T domain.Entity] struct {
	prior    T
	proposed T
	existed  bool
	removed  bool
	index    int
	started  time.Time
}

// Store is the optimistic cache of one entity family. Entries are keyed by id
// and keep their first-seen order. A side table holds the single in-flight
// operation each entity may have, with the snapshot needed to undo it.
type Store[T domain.Entity] struct {
	mu       sync.Mutex
	kind     domain.EntityType
	ids      []string
	entries  map[string]T
	pending  map[string]*pendingOp[T]
	counts   map[domain.Status]int
	validate Validator[T]

	// gen counts confirmations; settled holds the generation each entry was
	// last confirmed at so Replace can tell late confirmations from stale ones.
	gen     uint64
	settled map[string]uint64

	recorder domain.TransitionRecorder
	timeout  time.Duration
}

// NewStore builds an empty store. recorder may be nil. timeout bounds each
// upstream reconciliation call; zero means no bound beyond the caller's.
func NewStore[T domain.Entity](kind domain.EntityType, validate Validator[T], recorder domain.TransitionRecorder, timeout time.Duration) *Store[T] {
	return &Store[T]{
		kind:     kind,
		entries:  make(map[string]T),
		pending:  make(map[string]*pendingOp[T]),
		counts:   make(map[domain.Status]int),
		settled:  make(map[string]uint64),
		validate: validate,
		recorder: recorder,
		timeout:  timeout,
	}
}

// --- Read side ---

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// List returns the current (authoritative + optimistic) collection.
func (s *Store[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Filter returns the entries matching keep, in store order.
func (s *Store[T]) Filter(keep func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0)
	for _, id := range s.ids {
		if e := s.entries[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the per-status totals derived on the last mutation.
func (s *Store[T]) Counts() map[domain.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Status]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Pending reports whether id has an operation in flight.
func (s *Store[T]) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Load merges freshly fetched records. Entries with an operation in flight keep
// their optimistic value.
func (s *Store[T]) Load(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(items)
	s.refreshLocked()
}

// Generation marks a point in the confirmation history. Take it before fetching
// and hand it to Replace.
func (s *Store[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Replace loads items as the complete server view of scope: entries in scope
// that the fetch no longer returns are dropped. Entries with an operation in
// flight, optimistic inserts and entries confirmed after since are kept, since
// the fetch may predate them.
func (s *Store[T]) Replace(scope func(T) bool, items []T, since uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(items)

	fetched := make(map[string]bool, len(items))
	for _, item := range items {
		fetched[item.EntityID()] = true
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		_, busy := s.pending[id]
		stale := !fetched[id] && !busy && !utils.IsTempID(id) && s.settled[id] <= since && scope(s.entries[id])
		if stale {
			delete(s.entries, id)
			delete(s.settled, id)
			continue
		}
		kept = append(kept, id)
	}
	s.ids = kept
	s.refreshLocked()
}

func (s *Store[T]) loadLocked(items []T) {
	for _, item := range items {
		id := item.EntityID()
		if id == "" {
			continue
		}
		if _, busy := s.pending[id]; busy {
			continue
		}
		if _, ok := s.entries[id]; !ok {
			s.ids = append(s.ids, id)
		}
		s.entries[id] = item
	}
}

// --- Optimistic mutations ---

// Apply validates proposed against the current entry and installs it. It
// returns the prior value for a later Rollback.
func (s *Store[T]) Apply(id string, proposed T) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[id]; busy {
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrConflictingUpdate)
	}
	cur, ok := s.entries[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrNotFound)
	}
	if proposed.EntityID() != id {
		return zero, domain.NewValidationError("id", "proposed entity id does not match")
	}
	if err := s.validate(cur, proposed); err != nil {
		return zero, err
	}

	s.pending[id] = &pendingOp[T]{prior: cur, proposed: proposed, existed: true, started: time.Now()}
	s.entries[id] = proposed
	s.refreshLocked()
	return cur, nil
}

// Insert adds an entity that the server has not confirmed yet.
func (s *Store[T]) Insert(proposed T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := proposed.EntityID()
	if id == "" {
		return domain.NewValidationError("id", "optimistic entity needs a temporary id")
	}
	if _, busy := s.pending[id]; busy {
		return fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrConflictingUpdate)
	}
	if _, ok := s.entries[id]; ok {
		return domain.NewValidationError("id", "entity already exists")
	}
	if err := domain.ValidateTransition(s.kind, domain.StatusNone, proposed.EntityState()); err != nil {
		return err
	}

	s.pending[id] = &pendingOp[T]{proposed: proposed, started: time.Now()}
	s.ids = append(s.ids, id)
	s.entries[id] = proposed
	s.refreshLocked()
	return nil
}

// Remove takes an entity out of the collection pending server confirmation.
func (s *Store[T]) Remove(id string) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[id]; busy {
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrConflictingUpdate)
	}
	cur, ok := s.entries[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrNotFound)
	}
	idx := s.indexLocked(id)
	s.pending[id] = &pendingOp[T]{prior: cur, existed: true, removed: true, index: idx, started: time.Now()}
	s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
	delete(s.entries, id)
	s.refreshLocked()
	return cur, nil
}

// Confirm replaces the entry with the server's record verbatim. When the server
// assigned a new id to an optimistic insert the entry is re-keyed in place.
func (s *Store[T]) Confirm(id string, server T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, id)
	newID := server.EntityID()
	if newID == "" {
		newID = id
	}

	idx := s.indexLocked(id)
	switch {
	case idx < 0:
		if s.indexLocked(newID) < 0 {
			s.ids = append(s.ids, newID)
		}
	case newID != id:
		if dup := s.indexLocked(newID); dup >= 0 {
			s.ids = append(s.ids[:dup], s.ids[dup+1:]...)
			idx = s.indexLocked(id)
		}
		s.ids[idx] = newID
		delete(s.entries, id)
		delete(s.settled, id)
	}
	s.entries[newID] = server
	s.gen++
	s.settled[newID] = s.gen
	s.refreshLocked()
}

// ConfirmRemoved finalises a Remove.
func (s *Store[T]) ConfirmRemoved(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	delete(s.settled, id)
	s.refreshLocked()
}

// Rollback restores id to prior (or undoes an optimistic insert or remove) and
// hands cause back to the caller. Other entries are left alone.
func (s *Store[T]) Rollback(id string, prior T, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := s.pending[id]
	delete(s.pending, id)

	switch {
	case op != nil && !op.existed:
		if idx := s.indexLocked(id); idx >= 0 {
			s.ids = append(s.ids[:idx], s.ids[idx+1:]...)
		}
		delete(s.entries, id)
	case op != nil && op.removed:
		idx := op.index
		if idx > len(s.ids) {
			idx = len(s.ids)
		}
		s.ids = append(s.ids, "")
		copy(s.ids[idx+1:], s.ids[idx:])
		s.ids[idx] = id
		s.entries[id] = prior
	default:
		if _, ok := s.entries[id]; ok {
			s.entries[id] = prior
		}
	}
	s.refreshLocked()
	return cause
}

// --- Full reconciliation cycles ---

// Run applies proposed, performs call and settles the outcome: the server's
// record on success, the prior value on any failure. call runs on a context
// that outlives the caller's cancellation so the entity is always reconciled.
func (s *Store[T]) Run(ctx context.Context, id string, proposed T, call func(ctx context.Context) (T, error)) (T, error) {
	prior, err := s.Apply(id, proposed)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.Settle(ctx, id, prior, proposed, call)
}

// RunInsert is Run for an entity that does not exist yet.
func (s *Store[T]) RunInsert(ctx context.Context, proposed T, call func(ctx context.Context) (T, error)) (T, error) {
	if err := s.Insert(proposed); err != nil {
		var zero T
		return zero, err
	}
	var prior T
	return s.Settle(ctx, proposed.EntityID(), prior, proposed, call)
}

// RunRemove is Run for a deletion.
func (s *Store[T]) RunRemove(ctx context.Context, id string, call func(ctx context.Context) error) error {
	prior, err := s.Remove(id)
	if err != nil {
		return err
	}
	callCtx, cancel := s.detach(ctx)
	defer cancel()
	defer s.rollbackOnPanic(callCtx, id, prior, prior.EntityState(), domain.StatusNone)

	if err := call(callCtx); err != nil {
		s.record(callCtx, id, prior.EntityState(), domain.StatusNone, domain.OutcomeRolledBack, err)
		return s.Rollback(id, prior, err)
	}
	s.ConfirmRemoved(id)
	s.record(callCtx, id, prior.EntityState(), domain.StatusNone, domain.OutcomeConfirmed, nil)
	return nil
}

// Settle finishes an operation already installed with Apply or Insert.
func (s *Store[T]) Settle(ctx context.Context, id string, prior, proposed T, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	callCtx, cancel := s.detach(ctx)
	defer cancel()
	defer s.rollbackOnPanic(callCtx, id, prior, prior.EntityState(), proposed.EntityState())

	server, err := call(callCtx)
	if err != nil {
		s.record(callCtx, id, prior.EntityState(), proposed.EntityState(), domain.OutcomeRolledBack, err)
		return zero, s.Rollback(id, prior, err)
	}
	s.Confirm(id, server)
	s.record(callCtx, server.EntityID(), prior.EntityState(), server.EntityState(), domain.OutcomeConfirmed, nil)
	return server, nil
}

// ApplyBatch moves every id together: either all proposals pass validation and
// are installed, or nothing changes. Every item must change state; a proposal
// that leaves an item where it is fails like any other illegal transition.
func (s *Store[T]) ApplyBatch(ids []string, propose func(T) T) (map[string]T, map[string]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	priors := make(map[string]T, len(ids))
	proposals := make(map[string]T, len(ids))
	for _, id := range ids {
		if _, seen := priors[id]; seen {
			continue
		}
		if _, busy := s.pending[id]; busy {
			return nil, nil, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrConflictingUpdate)
		}
		cur, ok := s.entries[id]
		if !ok {
			return nil, nil, fmt.Errorf("%s %s: %w", s.kind, id, domain.ErrNotFound)
		}
		next := propose(cur)
		if err := requireMove(s.kind, cur.EntityState(), next.EntityState()); err != nil {
			return nil, nil, fmt.Errorf("%s %s: %w", s.kind, id, err)
		}
		if err := s.validate(cur, next); err != nil {
			return nil, nil, fmt.Errorf("%s %s: %w", s.kind, id, err)
		}
		priors[id] = cur
		proposals[id] = next
	}

	now := time.Now()
	for id, next := range proposals {
		s.pending[id] = &pendingOp[T]{prior: priors[id], proposed: next, existed: true, started: now}
		s.entries[id] = next
	}
	s.refreshLocked()
	return priors, proposals, nil
}

// RunBatch applies propose to every id, calls the server once and then trusts
// its per-item verdict: accepted items are committed, rejected or missing ones
// roll back. A *domain.PartialFailureError lists the failures.
func (s *Store[T]) RunBatch(ctx context.Context, ids []string, propose func(T) T, call func(ctx context.Context) (map[string]BatchItem[T], error)) ([]T, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("ids", "at least one id is required")
	}
	priors, proposals, err := s.ApplyBatch(ids, propose)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.detach(ctx)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			for _, id := range ids {
				if s.Pending(id) {
					s.Rollback(id, priors[id], fmt.Errorf("panic: %v", r))
				}
			}
			panic(r)
		}
	}()

	results, err := call(callCtx)
	recs := make([]domain.TransitionRecord, 0, len(ids))
	if err != nil {
		for _, id := range ids {
			s.Rollback(id, priors[id], err)
			recs = append(recs, s.entry(callCtx, id, priors[id].EntityState(), proposals[id].EntityState(), domain.OutcomeRolledBack, err))
		}
		s.recordAll(callCtx, recs)
		return nil, err
	}

	confirmed := make([]T, 0, len(ids))
	partial := &domain.PartialFailureError{Entity: s.kind, Failed: make(map[string]error)}
	for _, id := range ids {
		res, ok := results[id]
		switch {
		case !ok:
			partial.Failed[id] = errors.New("no result from server")
		case res.Err != nil:
			partial.Failed[id] = res.Err
		default:
			server := proposals[id]
			if res.Entity != nil {
				server = *res.Entity
			}
			s.Confirm(id, server)
			confirmed = append(confirmed, server)
			partial.Confirmed = append(partial.Confirmed, id)
			recs = append(recs, s.entry(callCtx, id, priors[id].EntityState(), server.EntityState(), domain.OutcomeConfirmed, nil))
			continue
		}
		s.Rollback(id, priors[id], partial.Failed[id])
		recs = append(recs, s.entry(callCtx, id, priors[id].EntityState(), proposals[id].EntityState(), domain.OutcomeRolledBack, partial.Failed[id]))
	}
	s.recordAll(callCtx, recs)

	if len(partial.Failed) > 0 {
		return confirmed, partial
	}
	return confirmed, nil
}

// --- internals ---

func (s *Store[T]) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(base, s.timeout)
	}
	return context.WithCancel(base)
}

func (s *Store[T]) rollbackOnPanic(ctx context.Context, id string, prior T, from, to domain.Status) {
	if r := recover(); r != nil {
		cause := fmt.Errorf("panic: %v", r)
		s.Rollback(id, prior, cause)
		s.record(ctx, id, from, to, domain.OutcomeRolledBack, cause)
		panic(r)
	}
}

func (s *Store[T]) record(ctx context.Context, id string, from, to domain.Status, outcome string, cause error) {
	rec := s.entry(ctx, id, from, to, outcome, cause)
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		logger.WithContext(ctx).Error().Err(err).Str("entity_id", id).Msg("Failed to record transition history")
	}
}

// recordAll persists a batch outcome in one write.
func (s *Store[T]) recordAll(ctx context.Context, recs []domain.TransitionRecord) {
	if s.recorder == nil || len(recs) == 0 {
		return
	}
	if err := s.recorder.RecordBatch(ctx, recs); err != nil {
		logger.WithContext(ctx).Error().Err(err).Int("count", len(recs)).Msg("Failed to record transition history")
	}
}

// entry logs one settled op and builds its history record.
func (s *Store[T]) entry(ctx context.Context, id string, from, to domain.Status, outcome string, cause error) domain.TransitionRecord {
	logger.Transition(ctx, string(s.kind), id, string(from), string(to), outcome, cause)

	rec := domain.TransitionRecord{
		Entity:    s.kind,
		EntityID:  id,
		From:      from,
		To:        to,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if cause != nil {
		msg := cause.Error()
		rec.Reason = &msg
	}
	if user, ok := ctx.Value(domain.UserContextKey).(*domain.User); ok && user != nil {
		rec.ActorID = &user.ID
	}
	return rec
}

func (s *Store[T]) listLocked() []T {
	out := make([]T, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.entries[id])
	}
	return out
}

func (s *Store[T]) indexLocked(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// refreshLocked re-derives the status counts from the whole collection.
func (s *Store[T]) refreshLocked() {
	s.counts = report.CountBy(s.listLocked(), func(e T) domain.Status { return e.EntityState() })
}

// completeListing reports whether an admin page holds the whole unfiltered
// collection, so it can replace the cache rather than merge into it.
func completeListing(status, search string, got int, total int64) bool {
	return status == "" && search == "" && int64(got) >= total
}

// requireMove rejects a status change that leaves the entity where it is.
// Flag-only edits (cancel requests, refunds, shipments) do not go through it.
func requireMove(kind domain.EntityType, from, to domain.Status) error {
	if from != to {
		return nil
	}
	return domain.ValidateTransition(kind, from, to)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
