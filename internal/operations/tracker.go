// Package operations tracks long-running background work such as dialogue
// generation and audio synthesis. A caller starts an operation, receives the
// id immediately, and polls Get until the status is terminal. The work itself
// runs to completion whether or not anyone is still polling.
package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/models"
)

var (
	// ErrNotFound distinguishes an unknown operation id from one that is
	// still processing.
	ErrNotFound = errors.NewSentinel("operation not found")
	// ErrTerminal rejects updates to operations that already completed or failed.
	ErrTerminal = errors.NewSentinel("operation is terminal")
)

// Retention bounds the registry's memory: records older than this are swept
// regardless of status.
const Retention = time.Hour

const (
	initialProgress = 10
	maxProgress     = 100
)

// Store persists operation records. The in-memory implementation suffices for
// a single process; the interface exists so the tracker can be unit-tested
// and backed by an external key-value store later.
type Store interface {
	Put(op models.Operation)
	Get(id string) (models.Operation, bool)
	Delete(id string)
	All() []models.Operation
}

// MemoryStore is a mutex-guarded map of operations.
type MemoryStore struct {
	mu  sync.RWMutex
	ops map[string]models.Operation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ops: make(map[string]models.Operation),
	}
}

func (s *MemoryStore) Put(op models.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.ID] = op
}

func (s *MemoryStore) Get(id string) (models.Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[id]
	return op, ok
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, id)
}

func (s *MemoryStore) All() []models.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.Operation, 0, len(s.ops))
	for _, op := range s.ops {
		all = append(all, op)
	}
	return all
}

// Update carries the partial mutation applied by workers. Nil fields leave
// the existing value untouched.
type Update struct {
	Progress *int
	Message  *string
	Status   *models.OperationStatus
	Result   any
	Error    *string
}

type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes the tracker, mainly for injecting a clock in tests.
type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(store Store, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: logger.With("source", "operations.Tracker"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create registers a new operation in processing state and returns its id.
func (t *Tracker) Create(opType models.OperationType, message string) string {
	op := models.Operation{
		ID:        uuid.NewString(),
		Type:      opType,
		Status:    models.OperationStatusProcessing,
		Progress:  initialProgress,
		Message:   message,
		StartTime: t.now(),
	}
	t.store.Put(op)
	return op.ID
}

// Update applies a partial mutation to the operation. Progress never moves
// backwards while processing and is capped at 100. Transitioning to a
// terminal status stamps EndTime; any update after that is rejected with
// ErrTerminal.
func (t *Tracker) Update(id string, update Update) error {
	op, ok := t.store.Get(id)
	if !ok {
		return errors.Wrap(ErrNotFound, "update operation", slog.String("operation_id", id))
	}
	if op.Status.Terminal() {
		return errors.Wrap(ErrTerminal, "update operation", slog.String("operation_id", id))
	}

	if update.Progress != nil && *update.Progress > op.Progress {
		op.Progress = min(*update.Progress, maxProgress)
	}
	if update.Message != nil {
		op.Message = *update.Message
	}
	if update.Result != nil {
		op.Result = update.Result
	}
	if update.Error != nil {
		op.Error = *update.Error
	}
	if update.Status != nil {
		op.Status = *update.Status
		if op.Status.Terminal() {
			endTime := t.now()
			op.EndTime = &endTime
		}
	}

	t.store.Put(op)
	return nil
}

// Complete is a convenience for the final successful update.
func (t *Tracker) Complete(id string, message string, result any) error {
	status := models.OperationStatusCompleted
	progress := 100
	return t.Update(id, Update{
		Progress: &progress,
		Message:  &message,
		Status:   &status,
		Result:   result,
	})
}

// Fail marks the operation failed with a human-readable error message.
func (t *Tracker) Fail(id string, errMessage string) error {
	status := models.OperationStatusFailed
	return t.Update(id, Update{
		Status: &status,
		Error:  &errMessage,
	})
}

// Get returns the operation or ErrNotFound.
func (t *Tracker) Get(id string) (models.Operation, error) {
	op, ok := t.store.Get(id)
	if !ok {
		return models.Operation{}, errors.Wrap(ErrNotFound, "get operation", slog.String("operation_id", id))
	}
	return op, nil
}

// Sweep deletes operations whose StartTime is older than the retention
// window, regardless of status, and returns how many were removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-Retention)
	removed := 0
	for _, op := range t.store.All() {
		if op.StartTime.Before(cutoff) {
			t.store.Delete(op.ID)
			removed++
		}
	}
	return removed
}

// StartSweep runs Sweep periodically until ctx is cancelled.
func (t *Tracker) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := t.Sweep(); removed > 0 {
					t.logger.LogAttrs(ctx, slog.LevelDebug, "swept stale operations",
						slog.Int("removed", removed))
				}
			}
		}
	}()
}
