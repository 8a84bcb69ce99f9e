package taskclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// API is the remote surface the reconciler settles mutations against.
// *Client satisfies it; tests substitute fakes.
type API interface {
	ListTasks(ctx context.Context) ([]*Task, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
	UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// IntentKind is the operation a mutation intent performs.
type IntentKind int

const (
	KindCreate IntentKind = iota
	KindUpdate
	KindDelete
	KindToggle
)

// Intent is one client-originated mutation. TaskID is empty for creates;
// the reconciler generates a correlation token in its place.
type Intent struct {
	Kind   IntentKind
	TaskID string
	Create CreateTaskRequest
	Update UpdateTaskRequest
}

// IntentState tracks an in-flight intent through its lifecycle.
type IntentState int

const (
	StateIdle IntentState = iota
	StateSpeculating
	StateSettling
	StateCommitted
	StateRolledBack
)

// ErrIntentInFlight is returned when a second intent targets an id whose
// first intent has not settled. Allowing the overlap would let a stale
// rollback overwrite a newer speculative change, so the second intent is
// rejected outright rather than queued.
var ErrIntentInFlight = errors.New("another mutation for this task is still settling")

// ErrUnknownTask is returned for update/toggle/delete intents naming an id
// the cache has never seen.
var ErrUnknownTask = errors.New("task is not in the local cache")

// Result is what an asynchronous mutation settles to. Task is nil for
// deletes and for failures.
type Result struct {
	Task *Task
	Err  error
}

// Reconciler applies each intent speculatively to the cache, settles it
// against the server, and then either commits the authoritative record or
// restores the pre-intent state. Reconciliation always runs to completion:
// once dispatched, a mutation settles into the cache even if the caller has
// stopped listening.
type Reconciler struct {
	api   API
	cache *Cache

	mu       sync.Mutex
	inflight map[string]IntentState
}

func NewReconciler(api API, cache *Cache) *Reconciler {
	return &Reconciler{
		api:      api,
		cache:    cache,
		inflight: make(map[string]IntentState),
	}
}

// Refresh primes the cache from the server's authoritative list.
func (r *Reconciler) Refresh(ctx context.Context) error {
	tasks, err := r.api.ListTasks(ctx)
	if err != nil {
		return err
	}
	r.cache.Prime(tasks)
	return nil
}

// Mutate runs one intent through the full state machine and blocks until it
// settles. On success the returned task is the server's record; on failure
// the cache is back to its pre-intent state and the error describes why.
func (r *Reconciler) Mutate(ctx context.Context, intent Intent) (*Task, error) {
	key := intent.TaskID
	if intent.Kind == KindCreate {
		key = "pending-" + uuid.NewString()
	}

	cp, err := r.speculate(key, intent)
	if err != nil {
		return nil, err
	}
	return r.settle(ctx, key, intent, cp)
}

// MutateAsync dispatches an intent and returns a channel that yields the
// settled outcome. The cache is reconciled whether or not the caller ever
// reads the channel, so an abandoned result cannot leave a speculative
// entry behind.
func (r *Reconciler) MutateAsync(ctx context.Context, intent Intent) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		task, err := r.Mutate(ctx, intent)
		results <- Result{Task: task, Err: err}
		close(results)
	}()
	return results
}

// speculate transitions Idle -> Speculating: it reserves the target id,
// checkpoints its prior state, and applies the tentative change.
func (r *Reconciler) speculate(key string, intent Intent) (checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.inflight[key]; ok && (state == StateSpeculating || state == StateSettling) {
		return checkpoint{}, fmt.Errorf("%w: %s", ErrIntentInFlight, key)
	}

	cp := r.cache.checkpointEntry(key)
	now := time.Now().UTC().Truncate(time.Second)

	switch intent.Kind {
	case KindCreate:
		speculative := &Task{
			ID:          key,
			Title:       intent.Create.Title,
			Description: intent.Create.Description,
			DueDate:     intent.Create.DueDate,
			IsCompleted: intent.Create.IsCompleted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.cache.put(speculative, Pending)

	case KindUpdate:
		current, ok := r.cache.Get(key)
		if !ok {
			return checkpoint{}, fmt.Errorf("%w: %s", ErrUnknownTask, key)
		}
		applyUpdate(current, intent.Update, now)
		r.cache.put(current, Pending)

	case KindToggle:
		current, ok := r.cache.Get(key)
		if !ok {
			return checkpoint{}, fmt.Errorf("%w: %s", ErrUnknownTask, key)
		}
		current.IsCompleted = !current.IsCompleted
		current.UpdatedAt = now
		r.cache.put(current, Pending)

	case KindDelete:
		if !r.cache.markPendingDelete(key) {
			return checkpoint{}, fmt.Errorf("%w: %s", ErrUnknownTask, key)
		}
	}

	r.inflight[key] = StateSpeculating
	return cp, nil
}

// settle transitions Speculating -> Settling -> Committed/RolledBack.
func (r *Reconciler) settle(ctx context.Context, key string, intent Intent, cp checkpoint) (*Task, error) {
	r.setState(key, StateSettling)

	confirmed, err := r.dispatch(ctx, key, intent)
	if err != nil {
		r.cache.restore(cp)
		r.finish(key)
		return nil, err
	}

	if intent.Kind == KindDelete {
		r.cache.remove(key)
	} else {
		r.cache.commit(key, confirmed)
	}
	r.finish(key)
	return confirmed, nil
}

func (r *Reconciler) dispatch(ctx context.Context, key string, intent Intent) (*Task, error) {
	switch intent.Kind {
	case KindCreate:
		return r.api.CreateTask(ctx, intent.Create)
	case KindUpdate:
		return r.api.UpdateTask(ctx, key, intent.Update)
	case KindToggle:
		speculative, ok := r.cache.Get(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, key)
		}
		completed := speculative.IsCompleted
		return r.api.UpdateTask(ctx, key, UpdateTaskRequest{IsCompleted: &completed})
	case KindDelete:
		return nil, r.api.DeleteTask(ctx, key)
	default:
		return nil, fmt.Errorf("unknown intent kind %d", intent.Kind)
	}
}

func (r *Reconciler) setState(key string, state IntentState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[key] = state
}

// finish releases the id for new intents; Committed and RolledBack are
// terminal, so the entry is dropped rather than retained.
func (r *Reconciler) finish(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, key)
}

func applyUpdate(task *Task, req UpdateTaskRequest, now time.Time) {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	task.UpdatedAt = now
}
