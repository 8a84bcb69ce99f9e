package store

import (
	"context"

	"taskdeck/internal/tasks/models"
)

// Store persists tasks scoped to their owner. Every read and write takes the
// owning subject as part of the lookup key: ownership is folded into the
// query predicate itself (composite map key, WHERE owner_id = $1, per-owner
// hash), so no code path exists that can reach a task without the filter.
//
// Absent records and records owned by another subject are both reported as
// sentinel.ErrNotFound; callers cannot tell the two apart.
//
// Implementations are interface-driven so the service layer can run against
// in-memory, PostgreSQL, or Redis persistence without rewiring business code.
type Store interface {
	// List returns all tasks owned by subject ordered by creation time.
	// An empty scope yields an empty slice, not an error.
	List(ctx context.Context, owner string) ([]*models.Task, error)

	// Find returns the task only if it exists and belongs to owner.
	Find(ctx context.Context, owner string, taskID string) (*models.Task, error)

	// Create inserts a new task under task.OwnerID.
	Create(ctx context.Context, task *models.Task) error

	// Save overwrites an existing task, keyed by (task.OwnerID, task.ID).
	// Concurrent saves of the same task resolve last-write-wins.
	Save(ctx context.Context, task *models.Task) error

	// Delete permanently removes the task if it belongs to owner.
	Delete(ctx context.Context, owner string, taskID string) error
}
