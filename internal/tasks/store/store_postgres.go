package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskdeck/internal/tasks/models"
	"taskdeck/pkg/platform/sentinel"
)

// Postgres is a PostgreSQL-backed task store. Every statement carries the
// owner_id predicate; there is no query in this file that selects or mutates
// a row by id alone.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tasks table if it doesn't exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT,
			due_date     DATE,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id)`)
	return err
}

func (s *Postgres) List(ctx context.Context, owner string) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, title, description, due_date, is_completed, created_at, updated_at
		FROM tasks WHERE owner_id = $1
		ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Postgres) Find(ctx context.Context, owner string, taskID string) (*models.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, description, due_date, is_completed, created_at, updated_at
		FROM tasks WHERE owner_id = $1 AND id = $2`, owner, taskID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *Postgres) Create(ctx context.Context, task *models.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, due_date, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.OwnerID, task.Title, task.Description, dueDateValue(task), task.IsCompleted, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Postgres) Save(ctx context.Context, task *models.Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, is_completed = $6, updated_at = $7
		WHERE owner_id = $1 AND id = $2`,
		task.OwnerID, task.ID, task.Title, task.Description, dueDateValue(task), task.IsCompleted, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, owner string, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, owner, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func dueDateValue(task *models.Task) *time.Time {
	if task.DueDate == nil {
		return nil
	}
	return &task.DueDate.Time
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var due *time.Time
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &due, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if due != nil {
		t.DueDate = &models.Date{Time: *due}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
