package store

import (
	"context"
	"sort"
	"sync"

	"taskdeck/internal/tasks/models"
	"taskdeck/pkg/platform/sentinel"
)

// ownerKey is the composite map key. Requiring the owner to build a key is
// what makes unscoped lookups unrepresentable in this store.
type ownerKey struct {
	owner string
	id    string
}

// InMemory keeps tasks in a mutex-guarded map. It favors clarity over
// performance and backs unit tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	tasks map[ownerKey]*models.Task
}

func NewInMemory() *InMemory {
	return &InMemory{tasks: make(map[ownerKey]*models.Task)}
}

func (s *InMemory) List(_ context.Context, owner string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Task{}
	for key, task := range s.tasks {
		if key.owner == owner {
			out = append(out, task.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) Find(_ context.Context, owner string, taskID string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if task, ok := s.tasks[ownerKey{owner: owner, id: taskID}]; ok {
		return task.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[ownerKey{owner: task.OwnerID, id: task.ID}] = task.Clone()
	return nil
}

func (s *InMemory) Save(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey{owner: task.OwnerID, id: task.ID}
	if _, ok := s.tasks[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.tasks[key] = task.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, owner string, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey{owner: owner, id: taskID}
	if _, ok := s.tasks[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tasks, key)
	return nil
}
