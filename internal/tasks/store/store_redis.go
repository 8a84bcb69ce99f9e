package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"taskdeck/internal/tasks/models"
	"taskdeck/pkg/platform/sentinel"
)

const taskKeyPrefix = "tasks:owner:"

// Redis is a Redis-backed task store. Each owner gets a dedicated hash keyed
// by task id, so the ownership scope is baked into the key itself and a
// lookup for another owner's task cannot be expressed.
//
// Concurrent saves of the same task resolve last-write-wins; there is no
// version check here on purpose.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func ownerHash(owner string) string {
	return taskKeyPrefix + owner
}

func (s *Redis) List(ctx context.Context, owner string) ([]*models.Task, error) {
	raw, err := s.client.HGetAll(ctx, ownerHash(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out := make([]*models.Task, 0, len(raw))
	for _, payload := range raw {
		var task models.Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			return nil, fmt.Errorf("decode stored task: %w", err)
		}
		out = append(out, &task)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Redis) Find(ctx context.Context, owner string, taskID string) (*models.Task, error) {
	payload, err := s.client.HGet(ctx, ownerHash(owner), taskID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, fmt.Errorf("decode stored task: %w", err)
	}
	return &task, nil
}

func (s *Redis) Create(ctx context.Context, task *models.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := s.client.HSet(ctx, ownerHash(task.OwnerID), task.ID, payload).Err(); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Redis) Save(ctx context.Context, task *models.Task) error {
	exists, err := s.client.HExists(ctx, ownerHash(task.OwnerID), task.ID).Result()
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := s.client.HSet(ctx, ownerHash(task.OwnerID), task.ID, payload).Err(); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, owner string, taskID string) error {
	removed, err := s.client.HDel(ctx, ownerHash(owner), taskID).Result()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
