package audit

import (
	"context"
	"sync"
)

// Store is the append-only sink behind the audit worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// InMemoryStore keeps audit events in memory. It backs tests and local
// development; durable sinks implement the same interface.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for _, event := range s.events {
		if event.Subject == subject {
			out = append(out, event)
		}
	}
	return out, nil
}
