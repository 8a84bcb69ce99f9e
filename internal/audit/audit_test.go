package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbox := make(chan Event, 8)
	store := NewInMemoryStore()
	worker := NewWorker(store, inbox)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	publisher := NewPublisher(inbox, logger)
	publisher.Emit(ctx, Event{Subject: "user-1", Action: ActionCreated, TaskID: "t1"})
	publisher.Emit(ctx, Event{Subject: "user-2", Action: ActionDeleted, TaskID: "t2"})

	require.Eventually(t, func() bool {
		events, err := store.ListBySubject(ctx, "user-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListBySubject(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "publisher stamps events")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPublisherDropsWhenInboxFull(t *testing.T) {
	inbox := make(chan Event) // unbuffered, no consumer
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	publisher := NewPublisher(inbox, logger)

	// Must not block the request path.
	publisher.Emit(context.Background(), Event{Subject: "user-1", Action: ActionUpdated})
}

func TestPublisherWithNilLoggerDropsQuietly(t *testing.T) {
	inbox := make(chan Event) // unbuffered, no consumer
	publisher := NewPublisher(inbox, nil)

	// The full-inbox path logs the drop; a nil logger must not panic it.
	publisher.Emit(context.Background(), Event{Subject: "user-1", Action: ActionDeleted})
}

func TestNilPublisherIsSafe(t *testing.T) {
	var publisher *Publisher
	publisher.Emit(context.Background(), Event{Action: ActionCreated})
}
