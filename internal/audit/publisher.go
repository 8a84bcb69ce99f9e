package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands audit events to the background worker without blocking the
// request path. A full inbox drops the event and logs; audit must never slow
// down or fail a mutation.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.inbox == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"task_id", event.TaskID,
		)
	}
}
