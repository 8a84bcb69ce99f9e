package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/audit"
	taskmetrics "taskdeck/internal/tasks/metrics"
	"taskdeck/internal/tasks/models"
	"taskdeck/internal/tasks/store"
	dErrors "taskdeck/pkg/domain-errors"
	"taskdeck/pkg/platform/sentinel"
	"taskdeck/pkg/requestcontext"
)

// Service orchestrates task lifecycle operations. Every operation takes the
// verified subject as an explicit argument right after the context; there is
// no process-wide current user, and nothing read from a request path or body
// can stand in for the subject.
type Service struct {
	tasks   store.Store
	audit   *audit.Publisher
	metrics *taskmetrics.Metrics
}

type serviceConfig struct {
	audit   *audit.Publisher
	metrics *taskmetrics.Metrics
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

// WithAudit attaches an out-of-band audit publisher.
func WithAudit(publisher *audit.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.audit = publisher }
}

// WithMetrics attaches task mutation counters.
func WithMetrics(metrics *taskmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = metrics }
}

func New(tasks store.Store, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		tasks:   tasks,
		audit:   cfg.audit,
		metrics: cfg.metrics,
	}
}

// List returns every task owned by subject, oldest first. An empty scope is
// an empty slice, not an error.
func (s *Service) List(ctx context.Context, subject string) ([]*models.Task, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, subject)
	if err != nil {
		return nil, wrapTaskErr(err)
	}
	return tasks, nil
}

// Get returns the task only if it belongs to subject. A task owned by
// someone else and a task that never existed produce the same NotFound.
func (s *Service) Get(ctx context.Context, subject string, taskID string) (*models.Task, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	task, err := s.tasks.Find(ctx, subject, taskID)
	if err != nil {
		return nil, wrapTaskErr(err)
	}
	return task, nil
}

// Create validates the request, assigns identity and timestamps, and
// persists the task under subject. OwnerID comes solely from subject.
func (s *Service) Create(ctx context.Context, subject string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	if !req.HasTitle() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if details := req.Validate(); len(details) > 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "validation failed", details)
	}

	task := models.New(uuid.NewString(), subject, req, requestTime(ctx))
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, wrapTaskErr(err)
	}

	s.incrementCreated()
	s.emit(ctx, audit.ActionCreated, subject, task.ID)
	return task, nil
}

// Update merges the supplied fields into an owned task. The ownership gate
// runs first: a task under another owner yields NotFound before any field is
// examined. Empty updates are rejected.
func (s *Service) Update(ctx context.Context, subject string, taskID string, req models.UpdateTaskRequest) (*models.Task, error) {
	if err := requireSubject(subject); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}
	if details := req.Validate(); len(details) > 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "validation failed", details)
	}

	task, err := s.tasks.Find(ctx, subject, taskID)
	if err != nil {
		return nil, wrapTaskErr(err)
	}

	task.ApplyUpdate(req, requestTime(ctx))
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, wrapTaskErr(err)
	}

	s.incrementUpdated()
	s.emit(ctx, audit.ActionUpdated, subject, task.ID)
	return task, nil
}

// Delete permanently removes an owned task. Deleting an already-deleted id
// yields NotFound, which is a correct terminal state.
func (s *Service) Delete(ctx context.Context, subject string, taskID string) error {
	if err := requireSubject(subject); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, subject, taskID); err != nil {
		return wrapTaskErr(err)
	}

	s.incrementDeleted()
	s.emit(ctx, audit.ActionDeleted, subject, taskID)
	return nil
}

// requestTime pins mutations to the request-scoped clock so createdAt and
// updatedAt agree on creation, truncated to whole seconds for a stable wire
// representation.
func requestTime(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Second)
}

func requireSubject(subject string) error {
	if subject == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing authenticated subject")
	}
	return nil
}

func wrapTaskErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "task not found")
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "task store failure")
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, taskID string) {
	s.audit.Emit(ctx, audit.Event{
		Subject:   subject,
		Action:    action,
		TaskID:    taskID,
		RequestID: requestcontext.RequestID(ctx),
	})
}

func (s *Service) incrementCreated() {
	if s.metrics != nil {
		s.metrics.IncrementTasksCreated()
	}
}

func (s *Service) incrementUpdated() {
	if s.metrics != nil {
		s.metrics.IncrementTasksUpdated()
	}
}

func (s *Service) incrementDeleted() {
	if s.metrics != nil {
		s.metrics.IncrementTasksDeleted()
	}
}
