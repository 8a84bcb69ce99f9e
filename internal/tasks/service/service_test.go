package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taskdeck/internal/audit"
	"taskdeck/internal/tasks/models"
	"taskdeck/internal/tasks/store"
	dErrors "taskdeck/pkg/domain-errors"
	"taskdeck/pkg/requestcontext"
)

// =============================================================================
// Task Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns the ownership gate, the
// bad-request versus validation split, and merge semantics for partial
// updates. Exercising those precisely through HTTP tests would couple every
// case to token issuance and wire decoding.

type TaskServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}

func (s *TaskServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
}

func (s *TaskServiceSuite) ctxAt(instant time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), instant)
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

// =============================================================================
// Create Tests
// =============================================================================

func (s *TaskServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("assigns identity and stamps both timestamps equally", func() {
		instant := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
		task, err := s.service.Create(s.ctxAt(instant), "alice", models.CreateTaskRequest{Title: "write report"})
		s.Require().NoError(err)
		s.NotEmpty(task.ID)
		s.Equal("alice", task.OwnerID)
		s.Equal(instant, task.CreatedAt)
		s.Equal(instant, task.UpdatedAt)
		s.False(task.IsCompleted)
	})

	s.Run("trims surrounding whitespace from the title", func() {
		task, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "  buy milk  "})
		s.Require().NoError(err)
		s.Equal("buy milk", task.Title)
	})

	s.Run("missing title is a bad request", func() {
		_, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "   "})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("oversized title is a validation failure with details", func() {
		long := make([]rune, models.MaxTitleLen+1)
		for i := range long {
			long[i] = 'x'
		}
		_, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: string(long)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		var domainErr *dErrors.Error
		s.Require().ErrorAs(err, &domainErr)
		s.Contains(domainErr.Details, "title")
	})

	s.Run("missing subject never reaches the store", func() {
		_, err := s.service.Create(ctx, "", models.CreateTaskRequest{Title: "orphan"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		tasks, listErr := s.store.List(ctx, "")
		s.Require().NoError(listErr)
		s.Empty(tasks)
	})
}

// =============================================================================
// List / Get Tests
// =============================================================================

func (s *TaskServiceSuite) TestList() {
	ctx := context.Background()

	s.Run("empty scope is an empty slice", func() {
		tasks, err := s.service.List(ctx, "nobody")
		s.Require().NoError(err)
		s.NotNil(tasks)
		s.Empty(tasks)
	})

	s.Run("returns only the subject's tasks", func() {
		_, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "alice task"})
		s.Require().NoError(err)
		_, err = s.service.Create(ctx, "bob", models.CreateTaskRequest{Title: "bob task"})
		s.Require().NoError(err)

		tasks, err := s.service.List(ctx, "alice")
		s.Require().NoError(err)
		s.Require().Len(tasks, 1)
		s.Equal("alice task", tasks[0].Title)
	})
}

func (s *TaskServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("returns an owned task", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "mine"})
		s.Require().NoError(err)

		found, err := s.service.Get(ctx, "alice", created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("foreign task is indistinguishable from a missing one", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "mine"})
		s.Require().NoError(err)

		_, foreignErr := s.service.Get(ctx, "bob", created.ID)
		_, missingErr := s.service.Get(ctx, "bob", "no-such-id")
		s.Require().Error(foreignErr)
		s.Require().Error(missingErr)
		s.True(dErrors.HasCode(foreignErr, dErrors.CodeNotFound))
		s.True(dErrors.HasCode(missingErr, dErrors.CodeNotFound))
		s.Equal(foreignErr.Error(), missingErr.Error())
	})
}

// =============================================================================
// Update Tests
// =============================================================================

func (s *TaskServiceSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("merges only supplied fields", func() {
		createdAt := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
		created, err := s.service.Create(s.ctxAt(createdAt), "alice", models.CreateTaskRequest{
			Title:       "draft",
			Description: strPtr("first pass"),
		})
		s.Require().NoError(err)

		updatedAt := createdAt.Add(time.Hour)
		updated, err := s.service.Update(s.ctxAt(updatedAt), "alice", created.ID, models.UpdateTaskRequest{
			IsCompleted: boolPtr(true),
		})
		s.Require().NoError(err)
		s.True(updated.IsCompleted)
		s.Equal("draft", updated.Title)
		s.Require().NotNil(updated.Description)
		s.Equal("first pass", *updated.Description)
		s.Equal(createdAt, updated.CreatedAt)
		s.Equal(updatedAt, updated.UpdatedAt)
	})

	s.Run("empty update is a bad request", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "draft"})
		s.Require().NoError(err)

		_, err = s.service.Update(ctx, "alice", created.ID, models.UpdateTaskRequest{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("ownership gate runs before validation side effects", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "draft"})
		s.Require().NoError(err)

		_, err = s.service.Update(ctx, "bob", created.ID, models.UpdateTaskRequest{Title: strPtr("hijacked")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		unchanged, err := s.service.Get(ctx, "alice", created.ID)
		s.Require().NoError(err)
		s.Equal("draft", unchanged.Title)
	})

	s.Run("blank supplied title is a validation failure", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "draft"})
		s.Require().NoError(err)

		_, err = s.service.Update(ctx, "alice", created.ID, models.UpdateTaskRequest{Title: strPtr("   ")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Delete Tests
// =============================================================================

func (s *TaskServiceSuite) TestDelete() {
	ctx := context.Background()

	s.Run("removes an owned task", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "gone soon"})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Delete(ctx, "alice", created.ID))

		_, err = s.service.Get(ctx, "alice", created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second delete reports not found", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "once"})
		s.Require().NoError(err)

		s.Require().NoError(s.service.Delete(ctx, "alice", created.ID))
		err = s.service.Delete(ctx, "alice", created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("foreign delete leaves the task in place", func() {
		created, err := s.service.Create(ctx, "alice", models.CreateTaskRequest{Title: "protected"})
		s.Require().NoError(err)

		err = s.service.Delete(ctx, "bob", created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.Get(ctx, "alice", created.ID)
		s.NoError(err)
	})
}

// =============================================================================
// Audit Emission Tests
// =============================================================================

func (s *TaskServiceSuite) TestAuditEmission() {
	ctx := context.Background()

	inbox := make(chan audit.Event, 8)
	svc := New(s.store, WithAudit(audit.NewPublisher(inbox, nil)))

	created, err := svc.Create(ctx, "alice", models.CreateTaskRequest{Title: "tracked"})
	s.Require().NoError(err)
	_, err = svc.Update(ctx, "alice", created.ID, models.UpdateTaskRequest{IsCompleted: boolPtr(true)})
	s.Require().NoError(err)
	s.Require().NoError(svc.Delete(ctx, "alice", created.ID))

	close(inbox)
	var actions []audit.Action
	for event := range inbox {
		s.Equal("alice", event.Subject)
		s.Equal(created.ID, event.TaskID)
		actions = append(actions, event.Action)
	}
	s.Equal([]audit.Action{audit.ActionCreated, audit.ActionUpdated, audit.ActionDeleted}, actions)
}
