package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskdeck/internal/platform/middleware"
	"taskdeck/internal/tasks/models"
	"taskdeck/internal/transport/http/shared"
	dErrors "taskdeck/pkg/domain-errors"
	"taskdeck/pkg/requestcontext"
)

// Service defines the task operations the HTTP layer depends on.
type Service interface {
	List(ctx context.Context, subject string) ([]*models.Task, error)
	Get(ctx context.Context, subject string, taskID string) (*models.Task, error)
	Create(ctx context.Context, subject string, req models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, subject string, taskID string, req models.UpdateTaskRequest) (*models.Task, error)
	Delete(ctx context.Context, subject string, taskID string) error
}

// Handler serves the task endpoints under /api/tasks. Every route sits
// behind RequireAuth; the subject it verifies is the only ownership input.
type Handler struct {
	logger   *slog.Logger
	tasks    Service
	verifier middleware.SubjectVerifier
}

// New creates a new task Handler.
func New(tasks Service, logger *slog.Logger, verifier middleware.SubjectVerifier) *Handler {
	return &Handler{
		logger:   logger,
		tasks:    tasks,
		verifier: verifier,
	}
}

// Register registers the task routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	taskRouter := chi.NewRouter()
	taskRouter.Use(middleware.RequireAuth(h.verifier, h.logger))
	taskRouter.Get("/api/tasks", h.handleListTasks)
	taskRouter.Post("/api/tasks", h.handleCreateTask)
	taskRouter.Get("/api/tasks/{id}", h.handleGetTask)
	taskRouter.Put("/api/tasks/{id}", h.handleUpdateTask)
	taskRouter.Delete("/api/tasks/{id}", h.handleDeleteTask)

	r.Mount("/", taskRouter)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := h.subject(ctx, w)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(ctx, subject)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list tasks")
		return
	}
	if tasks == nil {
		// An empty board is a JSON array, never null.
		tasks = []*models.Task{}
	}

	shared.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := h.subject(ctx, w)
	if !ok {
		return
	}

	task, err := h.tasks.Get(ctx, subject, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to fetch task")
		return
	}

	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := h.subject(ctx, w)
	if !ok {
		return
	}

	var createReq models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		h.logger.WarnContext(ctx, "invalid create task request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	task, err := h.tasks.Create(ctx, subject, createReq)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create task")
		return
	}

	shared.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := h.subject(ctx, w)
	if !ok {
		return
	}

	var updateReq models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		h.logger.WarnContext(ctx, "invalid update task request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	task, err := h.tasks.Update(ctx, subject, chi.URLParam(r, "id"), updateReq)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update task")
		return
	}

	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := h.subject(ctx, w)
	if !ok {
		return
	}

	if err := h.tasks.Delete(ctx, subject, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(ctx, w, err, "failed to delete task")
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// subject reads the verified subject the auth middleware stored. Absence
// means the route was mounted without RequireAuth, which is a wiring bug,
// not a client error.
func (h *Handler) subject(ctx context.Context, w http.ResponseWriter) (string, bool) {
	subject := requestcontext.Subject(ctx)
	if subject == "" {
		h.logger.ErrorContext(ctx, "subject missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return subject, true
}

// writeServiceError sends domain errors through as-is and collapses anything
// unexpected into a generic internal error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, logMessage string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) || !isDomainError(err) {
		h.logger.ErrorContext(ctx, logMessage,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}

	h.logger.WarnContext(ctx, logMessage,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}

func isDomainError(err error) bool {
	var domainErr *dErrors.Error
	return errors.As(err, &domainErr)
}
