package taskclient

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/jwttoken"
	taskhandler "taskdeck/internal/tasks/handler"
	"taskdeck/internal/tasks/service"
	"taskdeck/internal/tasks/store"
)

// newTestServer runs the real handler stack so the client is exercised
// against the same routing, auth, and envelope code production uses.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tokens := jwttoken.NewService("client-test-signing-key", "taskdeck", time.Hour)

	h := taskhandler.New(service.New(store.NewInMemory()), logger, tokens)
	r := chi.NewRouter()
	h.Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	token, err := tokens.Generate("alice", "alice@example.com")
	require.NoError(t, err)
	return srv, token
}

func Test_Client_RoundTrip(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(srv.URL, token, WithHTTPClient(srv.Client()))
	ctx := context.Background()

	tasks, err := client.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, tasks)

	due, err := ParseDate("2026-09-15")
	require.NoError(t, err)
	desc := "from the API client"
	created, err := client.CreateTask(ctx, CreateTaskRequest{
		Title:       "round trip",
		Description: &desc,
		DueDate:     &due,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice", created.OwnerID)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.NotNil(t, created.DueDate)
	require.Equal(t, "2026-09-15", created.DueDate.String())

	fetched, err := client.GetTask(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	completed := true
	updated, err := client.UpdateTask(ctx, created.ID, UpdateTaskRequest{IsCompleted: &completed})
	require.NoError(t, err)
	require.True(t, updated.IsCompleted)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, client.DeleteTask(ctx, created.ID))

	_, err = client.GetTask(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.Status)
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func Test_Client_DecodesValidationDetails(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(srv.URL, token, WithHTTPClient(srv.Client()))

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	_, err := client.CreateTask(context.Background(), CreateTaskRequest{Title: string(long)})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 422, apiErr.Status)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.Contains(t, apiErr.Details, "title")
}

func Test_Client_SurfacesUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	client := NewClient(srv.URL, "forged-token", WithHTTPClient(srv.Client()))

	_, err := client.ListTasks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.Status)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func Test_ReconcilerAgainstRealServer(t *testing.T) {
	srv, token := newTestServer(t)
	client := NewClient(srv.URL, token, WithHTTPClient(srv.Client()))
	cache := NewCache()
	rec := NewReconciler(client, cache)

	created, err := rec.Mutate(context.Background(), Intent{
		Kind:   KindCreate,
		Create: CreateTaskRequest{Title: "end to end"},
	})
	require.NoError(t, err)
	require.Equal(t, "alice", created.OwnerID)

	toggled, err := rec.Mutate(context.Background(), Intent{Kind: KindToggle, TaskID: created.ID})
	require.NoError(t, err)
	require.True(t, toggled.IsCompleted)

	// A rejected update rolls the cache back to the server-confirmed state.
	blank := "   "
	_, err = rec.Mutate(context.Background(), Intent{
		Kind:   KindUpdate,
		TaskID: created.ID,
		Update: UpdateTaskRequest{Title: &blank},
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 422, apiErr.Status)

	cached, ok := cache.Get(created.ID)
	require.True(t, ok)
	require.Equal(t, "end to end", cached.Title)

	_, err = rec.Mutate(context.Background(), Intent{Kind: KindDelete, TaskID: created.ID})
	require.NoError(t, err)
	require.Empty(t, cache.Snapshot())

	remote, err := client.ListTasks(context.Background())
	require.NoError(t, err)
	require.Empty(t, remote)
}
