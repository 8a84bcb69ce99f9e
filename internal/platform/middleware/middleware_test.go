package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskdeck/pkg/requestcontext"
	"taskdeck/pkg/testutil"
)

type stubVerifier struct {
	subject string
	err     error
}

func (v stubVerifier) Verify(credential string) (string, error) {
	return v.subject, v.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireAuth(t *testing.T) {
	echoSubject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(requestcontext.Subject(r.Context())))
	})

	testutil.Given(t, "a verifier that accepts the credential", func(t *testing.T) {
		handler := RequireAuth(stubVerifier{subject: "alice"}, quietLogger())(echoSubject)

		testutil.When(t, "a bearer token is presented", func(t *testing.T) {
			rec := testutil.DoRequest(handler, testutil.NewBearerRequest(t, http.MethodGet, "/api/tasks", "any", nil))

			testutil.Then(t, "the subject reaches the handler", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusOK)
				require.Equal(t, "alice", rec.Body.String())
			})
		})
	})

	testutil.Given(t, "a verifier that rejects the credential", func(t *testing.T) {
		handler := RequireAuth(stubVerifier{err: errors.New("expired")}, quietLogger())(echoSubject)

		testutil.When(t, "a bearer token is presented", func(t *testing.T) {
			rec := testutil.DoRequest(handler, testutil.NewBearerRequest(t, http.MethodGet, "/api/tasks", "stale", nil))

			testutil.Then(t, "the request is rejected before the handler", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
			})
		})
	})

	testutil.Given(t, "no Authorization header at all", func(t *testing.T) {
		handler := RequireAuth(stubVerifier{subject: "alice"}, quietLogger())(echoSubject)
		rec := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/api/tasks", nil))
		testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	testutil.Given(t, "a non-bearer scheme", func(t *testing.T) {
		handler := RequireAuth(stubVerifier{subject: "alice"}, quietLogger())(echoSubject)
		req := testutil.NewJSONRequest(t, http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := testutil.DoRequest(handler, req)
		testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})
}

func TestRecoveryConvertsPanicsToOpaque500(t *testing.T) {
	handler := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("sql: connection reset on host db-7")
	}))

	rec := testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/api/tasks", nil))
	testutil.AssertStatusAndError(t, rec, http.StatusInternalServerError, "SERVER_ERROR")
	require.NotContains(t, rec.Body.String(), "db-7")
}

func TestRequestIDIsFreshPerRequest(t *testing.T) {
	var seen []string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, requestcontext.RequestID(r.Context()))
	}))

	testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))

	require.Len(t, seen, 2)
	require.NotEmpty(t, seen[0])
	require.NotEqual(t, seen[0], seen[1])
}

func TestRequestTimePinsOneInstant(t *testing.T) {
	var first, second time.Time
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))

	testutil.DoRequest(handler, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	require.True(t, first.Equal(second), "both reads must see the pinned instant")
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS("http://localhost:3000")(next)

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := testutil.DoRequest(handler, req)
		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origins get nothing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rec := testutil.DoRequest(handler, req)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := testutil.DoRequest(handler, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
