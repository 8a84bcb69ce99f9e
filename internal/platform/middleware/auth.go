package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"taskdeck/pkg/requestcontext"
)

// SubjectVerifier defines the interface for validating bearer credentials.
type SubjectVerifier interface {
	Verify(credential string) (subject string, err error)
}

// RequireAuth rejects requests without a valid bearer credential before any
// handler or store code runs. On success the verified subject is injected
// into the request context; it is the only source of caller identity
// downstream.
func RequireAuth(verifier SubjectVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				subject, err := verifier.Verify(token)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}

				ctx := requestcontext.WithSubject(r.Context(), subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// No Authorization header or invalid format
			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", requestcontext.RequestID(ctx),
			)
			writeUnauthorized(w, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED","message":"` + message + `"}`))
}
