package testutil

import (
	"net/http"
	"time"

	"taskdeck/pkg/requestcontext"
)

// WithFrozenTime pins the request-scoped clock so timestamp assertions are
// deterministic. The pinned instant survives the middleware chain because
// downstream context wrappers derive from the request context.
func WithFrozenTime(req *http.Request, instant time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), instant))
}
