package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

// ErrUnavailable marks a dependency that is not configured or not reachable.
var ErrUnavailable = errors.New("dependency unavailable")

// RespondError maps backend and dependency errors to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Gateway Timeout", err.Error())
	case openaudit.IsNotFound(err):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case openaudit.KindOf(err) != openaudit.KindNone:
		Problem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
