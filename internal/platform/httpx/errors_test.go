package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

func TestRespondErrorMapsStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", fmt.Errorf("ping: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unavailable", fmt.Errorf("redis: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{"not found", &openaudit.APIError{Method: "GET", Path: "/lgus/9", StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"upstream 500", &openaudit.APIError{Method: "GET", Path: "/health", StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"network", &openaudit.NetworkError{Method: "GET", Path: "/health", Err: errors.New("refused")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.want, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
			assert.Equal(t, tc.want, problem.Status)
		})
	}
}
