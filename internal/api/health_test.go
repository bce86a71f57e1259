package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ludimus/places-backend/internal/api"
	"github.com/ludimus/places-backend/internal/testutil"
)

// stubChecker reports a canned health result.
type stubChecker struct {
	err error
}

func (s *stubChecker) Health(context.Context) error { return s.err }

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]api.HealthChecker
		wantStatus int
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: http.StatusOK,
		},
		{
			name: "all healthy",
			checks: map[string]api.HealthChecker{
				"postgres": &stubChecker{},
				"redis":    &stubChecker{},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "one failing",
			checks: map[string]api.HealthChecker{
				"postgres": &stubChecker{},
				"redis":    &stubChecker{err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "nil checker ignored",
			checks: map[string]api.HealthChecker{
				"postgres": &stubChecker{},
				"redis":    nil,
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := api.NewHealthHandler(tt.checks)
			rec := httptest.NewRecorder()
			handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var results map[string]string
			testutil.DecodeJSON(t, rec, &results)
			for name, checker := range tt.checks {
				if checker == nil {
					assert.NotContains(t, results, name)
					continue
				}
				assert.Contains(t, results, name)
			}
		})
	}
}

func TestHealthHandler_Live(t *testing.T) {
	handler := api.NewHealthHandler(nil)
	rec := httptest.NewRecorder()
	handler.Live(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}
