// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type warmup bool

func (w warmup) Loading() bool { return bool(w) }

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func unhealthy(checks []HealthCheck) []string {
	var out []string
	for _, c := range checks {
		if !c.Healthy {
			out = append(out, c.Name)
		}
	}
	return out
}

func TestReadiness(t *testing.T) {
	down := pinger{err: errors.New("dial tcp: connection refused")}

	cases := []struct {
		name    string
		db      Checker
		redis   Checker
		loading bool
		code    int
		failing []string
	}{
		{"all healthy", pinger{}, pinger{}, false, http.StatusOK, nil},
		{"database down", down, pinger{}, false, http.StatusServiceUnavailable, []string{"database"}},
		{"read model loading", pinger{}, pinger{}, true, http.StatusServiceUnavailable, []string{"read_model"}},
		{"redis down while loading", pinger{}, down, true, http.StatusServiceUnavailable, []string{"redis", "read_model"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(tc.db, tc.redis, warmup(tc.loading))

			code, body := readiness(t, h)

			assert.Equal(t, tc.code, code)
			assert.Len(t, body.Checks, 3)
			assert.Equal(t, tc.failing, unhealthy(body.Checks))
		})
	}
}

func TestReadiness_ShutdownAndNotReady(t *testing.T) {
	h := NewHandler(pinger{}, pinger{}, warmup(false))

	h.SetReady(false)
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	h.SetShutdown(true)
	rec = httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"shutting_down"}`, rec.Body.String())
}
