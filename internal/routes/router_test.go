package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-tasks/backend/internal/metrics"
	"go-next-tasks/backend/internal/routes"
	"go-next-tasks/backend/testutil"
)

func TestCORS_AllowedOrigins(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	for _, origin := range []string{"http://localhost:3000", "http://localhost:3001"} {
		t.Run(origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			assert.Equal(t, http.StatusNoContent, resp.Code)
			assert.Equal(t, origin, resp.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
			assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		})
	}

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_PreflightEchoesRequestedHeaders(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	preflight := func(origin, requested string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/tasks/1", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		if requested != "" {
			req.Header.Set("Access-Control-Request-Headers", requested)
		}
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	t.Run("custom headers are allowed", func(t *testing.T) {
		resp := preflight("http://localhost:3000", "X-Custom-Header, Content-Type")

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, "X-Custom-Header, Content-Type", resp.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, resp.Header().Values("Vary"), "Access-Control-Request-Headers")
	})

	t.Run("no requested headers", func(t *testing.T) {
		resp := preflight("http://localhost:3001", "")

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		resp := preflight("http://evil.example.com", "X-Custom-Header")

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Headers"))
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORS_RejectsUnknownOrigin(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	t.Run("generated when absent", func(t *testing.T) {
		resp := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", nil)
		assert.Len(t, resp.Header().Get(routes.RequestIDHeader), 36)
	})

	t.Run("propagated when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set(routes.RequestIDHeader, "req-123")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, "req-123", resp.Header().Get(routes.RequestIDHeader))
	})
}

func TestHealth(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)

	resp := testutil.DoJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	require.NoError(t, db.Close())
	resp = testutil.DoJSON(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	testutil.CreateTestTask(t, r, "Measured")
	testutil.DoJSON(t, r, http.MethodPut, "/api/tasks/99999", map[string]any{"completed": true})

	resp := testutil.DoJSON(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `tasks_api_http_requests_total{method="POST",route="/api/tasks",status="200"} 1`)
	assert.Contains(t, body, `tasks_api_http_requests_total{method="PUT",route="/api/tasks/:id",status="404"} 1`)
	assert.Contains(t, body, `tasks_api_task_operations_total{operation="create",result="success"} 1`)
	assert.Contains(t, body, `tasks_api_task_operations_total{operation="update",result="not_found"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := testutil.SetupTestRouter(t, db, testutil.TestConfig(), io.Discard, nil)

	resp := testutil.DoJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// メトリクスなしでもタスク操作は動作する
	testutil.CreateTestTask(t, r, "No metrics")
}

func TestRateLimit(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	r := testutil.SetupTestRouter(t, db, cfg, io.Discard, metrics.New())

	assert.Equal(t, http.StatusOK, testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", nil).Code)
	assert.Equal(t, http.StatusOK, testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", nil).Code)

	resp := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.JSONEq(t, `{"detail":"Too many requests"}`, resp.Body.String())
}

func TestRecovery_ReturnsGenericError(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := testutil.SetupTestRouter(t, db, testutil.TestConfig(), io.Discard, nil)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	resp := testutil.DoJSON(t, r, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, resp.Body.String())
}
