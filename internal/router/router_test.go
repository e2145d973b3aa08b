package router

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"exam-mex-backend/internal/api"
	"exam-mex-backend/internal/service"
)

func newTestRouter(logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := api.NewExamHandler(service.NewExamService(service.NewMasteringService(nil, ""), 1))
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	return SetupRouter(handler, []string{"http://localhost:3000"}, logger)
}

func TestHealth(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(&logs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
	assert.Contains(t, logs.String(), `"path":"/api/v1/health"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestCORSPreflight(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(&logs)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/exams/mex", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesRegistered(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(&logs)

	var paths []string
	for _, route := range r.Routes() {
		paths = append(paths, route.Method+" "+route.Path)
	}
	assert.ElementsMatch(t, []string{
		"POST /api/v1/exams/xml",
		"POST /api/v1/exams/mex",
		"POST /api/v1/exams/mex/batch",
		"POST /api/v1/exams/master",
		"GET /api/v1/health",
	}, paths)
}
