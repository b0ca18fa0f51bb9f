package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luteorg/lute-api/config"
	"github.com/luteorg/lute-api/data/datatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		ParserTypes:    []string{"spacedel"},
		CORSOrigins:    []string{"http://localhost:5173"},
		RequestTimeout: 5 * time.Second,
		MaxRequestBody: 1 << 20,
	}
}

func TestNewHandler_Routes(t *testing.T) {
	db := datatest.New(t)
	handler := newHandler(db, testConfig())

	for _, target := range []string{"/health", "/api/appinfo", "/api/initial", "/api/books/", "/api/terms/", "/api/languages/"} {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestNewHandler_RequestID(t *testing.T) {
	handler := newHandler(datatest.New(t), testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestNewHandler_CORS(t *testing.T) {
	handler := newHandler(datatest.New(t), testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/books/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/books/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewHandler_Metrics(t *testing.T) {
	handler := newHandler(datatest.New(t), testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/?start=0&size=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `lute_http_requests_total{method="GET",route="GET /api/books/{$}",status="200"}`)
	assert.Contains(t, body, `lute_table_query_duration_seconds_count{outcome="ok",view="books"}`)
}

func TestNewHandler_UnknownRoute(t *testing.T) {
	handler := newHandler(datatest.New(t), testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
