package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oppamcare/oppam/log"
)

func TestServer_health(t *testing.T) {
	srv := NewServer(":0", log.NewNopLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	srv.AddHealthCheck("store", func(context.Context) error { return errors.New("database is locked") })
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","failed":{"store":"database is locked"}}`, rec.Body.String())
}

func TestServer_grpcHealth(t *testing.T) {
	srv := NewServer(":0", log.NewNopLogger())
	srv.AddHealthCheck("store", func(context.Context) error { return nil })

	check := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/grpc.health.v1.Health/Check", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := check(`{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"SERVING"}`, rec.Body.String())

	rec = check(`{"service":"inbox"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	srv.AddHealthCheck("inbox", func(context.Context) error { return errors.New("redis down") })
	rec = check(`{"service":"store"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"SERVING"}`, rec.Body.String())

	rec = check(`{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"NOT_SERVING"}`, rec.Body.String())
}

var errMissing = errors.New("thing not found")

type stubHandler struct {
	err error
}

func (h stubHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.GET("/thing", func(echo.Context) error { return h.err }, middleware...)
}

func TestEchoErrorMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "echo error",
			err:      echo.NewHTTPError(http.StatusConflict, "busy"),
			wantCode: http.StatusConflict,
			wantMsg:  "busy",
		},
		{
			name:     "bad request",
			err:      NewRequestValidator().Field("id").When(true).Message("Must be positive").Error(),
			wantCode: http.StatusBadRequest,
			wantMsg:  "Bad Request",
		},
		{
			name:     "mapped domain error",
			err:      errors.Join(errors.New("get thing 3"), errMissing),
			wantCode: http.StatusNotFound,
			wantMsg:  "thing not found",
		},
		{
			name:     "unknown error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(":0", log.NewNopLogger())
			srv.RegisterEcho(stubHandler{err: tt.err}, NewEchoErrorMiddleware(ErrorStatus{Target: errMissing, Code: http.StatusNotFound}))

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))
			require.Equal(t, tt.wantCode, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantMsg), rec.Body.String())
		})
	}
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()
	v.NotNegative("id", -1)
	v.OptionalRange("max_misses", 0, 1, 100)
	v.OptionalRange("interval_seconds", 30, 60, 86400)
	err := v.Error()

	var brErr *BadRequestError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, map[string][]string{
		"id":               {"Must not be negative"},
		"interval_seconds": {"Must be between 60 and 86400"},
	}, brErr.FieldViolations)

	assert.NoError(t, NewRequestValidator().OptionalRange("max_misses", 3, 1, 100).Error())
}
