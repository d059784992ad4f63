package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/provisora/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(zap.New(core), MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) { return "validation_error", err.Error() },
	}))
	r.GET("/api/provisions", func(c *gin.Context) {
		seen = obscontext.RequestIDFromContext(c.Request.Context())
		_ = c.Error(errors.New("invalid_amount"))
		c.Status(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/provisions", nil))

	if seen == "" {
		t.Fatalf("expected request id in context")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("expected response header %q, got %q", seen, rec.Header().Get("X-Request-Id"))
	}
	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["error_code"] != "invalid_amount" {
		t.Fatalf("expected error_code field, got %v", fields["error_code"])
	}
	if fields["request_id"] != seen {
		t.Fatalf("expected request_id field %q, got %v", seen, fields["request_id"])
	}
}

func TestGinMiddlewareKeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(zap.NewNop(), MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected incoming request id, got %q", got)
	}
}
