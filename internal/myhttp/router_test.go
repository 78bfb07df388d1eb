package myhttp_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"snapshot-compare/internal/myhttp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func newMux(t *testing.T, buf *bytes.Buffer) interface {
	http.Handler
	HandleFuncWithMiddleware(string, http.HandlerFunc)
} {
	t.Helper()
	histogram, err := noop.NewMeterProvider().Meter("test").Int64Histogram("test")
	if err != nil {
		t.Fatal(err)
	}
	return myhttp.NewServerMux(slog.New(slog.NewJSONHandler(buf, nil)), histogram)
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	mux := newMux(t, &buf)
	mux.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
		panic(42)
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), `"msg":"42"`) {
		t.Errorf("Expected panic to be logged, got %s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	mux := newMux(t, &buf)
	mux.HandleFuncWithMiddleware("GET /json", func(w http.ResponseWriter, r *http.Request) {
		myhttp.WriteJSON(w, http.StatusCreated, map[string]string{"kind": "match"})
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/json", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Unexpected content type %s", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"kind":"match"}` {
		t.Errorf("Unexpected body %s", got)
	}
}
