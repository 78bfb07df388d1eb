package myhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

func newServerMux(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) *myRouter {
	return &myRouter{
		ServeMux:                         http.NewServeMux(),
		logger:                           logger,
		httpRequestsDurationMicroSeconds: httpRequestsDurationMicroSeconds,
	}
}

var NewServerMux = newServerMux

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes the status text of code, logging cause when present.
func Error(w http.ResponseWriter, code int, cause error) {
	if cause != nil {
		if code >= http.StatusInternalServerError {
			slog.Error(http.StatusText(code), "error", cause)
		} else {
			slog.Debug(http.StatusText(code), "error", cause)
		}
	}
	http.Error(w, http.StatusText(code), code)
}
