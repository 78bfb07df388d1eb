package retry_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"snapshot-compare/internal/retry"
	"testing"
)

func line() string {
	_, _, l, _ := runtime.Caller(1)
	return fmt.Sprintf("L%d", l)
}

func mustOn(t *testing.T, s string) *retry.On {
	t.Helper()
	o, err := retry.NewRetryOnFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

type temporaryError struct {
	s string
}

func (te *temporaryError) Error() string {
	return te.s
}

func (te *temporaryError) Temporary() bool {
	return true
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name   string
		on     string
		status int
		want   bool
	}{
		{line(), "5xx", 500, true},
		{line(), "5xx", 404, false},
		{line(), "gateway-error", 502, true},
		{line(), "gateway-error", 504, true},
		{line(), "gateway-error", 500, false},
		{line(), "retriable-4xx", 409, true},
		{line(), "retriable-4xx", 404, false},
		{line(), "throttled", 429, true},
		{line(), "throttled", 503, true},
		{line(), "throttled", 500, false},
		{line(), "418, 5xx", 418, true},
		{line(), "", 503, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mustOn(t, tt.on).CheckResponse(&http.Response{StatusCode: tt.status})
			if got != tt.want {
				t.Errorf("CheckResponse(%d) with %q = %v, want %v", tt.status, tt.on, got, tt.want)
			}
		})
	}
}

func TestCheckError(t *testing.T) {
	tests := []struct {
		name string
		on   string
		err  error
		want bool
	}{
		{line(), "connect-failure", &temporaryError{"fake"}, true},
		{line(), "connect-failure", fmt.Errorf("wrapped: %w", io.EOF), true},
		{line(), "connect-failure", io.ErrUnexpectedEOF, true},
		{line(), "connect-failure", errors.New("fake"), false},
		{line(), "5xx", &temporaryError{"fake"}, true},
		{line(), "gateway-error", &temporaryError{"fake"}, false},
		{line(), "throttled", io.EOF, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := mustOn(t, tt.on).CheckError(tt.err); got != tt.want {
				t.Errorf("CheckError(%v) with %q = %v, want %v", tt.err, tt.on, got, tt.want)
			}
		})
	}
}

func TestNewRetryOnFromStringInvalid(t *testing.T) {
	for _, s := range []string{"fake", "5xx,unknown", "99", "600"} {
		if _, err := retry.NewRetryOnFromString(s); err == nil {
			t.Errorf("Expected error for %q", s)
		}
	}
}

func TestNewDefaultRetryOn(t *testing.T) {
	o := retry.NewDefaultRetryOn()
	for status, want := range map[int]bool{
		200: false,
		404: false,
		409: true,
		429: true,
		500: false,
		502: true,
		503: true,
	} {
		if got := o.CheckResponse(&http.Response{StatusCode: status}); got != want {
			t.Errorf("status %d: got %v, want %v", status, got, want)
		}
	}
}
