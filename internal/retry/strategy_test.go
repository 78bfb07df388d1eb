package retry_test

import (
	"math"
	"snapshot-compare/internal/retry"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRetrySleep(t *testing.T) {
	type want struct {
		Sleep    time.Duration
		Exceeded bool
	}

	tests := []struct {
		name     string
		receiver retry.Strategy
		in       uint
		want     want
	}{
		{line(), retry.NewNever(), 0, want{0, true}},
		{line(), retry.NewExponentialBackOff(0, math.MaxInt64, 0, nil), 0, want{0, true}},
		{line(), retry.NewExponentialBackOff(time.Second, time.Minute, 5, retry.NoJitter), 0, want{time.Second, false}},
		{line(), retry.NewExponentialBackOff(time.Second, time.Minute, 5, retry.NoJitter), 3, want{8 * time.Second, false}},
		{line(), retry.NewExponentialBackOff(time.Second, 5*time.Second, 5, retry.NoJitter), 4, want{5 * time.Second, false}},
		{line(), retry.NewExponentialBackOff(time.Second, time.Minute, 5, retry.NoJitter), 5, want{0, true}},
		{line(), retry.NewExponentialBackOff(time.Hour, time.Minute, 100, retry.NoJitter), 62, want{time.Minute, false}},
		{line(), retry.NewExponentialBackOff(time.Second, time.Minute, 100, retry.NoJitter), 70, want{time.Minute, false}},
		{line(), retry.NewExponentialBackOff(0, time.Minute, 5, retry.NoJitter), 2, want{0, false}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sleep, exceeded := tt.receiver.Sleep(tt.in)
			if d := cmp.Diff(tt.want, want{sleep, exceeded}); d != "" {
				t.Errorf("(-want +got):\n%s", d)
			}
		})
	}
}

func TestFullJitter(t *testing.T) {
	if got := retry.FullJitter(0); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	for i := 0; i < 100; i++ {
		if got := retry.FullJitter(10); got < 0 || got >= 10 {
			t.Fatalf("Expected value in [0, 10), got %d", got)
		}
	}
}
