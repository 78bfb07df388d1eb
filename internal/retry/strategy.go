package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

// Strategy returns how long to wait before attempt n+1 and whether the
// attempts are exhausted.
type Strategy interface {
	Sleep(n uint) (time.Duration, bool)
}

type never struct{}

func NewNever() Strategy {
	return &never{}
}

func (nr *never) Sleep(n uint) (time.Duration, bool) {
	return 0, true
}

type Entropy func(int64) int64

// FullJitter picks a delay in [0, d).
func FullJitter(d int64) int64 {
	if d <= 0 {
		return 0
	}
	return rand.Int63n(d)
}

// NoJitter keeps the computed delay.
func NoJitter(d int64) int64 {
	return d
}

type exponentialBackOff struct {
	base          time.Duration
	max           time.Duration
	maxRetryCount uint
	entropy       Entropy
}

// NewExponentialBackOff doubles base on every attempt, capped at max.
// A nil entropy applies FullJitter.
func NewExponentialBackOff(base time.Duration, max time.Duration, maxRetryCount uint, entropy Entropy) Strategy {
	return &exponentialBackOff{
		base:          base,
		max:           max,
		maxRetryCount: maxRetryCount,
		entropy:       entropy,
	}
}

func (eb *exponentialBackOff) Sleep(retryCount uint) (time.Duration, bool) {
	if retryCount >= eb.maxRetryCount {
		return 0, true
	}
	entropy := eb.entropy
	if entropy == nil {
		entropy = FullJitter
	}

	if retryCount >= 63 {
		return time.Duration(entropy(int64(eb.max))), false
	}
	delay, err := checkedMulInt64(1<<retryCount, int64(eb.base))
	if err != nil {
		return time.Duration(entropy(int64(eb.max))), false
	}
	return time.Duration(entropy(lower(delay, int64(eb.max)))), false
}

func lower[T constraints.Ordered](l T, r T) T {
	if l > r {
		return r
	}
	return l
}

var ErrOverflow = errors.New("overflow")

func checkedMulInt64(l int64, r int64) (int64, error) {
	if l == 0 || r == 0 {
		return 0, nil
	}
	if l > math.MaxInt64/r {
		return 0, ErrOverflow
	}
	return l * r, nil
}
