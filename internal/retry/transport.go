package retry

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries idempotent round trips to the report storage backend.
// Requests with a body are only retried when GetBody is set so the payload
// can be replayed.
type Transport struct {
	Base          http.RoundTripper
	RetryStrategy Strategy
	RetryOn       *On
	// MaxRetryAfter caps a server supplied Retry-After delay. Zero ignores
	// the header.
	MaxRetryAfter time.Duration
}

func NewTransport(base http.RoundTripper, strategy Strategy, on *On) *Transport {
	return &Transport{
		Base:          base,
		RetryStrategy: strategy,
		RetryOn:       on,
		MaxRetryAfter: 30 * time.Second,
	}
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()
	for attempt := uint(0); ; attempt++ {
		if attempt > 0 && request.Body != nil && request.Body != http.NoBody {
			if request.GetBody == nil {
				return nil, xerrors.New("cannot replay request body for retry")
			}
			body, err := request.GetBody()
			if err != nil {
				return nil, xerrors.Errorf("failed to replay request body: %w", err)
			}
			request = request.Clone(ctx)
			request.Body = body
		}

		sleep, exceeded := t.retryStrategy().Sleep(attempt)
		response, err := t.base().RoundTrip(request)
		if err != nil {
			if exceeded || t.RetryOn == nil || !t.RetryOn.CheckError(err) {
				return nil, err
			}
		} else {
			if exceeded || t.RetryOn == nil || !t.RetryOn.CheckResponse(response) {
				return response, nil
			}
			if d, ok := t.retryAfter(response); ok {
				sleep = d
			}
			io.Copy(io.Discard, response.Body)
			response.Body.Close()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *Transport) retryAfter(response *http.Response) (time.Duration, bool) {
	if t.MaxRetryAfter <= 0 {
		return 0, false
	}
	v := response.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return lower(time.Duration(seconds)*time.Second, t.MaxRetryAfter), true
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) retryStrategy() Strategy {
	if t.RetryStrategy != nil {
		return t.RetryStrategy
	}
	return NewNever()
}
