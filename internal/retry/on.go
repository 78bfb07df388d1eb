package retry

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// On decides which storage responses and transport errors are worth another
// attempt. The conditions follow the envoy retry-on vocabulary with an
// additional "throttled" condition for object stores that answer 429 or
// 503 SlowDown.
type On struct {
	serverError    bool
	gatewayError   bool
	connectFailure bool
	retriable4xx   bool
	throttled      bool
	statusCodes    []int
}

// NewDefaultRetryOn retries what an S3 compatible backend reports as
// transient.
func NewDefaultRetryOn() *On {
	return &On{
		gatewayError:   true,
		connectFailure: true,
		retriable4xx:   true,
		throttled:      true,
	}
}

func NewRetryOnFromString(s string) (*On, error) {
	o := &On{}
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		switch token {
		case "":
		case "5xx":
			o.serverError = true
		case "gateway-error":
			o.gatewayError = true
		case "connect-failure":
			o.connectFailure = true
		case "retriable-4xx":
			o.retriable4xx = true
		case "throttled":
			o.throttled = true
		default:
			statusCode, err := strconv.Atoi(token)
			if err != nil || statusCode < 100 || statusCode > 599 {
				return nil, xerrors.Errorf("invalid retry-on condition: %q", token)
			}
			o.statusCodes = append(o.statusCodes, statusCode)
		}
	}
	return o, nil
}

// ref https://github.com/envoyproxy/envoy/blob/70d6ec1df6384118cf2fa2f02c0041edb76b2377/source/common/router/retry_state_impl.cc#L387
func (o *On) CheckResponse(response *http.Response) bool {
	code := response.StatusCode
	if (o.serverError && code >= 500 && code < 600) ||
		(o.gatewayError && code >= 502 && code < 505) ||
		(o.retriable4xx && code == http.StatusConflict) ||
		(o.throttled && (code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable)) {
		return true
	}

	for _, i := range o.statusCodes {
		if i == code {
			return true
		}
	}

	return false
}

func (o *On) CheckError(err error) bool {
	if !o.connectFailure && !o.serverError {
		return false
	}
	type temporary interface{ Temporary() bool }
	var terr temporary
	return (errors.As(err, &terr) && terr.Temporary()) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
