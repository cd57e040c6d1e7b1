package drive

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, KindInvalid},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, KindAuth},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, KindPermission},
		{"forbidden rate limit", &googleapi.Error{
			Code:   http.StatusForbidden,
			Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}},
		}, KindRateLimit},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, KindNotFound},
		{"too many requests", &googleapi.Error{Code: http.StatusTooManyRequests}, KindRateLimit},
		{"server error", &googleapi.Error{Code: http.StatusBadGateway}, KindTransport},
		{"conflict", &googleapi.Error{Code: http.StatusConflict}, KindUnknown},
		{"wrapped api error", fmt.Errorf("get: %w", &googleapi.Error{Code: http.StatusNotFound}), KindNotFound},
		{"oauth retrieve", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}}, KindAuth},
		{"deadline", context.DeadlineExceeded, KindTransport},
		{"canceled", context.Canceled, KindUnknown},
		{"url error", &url.Error{Op: "Get", URL: "https://x", Err: errors.New("connection refused")}, KindTransport},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindTransport},
		{"sentinel", fmt.Errorf("x: %w", ErrForbidden), KindPermission},
		{"plain", errors.New("boom"), KindUnknown},
		{"classified", &Error{Kind: KindInvalid, Err: errors.New("bad")}, KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("failed to get file x: %w", &Error{Kind: KindNotFound, Err: errors.New("googleapi: Error 404")})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Contains(t, err.Error(), "googleapi: Error 404")

	unknown := &Error{Kind: KindUnknown, Err: errors.New("x")}
	assert.False(t, errors.Is(unknown, ErrNotFound))
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, KindRateLimit.Retryable())
	assert.True(t, KindTransport.Retryable())
	for _, k := range []ErrorKind{KindAuth, KindPermission, KindNotFound, KindInvalid, KindUnknown} {
		assert.False(t, k.Retryable(), k)
	}
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(&googleapi.Error{Code: 429, Header: h}))
	assert.Zero(t, retryAfter(&googleapi.Error{Code: 429}))
	assert.Zero(t, retryAfter(errors.New("x")))
}
