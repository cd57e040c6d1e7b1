package drive

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failed Drive call.
type ErrorKind string

// Error kinds.
const (
	KindAuth       ErrorKind = "auth"
	KindPermission ErrorKind = "permission"
	KindNotFound   ErrorKind = "not_found"
	KindRateLimit  ErrorKind = "rate_limit"
	KindTransport  ErrorKind = "transport"
	KindInvalid    ErrorKind = "invalid"
	KindUnknown    ErrorKind = "unknown"
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrUnauthorized = errors.New("drive: unauthorized (invalid or expired credentials)")
	ErrForbidden    = errors.New("drive: forbidden (insufficient permissions)")
	ErrNotFound     = errors.New("drive: file not found")
	ErrRateLimited  = errors.New("drive: rate limit exceeded")
	ErrTransport    = errors.New("drive: transport failure")
	ErrInvalid      = errors.New("drive: invalid request")
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimit || k == KindTransport
}

func (k ErrorKind) String() string {
	return string(k)
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrUnauthorized
	case KindPermission:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindRateLimit:
		return ErrRateLimited
	case KindTransport:
		return ErrTransport
	case KindInvalid:
		return ErrInvalid
	default:
		return nil
	}
}

// Error is a classified Drive failure. Its message is the message of the
// underlying error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// classify wraps err in an *Error unless it already is one.
func classify(err error) *Error {
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}
	return &Error{Kind: Classify(err), Err: err}
}

// Classify derives the ErrorKind of err.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return classifyStatus(gerr)
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return KindAuth
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrForbidden):
		return KindPermission
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, context.Canceled):
		return KindUnknown
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrTransport),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindTransport
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindTransport
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return KindTransport
	}

	return KindUnknown
}

func classifyStatus(gerr *googleapi.Error) ErrorKind {
	switch {
	case gerr.Code == http.StatusBadRequest:
		return KindInvalid
	case gerr.Code == http.StatusUnauthorized:
		return KindAuth
	case gerr.Code == http.StatusForbidden:
		// Drive reports per-user quota exhaustion as 403.
		for _, item := range gerr.Errors {
			switch item.Reason {
			case "rateLimitExceeded", "userRateLimitExceeded":
				return KindRateLimit
			}
		}
		return KindPermission
	case gerr.Code == http.StatusNotFound:
		return KindNotFound
	case gerr.Code == http.StatusTooManyRequests:
		return KindRateLimit
	case gerr.Code >= 500:
		return KindTransport
	default:
		return KindUnknown
	}
}

// retryAfter extracts the Retry-After delay of a rate-limited response.
func retryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	secs, perr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if perr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
