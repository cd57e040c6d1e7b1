package adapter

import (
	"errors"
	"fmt"

	"github.com/teemow/drivetools/internal/drive"
)

// Status tells a successful result apart from an empty or failed one.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// NotAuthenticatedText is returned by every operation of an adapter that has
// no Drive service.
const NotAuthenticatedText = "Google Drive is not authenticated. Please set up credentials.json"

// Result is the outcome of one adapter operation. Text is what the caller
// shows to the user or the agent; it is set for every status.
type Result struct {
	Status Status
	Text   string

	// Kind and Err are only set when Status is StatusError.
	Kind drive.ErrorKind
	Err  error
}

// IsError reports whether the operation failed.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

func ok(format string, args ...any) Result {
	return Result{Status: StatusOK, Text: fmt.Sprintf(format, args...)}
}

func empty(text string) Result {
	return Result{Status: StatusEmpty, Text: text}
}

// failure builds an error result whose text is prefix followed by err.
func failure(prefix string, err error) Result {
	return Result{
		Status: StatusError,
		Text:   prefix + ": " + err.Error(),
		Kind:   drive.Classify(err),
		Err:    err,
	}
}

var errNotAuthenticated = errors.New("drive service not configured")

func notAuthenticated() Result {
	return Result{
		Status: StatusError,
		Text:   NotAuthenticatedText,
		Kind:   drive.KindAuth,
		Err:    errNotAuthenticated,
	}
}

func invalid(prefix, msg string) Result {
	err := &drive.Error{Kind: drive.KindInvalid, Err: errors.New(msg)}
	return failure(prefix, err)
}
