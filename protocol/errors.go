package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Error is a message the server could not accept. It is answered with an
// error frame; the connection stays open.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
