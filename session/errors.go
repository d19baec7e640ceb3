package session

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionFailed = errors.New("session: connection failed")
	ErrTimeout          = errors.New("session: timed out waiting for reply")
	ErrTransport        = errors.New("session: transport failure")
)

// OpError records which operation failed and, for sends, the command text.
type OpError struct {
	Op      string
	Command string
	Err     error
}

func (e *OpError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("session %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Command, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
