package command

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every grammar violation, including an
	// unknown command name.
	ErrMalformed = errors.New("command: malformed request")
	// ErrOutOfMemory is matched when the key list cannot grow.
	ErrOutOfMemory = errors.New("command: key list exhausted")
	// ErrReleased is returned when a Command is used after Release.
	ErrReleased = errors.New("command: already released")
	// ErrOwned is returned when a sub-command is released on its own or
	// attached to a second parent.
	ErrOwned = errors.New("command: owned by a parent command")
)

// ParseError describes where the parser stopped.
type ParseError struct {
	Type   Type   // resolved type, TypeUnknown if the name was not reached or not found
	State  State  // state the parser was in
	Offset int    // byte offset into the raw buffer
	Reason string // short description of the violated rule
	oom    bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse command error. Cmd type: %d/%s, state: %d/%s, break position: %d (%s).",
		int(e.Type), Caption(e.Type), int(e.State), e.State, e.Offset, e.Reason)
}

// Is lets errors.Is match the error class.
func (e *ParseError) Is(target error) bool {
	if e.oom {
		return target == ErrOutOfMemory
	}
	return target == ErrMalformed
}
