package actions

import (
	"errors"
	"fmt"
)

// Sentinel errors of the dispatch taxonomy. Validation and precondition
// failures are caller errors; they never reach storage.
var (
	// ErrUnknownCommand marks a command outside the closed set.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNotFound marks a missing chunk or session reference.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed marks a write attempted without the required
	// confirmation. Distinct from validation errors so the caller can
	// re-request with confirmation instead of fixing the arguments.
	ErrPreconditionFailed = errors.New("write requires confirmation")
)

// ValidationError describes malformed or mistyped arguments for a command,
// with enough detail to fix the call.
type ValidationError struct {
	Command string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Command, e.Reason)
}

func invalidArgs(command, reason string) error {
	return &ValidationError{Command: command, Reason: reason}
}

// IsCallerError reports whether err belongs to the caller (4xx-equivalent)
// rather than the store or the process.
func IsCallerError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPreconditionFailed)
}
