package command

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input to a command: an empty title, an
// unknown kind, status, or edge type. Always rejected before any event
// record is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// IsValidation reports whether err is a ValidationError, unwrapping as
// needed.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports an operation targeting a change ID absent from the
// local materialized graph. No event is written; the caller should rebuild
// and retry.
type NotFoundError struct {
	ChangeID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("change %s not found in local graph (rebuild and retry)", e.ChangeID)
}

// IsNotFound reports whether err is a NotFoundError, unwrapping as needed.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
