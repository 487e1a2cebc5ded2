package commands

import (
	"errors"

	"github.com/pixil98/go-waypoint/internal/teleport"
)

// UserError represents an error that should be displayed to the user.
// These are not system failures - just invalid input or usage.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a user-facing error.
func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}

// userFacing turns a refused teleport action into a UserError. Anything else
// is returned unchanged.
func userFacing(err error) error {
	var te *teleport.Error
	if errors.As(err, &te) {
		return NewUserError(te.Error())
	}
	return err
}
