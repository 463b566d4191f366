package service

import (
	"errors"
	"fmt"

	"github.com/hongminglow/student-life-be/internal/storage"
)

// Domain errors. Handlers translate them to HTTP statuses with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrPasswordMismatch   = errors.New("password and confirmation do not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("access to this resource is forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrTokenRevoked       = errors.New("refresh token has been revoked")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidErr(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// lookupErr turns a storage miss into ErrNotFound naming the entity.
func lookupErr(err error, entity, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %s %w", entity, id, ErrNotFound)
	}
	return err
}
