package service

import (
	"errors"
	"fmt"
)

// Not found
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
)

// Conflicts
var (
	ErrLoginTaken       = errors.New("login already taken")
	ErrEmailTaken       = errors.New("email already taken")
	ErrAlreadyArchived  = errors.New("product is already archived")
	ErrNotArchived      = errors.New("product is not archived")
	ErrAlreadyBought    = errors.New("product has already been bought")
	ErrArchivedConflict = errors.New("archived product cannot be bought")
	ErrNoSellerConflict = errors.New("product without a seller cannot be bought")
)

// Authorization
var (
	ErrForbiddenRole      = errors.New("role not suitable for this action")
	ErrInvalidRole        = errors.New("invalid role")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrProductNotFound)
}

// IsConflict reports whether err belongs to the conflict family.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrLoginTaken, ErrEmailTaken, ErrAlreadyArchived, ErrNotArchived,
		ErrAlreadyBought, ErrArchivedConflict, ErrNoSellerConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// detailedError pairs a sentinel with a message naming the offending
// identifier. errors.Is matches the sentinel; Error returns only the message.
type detailedError struct {
	kind error
	msg  string
}

func (e *detailedError) Error() string { return e.msg }

func (e *detailedError) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &detailedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
