package service

import (
	"errors"

	"github.com/authorsapi/profiles/internal/app/model"
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrForbidden        = errors.New("you can't edit a profile that doesn't belong to you")
	ErrSelfFollow       = errors.New("you can not follow yourself")
	ErrSelfUnfollow     = errors.New("you can not unfollow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

// ValidationError carries per-field problems of a rejected update or registration.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

func asValidationError(err error) (*ValidationError, bool) {
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		return &ValidationError{Fields: fe}, true
	}
	return nil, false
}
