package store

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrAlreadyFollowing  = errors.New("follow edge already exists")
	ErrNotFollowing      = errors.New("follow edge does not exist")
	ErrSelfFollow        = errors.New("profile cannot follow itself")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
)
