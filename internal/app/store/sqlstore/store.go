package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

type Store struct {
	db                *sql.DB
	userRepository    *UserRepository
	profileRepository *ProfileRepository
	followRepository  *FollowRepository
}

func New(db *sql.DB) *Store {
	s := &Store{
		db: db,
	}
	s.userRepository = &UserRepository{store: s}
	s.profileRepository = &ProfileRepository{store: s}
	s.followRepository = &FollowRepository{store: s}

	return s
}

func (s *Store) User() store.UserRepository {
	return s.userRepository
}

func (s *Store) Profile() store.ProfileRepository {
	return s.profileRepository
}

func (s *Store) Follow() store.FollowRepository {
	return s.followRepository
}

// translateError maps driver errors onto store sentinels.
func translateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrRecordNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case "users_username_key":
			return store.ErrDuplicateUsername
		case "users_email_key":
			return store.ErrDuplicateEmail
		}
	case pqCheckViolation:
		if pqErr.Constraint == "profile_follows_no_self_follow" {
			return store.ErrSelfFollow
		}
	case pqForeignKeyViolation:
		return store.ErrRecordNotFound
	}

	return err
}
