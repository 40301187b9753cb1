package teststore

import (
	"sync"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

type edge struct {
	follower uuid.UUID
	followee uuid.UUID
}

// Store keeps everything in memory behind one mutex, so every repository
// call is atomic with respect to the others.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[uuid.UUID]*model.User
	profiles map[uuid.UUID]*model.Profile
	// edges keeps insertion order; index answers membership.
	edges []edge
	index map[edge]struct{}

	userRepository    *UserRepository
	profileRepository *ProfileRepository
	followRepository  *FollowRepository
}

func New() *Store {
	s := &Store{
		users:    make(map[uuid.UUID]*model.User),
		profiles: make(map[uuid.UUID]*model.Profile),
		index:    make(map[edge]struct{}),
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

// profileView returns a detached copy joined with the owner's identity.
func (s *Store) profileView(p *model.Profile) *model.Profile {
	cp := *p
	if u, ok := s.users[p.UserID]; ok {
		cp.Username = u.Username
		cp.FirstName = u.FirstName
		cp.LastName = u.LastName
		cp.Email = u.Email
	}
	return &cp
}
