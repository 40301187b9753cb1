package teststore

import (
	"context"
	"time"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, u *model.User, p *model.Profile) error {
	if err := u.Validate(); err != nil {
		return err
	}

	if err := u.BeforeCreate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == u.Username {
			return store.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}

	now := time.Now()
	u.CreatedAt = now
	u.Sanitize()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.store.seq++
	p.PKID = r.store.seq
	p.UserID = u.ID
	p.CreatedAt = now
	p.UpdatedAt = now

	storedUser := *u
	storedProfile := *p
	r.store.users[u.ID] = &storedUser
	r.store.profiles[p.ID] = &storedProfile

	p.Username = u.Username
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.Email = u.Email

	return nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}

	return nil, store.ErrRecordNotFound
}

func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return store.ErrRecordNotFound
	}
	delete(r.store.users, id)

	for pid, p := range r.store.profiles {
		if p.UserID != id {
			continue
		}
		delete(r.store.profiles, pid)

		kept := r.store.edges[:0]
		for _, e := range r.store.edges {
			if e.follower == pid || e.followee == pid {
				delete(r.store.index, e)
				continue
			}
			kept = append(kept, e)
		}
		r.store.edges = kept
	}

	return nil
}
