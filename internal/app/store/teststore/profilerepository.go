package teststore

import (
	"context"
	"sort"
	"time"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) FindByUsername(_ context.Context, username string) (*model.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.profiles {
		if u, ok := r.store.users[p.UserID]; ok && u.Username == username {
			return r.store.profileView(p), nil
		}
	}

	return nil, store.ErrRecordNotFound
}

func (r *ProfileRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.profiles[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}

	return r.store.profileView(p), nil
}

func (r *ProfileRepository) List(_ context.Context, offset, limit int) ([]*model.Profile, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]*model.Profile, 0, len(r.store.profiles))
	for _, p := range r.store.profiles {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PKID < all[j].PKID })

	total := len(all)
	if offset >= total {
		return []*model.Profile{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*model.Profile, 0, end-offset)
	for _, p := range all[offset:end] {
		page = append(page, r.store.profileView(p))
	}

	return page, total, nil
}

func (r *ProfileRepository) Update(_ context.Context, p *model.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.profiles[p.ID]
	if !ok {
		return store.ErrRecordNotFound
	}

	stored.PhoneNumber = p.PhoneNumber
	stored.AboutMe = p.AboutMe
	stored.Gender = p.Gender
	stored.Country = p.Country
	stored.City = p.City
	stored.ProfilePhoto = p.ProfilePhoto
	stored.TwitterHandle = p.TwitterHandle
	stored.UpdatedAt = time.Now()
	p.UpdatedAt = stored.UpdatedAt

	return nil
}
