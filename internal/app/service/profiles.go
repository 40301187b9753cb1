package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authorsapi/profiles/internal/app/cache"
	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Offset int
	Limit  int
}

type PageResult struct {
	Profiles []*model.Profile
	Total    int
	Offset   int
	Limit    int
}

// Profiles serves profile reads, owner updates and registration.
type Profiles struct {
	store    store.Store
	gate     Gate
	cache    cache.Cache
	logger   logrus.FieldLogger
	pageSize int
}

func NewProfiles(st store.Store, c cache.Cache, logger logrus.FieldLogger, pageSize int) *Profiles {
	if c == nil {
		c = cache.Nop{}
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return &Profiles{
		store:    st,
		cache:    c,
		logger:   logger,
		pageSize: pageSize,
	}
}

func cacheKey(username string) string {
	return "profile:" + username
}

// GetDetail accepts either a profile id or a username.
func (s *Profiles) GetDetail(ctx context.Context, usernameOrID string) (*model.Profile, error) {
	if id, err := uuid.Parse(usernameOrID); err == nil {
		p, err := s.store.Profile().FindByID(ctx, id)
		if err != nil {
			return nil, translateLookupError(err)
		}
		return p, nil
	}

	key := cacheKey(usernameOrID)
	if data, err := s.cache.Get(key); err == nil {
		p := &model.Profile{}
		if err := json.Unmarshal(data, p); err == nil {
			return p, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WithField("key", key).Debugf("cache get: %v", err)
	}

	p, err := s.Lookup(ctx, usernameOrID)
	if err != nil {
		return nil, err
	}

	// Add never replaces an entry written by a concurrent Update.
	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Add(key, data); err != nil {
			s.logger.WithField("key", key).Debugf("cache add: %v", err)
		}
	}

	return p, nil
}

// Lookup reads straight from the store, bypassing the cache.
func (s *Profiles) Lookup(ctx context.Context, username string) (*model.Profile, error) {
	p, err := s.store.Profile().FindByUsername(ctx, username)
	if err != nil {
		return nil, translateLookupError(err)
	}

	return p, nil
}

func (s *Profiles) ListAll(ctx context.Context, page Page) (*PageResult, error) {
	if page.Limit <= 0 {
		page.Limit = s.pageSize
	}
	if page.Limit > MaxPageSize {
		page.Limit = MaxPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}

	profiles, total, err := s.store.Profile().List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}

	return &PageResult{
		Profiles: profiles,
		Total:    total,
		Offset:   page.Offset,
		Limit:    page.Limit,
	}, nil
}

// Update applies a partial update on behalf of actorUsername.
func (s *Profiles) Update(ctx context.Context, actorUsername, targetUsername string, patch *model.ProfilePatch) (*model.Profile, error) {
	p, err := s.Lookup(ctx, targetUsername)
	if err != nil {
		return nil, err
	}

	if err := s.gate.AuthorizeProfileUpdate(actorUsername, targetUsername); err != nil {
		return nil, err
	}

	if err := patch.Validate(); err != nil {
		if ve, ok := asValidationError(err); ok {
			return nil, ve
		}
		return nil, err
	}

	if patch.Empty() {
		return p, nil
	}

	patch.Apply(p)
	if err := s.store.Profile().Update(ctx, p); err != nil {
		return nil, translateLookupError(err)
	}

	s.refreshCache(p)

	return p, nil
}

// Register creates a user together with its default profile.
func (s *Profiles) Register(ctx context.Context, u *model.User) (*model.Profile, error) {
	p := model.NewProfile(u.ID)

	err := s.store.User().Create(ctx, u, p)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, store.ErrDuplicateUsername):
		return nil, &ValidationError{Fields: model.FieldErrors{"username": "a user with that username already exists"}}
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, &ValidationError{Fields: model.FieldErrors{"email": "a user with that email already exists"}}
	}

	if ve, ok := asValidationError(err); ok {
		return nil, ve
	}

	return nil, fmt.Errorf("create user: %w", err)
}

// refreshCache writes p through to the cache, dropping the entry when the write fails.
func (s *Profiles) refreshCache(p *model.Profile) {
	key := cacheKey(p.Username)

	data, err := json.Marshal(p)
	if err == nil {
		err = s.cache.Set(key, data)
	}
	if err == nil {
		return
	}

	if err := s.cache.Delete(key); err != nil {
		s.logger.WithField("username", p.Username).Warnf("cache invalidation failed: %v", err)
	}
}

func translateLookupError(err error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
