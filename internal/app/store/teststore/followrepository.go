package teststore

import (
	"context"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

type FollowRepository struct {
	store *Store
}

func (r *FollowRepository) Follow(_ context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return store.ErrSelfFollow
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.profiles[followerID]; !ok {
		return store.ErrRecordNotFound
	}
	if _, ok := r.store.profiles[followeeID]; !ok {
		return store.ErrRecordNotFound
	}

	e := edge{follower: followerID, followee: followeeID}
	if _, ok := r.store.index[e]; ok {
		return store.ErrAlreadyFollowing
	}

	r.store.index[e] = struct{}{}
	r.store.edges = append(r.store.edges, e)

	return nil
}

func (r *FollowRepository) Unfollow(_ context.Context, followerID, followeeID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e := edge{follower: followerID, followee: followeeID}
	if _, ok := r.store.index[e]; !ok {
		return store.ErrNotFollowing
	}

	delete(r.store.index, e)
	for i, existing := range r.store.edges {
		if existing == e {
			r.store.edges = append(r.store.edges[:i], r.store.edges[i+1:]...)
			break
		}
	}

	return nil
}

func (r *FollowRepository) IsFollowing(_ context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.index[edge{follower: followerID, followee: followeeID}]
	return ok, nil
}

func (r *FollowRepository) FollowedAmong(_ context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	followed := make(map[uuid.UUID]bool, len(candidates))
	for _, c := range candidates {
		if _, ok := r.store.index[edge{follower: followerID, followee: c}]; ok {
			followed[c] = true
		}
	}

	return followed, nil
}

func (r *FollowRepository) Following(_ context.Context, profileID uuid.UUID) ([]*model.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	profiles := []*model.Profile{}
	for _, e := range r.store.edges {
		if e.follower == profileID {
			profiles = append(profiles, r.store.profileView(r.store.profiles[e.followee]))
		}
	}

	return profiles, nil
}

func (r *FollowRepository) Followers(_ context.Context, profileID uuid.UUID) ([]*model.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	profiles := []*model.Profile{}
	for _, e := range r.store.edges {
		if e.followee == profileID {
			profiles = append(profiles, r.store.profileView(r.store.profiles[e.follower]))
		}
	}

	return profiles, nil
}

func (r *FollowRepository) Counts(_ context.Context, profileID uuid.UUID) (int, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var followers, following int
	for _, e := range r.store.edges {
		if e.followee == profileID {
			followers++
		}
		if e.follower == profileID {
			following++
		}
	}

	return followers, following, nil
}
