package store

import (
	"context"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/google/uuid"
)

type UserRepository interface {
	// Create persists the user together with its profile.
	Create(ctx context.Context, u *model.User, p *model.Profile) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Delete removes the user; its profile and follow edges go with it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// List returns one page ordered by creation, and the total number of profiles.
	List(ctx context.Context, offset, limit int) ([]*model.Profile, int, error)
	Update(ctx context.Context, p *model.Profile) error
}

// FollowRepository owns the directed follower -> followee edges.
type FollowRepository interface {
	// Follow adds the edge atomically. ErrAlreadyFollowing if it exists.
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	// Unfollow removes the edge atomically. ErrNotFollowing if absent.
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	// FollowedAmong reports which of candidates the follower follows.
	FollowedAmong(ctx context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error)
	Following(ctx context.Context, profileID uuid.UUID) ([]*model.Profile, error)
	Followers(ctx context.Context, profileID uuid.UUID) ([]*model.Profile, error)
	Counts(ctx context.Context, profileID uuid.UUID) (followers int, following int, err error)
}
