package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/notify"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

// Notifier accepts follow notifications without blocking.
type Notifier interface {
	Dispatch(m notify.Message) bool
}

// FollowGraph mutates and queries the follow relation. The forward edge set is
// the only stored state; followers are always a reverse lookup.
type FollowGraph struct {
	store    store.Store
	notifier Notifier
}

func NewFollowGraph(st store.Store, n Notifier) *FollowGraph {
	return &FollowGraph{
		store:    st,
		notifier: n,
	}
}

func (g *FollowGraph) Follow(ctx context.Context, actor, target *model.Profile) error {
	if actor.ID == target.ID {
		return ErrSelfFollow
	}

	if err := g.store.Follow().Follow(ctx, actor.ID, target.ID); err != nil {
		return translateFollowError(err)
	}

	if g.notifier != nil {
		g.notifier.Dispatch(notify.FollowMessage(actor.Username, target.Email))
	}

	return nil
}

func (g *FollowGraph) Unfollow(ctx context.Context, actor, target *model.Profile) error {
	if actor.ID == target.ID {
		return ErrSelfUnfollow
	}

	if err := g.store.Follow().Unfollow(ctx, actor.ID, target.ID); err != nil {
		return translateFollowError(err)
	}

	return nil
}

func (g *FollowGraph) IsFollowing(ctx context.Context, a, b *model.Profile) (bool, error) {
	return g.store.Follow().IsFollowing(ctx, a.ID, b.ID)
}

func (g *FollowGraph) ListFollowing(ctx context.Context, p *model.Profile) ([]*model.Profile, int, error) {
	profiles, err := g.store.Follow().Following(ctx, p.ID)
	if err != nil {
		return nil, 0, err
	}

	return profiles, len(profiles), nil
}

func (g *FollowGraph) ListFollowers(ctx context.Context, p *model.Profile) ([]*model.Profile, int, error) {
	profiles, err := g.store.Follow().Followers(ctx, p.ID)
	if err != nil {
		return nil, 0, err
	}

	return profiles, len(profiles), nil
}

// FollowedAmong reports which of profiles actor follows. A nil actor follows nobody.
func (g *FollowGraph) FollowedAmong(ctx context.Context, actor *model.Profile, profiles []*model.Profile) (map[uuid.UUID]bool, error) {
	if actor == nil || len(profiles) == 0 {
		return map[uuid.UUID]bool{}, nil
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}

	return g.store.Follow().FollowedAmong(ctx, actor.ID, ids)
}

func (g *FollowGraph) Counts(ctx context.Context, p *model.Profile) (followers int, following int, err error) {
	return g.store.Follow().Counts(ctx, p.ID)
}

func translateFollowError(err error) error {
	switch {
	case errors.Is(err, store.ErrAlreadyFollowing):
		return ErrAlreadyFollowing
	case errors.Is(err, store.ErrNotFollowing):
		return ErrNotFollowing
	case errors.Is(err, store.ErrSelfFollow):
		return ErrSelfFollow
	case errors.Is(err, store.ErrRecordNotFound):
		return ErrNotFound
	}

	return fmt.Errorf("follow store: %w", err)
}
