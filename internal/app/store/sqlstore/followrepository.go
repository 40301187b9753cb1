package sqlstore

import (
	"context"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type FollowRepository struct {
	store *Store
}

// Follow relies on the primary key of profile_follows: a concurrent duplicate
// insert collapses into zero affected rows instead of a second edge.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO profile_follows (follower_id, followee_id) VALUES ($1, $2)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID,
	)
	if err != nil {
		return translateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyFollowing
	}

	return nil
}

func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	res, err := r.store.db.ExecContext(ctx,
		"DELETE FROM profile_follows WHERE follower_id = $1 AND followee_id = $2",
		followerID, followeeID,
	)
	if err != nil {
		return translateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFollowing
	}

	return nil
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM profile_follows WHERE follower_id = $1 AND followee_id = $2)",
		followerID, followeeID,
	).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *FollowRepository) FollowedAmong(ctx context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	followed := make(map[uuid.UUID]bool, len(candidates))
	if len(candidates) == 0 {
		return followed, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.String()
	}

	rows, err := r.store.db.QueryContext(ctx,
		"SELECT followee_id FROM profile_follows WHERE follower_id = $1 AND followee_id = ANY($2::uuid[])",
		followerID, pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		followed[id] = true
	}

	return followed, rows.Err()
}

func (r *FollowRepository) Following(ctx context.Context, profileID uuid.UUID) ([]*model.Profile, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+profileColumns+" "+profileFrom+
			" JOIN profile_follows f ON f.followee_id = p.id WHERE f.follower_id = $1 ORDER BY f.created_at, p.pkid",
		profileID,
	)
	if err != nil {
		return nil, err
	}

	return scanProfiles(rows)
}

func (r *FollowRepository) Followers(ctx context.Context, profileID uuid.UUID) ([]*model.Profile, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+profileColumns+" "+profileFrom+
			" JOIN profile_follows f ON f.follower_id = p.id WHERE f.followee_id = $1 ORDER BY f.created_at, p.pkid",
		profileID,
	)
	if err != nil {
		return nil, err
	}

	return scanProfiles(rows)
}

func (r *FollowRepository) Counts(ctx context.Context, profileID uuid.UUID) (int, int, error) {
	var followers, following int
	if err := r.store.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM profile_follows WHERE followee_id = $1),
			(SELECT count(*) FROM profile_follows WHERE follower_id = $1)`,
		profileID,
	).Scan(&followers, &following); err != nil {
		return 0, 0, err
	}

	return followers, following, nil
}
