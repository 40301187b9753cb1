package sqlstore

import (
	"context"
	"database/sql"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/google/uuid"
)

const profileColumns = `p.pkid, p.id, p.user_id, u.username, u.first_name, u.last_name, u.email,
	p.phone_number, p.about_me, p.gender, p.country, p.city, p.profile_photo, p.twitter_handle,
	p.created_at, p.updated_at`

const profileFrom = `FROM profiles p JOIN users u ON u.id = p.user_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*model.Profile, error) {
	p := &model.Profile{}
	if err := row.Scan(
		&p.PKID, &p.ID, &p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Email,
		&p.PhoneNumber, &p.AboutMe, &p.Gender, &p.Country, &p.City, &p.ProfilePhoto, &p.TwitterHandle,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return p, nil
}

func scanProfiles(rows *sql.Rows) ([]*model.Profile, error) {
	defer rows.Close()

	profiles := []*model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (*model.Profile, error) {
	p, err := scanProfile(r.store.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" "+profileFrom+" WHERE u.username = $1", username))
	if err != nil {
		return nil, translateError(err)
	}

	return p, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	p, err := scanProfile(r.store.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" "+profileFrom+" WHERE p.id = $1", id))
	if err != nil {
		return nil, translateError(err)
	}

	return p, nil
}

func (r *ProfileRepository) List(ctx context.Context, offset, limit int) ([]*model.Profile, int, error) {
	var total int
	if err := r.store.db.QueryRowContext(ctx, "SELECT count(*) FROM profiles").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+profileColumns+" "+profileFrom+" ORDER BY p.created_at, p.pkid LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}

	profiles, err := scanProfiles(rows)
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *model.Profile) error {
	if err := r.store.db.QueryRowContext(ctx,
		`UPDATE profiles SET phone_number = $2, about_me = $3, gender = $4, country = $5, city = $6,
		 profile_photo = $7, twitter_handle = $8, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		p.ID, p.PhoneNumber, p.AboutMe, p.Gender, p.Country, p.City, p.ProfilePhoto, p.TwitterHandle,
	).Scan(&p.UpdatedAt); err != nil {
		return translateError(err)
	}

	return nil
}
