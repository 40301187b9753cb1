package sqlstore

import (
	"context"
	"fmt"

	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/authorsapi/profiles/internal/app/store"
	"github.com/google/uuid"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, u *model.User, p *model.Profile) (err error) {
	if err := u.Validate(); err != nil {
		return err
	}

	if err := u.BeforeCreate(); err != nil {
		return err
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.QueryRowContext(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash, is_staff, is_superuser, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsStaff, u.IsSuperuser, u.IsActive,
	).Scan(&u.CreatedAt); err != nil {
		return translateError(err)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.UserID = u.ID

	if err = tx.QueryRowContext(ctx,
		`INSERT INTO profiles (id, user_id, phone_number, about_me, gender, country, city, profile_photo, twitter_handle)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING pkid, created_at, updated_at`,
		p.ID, p.UserID, p.PhoneNumber, p.AboutMe, p.Gender, p.Country, p.City, p.ProfilePhoto, p.TwitterHandle,
	).Scan(&p.PKID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return translateError(err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.Sanitize()
	p.Username = u.Username
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.Email = u.Email

	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	if err := r.store.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, is_staff, is_superuser, is_active, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.CreatedAt,
	); err != nil {
		return nil, translateError(err)
	}

	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrRecordNotFound
	}

	return nil
}
