package repository

import (
	"context"
	"fmt"

	"sewconnect-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, display_name, bio, specialty, last_login_at, created_at, updated_at`

func (r *UserRepository) scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.DisplayName,
		&u.Bio, &u.Specialty, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash, role, displayName string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, display_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING `+userColumns,
		username, email, passwordHash, role, displayName,
	)
	u, err := r.scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("duplicate key")
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepository) UpdateLoginTime(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// ListSeamstresses returns the public directory, newest first.
func (r *UserRepository) ListSeamstresses(ctx context.Context) ([]model.SeamstressProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, display_name, bio, specialty
		FROM users
		WHERE role = 'seamstress'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []model.SeamstressProfile
	for rows.Next() {
		var p model.SeamstressProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.Specialty); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if profiles == nil {
		profiles = []model.SeamstressProfile{}
	}
	return profiles, nil
}

func (r *UserRepository) CountTotal(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
