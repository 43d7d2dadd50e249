package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/profile"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewProfileRepository(pool *pgxpool.Pool, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		pool: pool,
		log:  log.With("component", "profile_repository"),
	}
}

const profileColumns = `id::text, user_id, is_premium, created_at`

func (r *ProfileRepository) Create(ctx context.Context, id string, userID int) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, user_id) VALUES ($1, $2)
         ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
         RETURNING `+profileColumns,
		id, userID)

	p, err := scanProfile(row)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) FindByUser(ctx context.Context, userID int) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) SetPremium(ctx context.Context, userID int, premium bool) (profile.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE profiles SET is_premium = $2 WHERE user_id = $1 RETURNING `+profileColumns,
		userID, premium)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.IsPremium, &p.CreatedAt)
	return p, err
}
