package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

const getWeightKg = `SELECT weight_kg FROM profiles WHERE user_id = $1`

const upsertProfile = `
INSERT INTO profiles (user_id, email, full_name, weight_kg)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
    email      = COALESCE(EXCLUDED.email, profiles.email),
    full_name  = COALESCE(EXCLUDED.full_name, profiles.full_name),
    weight_kg  = COALESCE(EXCLUDED.weight_kg, profiles.weight_kg),
    updated_at = now()`

// GetWeightKg returns the profile weight, or core.ErrWeightUnknown when the
// user has no profile or no weight.
func (s *Store) GetWeightKg(ctx context.Context, userID string) (float64, error) {
	var w pgtype.Float8
	err := s.db.QueryRow(ctx, getWeightKg, userID).Scan(&w)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, core.ErrWeightUnknown
	}
	if err != nil {
		return 0, err
	}
	if !w.Valid {
		return 0, core.ErrWeightUnknown
	}
	return w.Float64, nil
}

// UpsertProfile creates or updates a profile. Empty or nil fields keep
// their stored values.
func (s *Store) UpsertProfile(ctx context.Context, userID, email, fullName string, weightKg *float64) error {
	_, err := s.db.Exec(ctx, upsertProfile, userID, toPgText(email), toPgText(fullName), toPgFloat8(weightKg))
	return err
}
