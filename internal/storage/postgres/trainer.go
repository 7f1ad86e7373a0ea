package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/creaturebattle/internal/game/progression"
)

// TrainerProgress is the persisted per-player progress outside the creature.
type TrainerProgress struct {
	Trainer      progression.Trainer
	TotalReviews int
}

// TrainerRepository stores trainer progress.
type TrainerRepository struct {
	db *pgxpool.Pool
}

// NewTrainerRepository creates a TrainerRepository backed by the given pool.
func NewTrainerRepository(db *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{db: db}
}

// Load returns the player's progress; a player never saved starts at zero.
func (r *TrainerRepository) Load(ctx context.Context, playerID string) (TrainerProgress, error) {
	var p TrainerProgress
	err := r.db.QueryRow(ctx,
		`SELECT xp, total_reviews FROM trainers WHERE player_id = $1`, playerID,
	).Scan(&p.Trainer.XP, &p.TotalReviews)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return TrainerProgress{}, fmt.Errorf("loading trainer: %w", err)
	}
	return p, nil
}

// Save upserts the player's progress.
func (r *TrainerRepository) Save(ctx context.Context, playerID string, p TrainerProgress) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trainers (player_id, xp, total_reviews)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE
		SET xp = EXCLUDED.xp, total_reviews = EXCLUDED.total_reviews, updated_at = NOW()`,
		playerID, p.Trainer.XP, p.TotalReviews,
	)
	if err != nil {
		return fmt.Errorf("saving trainer: %w", err)
	}
	return nil
}
