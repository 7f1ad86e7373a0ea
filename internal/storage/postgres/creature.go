package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/creaturebattle/internal/game/creature"
)

// ErrCreatureNotFound is returned when a player has no saved creature.
var ErrCreatureNotFound = errors.New("creature not found")

// CreatureRepository stores creature records as JSONB.
type CreatureRepository struct {
	db               *pgxpool.Pool
	levelCapDisabled bool
}

// NewCreatureRepository creates a CreatureRepository backed by the given pool.
// levelCapDisabled is applied when validating loaded records.
//
// Precondition: db must be a valid, open connection pool.
func NewCreatureRepository(db *pgxpool.Pool, levelCapDisabled bool) *CreatureRepository {
	return &CreatureRepository{db: db, levelCapDisabled: levelCapDisabled}
}

// SaveMain stores c as the player's main creature, replacing any previous one.
//
// Precondition: playerID must be non-empty.
func (r *CreatureRepository) SaveMain(ctx context.Context, playerID string, c *creature.Creature) error {
	data, err := creature.MarshalRecord(c)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO player_creatures (player_id, individual_id, species, level, record)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE
		SET individual_id = EXCLUDED.individual_id,
		    species       = EXCLUDED.species,
		    level         = EXCLUDED.level,
		    record        = EXCLUDED.record,
		    updated_at    = NOW()`,
		playerID, c.IndividualID, c.Species, c.Level, data,
	)
	if err != nil {
		return fmt.Errorf("saving main creature: %w", err)
	}
	return nil
}

// LoadMain returns the player's main creature.
//
// Postcondition: Returns ErrCreatureNotFound when none is saved, or an error
// wrapping creature.ErrCorruptRecord when the stored record is unusable.
func (r *CreatureRepository) LoadMain(ctx context.Context, playerID string) (*creature.Creature, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT record FROM player_creatures WHERE player_id = $1`, playerID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCreatureNotFound
		}
		return nil, fmt.Errorf("loading main creature: %w", err)
	}
	return creature.UnmarshalRecord(data, r.levelCapDisabled)
}

// SaveCaught adds c to the player's collection. Saving the same individual
// twice is a no-op; the result reports whether a row was inserted.
func (r *CreatureRepository) SaveCaught(ctx context.Context, playerID string, c *creature.Creature) (bool, error) {
	data, err := creature.MarshalRecord(c)
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO caught_creatures (player_id, individual_id, species, level, record)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (individual_id) DO NOTHING`,
		playerID, c.IndividualID, c.Species, c.Level, data,
	)
	if err != nil {
		return false, fmt.Errorf("saving caught creature: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListCaught returns the player's caught creatures in catch order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CreatureRepository) ListCaught(ctx context.Context, playerID string) ([]*creature.Creature, error) {
	rows, err := r.db.Query(ctx, `
		SELECT record FROM caught_creatures
		WHERE player_id = $1 ORDER BY caught_at ASC, id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing caught creatures: %w", err)
	}
	defer rows.Close()

	out := make([]*creature.Creature, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning caught creature: %w", err)
		}
		c, err := creature.UnmarshalRecord(data, r.levelCapDisabled)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating caught creatures: %w", err)
	}
	return out, nil
}
