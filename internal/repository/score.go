// Package repository provides the data access layer for the scoreboard.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-game-bot/internal/model"
)

// ScoreRepository is the append-only score ledger backed by PostgreSQL.
// Entries are never mutated or deleted through this interface; the
// database serializes concurrent appends and queries.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository instance.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Add appends one score entry to the ledger.
func (r *ScoreRepository) Add(ctx context.Context, e model.ScoreEntry) error {
	const query = `
		INSERT INTO scoreboard (score, user_id, state, turns, username, channel, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		e.Score, e.UserID, e.State, e.Turns, e.Username, e.Channel, e.Date)
	if err != nil {
		return fmt.Errorf("failed to add score entry: %w", err)
	}
	return nil
}

// Top returns score entries ordered by score descending, optionally
// restricted to entries newer than the period cutoff and/or to a single
// player, with limit/offset paging.
func (r *ScoreRepository) Top(ctx context.Context, period model.TimePeriod, limit, offset int, userID *int64) ([]model.ScoreEntry, error) {
	const query = `
		SELECT score, user_id, state, turns, username, channel, date
		FROM scoreboard
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::bigint IS NULL OR user_id = $2)
		ORDER BY score DESC
		LIMIT $3 OFFSET $4
	`

	var cutoff *time.Time
	if period != model.PeriodAll {
		c := period.Cutoff(time.Now())
		cutoff = &c
	}

	rows, err := r.pool.Query(ctx, query, cutoff, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoreboard: %w", err)
	}
	defer rows.Close()

	var entries []model.ScoreEntry
	for rows.Next() {
		var e model.ScoreEntry
		err := rows.Scan(
			&e.Score,
			&e.UserID,
			&e.State,
			&e.Turns,
			&e.Username,
			&e.Channel,
			&e.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score entries: %w", err)
	}

	return entries, nil
}
