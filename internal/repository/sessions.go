package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinema-booking/internal/booking"
	"github.com/Clark-Hu/cinema-booking/internal/sessions"
)

// SessionsRepository stores wizard snapshots in the booking_sessions table.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

var (
	_ sessions.Store        = (*SessionsRepository)(nil)
	_ sessions.StageCounter = (*SessionsRepository)(nil)
)

// Save upserts the snapshot and pushes its expiry forward.
func (r *SessionsRepository) Save(ctx context.Context, id string, snap booking.Snapshot, expiresAt time.Time) error {
	const query = `
        INSERT INTO booking_sessions (id, movie_id, stage, snapshot, expires_at)
        VALUES ($1, $2, $3, $4::jsonb, $5)
        ON CONFLICT (id)
        DO UPDATE SET movie_id = EXCLUDED.movie_id,
                      stage = EXCLUDED.stage,
                      snapshot = EXCLUDED.snapshot,
                      expires_at = EXCLUDED.expires_at,
                      updated_at = now()
    `

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, id, snap.Movie.ID, snap.Stage.String(), string(payload), expiresAt.UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns a live snapshot, or sessions.ErrNotFound once it has expired.
func (r *SessionsRepository) Load(ctx context.Context, id string) (booking.Snapshot, error) {
	const query = `
        SELECT snapshot
        FROM booking_sessions
        WHERE id = $1 AND expires_at > now()
    `

	var payload []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Snapshot{}, sessions.ErrNotFound
		}
		return booking.Snapshot{}, fmt.Errorf("load session: %w", err)
	}

	var snap booking.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return booking.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM booking_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (r *SessionsRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM booking_sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountByStage reports live sessions per wizard stage.
func (r *SessionsRepository) CountByStage(ctx context.Context) (map[string]int64, error) {
	const query = `
        SELECT stage, COUNT(*)::int8
        FROM booking_sessions
        WHERE expires_at > now()
        GROUP BY stage
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			stage string
			n     int64
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan session count: %w", err)
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}
