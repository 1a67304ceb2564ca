package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// SyncLogRepository tracks per-unit sync completion.
type SyncLogRepository struct {
	db *store.Database
}

// NewSyncLogRepository creates a new sync log repository.
func NewSyncLogRepository(db *store.Database) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// IsCompleted reports whether a sync unit already finished successfully.
func (r *SyncLogRepository) IsCompleted(ctx context.Context, leagueKey, syncType string, week int) (bool, error) {
	var status string
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT status FROM sync_log
		WHERE league_key = $1 AND sync_type = $2 AND week = $3
	`, leagueKey, syncType, week).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying sync log: %w", err)
	}
	return status == store.SyncStatusCompleted, nil
}

// Start marks a unit as running. Called outside the unit's transaction so a
// crash leaves a visible "running" row rather than nothing.
func (r *SyncLogRepository) Start(ctx context.Context, leagueKey, syncType string, week int) error {
	query := `
		INSERT INTO sync_log (league_key, sync_type, week, status, started_at,
			completed_at, records_written, error_message)
		VALUES ($1,$2,$3,$4,NOW(),NULL,0,'')
		ON CONFLICT (league_key, sync_type, week) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = NOW(),
			completed_at = NULL,
			records_written = 0,
			error_message = ''
	`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, syncType, week, store.SyncStatusRunning); err != nil {
		return fmt.Errorf("starting sync log: %w", err)
	}
	return nil
}

// Complete marks a unit as completed inside the unit's transaction, so the
// completion row commits atomically with the unit's data.
func (r *SyncLogRepository) Complete(ctx context.Context, ex store.Execer, leagueKey, syncType string, week, records int) error {
	query := `
		UPDATE sync_log
		SET status = $4, completed_at = NOW(), records_written = $5, error_message = ''
		WHERE league_key = $1 AND sync_type = $2 AND week = $3
	`
	if _, err := ex.ExecContext(ctx, query, leagueKey, syncType, week, store.SyncStatusCompleted, records); err != nil {
		return fmt.Errorf("completing sync log: %w", err)
	}
	return nil
}

// Fail marks a unit as failed with the error message.
func (r *SyncLogRepository) Fail(ctx context.Context, leagueKey, syncType string, week int, cause error) error {
	query := `
		UPDATE sync_log
		SET status = $4, completed_at = NOW(), error_message = $5
		WHERE league_key = $1 AND sync_type = $2 AND week = $3
	`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, syncType, week, store.SyncStatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("failing sync log: %w", err)
	}
	return nil
}

// ResetFrom deletes log rows for one unit type at or after a week, so an
// incremental sync replays the still-moving part of a season.
func (r *SyncLogRepository) ResetFrom(ctx context.Context, leagueKey, syncType string, fromWeek int) error {
	query := `DELETE FROM sync_log WHERE league_key = $1 AND sync_type = $2 AND week >= $3`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, syncType, fromWeek); err != nil {
		return fmt.Errorf("resetting sync log from week: %w", err)
	}
	return nil
}

// Reset deletes the log rows for one unit type so the next sync replays it.
func (r *SyncLogRepository) Reset(ctx context.Context, leagueKey, syncType string) error {
	query := `DELETE FROM sync_log WHERE league_key = $1 AND sync_type = $2`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, syncType); err != nil {
		return fmt.Errorf("resetting sync log: %w", err)
	}
	return nil
}

// ForLeague returns the full sync log for one league.
func (r *SyncLogRepository) ForLeague(ctx context.Context, leagueKey string) ([]*store.SyncLog, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, sync_type, week, status, started_at, completed_at,
			records_written, error_message
		FROM sync_log WHERE league_key = $1
		ORDER BY sync_type, week
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying sync log rows: %w", err)
	}
	defer rows.Close()

	var logs []*store.SyncLog
	for rows.Next() {
		l := &store.SyncLog{}
		if err := rows.Scan(&l.LeagueKey, &l.SyncType, &l.Week, &l.Status,
			&l.StartedAt, &l.CompletedAt, &l.RecordsWritten, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
