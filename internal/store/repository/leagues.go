package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// ErrNotFound is returned when a lookup matches no rows. Callers translate
// it into an empty result or a 404 at the presentation boundary.
var ErrNotFound = errors.New("not found")

// LeagueRepository handles league and stat category access.
type LeagueRepository struct {
	db *store.Database
}

// NewLeagueRepository creates a new league repository.
func NewLeagueRepository(db *store.Database) *LeagueRepository {
	return &LeagueRepository{db: db}
}

const leagueColumns = `league_key, season, name, sport, num_teams, scoring_type,
	num_scoring_stats, current_week, start_week, end_week, playoff_start_week,
	uses_faab, is_finished, synced_at`

// Upsert inserts or replaces a league row.
func (r *LeagueRepository) Upsert(ctx context.Context, ex store.Execer, l *store.League) error {
	query := `
		INSERT INTO league (` + leagueColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
		ON CONFLICT (league_key) DO UPDATE SET
			season = EXCLUDED.season,
			name = EXCLUDED.name,
			sport = EXCLUDED.sport,
			num_teams = EXCLUDED.num_teams,
			scoring_type = EXCLUDED.scoring_type,
			num_scoring_stats = EXCLUDED.num_scoring_stats,
			current_week = EXCLUDED.current_week,
			start_week = EXCLUDED.start_week,
			end_week = EXCLUDED.end_week,
			playoff_start_week = EXCLUDED.playoff_start_week,
			uses_faab = EXCLUDED.uses_faab,
			is_finished = EXCLUDED.is_finished,
			synced_at = NOW()
	`

	_, err := ex.ExecContext(ctx, query,
		l.LeagueKey, l.Season, l.Name, l.Sport, l.NumTeams, l.ScoringType,
		l.NumScoringStats, l.CurrentWeek, l.StartWeek, l.EndWeek, l.PlayoffStartWeek,
		l.UsesFAAB, l.IsFinished,
	)
	if err != nil {
		return fmt.Errorf("upserting league: %w", err)
	}
	return nil
}

// Get returns a league by key.
func (r *LeagueRepository) Get(ctx context.Context, leagueKey string) (*store.League, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+leagueColumns+` FROM league WHERE league_key = $1`, leagueKey)
	return scanLeague(row)
}

// GetLatest returns the most recently synced league by season.
func (r *LeagueRepository) GetLatest(ctx context.Context) (*store.League, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+leagueColumns+` FROM league ORDER BY season DESC LIMIT 1`)
	return scanLeague(row)
}

// AllSeasons returns every synced league ordered by most recent first.
func (r *LeagueRepository) AllSeasons(ctx context.Context) ([]*store.League, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+leagueColumns+` FROM league ORDER BY season DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var leagues []*store.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

// RepairWeeks overwrites the source's self-reported week bounds with ones
// derived from ingested matchup rows. Historical seasons frequently arrive
// with swapped start/end weeks or a current_week from the live season.
func (r *LeagueRepository) RepairWeeks(ctx context.Context, leagueKey string, startWeek, endWeek int, playoffStart sql.NullInt32) error {
	query := `
		UPDATE league
		SET start_week = $2,
			end_week = $3,
			playoff_start_week = $4,
			current_week = CASE WHEN is_finished THEN $3 ELSE current_week END
		WHERE league_key = $1
	`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, startWeek, endWeek, playoffStart); err != nil {
		return fmt.Errorf("repairing league weeks: %w", err)
	}
	return nil
}

// UpsertStatCategory inserts or replaces one stat category definition.
func (r *LeagueRepository) UpsertStatCategory(ctx context.Context, ex store.Execer, c *store.StatCategory) error {
	query := `
		INSERT INTO stat_category (league_key, stat_id, name, display_name,
			sort_order, position_type, is_only_display, is_scoring_stat)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (league_key, stat_id) DO UPDATE SET
			name = EXCLUDED.name,
			display_name = EXCLUDED.display_name,
			sort_order = EXCLUDED.sort_order,
			position_type = EXCLUDED.position_type,
			is_only_display = EXCLUDED.is_only_display,
			is_scoring_stat = EXCLUDED.is_scoring_stat
	`
	_, err := ex.ExecContext(ctx, query,
		c.LeagueKey, c.StatID, c.Name, c.DisplayName,
		c.SortOrder, c.PositionType, c.IsOnlyDisplay, c.IsScoringStat,
	)
	if err != nil {
		return fmt.Errorf("upserting stat category: %w", err)
	}
	return nil
}

// ScoringCategories returns the scoring stat categories for a league.
func (r *LeagueRepository) ScoringCategories(ctx context.Context, leagueKey string) ([]*store.StatCategory, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, stat_id, name, display_name, sort_order,
			position_type, is_only_display, is_scoring_stat
		FROM stat_category
		WHERE league_key = $1 AND is_scoring_stat
		ORDER BY stat_id
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying scoring categories: %w", err)
	}
	defer rows.Close()

	return scanStatCategories(rows)
}

func scanLeague(scanner interface{ Scan(dest ...interface{}) error }) (*store.League, error) {
	l := &store.League{}
	err := scanner.Scan(
		&l.LeagueKey, &l.Season, &l.Name, &l.Sport, &l.NumTeams, &l.ScoringType,
		&l.NumScoringStats, &l.CurrentWeek, &l.StartWeek, &l.EndWeek, &l.PlayoffStartWeek,
		&l.UsesFAAB, &l.IsFinished, &l.SyncedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning league: %w", err)
	}
	return l, nil
}

func scanStatCategories(rows *sql.Rows) ([]*store.StatCategory, error) {
	var cats []*store.StatCategory
	for rows.Next() {
		c := &store.StatCategory{}
		err := rows.Scan(
			&c.LeagueKey, &c.StatID, &c.Name, &c.DisplayName, &c.SortOrder,
			&c.PositionType, &c.IsOnlyDisplay, &c.IsScoringStat,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stat category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}
