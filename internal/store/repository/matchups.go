package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// MatchupRepository handles matchup and per-category result access.
type MatchupRepository struct {
	db *store.Database
}

// NewMatchupRepository creates a new matchup repository.
func NewMatchupRepository(db *store.Database) *MatchupRepository {
	return &MatchupRepository{db: db}
}

const matchupColumns = `league_key, week, matchup_id, team_key_1, team_key_2,
	cats_won_1, cats_won_2, cats_tied, winner_team_key, is_tied,
	is_playoffs, is_consolation, week_start, week_end`

// Upsert inserts or replaces a matchup row.
func (r *MatchupRepository) Upsert(ctx context.Context, ex store.Execer, m *store.Matchup) error {
	query := `
		INSERT INTO matchup (` + matchupColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (league_key, week, matchup_id) DO UPDATE SET
			team_key_1 = EXCLUDED.team_key_1,
			team_key_2 = EXCLUDED.team_key_2,
			cats_won_1 = EXCLUDED.cats_won_1,
			cats_won_2 = EXCLUDED.cats_won_2,
			cats_tied = EXCLUDED.cats_tied,
			winner_team_key = EXCLUDED.winner_team_key,
			is_tied = EXCLUDED.is_tied,
			is_playoffs = EXCLUDED.is_playoffs,
			is_consolation = EXCLUDED.is_consolation,
			week_start = EXCLUDED.week_start,
			week_end = EXCLUDED.week_end
	`
	_, err := ex.ExecContext(ctx, query,
		m.LeagueKey, m.Week, m.MatchupID, m.TeamKey1, m.TeamKey2,
		m.CatsWon1, m.CatsWon2, m.CatsTied, m.WinnerTeamKey, m.IsTied,
		m.IsPlayoffs, m.IsConsolation, m.WeekStart, m.WeekEnd,
	)
	if err != nil {
		return fmt.Errorf("upserting matchup: %w", err)
	}
	return nil
}

// UpsertCategory inserts or replaces one per-category matchup result.
func (r *MatchupRepository) UpsertCategory(ctx context.Context, ex store.Execer, c *store.MatchupCategory) error {
	query := `
		INSERT INTO matchup_category (league_key, week, matchup_id, stat_id,
			team_1_value, team_2_value, winner_team_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (league_key, week, matchup_id, stat_id) DO UPDATE SET
			team_1_value = EXCLUDED.team_1_value,
			team_2_value = EXCLUDED.team_2_value,
			winner_team_key = EXCLUDED.winner_team_key
	`
	_, err := ex.ExecContext(ctx, query,
		c.LeagueKey, c.Week, c.MatchupID, c.StatID,
		c.Team1Value, c.Team2Value, c.WinnerTeamKey,
	)
	if err != nil {
		return fmt.Errorf("upserting matchup category: %w", err)
	}
	return nil
}

// ThroughWeek returns every matchup in a league up to and including the
// given week, ordered by week then matchup id. A week of zero or less
// returns the whole season.
func (r *MatchupRepository) ThroughWeek(ctx context.Context, leagueKey string, week int) ([]*store.Matchup, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+matchupColumns+` FROM matchup
		 WHERE league_key = $1 AND ($2 <= 0 OR week <= $2)
		 ORDER BY week, matchup_id`, leagueKey, week)
	if err != nil {
		return nil, fmt.Errorf("querying matchups: %w", err)
	}
	defer rows.Close()

	return scanMatchups(rows)
}

// PlayoffMatchups returns the playoff-week matchups for a league in week
// order, consolation games excluded.
func (r *MatchupRepository) PlayoffMatchups(ctx context.Context, leagueKey string) ([]*store.Matchup, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+matchupColumns+` FROM matchup
		 WHERE league_key = $1 AND is_playoffs AND NOT is_consolation
		 ORDER BY week, matchup_id`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying playoff matchups: %w", err)
	}
	defer rows.Close()

	return scanMatchups(rows)
}

// Categories returns the per-category results for one matchup.
func (r *MatchupRepository) Categories(ctx context.Context, leagueKey string, week, matchupID int) ([]*store.MatchupCategory, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, week, matchup_id, stat_id, team_1_value, team_2_value, winner_team_key
		FROM matchup_category
		WHERE league_key = $1 AND week = $2 AND matchup_id = $3
		ORDER BY stat_id
	`, leagueKey, week, matchupID)
	if err != nil {
		return nil, fmt.Errorf("querying matchup categories: %w", err)
	}
	defer rows.Close()

	var cats []*store.MatchupCategory
	for rows.Next() {
		c := &store.MatchupCategory{}
		err := rows.Scan(&c.LeagueKey, &c.Week, &c.MatchupID, &c.StatID,
			&c.Team1Value, &c.Team2Value, &c.WinnerTeamKey)
		if err != nil {
			return nil, fmt.Errorf("scanning matchup category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryWinCounts returns how many times each team won each category
// through a week, keyed by team then stat id. A week of zero or less covers
// the whole season.
func (r *MatchupRepository) CategoryWinCounts(ctx context.Context, leagueKey string, week int) (map[string]map[int]int, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT winner_team_key, stat_id, COUNT(*)
		FROM matchup_category
		WHERE league_key = $1 AND winner_team_key IS NOT NULL
			AND ($2 <= 0 OR week <= $2)
		GROUP BY winner_team_key, stat_id
	`, leagueKey, week)
	if err != nil {
		return nil, fmt.Errorf("querying category wins: %w", err)
	}
	defer rows.Close()

	wins := make(map[string]map[int]int)
	for rows.Next() {
		var teamKey string
		var statID, n int
		if err := rows.Scan(&teamKey, &statID, &n); err != nil {
			return nil, fmt.Errorf("scanning category wins: %w", err)
		}
		if wins[teamKey] == nil {
			wins[teamKey] = make(map[int]int)
		}
		wins[teamKey][statID] = n
	}
	return wins, rows.Err()
}

// WeekBounds describes what the ingested matchups say about a league's
// schedule, independent of the source's self-reported settings.
type WeekBounds struct {
	MinWeek        int
	MaxWeek        int
	MinPlayoffWeek sql.NullInt32
	HasMatchups    bool
}

// ObservedWeekBounds derives the real start, end, and playoff start weeks
// from matchup rows.
func (r *MatchupRepository) ObservedWeekBounds(ctx context.Context, leagueKey string) (*WeekBounds, error) {
	b := &WeekBounds{}
	var minWeek, maxWeek sql.NullInt32
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT MIN(week), MAX(week),
			MIN(week) FILTER (WHERE is_playoffs)
		FROM matchup WHERE league_key = $1
	`, leagueKey).Scan(&minWeek, &maxWeek, &b.MinPlayoffWeek)
	if err != nil {
		return nil, fmt.Errorf("querying week bounds: %w", err)
	}
	if minWeek.Valid {
		b.HasMatchups = true
		b.MinWeek = int(minWeek.Int32)
		b.MaxWeek = int(maxWeek.Int32)
	}
	return b, nil
}

// WeekDates returns the start and end dates of every week in a league,
// taken from any matchup in that week.
func (r *MatchupRepository) WeekDates(ctx context.Context, leagueKey string) (map[int]store.WeekSpan, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT DISTINCT ON (week) week, week_start, week_end
		FROM matchup
		WHERE league_key = $1 AND week_start IS NOT NULL
		ORDER BY week
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying week dates: %w", err)
	}
	defer rows.Close()

	spans := make(map[int]store.WeekSpan)
	for rows.Next() {
		var week int
		var span store.WeekSpan
		if err := rows.Scan(&week, &span.Start, &span.End); err != nil {
			return nil, fmt.Errorf("scanning week dates: %w", err)
		}
		spans[week] = span
	}
	return spans, rows.Err()
}

func scanMatchups(rows *sql.Rows) ([]*store.Matchup, error) {
	var matchups []*store.Matchup
	for rows.Next() {
		m := &store.Matchup{}
		err := rows.Scan(
			&m.LeagueKey, &m.Week, &m.MatchupID, &m.TeamKey1, &m.TeamKey2,
			&m.CatsWon1, &m.CatsWon2, &m.CatsTied, &m.WinnerTeamKey, &m.IsTied,
			&m.IsPlayoffs, &m.IsConsolation, &m.WeekStart, &m.WeekEnd,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning matchup: %w", err)
		}
		matchups = append(matchups, m)
	}
	return matchups, rows.Err()
}
