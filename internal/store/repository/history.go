package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// HistoryRepository serves the cross-season joins the aggregation engine
// runs on. It only reads; all writes happen through the per-entity
// repositories during sync.
type HistoryRepository struct {
	db *store.Database
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *store.Database) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ManagerTeamRow is one (season, team) pairing with its manager identity.
type ManagerTeamRow struct {
	Season           int
	LeagueKey        string
	TeamKey          string
	TeamName         string
	ManagerGUID      string
	ManagerNickname  string
	ManagerName      string
	Finish           sql.NullInt32
	PlayoffSeed      sql.NullInt32
	NumTeams         int
	IsFinished       bool
	PlayoffStartWeek sql.NullInt32
}

// ManagerTeams returns every team row across every season with league
// context attached, oldest season first.
func (r *HistoryRepository) ManagerTeams(ctx context.Context) ([]ManagerTeamRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT l.season, t.league_key, t.team_key, t.name,
			t.manager_guid, t.manager_nickname, t.manager_name,
			t.finish, t.playoff_seed, l.num_teams, l.is_finished, l.playoff_start_week
		FROM team t
		JOIN league l ON t.league_key = l.league_key
		ORDER BY l.season, t.team_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying manager teams: %w", err)
	}
	defer rows.Close()

	var out []ManagerTeamRow
	for rows.Next() {
		var row ManagerTeamRow
		if err := rows.Scan(&row.Season, &row.LeagueKey, &row.TeamKey, &row.TeamName,
			&row.ManagerGUID, &row.ManagerNickname, &row.ManagerName,
			&row.Finish, &row.PlayoffSeed, &row.NumTeams, &row.IsFinished,
			&row.PlayoffStartWeek); err != nil {
			return nil, fmt.Errorf("scanning manager team: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MatchupIdentityRow is one matchup with both sides' manager GUIDs resolved.
type MatchupIdentityRow struct {
	Season        int
	LeagueKey     string
	Week          int
	TeamKey1      string
	TeamKey2      string
	GUID1         string
	GUID2         string
	CatsWon1      int
	CatsWon2      int
	CatsTied      int
	WinnerTeamKey sql.NullString
	IsTied        bool
	IsPlayoffs    bool
	IsConsolation bool
}

// AllMatchups returns every matchup across every season joined to both
// teams' manager GUIDs, ordered by season then week. This is the input to
// streak and head-to-head computation.
func (r *HistoryRepository) AllMatchups(ctx context.Context) ([]MatchupIdentityRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT l.season, m.league_key, m.week,
			m.team_key_1, m.team_key_2,
			t1.manager_guid, t2.manager_guid,
			m.cats_won_1, m.cats_won_2, m.cats_tied,
			m.winner_team_key, m.is_tied, m.is_playoffs, m.is_consolation
		FROM matchup m
		JOIN league l ON m.league_key = l.league_key
		JOIN team t1 ON t1.league_key = m.league_key AND t1.team_key = m.team_key_1
		JOIN team t2 ON t2.league_key = m.league_key AND t2.team_key = m.team_key_2
		ORDER BY l.season, m.week, m.matchup_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying matchup history: %w", err)
	}
	defer rows.Close()

	var out []MatchupIdentityRow
	for rows.Next() {
		var row MatchupIdentityRow
		if err := rows.Scan(&row.Season, &row.LeagueKey, &row.Week,
			&row.TeamKey1, &row.TeamKey2, &row.GUID1, &row.GUID2,
			&row.CatsWon1, &row.CatsWon2, &row.CatsTied,
			&row.WinnerTeamKey, &row.IsTied, &row.IsPlayoffs, &row.IsConsolation); err != nil {
			return nil, fmt.Errorf("scanning matchup history: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CategoryValueRow is one team's weekly value for one scoring category.
type CategoryValueRow struct {
	Season      int
	LeagueKey   string
	Week        int
	TeamKey     string
	TeamName    string
	Manager     string
	ManagerGUID string
	StatID      int
	DisplayName string
	SortOrder   int
	Value       sql.NullString
}

// CategoryValues returns every team weekly scoring value across all seasons
// with stat metadata and manager identity attached. Record computation
// happens in memory over these rows.
func (r *HistoryRepository) CategoryValues(ctx context.Context) ([]CategoryValueRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT l.season, s.league_key, s.week, s.team_key, t.name,
			COALESCE(NULLIF(t.manager_name, ''), t.manager_nickname),
			t.manager_guid,
			s.stat_id, sc.display_name, sc.sort_order, s.value
		FROM team_weekly_score s
		JOIN league l ON s.league_key = l.league_key
		JOIN team t ON t.league_key = s.league_key AND t.team_key = s.team_key
		JOIN stat_category sc ON sc.league_key = s.league_key AND sc.stat_id = s.stat_id
		WHERE sc.is_scoring_stat AND NOT sc.is_only_display
		ORDER BY l.season, s.week
	`)
	if err != nil {
		return nil, fmt.Errorf("querying category values: %w", err)
	}
	defer rows.Close()

	var out []CategoryValueRow
	for rows.Next() {
		var row CategoryValueRow
		if err := rows.Scan(&row.Season, &row.LeagueKey, &row.Week, &row.TeamKey,
			&row.TeamName, &row.Manager, &row.ManagerGUID,
			&row.StatID, &row.DisplayName, &row.SortOrder, &row.Value); err != nil {
			return nil, fmt.Errorf("scanning category value: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// NamedMatchup is a matchup with both sides' display names resolved.
type NamedMatchup struct {
	store.Matchup
	TeamName1 string
	TeamName2 string
	Manager1  string
	Manager2  string
}

// NamedWeekMatchups returns one week's matchups with names attached for the
// recap surface.
func (r *HistoryRepository) NamedWeekMatchups(ctx context.Context, leagueKey string, week int) ([]NamedMatchup, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT m.league_key, m.week, m.matchup_id, m.team_key_1, m.team_key_2,
			m.cats_won_1, m.cats_won_2, m.cats_tied, m.winner_team_key,
			m.is_tied, m.is_playoffs, m.is_consolation, m.week_start, m.week_end,
			t1.name, t2.name,
			COALESCE(NULLIF(t1.manager_name, ''), t1.manager_nickname),
			COALESCE(NULLIF(t2.manager_name, ''), t2.manager_nickname)
		FROM matchup m
		JOIN team t1 ON t1.league_key = m.league_key AND t1.team_key = m.team_key_1
		JOIN team t2 ON t2.league_key = m.league_key AND t2.team_key = m.team_key_2
		WHERE m.league_key = $1 AND m.week = $2
		ORDER BY m.matchup_id
	`, leagueKey, week)
	if err != nil {
		return nil, fmt.Errorf("querying named matchups: %w", err)
	}
	defer rows.Close()

	var out []NamedMatchup
	for rows.Next() {
		var nm NamedMatchup
		m := &nm.Matchup
		if err := rows.Scan(&m.LeagueKey, &m.Week, &m.MatchupID, &m.TeamKey1, &m.TeamKey2,
			&m.CatsWon1, &m.CatsWon2, &m.CatsTied, &m.WinnerTeamKey,
			&m.IsTied, &m.IsPlayoffs, &m.IsConsolation, &m.WeekStart, &m.WeekEnd,
			&nm.TeamName1, &nm.TeamName2, &nm.Manager1, &nm.Manager2); err != nil {
			return nil, fmt.Errorf("scanning named matchup: %w", err)
		}
		out = append(out, nm)
	}
	return out, rows.Err()
}
