package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// Cost recorded for a roster slot whose player was never drafted by the
// owning team, or was dropped by anyone since draft day. Such players carry
// the maximum keeper round cost.
const UndraftedRoundCost = 24

// PlayerRepository handles player, roster, and weekly stat access.
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Upsert inserts or replaces a player master row.
func (r *PlayerRepository) Upsert(ctx context.Context, ex store.Execer, p *store.Player) error {
	query := `
		INSERT INTO player (player_key, player_id, full_name, first_name,
			last_name, editorial_team, primary_position, eligible_positions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (player_key) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			editorial_team = EXCLUDED.editorial_team,
			primary_position = EXCLUDED.primary_position,
			eligible_positions = EXCLUDED.eligible_positions
	`
	_, err := ex.ExecContext(ctx, query,
		p.PlayerKey, p.PlayerID, p.FullName, p.FirstName,
		p.LastName, p.EditorialTeam, p.PrimaryPosition, p.EligiblePositions,
	)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

// UpsertRoster inserts or replaces one weekly roster slot.
func (r *PlayerRepository) UpsertRoster(ctx context.Context, ex store.Execer, w *store.WeeklyRoster) error {
	query := `
		INSERT INTO weekly_roster (league_key, week, team_key, player_key,
			selected_position, is_starter)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (league_key, week, team_key, player_key) DO UPDATE SET
			selected_position = EXCLUDED.selected_position,
			is_starter = EXCLUDED.is_starter
	`
	_, err := ex.ExecContext(ctx, query,
		w.LeagueKey, w.Week, w.TeamKey, w.PlayerKey, w.SelectedPosition, w.IsStarter)
	if err != nil {
		return fmt.Errorf("upserting roster slot: %w", err)
	}
	return nil
}

// UpsertStat inserts or replaces one player weekly stat value.
func (r *PlayerRepository) UpsertStat(ctx context.Context, ex store.Execer, s *store.PlayerWeeklyStat) error {
	query := `
		INSERT INTO player_weekly_stat (league_key, week, player_key, stat_id, value)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (league_key, week, player_key, stat_id) DO UPDATE SET
			value = EXCLUDED.value
	`
	_, err := ex.ExecContext(ctx, query, s.LeagueKey, s.Week, s.PlayerKey, s.StatID, s.Value)
	if err != nil {
		return fmt.Errorf("upserting player stat: %w", err)
	}
	return nil
}

// UpsertTeamScore inserts or replaces one team weekly aggregate value.
func (r *PlayerRepository) UpsertTeamScore(ctx context.Context, ex store.Execer, s *store.TeamWeeklyScore) error {
	query := `
		INSERT INTO team_weekly_score (league_key, week, team_key, stat_id, value)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (league_key, week, team_key, stat_id) DO UPDATE SET
			value = EXCLUDED.value
	`
	_, err := ex.ExecContext(ctx, query, s.LeagueKey, s.Week, s.TeamKey, s.StatID, s.Value)
	if err != nil {
		return fmt.Errorf("upserting team score: %w", err)
	}
	return nil
}

// UpsertDraftPick inserts or replaces one draft pick.
func (r *PlayerRepository) UpsertDraftPick(ctx context.Context, ex store.Execer, d *store.DraftPick) error {
	query := `
		INSERT INTO draft_pick (league_key, pick, round, team_key, player_key, cost)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (league_key, pick) DO UPDATE SET
			round = EXCLUDED.round,
			team_key = EXCLUDED.team_key,
			player_key = EXCLUDED.player_key,
			cost = EXCLUDED.cost
	`
	_, err := ex.ExecContext(ctx, query, d.LeagueKey, d.Pick, d.Round, d.TeamKey, d.PlayerKey, d.Cost)
	if err != nil {
		return fmt.Errorf("upserting draft pick: %w", err)
	}
	return nil
}

// StarterStatRow is one starter's value for one scoring stat in one week.
type StarterStatRow struct {
	PlayerKey string
	PlayerID  string
	FullName  string
	Position  string
	TeamKey   string
	StatID    int
	Value     sql.NullString
}

// StarterStats returns every starter's scoring stat values for one league.
// A week of zero or less covers the whole season; a positive week restricts
// the pool to that week's starters, which makes the valuation relative to
// who actually started that week. Used by the valuation engine.
func (r *PlayerRepository) StarterStats(ctx context.Context, leagueKey string, week int) ([]StarterStatRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT p.player_key, p.player_id, p.full_name, p.primary_position,
			wr.team_key, s.stat_id, s.value
		FROM weekly_roster wr
		JOIN player p ON wr.player_key = p.player_key
		JOIN player_weekly_stat s
			ON s.league_key = wr.league_key
			AND s.week = wr.week
			AND s.player_key = wr.player_key
		WHERE wr.league_key = $1 AND wr.is_starter
			AND ($2 <= 0 OR wr.week = $2)
		ORDER BY p.player_key, s.week, s.stat_id
	`, leagueKey, week)
	if err != nil {
		return nil, fmt.Errorf("querying starter stats: %w", err)
	}
	defer rows.Close()

	var out []StarterStatRow
	for rows.Next() {
		var row StarterStatRow
		if err := rows.Scan(&row.PlayerKey, &row.PlayerID, &row.FullName,
			&row.Position, &row.TeamKey, &row.StatID, &row.Value); err != nil {
			return nil, fmt.Errorf("scanning starter stat: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaxRosterWeek returns the latest week with roster rows for a league,
// or 0 when no rosters were ingested.
func (r *PlayerRepository) MaxRosterWeek(ctx context.Context, leagueKey string) (int, error) {
	var week sql.NullInt32
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT MAX(week) FROM weekly_roster WHERE league_key = $1`, leagueKey).Scan(&week)
	if err != nil {
		return 0, fmt.Errorf("querying max roster week: %w", err)
	}
	if !week.Valid {
		return 0, nil
	}
	return int(week.Int32), nil
}

// RosterCostRow is one end-of-season roster slot annotated with the keeper
// round cost the player would carry into the next season.
type RosterCostRow struct {
	PlayerKey       string         `json:"player_key"`
	PlayerID        string         `json:"player_id"`
	FullName        string         `json:"full_name"`
	Position        string         `json:"position"`
	SelectedPos     sql.NullString `json:"selected_position,omitempty"`
	TeamPick        sql.NullInt32  `json:"team_pick,omitempty"`
	EverDropped     bool           `json:"ever_dropped"`
	KeeperRoundCost int            `json:"keeper_round_cost"`
}

// RosterWithCosts returns a team's roster for the given week with keeper
// round costs. The cost is the pick's ordinal within the drafting team's
// draft and survives a trade; only a player who went undrafted, or who
// passed through waivers or free agency, costs UndraftedRoundCost.
func (r *PlayerRepository) RosterWithCosts(ctx context.Context, leagueKey, teamKey string, week int) ([]RosterCostRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		WITH team_picks AS (
			SELECT player_key,
				ROW_NUMBER() OVER (PARTITION BY team_key ORDER BY pick) AS team_pick
			FROM draft_pick
			WHERE league_key = $1
		), dropped AS (
			SELECT DISTINCT tp.player_key
			FROM transaction_player tp
			JOIN transaction_record tr ON tp.transaction_key = tr.transaction_key
			WHERE tr.league_key = $1
				AND tp.destination_type IN ('waivers', 'freeagents')
		)
		SELECT p.player_key, p.player_id, p.full_name, p.primary_position,
			wr.selected_position,
			dp.team_pick,
			d.player_key IS NOT NULL AS ever_dropped
		FROM weekly_roster wr
		JOIN player p ON wr.player_key = p.player_key
		LEFT JOIN team_picks dp ON dp.player_key = wr.player_key
		LEFT JOIN dropped d ON d.player_key = wr.player_key
		WHERE wr.league_key = $1 AND wr.team_key = $2 AND wr.week = $3
		ORDER BY p.full_name
	`, leagueKey, teamKey, week)
	if err != nil {
		return nil, fmt.Errorf("querying roster costs: %w", err)
	}
	defer rows.Close()

	var out []RosterCostRow
	for rows.Next() {
		var row RosterCostRow
		if err := rows.Scan(&row.PlayerKey, &row.PlayerID, &row.FullName,
			&row.Position, &row.SelectedPos, &row.TeamPick, &row.EverDropped); err != nil {
			return nil, fmt.Errorf("scanning roster cost: %w", err)
		}
		row.KeeperRoundCost = keeperRoundCost(row.TeamPick, row.EverDropped)
		out = append(out, row)
	}
	return out, rows.Err()
}

// keeperRoundCost maps a roster row's draft pick onto its keeper cost.
// A draft pick persists through trades; only going undrafted or passing
// through waivers or free agency resets the cost to the sentinel.
func keeperRoundCost(teamPick sql.NullInt32, everDropped bool) int {
	if teamPick.Valid && !everDropped {
		return int(teamPick.Int32)
	}
	return UndraftedRoundCost
}

// DraftPicks returns a season's draft in pick order.
func (r *PlayerRepository) DraftPicks(ctx context.Context, leagueKey string) ([]*store.DraftPick, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, pick, round, team_key, player_key, cost
		FROM draft_pick WHERE league_key = $1 ORDER BY pick
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying draft picks: %w", err)
	}
	defer rows.Close()

	var picks []*store.DraftPick
	for rows.Next() {
		d := &store.DraftPick{}
		if err := rows.Scan(&d.LeagueKey, &d.Pick, &d.Round, &d.TeamKey,
			&d.PlayerKey, &d.Cost); err != nil {
			return nil, fmt.Errorf("scanning draft pick: %w", err)
		}
		picks = append(picks, d)
	}
	return picks, rows.Err()
}

// AllPlayerNames returns every known player's stable id and display name,
// for in-process fuzzy search.
func (r *PlayerRepository) AllPlayerNames(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT DISTINCT player_id, full_name FROM player ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("querying player names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning player name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// PlayerSeasonRow is one player's seasonal appearance for the search surface.
type PlayerSeasonRow struct {
	Season    int
	LeagueKey string
	TeamKey   string
	TeamName  string
	Manager   string
	Weeks     int
}

// PlayerSeasons returns the teams a player appeared on, season by season.
func (r *PlayerRepository) PlayerSeasons(ctx context.Context, playerID string) ([]PlayerSeasonRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT l.season, l.league_key, wr.team_key, t.name,
			COALESCE(NULLIF(t.manager_name, ''), t.manager_nickname),
			COUNT(DISTINCT wr.week)
		FROM weekly_roster wr
		JOIN player p ON wr.player_key = p.player_key
		JOIN league l ON wr.league_key = l.league_key
		JOIN team t ON t.league_key = wr.league_key AND t.team_key = wr.team_key
		WHERE p.player_id = $1
		GROUP BY l.season, l.league_key, wr.team_key, t.name, t.manager_name, t.manager_nickname
		ORDER BY l.season DESC
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying player seasons: %w", err)
	}
	defer rows.Close()

	var out []PlayerSeasonRow
	for rows.Next() {
		var row PlayerSeasonRow
		if err := rows.Scan(&row.Season, &row.LeagueKey, &row.TeamKey,
			&row.TeamName, &row.Manager, &row.Weeks); err != nil {
			return nil, fmt.Errorf("scanning player season: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
