package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// TeamRepository handles team access.
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `league_key, team_key, team_id, name, manager_guid,
	manager_nickname, manager_name, waiver_priority, faab_balance, finish, playoff_seed`

// Upsert inserts or replaces a team row.
func (r *TeamRepository) Upsert(ctx context.Context, ex store.Execer, t *store.Team) error {
	query := `
		INSERT INTO team (` + teamColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (league_key, team_key) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			name = EXCLUDED.name,
			manager_guid = EXCLUDED.manager_guid,
			manager_nickname = EXCLUDED.manager_nickname,
			manager_name = EXCLUDED.manager_name,
			waiver_priority = EXCLUDED.waiver_priority,
			faab_balance = EXCLUDED.faab_balance,
			finish = EXCLUDED.finish,
			playoff_seed = EXCLUDED.playoff_seed
	`
	_, err := ex.ExecContext(ctx, query,
		t.LeagueKey, t.TeamKey, t.TeamID, t.Name, t.ManagerGUID,
		t.ManagerNickname, t.ManagerName, t.WaiverPriority, t.FAABBalance,
		t.Finish, t.PlayoffSeed,
	)
	if err != nil {
		return fmt.Errorf("upserting team: %w", err)
	}
	return nil
}

// UpdateStandings sets the finish and playoff seed for a team without
// touching the identity columns.
func (r *TeamRepository) UpdateStandings(ctx context.Context, ex store.Execer, leagueKey, teamKey string, finish, playoffSeed sql.NullInt32) error {
	query := `
		UPDATE team SET finish = $3, playoff_seed = $4
		WHERE league_key = $1 AND team_key = $2
	`
	if _, err := ex.ExecContext(ctx, query, leagueKey, teamKey, finish, playoffSeed); err != nil {
		return fmt.Errorf("updating standings: %w", err)
	}
	return nil
}

// UpdateManagerName fills in the display name for every team a manager GUID
// ever controlled. Used when the roster of known managers changes.
func (r *TeamRepository) UpdateManagerName(ctx context.Context, guid, name string) error {
	query := `UPDATE team SET manager_name = $2 WHERE manager_guid = $1`
	if _, err := r.db.DB().ExecContext(ctx, query, guid, name); err != nil {
		return fmt.Errorf("updating manager name: %w", err)
	}
	return nil
}

// All returns every team in a league ordered by team id.
func (r *TeamRepository) All(ctx context.Context, leagueKey string) ([]*store.Team, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+teamColumns+` FROM team WHERE league_key = $1 ORDER BY team_id`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

// Get returns one team.
func (r *TeamRepository) Get(ctx context.Context, leagueKey, teamKey string) (*store.Team, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM team WHERE league_key = $1 AND team_key = $2`,
		leagueKey, teamKey)
	return scanTeam(row)
}

// TeamKeys returns the team keys for a league ordered by team id.
func (r *TeamRepository) TeamKeys(ctx context.Context, leagueKey string) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT team_key FROM team WHERE league_key = $1 ORDER BY team_id`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying team keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning team key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UnknownManagerGUIDs returns GUIDs that appear on team rows but have no
// resolved display name yet.
func (r *TeamRepository) UnknownManagerGUIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT DISTINCT manager_guid FROM team
		WHERE manager_guid <> '' AND manager_name = ''
		ORDER BY manager_guid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unknown managers: %w", err)
	}
	defer rows.Close()

	var guids []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scanning manager guid: %w", err)
		}
		guids = append(guids, g)
	}
	return guids, rows.Err()
}

func scanTeam(scanner interface{ Scan(dest ...interface{}) error }) (*store.Team, error) {
	t := &store.Team{}
	err := scanner.Scan(
		&t.LeagueKey, &t.TeamKey, &t.TeamID, &t.Name, &t.ManagerGUID,
		&t.ManagerNickname, &t.ManagerName, &t.WaiverPriority, &t.FAABBalance,
		&t.Finish, &t.PlayoffSeed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning team: %w", err)
	}
	return t, nil
}

func scanTeams(rows *sql.Rows) ([]*store.Team, error) {
	var teams []*store.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
