package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// KeeperRepository handles keeper access.
type KeeperRepository struct {
	db *store.Database
}

// NewKeeperRepository creates a new keeper repository.
func NewKeeperRepository(db *store.Database) *KeeperRepository {
	return &KeeperRepository{db: db}
}

// Upsert inserts or replaces one keeper row.
func (r *KeeperRepository) Upsert(ctx context.Context, ex store.Execer, k *store.Keeper) error {
	query := `
		INSERT INTO keeper (league_key, team_key, player_key, player_name,
			season, round_cost, kept_from_season)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (league_key, team_key, player_key) DO UPDATE SET
			player_name = EXCLUDED.player_name,
			season = EXCLUDED.season,
			round_cost = EXCLUDED.round_cost,
			kept_from_season = EXCLUDED.kept_from_season
	`
	_, err := ex.ExecContext(ctx, query,
		k.LeagueKey, k.TeamKey, k.PlayerKey, k.PlayerName,
		k.Season, k.RoundCost, k.KeptFromSeason,
	)
	if err != nil {
		return fmt.Errorf("upserting keeper: %w", err)
	}
	return nil
}

// SetKeptFrom stamps the lineage start season on one keeper row.
func (r *KeeperRepository) SetKeptFrom(ctx context.Context, leagueKey, teamKey, playerKey string, fromSeason int) error {
	query := `
		UPDATE keeper SET kept_from_season = $4
		WHERE league_key = $1 AND team_key = $2 AND player_key = $3
	`
	if _, err := r.db.DB().ExecContext(ctx, query, leagueKey, teamKey, playerKey, fromSeason); err != nil {
		return fmt.Errorf("stamping keeper lineage: %w", err)
	}
	return nil
}

// BySeason returns the keepers of one league ordered by team then player.
func (r *KeeperRepository) BySeason(ctx context.Context, leagueKey string) ([]*store.Keeper, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, team_key, player_key, player_name, season, round_cost, kept_from_season
		FROM keeper WHERE league_key = $1
		ORDER BY team_key, player_name
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying keepers: %w", err)
	}
	defer rows.Close()
	return scanKeepers(rows)
}

// All returns every keeper row across all seasons, oldest season first.
// Lineage stamping walks these in season order.
func (r *KeeperRepository) All(ctx context.Context) ([]*store.Keeper, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, team_key, player_key, player_name, season, round_cost, kept_from_season
		FROM keeper ORDER BY season, team_key, player_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all keepers: %w", err)
	}
	defer rows.Close()
	return scanKeepers(rows)
}

// ForTeam returns the keepers one team carried into a season.
func (r *KeeperRepository) ForTeam(ctx context.Context, leagueKey, teamKey string) ([]*store.Keeper, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT league_key, team_key, player_key, player_name, season, round_cost, kept_from_season
		FROM keeper WHERE league_key = $1 AND team_key = $2
		ORDER BY round_cost, player_name
	`, leagueKey, teamKey)
	if err != nil {
		return nil, fmt.Errorf("querying team keepers: %w", err)
	}
	defer rows.Close()
	return scanKeepers(rows)
}

func scanKeepers(rows *sql.Rows) ([]*store.Keeper, error) {
	var keepers []*store.Keeper
	for rows.Next() {
		k := &store.Keeper{}
		if err := rows.Scan(&k.LeagueKey, &k.TeamKey, &k.PlayerKey, &k.PlayerName,
			&k.Season, &k.RoundCost, &k.KeptFromSeason); err != nil {
			return nil, fmt.Errorf("scanning keeper: %w", err)
		}
		keepers = append(keepers, k)
	}
	return keepers, rows.Err()
}
