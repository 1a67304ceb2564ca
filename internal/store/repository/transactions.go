package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/dynasty/internal/store"
)

// TransactionRepository handles transaction access.
type TransactionRepository struct {
	db *store.Database
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *store.Database) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert inserts or replaces one transaction record.
func (r *TransactionRepository) Upsert(ctx context.Context, ex store.Execer, t *store.TransactionRecord) error {
	query := `
		INSERT INTO transaction_record (transaction_key, league_key, type, status,
			ts, week, trader_team_key, tradee_team_key, faab_bid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (transaction_key) DO UPDATE SET
			type = EXCLUDED.type,
			status = EXCLUDED.status,
			ts = EXCLUDED.ts,
			week = EXCLUDED.week,
			trader_team_key = EXCLUDED.trader_team_key,
			tradee_team_key = EXCLUDED.tradee_team_key,
			faab_bid = EXCLUDED.faab_bid
	`
	_, err := ex.ExecContext(ctx, query,
		t.TransactionKey, t.LeagueKey, t.Type, t.Status,
		t.Timestamp, t.Week, t.TraderTeamKey, t.TradeeTeamKey, t.FAABBid,
	)
	if err != nil {
		return fmt.Errorf("upserting transaction: %w", err)
	}
	return nil
}

// UpsertPlayer inserts or replaces one player movement within a transaction.
func (r *TransactionRepository) UpsertPlayer(ctx context.Context, ex store.Execer, p *store.TransactionPlayer) error {
	query := `
		INSERT INTO transaction_player (transaction_key, player_key, source_type,
			source_team_key, destination_type, destination_team_key, type)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (transaction_key, player_key) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			source_team_key = EXCLUDED.source_team_key,
			destination_type = EXCLUDED.destination_type,
			destination_team_key = EXCLUDED.destination_team_key,
			type = EXCLUDED.type
	`
	_, err := ex.ExecContext(ctx, query,
		p.TransactionKey, p.PlayerKey, p.SourceType,
		p.SourceTeamKey, p.DestinationType, p.DestinationTeamKey, p.Type,
	)
	if err != nil {
		return fmt.Errorf("upserting transaction player: %w", err)
	}
	return nil
}

// UnweekedRow is a transaction lacking a week assignment.
type UnweekedRow struct {
	TransactionKey string
	Timestamp      string
}

// Unweeked returns transactions whose week column is still null, oldest
// first, for the post-sync backfill pass.
func (r *TransactionRepository) Unweeked(ctx context.Context, leagueKey string) ([]UnweekedRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT transaction_key, ts FROM transaction_record
		WHERE league_key = $1 AND week IS NULL
		ORDER BY ts
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying unweeked transactions: %w", err)
	}
	defer rows.Close()

	var out []UnweekedRow
	for rows.Next() {
		var row UnweekedRow
		if err := rows.Scan(&row.TransactionKey, &row.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning unweeked transaction: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetWeek assigns a week to one transaction.
func (r *TransactionRepository) SetWeek(ctx context.Context, transactionKey string, week int) error {
	query := `UPDATE transaction_record SET week = $2 WHERE transaction_key = $1`
	if _, err := r.db.DB().ExecContext(ctx, query, transactionKey, week); err != nil {
		return fmt.Errorf("setting transaction week: %w", err)
	}
	return nil
}

// MoveRow is one player movement joined to its transaction and player.
type MoveRow struct {
	TransactionKey string
	Type           string
	Timestamp      string
	Week           sql.NullInt32
	PlayerKey      string
	PlayerID       string
	PlayerName     string
	TeamKey        sql.NullString
	MoveType       string
	FAABBid        sql.NullInt32
}

// WeekMoves returns every add, drop, and trade movement in one week.
func (r *TransactionRepository) WeekMoves(ctx context.Context, leagueKey string, week int) ([]MoveRow, error) {
	return r.moves(ctx, `
		WHERE tr.league_key = $1 AND tr.week = $2
		ORDER BY tr.ts`, leagueKey, week)
}

// AddMoves returns every pickup (add movement) in a league, in time order.
// The valuation engine uses these to score best in-season pickups.
func (r *TransactionRepository) AddMoves(ctx context.Context, leagueKey string) ([]MoveRow, error) {
	return r.moves(ctx, `
		WHERE tr.league_key = $1 AND tp.type = 'add'
		ORDER BY tr.ts`, leagueKey)
}

func (r *TransactionRepository) moves(ctx context.Context, tail string, args ...interface{}) ([]MoveRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT tr.transaction_key, tr.type, tr.ts, tr.week,
			tp.player_key, p.player_id, p.full_name,
			COALESCE(tp.destination_team_key, tp.source_team_key),
			tp.type, tr.faab_bid
		FROM transaction_record tr
		JOIN transaction_player tp ON tp.transaction_key = tr.transaction_key
		JOIN player p ON p.player_key = tp.player_key
	`+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transaction moves: %w", err)
	}
	defer rows.Close()

	var out []MoveRow
	for rows.Next() {
		var row MoveRow
		if err := rows.Scan(&row.TransactionKey, &row.Type, &row.Timestamp, &row.Week,
			&row.PlayerKey, &row.PlayerID, &row.PlayerName,
			&row.TeamKey, &row.MoveType, &row.FAABBid); err != nil {
			return nil, fmt.Errorf("scanning transaction move: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TradeRow is one completed trade with its player movements flattened.
type TradeRow struct {
	TransactionKey string
	Timestamp      string
	Week           sql.NullInt32
	TraderTeamKey  sql.NullString
	TradeeTeamKey  sql.NullString
	PlayerName     string
	FromTeamKey    sql.NullString
	ToTeamKey      sql.NullString
}

// TradesForTeam returns every trade movement touching one team.
func (r *TransactionRepository) TradesForTeam(ctx context.Context, leagueKey, teamKey string) ([]TradeRow, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT tr.transaction_key, tr.ts, tr.week,
			tr.trader_team_key, tr.tradee_team_key,
			p.full_name, tp.source_team_key, tp.destination_team_key
		FROM transaction_record tr
		JOIN transaction_player tp ON tp.transaction_key = tr.transaction_key
		JOIN player p ON p.player_key = tp.player_key
		WHERE tr.league_key = $1 AND tr.type = 'trade'
			AND (tr.trader_team_key = $2 OR tr.tradee_team_key = $2)
		ORDER BY tr.ts DESC
	`, leagueKey, teamKey)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var row TradeRow
		if err := rows.Scan(&row.TransactionKey, &row.Timestamp, &row.Week,
			&row.TraderTeamKey, &row.TradeeTeamKey,
			&row.PlayerName, &row.FromTeamKey, &row.ToTeamKey); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MoveCounts returns per-team counts of adds and trades for one league.
func (r *TransactionRepository) MoveCounts(ctx context.Context, leagueKey string) (map[string]int, map[string]int, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT COALESCE(tp.destination_team_key, tr.trader_team_key) AS team_key,
			tr.type, COUNT(*)
		FROM transaction_record tr
		JOIN transaction_player tp ON tp.transaction_key = tr.transaction_key
		WHERE tr.league_key = $1 AND tp.type = 'add'
		GROUP BY 1, 2
	`, leagueKey)
	if err != nil {
		return nil, nil, fmt.Errorf("querying move counts: %w", err)
	}
	defer rows.Close()

	adds := make(map[string]int)
	trades := make(map[string]int)
	for rows.Next() {
		var teamKey sql.NullString
		var txnType string
		var n int
		if err := rows.Scan(&teamKey, &txnType, &n); err != nil {
			return nil, nil, fmt.Errorf("scanning move count: %w", err)
		}
		if !teamKey.Valid {
			continue
		}
		if txnType == "trade" {
			trades[teamKey.String] += n
		} else {
			adds[teamKey.String] += n
		}
	}
	return adds, trades, rows.Err()
}

// DroppedPlayerKeys returns the set of player keys that were ever moved to
// waivers or free agency in a league. Used for keeper cost computation.
func (r *TransactionRepository) DroppedPlayerKeys(ctx context.Context, leagueKey string) (map[string]bool, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT DISTINCT tp.player_key
		FROM transaction_player tp
		JOIN transaction_record tr ON tp.transaction_key = tr.transaction_key
		WHERE tr.league_key = $1
			AND tp.destination_type IN ('waivers', 'freeagents')
	`, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("querying dropped players: %w", err)
	}
	defer rows.Close()

	dropped := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning dropped player: %w", err)
		}
		dropped[key] = true
	}
	return dropped, rows.Err()
}
