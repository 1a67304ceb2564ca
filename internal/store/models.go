package store

import (
	"database/sql"
	"time"
)

// League is one season's instance of a fantasy competition.
type League struct {
	LeagueKey        string         `json:"league_key"`
	Season           int            `json:"season"`
	Name             string         `json:"name"`
	Sport            string         `json:"sport"`
	NumTeams         int            `json:"num_teams"`
	ScoringType      string         `json:"scoring_type"`
	NumScoringStats  int            `json:"num_scoring_stats"`
	CurrentWeek      int            `json:"current_week"`
	StartWeek        int            `json:"start_week"`
	EndWeek          int            `json:"end_week"`
	PlayoffStartWeek sql.NullInt32  `json:"playoff_start_week,omitempty"`
	UsesFAAB         bool           `json:"uses_faab"`
	IsFinished       bool           `json:"is_finished"`
	SyncedAt         sql.NullTime   `json:"synced_at,omitempty"`
}

// StatCategory drives per-category matchup derivation and z-score sign
// handling. SortOrder 1 means higher values are better, 0 means lower.
type StatCategory struct {
	LeagueKey     string         `json:"league_key"`
	StatID        int            `json:"stat_id"`
	Name          string         `json:"name"`
	DisplayName   string         `json:"display_name"`
	SortOrder     int            `json:"sort_order"`
	PositionType  sql.NullString `json:"position_type,omitempty"`
	IsOnlyDisplay bool           `json:"is_only_display"`
	IsScoringStat bool           `json:"is_scoring_stat"`
}

// Team is one (league, team) row. ManagerGUID is the stable cross-season
// manager identifier; it may be empty for unowned teams.
type Team struct {
	LeagueKey       string        `json:"league_key"`
	TeamKey         string        `json:"team_key"`
	TeamID          int           `json:"team_id"`
	Name            string        `json:"name"`
	ManagerGUID     string        `json:"manager_guid"`
	ManagerNickname string        `json:"manager_nickname"`
	ManagerName     string        `json:"manager_name"`
	WaiverPriority  sql.NullInt32 `json:"waiver_priority,omitempty"`
	FAABBalance     sql.NullInt32 `json:"faab_balance,omitempty"`
	Finish          sql.NullInt32 `json:"finish,omitempty"`
	PlayoffSeed     sql.NullInt32 `json:"playoff_seed,omitempty"`
}

// Matchup is one head-to-head pairing for one week.
type Matchup struct {
	LeagueKey     string         `json:"league_key"`
	Week          int            `json:"week"`
	MatchupID     int            `json:"matchup_id"`
	TeamKey1      string         `json:"team_key_1"`
	TeamKey2      string         `json:"team_key_2"`
	CatsWon1      int            `json:"cats_won_1"`
	CatsWon2      int            `json:"cats_won_2"`
	CatsTied      int            `json:"cats_tied"`
	WinnerTeamKey sql.NullString `json:"winner_team_key,omitempty"`
	IsTied        bool           `json:"is_tied"`
	IsPlayoffs    bool           `json:"is_playoffs"`
	IsConsolation bool           `json:"is_consolation"`
	WeekStart     string         `json:"week_start"`
	WeekEnd       string         `json:"week_end"`
}

// WeekSpan is the date range a week covers, as YYYY-MM-DD strings.
type WeekSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MatchupCategory is one stat's outcome within one matchup. A null winner
// means the stat was tied.
type MatchupCategory struct {
	LeagueKey     string         `json:"league_key"`
	Week          int            `json:"week"`
	MatchupID     int            `json:"matchup_id"`
	StatID        int            `json:"stat_id"`
	Team1Value    sql.NullString `json:"team_1_value,omitempty"`
	Team2Value    sql.NullString `json:"team_2_value,omitempty"`
	WinnerTeamKey sql.NullString `json:"winner_team_key,omitempty"`
}

// Player is the master record for one real-world player. The player_id
// portion of the key is stable across seasons.
type Player struct {
	PlayerKey         string `json:"player_key"`
	PlayerID          string `json:"player_id"`
	FullName          string `json:"full_name"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	EditorialTeam     string `json:"editorial_team"`
	PrimaryPosition   string `json:"primary_position"`
	EligiblePositions string `json:"eligible_positions"`
}

// WeeklyRoster is one roster slot for one (week, team, player).
type WeeklyRoster struct {
	LeagueKey        string         `json:"league_key"`
	Week             int            `json:"week"`
	TeamKey          string         `json:"team_key"`
	PlayerKey        string         `json:"player_key"`
	SelectedPosition sql.NullString `json:"selected_position,omitempty"`
	IsStarter        bool           `json:"is_starter"`
}

// PlayerWeeklyStat holds one raw stat value. Values are kept string-typed as
// the source delivers them and parsed numerically on use.
type PlayerWeeklyStat struct {
	LeagueKey string         `json:"league_key"`
	Week      int            `json:"week"`
	PlayerKey string         `json:"player_key"`
	StatID    int            `json:"stat_id"`
	Value     sql.NullString `json:"value,omitempty"`
}

// TeamWeeklyScore is a team's aggregate value for one stat in one week.
type TeamWeeklyScore struct {
	LeagueKey string         `json:"league_key"`
	Week      int            `json:"week"`
	TeamKey   string         `json:"team_key"`
	StatID    int            `json:"stat_id"`
	Value     sql.NullString `json:"value,omitempty"`
}

// TransactionRecord is one add/drop/trade event. Week is null until the
// backfill pass assigns it from matchup date ranges.
type TransactionRecord struct {
	TransactionKey string         `json:"transaction_key"`
	LeagueKey      string         `json:"league_key"`
	Type           string         `json:"type"`
	Status         string         `json:"status"`
	Timestamp      string         `json:"timestamp"`
	Week           sql.NullInt32  `json:"week,omitempty"`
	TraderTeamKey  sql.NullString `json:"trader_team_key,omitempty"`
	TradeeTeamKey  sql.NullString `json:"tradee_team_key,omitempty"`
	FAABBid        sql.NullInt32  `json:"faab_bid,omitempty"`
}

// TransactionPlayer is one player's movement within a transaction.
type TransactionPlayer struct {
	TransactionKey     string         `json:"transaction_key"`
	PlayerKey          string         `json:"player_key"`
	SourceType         string         `json:"source_type"`
	SourceTeamKey      sql.NullString `json:"source_team_key,omitempty"`
	DestinationType    string         `json:"destination_type"`
	DestinationTeamKey sql.NullString `json:"destination_team_key,omitempty"`
	Type               string         `json:"type"`
}

// DraftPick is one pick of a season's draft, in overall pick order.
type DraftPick struct {
	LeagueKey string        `json:"league_key"`
	Pick      int           `json:"pick"`
	Round     int           `json:"round"`
	TeamKey   string        `json:"team_key"`
	PlayerKey string        `json:"player_key"`
	Cost      sql.NullInt32 `json:"cost,omitempty"`
}

// Keeper is one retained player for one (team, season). KeptFromSeason is
// the start of the unbroken consecutive-season run for the owning franchise.
type Keeper struct {
	LeagueKey      string        `json:"league_key"`
	TeamKey        string        `json:"team_key"`
	PlayerKey      string        `json:"player_key"`
	PlayerName     string        `json:"player_name"`
	Season         int           `json:"season"`
	RoundCost      int           `json:"round_cost"`
	KeptFromSeason sql.NullInt32 `json:"kept_from_season,omitempty"`
}

// Sync unit statuses.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncLog tracks per-unit completion. A unit with status "completed" is
// skipped on rerun, which is what makes re-invoking a sync safe.
type SyncLog struct {
	LeagueKey      string       `json:"league_key"`
	SyncType       string       `json:"sync_type"`
	Week           int          `json:"week"`
	Status         string       `json:"status"`
	StartedAt      sql.NullTime `json:"started_at,omitempty"`
	CompletedAt    sql.NullTime `json:"completed_at,omitempty"`
	RecordsWritten int          `json:"records_written"`
	ErrorMessage   string       `json:"error_message"`
}

// LastSynced is a convenience for presentation layers.
func (l *League) LastSynced() time.Time {
	if l.SyncedAt.Valid {
		return l.SyncedAt.Time
	}
	return time.Time{}
}
