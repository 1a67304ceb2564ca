package yahoo

import "strings"

// LeagueInfo is the league metadata resource.
type LeagueInfo struct {
	LeagueKey   string   `json:"league_key"`
	Name        string   `json:"name"`
	Season      FlexInt  `json:"season"`
	NumTeams    FlexInt  `json:"num_teams"`
	ScoringType string   `json:"scoring_type"`
	CurrentWeek FlexInt  `json:"current_week"`
	StartWeek   FlexInt  `json:"start_week"`
	EndWeek     FlexInt  `json:"end_week"`
	IsFinished  FlexBool `json:"is_finished"`
	GameCode    string   `json:"game_code"`
}

// StatCategoryInfo is one scoring category from league settings.
type StatCategoryInfo struct {
	StatID        FlexInt  `json:"stat_id"`
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	SortOrder     FlexInt  `json:"sort_order"`
	PositionType  string   `json:"position_type"`
	IsOnlyDisplay FlexBool `json:"is_only_display_stat"`
}

// LeagueSettings is the settings resource.
type LeagueSettings struct {
	UsesFAAB         FlexBool
	PlayoffStartWeek FlexInt
	MaxKeepers       FlexInt
	StatCategories   []StatCategoryInfo
}

// TeamInfo is one team with its manager identity.
type TeamInfo struct {
	TeamKey         string
	TeamID          int
	Name            string
	ManagerGUID     string
	ManagerNickname string
	WaiverPriority  int
	FAABBalance     int
}

// StandingsEntry is one team's final placement.
type StandingsEntry struct {
	TeamKey     string
	Rank        int
	PlayoffSeed int
}

// StatValue is one raw stat value. Value stays a string until use; the
// upstream mixes counts, averages, and "-" placeholders in one list.
type StatValue struct {
	StatID FlexInt `json:"stat_id"`
	Value  string  `json:"value"`
}

// MatchupTeam is one side of a matchup with its weekly category values.
type MatchupTeam struct {
	TeamKey string
	Stats   []StatValue
}

// MatchupInfo is one scoreboard pairing.
type MatchupInfo struct {
	Week          int
	WeekStart     string
	WeekEnd       string
	IsPlayoffs    bool
	IsConsolation bool
	IsTied        bool
	WinnerTeamKey string
	Teams         []MatchupTeam
}

// PlayerInfo is one player with optional weekly stats attached.
type PlayerInfo struct {
	PlayerKey         string
	FullName          string
	FirstName         string
	LastName          string
	EditorialTeam     string
	PrimaryPosition   string
	EligiblePositions []string
	Stats             []StatValue
}

// PlayerID returns the stable cross-season identifier, the numeric suffix
// after ".p." in the player key.
func (p *PlayerInfo) PlayerID() string {
	if i := strings.LastIndex(p.PlayerKey, ".p."); i >= 0 {
		return p.PlayerKey[i+len(".p."):]
	}
	return p.PlayerKey
}

// RosterSlot is one player on one team's weekly roster. IsKeeper is already
// normalized from the upstream's several keeper indicator shapes.
type RosterSlot struct {
	Player           PlayerInfo
	SelectedPosition string
	IsKeeper         bool
}

// DraftResult is one draft pick.
type DraftResult struct {
	Pick      FlexInt `json:"pick"`
	Round     FlexInt `json:"round"`
	TeamKey   string  `json:"team_key"`
	PlayerKey string  `json:"player_key"`
	Cost      FlexInt `json:"cost"`
}

// TransactionPlayerInfo is one player movement within a transaction.
type TransactionPlayerInfo struct {
	PlayerKey          string
	FullName           string
	Type               string
	SourceType         string
	SourceTeamKey      string
	DestinationType    string
	DestinationTeamKey string
}

// TransactionInfo is one add, drop, or trade event.
type TransactionInfo struct {
	TransactionKey string
	Type           string
	Status         string
	Timestamp      string
	FAABBid        int
	TraderTeamKey  string
	TradeeTeamKey  string
	Players        []TransactionPlayerInfo
}
