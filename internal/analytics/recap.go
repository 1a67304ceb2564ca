package analytics

import (
	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// CategoryLine is one scoring category's result within a matchup.
type CategoryLine struct {
	Name   string `json:"name"`
	Value1 string `json:"value_1"`
	Value2 string `json:"value_2"`
	Winner string `json:"winner,omitempty"`
}

// RecapMatchup is one week's pairing annotated for presentation.
type RecapMatchup struct {
	MatchupID  int            `json:"matchup_id"`
	Team1      string         `json:"team_1"`
	Team2      string         `json:"team_2"`
	Manager1   string         `json:"manager_1"`
	Manager2   string         `json:"manager_2"`
	CatsWon1   int            `json:"cats_won_1"`
	CatsWon2   int            `json:"cats_won_2"`
	CatsTied   int            `json:"cats_tied"`
	Winner     string         `json:"winner,omitempty"`
	Margin     int            `json:"margin"`
	IsTied     bool           `json:"is_tied"`
	IsPlayoffs bool           `json:"is_playoffs"`
	Categories []CategoryLine `json:"categories,omitempty"`
}

// RecapMove is one roster move made during the recapped week.
type RecapMove struct {
	PlayerName string `json:"player_name"`
	MoveType   string `json:"move_type"`
	Team       string `json:"team,omitempty"`
	FAABBid    int    `json:"faab_bid,omitempty"`
}

// Recap is the weekly recap payload: the week's results, the roster churn,
// and standings as of that week.
type Recap struct {
	LeagueKey string         `json:"league_key"`
	Season    int            `json:"season"`
	Week      int            `json:"week"`
	Matchups  []RecapMatchup `json:"matchups"`
	Moves     []RecapMove    `json:"moves,omitempty"`
	Standings []StandingRow  `json:"standings"`
	Blowout   *RecapMatchup  `json:"blowout,omitempty"`
	Nailbiter *RecapMatchup  `json:"nailbiter,omitempty"`
}

// BuildRecap assembles the recap for one week. Blowout and nailbiter single
// out the widest and narrowest decided results of the week.
func BuildRecap(league *store.League, week int, matchups []repository.NamedMatchup, standings []StandingRow, moves []repository.MoveRow) *Recap {
	recap := &Recap{
		LeagueKey: league.LeagueKey,
		Season:    league.Season,
		Week:      week,
		Standings: standings,
	}

	teamNames := make(map[string]string, 2*len(matchups))
	for _, nm := range matchups {
		teamNames[nm.TeamKey1] = nm.TeamName1
		teamNames[nm.TeamKey2] = nm.TeamName2
	}

	for _, nm := range matchups {
		rm := RecapMatchup{
			MatchupID:  nm.MatchupID,
			Team1:      nm.TeamName1,
			Team2:      nm.TeamName2,
			Manager1:   nm.Manager1,
			Manager2:   nm.Manager2,
			CatsWon1:   nm.CatsWon1,
			CatsWon2:   nm.CatsWon2,
			CatsTied:   nm.CatsTied,
			IsTied:     nm.IsTied,
			IsPlayoffs: nm.IsPlayoffs,
		}
		rm.Margin = rm.CatsWon1 - rm.CatsWon2
		if rm.Margin < 0 {
			rm.Margin = -rm.Margin
		}
		if nm.WinnerTeamKey.Valid {
			if nm.WinnerTeamKey.String == nm.TeamKey1 {
				rm.Winner = nm.TeamName1
			} else {
				rm.Winner = nm.TeamName2
			}
		}
		recap.Matchups = append(recap.Matchups, rm)
	}

	for _, mv := range moves {
		move := RecapMove{
			PlayerName: mv.PlayerName,
			MoveType:   mv.MoveType,
		}
		if mv.TeamKey.Valid {
			move.Team = teamNames[mv.TeamKey.String]
		}
		if mv.FAABBid.Valid {
			move.FAABBid = int(mv.FAABBid.Int32)
		}
		recap.Moves = append(recap.Moves, move)
	}

	for i := range recap.Matchups {
		rm := &recap.Matchups[i]
		if rm.Winner == "" {
			continue
		}
		if recap.Blowout == nil || rm.Margin > recap.Blowout.Margin {
			recap.Blowout = rm
		}
		if recap.Nailbiter == nil || rm.Margin < recap.Nailbiter.Margin {
			recap.Nailbiter = rm
		}
	}
	return recap
}
