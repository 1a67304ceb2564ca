// Package analytics computes the cross-season aggregates: standings,
// manager careers, records, streaks, player valuations, and recaps. The
// heavy lifting happens in pure functions over store rows so the results
// are deterministic and cheap to test.
package analytics

import (
	"sort"

	"github.com/fortuna/dynasty/internal/store"
)

// StandingRow is one team's cumulative record through a week.
type StandingRow struct {
	Rank      int     `json:"rank"`
	TeamKey   string  `json:"team_key"`
	TeamName  string  `json:"team_name"`
	Manager   string  `json:"manager"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ties      int     `json:"ties"`
	WinPct    float64 `json:"win_pct"`
	CatsWon   int     `json:"cats_won"`
	CatsLost  int     `json:"cats_lost"`
	CatsTied  int     `json:"cats_tied"`
	GamesBack float64 `json:"games_back"`
}

// ComputeStandings folds regular-season matchups through a week into
// cumulative standings. A throughWeek of zero or less means every played
// week. Ordering is wins descending then losses ascending; teams still
// tied keep their league roster order, so the result does not depend on
// matchup row order.
func ComputeStandings(matchups []*store.Matchup, teams []*store.Team, throughWeek int) []StandingRow {
	byKey := make(map[string]*StandingRow, len(teams))
	var rows []*StandingRow
	for _, t := range teams {
		row := &StandingRow{
			TeamKey:  t.TeamKey,
			TeamName: t.Name,
			Manager:  displayManager(t),
		}
		byKey[t.TeamKey] = row
		rows = append(rows, row)
	}

	for _, m := range matchups {
		if (throughWeek > 0 && m.Week > throughWeek) || m.IsPlayoffs {
			continue
		}
		r1, r2 := byKey[m.TeamKey1], byKey[m.TeamKey2]
		if r1 == nil || r2 == nil {
			continue
		}
		r1.CatsWon += m.CatsWon1
		r1.CatsLost += m.CatsWon2
		r1.CatsTied += m.CatsTied
		r2.CatsWon += m.CatsWon2
		r2.CatsLost += m.CatsWon1
		r2.CatsTied += m.CatsTied

		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			r1.Ties++
			r2.Ties++
		case m.WinnerTeamKey.String == m.TeamKey1:
			r1.Wins++
			r2.Losses++
		default:
			r2.Wins++
			r1.Losses++
		}
	}

	for _, r := range rows {
		games := r.Wins + r.Losses + r.Ties
		if games > 0 {
			r.WinPct = (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(games)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].Losses < rows[j].Losses
	})

	out := make([]StandingRow, len(rows))
	for i, r := range rows {
		r.Rank = i + 1
		if i > 0 {
			lead := rows[0]
			r.GamesBack = (float64(lead.Wins-r.Wins) + float64(r.Losses-lead.Losses)) / 2
		}
		out[i] = *r
	}
	return out
}

func displayManager(t *store.Team) string {
	if t.ManagerName != "" {
		return t.ManagerName
	}
	return t.ManagerNickname
}
