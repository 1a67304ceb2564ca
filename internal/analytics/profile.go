package analytics

import (
	"fmt"
	"sort"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// ProfilePlayer is one starter called out in a team profile.
type ProfilePlayer struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
}

// TeamProfile is one team's power-ranking line for a week: standing,
// movement, current form, the week's matchup, and where the roster is
// strong or thin.
type TeamProfile struct {
	Rank           int            `json:"rank"`
	PrevRank       int            `json:"prev_rank,omitempty"`
	TeamKey        string         `json:"team_key"`
	TeamName       string         `json:"team_name"`
	Manager        string         `json:"manager"`
	Record         string         `json:"record"`
	Streak         string         `json:"streak,omitempty"`
	Opponent       string         `json:"opponent,omitempty"`
	MVP            *ProfilePlayer `json:"mvp,omitempty"`
	Disappointment *ProfilePlayer `json:"disappointment,omitempty"`
	Strengths      []string       `json:"strengths,omitempty"`
	Weaknesses     []string       `json:"weaknesses,omitempty"`
}

// ComputeTeamProfiles folds standings, the week's starter valuations, and
// cumulative category wins into one profile per team, ordered by rank.
// The previous standings give rank movement; values carry the week's MVP
// and disappointment per team via teamOf (player id to team key).
func ComputeTeamProfiles(standings, prev []StandingRow, matchups []*store.Matchup,
	week int, values []PlayerValueRow, teamOf map[string]string,
	catWins map[string]map[int]int, cats []*store.StatCategory) []TeamProfile {

	prevRank := make(map[string]int, len(prev))
	for _, r := range prev {
		prevRank[r.TeamKey] = r.Rank
	}
	nameOf := make(map[string]string, len(standings))
	for _, r := range standings {
		nameOf[r.TeamKey] = r.TeamName
	}

	opponent := make(map[string]string)
	for _, m := range matchups {
		if m.Week != week {
			continue
		}
		opponent[m.TeamKey1] = nameOf[m.TeamKey2]
		opponent[m.TeamKey2] = nameOf[m.TeamKey1]
	}

	streaks := computeFormStreaks(matchups, week)

	best := make(map[string]*ProfilePlayer)
	worst := make(map[string]*ProfilePlayer)
	for i := range values {
		v := &values[i]
		teamKey := teamOf[v.PlayerID]
		if teamKey == "" {
			continue
		}
		pp := &ProfilePlayer{PlayerID: v.PlayerID, Name: v.Name, Value: v.Value}
		if best[teamKey] == nil || v.Value > best[teamKey].Value {
			best[teamKey] = pp
		}
		if worst[teamKey] == nil || v.Value < worst[teamKey].Value {
			worst[teamKey] = pp
		}
	}

	var scoring []*store.StatCategory
	for _, c := range cats {
		if c.IsOnlyDisplay || !c.IsScoringStat {
			continue
		}
		scoring = append(scoring, c)
	}

	out := make([]TeamProfile, 0, len(standings))
	for _, r := range standings {
		p := TeamProfile{
			Rank:     r.Rank,
			PrevRank: prevRank[r.TeamKey],
			TeamKey:  r.TeamKey,
			TeamName: r.TeamName,
			Manager:  r.Manager,
			Record:   fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties),
			Streak:   streaks[r.TeamKey],
			Opponent: opponent[r.TeamKey],
			MVP:      best[r.TeamKey],
		}
		if worst[r.TeamKey] != nil && worst[r.TeamKey] != best[r.TeamKey] {
			p.Disappointment = worst[r.TeamKey]
		}
		p.Strengths, p.Weaknesses = categoryEdges(catWins[r.TeamKey], scoring)
		out = append(out, p)
	}
	return out
}

// computeFormStreaks derives each team's current regular-season streak
// through a week, formatted like "W3" or "L1".
func computeFormStreaks(matchups []*store.Matchup, week int) map[string]string {
	type result struct {
		week int
		kind byte
	}
	results := make(map[string][]result)
	record := func(teamKey string, w int, kind byte) {
		results[teamKey] = append(results[teamKey], result{week: w, kind: kind})
	}
	for _, m := range matchups {
		if m.IsPlayoffs || (week > 0 && m.Week > week) {
			continue
		}
		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			record(m.TeamKey1, m.Week, 'T')
			record(m.TeamKey2, m.Week, 'T')
		case m.WinnerTeamKey.String == m.TeamKey1:
			record(m.TeamKey1, m.Week, 'W')
			record(m.TeamKey2, m.Week, 'L')
		default:
			record(m.TeamKey2, m.Week, 'W')
			record(m.TeamKey1, m.Week, 'L')
		}
	}

	out := make(map[string]string, len(results))
	for teamKey, rs := range results {
		sort.Slice(rs, func(i, j int) bool { return rs[i].week < rs[j].week })
		kind := rs[len(rs)-1].kind
		n := 0
		for i := len(rs) - 1; i >= 0 && rs[i].kind == kind; i-- {
			n++
		}
		out[teamKey] = fmt.Sprintf("%c%d", kind, n)
	}
	return out
}

// categoryEdges names a team's two most-won and two least-won scoring
// categories. Categories the team never won count as zero.
func categoryEdges(wins map[int]int, scoring []*store.StatCategory) (strengths, weaknesses []string) {
	if len(scoring) == 0 {
		return nil, nil
	}
	ranked := make([]*store.StatCategory, len(scoring))
	copy(ranked, scoring)
	sort.SliceStable(ranked, func(i, j int) bool {
		return wins[ranked[i].StatID] > wins[ranked[j].StatID]
	})
	for i := 0; i < len(ranked) && i < 2; i++ {
		if wins[ranked[i].StatID] > 0 {
			strengths = append(strengths, ranked[i].DisplayName)
		}
	}
	for i := len(ranked) - 1; i >= 0 && len(weaknesses) < 2; i-- {
		name := ranked[i].DisplayName
		if containsName(strengths, name) {
			break
		}
		weaknesses = append(weaknesses, name)
	}
	return strengths, weaknesses
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// buildStarterTeams maps each starter to the team that started them,
// so week valuations can be attributed in the profiles.
func buildStarterTeams(rows []repository.StarterStatRow) map[string]string {
	teamOf := make(map[string]string)
	for _, r := range rows {
		if r.TeamKey != "" {
			teamOf[r.PlayerID] = r.TeamKey
		}
	}
	return teamOf
}
