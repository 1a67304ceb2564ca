package analytics

import (
	"sort"
	"strconv"

	"github.com/fortuna/dynasty/internal/store/repository"
)

// CategoryRecord is the all-time best single-week value for one category.
type CategoryRecord struct {
	DisplayName string  `json:"display_name"`
	SortOrder   int     `json:"sort_order"`
	Value       float64 `json:"value"`
	RawValue    string  `json:"raw_value"`
	Season      int     `json:"season"`
	Week        int     `json:"week"`
	TeamName    string  `json:"team_name"`
	Manager     string  `json:"manager"`
}

// ComputeCategoryRecords finds the record weekly value per category across
// all seasons: the maximum for counting stats, the minimum for inverted
// ones like ERA. Ties keep the earliest holder; input arrives in season
// then week order, which makes that deterministic.
func ComputeCategoryRecords(values []repository.CategoryValueRow) []CategoryRecord {
	best := make(map[string]*CategoryRecord)
	var order []string

	for _, v := range values {
		if !v.Value.Valid {
			continue
		}
		f, err := strconv.ParseFloat(v.Value.String, 64)
		if err != nil {
			continue
		}
		cur, ok := best[v.DisplayName]
		better := false
		switch {
		case !ok:
			better = true
			order = append(order, v.DisplayName)
		case v.SortOrder == 0:
			better = f < cur.Value
		default:
			better = f > cur.Value
		}
		if better {
			best[v.DisplayName] = &CategoryRecord{
				DisplayName: v.DisplayName,
				SortOrder:   v.SortOrder,
				Value:       f,
				RawValue:    v.Value.String,
				Season:      v.Season,
				Week:        v.Week,
				TeamName:    v.TeamName,
				Manager:     v.Manager,
			}
		}
	}

	sort.Strings(order)
	out := make([]CategoryRecord, 0, len(order))
	for _, name := range order {
		out = append(out, *best[name])
	}
	return out
}

// StreakRecord is the longest run of one kind across all managers.
type StreakRecord struct {
	GUID        string `json:"guid"`
	Manager     string `json:"manager"`
	Length      int    `json:"length"`
	StartSeason int    `json:"start_season"`
	StartWeek   int    `json:"start_week"`
	EndSeason   int    `json:"end_season"`
	EndWeek     int    `json:"end_week"`
}

// ManagerStreaks carries one manager's streak state. Current is positive
// for an active win streak, negative for an active losing streak, zero
// after a tie.
type ManagerStreaks struct {
	GUID            string `json:"guid"`
	LongestWin      int    `json:"longest_win"`
	LongestLoss     int    `json:"longest_loss"`
	LongestUnbeaten int    `json:"longest_unbeaten"`
	Current         int    `json:"current"`
}

type streakState struct {
	win, loss, unbeaten           int
	winStart, lossStart, unbStart [2]int
	longest                       ManagerStreaks
	bestWin, bestLoss, bestUnb    StreakRecord
}

// StreakBests are the league-wide longest streaks of each kind.
type StreakBests struct {
	Win      StreakRecord `json:"win"`
	Loss     StreakRecord `json:"loss"`
	Unbeaten StreakRecord `json:"unbeaten"`
}

// ComputeStreaks walks regular-season matchups in season and week order
// and tracks, per manager, win, loss, and unbeaten streaks. Playoff and
// consolation rows are skipped. A tie ends both the win and loss streaks
// but extends the unbeaten one. Streaks span season boundaries. The
// second result holds the league-wide longest of each kind; only a
// strictly longer streak displaces the holder, and equal lengths resolve
// by GUID order, so the result is deterministic.
func ComputeStreaks(matchups []repository.MatchupIdentityRow) (map[string]*ManagerStreaks, StreakBests) {
	states := make(map[string]*streakState)
	at := func(guid string) *streakState {
		s := states[guid]
		if s == nil {
			s = &streakState{longest: ManagerStreaks{GUID: guid}}
			states[guid] = s
		}
		return s
	}

	record := func(s *streakState, season, week int, outcome int) {
		switch outcome {
		case 1: // win
			if s.win == 0 {
				s.winStart = [2]int{season, week}
			}
			s.win++
			s.loss = 0
			if s.unbeaten == 0 {
				s.unbStart = [2]int{season, week}
			}
			s.unbeaten++
			s.longest.Current = s.win
		case -1: // loss
			if s.loss == 0 {
				s.lossStart = [2]int{season, week}
			}
			s.loss++
			s.win = 0
			s.unbeaten = 0
			s.longest.Current = -s.loss
		default: // tie
			s.win = 0
			s.loss = 0
			if s.unbeaten == 0 {
				s.unbStart = [2]int{season, week}
			}
			s.unbeaten++
			s.longest.Current = 0
		}
		if s.win > s.longest.LongestWin {
			s.longest.LongestWin = s.win
			s.bestWin = StreakRecord{
				Length: s.win,
				StartSeason: s.winStart[0], StartWeek: s.winStart[1],
				EndSeason: season, EndWeek: week,
			}
		}
		if s.loss > s.longest.LongestLoss {
			s.longest.LongestLoss = s.loss
			s.bestLoss = StreakRecord{
				Length: s.loss,
				StartSeason: s.lossStart[0], StartWeek: s.lossStart[1],
				EndSeason: season, EndWeek: week,
			}
		}
		if s.unbeaten > s.longest.LongestUnbeaten {
			s.longest.LongestUnbeaten = s.unbeaten
			s.bestUnb = StreakRecord{
				Length: s.unbeaten,
				StartSeason: s.unbStart[0], StartWeek: s.unbStart[1],
				EndSeason: season, EndWeek: week,
			}
		}
	}

	for _, m := range matchups {
		if m.GUID1 == "" || m.GUID2 == "" || m.IsPlayoffs || m.IsConsolation {
			continue
		}
		var o1 int
		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			o1 = 0
		case m.WinnerTeamKey.String == m.TeamKey1:
			o1 = 1
		default:
			o1 = -1
		}
		record(at(m.GUID1), m.Season, m.Week, o1)
		record(at(m.GUID2), m.Season, m.Week, -o1)
	}

	out := make(map[string]*ManagerStreaks, len(states))
	var bests StreakBests
	guids := make([]string, 0, len(states))
	for guid := range states {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	for _, guid := range guids {
		s := states[guid]
		ms := s.longest
		out[guid] = &ms
		if s.bestWin.Length > bests.Win.Length {
			bests.Win = s.bestWin
			bests.Win.GUID = guid
		}
		if s.bestLoss.Length > bests.Loss.Length {
			bests.Loss = s.bestLoss
			bests.Loss.GUID = guid
		}
		if s.bestUnb.Length > bests.Unbeaten.Length {
			bests.Unbeaten = s.bestUnb
			bests.Unbeaten.GUID = guid
		}
	}
	return out, bests
}

// MatchupExtreme is one matchup singled out for its category margin.
type MatchupExtreme struct {
	Season   int    `json:"season"`
	Week     int    `json:"week"`
	Team1    string `json:"team_1"`
	Team2    string `json:"team_2"`
	Manager1 string `json:"manager_1"`
	Manager2 string `json:"manager_2"`
	CatsWon1 int    `json:"cats_won_1"`
	CatsWon2 int    `json:"cats_won_2"`
	Margin   int    `json:"margin"`
}

// ComputeExtremes returns the biggest blowout and the closest decided
// regular-season matchup across all seasons. Playoff and consolation rows
// never set a record. Earliest occurrence keeps a tied record.
func ComputeExtremes(matchups []repository.MatchupIdentityRow, nameOf func(guid string) string) (blowout, closest *MatchupExtreme) {
	for _, m := range matchups {
		if m.IsTied || !m.WinnerTeamKey.Valid || m.IsPlayoffs || m.IsConsolation {
			continue
		}
		margin := m.CatsWon1 - m.CatsWon2
		if margin < 0 {
			margin = -margin
		}
		ext := &MatchupExtreme{
			Season:   m.Season,
			Week:     m.Week,
			Team1:    m.TeamKey1,
			Team2:    m.TeamKey2,
			Manager1: nameOf(m.GUID1),
			Manager2: nameOf(m.GUID2),
			CatsWon1: m.CatsWon1,
			CatsWon2: m.CatsWon2,
			Margin:   margin,
		}
		if blowout == nil || margin > blowout.Margin {
			blowout = ext
		}
		if closest == nil || margin < closest.Margin {
			closest = ext
		}
	}
	return blowout, closest
}
