package analytics

import (
	"sort"

	"github.com/fortuna/dynasty/internal/store/repository"
)

// ManagerSeason is a single season's line inside a career.
type ManagerSeason struct {
	Season        int    `json:"season"`
	TeamName      string `json:"team_name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Ties          int    `json:"ties"`
	PlayoffWins   int    `json:"playoff_wins"`
	PlayoffLosses int    `json:"playoff_losses"`
	Finish        int    `json:"finish,omitempty"`
}

// ManagerCareer is one manager's all-time line.
type ManagerCareer struct {
	GUID               string          `json:"guid"`
	Name               string          `json:"name"`
	Seasons            int             `json:"seasons"`
	FirstSeason        int             `json:"first_season"`
	LastSeason         int             `json:"last_season"`
	Wins               int             `json:"wins"`
	Losses             int             `json:"losses"`
	Ties               int             `json:"ties"`
	WinPct             float64         `json:"win_pct"`
	PlayoffWins        int             `json:"playoff_wins"`
	PlayoffLosses      int             `json:"playoff_losses"`
	Championships      int             `json:"championships"`
	RunnerUps          int             `json:"runner_ups"`
	BestFinish         int             `json:"best_finish"`
	WorstFinish        int             `json:"worst_finish"`
	PlayoffAppearances int             `json:"playoff_appearances"`
	History            []ManagerSeason `json:"history"`
}

// ComputeCareers folds team rows and matchups into per-manager careers.
// Regular-season and playoff records are tallied separately, with a
// per-season history kept alongside the totals. Titles and finishes come
// from the stored final finish values of finished seasons, so a
// consolation bracket win never counts as a championship.
func ComputeCareers(teams []repository.ManagerTeamRow, matchups []repository.MatchupIdentityRow, nameOf func(guid, fallback string) string) []ManagerCareer {
	byGUID := make(map[string]*ManagerCareer)
	lines := make(map[string]map[int]*ManagerSeason)

	for _, t := range teams {
		if t.ManagerGUID == "" {
			continue
		}
		c := byGUID[t.ManagerGUID]
		if c == nil {
			c = &ManagerCareer{GUID: t.ManagerGUID, FirstSeason: t.Season}
			byGUID[t.ManagerGUID] = c
			lines[t.ManagerGUID] = make(map[int]*ManagerSeason)
		}
		fallback := t.ManagerName
		if fallback == "" {
			fallback = t.ManagerNickname
		}
		c.Name = nameOf(t.ManagerGUID, fallback)
		c.Seasons++
		if t.Season < c.FirstSeason {
			c.FirstSeason = t.Season
		}
		if t.Season > c.LastSeason {
			c.LastSeason = t.Season
		}
		line := &ManagerSeason{Season: t.Season, TeamName: t.TeamName}
		lines[t.ManagerGUID][t.Season] = line
		if t.PlayoffSeed.Valid {
			c.PlayoffAppearances++
		}
		if t.Finish.Valid && t.IsFinished {
			finish := int(t.Finish.Int32)
			line.Finish = finish
			if finish == 1 {
				c.Championships++
			}
			if finish == 2 {
				c.RunnerUps++
			}
			if c.BestFinish == 0 || finish < c.BestFinish {
				c.BestFinish = finish
			}
			if finish > c.WorstFinish {
				c.WorstFinish = finish
			}
		}
	}

	for _, m := range matchups {
		c1, c2 := byGUID[m.GUID1], byGUID[m.GUID2]
		if c1 == nil || c2 == nil {
			continue
		}
		l1, l2 := lines[m.GUID1][m.Season], lines[m.GUID2][m.Season]
		if m.IsPlayoffs {
			// A playoff row without a winner carries no bracket result.
			switch {
			case m.IsTied || !m.WinnerTeamKey.Valid:
			case m.WinnerTeamKey.String == m.TeamKey1:
				c1.PlayoffWins++
				c2.PlayoffLosses++
				if l1 != nil {
					l1.PlayoffWins++
				}
				if l2 != nil {
					l2.PlayoffLosses++
				}
			default:
				c2.PlayoffWins++
				c1.PlayoffLosses++
				if l2 != nil {
					l2.PlayoffWins++
				}
				if l1 != nil {
					l1.PlayoffLosses++
				}
			}
			continue
		}
		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			c1.Ties++
			c2.Ties++
			if l1 != nil {
				l1.Ties++
			}
			if l2 != nil {
				l2.Ties++
			}
		case m.WinnerTeamKey.String == m.TeamKey1:
			c1.Wins++
			c2.Losses++
			if l1 != nil {
				l1.Wins++
			}
			if l2 != nil {
				l2.Losses++
			}
		default:
			c2.Wins++
			c1.Losses++
			if l2 != nil {
				l2.Wins++
			}
			if l1 != nil {
				l1.Losses++
			}
		}
	}

	out := make([]ManagerCareer, 0, len(byGUID))
	for _, c := range byGUID {
		games := c.Wins + c.Losses + c.Ties
		if games > 0 {
			c.WinPct = (float64(c.Wins) + 0.5*float64(c.Ties)) / float64(games)
		}
		for _, line := range lines[c.GUID] {
			c.History = append(c.History, *line)
		}
		sort.Slice(c.History, func(i, j int) bool {
			return c.History[i].Season > c.History[j].Season
		})
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Championships != out[j].Championships {
			return out[i].Championships > out[j].Championships
		}
		if out[i].WinPct != out[j].WinPct {
			return out[i].WinPct > out[j].WinPct
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// H2HRecord is one manager's all-time record against one opponent.
type H2HRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// ComputeH2H builds the symmetric head-to-head matrix keyed by manager
// GUID. Every matchup credits both directions, so matrix[a][b].Wins always
// equals matrix[b][a].Losses. Playoff games count.
func ComputeH2H(matchups []repository.MatchupIdentityRow) map[string]map[string]*H2HRecord {
	matrix := make(map[string]map[string]*H2HRecord)
	cell := func(a, b string) *H2HRecord {
		if matrix[a] == nil {
			matrix[a] = make(map[string]*H2HRecord)
		}
		if matrix[a][b] == nil {
			matrix[a][b] = &H2HRecord{}
		}
		return matrix[a][b]
	}

	for _, m := range matchups {
		if m.GUID1 == "" || m.GUID2 == "" || m.GUID1 == m.GUID2 {
			continue
		}
		c12 := cell(m.GUID1, m.GUID2)
		c21 := cell(m.GUID2, m.GUID1)
		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			c12.Ties++
			c21.Ties++
		case m.WinnerTeamKey.String == m.TeamKey1:
			c12.Wins++
			c21.Losses++
		default:
			c21.Wins++
			c12.Losses++
		}
	}
	return matrix
}
