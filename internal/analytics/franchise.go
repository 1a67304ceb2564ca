package analytics

import (
	"sort"

	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/identity"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// FranchiseEra is one manager's tenure over a franchise.
type FranchiseEra struct {
	GUID    string `json:"guid"`
	Manager string `json:"manager"`
	From    int    `json:"from"`
	To      int    `json:"to,omitempty"`
}

// FranchiseSummary is one persistent franchise's all-time line, aggregated
// across every manager who held it.
type FranchiseSummary struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Eras          []FranchiseEra `json:"eras"`
	Seasons       int            `json:"seasons"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Ties          int            `json:"ties"`
	WinPct        float64        `json:"win_pct"`
	Championships int            `json:"championships"`
	BestFinish    int            `json:"best_finish"`
	WorstFinish   int            `json:"worst_finish"`
}

// ComputeFranchises aggregates seasons and matchups per configured
// franchise. Team rows whose manager no franchise claims are skipped here;
// they still appear in per-manager views.
func ComputeFranchises(franchise *config.Franchise, resolver *identity.Resolver, teams []repository.ManagerTeamRow, matchups []repository.MatchupIdentityRow) []FranchiseSummary {
	summaries := make(map[string]*FranchiseSummary)
	for i := range franchise.Franchises {
		def := &franchise.Franchises[i]
		s := &FranchiseSummary{ID: def.ID, Name: def.Name}
		for _, iv := range def.Intervals {
			s.Eras = append(s.Eras, FranchiseEra{
				GUID:    iv.GUID,
				Manager: resolver.DisplayName(iv.GUID, iv.GUID),
				From:    iv.From,
				To:      iv.To,
			})
		}
		sort.Slice(s.Eras, func(a, b int) bool { return s.Eras[a].From < s.Eras[b].From })
		summaries[def.ID] = s
	}
	if len(summaries) == 0 {
		return nil
	}

	claim := func(guid string, season int) *FranchiseSummary {
		if def := resolver.FranchiseFor(guid, season); def != nil {
			return summaries[def.ID]
		}
		return nil
	}

	for _, t := range teams {
		s := claim(t.ManagerGUID, t.Season)
		if s == nil {
			continue
		}
		s.Seasons++
		if t.Finish.Valid && t.IsFinished {
			finish := int(t.Finish.Int32)
			if finish == 1 {
				s.Championships++
			}
			if s.BestFinish == 0 || finish < s.BestFinish {
				s.BestFinish = finish
			}
			if finish > s.WorstFinish {
				s.WorstFinish = finish
			}
		}
	}

	for _, m := range matchups {
		if m.IsPlayoffs {
			continue
		}
		s1 := claim(m.GUID1, m.Season)
		s2 := claim(m.GUID2, m.Season)
		switch {
		case m.IsTied || !m.WinnerTeamKey.Valid:
			if s1 != nil {
				s1.Ties++
			}
			if s2 != nil {
				s2.Ties++
			}
		case m.WinnerTeamKey.String == m.TeamKey1:
			if s1 != nil {
				s1.Wins++
			}
			if s2 != nil {
				s2.Losses++
			}
		default:
			if s2 != nil {
				s2.Wins++
			}
			if s1 != nil {
				s1.Losses++
			}
		}
	}

	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]FranchiseSummary, 0, len(ids))
	for _, id := range ids {
		s := summaries[id]
		games := s.Wins + s.Losses + s.Ties
		if games > 0 {
			s.WinPct = (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(games)
		}
		out = append(out, *s)
	}
	return out
}

// ComputeFranchiseH2H builds the head-to-head matrix between franchises.
// Matchups where either side's manager is unclaimed are skipped. Symmetric
// like the manager matrix; playoff games count.
func ComputeFranchiseH2H(resolver *identity.Resolver, matchups []repository.MatchupIdentityRow) map[string]map[string]*H2HRecord {
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
		d1 := resolver.FranchiseFor(m.GUID1, m.Season)
		d2 := resolver.FranchiseFor(m.GUID2, m.Season)
		if d1 == nil || d2 == nil || d1.ID == d2.ID {
			continue
		}
		c12 := cell(d1.ID, d2.ID)
		c21 := cell(d2.ID, d1.ID)
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
