package sync

import (
	"sort"
	"strconv"
	"time"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/yahoo"
)

// CategoryOutcome is one stat's result within a matchup. Winner is 1 or 2
// for the winning side, 0 for a tie.
type CategoryOutcome struct {
	StatID int
	Value1 string
	Value2 string
	Winner int
}

// deriveCategories compares both sides' weekly values per scoring category.
// Display-only stats are excluded. A value that does not parse as a number
// ties its category.
func deriveCategories(t1, t2 yahoo.MatchupTeam, cats []*store.StatCategory) []CategoryOutcome {
	values1 := statMap(t1.Stats)
	values2 := statMap(t2.Stats)

	var outcomes []CategoryOutcome
	for _, cat := range cats {
		if cat.IsOnlyDisplay || !cat.IsScoringStat {
			continue
		}
		o := CategoryOutcome{
			StatID: cat.StatID,
			Value1: values1[cat.StatID],
			Value2: values2[cat.StatID],
		}
		o.Winner = compareStat(o.Value1, o.Value2, cat.SortOrder)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func statMap(stats []yahoo.StatValue) map[int]string {
	m := make(map[int]string, len(stats))
	for _, s := range stats {
		m[s.StatID.Int()] = s.Value
	}
	return m
}

// compareStat decides a category. Sort order 1 means higher wins, 0 means
// lower wins (ERA, WHIP, turnovers).
func compareStat(v1, v2 string, sortOrder int) int {
	f1, err1 := strconv.ParseFloat(v1, 64)
	f2, err2 := strconv.ParseFloat(v2, 64)
	if err1 != nil || err2 != nil || f1 == f2 {
		return 0
	}
	higherWins := sortOrder != 0
	if (f1 > f2) == higherWins {
		return 1
	}
	return 2
}

// scoreMatchup totals category wins. The tied count is derived from the
// league's scoring category total rather than counted directly, because
// older seasons omit some category rows entirely; absent categories count
// as ties, never as losses.
func scoreMatchup(outcomes []CategoryOutcome, totalScoring int) (won1, won2, tied int) {
	for _, o := range outcomes {
		switch o.Winner {
		case 1:
			won1++
		case 2:
			won2++
		}
	}
	tied = totalScoring - won1 - won2
	if tied < 0 {
		tied = 0
	}
	return won1, won2, tied
}

// weekForTimestamp assigns a week to a unix-seconds timestamp using the
// week date spans: the first week whose end date falls on or after the
// event. Events after the last week land in the last week.
func weekForTimestamp(ts string, spans map[int]store.WeekSpan) int {
	if len(spans) == 0 {
		return 0
	}
	weeks := make([]int, 0, len(spans))
	for w := range spans {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return weeks[len(weeks)-1]
	}
	date := time.Unix(secs, 0).UTC().Format("2006-01-02")

	for _, w := range weeks {
		if spans[w].End >= date {
			return w
		}
	}
	return weeks[len(weeks)-1]
}
