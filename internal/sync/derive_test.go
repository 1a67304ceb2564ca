package sync

import (
	"testing"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/yahoo"
)

func TestCompareStat(t *testing.T) {
	tests := []struct {
		name      string
		v1, v2    string
		sortOrder int
		want      int
	}{
		{"higher wins", "10", "8", 1, 1},
		{"higher wins reversed", "8", "10", 1, 2},
		{"lower wins", "3.50", "4.25", 0, 1},
		{"lower wins reversed", "4.25", "3.50", 0, 2},
		{"equal values tie", "7", "7", 1, 0},
		{"ratio values", ".275", ".268", 1, 1},
		{"unparsable left ties", "-", "5", 1, 0},
		{"unparsable right ties", "5", "", 1, 0},
		{"both unparsable tie", "-", "-", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareStat(tt.v1, tt.v2, tt.sortOrder); got != tt.want {
				t.Errorf("compareStat(%q, %q, %d) = %d, want %d", tt.v1, tt.v2, tt.sortOrder, got, tt.want)
			}
		})
	}
}

func TestScoreMatchup(t *testing.T) {
	tests := []struct {
		name         string
		outcomes     []CategoryOutcome
		totalScoring int
		won1, won2   int
		tied         int
	}{
		{
			name: "clean split",
			outcomes: []CategoryOutcome{
				{Winner: 1}, {Winner: 1}, {Winner: 2},
			},
			totalScoring: 3,
			won1:         2, won2: 1, tied: 0,
		},
		{
			name: "explicit tie counted",
			outcomes: []CategoryOutcome{
				{Winner: 1}, {Winner: 0}, {Winner: 2},
			},
			totalScoring: 3,
			won1:         1, won2: 1, tied: 1,
		},
		{
			name: "absent categories count as ties",
			outcomes: []CategoryOutcome{
				{Winner: 1}, {Winner: 2},
			},
			totalScoring: 10,
			won1:         1, won2: 1, tied: 8,
		},
		{
			name:         "no outcomes at all",
			outcomes:     nil,
			totalScoring: 12,
			won1:         0, won2: 0, tied: 12,
		},
		{
			name: "tied never goes negative",
			outcomes: []CategoryOutcome{
				{Winner: 1}, {Winner: 1},
			},
			totalScoring: 1,
			won1:         2, won2: 0, tied: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			won1, won2, tied := scoreMatchup(tt.outcomes, tt.totalScoring)
			if won1 != tt.won1 || won2 != tt.won2 || tied != tt.tied {
				t.Errorf("scoreMatchup() = (%d, %d, %d), want (%d, %d, %d)",
					won1, won2, tied, tt.won1, tt.won2, tt.tied)
			}
		})
	}
}

func TestDeriveCategories(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, SortOrder: 1, IsScoringStat: true},
		{StatID: 26, SortOrder: 0, IsScoringStat: true},
		{StatID: 60, SortOrder: 1, IsScoringStat: true, IsOnlyDisplay: true},
		{StatID: 3, SortOrder: 1, IsScoringStat: false},
	}
	t1 := yahoo.MatchupTeam{Stats: []yahoo.StatValue{
		{StatID: yahoo.FlexInt(7), Value: "12"},
		{StatID: yahoo.FlexInt(26), Value: "3.10"},
		{StatID: yahoo.FlexInt(60), Value: "100"},
	}}
	t2 := yahoo.MatchupTeam{Stats: []yahoo.StatValue{
		{StatID: yahoo.FlexInt(7), Value: "9"},
		{StatID: yahoo.FlexInt(26), Value: "2.95"},
		{StatID: yahoo.FlexInt(60), Value: "50"},
	}}

	outcomes := deriveCategories(t1, t2, cats)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 scoring outcomes, got %d", len(outcomes))
	}
	if outcomes[0].StatID != 7 || outcomes[0].Winner != 1 {
		t.Errorf("stat 7: got winner %d, want 1", outcomes[0].Winner)
	}
	if outcomes[1].StatID != 26 || outcomes[1].Winner != 2 {
		t.Errorf("stat 26 (lower wins): got winner %d, want 2", outcomes[1].Winner)
	}
}

func TestWeekForTimestamp(t *testing.T) {
	spans := map[int]store.WeekSpan{
		1: {Start: "2023-04-01", End: "2023-04-09"},
		2: {Start: "2023-04-10", End: "2023-04-16"},
		3: {Start: "2023-04-17", End: "2023-04-23"},
	}

	tests := []struct {
		name string
		ts   string
		want int
	}{
		// 2023-04-05 12:00 UTC
		{"inside week 1", "1680696000", 1},
		// 2023-04-10 00:00 UTC, first day of week 2
		{"boundary start of week 2", "1681084800", 2},
		// 2023-04-16 23:00 UTC, still week 2 by end date
		{"end of week 2", "1681686000", 2},
		// 2023-06-01, after the final week
		{"after last week clamps", "1685577600", 3},
		// before week 1 still lands in week 1
		{"before first week", "1609459200", 1},
		{"unparsable timestamp lands last", "not-a-number", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weekForTimestamp(tt.ts, spans); got != tt.want {
				t.Errorf("weekForTimestamp(%q) = %d, want %d", tt.ts, got, tt.want)
			}
		})
	}

	if got := weekForTimestamp("1680696000", nil); got != 0 {
		t.Errorf("empty spans: got %d, want 0", got)
	}
}
