package analytics

import (
	"database/sql"
	"testing"

	"github.com/fortuna/dynasty/internal/store/repository"
)

func catValue(season, week int, name string, sortOrder int, value, manager string) repository.CategoryValueRow {
	return repository.CategoryValueRow{
		Season:      season,
		Week:        week,
		DisplayName: name,
		SortOrder:   sortOrder,
		Value:       sql.NullString{String: value, Valid: true},
		Manager:     manager,
	}
}

func TestComputeCategoryRecords(t *testing.T) {
	values := []repository.CategoryValueRow{
		catValue(2019, 1, "HR", 1, "8", "alice"),
		catValue(2019, 5, "HR", 1, "14", "bob"),
		catValue(2020, 2, "HR", 1, "14", "carol"), // ties, earlier holder keeps it
		catValue(2019, 1, "ERA", 0, "3.20", "alice"),
		catValue(2020, 3, "ERA", 0, "1.85", "bob"),
		{Season: 2020, Week: 4, DisplayName: "ERA", SortOrder: 0, Manager: "dave"}, // null value skipped
		catValue(2020, 5, "ERA", 0, "-", "dave"),                                   // unparsable skipped
	}

	records := ComputeCategoryRecords(values)
	if len(records) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(records))
	}

	// Output is sorted by display name.
	era, hr := records[0], records[1]
	if era.DisplayName != "ERA" || era.RawValue != "1.85" || era.Manager != "bob" {
		t.Errorf("ERA record = %+v", era)
	}
	if hr.DisplayName != "HR" || hr.RawValue != "14" || hr.Manager != "bob" || hr.Season != 2019 {
		t.Errorf("HR record = %+v", hr)
	}
}

func regMatchup(season, week int, guid1, guid2, winner string) repository.MatchupIdentityRow {
	m := repository.MatchupIdentityRow{
		Season:   season,
		Week:     week,
		TeamKey1: "t." + guid1,
		TeamKey2: "t." + guid2,
		GUID1:    guid1,
		GUID2:    guid2,
	}
	if winner == "" {
		m.IsTied = true
	} else {
		m.WinnerTeamKey = sql.NullString{String: "t." + winner, Valid: true}
	}
	return m
}

func TestComputeStreaks(t *testing.T) {
	// Manager a against b: W, W, L, W from a's perspective.
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2020, 1, "a", "b", "a"),
		regMatchup(2020, 2, "a", "b", "a"),
		regMatchup(2020, 3, "a", "b", "b"),
		regMatchup(2020, 4, "a", "b", "a"),
	}

	streaks, bests := ComputeStreaks(matchups)

	a := streaks["a"]
	if a.LongestWin != 2 || a.LongestLoss != 1 || a.Current != 1 {
		t.Errorf("a streaks = %+v", a)
	}
	b := streaks["b"]
	if b.LongestWin != 1 || b.LongestLoss != 2 || b.Current != -1 {
		t.Errorf("b streaks = %+v", b)
	}

	if bests.Win.GUID != "a" || bests.Win.Length != 2 {
		t.Errorf("best win streak = %+v", bests.Win)
	}
	if bests.Win.StartSeason != 2020 || bests.Win.StartWeek != 1 || bests.Win.EndWeek != 2 {
		t.Errorf("best win streak span = %+v", bests.Win)
	}
	if bests.Loss.GUID != "b" || bests.Loss.Length != 2 {
		t.Errorf("best loss streak = %+v", bests.Loss)
	}
}

func TestComputeStreaksTieBehavior(t *testing.T) {
	// W, T, W: the tie breaks the win streak but the unbeaten run spans
	// all three games.
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2021, 1, "a", "b", "a"),
		regMatchup(2021, 2, "a", "b", ""),
		regMatchup(2021, 3, "a", "b", "a"),
	}

	streaks, bests := ComputeStreaks(matchups)
	a := streaks["a"]
	if a.LongestWin != 1 {
		t.Errorf("tie should reset win streak, longest = %d", a.LongestWin)
	}
	if a.LongestUnbeaten != 3 {
		t.Errorf("unbeaten should span the tie, longest = %d", a.LongestUnbeaten)
	}
	if bests.Unbeaten.GUID != "a" || bests.Unbeaten.Length != 3 {
		t.Errorf("best unbeaten = %+v", bests.Unbeaten)
	}
}

func TestComputeStreaksSpanSeasons(t *testing.T) {
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2020, 20, "a", "b", "a"),
		regMatchup(2021, 1, "a", "b", "a"),
	}

	streaks, _ := ComputeStreaks(matchups)
	if streaks["a"].LongestWin != 2 {
		t.Errorf("streaks should cross season boundaries, got %d", streaks["a"].LongestWin)
	}
}

func TestComputeStreaksRegularSeasonOnly(t *testing.T) {
	// Two regular-season wins, then a playoff loss. The loss must not
	// touch the streak tables.
	playoff := regMatchup(2020, 3, "a", "b", "b")
	playoff.IsPlayoffs = true
	consolation := regMatchup(2020, 4, "a", "b", "b")
	consolation.IsConsolation = true
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2020, 1, "a", "b", "a"),
		regMatchup(2020, 2, "a", "b", "a"),
		playoff,
		consolation,
	}

	streaks, bests := ComputeStreaks(matchups)
	a := streaks["a"]
	if a.LongestLoss != 0 || a.Current != 2 {
		t.Errorf("playoff loss leaked into streaks: %+v", a)
	}
	if a.LongestWin != 2 || bests.Win.Length != 2 {
		t.Errorf("regular-season wins miscounted: %+v, bests %+v", a, bests.Win)
	}
	if bests.Loss.Length != 0 {
		t.Errorf("best loss streak should be empty, got %+v", bests.Loss)
	}
}

func TestComputeExtremes(t *testing.T) {
	m1 := regMatchup(2020, 1, "a", "b", "a")
	m1.CatsWon1, m1.CatsWon2 = 10, 1
	m2 := regMatchup(2020, 2, "a", "b", "b")
	m2.CatsWon1, m2.CatsWon2 = 5, 6
	tie := regMatchup(2020, 3, "a", "b", "")
	tie.CatsWon1, tie.CatsWon2 = 5, 5

	blowout, closest := ComputeExtremes([]repository.MatchupIdentityRow{m1, m2, tie}, func(guid string) string {
		return "name-" + guid
	})

	if blowout == nil || blowout.Margin != 9 || blowout.Week != 1 {
		t.Errorf("blowout = %+v", blowout)
	}
	if closest == nil || closest.Margin != 1 || closest.Week != 2 {
		t.Errorf("closest = %+v", closest)
	}
	if blowout.Manager1 != "name-a" {
		t.Errorf("manager resolution = %q", blowout.Manager1)
	}
}

func TestComputeExtremesRegularSeasonOnly(t *testing.T) {
	reg := regMatchup(2020, 1, "a", "b", "a")
	reg.CatsWon1, reg.CatsWon2 = 6, 3
	playoff := regMatchup(2020, 22, "a", "b", "a")
	playoff.CatsWon1, playoff.CatsWon2 = 10, 0
	playoff.IsPlayoffs = true
	consolation := regMatchup(2020, 23, "a", "b", "b")
	consolation.CatsWon1, consolation.CatsWon2 = 5, 6
	consolation.IsConsolation = true

	blowout, closest := ComputeExtremes(
		[]repository.MatchupIdentityRow{reg, playoff, consolation},
		func(guid string) string { return guid })

	if blowout == nil || blowout.Week != 1 || blowout.Margin != 3 {
		t.Errorf("playoff blowout should not hold the record: %+v", blowout)
	}
	if closest == nil || closest.Week != 1 {
		t.Errorf("consolation game should not hold the record: %+v", closest)
	}
}
