package analytics

import (
	"database/sql"
	"testing"

	"github.com/fortuna/dynasty/internal/store/repository"
)

func teamRow(season int, guid string, finish int, finished bool) repository.ManagerTeamRow {
	row := repository.ManagerTeamRow{
		Season:      season,
		LeagueKey:   "l.1",
		TeamKey:     "t." + guid,
		ManagerGUID: guid,
		ManagerName: "name-" + guid,
		IsFinished:  finished,
	}
	if finish > 0 {
		row.Finish = sql.NullInt32{Int32: int32(finish), Valid: true}
	}
	return row
}

func passthroughName(guid, fallback string) string { return fallback }

func TestComputeCareersTitles(t *testing.T) {
	teams := []repository.ManagerTeamRow{
		teamRow(2019, "a", 1, true),
		teamRow(2020, "a", 2, true),
		teamRow(2021, "a", 1, false), // unfinished season never awards a title
		teamRow(2019, "b", 8, true),
		teamRow(2020, "b", 1, true),
	}

	careers := ComputeCareers(teams, nil, passthroughName)
	if len(careers) != 2 {
		t.Fatalf("expected 2 careers, got %d", len(careers))
	}

	var a, b *ManagerCareer
	for i := range careers {
		switch careers[i].GUID {
		case "a":
			a = &careers[i]
		case "b":
			b = &careers[i]
		}
	}

	if a.Championships != 1 || a.RunnerUps != 1 {
		t.Errorf("a titles = %d/%d, want 1/1", a.Championships, a.RunnerUps)
	}
	if a.Seasons != 3 || a.FirstSeason != 2019 || a.LastSeason != 2021 {
		t.Errorf("a tenure = %+v", a)
	}
	if a.BestFinish != 1 || a.WorstFinish != 2 {
		t.Errorf("a finishes = %d/%d", a.BestFinish, a.WorstFinish)
	}
	if b.Championships != 1 || b.WorstFinish != 8 {
		t.Errorf("b line = %+v", b)
	}
}

func TestComputeCareersRegularSeasonOnly(t *testing.T) {
	teams := []repository.ManagerTeamRow{
		teamRow(2020, "a", 0, false),
		teamRow(2020, "b", 0, false),
	}
	playoff := regMatchup(2020, 22, "a", "b", "a")
	playoff.IsPlayoffs = true
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2020, 1, "a", "b", "a"),
		regMatchup(2020, 2, "a", "b", ""),
		playoff,
	}

	careers := ComputeCareers(teams, matchups, passthroughName)
	var a ManagerCareer
	for _, c := range careers {
		if c.GUID == "a" {
			a = c
		}
	}

	if a.Wins != 1 || a.Ties != 1 || a.Losses != 0 {
		t.Errorf("a record = %d-%d-%d, playoff games must not count", a.Wins, a.Losses, a.Ties)
	}
	// (1 + 0.5) / 2
	if a.WinPct != 0.75 {
		t.Errorf("a win pct = %f, want 0.75", a.WinPct)
	}
	if a.PlayoffWins != 1 || a.PlayoffLosses != 0 {
		t.Errorf("a playoff record = %d-%d, want 1-0", a.PlayoffWins, a.PlayoffLosses)
	}
}

func TestComputeCareersHistory(t *testing.T) {
	teams := []repository.ManagerTeamRow{
		teamRow(2019, "a", 3, true),
		teamRow(2020, "a", 1, true),
		teamRow(2019, "b", 1, true),
		teamRow(2020, "b", 4, true),
	}
	playoff := regMatchup(2020, 22, "a", "b", "a")
	playoff.IsPlayoffs = true
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2019, 1, "a", "b", "b"),
		regMatchup(2020, 1, "a", "b", "a"),
		regMatchup(2020, 2, "a", "b", ""),
		playoff,
	}

	careers := ComputeCareers(teams, matchups, passthroughName)
	var a ManagerCareer
	for _, c := range careers {
		if c.GUID == "a" {
			a = c
		}
	}

	if len(a.History) != 2 {
		t.Fatalf("expected 2 season lines, got %d", len(a.History))
	}
	if a.History[0].Season != 2020 || a.History[1].Season != 2019 {
		t.Errorf("history should run newest first, got %d then %d", a.History[0].Season, a.History[1].Season)
	}
	latest := a.History[0]
	if latest.Wins != 1 || latest.Losses != 0 || latest.Ties != 1 {
		t.Errorf("2020 line = %d-%d-%d, want 1-0-1", latest.Wins, latest.Losses, latest.Ties)
	}
	if latest.PlayoffWins != 1 || latest.PlayoffLosses != 0 {
		t.Errorf("2020 playoff line = %d-%d, want 1-0", latest.PlayoffWins, latest.PlayoffLosses)
	}
	if latest.Finish != 1 {
		t.Errorf("2020 finish = %d, want 1", latest.Finish)
	}
	first := a.History[1]
	if first.Wins != 0 || first.Losses != 1 || first.Finish != 3 {
		t.Errorf("2019 line = %+v", first)
	}
	if a.Wins != 1 || a.Losses != 1 || a.Ties != 1 || a.PlayoffWins != 1 {
		t.Errorf("career totals = %+v", a)
	}
}

func TestComputeCareersOrdering(t *testing.T) {
	teams := []repository.ManagerTeamRow{
		teamRow(2019, "a", 1, true),
		teamRow(2019, "b", 5, true),
	}
	matchups := []repository.MatchupIdentityRow{
		// b beats a in the regular season, but a holds the ring.
		regMatchup(2019, 1, "a", "b", "b"),
	}

	careers := ComputeCareers(teams, matchups, passthroughName)
	if careers[0].GUID != "a" {
		t.Errorf("championships should sort first, got %s on top", careers[0].GUID)
	}
}

func TestComputeH2HSymmetry(t *testing.T) {
	matchups := []repository.MatchupIdentityRow{
		regMatchup(2020, 1, "a", "b", "a"),
		regMatchup(2020, 2, "a", "b", "b"),
		regMatchup(2020, 3, "a", "b", "a"),
		regMatchup(2020, 4, "a", "b", ""),
	}
	playoff := regMatchup(2020, 22, "a", "b", "a")
	playoff.IsPlayoffs = true
	matchups = append(matchups, playoff)

	matrix := ComputeH2H(matchups)

	ab := matrix["a"]["b"]
	ba := matrix["b"]["a"]
	if ab.Wins != 3 || ab.Losses != 1 || ab.Ties != 1 {
		t.Errorf("a vs b = %+v, playoffs should count", ab)
	}
	if ba.Wins != ab.Losses || ba.Losses != ab.Wins || ba.Ties != ab.Ties {
		t.Errorf("matrix not symmetric: %+v vs %+v", ab, ba)
	}
}

func TestComputeH2HSkipsBrokenRows(t *testing.T) {
	broken := regMatchup(2020, 1, "a", "a", "a")
	missing := regMatchup(2020, 2, "", "b", "b")

	matrix := ComputeH2H([]repository.MatchupIdentityRow{broken, missing})
	if len(matrix) != 0 {
		t.Errorf("self matches and missing GUIDs should be dropped, got %v", matrix)
	}
}
