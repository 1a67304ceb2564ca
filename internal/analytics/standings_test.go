package analytics

import (
	"database/sql"
	"testing"

	"github.com/fortuna/dynasty/internal/store"
)

func testTeam(key, name, manager string) *store.Team {
	return &store.Team{TeamKey: key, Name: name, ManagerName: manager}
}

func testMatchup(week int, k1, k2, winner string, cats1, cats2, tied int) *store.Matchup {
	m := &store.Matchup{
		Week:     week,
		TeamKey1: k1,
		TeamKey2: k2,
		CatsWon1: cats1,
		CatsWon2: cats2,
		CatsTied: tied,
	}
	if winner == "" {
		m.IsTied = true
	} else {
		m.WinnerTeamKey = sql.NullString{String: winner, Valid: true}
	}
	return m
}

func TestComputeStandings(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.1", "Alpha", "alice"),
		testTeam("t.2", "Bravo", "bob"),
		testTeam("t.3", "Charlie", "carol"),
		testTeam("t.4", "Delta", "dave"),
	}
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 2),
		testMatchup(1, "t.3", "t.4", "t.3", 6, 4, 2),
		testMatchup(2, "t.1", "t.3", "t.1", 8, 2, 2),
		testMatchup(2, "t.2", "t.4", "", 5, 5, 2),
	}

	standings := ComputeStandings(matchups, teams, 0)
	if len(standings) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(standings))
	}

	top := standings[0]
	if top.TeamKey != "t.1" || top.Wins != 2 || top.Rank != 1 || top.GamesBack != 0 {
		t.Errorf("leader = %+v", top)
	}
	if top.CatsWon != 15 || top.CatsLost != 5 || top.CatsTied != 4 {
		t.Errorf("leader categories = %+v", top)
	}

	second := standings[1]
	if second.TeamKey != "t.3" || second.GamesBack != 1 {
		t.Errorf("second = %+v", second)
	}

	// t.2 and t.4 both sit at 0-1-1; the roster order breaks the tie.
	if standings[2].TeamKey != "t.2" || standings[3].TeamKey != "t.4" {
		t.Errorf("tail order = %s, %s", standings[2].TeamKey, standings[3].TeamKey)
	}
	if standings[2].Ties != 1 || standings[2].WinPct != 0.25 {
		t.Errorf("tie handling = %+v", standings[2])
	}
}

func TestComputeStandingsThroughWeek(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.1", "Alpha", "alice"),
		testTeam("t.2", "Bravo", "bob"),
	}
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 0),
		testMatchup(2, "t.1", "t.2", "t.2", 2, 8, 0),
	}

	standings := ComputeStandings(matchups, teams, 1)
	if standings[0].TeamKey != "t.1" || standings[0].Wins != 1 || standings[0].Losses != 0 {
		t.Errorf("through week 1 = %+v", standings[0])
	}
}

func TestComputeStandingsExcludesPlayoffs(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.1", "Alpha", "alice"),
		testTeam("t.2", "Bravo", "bob"),
	}
	playoff := testMatchup(22, "t.1", "t.2", "t.2", 2, 8, 0)
	playoff.IsPlayoffs = true
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 0),
		playoff,
	}

	standings := ComputeStandings(matchups, teams, 0)
	if standings[0].TeamKey != "t.1" || standings[0].Losses != 0 {
		t.Errorf("playoff games must not count: %+v", standings[0])
	}
}

func TestComputeStandingsStableTiebreak(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.2", "Bravo", "bob"),
		testTeam("t.1", "Alpha", "alice"),
	}

	standings := ComputeStandings(nil, teams, 0)
	if standings[0].TeamKey != "t.2" || standings[1].TeamKey != "t.1" {
		t.Errorf("identical records should keep roster order, got %s first", standings[0].TeamKey)
	}

	// More wins beats fewer losses.
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 0),
		testMatchup(2, "t.1", "t.2", "t.2", 2, 8, 0),
		testMatchup(3, "t.1", "t.2", "t.1", 6, 4, 0),
	}
	standings = ComputeStandings(matchups, teams, 0)
	if standings[0].TeamKey != "t.1" || standings[0].Wins != 2 {
		t.Errorf("wins should lead the sort, got %+v", standings[0])
	}
}
