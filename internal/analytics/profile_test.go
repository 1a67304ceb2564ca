package analytics

import (
	"testing"

	"github.com/fortuna/dynasty/internal/store"
)

func scoringCat(id int, name string) *store.StatCategory {
	return &store.StatCategory{StatID: id, DisplayName: name, IsScoringStat: true, SortOrder: 1}
}

func TestComputeTeamProfiles(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.1", "Alpha", "alice"),
		testTeam("t.2", "Bravo", "bob"),
		testTeam("t.3", "Charlie", "carol"),
		testTeam("t.4", "Delta", "dave"),
	}
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 0),
		testMatchup(1, "t.3", "t.4", "t.4", 4, 6, 0),
		testMatchup(2, "t.1", "t.3", "t.1", 8, 2, 0),
		testMatchup(2, "t.2", "t.4", "t.2", 6, 4, 0),
	}
	standings := ComputeStandings(matchups, teams, 2)
	prev := ComputeStandings(matchups, teams, 1)

	values := []PlayerValueRow{
		{PlayerID: "p1", Name: "Ace", Value: 3.2},
		{PlayerID: "p2", Name: "Bust", Value: -2.1},
		{PlayerID: "p3", Name: "Solid", Value: 1.0},
	}
	teamOf := map[string]string{"p1": "t.1", "p2": "t.1", "p3": "t.2"}
	catWins := map[string]map[int]int{
		"t.1": {1: 5, 2: 3, 3: 1},
	}
	cats := []*store.StatCategory{
		scoringCat(1, "HR"),
		scoringCat(2, "RBI"),
		scoringCat(3, "SB"),
		scoringCat(4, "AVG"),
	}

	profiles := ComputeTeamProfiles(standings, prev, matchups, 2, values, teamOf, catWins, cats)
	if len(profiles) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(profiles))
	}

	top := profiles[0]
	if top.TeamKey != "t.1" || top.Rank != 1 || top.Record != "2-0-0" {
		t.Fatalf("leader = %+v", top)
	}
	if top.Streak != "W2" {
		t.Errorf("leader streak = %q", top.Streak)
	}
	if top.Opponent != "Charlie" {
		t.Errorf("leader opponent = %q", top.Opponent)
	}
	if top.MVP == nil || top.MVP.Name != "Ace" {
		t.Errorf("leader mvp = %+v", top.MVP)
	}
	if top.Disappointment == nil || top.Disappointment.Name != "Bust" {
		t.Errorf("leader disappointment = %+v", top.Disappointment)
	}
	if len(top.Strengths) != 2 || top.Strengths[0] != "HR" || top.Strengths[1] != "RBI" {
		t.Errorf("leader strengths = %v", top.Strengths)
	}
	if len(top.Weaknesses) != 2 || top.Weaknesses[0] != "AVG" || top.Weaknesses[1] != "SB" {
		t.Errorf("leader weaknesses = %v", top.Weaknesses)
	}

	for _, p := range profiles {
		if p.TeamKey == "t.3" {
			if p.Streak != "L2" {
				t.Errorf("t.3 streak = %q", p.Streak)
			}
			if p.MVP != nil {
				t.Errorf("t.3 has no valued starters, mvp = %+v", p.MVP)
			}
		}
		if p.TeamKey == "t.2" {
			if p.MVP == nil || p.MVP.Name != "Solid" {
				t.Errorf("t.2 mvp = %+v", p.MVP)
			}
			if p.Disappointment != nil {
				t.Errorf("single starter cannot disappoint: %+v", p.Disappointment)
			}
		}
	}
}

func TestComputeTeamProfilesRankMovement(t *testing.T) {
	teams := []*store.Team{
		testTeam("t.1", "Alpha", "alice"),
		testTeam("t.2", "Bravo", "bob"),
		testTeam("t.3", "Charlie", "carol"),
		testTeam("t.4", "Delta", "dave"),
	}
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.2", 3, 7, 0),
		testMatchup(1, "t.3", "t.4", "t.3", 6, 4, 0),
		testMatchup(2, "t.1", "t.3", "t.1", 6, 4, 0),
		testMatchup(2, "t.2", "t.4", "t.2", 8, 2, 0),
		testMatchup(3, "t.1", "t.2", "t.1", 9, 1, 0),
		testMatchup(3, "t.3", "t.4", "t.3", 6, 4, 0),
	}
	standings := ComputeStandings(matchups, teams, 3)
	prev := ComputeStandings(matchups, teams, 2)

	profiles := ComputeTeamProfiles(standings, prev, matchups, 3, nil, nil, nil, nil)
	if profiles[0].TeamKey != "t.1" || profiles[0].Rank != 1 || profiles[0].PrevRank != 2 {
		t.Errorf("expected t.1 to have moved up: %+v", profiles[0])
	}
	if profiles[0].Streak != "W2" {
		t.Errorf("t.1 streak = %q", profiles[0].Streak)
	}
	if profiles[1].TeamKey != "t.2" || profiles[1].Streak != "L1" {
		t.Errorf("t.2 = %+v", profiles[1])
	}
}

func TestComputeFormStreaksIgnoresPlayoffs(t *testing.T) {
	playoff := testMatchup(4, "t.1", "t.2", "t.2", 2, 8, 0)
	playoff.IsPlayoffs = true
	matchups := []*store.Matchup{
		testMatchup(1, "t.1", "t.2", "t.1", 7, 3, 0),
		testMatchup(2, "t.1", "t.2", "", 5, 5, 0),
		testMatchup(3, "t.1", "t.2", "t.1", 6, 4, 0),
		playoff,
	}
	streaks := computeFormStreaks(matchups, 0)
	if streaks["t.1"] != "W1" {
		t.Errorf("t.1 streak = %q", streaks["t.1"])
	}
	if streaks["t.2"] != "L1" {
		t.Errorf("t.2 streak = %q", streaks["t.2"])
	}
}
