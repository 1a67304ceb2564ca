package analytics

import (
	"database/sql"
	"testing"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

func namedMatchup(id int, key1, name1, key2, name2 string, won1, won2 int, winner string) repository.NamedMatchup {
	nm := repository.NamedMatchup{
		Matchup: store.Matchup{
			LeagueKey: "431.l.120",
			Week:      5,
			MatchupID: id,
			TeamKey1:  key1,
			TeamKey2:  key2,
			CatsWon1:  won1,
			CatsWon2:  won2,
		},
		TeamName1: name1,
		TeamName2: name2,
	}
	if winner != "" {
		nm.WinnerTeamKey = sql.NullString{String: winner, Valid: true}
	} else {
		nm.IsTied = true
	}
	return nm
}

func TestBuildRecap(t *testing.T) {
	league := &store.League{LeagueKey: "431.l.120", Season: 2024}
	matchups := []repository.NamedMatchup{
		namedMatchup(1, "t.1", "Gorillas", "t.2", "Mudhens", 9, 1, "t.1"),
		namedMatchup(2, "t.3", "Spiders", "t.4", "Wolves", 5, 4, "t.4"),
		namedMatchup(3, "t.5", "Colts", "t.6", "Browns", 5, 5, ""),
	}

	recap := BuildRecap(league, 5, matchups, nil, nil)
	if recap.Season != 2024 || recap.Week != 5 {
		t.Fatalf("recap header = season %d week %d", recap.Season, recap.Week)
	}
	if len(recap.Matchups) != 3 {
		t.Fatalf("got %d matchups", len(recap.Matchups))
	}

	if got := recap.Matchups[0].Winner; got != "Gorillas" {
		t.Errorf("matchup 1 winner = %q", got)
	}
	if got := recap.Matchups[1].Winner; got != "Wolves" {
		t.Errorf("matchup 2 winner = %q", got)
	}
	if recap.Matchups[2].Winner != "" || !recap.Matchups[2].IsTied {
		t.Errorf("tied matchup should have no winner")
	}

	if recap.Blowout == nil || recap.Blowout.MatchupID != 1 || recap.Blowout.Margin != 8 {
		t.Errorf("blowout = %+v", recap.Blowout)
	}
	if recap.Nailbiter == nil || recap.Nailbiter.MatchupID != 2 || recap.Nailbiter.Margin != 1 {
		t.Errorf("nailbiter = %+v", recap.Nailbiter)
	}
}

func TestBuildRecapMoves(t *testing.T) {
	league := &store.League{LeagueKey: "431.l.120", Season: 2024}
	matchups := []repository.NamedMatchup{
		namedMatchup(1, "t.1", "Gorillas", "t.2", "Mudhens", 6, 4, "t.1"),
	}
	moves := []repository.MoveRow{
		{
			PlayerName: "Mickey Rivers",
			MoveType:   "add",
			TeamKey:    sql.NullString{String: "t.2", Valid: true},
			FAABBid:    sql.NullInt32{Int32: 14, Valid: true},
		},
		{
			PlayerName: "Oscar Gamble",
			MoveType:   "drop",
			TeamKey:    sql.NullString{String: "t.2", Valid: true},
		},
		{PlayerName: "Unattached Guy", MoveType: "drop"},
	}

	recap := BuildRecap(league, 5, matchups, nil, moves)
	if len(recap.Moves) != 3 {
		t.Fatalf("got %d moves", len(recap.Moves))
	}
	if recap.Moves[0].Team != "Mudhens" || recap.Moves[0].FAABBid != 14 {
		t.Errorf("add move = %+v", recap.Moves[0])
	}
	if recap.Moves[1].FAABBid != 0 {
		t.Errorf("drop should carry no bid, got %d", recap.Moves[1].FAABBid)
	}
	if recap.Moves[2].Team != "" {
		t.Errorf("teamless move resolved to %q", recap.Moves[2].Team)
	}
}

func TestBuildRecapAllTied(t *testing.T) {
	league := &store.League{LeagueKey: "431.l.120", Season: 2024}
	matchups := []repository.NamedMatchup{
		namedMatchup(1, "t.1", "Gorillas", "t.2", "Mudhens", 5, 5, ""),
	}
	recap := BuildRecap(league, 5, matchups, nil, nil)
	if recap.Blowout != nil || recap.Nailbiter != nil {
		t.Errorf("undecided week should produce no extremes")
	}
}
