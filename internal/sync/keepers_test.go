package sync

import (
	"reflect"
	"testing"

	"github.com/fortuna/dynasty/internal/store"
)

func TestFillKeepersFlagsWin(t *testing.T) {
	flagged := map[string][]string{
		"l.t.1": {"p1", "p2"},
		"l.t.2": {"p3", "p4"},
	}
	picks := map[string][]string{
		"l.t.1": {"p1", "p2", "p9"},
		"l.t.2": {"p3", "p4", "p8"},
	}

	got := fillKeepers(flagged, picks, 2)
	if !reflect.DeepEqual(got, flagged) {
		t.Errorf("complete flags should pass through unchanged, got %v", got)
	}
}

func TestFillKeepersFirstBand(t *testing.T) {
	// Only one team flagged anything, and its flags sit in the first two
	// picks, so every team's first two picks become keepers.
	flagged := map[string][]string{
		"l.t.1": {"p1", "p2"},
	}
	picks := map[string][]string{
		"l.t.1": {"p1", "p2", "p3", "p4"},
		"l.t.2": {"q1", "q2", "q3", "q4"},
		"l.t.3": {"r1", "r2", "r3", "r4"},
	}

	got := fillKeepers(flagged, picks, 2)
	want := map[string][]string{
		"l.t.1": {"p1", "p2"},
		"l.t.2": {"q1", "q2"},
		"l.t.3": {"r1", "r2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fillKeepers = %v, want %v", got, want)
	}
}

func TestFillKeepersLastBand(t *testing.T) {
	// Flags agree with the tail of the draft, so the last picks fill in.
	flagged := map[string][]string{
		"l.t.1": {"p4"},
	}
	picks := map[string][]string{
		"l.t.1": {"p1", "p2", "p3", "p4"},
		"l.t.2": {"q1", "q2", "q3", "q4"},
	}

	got := fillKeepers(flagged, picks, 2)
	want := map[string][]string{
		"l.t.1": {"p4", "p3"},
		"l.t.2": {"q3", "q4"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fillKeepers = %v, want %v", got, want)
	}
}

func TestFillKeepersNoDraft(t *testing.T) {
	flagged := map[string][]string{"l.t.1": {"p1"}}

	got := fillKeepers(flagged, nil, 3)
	if !reflect.DeepEqual(got, flagged) {
		t.Errorf("no draft picks should pass flags through, got %v", got)
	}
}

func TestBandSlice(t *testing.T) {
	picks := []string{"a", "b", "c", "d", "e"}

	if got := bandSlice(picks, 2, true); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("first band = %v", got)
	}
	if got := bandSlice(picks, 2, false); !reflect.DeepEqual(got, []string{"d", "e"}) {
		t.Errorf("last band = %v", got)
	}
	if got := bandSlice(picks, 10, true); !reflect.DeepEqual(got, picks) {
		t.Errorf("short draft returns everything, got %v", got)
	}
}

func TestLineageStarts(t *testing.T) {
	// One franchise keeps the same player in 2019, 2020, and again in 2022
	// after a gap. The runs are 2019-2020 and 2022.
	keepers := []*store.Keeper{
		{LeagueKey: "100.l.1", TeamKey: "100.l.1.t.3", PlayerKey: "100.p.500", Season: 2019},
		{LeagueKey: "200.l.1", TeamKey: "200.l.1.t.7", PlayerKey: "200.p.500", Season: 2020},
		{LeagueKey: "400.l.1", TeamKey: "400.l.1.t.2", PlayerKey: "400.p.500", Season: 2022},
		// A different player kept once.
		{LeagueKey: "200.l.1", TeamKey: "200.l.1.t.7", PlayerKey: "200.p.900", Season: 2020},
	}

	identityOf := func(k *store.Keeper) keeperIdentity {
		var playerID string
		for i := len(k.PlayerKey) - 1; i >= 0; i-- {
			if k.PlayerKey[i] == '.' {
				playerID = k.PlayerKey[i+1:]
				break
			}
		}
		return keeperIdentity{FranchiseID: "fra-1", PlayerID: playerID}
	}

	starts := lineageStarts(keepers, identityOf)
	want := map[string]int{
		"100.l.1|100.l.1.t.3|100.p.500": 2019,
		"200.l.1|200.l.1.t.7|200.p.500": 2019,
		"400.l.1|400.l.1.t.2|400.p.500": 2022,
		"200.l.1|200.l.1.t.7|200.p.900": 2020,
	}
	if !reflect.DeepEqual(starts, want) {
		t.Errorf("lineageStarts = %v, want %v", starts, want)
	}
}

func TestLineageStartsSeparateFranchises(t *testing.T) {
	// The same player kept by two different franchises in back to back
	// seasons does not chain across owners.
	keepers := []*store.Keeper{
		{LeagueKey: "100.l.1", TeamKey: "100.l.1.t.1", PlayerKey: "100.p.500", Season: 2019},
		{LeagueKey: "200.l.1", TeamKey: "200.l.1.t.2", PlayerKey: "200.p.500", Season: 2020},
	}

	identityOf := func(k *store.Keeper) keeperIdentity {
		fra := "fra-a"
		if k.Season == 2020 {
			fra = "fra-b"
		}
		return keeperIdentity{FranchiseID: fra, PlayerID: "500"}
	}

	starts := lineageStarts(keepers, identityOf)
	if starts["100.l.1|100.l.1.t.1|100.p.500"] != 2019 {
		t.Errorf("first owner run should start 2019, got %d", starts["100.l.1|100.l.1.t.1|100.p.500"])
	}
	if starts["200.l.1|200.l.1.t.2|200.p.500"] != 2020 {
		t.Errorf("second owner run should restart 2020, got %d", starts["200.l.1|200.l.1.t.2|200.p.500"])
	}
}
