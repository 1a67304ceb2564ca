package analytics

import (
	"database/sql"
	"math"
	"testing"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

func starterStat(playerID, position string, statID int, value string) repository.StarterStatRow {
	return repository.StarterStatRow{
		PlayerKey: "431.p." + playerID,
		PlayerID:  playerID,
		FullName:  "player-" + playerID,
		Position:  position,
		StatID:    statID,
		Value:     sql.NullString{String: value, Valid: true},
	}
}

func TestComputeValuesTwoPlayerPool(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, DisplayName: "HR", SortOrder: 1, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "10"),
		starterStat("2", "OF", 7, "20"),
	}

	values := ComputeValues(rows, cats)
	if len(values) != 2 {
		t.Fatalf("expected 2 players, got %d", len(values))
	}

	// Mean 15, population deviation 5: exactly one z above, one below.
	if values[0].PlayerID != "2" || math.Abs(values[0].Value-1.0) > 1e-9 {
		t.Errorf("top player = %s value %f, want 2 at +1.0", values[0].PlayerID, values[0].Value)
	}
	if values[1].PlayerID != "1" || math.Abs(values[1].Value+1.0) > 1e-9 {
		t.Errorf("bottom player = %s value %f, want 1 at -1.0", values[1].PlayerID, values[1].Value)
	}
}

func TestComputeValuesInvertedCategory(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 26, DisplayName: "ERA", SortOrder: 0, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "SP", 26, "2.50"),
		starterStat("2", "SP", 26, "4.50"),
	}

	values := ComputeValues(rows, cats)
	if values[0].PlayerID != "1" {
		t.Errorf("lower ERA should rank first, got %s", values[0].PlayerID)
	}
	if values[0].Value <= 0 || values[1].Value >= 0 {
		t.Errorf("inverted sign flip wrong: %f / %f", values[0].Value, values[1].Value)
	}
}

func TestComputeValuesSeparatePools(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, DisplayName: "HR", SortOrder: 1, IsScoringStat: true,
			PositionType: sql.NullString{String: "B", Valid: true}},
		{StatID: 28, DisplayName: "W", SortOrder: 1, IsScoringStat: true,
			PositionType: sql.NullString{String: "P", Valid: true}},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "30"),
		starterStat("2", "OF", 7, "10"),
		starterStat("3", "SP", 28, "15"),
		starterStat("4", "RP", 28, "5"),
	}

	values := ComputeValues(rows, cats)
	byID := make(map[string]PlayerValueRow)
	for _, v := range values {
		byID[v.PlayerID] = v
	}

	if byID["1"].Pool != PoolBatter || byID["3"].Pool != PoolPitcher {
		t.Errorf("pool assignment: %s / %s", byID["1"].Pool, byID["3"].Pool)
	}
	// Each pool has two members, so each winner sits at +1.0 within its own
	// pool; pitchers never dilute the batter distribution.
	if math.Abs(byID["1"].Value-1.0) > 1e-9 || math.Abs(byID["3"].Value-1.0) > 1e-9 {
		t.Errorf("pool z-scores: batter %f, pitcher %f", byID["1"].Value, byID["3"].Value)
	}
	if _, ok := byID["3"].ZScores[7]; ok {
		t.Error("pitcher should not be scored against a batter category")
	}
}

func TestComputeValuesZeroSpreadSkipped(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, SortOrder: 1, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "10"),
		starterStat("2", "OF", 7, "10"),
	}

	values := ComputeValues(rows, cats)
	for _, v := range values {
		if v.Value != 0 {
			t.Errorf("flat category should contribute nothing, got %f for %s", v.Value, v.PlayerID)
		}
	}
}

func TestComputeValuesAllZeroExcluded(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, DisplayName: "HR", SortOrder: 1, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "10"),
		starterStat("2", "OF", 7, "20"),
		starterStat("3", "OF", 7, "0"),
	}

	values := ComputeValues(rows, cats)
	if len(values) != 2 {
		t.Fatalf("all-zero starter should not qualify, got %d players", len(values))
	}
	// With player 3 out of the pool, the two-player symmetry holds.
	if math.Abs(values[0].Value-1.0) > 1e-9 || math.Abs(values[1].Value+1.0) > 1e-9 {
		t.Errorf("pool z-scores: %f / %f", values[0].Value, values[1].Value)
	}
}

func TestComputeValuesUnparsableIgnored(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, SortOrder: 1, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "10"),
		starterStat("1", "1B", 7, "-"),
		starterStat("1", "1B", 7, "5"),
		starterStat("2", "OF", 7, "5"),
	}

	values := ComputeValues(rows, cats)
	byID := make(map[string]PlayerValueRow)
	for _, v := range values {
		byID[v.PlayerID] = v
	}
	if byID["1"].Totals[7] != 15 {
		t.Errorf("weekly totals should sum parseable values only, got %f", byID["1"].Totals[7])
	}
}

func TestComputeCategoryLeaders(t *testing.T) {
	cats := []*store.StatCategory{
		{StatID: 7, DisplayName: "HR", SortOrder: 1, IsScoringStat: true},
		{StatID: 26, DisplayName: "ERA", SortOrder: 0, IsScoringStat: true},
	}
	rows := []repository.StarterStatRow{
		starterStat("1", "1B", 7, "30"),
		starterStat("2", "OF", 7, "12"),
		starterStat("3", "SP", 26, "2.10"),
		starterStat("4", "SP", 26, "3.80"),
	}

	leaders := ComputeCategoryLeaders(ComputeValues(rows, cats), cats)
	if len(leaders) != 2 {
		t.Fatalf("expected 2 leaders, got %d", len(leaders))
	}
	if leaders[0].DisplayName != "HR" || leaders[0].PlayerID != "1" {
		t.Errorf("HR leader = %+v", leaders[0])
	}
	if leaders[1].DisplayName != "ERA" || leaders[1].PlayerID != "3" {
		t.Errorf("ERA leader should honor lower-wins, got %+v", leaders[1])
	}
}

func TestBestPickups(t *testing.T) {
	values := []PlayerValueRow{
		{PlayerID: "1", Name: "player-1", Value: 3.5},
		{PlayerID: "2", Name: "player-2", Value: 1.0},
		{PlayerID: "3", Name: "player-3", Value: -0.5},
	}
	moves := []repository.MoveRow{
		{PlayerID: "2", PlayerName: "player-2", MoveType: "add",
			TeamKey: sql.NullString{String: "t.4", Valid: true},
			Week:    sql.NullInt32{Int32: 3, Valid: true}},
		{PlayerID: "2", PlayerName: "player-2", MoveType: "add",
			Week: sql.NullInt32{Int32: 9, Valid: true}}, // later re-add ignored
		{PlayerID: "1", PlayerName: "player-1", MoveType: "drop"},
		{PlayerID: "3", PlayerName: "player-3", MoveType: "add"},
		{PlayerID: "99", PlayerName: "never-rostered", MoveType: "add"},
	}

	pickups := BestPickups(moves, values, 10)
	if len(pickups) != 2 {
		t.Fatalf("expected 2 pickups, got %d", len(pickups))
	}
	if pickups[0].PlayerID != "2" || pickups[0].Week != 3 || pickups[0].TeamKey != "t.4" {
		t.Errorf("top pickup = %+v", pickups[0])
	}
	if pickups[1].PlayerID != "3" {
		t.Errorf("second pickup = %+v", pickups[1])
	}

	if got := BestPickups(moves, values, 1); len(got) != 1 {
		t.Errorf("limit not applied, got %d", len(got))
	}
}
