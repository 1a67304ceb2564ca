package yahoo

import (
	"encoding/json"
	"testing"
)

func TestMergeFragments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, raw json.RawMessage)
	}{
		{
			name:  "object passes through",
			input: `{"league_key":"431.l.1"}`,
			check: func(t *testing.T, raw json.RawMessage) {
				if got := string(mustKey(raw, "league_key")); got != `"431.l.1"` {
					t.Errorf("league_key = %s", got)
				}
			},
		},
		{
			name:  "fragment array merges",
			input: `[{"league_key":"431.l.1"},{"num_teams":12}]`,
			check: func(t *testing.T, raw json.RawMessage) {
				if mustKey(raw, "league_key") == nil || mustKey(raw, "num_teams") == nil {
					t.Errorf("merged payload missing keys: %s", raw)
				}
			},
		},
		{
			name:  "nested arrays flatten",
			input: `[{"a":1},[{"b":2},{"c":3}]]`,
			check: func(t *testing.T, raw json.RawMessage) {
				for _, k := range []string{"a", "b", "c"} {
					if mustKey(raw, k) == nil {
						t.Errorf("missing %q in %s", k, raw)
					}
				}
			},
		},
		{
			name:  "scalar fragments skipped",
			input: `[{"a":1},"noise",2]`,
			check: func(t *testing.T, raw json.RawMessage) {
				if mustKey(raw, "a") == nil {
					t.Errorf("missing a in %s", raw)
				}
			},
		},
		{name: "null fails", input: `null`, wantErr: true},
		{name: "scalar fails", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := mergeFragments(json.RawMessage(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("mergeFragments(%s): err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, raw)
			}
		})
	}
}

func TestSubresource(t *testing.T) {
	// Standings sit behind a numbered indirection inside the league payload.
	payload := `[
		{"league_key":"431.l.1"},
		{"standings":[{"teams":{"count":0}}]}
	]`
	raw, err := subresource(json.RawMessage(payload), "standings")
	if err != nil {
		t.Fatalf("subresource: %v", err)
	}
	if mustKey(raw, "teams") == nil {
		t.Errorf("standings payload missing teams: %s", raw)
	}

	if _, err := subresource(json.RawMessage(payload), "scoreboard"); err == nil {
		t.Error("expected error for missing subresource")
	}
}

func TestDecodeWrapped(t *testing.T) {
	payload := `{
		"0": {"team": [{"team_key":"431.l.1.t.1"},{"name":"The Gashouse Gorillas"}]},
		"1": {"team": [{"team_key":"431.l.1.t.2"},{"name":"Big Mitt Energy"}]},
		"count": 2
	}`

	teams, err := decodeWrapped[teamWire](json.RawMessage(payload), "team")
	if err != nil {
		t.Fatalf("decodeWrapped: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0].TeamKey != "431.l.1.t.1" || teams[0].Name != "The Gashouse Gorillas" {
		t.Errorf("team 0 = %+v", teams[0])
	}
	if teams[1].Name != "Big Mitt Energy" {
		t.Errorf("team 1 = %+v", teams[1])
	}
}

func TestKeeperFlag(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`1`, true},
		{`"1"`, true},
		{`true`, true},
		{`"K"`, true},
		{`"keeper"`, true},
		{`0`, false},
		{`""`, false},
		{`null`, false},
		{``, false},
		{`{"status":"K"}`, true},
		{`{"status":"1","cost":"5"}`, true},
		{`{"kept":true}`, true},
		{`{"status":"0"}`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := keeperFlag(json.RawMessage(tt.input)); got != tt.want {
				t.Errorf("keeperFlag(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchupWireToMatchup(t *testing.T) {
	payload := `{
		"week": "3",
		"week_start": "2023-04-17",
		"week_end": "2023-04-23",
		"is_playoffs": "0",
		"is_tied": 0,
		"winner_team_key": "431.l.1.t.2",
		"0": {
			"teams": {
				"0": {"team": [{"team_key":"431.l.1.t.1"},{"team_stats":{"stats":[{"stat":{"stat_id":"7","value":"12"}}]}}]},
				"1": {"team": [{"team_key":"431.l.1.t.2"},{"team_stats":{"stats":[{"stat":{"stat_id":"7","value":"15"}}]}}]},
				"count": 2
			}
		}
	}`

	var w matchupWire
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}
	m, err := w.toMatchup()
	if err != nil {
		t.Fatalf("toMatchup: %v", err)
	}

	if m.Week != 3 || m.WinnerTeamKey != "431.l.1.t.2" || m.IsPlayoffs {
		t.Errorf("matchup header = %+v", m)
	}
	if len(m.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(m.Teams))
	}
	if m.Teams[1].TeamKey != "431.l.1.t.2" {
		t.Errorf("team 1 key = %s", m.Teams[1].TeamKey)
	}
	if len(m.Teams[0].Stats) != 1 || m.Teams[0].Stats[0].StatID.Int() != 7 || m.Teams[0].Stats[0].Value != "12" {
		t.Errorf("team 0 stats = %+v", m.Teams[0].Stats)
	}
}

func TestRosterPlayerWireToSlot(t *testing.T) {
	payload := `{
		"player_key": "431.p.9988",
		"name": {"full": "Bobby Witt Jr.", "first": "Bobby", "last": "Witt Jr."},
		"editorial_team_abbr": "KC",
		"primary_position": "SS",
		"eligible_positions": [{"position":"SS"},{"position":"UTIL"}],
		"selected_position": [{"coverage_type":"week"},{"position":"SS"}],
		"is_keeper": {"status":"K","cost":"3"},
		"player_stats": {"stats":[{"stat":{"stat_id":"7","value":"2"}}]}
	}`

	var w rosterPlayerWire
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}
	slot, err := w.toSlot()
	if err != nil {
		t.Fatalf("toSlot: %v", err)
	}

	if slot.Player.FullName != "Bobby Witt Jr." || slot.Player.PrimaryPosition != "SS" {
		t.Errorf("player = %+v", slot.Player)
	}
	if slot.SelectedPosition != "SS" {
		t.Errorf("selected position = %q", slot.SelectedPosition)
	}
	if !slot.IsKeeper {
		t.Error("keeper flag should be set")
	}
	if len(slot.Player.EligiblePositions) != 2 {
		t.Errorf("eligible positions = %v", slot.Player.EligiblePositions)
	}
}

func TestRosterPlayerWireDisplayFallback(t *testing.T) {
	payload := `{
		"player_key": "431.p.1",
		"name": {"full": "Generic Pitcher"},
		"display_position": "SP,RP"
	}`

	var w rosterPlayerWire
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}
	slot, err := w.toSlot()
	if err != nil {
		t.Fatalf("toSlot: %v", err)
	}
	if slot.Player.PrimaryPosition != "SP,RP" {
		t.Errorf("primary position fallback = %q", slot.Player.PrimaryPosition)
	}
	if slot.IsKeeper {
		t.Error("absent keeper flag should be false")
	}
}

func TestTransactionWireToTransaction(t *testing.T) {
	payload := `{
		"transaction_key": "431.l.1.tr.88",
		"type": "add/drop",
		"status": "successful",
		"timestamp": "1681084800",
		"players": {
			"0": {"player": [
				{"player_key":"431.p.55","name":{"full":"Spencer Strider"}},
				{"transaction_data":[{"type":"add","source_type":"freeagents","destination_type":"team","destination_team_key":"431.l.1.t.4"}]}
			]},
			"1": {"player": [
				{"player_key":"431.p.66","name":{"full":"Jose Abreu"}},
				{"transaction_data":{"type":"drop","source_type":"team","source_team_key":"431.l.1.t.4","destination_type":"waivers"}}
			]},
			"count": 2
		}
	}`

	var w transactionWire
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}
	tx, err := w.toTransaction()
	if err != nil {
		t.Fatalf("toTransaction: %v", err)
	}

	if tx.TransactionKey != "431.l.1.tr.88" || tx.Type != "add/drop" {
		t.Errorf("transaction header = %+v", tx)
	}
	if len(tx.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(tx.Players))
	}
	add, drop := tx.Players[0], tx.Players[1]
	if add.Type != "add" || add.DestinationTeamKey != "431.l.1.t.4" {
		t.Errorf("add movement = %+v", add)
	}
	if drop.Type != "drop" || drop.DestinationType != "waivers" {
		t.Errorf("drop movement = %+v", drop)
	}
}
