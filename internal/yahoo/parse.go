package yahoo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The upstream represents one logical object as an array of partial
// objects, wraps every item in a single-key object, and encodes lists as
// numbered objects with a count. The helpers here normalize all of that
// before the typed structs see it.

// mustKey returns the value under key, or nil when absent.
func mustKey(raw json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj[key]
}

// mergeFragments flattens a fragment array into a single object. Objects
// pass through untouched.
func mergeFragments(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("empty payload")
	}
	if trimmed[0] == '{' {
		return trimmed, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("unexpected payload shape %q", previewJSON(trimmed))
	}

	merged := make(map[string]json.RawMessage)
	if err := collectFragments(trimmed, merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func collectFragments(raw json.RawMessage, into map[string]json.RawMessage) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("parsing fragment array: %w", err)
	}
	for _, item := range items {
		t := bytes.TrimSpace(item)
		if len(t) == 0 {
			continue
		}
		switch t[0] {
		case '[':
			if err := collectFragments(t, into); err != nil {
				return err
			}
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(t, &obj); err != nil {
				return fmt.Errorf("parsing fragment: %w", err)
			}
			for k, v := range obj {
				into[k] = v
			}
		default:
			// Scalar fragments carry no fields.
		}
	}
	return nil
}

// leaguePayload extracts and flattens the league object from a
// fantasy_content payload.
func leaguePayload(raw json.RawMessage) (json.RawMessage, error) {
	league := mustKey(raw, "league")
	if league == nil {
		return nil, errors.New("payload has no league")
	}
	return mergeFragments(league)
}

// subresource finds key within a flattened object, looking through the
// upstream's numbered indirection level when needed.
func subresource(raw json.RawMessage, key string) (json.RawMessage, error) {
	merged, err := mergeFragments(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(merged, &obj); err != nil {
		return nil, fmt.Errorf("parsing object: %w", err)
	}
	if v, ok := obj[key]; ok {
		return mergeFragments(v)
	}
	if v, ok := obj["0"]; ok {
		return subresource(v, key)
	}
	return nil, fmt.Errorf("missing %q in payload", key)
}

// decodeWrapped parses a list whose items each sit under a single wrapper
// key, e.g. {"0": {"team": [...]}, "count": 2}.
func decodeWrapped[T any](raw json.RawMessage, key string) ([]T, error) {
	var coll collection[map[string]json.RawMessage]
	if err := json.Unmarshal(raw, &coll); err != nil {
		return nil, fmt.Errorf("parsing %s list: %w", key, err)
	}
	out := make([]T, 0, len(coll.Items))
	for _, item := range coll.Items {
		inner, ok := item[key]
		if !ok {
			continue
		}
		merged, err := mergeFragments(inner)
		if err != nil {
			return nil, fmt.Errorf("flattening %s: %w", key, err)
		}
		var v T
		if err := json.Unmarshal(merged, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func previewJSON(raw []byte) string {
	if len(raw) > 40 {
		raw = raw[:40]
	}
	return string(raw)
}

// keeperFlag normalizes the keeper indicator, which arrives as a bool, a
// number, a string, a {"status": ...} object, or not at all.
func keeperFlag(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	if t == "" || t == "null" {
		return false
	}
	if strings.HasPrefix(t, "{") {
		var obj struct {
			Status json.RawMessage `json:"status"`
			Kept   json.RawMessage `json:"kept"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return false
		}
		return truthy(obj.Status) || truthy(obj.Kept)
	}
	return truthy(raw)
}

func truthy(raw json.RawMessage) bool {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	switch strings.ToLower(s) {
	case "1", "true", "k", "keeper":
		return true
	}
	return false
}

// Wire shapes. These mirror the upstream's nesting; the client converts
// them to the flat public models.

type managerEntry struct {
	Manager struct {
		GUID     string `json:"guid"`
		Nickname string `json:"nickname"`
	} `json:"manager"`
}

type teamWire struct {
	TeamKey        string                   `json:"team_key"`
	TeamID         FlexInt                  `json:"team_id"`
	Name           string                   `json:"name"`
	WaiverPriority FlexInt                  `json:"waiver_priority"`
	FAABBalance    FlexInt                  `json:"faab_balance"`
	Managers       collection[managerEntry] `json:"managers"`
}

func (w *teamWire) toTeam() TeamInfo {
	t := TeamInfo{
		TeamKey:        w.TeamKey,
		TeamID:         w.TeamID.Int(),
		Name:           w.Name,
		WaiverPriority: w.WaiverPriority.Int(),
		FAABBalance:    w.FAABBalance.Int(),
	}
	if len(w.Managers.Items) > 0 {
		t.ManagerGUID = w.Managers.Items[0].Manager.GUID
		t.ManagerNickname = w.Managers.Items[0].Manager.Nickname
	}
	return t
}

type standingsWire struct {
	TeamKey       string `json:"team_key"`
	TeamStandings struct {
		Rank        FlexInt `json:"rank"`
		PlayoffSeed FlexInt `json:"playoff_seed"`
	} `json:"team_standings"`
}

func (w *standingsWire) toEntry() StandingsEntry {
	return StandingsEntry{
		TeamKey:     w.TeamKey,
		Rank:        w.TeamStandings.Rank.Int(),
		PlayoffSeed: w.TeamStandings.PlayoffSeed.Int(),
	}
}

type statEntry struct {
	Stat StatValue `json:"stat"`
}

func statValues(entries []statEntry) []StatValue {
	out := make([]StatValue, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Stat)
	}
	return out
}

type statCategoryEntry struct {
	Stat StatCategoryInfo `json:"stat"`
}

type settingsWire struct {
	UsesFAAB         FlexBool `json:"uses_faab"`
	PlayoffStartWeek FlexInt  `json:"playoff_start_week"`
	MaxKeepers       FlexInt  `json:"max_keepers"`
	StatCategories   struct {
		Stats collection[statCategoryEntry] `json:"stats"`
	} `json:"stat_categories"`
}

func (w *settingsWire) toSettings() *LeagueSettings {
	s := &LeagueSettings{
		UsesFAAB:         w.UsesFAAB,
		PlayoffStartWeek: w.PlayoffStartWeek,
		MaxKeepers:       w.MaxKeepers,
	}
	for _, e := range w.StatCategories.Stats.Items {
		s.StatCategories = append(s.StatCategories, e.Stat)
	}
	return s
}

type matchupTeamWire struct {
	TeamKey   string `json:"team_key"`
	TeamStats struct {
		Stats collection[statEntry] `json:"stats"`
	} `json:"team_stats"`
}

type matchupWire struct {
	Week          FlexInt  `json:"week"`
	WeekStart     string   `json:"week_start"`
	WeekEnd       string   `json:"week_end"`
	IsPlayoffs    FlexBool `json:"is_playoffs"`
	IsConsolation FlexBool `json:"is_consolation"`
	IsTied        FlexBool `json:"is_tied"`
	WinnerTeamKey string   `json:"winner_team_key"`
	Inner         struct {
		Teams json.RawMessage `json:"teams"`
	} `json:"0"`
}

func (w *matchupWire) toMatchup() (MatchupInfo, error) {
	m := MatchupInfo{
		Week:          w.Week.Int(),
		WeekStart:     w.WeekStart,
		WeekEnd:       w.WeekEnd,
		IsPlayoffs:    w.IsPlayoffs.Bool(),
		IsConsolation: w.IsConsolation.Bool(),
		IsTied:        w.IsTied.Bool(),
		WinnerTeamKey: w.WinnerTeamKey,
	}
	if len(w.Inner.Teams) == 0 {
		return m, nil
	}
	teams, err := decodeWrapped[matchupTeamWire](w.Inner.Teams, "team")
	if err != nil {
		return m, fmt.Errorf("parsing matchup teams: %w", err)
	}
	for _, tw := range teams {
		m.Teams = append(m.Teams, MatchupTeam{
			TeamKey: tw.TeamKey,
			Stats:   statValues(tw.TeamStats.Stats.Items),
		})
	}
	return m, nil
}

type positionEntry struct {
	Position string `json:"position"`
}

type rosterPlayerWire struct {
	PlayerKey string `json:"player_key"`
	Name      struct {
		Full  string `json:"full"`
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	EditorialTeam     string                    `json:"editorial_team_abbr"`
	PrimaryPosition   string                    `json:"primary_position"`
	DisplayPosition   string                    `json:"display_position"`
	EligiblePositions collection[positionEntry] `json:"eligible_positions"`
	SelectedPosition  json.RawMessage           `json:"selected_position"`
	IsKeeper          json.RawMessage           `json:"is_keeper"`
	PlayerStats       struct {
		Stats collection[statEntry] `json:"stats"`
	} `json:"player_stats"`
}

func (w *rosterPlayerWire) toSlot() (RosterSlot, error) {
	primary := w.PrimaryPosition
	if primary == "" {
		primary = w.DisplayPosition
	}
	slot := RosterSlot{
		Player: PlayerInfo{
			PlayerKey:       w.PlayerKey,
			FullName:        w.Name.Full,
			FirstName:       w.Name.First,
			LastName:        w.Name.Last,
			EditorialTeam:   w.EditorialTeam,
			PrimaryPosition: primary,
			Stats:           statValues(w.PlayerStats.Stats.Items),
		},
		IsKeeper: keeperFlag(w.IsKeeper),
	}
	for _, p := range w.EligiblePositions.Items {
		slot.Player.EligiblePositions = append(slot.Player.EligiblePositions, p.Position)
	}
	if len(w.SelectedPosition) > 0 {
		merged, err := mergeFragments(w.SelectedPosition)
		if err != nil {
			return slot, fmt.Errorf("parsing selected position: %w", err)
		}
		var pos positionEntry
		if err := json.Unmarshal(merged, &pos); err != nil {
			return slot, fmt.Errorf("parsing selected position: %w", err)
		}
		slot.SelectedPosition = pos.Position
	}
	return slot, nil
}

type transactionWire struct {
	TransactionKey string          `json:"transaction_key"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
	FAABBid        FlexInt         `json:"faab_bid"`
	TraderTeamKey  string          `json:"trader_team_key"`
	TradeeTeamKey  string          `json:"tradee_team_key"`
	Players        json.RawMessage `json:"players"`
}

type transactionPlayerWire struct {
	PlayerKey string `json:"player_key"`
	Name      struct {
		Full string `json:"full"`
	} `json:"name"`
	TransactionData json.RawMessage `json:"transaction_data"`
}

func (w *transactionWire) toTransaction() (TransactionInfo, error) {
	t := TransactionInfo{
		TransactionKey: w.TransactionKey,
		Type:           w.Type,
		Status:         w.Status,
		Timestamp:      w.Timestamp,
		FAABBid:        w.FAABBid.Int(),
		TraderTeamKey:  w.TraderTeamKey,
		TradeeTeamKey:  w.TradeeTeamKey,
	}
	if len(w.Players) == 0 {
		return t, nil
	}
	players, err := decodeWrapped[transactionPlayerWire](w.Players, "player")
	if err != nil {
		return t, fmt.Errorf("parsing transaction players: %w", err)
	}
	for _, pw := range players {
		tp := TransactionPlayerInfo{
			PlayerKey: pw.PlayerKey,
			FullName:  pw.Name.Full,
		}
		if len(pw.TransactionData) > 0 {
			merged, err := mergeFragments(pw.TransactionData)
			if err != nil {
				return t, fmt.Errorf("parsing transaction data: %w", err)
			}
			var data struct {
				Type               string `json:"type"`
				SourceType         string `json:"source_type"`
				SourceTeamKey      string `json:"source_team_key"`
				DestinationType    string `json:"destination_type"`
				DestinationTeamKey string `json:"destination_team_key"`
			}
			if err := json.Unmarshal(merged, &data); err != nil {
				return t, fmt.Errorf("parsing transaction data: %w", err)
			}
			tp.Type = data.Type
			tp.SourceType = data.SourceType
			tp.SourceTeamKey = data.SourceTeamKey
			tp.DestinationType = data.DestinationType
			tp.DestinationTeamKey = data.DestinationTeamKey
		}
		t.Players = append(t.Players, tp)
	}
	return t, nil
}
