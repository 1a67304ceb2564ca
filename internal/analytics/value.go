package analytics

import (
	"math"
	"sort"
	"strconv"

	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// Player pools for valuation. Mixed-category sports value batters and
// pitchers against their own pool; sports without position-typed categories
// use a single pool.
const (
	PoolBatter  = "B"
	PoolPitcher = "P"
	PoolAll     = ""
)

var pitcherPositions = map[string]bool{"SP": true, "RP": true, "P": true}

// PlayerValueRow is one player's seasonal valuation.
type PlayerValueRow struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Position string          `json:"position"`
	Pool     string          `json:"pool"`
	ZScores  map[int]float64 `json:"z_scores"`
	Totals   map[int]float64 `json:"totals"`
	Value    float64         `json:"value"`
}

// ComputeValues scores every starter by summing per-category z-scores of
// their totals. A starter qualifies only with at least one nonzero value
// across the scoring categories; all-zero lines would otherwise drag every
// pool's mean down. The z-score for a category uses the mean and
// population standard deviation of the player's pool; inverted categories
// (sort order 0) flip sign so that lower raw values score higher. Sorting
// is by value descending with player id as tiebreak.
func ComputeValues(rows []repository.StarterStatRow, cats []*store.StatCategory) []PlayerValueRow {
	poolOf := make(map[int]string, len(cats))
	sortOf := make(map[int]int, len(cats))
	typed := false
	var scoring []*store.StatCategory
	for _, c := range cats {
		if c.IsOnlyDisplay || !c.IsScoringStat {
			continue
		}
		scoring = append(scoring, c)
		sortOf[c.StatID] = c.SortOrder
		if c.PositionType.Valid && c.PositionType.String != "" {
			poolOf[c.StatID] = c.PositionType.String
			typed = true
		} else {
			poolOf[c.StatID] = PoolAll
		}
	}

	players := make(map[string]*PlayerValueRow)
	var order []string
	for _, r := range rows {
		p := players[r.PlayerID]
		if p == nil {
			pool := PoolAll
			if typed {
				pool = PoolBatter
				if pitcherPositions[r.Position] {
					pool = PoolPitcher
				}
			}
			p = &PlayerValueRow{
				PlayerID: r.PlayerID,
				Name:     r.FullName,
				Position: r.Position,
				Pool:     pool,
				ZScores:  make(map[int]float64),
				Totals:   make(map[int]float64),
			}
			players[r.PlayerID] = p
			order = append(order, r.PlayerID)
		}
		if !r.Value.Valid {
			continue
		}
		if f, err := strconv.ParseFloat(r.Value.String, 64); err == nil {
			p.Totals[r.StatID] += f
		}
	}

	qualified := order[:0:0]
	for _, id := range order {
		p := players[id]
		for _, cat := range scoring {
			if p.Totals[cat.StatID] != 0 {
				qualified = append(qualified, id)
				break
			}
		}
	}
	order = qualified

	for _, cat := range scoring {
		pool := poolOf[cat.StatID]
		var members []*PlayerValueRow
		for _, id := range order {
			p := players[id]
			if pool == PoolAll || p.Pool == pool {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			continue
		}

		mean := 0.0
		for _, p := range members {
			mean += p.Totals[cat.StatID]
		}
		mean /= float64(len(members))

		variance := 0.0
		for _, p := range members {
			d := p.Totals[cat.StatID] - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(len(members)))
		if sd == 0 {
			continue
		}

		sign := 1.0
		if cat.SortOrder == 0 {
			sign = -1
		}
		for _, p := range members {
			z := sign * (p.Totals[cat.StatID] - mean) / sd
			p.ZScores[cat.StatID] = z
			p.Value += z
		}
	}

	out := make([]PlayerValueRow, 0, len(order))
	for _, id := range order {
		out = append(out, *players[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// CategoryLeader is the top season total for one category.
type CategoryLeader struct {
	StatID      int     `json:"stat_id"`
	DisplayName string  `json:"display_name"`
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Total       float64 `json:"total"`
}

// ComputeCategoryLeaders picks the best season total per scoring category,
// honoring sort order.
func ComputeCategoryLeaders(values []PlayerValueRow, cats []*store.StatCategory) []CategoryLeader {
	var out []CategoryLeader
	for _, c := range cats {
		if c.IsOnlyDisplay || !c.IsScoringStat {
			continue
		}
		var leader *CategoryLeader
		for i := range values {
			p := &values[i]
			total, ok := p.Totals[c.StatID]
			if !ok {
				continue
			}
			better := leader == nil
			if leader != nil {
				if c.SortOrder == 0 {
					better = total < leader.Total
				} else {
					better = total > leader.Total
				}
			}
			if better {
				leader = &CategoryLeader{
					StatID:      c.StatID,
					DisplayName: c.DisplayName,
					PlayerID:    p.PlayerID,
					Name:        p.Name,
					Total:       total,
				}
			}
		}
		if leader != nil {
			out = append(out, *leader)
		}
	}
	return out
}

// Pickup is one in-season acquisition scored by the player's final value.
type Pickup struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	TeamKey  string  `json:"team_key"`
	Week     int     `json:"week"`
	Value    float64 `json:"value"`
}

// BestPickups ranks in-season adds by the acquired player's valuation.
// Only the first add of each player counts.
func BestPickups(moves []repository.MoveRow, values []PlayerValueRow, limit int) []Pickup {
	valueOf := make(map[string]*PlayerValueRow, len(values))
	for i := range values {
		valueOf[values[i].PlayerID] = &values[i]
	}

	seen := make(map[string]bool)
	var out []Pickup
	for _, m := range moves {
		if m.MoveType != "add" || seen[m.PlayerID] {
			continue
		}
		seen[m.PlayerID] = true
		v, ok := valueOf[m.PlayerID]
		if !ok {
			continue
		}
		p := Pickup{
			PlayerID: m.PlayerID,
			Name:     m.PlayerName,
			Value:    v.Value,
		}
		if m.TeamKey.Valid {
			p.TeamKey = m.TeamKey.String
		}
		if m.Week.Valid {
			p.Week = int(m.Week.Int32)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
