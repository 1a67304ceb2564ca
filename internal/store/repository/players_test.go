package repository

import (
	"database/sql"
	"testing"
)

func TestKeeperRoundCost(t *testing.T) {
	pick := func(n int) sql.NullInt32 {
		return sql.NullInt32{Int32: int32(n), Valid: true}
	}

	tests := []struct {
		name        string
		teamPick    sql.NullInt32
		everDropped bool
		want        int
	}{
		{"drafted and held", pick(5), false, 5},
		{"drafted then traded, never dropped", pick(3), false, 3},
		{"drafted then dropped", pick(5), true, UndraftedRoundCost},
		{"undrafted pickup", sql.NullInt32{}, false, UndraftedRoundCost},
		{"undrafted and dropped", sql.NullInt32{}, true, UndraftedRoundCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keeperRoundCost(tt.teamPick, tt.everDropped); got != tt.want {
				t.Errorf("keeperRoundCost(%v, %v) = %d, want %d", tt.teamPick, tt.everDropped, got, tt.want)
			}
		})
	}
}
