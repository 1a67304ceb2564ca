package identity

import (
	"testing"

	"github.com/fortuna/dynasty/internal/config"
)

func testFranchise() *config.Franchise {
	return &config.Franchise{
		Slug:  "oldtimers",
		Sport: "mlb",
		Managers: map[string]config.Manager{
			"MGRGUID1": {Name: "Alice"},
		},
		FormerManagers: map[string]config.Manager{
			"MGRGUID9": {Name: "Hank"},
		},
		Franchises: []config.FranchiseDef{
			{
				ID:   "gorillas",
				Name: "Gashouse Gorillas",
				Intervals: []config.OwnershipInterval{
					{GUID: "MGRGUID9", From: 2020, To: 2022},
					{GUID: "MGRGUID1", From: 2023},
				},
			},
		},
	}
}

func TestDisplayName(t *testing.T) {
	r := NewResolver(testFranchise())

	tests := []struct {
		guid     string
		nickname string
		want     string
	}{
		{"MGRGUID1", "xXsluggerXx", "Alice"},
		{"MGRGUID9", "hankaaron44", "Hank"},
		{"UNKNOWN", "hidden_manager", "hidden_manager"},
	}
	for _, tt := range tests {
		if got := r.DisplayName(tt.guid, tt.nickname); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.guid, tt.nickname, got, tt.want)
		}
	}

	if !r.Known("MGRGUID1") || !r.Known("MGRGUID9") {
		t.Error("configured GUIDs should be known")
	}
	if r.Known("UNKNOWN") {
		t.Error("unconfigured GUID should not be known")
	}
}

func TestFranchiseID(t *testing.T) {
	r := NewResolver(testFranchise())

	tests := []struct {
		guid   string
		season int
		want   string
	}{
		{"MGRGUID9", 2020, "gorillas"},
		{"MGRGUID9", 2022, "gorillas"},
		{"MGRGUID9", 2023, "MGRGUID9"},
		{"MGRGUID1", 2023, "gorillas"},
		{"MGRGUID1", 2030, "gorillas"},
		{"MGRGUID1", 2022, "MGRGUID1"},
		{"UNKNOWN", 2023, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := r.FranchiseID(tt.guid, tt.season); got != tt.want {
			t.Errorf("FranchiseID(%q, %d) = %q, want %q", tt.guid, tt.season, got, tt.want)
		}
	}
}

func TestPlayerID(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"431.p.9988", "9988"},
		{"422.p.12345", "12345"},
		{"9988", "9988"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlayerID(tt.key); got != tt.want {
			t.Errorf("PlayerID(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTeamKey(t *testing.T) {
	if got := TeamKey("431.l.120", 7); got != "431.l.120.t.7" {
		t.Errorf("TeamKey = %q", got)
	}
}
