// Package identity maps the upstream's unstable identifiers onto stable
// ones: manager GUIDs onto display names, (GUID, season) pairings onto
// persistent franchises, and player keys onto cross-season player ids.
package identity

import (
	"fmt"
	"strings"

	"github.com/fortuna/dynasty/internal/config"
)

// Resolver answers identity questions for one configured franchise.
type Resolver struct {
	franchise *config.Franchise
}

// NewResolver creates a resolver over a franchise configuration.
func NewResolver(f *config.Franchise) *Resolver {
	return &Resolver{franchise: f}
}

// DisplayName resolves a GUID to the configured display name, preferring
// active managers over former ones, and falling back to the upstream
// nickname when the GUID is unknown.
func (r *Resolver) DisplayName(guid, nickname string) string {
	if name := r.franchise.ManagerName(guid); name != "" {
		return name
	}
	return nickname
}

// Known reports whether a GUID has a configured display name.
func (r *Resolver) Known(guid string) bool {
	return r.franchise.ManagerName(guid) != ""
}

// FranchiseFor resolves a (GUID, season) to its persistent franchise. The
// first ownership interval that covers the season wins.
func (r *Resolver) FranchiseFor(guid string, season int) *config.FranchiseDef {
	return r.franchise.FranchiseFor(guid, season)
}

// FranchiseID returns the stable grouping key for a (GUID, season). When no
// franchise claims the pairing the GUID itself is the group, which degrades
// to per-manager grouping for leagues without franchise continuity config.
func (r *Resolver) FranchiseID(guid string, season int) string {
	if def := r.franchise.FranchiseFor(guid, season); def != nil {
		return def.ID
	}
	return guid
}

// PlayerID extracts the stable cross-season player identifier from a
// player key, the numeric suffix after ".p.".
func PlayerID(playerKey string) string {
	if i := strings.LastIndex(playerKey, ".p."); i >= 0 {
		return playerKey[i+len(".p."):]
	}
	return playerKey
}

// TeamKey builds a full team key from a league key and team id.
func TeamKey(leagueKey string, teamID int) string {
	return fmt.Sprintf("%s.t.%d", leagueKey, teamID)
}
