package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"

	"github.com/fortuna/dynasty/internal/identity"
	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// SyncKeepers derives keeper rows for one season from roster keeper flags,
// falls back to the draft band heuristic when the flags are incomplete, and
// then restamps keeper lineage across every synced season.
func (p *Pipeline) SyncKeepers(ctx context.Context, season int) error {
	leagueKey := p.franchise.LeagueKey(season)
	if leagueKey == "" {
		return fmt.Errorf("franchise %s has no league key for season %d", p.franchise.Slug, season)
	}
	if seasons := p.franchise.SeasonList(); len(seasons) > 0 && season == seasons[len(seasons)-1] {
		// The inaugural season has no prior roster to keep players from.
		log.Printf("[sync] skipping keepers for inaugural season %d", season)
		return nil
	}
	league, err := p.leagues.Get(ctx, leagueKey)
	if err != nil {
		return fmt.Errorf("keepers need a synced league: %w", err)
	}
	teamKeys, err := p.teams.TeamKeys(ctx, leagueKey)
	if err != nil {
		return err
	}
	picks, err := p.players.DraftPicks(ctx, leagueKey)
	if err != nil {
		return err
	}
	dropped, err := p.transactions.DroppedPlayerKeys(ctx, leagueKey)
	if err != nil {
		return err
	}

	if err := p.runUnit(ctx, leagueKey, season, UnitKeepers, 0, func(tx *sql.Tx) (int, error) {
		return p.syncSeasonKeepers(ctx, tx, league, teamKeys, picks, dropped)
	}); err != nil {
		return err
	}

	return p.StampLineage(ctx)
}

func (p *Pipeline) syncSeasonKeepers(ctx context.Context, tx *sql.Tx, league *store.League, teamKeys []string, picks []*store.DraftPick, dropped map[string]bool) (int, error) {
	flagged := make(map[string][]string)
	names := make(map[string]string)
	for _, teamKey := range teamKeys {
		if err := p.pause(ctx); err != nil {
			return 0, err
		}
		slots, err := p.source.Roster(ctx, teamKey, league.StartWeek)
		if err != nil {
			log.Printf("[sync] warn: keeper roster %s unavailable, skipping team: %v", teamKey, err)
			continue
		}
		for _, slot := range slots {
			names[slot.Player.PlayerKey] = slot.Player.FullName
			if slot.IsKeeper {
				flagged[teamKey] = append(flagged[teamKey], slot.Player.PlayerKey)
			}
		}
	}

	// Picks arrive in draft order, so the slice index is the pick's
	// ordinal within the team's own draft.
	picksByTeam := make(map[string][]string)
	pickOrdinal := make(map[string]int)
	for _, pick := range picks {
		picksByTeam[pick.TeamKey] = append(picksByTeam[pick.TeamKey], pick.PlayerKey)
		pickOrdinal[pick.TeamKey+"|"+pick.PlayerKey] = len(picksByTeam[pick.TeamKey])
	}

	keepers := fillKeepers(flagged, picksByTeam, p.franchise.KeepersPerTeam)

	records := 0
	for teamKey, playerKeys := range keepers {
		for _, playerKey := range playerKeys {
			// A drafted player who passed through waivers loses the draft
			// round discount.
			cost := repository.UndraftedRoundCost
			if ord, ok := pickOrdinal[teamKey+"|"+playerKey]; ok && !dropped[playerKey] {
				cost = ord
			}
			row := &store.Keeper{
				LeagueKey:  league.LeagueKey,
				TeamKey:    teamKey,
				PlayerKey:  playerKey,
				PlayerName: names[playerKey],
				Season:     league.Season,
				RoundCost:  cost,
			}
			if err := p.keepers.Upsert(ctx, tx, row); err != nil {
				return records, err
			}
			records++
		}
	}
	return records, nil
}

// fillKeepers decides each team's keeper set. Explicit flags win when they
// reach the expected count. Otherwise keepers are assumed to occupy a fixed
// band of each team's draft, either the first or the last perTeam picks;
// whichever band agrees with more of the flags that do exist is used to
// fill the remainder.
func fillKeepers(flagged map[string][]string, picksByTeam map[string][]string, perTeam int) map[string][]string {
	expected := len(picksByTeam) * perTeam
	total := 0
	for _, keys := range flagged {
		total += len(keys)
	}
	if expected == 0 || total >= expected {
		return flagged
	}

	firstAgrees, lastAgrees := 0, 0
	for teamKey, keys := range flagged {
		picks := picksByTeam[teamKey]
		first := bandSet(picks, perTeam, true)
		last := bandSet(picks, perTeam, false)
		for _, k := range keys {
			if first[k] {
				firstAgrees++
			}
			if last[k] {
				lastAgrees++
			}
		}
	}
	useFirst := firstAgrees >= lastAgrees

	out := make(map[string][]string, len(picksByTeam))
	for teamKey, picks := range picksByTeam {
		seen := make(map[string]bool)
		var keys []string
		for _, k := range flagged[teamKey] {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		for _, k := range bandSlice(picks, perTeam, useFirst) {
			if len(keys) >= perTeam {
				break
			}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			out[teamKey] = keys
		}
	}
	return out
}

func bandSlice(picks []string, n int, first bool) []string {
	if len(picks) <= n {
		return picks
	}
	if first {
		return picks[:n]
	}
	return picks[len(picks)-n:]
}

func bandSet(picks []string, n int, first bool) map[string]bool {
	set := make(map[string]bool, n)
	for _, k := range bandSlice(picks, n, first) {
		set[k] = true
	}
	return set
}

// keeperIdentity is the grouping key for lineage: the same real player held
// by the same franchise, regardless of team key churn between seasons.
type keeperIdentity struct {
	FranchiseID string
	PlayerID    string
}

// StampLineage recomputes kept_from_season for every keeper row: the start
// of the unbroken run of consecutive seasons in which one franchise kept
// one player. A gap season restarts the run.
func (p *Pipeline) StampLineage(ctx context.Context) error {
	history := repository.NewHistoryRepository(p.db)
	teams, err := history.ManagerTeams(ctx)
	if err != nil {
		return err
	}
	guidByTeam := make(map[string]string, len(teams))
	for _, t := range teams {
		guidByTeam[t.LeagueKey+"|"+t.TeamKey] = t.ManagerGUID
	}

	keepers, err := p.keepers.All(ctx)
	if err != nil {
		return err
	}

	identityOf := func(k *store.Keeper) keeperIdentity {
		guid := guidByTeam[k.LeagueKey+"|"+k.TeamKey]
		return keeperIdentity{
			FranchiseID: p.resolver.FranchiseID(guid, k.Season),
			PlayerID:    identity.PlayerID(k.PlayerKey),
		}
	}

	starts := lineageStarts(keepers, identityOf)
	for _, k := range keepers {
		from := starts[k.LeagueKey+"|"+k.TeamKey+"|"+k.PlayerKey]
		if k.KeptFromSeason.Valid && int(k.KeptFromSeason.Int32) == from {
			continue
		}
		if err := p.keepers.SetKeptFrom(ctx, k.LeagueKey, k.TeamKey, k.PlayerKey, from); err != nil {
			return err
		}
	}
	return nil
}

// lineageStarts maps each keeper row to the first season of its
// consecutive-season run.
func lineageStarts(keepers []*store.Keeper, identityOf func(*store.Keeper) keeperIdentity) map[string]int {
	seasons := make(map[keeperIdentity][]int)
	for _, k := range keepers {
		id := identityOf(k)
		seasons[id] = append(seasons[id], k.Season)
	}
	for id := range seasons {
		sort.Ints(seasons[id])
	}

	starts := make(map[string]int, len(keepers))
	for _, k := range keepers {
		id := identityOf(k)
		held := make(map[int]bool, len(seasons[id]))
		for _, s := range seasons[id] {
			held[s] = true
		}
		from := k.Season
		for held[from-1] {
			from--
		}
		starts[k.LeagueKey+"|"+k.TeamKey+"|"+k.PlayerKey] = from
	}
	return starts
}
