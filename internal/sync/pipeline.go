// Package sync pulls season data from the upstream fantasy API into the
// store. Work is divided into units (metadata, draft, transactions, one per
// week) tracked in sync_log; a completed unit is never refetched, so an
// interrupted run resumes where it stopped.
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/identity"
	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
	"github.com/fortuna/dynasty/internal/yahoo"
)

// Sync unit types.
const (
	UnitMetadata     = "metadata"
	UnitDraft        = "draft"
	UnitTransactions = "transactions"
	UnitWeekly       = "weekly"
	UnitKeepers      = "keepers"
)

// Event is one sync progress notification.
type Event struct {
	Slug      string `json:"slug"`
	LeagueKey string `json:"league_key"`
	Season    int    `json:"season"`
	Unit      string `json:"unit"`
	Week      int    `json:"week"`
	Status    string `json:"status"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
}

// EventSink receives progress events. Implementations must not block.
type EventSink interface {
	PublishSyncEvent(ctx context.Context, ev Event)
}

// MultiSink forwards each event to every sink in order.
type MultiSink []EventSink

func (m MultiSink) PublishSyncEvent(ctx context.Context, ev Event) {
	for _, sink := range m {
		sink.PublishSyncEvent(ctx, ev)
	}
}

// Pipeline syncs one franchise's seasons into its database.
type Pipeline struct {
	db        *store.Database
	source    yahoo.Source
	franchise *config.Franchise
	resolver  *identity.Resolver
	delay     time.Duration
	events    EventSink

	leagues      *repository.LeagueRepository
	teams        *repository.TeamRepository
	matchups     *repository.MatchupRepository
	players      *repository.PlayerRepository
	transactions *repository.TransactionRepository
	keepers      *repository.KeeperRepository
	syncLog      *repository.SyncLogRepository
}

// NewPipeline creates a sync pipeline. events may be nil.
func NewPipeline(db *store.Database, source yahoo.Source, franchise *config.Franchise, delay time.Duration, events EventSink) *Pipeline {
	return &Pipeline{
		db:           db,
		source:       source,
		franchise:    franchise,
		resolver:     identity.NewResolver(franchise),
		delay:        delay,
		events:       events,
		leagues:      repository.NewLeagueRepository(db),
		teams:        repository.NewTeamRepository(db),
		matchups:     repository.NewMatchupRepository(db),
		players:      repository.NewPlayerRepository(db),
		transactions: repository.NewTransactionRepository(db),
		keepers:      repository.NewKeeperRepository(db),
		syncLog:      repository.NewSyncLogRepository(db),
	}
}

// SyncAll syncs every configured season, oldest first.
func (p *Pipeline) SyncAll(ctx context.Context) error {
	seasons := p.franchise.SeasonList()
	for i := len(seasons) - 1; i >= 0; i-- {
		if err := p.SyncSeason(ctx, seasons[i]); err != nil {
			return err
		}
	}
	return nil
}

// SyncIncremental refreshes the latest season: metadata and transactions
// replay, and weekly units from the current week forward replay. Finished
// historical seasons are left alone.
func (p *Pipeline) SyncIncremental(ctx context.Context) error {
	season := p.franchise.LatestSeason()
	if season == 0 {
		return fmt.Errorf("franchise %s has no configured seasons", p.franchise.Slug)
	}
	leagueKey := p.franchise.LeagueKey(season)

	if league, err := p.leagues.Get(ctx, leagueKey); err == nil {
		if league.IsFinished {
			log.Printf("[sync] %s season %d is finished, nothing incremental to do", p.franchise.Slug, season)
			return nil
		}
		if err := p.syncLog.Reset(ctx, leagueKey, UnitMetadata); err != nil {
			return err
		}
		if err := p.syncLog.Reset(ctx, leagueKey, UnitTransactions); err != nil {
			return err
		}
		if err := p.syncLog.ResetFrom(ctx, leagueKey, UnitWeekly, league.CurrentWeek); err != nil {
			return err
		}
	}
	return p.SyncSeason(ctx, season)
}

// SyncSeason syncs one season end to end. Already completed units are
// skipped, so calling this again after a failure picks up where it stopped.
func (p *Pipeline) SyncSeason(ctx context.Context, season int) error {
	leagueKey := p.franchise.LeagueKey(season)
	if leagueKey == "" {
		return fmt.Errorf("franchise %s has no league key for season %d", p.franchise.Slug, season)
	}
	log.Printf("[sync] %s season %d (%s)", p.franchise.Slug, season, leagueKey)

	if err := p.runUnit(ctx, leagueKey, season, UnitMetadata, 0, func(tx *sql.Tx) (int, error) {
		return p.syncMetadata(ctx, tx, leagueKey)
	}); err != nil {
		return err
	}

	league, err := p.leagues.Get(ctx, leagueKey)
	if err != nil {
		return fmt.Errorf("loading league after metadata sync: %w", err)
	}
	cats, err := p.leagues.ScoringCategories(ctx, leagueKey)
	if err != nil {
		return err
	}
	teamKeys, err := p.teams.TeamKeys(ctx, leagueKey)
	if err != nil {
		return err
	}

	if err := p.runUnit(ctx, leagueKey, season, UnitDraft, 0, func(tx *sql.Tx) (int, error) {
		return p.syncDraft(ctx, tx, leagueKey)
	}); err != nil {
		return err
	}

	if err := p.runUnit(ctx, leagueKey, season, UnitTransactions, 0, func(tx *sql.Tx) (int, error) {
		return p.syncTransactions(ctx, tx, leagueKey)
	}); err != nil {
		return err
	}

	last := league.EndWeek
	if !league.IsFinished && league.CurrentWeek < last {
		last = league.CurrentWeek
	}
	for week := league.StartWeek; week <= last; week++ {
		w := week
		if err := p.runUnit(ctx, leagueKey, season, UnitWeekly, w, func(tx *sql.Tx) (int, error) {
			return p.syncWeek(ctx, tx, league, cats, teamKeys, w)
		}); err != nil {
			return err
		}
	}

	if err := p.backfillTransactionWeeks(ctx, leagueKey); err != nil {
		return err
	}
	if err := p.repairWeeks(ctx, leagueKey); err != nil {
		return err
	}
	if err := p.refreshStandings(ctx, leagueKey); err != nil {
		return err
	}

	log.Printf("[sync] %s season %d done", p.franchise.Slug, season)
	return nil
}

// runUnit wraps one unit: skip when completed, mark running, execute inside
// a transaction, and record the outcome. The completion row commits in the
// same transaction as the unit's writes.
func (p *Pipeline) runUnit(ctx context.Context, leagueKey string, season int, unit string, week int, fn func(tx *sql.Tx) (int, error)) error {
	done, err := p.syncLog.IsCompleted(ctx, leagueKey, unit, week)
	if err != nil {
		return err
	}
	if done {
		log.Printf("[sync] %s %s/%d already completed, skipping", leagueKey, unit, week)
		return nil
	}

	if err := p.syncLog.Start(ctx, leagueKey, unit, week); err != nil {
		return err
	}
	p.publish(ctx, Event{
		Slug: p.franchise.Slug, LeagueKey: leagueKey, Season: season,
		Unit: unit, Week: week, Status: store.SyncStatusRunning,
	})

	var records int
	err = p.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := fn(tx)
		if err != nil {
			return err
		}
		records = n
		return p.syncLog.Complete(ctx, tx, leagueKey, unit, week, n)
	})
	if err != nil {
		if ferr := p.syncLog.Fail(ctx, leagueKey, unit, week, err); ferr != nil {
			log.Printf("[sync] warn: could not record failure for %s %s/%d: %v", leagueKey, unit, week, ferr)
		}
		p.publish(ctx, Event{
			Slug: p.franchise.Slug, LeagueKey: leagueKey, Season: season,
			Unit: unit, Week: week, Status: store.SyncStatusFailed, Error: err.Error(),
		})
		return fmt.Errorf("unit %s/%d for %s: %w", unit, week, leagueKey, err)
	}

	p.publish(ctx, Event{
		Slug: p.franchise.Slug, LeagueKey: leagueKey, Season: season,
		Unit: unit, Week: week, Status: store.SyncStatusCompleted, Records: records,
	})
	log.Printf("[sync] %s %s/%d completed, %d records", leagueKey, unit, week, records)
	return nil
}

func (p *Pipeline) syncMetadata(ctx context.Context, tx *sql.Tx, leagueKey string) (int, error) {
	info, err := p.source.LeagueInfo(ctx, leagueKey)
	if err != nil {
		return 0, err
	}
	if err := p.pause(ctx); err != nil {
		return 0, err
	}
	settings, err := p.source.LeagueSettings(ctx, leagueKey)
	if err != nil {
		return 0, err
	}
	if err := p.pause(ctx); err != nil {
		return 0, err
	}
	teams, err := p.source.Teams(ctx, leagueKey)
	if err != nil {
		return 0, err
	}
	if err := p.pause(ctx); err != nil {
		return 0, err
	}
	standings, err := p.source.Standings(ctx, leagueKey)
	if err != nil {
		return 0, err
	}

	scoring := 0
	for _, c := range settings.StatCategories {
		if !c.IsOnlyDisplay.Bool() {
			scoring++
		}
	}

	sport := info.GameCode
	if sport == "" {
		sport = p.franchise.Sport
	}
	league := &store.League{
		LeagueKey:       leagueKey,
		Season:          info.Season.Int(),
		Name:            info.Name,
		Sport:           sport,
		NumTeams:        info.NumTeams.Int(),
		ScoringType:     info.ScoringType,
		NumScoringStats: scoring,
		CurrentWeek:     info.CurrentWeek.Int(),
		StartWeek:       info.StartWeek.Int(),
		EndWeek:         info.EndWeek.Int(),
		UsesFAAB:        settings.UsesFAAB.Bool(),
		IsFinished:      info.IsFinished.Bool(),
	}
	if v := settings.PlayoffStartWeek.Int(); v > 0 {
		league.PlayoffStartWeek = sql.NullInt32{Int32: int32(v), Valid: true}
	}
	if err := p.leagues.Upsert(ctx, tx, league); err != nil {
		return 0, err
	}
	records := 1

	for _, c := range settings.StatCategories {
		cat := &store.StatCategory{
			LeagueKey:     leagueKey,
			StatID:        c.StatID.Int(),
			Name:          c.Name,
			DisplayName:   c.DisplayName,
			SortOrder:     c.SortOrder.Int(),
			IsOnlyDisplay: c.IsOnlyDisplay.Bool(),
			IsScoringStat: true,
		}
		if c.PositionType != "" {
			cat.PositionType = sql.NullString{String: c.PositionType, Valid: true}
		}
		if err := p.leagues.UpsertStatCategory(ctx, tx, cat); err != nil {
			return records, err
		}
		records++
	}

	ranks := make(map[string]yahoo.StandingsEntry, len(standings))
	for _, s := range standings {
		ranks[s.TeamKey] = s
	}
	for _, t := range teams {
		row := &store.Team{
			LeagueKey:       leagueKey,
			TeamKey:         t.TeamKey,
			TeamID:          t.TeamID,
			Name:            t.Name,
			ManagerGUID:     t.ManagerGUID,
			ManagerNickname: t.ManagerNickname,
			ManagerName:     p.resolver.DisplayName(t.ManagerGUID, ""),
		}
		if t.WaiverPriority > 0 {
			row.WaiverPriority = sql.NullInt32{Int32: int32(t.WaiverPriority), Valid: true}
		}
		if league.UsesFAAB {
			row.FAABBalance = sql.NullInt32{Int32: int32(t.FAABBalance), Valid: true}
		}
		if s, ok := ranks[t.TeamKey]; ok {
			if s.Rank > 0 {
				row.Finish = sql.NullInt32{Int32: int32(s.Rank), Valid: true}
			}
			if s.PlayoffSeed > 0 {
				row.PlayoffSeed = sql.NullInt32{Int32: int32(s.PlayoffSeed), Valid: true}
			}
		}
		if err := p.teams.Upsert(ctx, tx, row); err != nil {
			return records, err
		}
		records++
	}
	return records, nil
}

func (p *Pipeline) syncDraft(ctx context.Context, tx *sql.Tx, leagueKey string) (int, error) {
	results, err := p.source.DraftResults(ctx, leagueKey)
	if err != nil {
		return 0, err
	}
	records := 0
	for _, d := range results {
		pick := &store.DraftPick{
			LeagueKey: leagueKey,
			Pick:      d.Pick.Int(),
			Round:     d.Round.Int(),
			TeamKey:   d.TeamKey,
			PlayerKey: d.PlayerKey,
		}
		if v := d.Cost.Int(); v > 0 {
			pick.Cost = sql.NullInt32{Int32: int32(v), Valid: true}
		}
		if err := p.players.UpsertDraftPick(ctx, tx, pick); err != nil {
			return records, err
		}
		records++
	}
	return records, nil
}

func (p *Pipeline) syncTransactions(ctx context.Context, tx *sql.Tx, leagueKey string) (int, error) {
	txns, err := p.source.Transactions(ctx, leagueKey)
	if err != nil {
		return 0, err
	}
	records := 0
	for _, t := range txns {
		rec := &store.TransactionRecord{
			TransactionKey: t.TransactionKey,
			LeagueKey:      leagueKey,
			Type:           t.Type,
			Status:         t.Status,
			Timestamp:      t.Timestamp,
		}
		if t.FAABBid > 0 {
			rec.FAABBid = sql.NullInt32{Int32: int32(t.FAABBid), Valid: true}
		}
		if t.TraderTeamKey != "" {
			rec.TraderTeamKey = sql.NullString{String: t.TraderTeamKey, Valid: true}
		}
		if t.TradeeTeamKey != "" {
			rec.TradeeTeamKey = sql.NullString{String: t.TradeeTeamKey, Valid: true}
		}
		if err := p.transactions.Upsert(ctx, tx, rec); err != nil {
			return records, err
		}
		records++

		for _, tp := range t.Players {
			// Transactions can reference players never seen on a synced
			// roster, so a minimal master row keeps the joins whole.
			player := &store.Player{
				PlayerKey: tp.PlayerKey,
				PlayerID:  identity.PlayerID(tp.PlayerKey),
				FullName:  tp.FullName,
			}
			if err := p.players.Upsert(ctx, tx, player); err != nil {
				return records, err
			}
			row := &store.TransactionPlayer{
				TransactionKey:  t.TransactionKey,
				PlayerKey:       tp.PlayerKey,
				SourceType:      tp.SourceType,
				DestinationType: tp.DestinationType,
				Type:            tp.Type,
			}
			if tp.SourceTeamKey != "" {
				row.SourceTeamKey = sql.NullString{String: tp.SourceTeamKey, Valid: true}
			}
			if tp.DestinationTeamKey != "" {
				row.DestinationTeamKey = sql.NullString{String: tp.DestinationTeamKey, Valid: true}
			}
			if err := p.transactions.UpsertPlayer(ctx, tx, row); err != nil {
				return records, err
			}
			records++
		}
	}
	return records, nil
}

// syncWeek ingests one week: the scoreboard with derived category results,
// then every team's roster with player stats. A team whose roster fetch
// fails is skipped with a warning; the unit still completes, because one
// missing roster should not wedge the whole season.
func (p *Pipeline) syncWeek(ctx context.Context, tx *sql.Tx, league *store.League, cats []*store.StatCategory, teamKeys []string, week int) (int, error) {
	matchups, err := p.source.Scoreboard(ctx, league.LeagueKey, week)
	if err != nil {
		return 0, err
	}

	records := 0
	for i, m := range matchups {
		if len(m.Teams) != 2 {
			log.Printf("[sync] warn: %s week %d matchup %d has %d teams, skipping", league.LeagueKey, week, i+1, len(m.Teams))
			continue
		}
		outcomes := deriveCategories(m.Teams[0], m.Teams[1], cats)
		won1, won2, tied := scoreMatchup(outcomes, league.NumScoringStats)

		row := &store.Matchup{
			LeagueKey:     league.LeagueKey,
			Week:          week,
			MatchupID:     i + 1,
			TeamKey1:      m.Teams[0].TeamKey,
			TeamKey2:      m.Teams[1].TeamKey,
			CatsWon1:      won1,
			CatsWon2:      won2,
			CatsTied:      tied,
			IsTied:        m.IsTied,
			IsPlayoffs:    m.IsPlayoffs,
			IsConsolation: m.IsConsolation,
			WeekStart:     m.WeekStart,
			WeekEnd:       m.WeekEnd,
		}
		switch {
		case m.WinnerTeamKey != "":
			row.WinnerTeamKey = sql.NullString{String: m.WinnerTeamKey, Valid: true}
		case m.IsTied || won1 == won2:
		case won1 > won2:
			row.WinnerTeamKey = sql.NullString{String: row.TeamKey1, Valid: true}
		default:
			row.WinnerTeamKey = sql.NullString{String: row.TeamKey2, Valid: true}
		}
		if err := p.matchups.Upsert(ctx, tx, row); err != nil {
			return records, err
		}
		records++

		for _, o := range outcomes {
			cat := &store.MatchupCategory{
				LeagueKey: league.LeagueKey,
				Week:      week,
				MatchupID: i + 1,
				StatID:    o.StatID,
			}
			if o.Value1 != "" {
				cat.Team1Value = sql.NullString{String: o.Value1, Valid: true}
			}
			if o.Value2 != "" {
				cat.Team2Value = sql.NullString{String: o.Value2, Valid: true}
			}
			switch o.Winner {
			case 1:
				cat.WinnerTeamKey = sql.NullString{String: row.TeamKey1, Valid: true}
			case 2:
				cat.WinnerTeamKey = sql.NullString{String: row.TeamKey2, Valid: true}
			}
			if err := p.matchups.UpsertCategory(ctx, tx, cat); err != nil {
				return records, err
			}
			records++
		}

		for _, mt := range m.Teams {
			for _, sv := range mt.Stats {
				score := &store.TeamWeeklyScore{
					LeagueKey: league.LeagueKey,
					Week:      week,
					TeamKey:   mt.TeamKey,
					StatID:    sv.StatID.Int(),
				}
				if sv.Value != "" && sv.Value != "-" {
					score.Value = sql.NullString{String: sv.Value, Valid: true}
				}
				if err := p.players.UpsertTeamScore(ctx, tx, score); err != nil {
					return records, err
				}
				records++
			}
		}
	}

	for _, teamKey := range teamKeys {
		if err := p.pause(ctx); err != nil {
			return records, err
		}
		slots, err := p.source.Roster(ctx, teamKey, week)
		if err != nil {
			log.Printf("[sync] warn: roster %s week %d unavailable, skipping team: %v", teamKey, week, err)
			continue
		}
		n, err := p.writeRoster(ctx, tx, league, teamKey, week, slots)
		if err != nil {
			return records, err
		}
		records += n
	}
	return records, nil
}

func (p *Pipeline) writeRoster(ctx context.Context, tx *sql.Tx, league *store.League, teamKey string, week int, slots []yahoo.RosterSlot) (int, error) {
	records := 0
	for _, slot := range slots {
		player := &store.Player{
			PlayerKey:         slot.Player.PlayerKey,
			PlayerID:          slot.Player.PlayerID(),
			FullName:          slot.Player.FullName,
			FirstName:         slot.Player.FirstName,
			LastName:          slot.Player.LastName,
			EditorialTeam:     slot.Player.EditorialTeam,
			PrimaryPosition:   slot.Player.PrimaryPosition,
			EligiblePositions: joinPositions(slot.Player.EligiblePositions),
		}
		if err := p.players.Upsert(ctx, tx, player); err != nil {
			return records, err
		}

		roster := &store.WeeklyRoster{
			LeagueKey: league.LeagueKey,
			Week:      week,
			TeamKey:   teamKey,
			PlayerKey: slot.Player.PlayerKey,
			IsStarter: !config.IsBenchPosition(league.Sport, slot.SelectedPosition),
		}
		if slot.SelectedPosition != "" {
			roster.SelectedPosition = sql.NullString{String: slot.SelectedPosition, Valid: true}
		}
		if err := p.players.UpsertRoster(ctx, tx, roster); err != nil {
			return records, err
		}
		records++

		for _, sv := range slot.Player.Stats {
			stat := &store.PlayerWeeklyStat{
				LeagueKey: league.LeagueKey,
				Week:      week,
				PlayerKey: slot.Player.PlayerKey,
				StatID:    sv.StatID.Int(),
			}
			if sv.Value != "" && sv.Value != "-" {
				stat.Value = sql.NullString{String: sv.Value, Valid: true}
			}
			if err := p.players.UpsertStat(ctx, tx, stat); err != nil {
				return records, err
			}
			records++
		}
	}
	return records, nil
}

// backfillTransactionWeeks assigns weeks to transactions using matchup date
// spans. The upstream omits the week on most transaction payloads.
func (p *Pipeline) backfillTransactionWeeks(ctx context.Context, leagueKey string) error {
	spans, err := p.matchups.WeekDates(ctx, leagueKey)
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return nil
	}
	rows, err := p.transactions.Unweeked(ctx, leagueKey)
	if err != nil {
		return err
	}
	for _, row := range rows {
		week := weekForTimestamp(row.Timestamp, spans)
		if week == 0 {
			continue
		}
		if err := p.transactions.SetWeek(ctx, row.TransactionKey, week); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		log.Printf("[sync] %s assigned weeks to %d transactions", leagueKey, len(rows))
	}
	return nil
}

// repairWeeks overwrites the league's week bounds with ones observed from
// matchups. Always runs; the upstream's self-reported bounds are unreliable
// for historical seasons.
func (p *Pipeline) repairWeeks(ctx context.Context, leagueKey string) error {
	bounds, err := p.matchups.ObservedWeekBounds(ctx, leagueKey)
	if err != nil {
		return err
	}
	if !bounds.HasMatchups {
		return nil
	}
	return p.leagues.RepairWeeks(ctx, leagueKey, bounds.MinWeek, bounds.MaxWeek, bounds.MinPlayoffWeek)
}

// refreshStandings re-pulls final ranks and playoff seeds onto the team
// rows. Runs on every season sync, so a re-run after the season ends picks
// up the true finish without replaying the metadata unit.
func (p *Pipeline) refreshStandings(ctx context.Context, leagueKey string) error {
	if err := p.pause(ctx); err != nil {
		return err
	}
	standings, err := p.source.Standings(ctx, leagueKey)
	if err != nil {
		log.Printf("[sync] warn: standings refresh for %s unavailable: %v", leagueKey, err)
		return nil
	}
	for _, s := range standings {
		var finish, seed sql.NullInt32
		if s.Rank > 0 {
			finish = sql.NullInt32{Int32: int32(s.Rank), Valid: true}
		}
		if s.PlayoffSeed > 0 {
			seed = sql.NullInt32{Int32: int32(s.PlayoffSeed), Valid: true}
		}
		if err := p.teams.UpdateStandings(ctx, p.db.DB(), leagueKey, s.TeamKey, finish, seed); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

func (p *Pipeline) publish(ctx context.Context, ev Event) {
	if p.events != nil {
		p.events.PublishSyncEvent(ctx, ev)
	}
}

func joinPositions(positions []string) string {
	return strings.Join(positions, ",")
}
