package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/identity"
	"github.com/fortuna/dynasty/internal/store"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// Service answers the aggregate queries for one franchise's database.
type Service struct {
	db        *store.Database
	franchise *config.Franchise
	resolver  *identity.Resolver

	leagues      *repository.LeagueRepository
	teams        *repository.TeamRepository
	matchups     *repository.MatchupRepository
	players      *repository.PlayerRepository
	transactions *repository.TransactionRepository
	keepers      *repository.KeeperRepository
	history      *repository.HistoryRepository
	syncLog      *repository.SyncLogRepository
}

// NewService creates an analytics service over one franchise database.
func NewService(db *store.Database, franchise *config.Franchise) *Service {
	return &Service{
		db:           db,
		franchise:    franchise,
		resolver:     identity.NewResolver(franchise),
		leagues:      repository.NewLeagueRepository(db),
		teams:        repository.NewTeamRepository(db),
		matchups:     repository.NewMatchupRepository(db),
		players:      repository.NewPlayerRepository(db),
		transactions: repository.NewTransactionRepository(db),
		keepers:      repository.NewKeeperRepository(db),
		history:      repository.NewHistoryRepository(db),
		syncLog:      repository.NewSyncLogRepository(db),
	}
}

// Franchise returns the franchise configuration behind this service.
func (s *Service) Franchise() *config.Franchise { return s.franchise }

// Seasons lists every synced season, most recent first.
func (s *Service) Seasons(ctx context.Context) ([]*store.League, error) {
	return s.leagues.AllSeasons(ctx)
}

// SyncStatus returns the sync log for one league.
func (s *Service) SyncStatus(ctx context.Context, leagueKey string) ([]*store.SyncLog, error) {
	return s.syncLog.ForLeague(ctx, leagueKey)
}

// UnknownManagers lists manager GUIDs with no resolved display name.
func (s *Service) UnknownManagers(ctx context.Context) ([]string, error) {
	return s.teams.UnknownManagerGUIDs(ctx)
}

// RenameManagers writes resolved display names onto stored team rows.
func (s *Service) RenameManagers(ctx context.Context, names map[string]config.Manager) error {
	for guid, m := range names {
		if err := s.teams.UpdateManagerName(ctx, guid, m.Name); err != nil {
			return err
		}
	}
	return nil
}

// Standings computes cumulative standings through a week.
func (s *Service) Standings(ctx context.Context, leagueKey string, week int) ([]StandingRow, error) {
	matchups, err := s.matchups.ThroughWeek(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.All(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	return ComputeStandings(matchups, teams, week), nil
}

// ManagersPayload bundles careers with the head-to-head matrix.
type ManagersPayload struct {
	Careers []ManagerCareer                  `json:"careers"`
	H2H     map[string]map[string]*H2HRecord `json:"h2h"`
}

// Managers computes every manager's career line and the all-time
// head-to-head matrix.
func (s *Service) Managers(ctx context.Context) (*ManagersPayload, error) {
	teams, err := s.history.ManagerTeams(ctx)
	if err != nil {
		return nil, err
	}
	matchups, err := s.history.AllMatchups(ctx)
	if err != nil {
		return nil, err
	}
	careers := ComputeCareers(teams, matchups, func(guid, fallback string) string {
		return s.resolver.DisplayName(guid, fallback)
	})
	return &ManagersPayload{
		Careers: careers,
		H2H:     ComputeH2H(matchups),
	}, nil
}

// RecordsPayload is the all-time record book.
type RecordsPayload struct {
	Categories []CategoryRecord `json:"categories"`
	Streaks    StreakBests      `json:"streaks"`
	Blowout    *MatchupExtreme  `json:"blowout,omitempty"`
	Nailbiter  *MatchupExtreme  `json:"nailbiter,omitempty"`
}

// Records computes category records, streak records, and matchup extremes
// across every season.
func (s *Service) Records(ctx context.Context) (*RecordsPayload, error) {
	values, err := s.history.CategoryValues(ctx)
	if err != nil {
		return nil, err
	}
	matchups, err := s.history.AllMatchups(ctx)
	if err != nil {
		return nil, err
	}
	nameOf, err := s.managerNames(ctx)
	if err != nil {
		return nil, err
	}

	_, bests := ComputeStreaks(matchups)
	bests.Win.Manager = nameOf(bests.Win.GUID)
	bests.Loss.Manager = nameOf(bests.Loss.GUID)
	bests.Unbeaten.Manager = nameOf(bests.Unbeaten.GUID)

	blowout, nailbiter := ComputeExtremes(matchups, nameOf)
	return &RecordsPayload{
		Categories: ComputeCategoryRecords(values),
		Streaks:    bests,
		Blowout:    blowout,
		Nailbiter:  nailbiter,
	}, nil
}

// ValuePayload is one valuation run's output. Week is zero for full-season
// valuations.
type ValuePayload struct {
	LeagueKey string           `json:"league_key"`
	Week      int              `json:"week,omitempty"`
	Values    []PlayerValueRow `json:"values"`
	Leaders   []CategoryLeader `json:"leaders"`
	Pickups   []Pickup         `json:"pickups,omitempty"`
}

// PlayerValues scores a season's starters and derives category leaders and
// the best in-season pickups. A positive week narrows the valuation pool to
// that week's starters; the same stat line can then rank differently from
// week to week depending on who else started.
func (s *Service) PlayerValues(ctx context.Context, leagueKey string, week int) (*ValuePayload, error) {
	cats, err := s.leagues.ScoringCategories(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.players.StarterStats(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}

	values := ComputeValues(rows, cats)
	payload := &ValuePayload{
		LeagueKey: leagueKey,
		Week:      week,
		Values:    values,
		Leaders:   ComputeCategoryLeaders(values, cats),
	}
	if week <= 0 {
		// Pickup rankings only make sense against full-season value.
		moves, err := s.transactions.AddMoves(ctx, leagueKey)
		if err != nil {
			return nil, err
		}
		payload.Pickups = BestPickups(moves, values, 10)
	}
	return payload, nil
}

// PowerRankingsPayload is the team profiles view for one week.
type PowerRankingsPayload struct {
	LeagueKey string        `json:"league_key"`
	Week      int           `json:"week"`
	Teams     []TeamProfile `json:"teams"`
}

// PowerRankings builds per-team profiles through a week: standings with
// rank movement, current streak, the week's opponent, the week's best and
// worst starters by valuation, and cumulative category strengths.
func (s *Service) PowerRankings(ctx context.Context, leagueKey string, week int) (*PowerRankingsPayload, error) {
	league, err := s.leagues.Get(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	if week <= 0 {
		week = league.CurrentWeek
	}
	matchups, err := s.matchups.ThroughWeek(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.All(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	cats, err := s.leagues.ScoringCategories(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.players.StarterStats(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	catWins, err := s.matchups.CategoryWinCounts(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}

	standings := ComputeStandings(matchups, teams, week)
	var prev []StandingRow
	if week > 1 {
		prev = ComputeStandings(matchups, teams, week-1)
	}
	values := ComputeValues(rows, cats)
	return &PowerRankingsPayload{
		LeagueKey: leagueKey,
		Week:      week,
		Teams:     ComputeTeamProfiles(standings, prev, matchups, week, values, buildStarterTeams(rows), catWins, cats),
	}, nil
}

// Recap assembles the weekly recap for one league week.
func (s *Service) Recap(ctx context.Context, leagueKey string, week int) (*Recap, error) {
	league, err := s.leagues.Get(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	if week <= 0 {
		week = league.CurrentWeek
	}
	named, err := s.history.NamedWeekMatchups(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	standings, err := s.Standings(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	moves, err := s.transactions.WeekMoves(ctx, leagueKey, week)
	if err != nil {
		return nil, err
	}
	recap := BuildRecap(league, week, named, standings, moves)
	if err := s.attachCategoryLines(ctx, leagueKey, week, named, recap); err != nil {
		return nil, err
	}
	return recap, nil
}

// attachCategoryLines fills the per-category breakdown of each recap
// matchup from the stored category results.
func (s *Service) attachCategoryLines(ctx context.Context, leagueKey string, week int, named []repository.NamedMatchup, recap *Recap) error {
	cats, err := s.leagues.ScoringCategories(ctx, leagueKey)
	if err != nil {
		return err
	}
	catName := make(map[int]string, len(cats))
	for _, c := range cats {
		catName[c.StatID] = c.DisplayName
	}
	teamNames := make(map[string]string, 2*len(named))
	for _, nm := range named {
		teamNames[nm.TeamKey1] = nm.TeamName1
		teamNames[nm.TeamKey2] = nm.TeamName2
	}

	for i := range recap.Matchups {
		rm := &recap.Matchups[i]
		results, err := s.matchups.Categories(ctx, leagueKey, week, rm.MatchupID)
		if err != nil {
			return err
		}
		for _, res := range results {
			line := CategoryLine{Name: catName[res.StatID]}
			if line.Name == "" {
				continue
			}
			if res.Team1Value.Valid {
				line.Value1 = res.Team1Value.String
			}
			if res.Team2Value.Valid {
				line.Value2 = res.Team2Value.String
			}
			if res.WinnerTeamKey.Valid {
				line.Winner = teamNames[res.WinnerTeamKey.String]
			}
			rm.Categories = append(rm.Categories, line)
		}
	}
	return nil
}

// FranchisesPayload bundles franchise summaries with their h2h matrix.
type FranchisesPayload struct {
	Franchises []FranchiseSummary               `json:"franchises"`
	H2H        map[string]map[string]*H2HRecord `json:"h2h"`
}

// Franchises aggregates the persistent franchises across manager turnover.
func (s *Service) Franchises(ctx context.Context) (*FranchisesPayload, error) {
	teams, err := s.history.ManagerTeams(ctx)
	if err != nil {
		return nil, err
	}
	matchups, err := s.history.AllMatchups(ctx)
	if err != nil {
		return nil, err
	}
	return &FranchisesPayload{
		Franchises: ComputeFranchises(s.franchise, s.resolver, teams, matchups),
		H2H:        ComputeFranchiseH2H(s.resolver, matchups),
	}, nil
}

// SeasonLine is one franchise's result in one season.
type SeasonLine struct {
	Season      int    `json:"season"`
	LeagueKey   string `json:"league_key"`
	TeamKey     string `json:"team_key"`
	TeamName    string `json:"team_name"`
	Manager     string `json:"manager"`
	Finish      int    `json:"finish,omitempty"`
	PlayoffSeed int    `json:"playoff_seed,omitempty"`
	Adds        int    `json:"adds"`
	Trades      int    `json:"trades"`
}

// TradeLine is one trade movement involving the franchise.
type TradeLine struct {
	Season     int    `json:"season"`
	Week       int    `json:"week,omitempty"`
	PlayerName string `json:"player_name"`
	Acquired   bool   `json:"acquired"`
}

// KeeperLine is one kept player with lineage tenure.
type KeeperLine struct {
	Season     int    `json:"season"`
	PlayerName string `json:"player_name"`
	RoundCost  int    `json:"round_cost"`
	KeptSince  int    `json:"kept_since,omitempty"`
	Tenure     int    `json:"tenure"`
}

// FranchiseDetailPayload is one franchise's full page.
type FranchiseDetailPayload struct {
	Summary FranchiseSummary      `json:"summary"`
	Seasons []SeasonLine          `json:"seasons"`
	Keepers []KeeperLine          `json:"keepers"`
	Trades  []TradeLine           `json:"trades,omitempty"`
	H2H     map[string]*H2HRecord `json:"h2h"`
}

// FranchiseDetail builds the detail view for one franchise id.
func (s *Service) FranchiseDetail(ctx context.Context, id string) (*FranchiseDetailPayload, error) {
	all, err := s.Franchises(ctx)
	if err != nil {
		return nil, err
	}
	var summary *FranchiseSummary
	for i := range all.Franchises {
		if all.Franchises[i].ID == id {
			summary = &all.Franchises[i]
			break
		}
	}
	if summary == nil {
		return nil, fmt.Errorf("unknown franchise %q: %w", id, repository.ErrNotFound)
	}

	teams, err := s.history.ManagerTeams(ctx)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool)
	payload := &FranchiseDetailPayload{Summary: *summary, H2H: all.H2H[id]}
	for _, t := range teams {
		def := s.resolver.FranchiseFor(t.ManagerGUID, t.Season)
		if def == nil || def.ID != id {
			continue
		}
		owned[t.LeagueKey+"|"+t.TeamKey] = true
		line := SeasonLine{
			Season:    t.Season,
			LeagueKey: t.LeagueKey,
			TeamKey:   t.TeamKey,
			TeamName:  t.TeamName,
			Manager:   s.resolver.DisplayName(t.ManagerGUID, t.ManagerNickname),
		}
		if t.Finish.Valid {
			line.Finish = int(t.Finish.Int32)
		}
		if t.PlayoffSeed.Valid {
			line.PlayoffSeed = int(t.PlayoffSeed.Int32)
		}

		adds, trades, err := s.transactions.MoveCounts(ctx, t.LeagueKey)
		if err != nil {
			return nil, err
		}
		line.Adds = adds[t.TeamKey]
		line.Trades = trades[t.TeamKey]

		teamTrades, err := s.transactions.TradesForTeam(ctx, t.LeagueKey, t.TeamKey)
		if err != nil {
			return nil, err
		}
		for _, tr := range teamTrades {
			tl := TradeLine{
				Season:     t.Season,
				PlayerName: tr.PlayerName,
				Acquired:   tr.ToTeamKey.Valid && tr.ToTeamKey.String == t.TeamKey,
			}
			if tr.Week.Valid {
				tl.Week = int(tr.Week.Int32)
			}
			payload.Trades = append(payload.Trades, tl)
		}
		payload.Seasons = append(payload.Seasons, line)
	}
	sort.Slice(payload.Seasons, func(i, j int) bool {
		return payload.Seasons[i].Season > payload.Seasons[j].Season
	})
	sort.Slice(payload.Trades, func(i, j int) bool {
		if payload.Trades[i].Season != payload.Trades[j].Season {
			return payload.Trades[i].Season > payload.Trades[j].Season
		}
		return payload.Trades[i].PlayerName < payload.Trades[j].PlayerName
	})

	keepers, err := s.keepers.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range keepers {
		if !owned[k.LeagueKey+"|"+k.TeamKey] {
			continue
		}
		line := KeeperLine{
			Season:     k.Season,
			PlayerName: k.PlayerName,
			RoundCost:  k.RoundCost,
			Tenure:     1,
		}
		if k.KeptFromSeason.Valid {
			line.KeptSince = int(k.KeptFromSeason.Int32)
			line.Tenure = k.Season - line.KeptSince + 1
		}
		payload.Keepers = append(payload.Keepers, line)
	}
	sort.Slice(payload.Keepers, func(i, j int) bool {
		if payload.Keepers[i].Season != payload.Keepers[j].Season {
			return payload.Keepers[i].Season > payload.Keepers[j].Season
		}
		return payload.Keepers[i].PlayerName < payload.Keepers[j].PlayerName
	})
	return payload, nil
}

// LatestLeague returns the most recently synced league.
func (s *Service) LatestLeague(ctx context.Context) (*store.League, error) {
	return s.leagues.GetLatest(ctx)
}

// SeasonKeepers lists the derived keepers of one league.
func (s *Service) SeasonKeepers(ctx context.Context, leagueKey string) ([]*store.Keeper, error) {
	return s.keepers.BySeason(ctx, leagueKey)
}

// TeamCandidates is one team's keeper picture: the keepers it carried into
// the season and its end-of-season roster with the round cost each player
// would carry forward.
type TeamCandidates struct {
	TeamKey    string                     `json:"team_key"`
	TeamName   string                     `json:"team_name"`
	Manager    string                     `json:"manager"`
	Kept       []KeeperLine               `json:"kept,omitempty"`
	Candidates []repository.RosterCostRow `json:"candidates"`
}

// KeeperCandidatesPayload is the keeper planning view for one season.
type KeeperCandidatesPayload struct {
	LeagueKey string           `json:"league_key"`
	Week      int              `json:"week"`
	Teams     []TeamCandidates `json:"teams"`
}

// KeeperCandidates builds the keeper planning view from the last ingested
// roster week: who each team kept, and what keeping each current player
// would cost next season.
func (s *Service) KeeperCandidates(ctx context.Context, leagueKey string) (*KeeperCandidatesPayload, error) {
	week, err := s.players.MaxRosterWeek(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	if week == 0 {
		return nil, fmt.Errorf("no rosters synced for %s: %w", leagueKey, repository.ErrNotFound)
	}
	teams, err := s.teams.All(ctx, leagueKey)
	if err != nil {
		return nil, err
	}

	payload := &KeeperCandidatesPayload{LeagueKey: leagueKey, Week: week}
	for _, t := range teams {
		tc := TeamCandidates{
			TeamKey:  t.TeamKey,
			TeamName: t.Name,
			Manager:  s.resolver.DisplayName(t.ManagerGUID, t.ManagerNickname),
		}
		kept, err := s.keepers.ForTeam(ctx, leagueKey, t.TeamKey)
		if err != nil {
			return nil, err
		}
		for _, k := range kept {
			line := KeeperLine{
				Season:     k.Season,
				PlayerName: k.PlayerName,
				RoundCost:  k.RoundCost,
				Tenure:     1,
			}
			if k.KeptFromSeason.Valid {
				line.KeptSince = int(k.KeptFromSeason.Int32)
				line.Tenure = k.Season - line.KeptSince + 1
			}
			tc.Kept = append(tc.Kept, line)
		}
		tc.Candidates, err = s.players.RosterWithCosts(ctx, leagueKey, t.TeamKey, week)
		if err != nil {
			return nil, err
		}
		payload.Teams = append(payload.Teams, tc)
	}
	return payload, nil
}

// PlayerMatch is one fuzzy search hit.
type PlayerMatch struct {
	PlayerID string                       `json:"player_id"`
	Name     string                       `json:"name"`
	Seasons  []repository.PlayerSeasonRow `json:"seasons,omitempty"`
}

// SearchPlayers fuzzy-matches a query against every known player name and
// attaches season history to the hits.
func (s *Service) SearchPlayers(ctx context.Context, query string, limit int) ([]PlayerMatch, error) {
	names, err := s.players.AllPlayerNames(ctx)
	if err != nil {
		return nil, err
	}

	type hit struct {
		id, name string
		rank     int
	}
	var hits []hit
	for id, name := range names {
		if rank := fuzzy.RankMatchNormalizedFold(query, name); rank >= 0 {
			hits = append(hits, hit{id: id, name: name, rank: rank})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].name < hits[j].name
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]PlayerMatch, 0, len(hits))
	for _, h := range hits {
		seasons, err := s.players.PlayerSeasons(ctx, h.id)
		if err != nil {
			return nil, err
		}
		out = append(out, PlayerMatch{PlayerID: h.id, Name: h.name, Seasons: seasons})
	}
	return out, nil
}

// BracketRound is one playoff week's games.
type BracketRound struct {
	Week     int            `json:"week"`
	Matchups []RecapMatchup `json:"matchups"`
}

// PlayoffBracket groups a season's playoff matchups into rounds by week,
// consolation games excluded.
func (s *Service) PlayoffBracket(ctx context.Context, leagueKey string) ([]BracketRound, error) {
	playoffs, err := s.matchups.PlayoffMatchups(ctx, leagueKey)
	if err != nil {
		return nil, err
	}
	var weeks []int
	seen := make(map[int]bool)
	for _, m := range playoffs {
		if !seen[m.Week] {
			seen[m.Week] = true
			weeks = append(weeks, m.Week)
		}
	}
	sort.Ints(weeks)

	var rounds []BracketRound
	for _, week := range weeks {
		named, err := s.history.NamedWeekMatchups(ctx, leagueKey, week)
		if err != nil {
			return nil, err
		}
		round := BracketRound{Week: week}
		for _, nm := range named {
			if !nm.IsPlayoffs || nm.IsConsolation {
				continue
			}
			rm := RecapMatchup{
				MatchupID:  nm.MatchupID,
				Team1:      nm.TeamName1,
				Team2:      nm.TeamName2,
				Manager1:   nm.Manager1,
				Manager2:   nm.Manager2,
				CatsWon1:   nm.CatsWon1,
				CatsWon2:   nm.CatsWon2,
				CatsTied:   nm.CatsTied,
				IsTied:     nm.IsTied,
				IsPlayoffs: true,
			}
			if nm.WinnerTeamKey.Valid {
				if nm.WinnerTeamKey.String == nm.TeamKey1 {
					rm.Winner = nm.TeamName1
				} else {
					rm.Winner = nm.TeamName2
				}
			}
			round.Matchups = append(round.Matchups, rm)
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// managerNames builds a GUID to display-name resolver from stored teams.
func (s *Service) managerNames(ctx context.Context) (func(string) string, error) {
	teams, err := s.history.ManagerTeams(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for _, t := range teams {
		fallback := t.ManagerName
		if fallback == "" {
			fallback = t.ManagerNickname
		}
		names[t.ManagerGUID] = s.resolver.DisplayName(t.ManagerGUID, fallback)
	}
	return func(guid string) string { return names[guid] }, nil
}
