package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fortuna/dynasty/internal/analytics"
	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/store"
	syncer "github.com/fortuna/dynasty/internal/sync"
	"github.com/fortuna/dynasty/internal/yahoo"
)

const appName = "dynastyctl"

func main() {
	var (
		slug   = flag.String("slug", "", "Franchise slug (default: first configured)")
		season = flag.Int("season", 0, "Season year (default: latest configured)")
		week   = flag.Int("week", 0, "Week for standings (default: full season)")
		full   = flag.Bool("full", false, "Full sync: replay every season")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	registry, err := config.LoadRegistry(cfg.FranchisesPath)
	if err != nil {
		log.Fatalf("load franchises from %s: %v", cfg.FranchisesPath, err)
	}

	if command == "franchises" {
		listFranchises(registry)
		return
	}

	fc := registry.Default()
	if *slug != "" {
		fc, err = registry.Get(*slug)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	dsn, err := store.DSNForSlug(cfg.DatabaseURL, fc.Slug)
	if err != nil {
		log.Fatalf("build DSN: %v", err)
	}
	db, err := store.NewDatabase(dsn, fc.Slug)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx := context.Background()
	service := analytics.NewService(db, fc)

	switch command {
	case "sync":
		source := yahoo.NewClient(cfg.YahooClientID, cfg.YahooClientSecret, cfg.YahooRefreshToken)
		pipeline := syncer.NewPipeline(db, source, fc, cfg.SyncDelay, nil)
		runSync(ctx, pipeline, fc, *season, *full)
	case "keepers":
		source := yahoo.NewClient(cfg.YahooClientID, cfg.YahooClientSecret, cfg.YahooRefreshToken)
		pipeline := syncer.NewPipeline(db, source, fc, cfg.SyncDelay, nil)
		runKeepers(ctx, pipeline, service, fc, *season)
	case "standings":
		printStandings(ctx, service, fc, *season, *week)
	case "managers":
		printManagers(ctx, service)
	case "records":
		printRecords(ctx, service)
	case "status":
		printStatus(ctx, service, fc, *season)
	default:
		log.Fatalf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [flags] <command>

Commands:
  franchises   List configured franchises
  sync         Sync the latest season (-full replays every season)
  keepers      Detect keepers for a season (-season, default latest)
  standings    Print standings (-season, -week)
  managers     Print career lines for every manager
  records      Print the all-time record book
  status       Print the sync log for a season

Flags:
`, appName)
	flag.PrintDefaults()
}

func listFranchises(registry *config.Registry) {
	for _, slug := range registry.Slugs() {
		f, err := registry.Get(slug)
		if err != nil {
			continue
		}
		seasons := f.SeasonList()
		fmt.Printf("%-16s %s (%s, %d seasons)\n", slug, f.Name, f.Sport, len(seasons))
	}
}

func runSync(ctx context.Context, pipeline *syncer.Pipeline, fc *config.Franchise, season int, full bool) {
	var err error
	switch {
	case season != 0:
		err = pipeline.SyncSeason(ctx, season)
	case full:
		err = pipeline.SyncAll(ctx)
	default:
		err = pipeline.SyncIncremental(ctx)
	}
	if err != nil {
		log.Fatalf("sync %s: %v", fc.Slug, err)
	}
	log.Printf("✓ Sync complete for %s", fc.Slug)
}

func runKeepers(ctx context.Context, pipeline *syncer.Pipeline, service *analytics.Service, fc *config.Franchise, season int) {
	seasons := []int{season}
	if season == 0 {
		seasons = fc.SeasonList()
	}
	for _, s := range seasons {
		if err := pipeline.SyncKeepers(ctx, s); err != nil {
			log.Fatalf("keepers %d: %v", s, err)
		}
	}
	log.Printf("✓ Keepers synced for %s", fc.Slug)

	for _, s := range seasons {
		keepers, err := service.SeasonKeepers(ctx, fc.LeagueKey(s))
		if err != nil {
			log.Fatalf("list keepers %d: %v", s, err)
		}
		if len(keepers) == 0 {
			continue
		}
		fmt.Printf("\n%d keepers:\n", s)
		for _, k := range keepers {
			since := ""
			if k.KeptFromSeason.Valid && int(k.KeptFromSeason.Int32) < k.Season {
				since = fmt.Sprintf(" (since %d)", k.KeptFromSeason.Int32)
			}
			fmt.Printf("  %-14s round %2d  %s%s\n", k.TeamKey, k.RoundCost, k.PlayerName, since)
		}
	}
}

func printStandings(ctx context.Context, service *analytics.Service, fc *config.Franchise, season, week int) {
	if season == 0 {
		season = fc.LatestSeason()
	}
	leagueKey := fc.LeagueKey(season)
	if leagueKey == "" {
		log.Fatalf("season %d is not configured for %s", season, fc.Slug)
	}

	standings, err := service.Standings(ctx, leagueKey, week)
	if err != nil {
		log.Fatalf("standings: %v", err)
	}

	fmt.Printf("%s %d standings\n", fc.Name, season)
	fmt.Printf("%-4s %-24s %-16s %5s %5s %5s %7s %6s\n", "#", "Team", "Manager", "W", "L", "T", "Pct", "GB")
	for _, row := range standings {
		fmt.Printf("%-4d %-24s %-16s %5d %5d %5d %7.3f %6.1f\n",
			row.Rank, row.TeamName, row.Manager, row.Wins, row.Losses, row.Ties, row.WinPct, row.GamesBack)
	}
}

func printManagers(ctx context.Context, service *analytics.Service) {
	payload, err := service.Managers(ctx)
	if err != nil {
		log.Fatalf("managers: %v", err)
	}

	fmt.Printf("%-20s %4s %5s %5s %5s %7s %7s %6s %6s\n", "Manager", "Szn", "W", "L", "T", "Pct", "Po W-L", "Chips", "2nds")
	for _, c := range payload.Careers {
		fmt.Printf("%-20s %4d %5d %5d %5d %7.3f %3d-%-3d %6d %6d\n",
			c.Name, c.Seasons, c.Wins, c.Losses, c.Ties, c.WinPct, c.PlayoffWins, c.PlayoffLosses, c.Championships, c.RunnerUps)
	}
}

func printRecords(ctx context.Context, service *analytics.Service) {
	records, err := service.Records(ctx)
	if err != nil {
		log.Fatalf("records: %v", err)
	}

	fmt.Println("Category records:")
	for _, rec := range records.Categories {
		fmt.Printf("  %-24s %-10s %s (%d week %d)\n",
			rec.DisplayName, rec.RawValue, rec.Manager, rec.Season, rec.Week)
	}
	fmt.Printf("Longest win streak:      %d (%s)\n", records.Streaks.Win.Length, records.Streaks.Win.Manager)
	fmt.Printf("Longest losing streak:   %d (%s)\n", records.Streaks.Loss.Length, records.Streaks.Loss.Manager)
	fmt.Printf("Longest unbeaten streak: %d (%s)\n", records.Streaks.Unbeaten.Length, records.Streaks.Unbeaten.Manager)
	if records.Blowout != nil {
		fmt.Printf("Biggest blowout:  %s %d, %s %d (%d week %d)\n",
			records.Blowout.Manager1, records.Blowout.CatsWon1, records.Blowout.Manager2, records.Blowout.CatsWon2,
			records.Blowout.Season, records.Blowout.Week)
	}
	if records.Nailbiter != nil {
		fmt.Printf("Closest matchup:  %s %d, %s %d (%d week %d)\n",
			records.Nailbiter.Manager1, records.Nailbiter.CatsWon1, records.Nailbiter.Manager2, records.Nailbiter.CatsWon2,
			records.Nailbiter.Season, records.Nailbiter.Week)
	}
}

func printStatus(ctx context.Context, service *analytics.Service, fc *config.Franchise, season int) {
	if season == 0 {
		season = fc.LatestSeason()
	}
	leagueKey := fc.LeagueKey(season)
	if leagueKey == "" {
		log.Fatalf("season %d is not configured for %s", season, fc.Slug)
	}

	entries, err := service.SyncStatus(ctx, leagueKey)
	if err != nil {
		log.Fatalf("sync status: %v", err)
	}
	if len(entries) == 0 {
		fmt.Printf("no sync history for %s\n", leagueKey)
		return
	}

	fmt.Printf("%-14s %5s %-10s %8s  %s\n", "Unit", "Week", "Status", "Records", "Error")
	for _, e := range entries {
		fmt.Printf("%-14s %5d %-10s %8d  %s\n", e.SyncType, e.Week, e.Status, e.RecordsWritten, e.ErrorMessage)
	}
}
