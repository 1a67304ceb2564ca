package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fortuna/dynasty/internal/analytics"
	"github.com/fortuna/dynasty/internal/cache"
	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/store"
	syncer "github.com/fortuna/dynasty/internal/sync"
)

// ErrSyncRunning is returned when a franchise already has a sync in flight
var ErrSyncRunning = errors.New("sync already running for franchise")

// Franchise bundles one league's runtime pieces
type Franchise struct {
	Slug     string
	Config   *config.Franchise
	DB       *store.Database
	Pipeline *syncer.Pipeline
	Service  *analytics.Service
}

// Orchestrator owns the nightly sync schedule and manual sync triggers.
// At most one sync runs per franchise at a time.
type Orchestrator struct {
	cache      *cache.RedisCache
	franchises map[string]*Franchise
	cronExpr   string
	scheduler  gocron.Scheduler

	mu      sync.Mutex
	running map[string]bool
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(franchises map[string]*Franchise, rc *cache.RedisCache, cronExpr string) *Orchestrator {
	return &Orchestrator{
		cache:      rc,
		franchises: franchises,
		cronExpr:   cronExpr,
		running:    make(map[string]bool),
	}
}

// Start registers the nightly incremental sync job and begins the schedule
func (o *Orchestrator) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	o.scheduler = s

	_, err = s.NewJob(
		gocron.CronJob(o.cronExpr, false),
		gocron.NewTask(func() {
			for slug := range o.franchises {
				if err := o.runSync(ctx, slug, false); err != nil {
					log.Printf("[scheduler] nightly sync %s: %v", slug, err)
				}
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("register sync job: %w", err)
	}

	s.Start()
	log.Printf("[scheduler] nightly sync scheduled (%s) for %d franchises", o.cronExpr, len(o.franchises))
	return nil
}

// Stop winds down the schedule. In-flight syncs finish on their own.
func (o *Orchestrator) Stop() {
	if o.scheduler != nil {
		if err := o.scheduler.Shutdown(); err != nil {
			log.Printf("[scheduler] shutdown: %v", err)
		}
	}
}

// TriggerSync starts a sync for one franchise in the background. A full
// sync replays every season; otherwise only the latest season refreshes.
func (o *Orchestrator) TriggerSync(slug string, full bool) error {
	f, ok := o.franchises[slug]
	if !ok {
		return fmt.Errorf("unknown franchise %q", slug)
	}

	o.mu.Lock()
	if o.running[slug] {
		o.mu.Unlock()
		return ErrSyncRunning
	}
	o.running[slug] = true
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			o.running[slug] = false
			o.mu.Unlock()
		}()
		if err := o.sync(context.Background(), f, full); err != nil {
			log.Printf("[scheduler] manual sync %s: %v", slug, err)
		}
	}()
	return nil
}

// Franchise looks up one franchise runtime by slug
func (o *Orchestrator) Franchise(slug string) (*Franchise, bool) {
	f, ok := o.franchises[slug]
	return f, ok
}

// SyncInProgress reports whether a sync is running for slug
func (o *Orchestrator) SyncInProgress(slug string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[slug]
}

// runSync is the scheduled path: it respects the per-franchise lock
// without spawning a goroutine.
func (o *Orchestrator) runSync(ctx context.Context, slug string, full bool) error {
	f := o.franchises[slug]

	o.mu.Lock()
	if o.running[slug] {
		o.mu.Unlock()
		return ErrSyncRunning
	}
	o.running[slug] = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running[slug] = false
		o.mu.Unlock()
	}()
	return o.sync(ctx, f, full)
}

func (o *Orchestrator) sync(ctx context.Context, f *Franchise, full bool) error {
	start := time.Now()
	log.Printf("[scheduler] sync %s starting (full=%v)", f.Slug, full)

	if full {
		if err := f.Pipeline.SyncAll(ctx); err != nil {
			return err
		}
		for _, season := range f.Config.SeasonList() {
			if err := f.Pipeline.SyncKeepers(ctx, season); err != nil {
				return err
			}
		}
	} else {
		if err := f.Pipeline.SyncIncremental(ctx); err != nil {
			return err
		}
		if season := f.Config.LatestSeason(); season != 0 {
			if err := f.Pipeline.SyncKeepers(ctx, season); err != nil {
				return err
			}
		}
	}

	if o.cache != nil {
		if err := o.cache.Invalidate(ctx, f.Slug); err != nil {
			log.Printf("[scheduler] warn: invalidate cache for %s: %v", f.Slug, err)
		}
	}
	log.Printf("[scheduler] sync %s complete in %v", f.Slug, time.Since(start).Round(time.Second))
	return nil
}
