package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager is one known manager identity.
type Manager struct {
	Name      string `yaml:"name" json:"name"`
	ShortName string `yaml:"short_name,omitempty" json:"short_name,omitempty"`
}

// OwnershipInterval assigns a franchise to a manager GUID for a season
// range. A zero To means the interval is still open.
type OwnershipInterval struct {
	GUID string `yaml:"guid" json:"guid"`
	From int    `yaml:"from" json:"from"`
	To   int    `yaml:"to,omitempty" json:"to,omitempty"`
}

// Contains reports whether the interval covers a season.
func (i OwnershipInterval) Contains(season int) bool {
	if season < i.From {
		return false
	}
	return i.To == 0 || season <= i.To
}

// FranchiseDef is one persistent franchise, the continuity unit that
// survives manager turnover.
type FranchiseDef struct {
	ID        string              `yaml:"id" json:"id"`
	Name      string              `yaml:"name" json:"name"`
	Intervals []OwnershipInterval `yaml:"intervals" json:"intervals"`
}

// Franchise is one configured league lineage spanning many seasons.
type Franchise struct {
	Slug           string             `yaml:"-" json:"slug"`
	Name           string             `yaml:"name" json:"name"`
	Sport          string             `yaml:"sport" json:"sport"`
	KeepersPerTeam int                `yaml:"keepers_per_team" json:"keepers_per_team"`
	Seasons        map[int]string     `yaml:"seasons" json:"seasons"`
	Managers       map[string]Manager `yaml:"managers" json:"-"`
	FormerManagers map[string]Manager `yaml:"former_managers,omitempty" json:"-"`
	Franchises     []FranchiseDef     `yaml:"franchises,omitempty" json:"-"`
}

// LeagueKey returns the source league key for one season, or "" when the
// season is not configured.
func (f *Franchise) LeagueKey(season int) string {
	return f.Seasons[season]
}

// SeasonList returns the configured seasons, most recent first.
func (f *Franchise) SeasonList() []int {
	seasons := make([]int, 0, len(f.Seasons))
	for s := range f.Seasons {
		seasons = append(seasons, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(seasons)))
	return seasons
}

// LatestSeason returns the most recent configured season, or 0.
func (f *Franchise) LatestSeason() int {
	seasons := f.SeasonList()
	if len(seasons) == 0 {
		return 0
	}
	return seasons[0]
}

// ManagerName resolves a GUID to a display name, checking active managers
// before former ones. Returns "" for unknown GUIDs.
func (f *Franchise) ManagerName(guid string) string {
	if m, ok := f.Managers[guid]; ok {
		return m.Name
	}
	if m, ok := f.FormerManagers[guid]; ok {
		return m.Name
	}
	return ""
}

// FranchiseFor resolves a (GUID, season) to its franchise definition. The
// first interval that covers the season wins. Returns nil when no franchise
// claims the pairing.
func (f *Franchise) FranchiseFor(guid string, season int) *FranchiseDef {
	for i := range f.Franchises {
		def := &f.Franchises[i]
		for _, iv := range def.Intervals {
			if iv.GUID == guid && iv.Contains(season) {
				return def
			}
		}
	}
	return nil
}

type registryFile struct {
	Default    string                `yaml:"default"`
	Franchises map[string]*Franchise `yaml:"franchises"`
}

// Registry holds every configured franchise, keyed by slug. Safe for
// concurrent readers; AddManagers takes the write lock.
type Registry struct {
	mu         sync.RWMutex
	path       string
	defaultFra string
	franchises map[string]*Franchise
}

// LoadRegistry parses the franchise YAML file at path.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading franchise config: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing franchise config: %w", err)
	}
	if len(file.Franchises) == 0 {
		return nil, fmt.Errorf("franchise config %s defines no franchises", path)
	}
	for slug, f := range file.Franchises {
		f.Slug = slug
		if f.KeepersPerTeam == 0 {
			f.KeepersPerTeam = 3
		}
	}
	if file.Default == "" {
		for slug := range file.Franchises {
			file.Default = slug
			break
		}
	}
	if _, ok := file.Franchises[file.Default]; !ok {
		return nil, fmt.Errorf("default franchise %q is not defined", file.Default)
	}

	return &Registry{
		path:       path,
		defaultFra: file.Default,
		franchises: file.Franchises,
	}, nil
}

// Get returns the franchise for a slug.
func (r *Registry) Get(slug string) (*Franchise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.franchises[slug]
	if !ok {
		return nil, fmt.Errorf("unknown franchise %q", slug)
	}
	return f, nil
}

// Default returns the default franchise.
func (r *Registry) Default() *Franchise {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.franchises[r.defaultFra]
}

// Slugs returns every configured slug, default first, rest sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rest := make([]string, 0, len(r.franchises))
	for slug := range r.franchises {
		if slug != r.defaultFra {
			rest = append(rest, slug)
		}
	}
	sort.Strings(rest)
	return append([]string{r.defaultFra}, rest...)
}

// AddManagers merges newly resolved manager names into a franchise and
// persists the registry back to disk.
func (r *Registry) AddManagers(slug string, managers map[string]Manager) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.franchises[slug]
	if !ok {
		return fmt.Errorf("unknown franchise %q", slug)
	}
	if f.Managers == nil {
		f.Managers = make(map[string]Manager)
	}
	for guid, m := range managers {
		f.Managers[guid] = m
	}

	out, err := yaml.Marshal(registryFile{
		Default:    r.defaultFra,
		Franchises: r.franchises,
	})
	if err != nil {
		return fmt.Errorf("marshaling franchise config: %w", err)
	}
	if err := os.WriteFile(r.path, out, 0o644); err != nil {
		return fmt.Errorf("writing franchise config: %w", err)
	}
	return nil
}
