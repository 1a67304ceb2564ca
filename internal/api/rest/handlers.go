package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fortuna/dynasty/internal/cache"
	"github.com/fortuna/dynasty/internal/config"
	"github.com/fortuna/dynasty/internal/scheduler"
	"github.com/fortuna/dynasty/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	registry *config.Registry
	orch     *scheduler.Orchestrator
	cache    *cache.RedisCache
}

// NewHandler creates a new handler
func NewHandler(registry *config.Registry, orch *scheduler.Orchestrator, rc *cache.RedisCache) *Handler {
	return &Handler{
		registry: registry,
		orch:     orch,
		cache:    rc,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":  "healthy",
		"service": "dynasty",
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["cache"] = err.Error()
		}
	}
	respondJSON(w, http.StatusOK, status)
}

// ListFranchises returns every configured franchise
func (h *Handler) ListFranchises(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Slug  string `json:"slug"`
		Name  string `json:"name"`
		Sport string `json:"sport"`
	}
	var out []entry
	for _, slug := range h.registry.Slugs() {
		f, err := h.registry.Get(slug)
		if err != nil {
			continue
		}
		out = append(out, entry{Slug: slug, Name: f.Name, Sport: f.Sport})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"franchises": out,
		"count":      len(out),
	})
}

// franchise resolves the {slug} path variable to a franchise runtime
func (h *Handler) franchise(w http.ResponseWriter, r *http.Request) (*scheduler.Franchise, bool) {
	slug := mux.Vars(r)["slug"]
	f, ok := h.orch.Franchise(slug)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown franchise", nil)
		return nil, false
	}
	return f, true
}

// leagueKey resolves the {season} path variable to a league key
func (h *Handler) leagueKey(w http.ResponseWriter, r *http.Request, f *scheduler.Franchise) (string, bool) {
	season, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return "", false
	}
	key := f.Config.LeagueKey(season)
	if key == "" {
		respondError(w, http.StatusNotFound, "Season not configured", nil)
		return "", false
	}
	return key, true
}

// GetSeasons returns every synced season for a franchise
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	seasons, err := f.Service.Seasons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch seasons", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"seasons": seasons,
		"count":   len(seasons),
	})
}

// GetStandings returns standings through a week (default: full season)
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	week := 0
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil || wk < 1 {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = wk
	}

	standings, err := f.Service.Standings(r.Context(), leagueKey, week)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute standings", err)
		return
	}

	respondJSON(w, http.StatusOK, standings)
}

// GetRecap returns the weekly recap (default: current week)
func (h *Handler) GetRecap(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	week := 0
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil || wk < 1 {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = wk
	}

	recap, err := f.Service.Recap(r.Context(), leagueKey, week)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Season not synced", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build recap", err)
		return
	}

	respondJSON(w, http.StatusOK, recap)
}

// GetPlayoffBracket returns the playoff rounds for a season
func (h *Handler) GetPlayoffBracket(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	rounds, err := f.Service.PlayoffBracket(r.Context(), leagueKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build bracket", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rounds": rounds,
		"count":  len(rounds),
	})
}

// GetPowerRankings returns per-team profiles through a week (default: current week)
func (h *Handler) GetPowerRankings(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	week := 0
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil || wk < 1 {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = wk
	}

	key := cache.Key(f.Slug, "teams", leagueKey, strconv.Itoa(week))
	if h.serveCached(w, r, key) {
		return
	}

	profiles, err := f.Service.PowerRankings(r.Context(), leagueKey, week)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Season not synced", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build team profiles", err)
		return
	}

	h.respondAndCache(w, r, key, profiles)
}

// GetPlayerValues returns z-score valuations for a season
func (h *Handler) GetPlayerValues(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	week := 0
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil || wk < 1 {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = wk
	}

	key := cache.Key(f.Slug, "values", leagueKey, strconv.Itoa(week))
	if h.serveCached(w, r, key) {
		return
	}

	values, err := f.Service.PlayerValues(r.Context(), leagueKey, week)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute values", err)
		return
	}

	h.respondAndCache(w, r, key, values)
}

// GetKeeperCandidates returns the keeper planning view for a season
func (h *Handler) GetKeeperCandidates(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	leagueKey, ok := h.leagueKey(w, r, f)
	if !ok {
		return
	}

	candidates, err := f.Service.KeeperCandidates(r.Context(), leagueKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Season not synced", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build keeper view", err)
		return
	}

	respondJSON(w, http.StatusOK, candidates)
}

// GetManagers returns career lines and the head-to-head matrix
func (h *Handler) GetManagers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	key := cache.Key(f.Slug, "managers")
	if h.serveCached(w, r, key) {
		return
	}

	managers, err := f.Service.Managers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute careers", err)
		return
	}

	h.respondAndCache(w, r, key, managers)
}

// GetUnknownManagers lists manager GUIDs that still need a display name
func (h *Handler) GetUnknownManagers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	guids, err := f.Service.UnknownManagers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch managers", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"guids": guids,
		"count": len(guids),
	})
}

// SaveManagers maps manager GUIDs to display names, updating both the
// franchise config and the stored team rows
func (h *Handler) SaveManagers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	var names map[string]config.Manager
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manager mapping", err)
		return
	}
	if len(names) == 0 {
		respondError(w, http.StatusBadRequest, "Empty manager mapping", nil)
		return
	}

	if err := h.registry.AddManagers(f.Slug, names); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save manager mapping", err)
		return
	}
	if err := f.Service.RenameManagers(r.Context(), names); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update team rows", err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context(), f.Slug); err != nil {
			log.Printf("[api] warn: invalidate cache for %s: %v", f.Slug, err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Managers saved",
		"count":   len(names),
	})
}

// GetRecords returns the all-time record book
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	key := cache.Key(f.Slug, "records")
	if h.serveCached(w, r, key) {
		return
	}

	records, err := f.Service.Records(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute records", err)
		return
	}

	h.respondAndCache(w, r, key, records)
}

// GetFranchises returns the persistent franchise summaries
func (h *Handler) GetFranchises(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	key := cache.Key(f.Slug, "franchises")
	if h.serveCached(w, r, key) {
		return
	}

	franchises, err := f.Service.Franchises(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute franchises", err)
		return
	}

	h.respondAndCache(w, r, key, franchises)
}

// GetFranchiseDetail returns one franchise's seasons, keepers, and h2h
func (h *Handler) GetFranchiseDetail(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}
	franchiseID := mux.Vars(r)["franchiseID"]

	detail, err := f.Service.FranchiseDetail(r.Context(), franchiseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Franchise not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to build franchise detail", err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// SearchPlayers fuzzy-searches player names across every season
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter 'q'", nil)
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	matches, err := f.Service.SearchPlayers(r.Context(), query, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// TriggerSync starts a background sync for a franchise
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	full := r.URL.Query().Get("full") == "1" || r.URL.Query().Get("full") == "true"

	if err := h.orch.TriggerSync(f.Slug, full); err != nil {
		if errors.Is(err, scheduler.ErrSyncRunning) {
			respondError(w, http.StatusConflict, "Sync already running", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start sync", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Sync started",
		"slug":    f.Slug,
		"full":    full,
	})
}

// GetSyncStatus returns the sync log for a season (default: latest)
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	f, ok := h.franchise(w, r)
	if !ok {
		return
	}

	var leagueKey string
	if seasonStr := r.URL.Query().Get("season"); seasonStr != "" {
		season, err := strconv.Atoi(seasonStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid season", err)
			return
		}
		leagueKey = f.Config.LeagueKey(season)
	} else if league, err := f.Service.LatestLeague(r.Context()); err == nil {
		leagueKey = league.LeagueKey
	} else if errors.Is(err, repository.ErrNotFound) {
		// Nothing synced yet; fall back to the configured latest season.
		leagueKey = f.Config.LeagueKey(f.Config.LatestSeason())
	} else {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync status", err)
		return
	}
	if leagueKey == "" {
		respondError(w, http.StatusNotFound, "Season not configured", nil)
		return
	}

	entries, err := f.Service.SyncStatus(r.Context(), leagueKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sync status", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league_key": leagueKey,
		"running":    h.orch.SyncInProgress(f.Slug),
		"units":      entries,
	})
}

// serveCached writes a cached payload if one exists
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil {
		return false
	}
	data, err := h.cache.Get(r.Context(), key)
	if err != nil {
		if !cache.IsMiss(err) {
			log.Printf("[api] warn: cache read %s: %v", key, err)
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "hit")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
	return true
}

// respondAndCache writes the payload and stores it for the next reader
func (h *Handler) respondAndCache(w http.ResponseWriter, r *http.Request, key string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode response", err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, body); err != nil {
			log.Printf("[api] warn: cache write %s: %v", key, err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
