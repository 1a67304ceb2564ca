package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	baseURL  = "https://fantasysports.yahooapis.com/fantasy/v2"
	tokenURL = "https://api.login.yahoo.com/oauth2/get_token"

	maxAttempts = 3
	retryPause  = 2 * time.Second
)

// Source is the upstream read surface the sync pipeline consumes. The
// concrete Client implements it; tests substitute fixtures.
type Source interface {
	LeagueInfo(ctx context.Context, leagueKey string) (*LeagueInfo, error)
	LeagueSettings(ctx context.Context, leagueKey string) (*LeagueSettings, error)
	Teams(ctx context.Context, leagueKey string) ([]TeamInfo, error)
	Standings(ctx context.Context, leagueKey string) ([]StandingsEntry, error)
	Scoreboard(ctx context.Context, leagueKey string, week int) ([]MatchupInfo, error)
	Roster(ctx context.Context, teamKey string, week int) ([]RosterSlot, error)
	DraftResults(ctx context.Context, leagueKey string) ([]DraftResult, error)
	Transactions(ctx context.Context, leagueKey string) ([]TransactionInfo, error)
}

// Client talks to the fantasy API over OAuth2 refresh tokens.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	refreshToken string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Source = (*Client)(nil)

// NewClient creates an API client from OAuth credentials.
func NewClient(clientID, clientSecret, refreshToken string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {c.refreshToken},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// get fetches one resource path and returns the fantasy_content payload.
// Transient upstream failures (5xx and the provider's 999 throttle status)
// are retried with a fixed pause.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[yahoo] retrying %s (attempt %d/%d): %v", path, attempt, maxAttempts, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryPause):
			}
		}

		raw, retryable, err := c.fetch(ctx, path)
		if err == nil {
			return raw, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up on %s: %w", path, lastErr)
}

func (c *Client) fetch(ctx context.Context, path string) (json.RawMessage, bool, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, true, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+path+"?format=json", nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		// Force a refresh on the next attempt.
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
		return nil, true, fmt.Errorf("%s returned 401", path)
	case resp.StatusCode >= 500 || resp.StatusCode == 999:
		return nil, true, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, body)
	}

	var envelope struct {
		FantasyContent json.RawMessage `json:"fantasy_content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, true, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(envelope.FantasyContent) == 0 {
		return nil, false, fmt.Errorf("%s returned no content", path)
	}
	return envelope.FantasyContent, false, nil
}

// LeagueInfo fetches league metadata.
func (c *Client) LeagueInfo(ctx context.Context, leagueKey string) (*LeagueInfo, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey)
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	var info LeagueInfo
	if err := json.Unmarshal(merged, &info); err != nil {
		return nil, fmt.Errorf("parsing league info: %w", err)
	}
	return &info, nil
}

// LeagueSettings fetches scoring settings and stat categories.
func (c *Client) LeagueSettings(ctx context.Context, leagueKey string) (*LeagueSettings, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey+"/settings")
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	settingsRaw, err := subresource(merged, "settings")
	if err != nil {
		return nil, err
	}
	var wire settingsWire
	if err := json.Unmarshal(settingsRaw, &wire); err != nil {
		return nil, fmt.Errorf("parsing league settings: %w", err)
	}
	return wire.toSettings(), nil
}

// Teams fetches the teams of a league with manager identity.
func (c *Client) Teams(ctx context.Context, leagueKey string) ([]TeamInfo, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey+"/teams")
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	teamsRaw, err := subresource(merged, "teams")
	if err != nil {
		return nil, err
	}
	wires, err := decodeWrapped[teamWire](teamsRaw, "team")
	if err != nil {
		return nil, fmt.Errorf("parsing teams: %w", err)
	}
	teams := make([]TeamInfo, 0, len(wires))
	for _, w := range wires {
		teams = append(teams, w.toTeam())
	}
	return teams, nil
}

// Standings fetches final placements for a league.
func (c *Client) Standings(ctx context.Context, leagueKey string) ([]StandingsEntry, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey+"/standings")
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	standingsRaw, err := subresource(merged, "standings")
	if err != nil {
		return nil, err
	}
	teamsRaw, err := subresource(standingsRaw, "teams")
	if err != nil {
		return nil, err
	}
	wires, err := decodeWrapped[standingsWire](teamsRaw, "team")
	if err != nil {
		return nil, fmt.Errorf("parsing standings: %w", err)
	}
	entries := make([]StandingsEntry, 0, len(wires))
	for _, w := range wires {
		entries = append(entries, w.toEntry())
	}
	return entries, nil
}

// Scoreboard fetches one week's matchups with per-category team values.
func (c *Client) Scoreboard(ctx context.Context, leagueKey string, week int) ([]MatchupInfo, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/league/%s/scoreboard;week=%d", leagueKey, week))
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	scoreboardRaw, err := subresource(merged, "scoreboard")
	if err != nil {
		return nil, err
	}
	matchupsRaw, err := subresource(scoreboardRaw, "matchups")
	if err != nil {
		return nil, err
	}
	wires, err := decodeWrapped[matchupWire](matchupsRaw, "matchup")
	if err != nil {
		return nil, fmt.Errorf("parsing scoreboard: %w", err)
	}
	matchups := make([]MatchupInfo, 0, len(wires))
	for i := range wires {
		m, err := wires[i].toMatchup()
		if err != nil {
			return nil, err
		}
		matchups = append(matchups, m)
	}
	return matchups, nil
}

// Roster fetches one team's roster for one week with player stats.
func (c *Client) Roster(ctx context.Context, teamKey string, week int) ([]RosterSlot, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/team/%s/roster;week=%d/players/stats;type=week;week=%d",
		teamKey, week, week))
	if err != nil {
		return nil, err
	}
	teamRaw, err := mergeFragments(mustKey(raw, "team"))
	if err != nil {
		return nil, err
	}
	rosterRaw, err := subresource(teamRaw, "roster")
	if err != nil {
		return nil, err
	}
	playersRaw, err := subresource(rosterRaw, "players")
	if err != nil {
		return nil, err
	}
	wires, err := decodeWrapped[rosterPlayerWire](playersRaw, "player")
	if err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	slots := make([]RosterSlot, 0, len(wires))
	for i := range wires {
		s, err := wires[i].toSlot()
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// DraftResults fetches a season's draft in pick order.
func (c *Client) DraftResults(ctx context.Context, leagueKey string) ([]DraftResult, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey+"/draftresults")
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	resultsRaw, err := subresource(merged, "draft_results")
	if err != nil {
		return nil, err
	}
	results, err := decodeWrapped[DraftResult](resultsRaw, "draft_result")
	if err != nil {
		return nil, fmt.Errorf("parsing draft results: %w", err)
	}
	return results, nil
}

// Transactions fetches the full transaction log, newest first as the
// upstream delivers it.
func (c *Client) Transactions(ctx context.Context, leagueKey string) ([]TransactionInfo, error) {
	raw, err := c.get(ctx, "/league/"+leagueKey+"/transactions")
	if err != nil {
		return nil, err
	}
	merged, err := leaguePayload(raw)
	if err != nil {
		return nil, err
	}
	txnsRaw, err := subresource(merged, "transactions")
	if err != nil {
		return nil, err
	}
	wires, err := decodeWrapped[transactionWire](txnsRaw, "transaction")
	if err != nil {
		return nil, fmt.Errorf("parsing transactions: %w", err)
	}
	txns := make([]TransactionInfo, 0, len(wires))
	for i := range wires {
		t, err := wires[i].toTransaction()
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}
