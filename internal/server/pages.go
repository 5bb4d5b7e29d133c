package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/royaleserver/internal/account"
)

// securityHeaders sets a baseline set of defensive response headers,
// applied to every plain-HTTP response (the WS upgrade itself
// carries no response body to decorate).
func securityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")
}

// leaderboardCache holds the last account.Leaderboard query, refreshed
// on the 60s cadence spec.md §4.6 names alongside the 5s maintenance
// loop, so a page hit never blocks on the account store directly.
type leaderboardCache struct {
	mu      sync.RWMutex
	entries []account.Account
}

func (c *leaderboardCache) set(entries []account.Account) {
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

func (c *leaderboardCache) get() []account.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries
}

// pollLeaderboard refreshes the cache every 60s; a nil account store
// (no MySQL configured) leaves the cache permanently empty.
func (s *Server) pollLeaderboard(ctx context.Context) {
	if s.accounts == nil {
		return
	}
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	refresh := func() {
		qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		entries, err := s.accounts.Leaderboard(qctx, 100)
		if err != nil {
			s.log.Debugf("server: refreshing leaderboard: %v", err)
			return
		}
		s.leaderboard.set(entries)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(s.leaderboard.get())
}

// serveStatus reports live match/player counts. The MCode query
// parameter, when configured, additionally unlocks the draining flag
// in the response — otherwise drain state is withheld from the public
// view.
func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	body := struct {
		Matches int  `json:"matches"`
		Players int  `json:"players"`
		Draining *bool `json:"draining,omitempty"`
	}{
		Matches: s.matches.Count(),
		Players: s.matches.TotalPlayers(),
	}

	if s.cfg.MCode != "" && r.URL.Query().Get("code") == s.cfg.MCode {
		draining := s.draining
		body.Draining = &draining
	}

	json.NewEncoder(w).Encode(body)
}

// serveAssetsMetadata serves the static assets.json manifest clients
// use to resolve skin/tile art, read fresh off disk on every request
// since it changes only on deploy.
func (s *Server) serveAssetsMetadata(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	securityHeaders(w)
	data, err := os.ReadFile(s.cfg.AssetsMetadataPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}
