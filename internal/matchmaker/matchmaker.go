// Package matchmaker implements spec.md §4.2's getMatch/removeMatch
// selection logic: an ordered scan over (mode, privacy, room,
// capacity) rather than a name-keyed lookup.
package matchmaker

import (
	"sync"
	"sync/atomic"

	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/match"
)

// Matchmaker owns the live match list behind a single mutex and hands
// out references via GetMatch.
type Matchmaker struct {
	mu      sync.Mutex
	matches []*match.Match
	nextID  int64

	playerCap int
	cfg       match.Config
	levels    match.LevelSource
	notifier  match.Notifier
	stats     match.StatSink
	log       *logging.Logger
}

func New(playerCap int, cfg match.Config, levels match.LevelSource, notifier match.Notifier, stats match.StatSink, log *logging.Logger) *Matchmaker {
	return &Matchmaker{
		playerCap: playerCap,
		cfg:       cfg,
		levels:    levels,
		notifier:  notifier,
		stats:     stats,
		log:       log,
	}
}

// GetMatch implements spec.md §4.2's getMatch(roomName, private,
// gameMode).
func (mm *Matchmaker) GetMatch(roomName string, private bool, gameMode match.GameMode) *match.Match {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if private && roomName == "" {
		return mm.newMatchLocked(roomName, private, gameMode)
	}

	for _, m := range mm.matches {
		if mm.joinable(m, roomName, private, gameMode) {
			return m
		}
	}

	return mm.newMatchLocked(roomName, private, gameMode)
}

func (mm *Matchmaker) joinable(m *match.Match, roomName string, private bool, gameMode match.GameMode) bool {
	if m.GameMode != gameMode || m.Private != private {
		return false
	}
	if private && m.RoomName != roomName {
		return false
	}
	return m.Joinable(mm.playerCap)
}

func (mm *Matchmaker) newMatchLocked(roomName string, private bool, gameMode match.GameMode) *match.Match {
	id := atomic.AddInt64(&mm.nextID, 1)
	m := match.New(id, roomName, private, gameMode, mm.cfg, mm.levels, mm.notifier, mm.stats, mm.log, mm.removeMatch)
	mm.matches = append(mm.matches, m)
	return m
}

// removeMatch runs when a match empties (spec.md §4.2), shutting down
// its owning goroutine and dropping it from the live list.
func (mm *Matchmaker) removeMatch(m *match.Match) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for i, cand := range mm.matches {
		if cand == m {
			mm.matches = append(mm.matches[:i], mm.matches[i+1:]...)
			break
		}
	}
	m.Shutdown()
}

// Count returns the number of live matches, used by /healthz.
func (mm *Matchmaker) Count() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.matches)
}

// Get looks up a live match by id (e.g. a Connection's Handle.MatchID).
// The dispatcher does not call it; its sessions hold the match directly.
func (mm *Matchmaker) Get(id int64) (*match.Match, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for _, m := range mm.matches {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// TotalPlayers sums PlayerCount across every live match, used by the
// shutdown drain to decide when zero players remain (spec.md §7).
func (mm *Matchmaker) TotalPlayers() int {
	mm.mu.Lock()
	matches := append([]*match.Match(nil), mm.matches...)
	mm.mu.Unlock()

	n := 0
	for _, m := range matches {
		n += m.PlayerCount()
	}
	return n
}

// BroadcastAll sends a hurry-up warning of the given seconds to every
// loaded player of every live match, used during shutdown drain.
func (mm *Matchmaker) BroadcastAll(seconds int) {
	mm.mu.Lock()
	matches := append([]*match.Match(nil), mm.matches...)
	mm.mu.Unlock()

	for _, m := range matches {
		m.HurryUp(seconds)
	}
}
