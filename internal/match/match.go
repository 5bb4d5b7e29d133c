// Package match implements the match lifecycle engine, world-event
// authority, and broadcast discipline of spec.md §4.3-§4.5.
//
// Concurrency model (spec.md §5): each Match owns a single goroutine
// that drains an "actions" channel of closures. Every exported method
// below enqueues a closure and — where a result is needed — waits on a
// private reply channel, so from the outside a Match looks like a
// plain synchronized object, while internally all state mutation runs
// on one owning goroutine draining a single closure queue rather than
// a fixed set of typed channels.
package match

import (
	"time"

	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/protocol"
	"github.com/Seednode/royaleserver/internal/world"
)

type GameMode string

const (
	ModeRoyale GameMode = "royale"
	ModePVP    GameMode = "pvp"
	ModeHell   GameMode = "hell"
)

// LevelMode resolves spec.md §3's "levelMode = gameMode with pvp ->
// royale".
func (m GameMode) LevelMode() GameMode {
	if m == ModePVP {
		return ModeRoyale
	}
	return m
}

// Match is a single game instance (spec.md GLOSSARY).
type Match struct {
	ID       int64
	RoomName string
	Private  bool
	GameMode GameMode

	IsLobby bool
	Playing bool
	Closed  bool

	players []*Player
	lastID  int16

	Votes   int
	Winners int

	WorldID string
	Data    *world.Data

	AllCoins map[LZ]map[uint32]bool
	Coins    map[LZ]map[uint32]bool
	Powerups map[uint32]world.PowerupSpawn

	GoldFlowerTaken bool

	ForceLevelID  string // "" = random selection
	CustomLevel   []byte
	customLevelOn bool

	cfg      Config
	levels   LevelSource
	notifier Notifier
	stats    StatSink
	log      *logging.Logger

	onEmpty func(*Match)

	actions chan func()
	stop    chan struct{}

	autoStartTimer *time.Timer
	tickStop       chan struct{}
	countdownGen   int
}

// New constructs a Match and starts its owning goroutine.
func New(id int64, roomName string, private bool, mode GameMode, cfg Config, levels LevelSource, notifier Notifier, stats StatSink, log *logging.Logger, onEmpty func(*Match)) *Match {
	m := &Match{
		ID:       id,
		RoomName: roomName,
		Private:  private,
		GameMode: mode,
		IsLobby:  true,
		AllCoins: make(map[LZ]map[uint32]bool),
		Coins:    make(map[LZ]map[uint32]bool),
		Powerups: make(map[uint32]world.PowerupSpawn),
		cfg:      cfg,
		levels:   levels,
		notifier: notifier,
		stats:    stats,
		log:      log,
		onEmpty:  onEmpty,
		actions:  make(chan func(), 64),
		stop:     make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Match) run() {
	for {
		select {
		case fn := <-m.actions:
			fn()
		case <-m.stop:
			return
		}
	}
}

// do enqueues fn to run on the owning goroutine and blocks until it
// has executed.
func (m *Match) do(fn func()) {
	done := make(chan struct{})
	select {
	case m.actions <- func() { fn(); close(done) }:
		<-done
	case <-m.stop:
	}
}

// Shutdown stops the owning goroutine; used by the matchmaker when a
// match is fully reaped.
func (m *Match) Shutdown() {
	close(m.stop)
}

// PlayerCount returns the current player count (thread-safe).
func (m *Match) PlayerCount() int {
	n := 0
	m.do(func() { n = len(m.players) })
	return n
}

// Joinable mirrors the matchmaker's "when allowLateEnter is false,
// not yet playing" joinability rule (spec.md §4.2), exposed so the
// matchmaker can filter without reaching into internals.
func (m *Match) Joinable(cap int) bool {
	ok := false
	m.do(func() {
		ok = !m.Closed && len(m.players) < cap && (m.cfg.AllowLateEnter || !m.Playing)
	})
	return ok
}

func (m *Match) broadcastStart() bool {
	private := m.Private
	named := m.RoomName != ""
	return !private || (named && m.cfg.EnableAutoStartInMultiPrivate)
}

func (m *Match) effectivePlayerMin() int {
	if m.Private && m.RoomName == "" {
		return 1
	}
	return m.cfg.PlayerMin
}

// broadcast sends v as JSON to every loaded player, optionally skipping
// one player id (spec.md §4.5).
func (m *Match) broadcast(v any, ignoreID int16) {
	for _, p := range m.players {
		if !p.Loaded || p.ID == ignoreID {
			continue
		}
		p.sender.SendJSON(v)
	}
}

func (m *Match) broadcastBinary(b []byte, ignoreID int16) {
	for _, p := range m.players {
		if !p.Loaded || p.ID == ignoreID {
			continue
		}
		p.sender.SendBinary(b)
	}
}

// broadPlayerUpdate restricts fan-out to winners or players sharing
// (level, zone) with the sender (spec.md §4.5: "zone-scoped
// visibility").
func (m *Match) broadPlayerUpdate(b []byte, sender *Player) {
	for _, p := range m.players {
		if !p.Loaded || p == sender {
			continue
		}
		if p.Win || (p.Level == sender.Level && p.Zone == sender.Zone) {
			p.sender.SendBinary(b)
		}
	}
}

func (m *Match) playerListMessage() protocol.G12PlayerList {
	out := protocol.G12PlayerList{Type: "g12", Players: make([]protocol.PlayerInfo, 0, len(m.players))}
	for _, p := range m.players {
		out.Players = append(out.Players, protocol.PlayerInfo{
			ID: p.ID, Name: p.Name, Team: p.Team, Skin: p.Skin, IsDev: p.IsDev, Winner: p.Win,
		})
	}
	return out
}

// broadcastPlayerList rebroadcasts the player list unless the match is
// closed (spec.md §4.3: "while closed, player-list broadcasts are
// suppressed").
func (m *Match) broadcastPlayerList() {
	if m.Closed {
		return
	}
	m.broadcast(m.playerListMessage(), 0)
}

func (m *Match) zoneKey(level, zone uint8) LZ { return LZ{level, zone} }

// broadcastZone restricts fan-out to winners or players co-located in
// (level, zone), independent of any particular sender's tracked
// position (spec.md §4.4: object/tile events rebroadcast "to
// co-located players").
func (m *Match) broadcastZone(b []byte, level, zone uint8, excludeID int16) {
	for _, p := range m.players {
		if !p.Loaded || p.ID == excludeID {
			continue
		}
		if p.Win || (p.Level == level && p.Zone == zone) {
			p.sender.SendBinary(b)
		}
	}
}

// HurryUp broadcasts a server-shutdown warning to every loaded player
// (spec.md §7: "broadcast a hurry-up warning" during the drain window).
func (m *Match) HurryUp(seconds int) {
	m.do(func() {
		m.broadcast(protocol.GHUHurryUp{Type: "ghu", Seconds: seconds}, 0)
	})
}
