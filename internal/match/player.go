package match

import (
	"strings"
)

// Player is a per-connection participant, owned exclusively by the
// Match it belongs to (spec.md §9: "Match is the sole owner of
// Players"). The Connection holds only the opaque Handle below, never
// a pointer back into the Match.
type Player struct {
	handle Handle
	sender Sender

	ID       int16
	Name     string
	Team     string
	Skin     int
	GameMode string
	IsDev    bool

	Dead    bool
	Win     bool
	Voted   bool
	Loaded  bool
	Lobbier bool

	Level, Zone uint8
	X, Y        float32

	LastUpdatePkt  []byte
	TrustCount     int
	Blocked        bool
	FlagBonusGiven bool

	ForceRenamed bool

	// wins/deaths/kills/coins deltas accrued this match, flushed to the
	// external account store on disconnect (spec.md §5 cancellation
	// semantics). Only non-lobby, non-private-match play accrues.
	WinsDelta   int
	DeathsDelta int
	KillsDelta  int
	CoinsDelta  int
}

// NewPlayer constructs a Player bound to a Sender, not yet admitted to
// any match (the Match assigns ID on AddPlayer).
func NewPlayer(sender Sender, name, team string, skin int, gameMode string, isDev bool) *Player {
	return &Player{
		sender:   sender,
		Name:     name,
		Team:     team,
		Skin:     skin,
		GameMode: gameMode,
		IsDev:    isDev,
	}
}

// Handle returns the opaque reference for this player within its
// match, valid only once AddPlayer has assigned an ID.
func (p *Player) Handle() Handle { return p.handle }

// Handle is an opaque, generation-counted reference a Connection keeps
// to find "its" Player inside a Match without holding a live pointer
// (spec.md §9 cyclic-reference note).
type Handle struct {
	MatchID int64
	ID      int16
}

// NormalizeName applies spec.md §3's Player.name rules: ASCII-only,
// uppercased, ≤20 chars, blank falls back to a configured default.
// Emoji stripping is approximated here as "drop any non-ASCII rune"
// since this module treats emoji demojizing as an external text
// transform applied before this boundary; what crosses this boundary
// is guaranteed printable ASCII.
func NormalizeName(raw, fallback string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		name = fallback
	}
	if len(name) > 20 {
		name = name[:20]
	}
	return strings.ToUpper(name)
}

// NormalizeTeam applies spec.md §3's team rule: ≤3 chars, matched in
// upper case, displayed in lower case. MatchKey is what equality
// comparisons use; Display is what broadcasts carry.
func NormalizeTeam(raw string) (matchKey, display string) {
	if len(raw) > 3 {
		raw = raw[:3]
	}
	return strings.ToUpper(raw), strings.ToLower(raw)
}
