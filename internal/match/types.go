package match

import "github.com/Seednode/royaleserver/internal/world"

// LZ is a (level, zone) key, mirroring spec.md §3's tiles[w][z] /
// objects[w][z] indexing.
type LZ struct {
	Level, Zone uint8
}

// Config is the subset of server.cfg [Match] keys a Match needs.
type Config struct {
	PlayerMin                     int
	PlayerCap                     int
	AutoStartTimeSeconds          int
	StartTimerSeconds             int
	EnableAutoStartInMultiPrivate bool
	EnableVoteStart               bool
	VoteRateToStart               float64
	AllowLateEnter                bool

	CoinRewardFlagpole int
	CoinRewardPodium1  int
	CoinRewardPodium2  int
	CoinRewardPodium3  int

	DefaultName string
	DefaultTeam string
}

// LevelSource resolves catalog/random levels. The actual level file
// loader and its JSON-schema validator are external collaborators
// (spec.md §1 "Deliberately out of scope") — this is the interface the
// core calls into.
type LevelSource interface {
	GetLevel(id string) (*world.Data, error)
	GetRandomLevel(levelMode string) (*world.Data, error)
	ValidateCustom(blob []byte) error
}

// Notifier posts fire-and-forget notifications (spec.md §4.3 "Position
// 1 in a non-private match posts a Discord notification
// (fire-and-forget; failures are swallowed)").
type Notifier interface {
	NotifyPodiumWin(roomLabel, winnerName string)
}

// StatSink receives flushed per-player stat deltas on disconnect
// (spec.md §5 cancellation semantics). The account store is the real
// external collaborator; this interface is all the match engine needs
// of it.
type StatSink interface {
	FlushPlayerStats(username string, winsDelta, deathsDelta, killsDelta, coinsDelta int, isBanned bool, renamedNickname, squad string)
}
