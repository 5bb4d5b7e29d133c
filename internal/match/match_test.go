package match

import (
	"sync"
	"testing"
	"time"

	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/world"
)

type fakeSender struct {
	mu      sync.Mutex
	json    []any
	binary  [][]byte
	closed  bool
}

func (f *fakeSender) SendJSON(v any)   { f.mu.Lock(); defer f.mu.Unlock(); f.json = append(f.json, v) }
func (f *fakeSender) SendBinary(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binary = append(f.binary, b)
}
func (f *fakeSender) Close() { f.mu.Lock(); defer f.mu.Unlock(); f.closed = true }

type fakeLevels struct{}

func (fakeLevels) GetLevel(id string) (*world.Data, error) {
	return &world.Data{World: id, Levels: map[uint8]*world.LevelArea{}}, nil
}
func (fakeLevels) GetRandomLevel(mode string) (*world.Data, error) {
	return &world.Data{World: "random-" + mode, Levels: map[uint8]*world.LevelArea{}}, nil
}
func (fakeLevels) ValidateCustom(blob []byte) error { return nil }

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) NotifyPodiumWin(roomLabel, winnerName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func testConfig() Config {
	return Config{
		PlayerMin:                     2,
		PlayerCap:                     8,
		AutoStartTimeSeconds:          30,
		StartTimerSeconds:             5,
		EnableAutoStartInMultiPrivate: false,
		EnableVoteStart:               true,
		VoteRateToStart:               0.75,
		AllowLateEnter:                true,
		CoinRewardPodium1:             50,
		CoinRewardPodium2:             25,
		CoinRewardPodium3:             10,
	}
}

func newTestMatch() *Match {
	return New(1, "", true, ModeRoyale, testConfig(), fakeLevels{}, &fakeNotifier{}, nil, logging.New(false), nil)
}

func TestAddPlayerAssignsIncreasingIDs(t *testing.T) {
	m := newTestMatch()
	defer m.Shutdown()

	p1 := NewPlayer(&fakeSender{}, "ALPHA", "red", 0, "royale", false)
	p2 := NewPlayer(&fakeSender{}, "BETA", "red", 0, "royale", false)

	id1 := m.AddPlayer(p1)
	id2 := m.AddPlayer(p2)

	if id2 <= id1 {
		t.Fatalf("expected strictly increasing ids, got %d then %d", id1, id2)
	}
	if m.PlayerCount() != 2 {
		t.Fatalf("expected 2 players, got %d", m.PlayerCount())
	}
}

func TestSoloPrivateMatchStartsOnReady(t *testing.T) {
	m := newTestMatch()
	defer m.Shutdown()

	sender := &fakeSender{}
	p := NewPlayer(sender, "ALPHA", "red", 0, "royale", false)
	m.AddPlayer(p)
	m.OnPlayerReady(p)

	time.Sleep(20 * time.Millisecond)

	playing := false
	m.do(func() { playing = m.Playing })
	if !playing {
		t.Fatalf("expected solo private match to start on ready")
	}
}

func TestVoteStartRequiresThreshold(t *testing.T) {
	m := newTestMatch()
	m.Private = false
	defer m.Shutdown()

	p1 := NewPlayer(&fakeSender{}, "ALPHA", "red", 0, "royale", false)
	p2 := NewPlayer(&fakeSender{}, "BETA", "blu", 0, "royale", false)
	m.AddPlayer(p1)
	m.AddPlayer(p2)
	m.OnPlayerReady(p1)
	m.OnPlayerReady(p2)

	m.VoteStart(p1)
	time.Sleep(10 * time.Millisecond)
	playing := false
	m.do(func() { playing = m.Playing })
	if playing {
		t.Fatalf("one vote of two (0.5) should not meet the 0.75 vote-rate threshold")
	}

	m.VoteStart(p2)
	time.Sleep(10 * time.Millisecond)
	m.do(func() { playing = m.Playing })
	if !playing {
		t.Fatalf("expected match to start once vote threshold met")
	}
}

func TestRemovePlayerBroadcastsKillUnlessFinished(t *testing.T) {
	m := newTestMatch()
	m.Private = false
	defer m.Shutdown()

	s1 := &fakeSender{}
	s2 := &fakeSender{}
	p1 := NewPlayer(s1, "ALPHA", "red", 0, "royale", false)
	p2 := NewPlayer(s2, "BETA", "blu", 0, "royale", false)
	m.AddPlayer(p1)
	m.AddPlayer(p2)
	m.OnPlayerReady(p1)
	m.OnPlayerReady(p2)

	m.RemovePlayer(p1)
	time.Sleep(10 * time.Millisecond)

	s2.mu.Lock()
	n := len(s2.binary)
	s2.mu.Unlock()
	if n == 0 {
		t.Fatalf("expected remaining player to receive a kill-object broadcast")
	}
}

func TestFinishAwardsPodiumRanksOnce(t *testing.T) {
	m := newTestMatch()
	defer m.Shutdown()

	p := NewPlayer(&fakeSender{}, "ALPHA", "red", 0, "royale", false)
	m.AddPlayer(p)

	m.Finish(p)
	m.Finish(p) // idempotent: already won

	if p.CoinsDelta != m.cfg.CoinRewardPodium1 {
		t.Fatalf("expected single podium-1 award of %d, got %d", m.cfg.CoinRewardPodium1, p.CoinsDelta)
	}
	if p.WinsDelta != 1 {
		t.Fatalf("expected wins delta of 1, got %d", p.WinsDelta)
	}
}
