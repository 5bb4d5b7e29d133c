package matchmaker

import (
	"testing"

	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/world"
)

type fakeLevels struct{}

func (fakeLevels) GetLevel(id string) (*world.Data, error) {
	return &world.Data{World: id, Levels: map[uint8]*world.LevelArea{}}, nil
}
func (fakeLevels) GetRandomLevel(mode string) (*world.Data, error) {
	return &world.Data{World: "random", Levels: map[uint8]*world.LevelArea{}}, nil
}
func (fakeLevels) ValidateCustom(blob []byte) error { return nil }

func newTestMatchmaker() *Matchmaker {
	cfg := match.Config{PlayerMin: 2, PlayerCap: 8, AllowLateEnter: true}
	return New(8, cfg, fakeLevels{}, nil, nil, logging.New(false))
}

func TestSoloPrivateAlwaysGetsNewMatch(t *testing.T) {
	mm := newTestMatchmaker()

	m1 := mm.GetMatch("", true, match.ModeRoyale)
	m2 := mm.GetMatch("", true, match.ModeRoyale)

	if m1 == m2 {
		t.Fatalf("expected two distinct solo-private matches")
	}
	if mm.Count() != 2 {
		t.Fatalf("expected 2 live matches, got %d", mm.Count())
	}
}

func TestPublicMatchesAreReused(t *testing.T) {
	mm := newTestMatchmaker()

	m1 := mm.GetMatch("", false, match.ModeRoyale)
	m2 := mm.GetMatch("", false, match.ModeRoyale)

	if m1 != m2 {
		t.Fatalf("expected the same public match to be reused")
	}
}

func TestNamedPrivateRoomsMatchByName(t *testing.T) {
	mm := newTestMatchmaker()

	a := mm.GetMatch("party", true, match.ModeRoyale)
	b := mm.GetMatch("party", true, match.ModeRoyale)
	c := mm.GetMatch("other", true, match.ModeRoyale)

	if a != b {
		t.Fatalf("expected same room name to reuse match")
	}
	if a == c {
		t.Fatalf("expected different room names to get different matches")
	}
}

func TestRemoveMatchDropsFromList(t *testing.T) {
	mm := newTestMatchmaker()

	m := mm.GetMatch("", true, match.ModeRoyale)
	if mm.Count() != 1 {
		t.Fatalf("expected 1 live match")
	}

	p := match.NewPlayer(nil, "ALPHA", "red", 0, "royale", false)
	m.AddPlayer(p)
	m.RemovePlayer(p)

	if mm.Count() != 0 {
		t.Fatalf("expected match to be removed once empty, got %d", mm.Count())
	}
}
