package match

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Seednode/royaleserver/internal/protocol"
	"github.com/Seednode/royaleserver/internal/world"
)

// AddPlayer admits p to the match, assigning a strictly increasing id
// (spec.md §4.3, invariant 2).
func (m *Match) AddPlayer(p *Player) int16 {
	var id int16
	m.do(func() {
		m.lastID++
		id = m.lastID
		p.handle = Handle{MatchID: m.ID, ID: id}
		p.ID = id

		if m.IsLobby && m.GoldFlowerTaken {
			p.sender.SendJSON(protocol.AuthResult{Type: "x00", Status: false, Message: "gold flower already taken"})
		}

		m.players = append(m.players, p)
	})
	return id
}

// RemovePlayer implements spec.md §4.3's removal sequence.
func (m *Match) RemovePlayer(p *Player) {
	m.do(func() {
		idx := -1
		for i, q := range m.players {
			if q == p {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		m.players = append(m.players[:idx], m.players[idx+1:]...)

		if len(m.players) == 0 {
			m.cancelAutoStart()
			m.stopTick()
			if m.onEmpty != nil {
				m.onEmpty(m)
			}
			return
		}

		if !p.Dead && !p.Win {
			m.broadcastBinary(protocol.EncodeKillPlayerObject(p.ID), 0)
		}

		m.broadcastPlayerList()

		if p.Voted {
			m.Votes--
		} else if m.voteThresholdMet() {
			m.startLocked(false)
		}
	})
}

// VoteStart implements spec.md §4.3's voteStart().
func (m *Match) VoteStart(p *Player) {
	m.do(func() {
		if p.Voted {
			return
		}
		p.Voted = true
		m.Votes++
		if m.voteThresholdMet() {
			m.startLocked(false)
		}
	})
}

func (m *Match) voteThresholdMet() bool {
	if !m.cfg.EnableVoteStart || m.Playing {
		return false
	}
	n := len(m.players)
	if n == 0 {
		return false
	}
	return float64(m.Votes) >= float64(n)*m.cfg.VoteRateToStart
}

// OnPlayerReady implements onPlayerReady from spec.md §4.3, invoked
// when a player sends g03 after finishing the world load.
func (m *Match) OnPlayerReady(p *Player) {
	m.do(func() {
		p.Loaded = true
		p.Lobbier = m.IsLobby

		if m.broadcastStart() {
			m.armAutoStart()
		}
		m.ensureTick()

		for _, other := range m.players {
			if other == p || !other.Loaded {
				continue
			}
			p.sender.SendBinary(other.LastUpdatePkt)
		}

		m.broadcastPlayerList()

		if !m.Playing {
			switch {
			case m.Private && m.RoomName == "" && len(m.players) >= m.effectivePlayerMin():
				// solo/private practice match: no peers to vote or wait
				// with, so readiness alone starts it (spec.md §4.3).
				m.startLocked(true)
			case len(m.players) >= m.cfg.PlayerCap:
				m.startLocked(true)
			case m.voteThresholdMet():
				m.startLocked(false)
			}
		}
	})
}

func (m *Match) armAutoStart() {
	m.cancelAutoStart()
	d := time.Duration(m.cfg.AutoStartTimeSeconds) * time.Second
	m.autoStartTimer = time.AfterFunc(d, func() {
		m.do(func() { m.startLocked(true) })
	})
}

func (m *Match) cancelAutoStart() {
	if m.autoStartTimer != nil {
		m.autoStartTimer.Stop()
		m.autoStartTimer = nil
	}
}

func (m *Match) ensureTick() {
	if m.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	m.tickStop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.do(func() {
					m.broadcast(protocol.GTKTick{
						Type: "gtk", Votes: m.Votes,
						MinPlayers: m.effectivePlayerMin(), MaxPlayers: m.cfg.PlayerCap,
						VoteRateToStart: m.cfg.VoteRateToStart,
					}, 0)
				})
			case <-stop:
				return
			}
		}
	}()
}

func (m *Match) stopTick() {
	if m.tickStop != nil {
		close(m.tickStop)
		m.tickStop = nil
	}
}

// Start is the exported, locked entry point for start(forced).
func (m *Match) Start(forced bool) {
	m.do(func() { m.startLocked(forced) })
}

// startLocked implements spec.md §4.3's start(forced). Must run on the
// owning goroutine.
func (m *Match) startLocked(forced bool) {
	if m.Playing {
		return
	}
	if !forced && len(m.players) < m.effectivePlayerMin() {
		return
	}

	m.Playing = true
	m.IsLobby = false
	m.cancelAutoStart()
	m.stopTick()

	data, worldID, err := m.resolveLevel()
	if err != nil {
		m.log.Trace("match: resolving level", err)
		return
	}
	m.Data = data
	m.WorldID = worldID

	if !m.Private && m.GameMode == ModeRoyale {
		m.plantGoldFlower()
	}

	m.broadcast(protocol.G01WorldLoad{Type: "g01", Game: worldID}, 0)

	m.reinitIndices()

	m.countdownGen++
	gen := m.countdownGen
	time.AfterFunc(time.Second, func() {
		m.do(func() { m.broadStartTimer(m.cfg.StartTimerSeconds*30, gen) })
	})
}

// resolveLevel implements spec.md §4.3 step 4: a pending custom level
// takes precedence over forceLevelID, which takes precedence over a
// random pick from the match's levelMode catalog.
func (m *Match) resolveLevel() (*world.Data, string, error) {
	if m.customLevelOn {
		data, err := world.Parse(m.CustomLevel)
		if err != nil {
			return nil, "", fmt.Errorf("match: parsing custom level: %w", err)
		}
		return data.DeepCopy(), "custom", nil
	}

	if m.ForceLevelID != "" {
		data, err := m.levels.GetLevel(m.ForceLevelID)
		if err != nil {
			return nil, "", fmt.Errorf("match: loading forced level %q: %w", m.ForceLevelID, err)
		}
		return data.DeepCopy(), m.ForceLevelID, nil
	}

	data, err := m.levels.GetRandomLevel(string(m.GameMode.LevelMode()))
	if err != nil {
		return nil, "", fmt.Errorf("match: loading random level: %w", err)
	}
	return data.DeepCopy(), data.World, nil
}

func (m *Match) reinitIndices() {
	m.AllCoins = make(map[LZ]map[uint32]bool)
	m.Coins = make(map[LZ]map[uint32]bool)
	m.Powerups = make(map[uint32]world.PowerupSpawn)

	if m.Data == nil {
		return
	}
	for levelID, area := range m.Data.Levels {
		for zoneID, zone := range area.Zones {
			key := LZ{levelID, zoneID}
			coinSet := make(map[uint32]bool)
			for oid, typ := range zone.Objects {
				if typ == world.ObjectTypeCoin {
					coinSet[oid] = true
				}
			}
			m.AllCoins[key] = coinSet
			live := make(map[uint32]bool, len(coinSet))
			for oid := range coinSet {
				live[oid] = true
			}
			m.Coins[key] = live
		}
	}
}

// plantGoldFlower converts a random coin block across the whole loaded
// world into an item block carrying the gold-flower power-up, per
// spec.md §4.3 step 5. If no coin block exists, it is skipped.
func (m *Match) plantGoldFlower() {
	if m.Data == nil {
		return
	}

	type site struct {
		layer *world.Layer
		x, y  int
		code  world.TileCode
	}
	var candidates []site

	for _, area := range m.Data.Levels {
		for _, zone := range area.Zones {
			layer := zone.MainLayer()
			if layer == nil {
				continue
			}
			for y := range layer.Data {
				for x := range layer.Data[y] {
					code := world.DecodeTileCode(layer.Data[y][x])
					if code.ID == world.TileCoinBlock {
						candidates = append(candidates, site{layer, x, y, code})
					}
				}
			}
		}
	}
	if len(candidates) == 0 {
		return
	}

	s := candidates[rand.Intn(len(candidates))]
	s.layer.Data[s.y][s.x] = world.TileCode{
		Low16: s.code.Low16, ID: world.TileItemBlock, ExtraData: 100,
	}.Encode()
}

// broadStartTimer implements the chained 1-shot countdown of spec.md
// §4.3 step 8. gen guards against a stale chain still firing after a
// new start() (not expected to happen given the Playing latch, but
// cheap to guard).
func (m *Match) broadStartTimer(ticks int, gen int) {
	if gen != m.countdownGen {
		return
	}
	for _, p := range m.players {
		if p.Loaded {
			p.sender.SendJSON(protocol.G13StartTimer{Type: "g13", Ticks: ticks})
		}
	}
	if ticks <= 0 {
		m.Closed = true
		return
	}
	time.AfterFunc(time.Second, func() {
		m.do(func() { m.broadStartTimer(ticks-30, gen) })
	})
}

// Finish implements opcode 0x18 (RESULT): podium finish handling from
// spec.md §4.3.
func (m *Match) Finish(p *Player) {
	m.do(func() {
		if p.Dead || p.Win {
			return
		}
		p.Win = true
		m.Winners++
		rank := m.Winners

		var coins int
		switch rank {
		case 1:
			coins = m.cfg.CoinRewardPodium1
			if accrues(p) {
				p.WinsDelta++
			}
		case 2:
			coins = m.cfg.CoinRewardPodium2
		case 3:
			coins = m.cfg.CoinRewardPodium3
		}
		if coins > 0 && accrues(p) {
			p.CoinsDelta += coins
		}

		m.broadcastBinary(protocol.EncodeResult(p.ID, uint8(rank)), 0)

		if rank == 1 && !m.Private && m.notifier != nil {
			label := fmt.Sprintf("%s/%s", m.GameMode, m.RoomName)
			go m.notifier.NotifyPodiumWin(label, p.Name)
		}
	})
}
