package match

import (
	"bytes"

	"github.com/Seednode/royaleserver/internal/protocol"
	"github.com/Seednode/royaleserver/internal/world"
)

// HandleCreatePlayerObject records the spawn packet as the player's
// LastUpdatePkt so late joiners can be caught up, and fans it out.
func (m *Match) HandleCreatePlayerObject(p *Player, level, zone uint8, x, y uint16, skin int16, isDev bool) {
	m.do(func() {
		p.Level, p.Zone = level, zone
		pkt := protocol.EncodeCreatePlayerObject(level, zone, x, y, skin, isDev)
		p.LastUpdatePkt = pkt
		m.broadcastBinary(pkt, p.ID)
	})
}

// forbiddenLobbySprite implements spec.md §4.4's "forbidden lobby
// sprite states (sprite > 5 in lobby/zone0)" guard.
func forbiddenLobbySprite(upd protocol.UpdatePlayerObject) bool {
	return upd.Level == 0 && upd.Zone == 0 && upd.Sprite > 5
}

// accrues reports whether p's stat deltas should count, per spec.md
// §3's "lobbier ... used to suppress stat accrual in lobby".
func accrues(p *Player) bool {
	return !p.Lobbier
}

// HandleMovement implements opcode 0x12 (UPDATE_PLAYER_OBJECT) from
// spec.md §4.4: dedup against lastUpdatePkt, zone-scoped fan-out, warp
// re-encoding, flagpole-crossing bonus, and the forbidden-sprite-in-
// lobby guard.
func (m *Match) HandleMovement(p *Player, upd protocol.UpdatePlayerObject, raw []byte) {
	m.do(func() {
		if bytes.Equal(p.LastUpdatePkt, raw) {
			return
		}

		if p.Lobbier && forbiddenLobbySprite(upd) {
			p.Blocked = true
			p.sender.Close()
			return
		}

		warped := p.Level != upd.Level || p.Zone != upd.Zone

		if zone := m.Data.Zone(upd.Level, upd.Zone); zone != nil && !p.FlagBonusGiven {
			if tile, ok := world.TileAt(zone, zone.Height(), uint16(upd.X), uint16(upd.Y)); ok &&
				tile.ID == world.TileFlagpole && tile.ExtraData == 1 {
				p.FlagBonusGiven = true
				if accrues(p) {
					p.CoinsDelta += m.cfg.CoinRewardFlagpole
				}
			}
		}

		p.Level, p.Zone = upd.Level, upd.Zone
		p.X, p.Y = upd.X, upd.Y
		p.LastUpdatePkt = raw

		if warped {
			pkt := protocol.EncodeUpdatePlayerObject(upd.Level, upd.Zone, upd.X, upd.Y, upd.Sprite, upd.Reverse)
			m.broadPlayerUpdate(pkt, p)
			return
		}
		m.broadPlayerUpdate(raw, p)
	})
}

// HandlePlayerObjectEvent implements opcode 0x13 (PLAYER_OBJECT_EVENT):
// a per-player state transition (death/respawn animation cue) fanned
// out to the sender's current zone, same as movement frames.
func (m *Match) HandlePlayerObjectEvent(p *Player, typ uint8) {
	m.do(func() {
		pkt := protocol.EncodePlayerObjectEvent(p.ID, typ)
		m.broadcastZone(pkt, p.Level, p.Zone, p.ID)
	})
}

// HandleKillClaim implements opcode 0x17: attacker earns a kill and
// coin bonus, self-kills are ignored (spec.md §4.4).
func (m *Match) HandleKillClaim(attacker *Player, victimPID int16) {
	m.do(func() {
		if attacker.ID == victimPID {
			return
		}
		var victim *Player
		for _, q := range m.players {
			if q.ID == victimPID {
				victim = q
				break
			}
		}
		if victim == nil || victim.Dead {
			return
		}
		victim.Dead = true
		if accrues(victim) {
			victim.DeathsDelta++
		}
		if accrues(attacker) {
			attacker.KillsDelta++
			attacker.CoinsDelta += 10
		}
		m.broadcastBinary(protocol.EncodeKillPlayerObject(victimPID), 0)
	})
}

// HandleSelfDeath implements opcode 0x11 (KILL_PLAYER_OBJECT, inbound):
// a player's own self-reported death (fall, lava, etc.), independent of
// a kill claim (spec.md §4.4). It accrues a death and deducts a coin
// penalty, then rebroadcasts the player's death to the rest of the
// match.
func (m *Match) HandleSelfDeath(p *Player) {
	m.do(func() {
		if p.Dead || p.Win {
			return
		}
		p.Dead = true
		if accrues(p) {
			p.DeathsDelta++
			p.CoinsDelta -= 10
		}
		m.broadcastBinary(protocol.EncodeKillPlayerObject(p.ID), 0)
	})
}

// HandleTrustPing implements opcode 0x19: a climbing distrust counter
// that blocks the connection once it exceeds 8 (spec.md §7).
func (m *Match) HandleTrustPing(p *Player) {
	m.do(func() {
		p.TrustCount++
		if p.TrustCount > 8 {
			p.Blocked = true
			p.sender.Close()
		}
	})
}

// HandleObjectEvent implements opcode 0x20 from spec.md §4.4: the gold
// flower latch, idempotent coin collection, and power-up pickup
// (type==100 awards +50000 leaderboard coins).
func (m *Match) HandleObjectEvent(p *Player, ev protocol.ObjectEvent) {
	m.do(func() {
		if m.IsLobby && ev.OID == world.GoldFlowerOID {
			if !m.GoldFlowerTaken {
				m.GoldFlowerTaken = true
			}
		}

		key := LZ{ev.Level, ev.Zone}

		if live, ok := m.Coins[key]; ok && live[ev.OID] {
			delete(live, ev.OID)
			if accrues(p) {
				p.CoinsDelta++
			}
		}

		if pu, ok := m.Powerups[ev.OID]; ok {
			if pu.Type == 100 && accrues(p) {
				p.CoinsDelta += 50000
			}
			delete(m.Powerups, ev.OID)
		}

		pkt := protocol.EncodeObjectEvent(p.ID, ev.Level, ev.Zone, ev.OID, ev.Type)
		m.broadcastZone(pkt, ev.Level, ev.Zone, p.ID)
	})
}

// HandleTileEvent implements opcode 0x30 from spec.md §4.4: tile hit
// mutation, coin award, and power-up spawn recording.
func (m *Match) HandleTileEvent(p *Player, ev protocol.TileEvent) {
	m.do(func() {
		zone := m.Data.Zone(ev.Level, ev.Zone)
		if zone == nil {
			return
		}
		result, err := world.ApplyTileHit(zone, zone.Height(), ev.PosX, ev.PosY)
		if err != nil {
			return
		}

		if result.AwardedCoin && accrues(p) {
			p.CoinsDelta++
		}
		if result.Powerup != nil {
			m.Powerups[result.Powerup.OID] = *result.Powerup
		}

		pkt := protocol.EncodeTileEvent(p.ID, ev.Level, ev.Zone, ev.PosX, ev.PosY, ev.Type)
		m.broadcastZone(pkt, ev.Level, ev.Zone, p.ID)
	})
}
