package match

import "github.com/Seednode/royaleserver/internal/protocol"

// HandleBan implements "gbn": a dev-only op that force-closes a
// connection immediately, bypassing the normal disconnect waypoints
// (spec.md §4.1, §7).
func (m *Match) HandleBan(actor *Player, targetID int16) {
	m.do(func() {
		if !actor.IsDev {
			return
		}
		for _, q := range m.players {
			if q.ID == targetID {
				q.Blocked = true
				q.sender.Close()
				return
			}
		}
	})
}

// HandleRename implements "gnm": a dev-only forced rename, latching
// ForceRenamed so the account layer knows the display name diverged
// from the account nickname (spec.md §4.3).
func (m *Match) HandleRename(actor *Player, targetID int16, name string) {
	m.do(func() {
		if !actor.IsDev {
			return
		}
		for _, q := range m.players {
			if q.ID == targetID {
				q.Name = NormalizeName(name, q.Name)
				q.ForceRenamed = true
				m.broadcast(protocol.GNMRename{Type: "gnm", Target: targetID, Name: q.Name}, 0)
				m.broadcastPlayerList()
				return
			}
		}
	})
}

// HandleSquad implements "gsq": a dev-only squad/team reassignment.
// ResquadPlayer resolves spec.md §9's open TODO by treating a squad
// change identically to a team change: re-key, re-normalize, and
// rebroadcast the player list so watchers see the new grouping.
func (m *Match) HandleSquad(actor *Player, targetID int16, squad string) {
	m.do(func() {
		if !actor.IsDev {
			return
		}
		for _, q := range m.players {
			if q.ID == targetID {
				m.ResquadPlayer(q, squad)
				return
			}
		}
	})
}

// ResquadPlayer reassigns p's team and rebroadcasts the player list.
func (m *Match) ResquadPlayer(p *Player, squad string) {
	_, display := NormalizeTeam(squad)
	p.Team = display
	m.broadcastPlayerList()
}
