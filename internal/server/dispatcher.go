package server

import (
	"github.com/Seednode/royaleserver/internal/transport"
)

// OnConnect implements transport.Dispatcher: register the session
// record. Real work (admission checks) already ran in serveWebsocket
// before the read loop started.
func (s *Server) OnConnect(c *transport.Connection) {
	s.mu.Lock()
	s.conns[c] = &connSession{address: c.Address}
	s.mu.Unlock()
}

// OnDisconnect implements transport.Dispatcher: spec.md §5's
// cancellation sequence — remove the player from its match (which
// itself flushes stat deltas via StatSink on the match side... no,
// flushing happens here since the match only tracks in-match deltas),
// release the per-IP connection slot, clear any pending captcha, and
// drop the session record. Idempotent: safe if called without a
// session ever having been created.
func (s *Server) OnDisconnect(c *transport.Connection) {
	s.mu.Lock()
	sess, ok := s.conns[c]
	delete(s.conns, c)
	s.mu.Unlock()
	if !ok {
		return
	}

	if sess.m != nil && sess.p != nil {
		s.flushAndRemove(sess)
	}

	s.challenges.Clear(sess.address)
	s.connections.Release(sess.address)
	if sess.username != "" {
		s.sessions.Logout(sess.username)
	}
}

// flushAndRemove persists the player's accrued deltas (only for
// non-private matches, per spec.md §5) and any dev-forced rename (in
// every match), then removes it from the match.
func (s *Server) flushAndRemove(sess *connSession) {
	p := sess.p
	m := sess.m

	if s.accounts != nil && sess.username != "" {
		var wins, deaths, kills, coins int
		if !m.Private {
			wins, deaths, kills, coins = p.WinsDelta, p.DeathsDelta, p.KillsDelta, p.CoinsDelta
		}
		renamed := ""
		if p.ForceRenamed {
			renamed = p.Name
		}
		s.accounts.FlushPlayerStats(sess.username, wins, deaths, kills, coins, false, renamed, "")
	}

	m.RemovePlayer(p)
}

func (s *Server) session(c *transport.Connection) *connSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[c]
}
