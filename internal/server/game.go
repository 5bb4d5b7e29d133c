package server

import (
	"encoding/json"
	"time"

	"github.com/Seednode/royaleserver/internal/protocol"
	"github.com/Seednode/royaleserver/internal/transport"
)

// HandleGameMessage implements transport.Dispatcher for the "g" state
// (spec.md §4.1's in-game JSON control flows).
func (s *Server) HandleGameMessage(c *transport.Connection, msgType string, raw []byte) {
	sess := s.session(c)
	if sess == nil || sess.m == nil || sess.p == nil {
		c.Close()
		return
	}

	switch msgType {
	case "g00":
		// in-game-ready acknowledgement; no state change beyond what
		// Advance already sent.

	case "g03":
		sess.m.OnPlayerReady(sess.p)
		c.StartDCTimer(15 * time.Second)

	case "g50":
		sess.m.VoteStart(sess.p)

	case "g51":
		if sess.isDev {
			sess.m.Start(true)
		}

	case "gsl":
		var req protocol.GSLLevelSelect
		if err := json.Unmarshal(raw, &req); err != nil {
			c.Close()
			return
		}
		sess.m.HandleLevelSelect(sess.p, req.LevelID, req.LevelData)

	case "gbn":
		s.handleAdmin(c, sess, raw, func(target int16, req protocol.GAdminTarget) {
			sess.m.HandleBan(sess.p, target)
		})

	case "gnm":
		s.handleAdmin(c, sess, raw, func(target int16, req protocol.GAdminTarget) {
			sess.m.HandleRename(sess.p, target, req.Name)
		})

	case "gsq":
		s.handleAdmin(c, sess, raw, func(target int16, req protocol.GAdminTarget) {
			sess.m.HandleSquad(sess.p, target, req.Squad)
		})

	default:
		c.Close()
	}
}

func (s *Server) handleAdmin(c *transport.Connection, sess *connSession, raw []byte, apply func(target int16, req protocol.GAdminTarget)) {
	var req protocol.GAdminTarget
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}
	apply(req.Target, req)
}

// HandleBinaryFrame implements transport.Dispatcher for the fixed set
// of in-game binary opcodes (spec.md §6).
func (s *Server) HandleBinaryFrame(c *transport.Connection, op protocol.Opcode, payload []byte) {
	sess := s.session(c)
	if sess == nil || sess.m == nil || sess.p == nil {
		c.Close()
		return
	}

	switch op {
	case protocol.OpCreatePlayerObject:
		frame, err := protocol.DecodeCreatePlayerObject(payload)
		if err != nil {
			c.Close()
			return
		}
		sess.m.HandleCreatePlayerObject(sess.p, frame.Level, frame.Zone, frame.X, frame.Y, frame.Skin, frame.IsDev)

	case protocol.OpUpdatePlayerObject:
		upd, err := protocol.DecodeUpdatePlayerObject(payload)
		if err != nil {
			c.Close()
			return
		}
		raw := append([]byte{byte(op)}, payload...)
		sess.m.HandleMovement(sess.p, upd, raw)

	case protocol.OpPlayerObjectEvent:
		typ, err := protocol.DecodePlayerObjectEvent(payload)
		if err != nil {
			c.Close()
			return
		}
		sess.m.HandlePlayerObjectEvent(sess.p, typ)

	case protocol.OpKillPlayerObject:
		sess.m.HandleSelfDeath(sess.p)
		c.StartDCTimer(60 * time.Second)

	case protocol.OpKillClaim:
		victim, err := protocol.DecodeKillClaim(payload)
		if err != nil {
			c.Close()
			return
		}
		sess.m.HandleKillClaim(sess.p, victim)

	case protocol.OpResult:
		if _, err := protocol.DecodeResult(payload); err != nil {
			c.Close()
			return
		}
		sess.m.Finish(sess.p)
		c.StartDCTimer(120 * time.Second)

	case protocol.OpTrustPing:
		sess.m.HandleTrustPing(sess.p)

	case protocol.OpObjectEvent:
		ev, err := protocol.DecodeObjectEvent(payload)
		if err != nil {
			c.Close()
			return
		}
		sess.m.HandleObjectEvent(sess.p, ev)

	case protocol.OpTileEvent:
		ev, err := protocol.DecodeTileEvent(payload)
		if err != nil {
			c.Close()
			return
		}
		sess.m.HandleTileEvent(sess.p, ev)

	default:
		// Any other opcode reaching here already passed protocol.Drain
		// (it's in payloadLen), but the match engine has no handler for
		// it (e.g. the server-only ASSIGN_PID opcode) — treat as a
		// protocol violation.
		c.Close()
	}
}
