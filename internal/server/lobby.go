package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Seednode/royaleserver/internal/account"
	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/protocol"
	"github.com/Seednode/royaleserver/internal/transport"
)

// HandleLobbyMessage implements transport.Dispatcher for the "l" state
// (spec.md §4.1's lobby JSON control flows).
func (s *Server) HandleLobbyMessage(c *transport.Connection, msgType string, raw []byte) {
	sess := s.session(c)
	if sess == nil {
		c.Close()
		return
	}

	switch msgType {
	case "l00":
		s.handleInputReady(c, sess, raw)
	case "llg":
		s.handleLogin(c, sess, raw)
	case "llo":
		s.handleLogout(c, sess)
	case "lrg":
		s.handleRegister(c, sess, raw)
	case "lrc":
		s.handleCaptchaRequest(c, sess)
	case "lrs":
		s.handleResume(c, sess, raw)
	case "lpr", "lpc":
		// Profile update / password change: both require an
		// authenticated session and delegate to the account store;
		// the wire shape of these two differs only in which account
		// fields are mutated, which is an account-store concern.
		s.handleProfileMessage(c, sess, msgType, raw)
	default:
		c.Close()
	}
}

func ctxWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (s *Server) handleLogin(c *transport.Connection, sess *connSession, raw []byte) {
	var req protocol.LLogin
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}

	now := time.Now()
	if !s.logins.Allowed(sess.address, now) {
		c.SendJSON(protocol.AuthResult{Type: "llg", Status: false, Message: "max login tries reached, try again later"})
		return
	}

	if s.accounts == nil {
		c.SendJSON(protocol.AuthResult{Type: "llg", Status: false, Message: "accounts unavailable"})
		return
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()
	acc, err := s.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.logins.RecordFailure(sess.address, now)
		c.SendJSON(protocol.AuthResult{Type: "llg", Status: false, Message: loginErrorMessage(err)})
		return
	}
	s.logins.RecordSuccess(sess.address)

	// single-session-per-account: NewToken displaces any prior token
	// already issued for this username.
	token := s.sessions.NewToken(acc.Username)
	sess.username = acc.Username
	sess.isDev = acc.IsDev

	c.SendJSON(protocol.L01LoginSuccess{Type: "l01", Token: token, Username: acc.Username})
}

func loginErrorMessage(err error) string {
	switch err {
	case account.ErrNotFound, account.ErrBadPassword:
		return "invalid username or password"
	case account.ErrBanned:
		return "account banned"
	default:
		return "login failed"
	}
}

func (s *Server) handleRegister(c *transport.Connection, sess *connSession, raw []byte) {
	var req protocol.LRegister
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}
	if s.accounts == nil {
		c.SendJSON(protocol.AuthResult{Type: "lrg", Status: false, Message: "accounts unavailable"})
		return
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()
	acc, err := s.accounts.Register(ctx, req.Username, req.Nickname, req.Password)
	if err != nil {
		msg := "registration failed"
		switch err {
		case account.ErrUsernameTaken:
			msg = "username already taken"
		case account.ErrNicknameTaken:
			msg = "nickname already taken"
		}
		c.SendJSON(protocol.AuthResult{Type: "lrg", Status: false, Message: msg})
		return
	}

	token := s.sessions.NewToken(acc.Username)
	sess.username = acc.Username
	c.SendJSON(protocol.L01LoginSuccess{Type: "l01", Token: token, Username: acc.Username})
}

func (s *Server) handleResume(c *transport.Connection, sess *connSession, raw []byte) {
	var req protocol.LResume
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}

	username, ok := s.sessions.Resolve(req.Token)
	if !ok {
		c.SendJSON(protocol.AuthResult{Type: "lrs", Status: false, Message: "invalid or expired token"})
		return
	}

	if s.accounts != nil {
		ctx, cancel := ctxWithTimeout()
		acc, err := s.accounts.Get(ctx, username)
		cancel()
		if err != nil {
			c.SendJSON(protocol.AuthResult{Type: "lrs", Status: false, Message: "account unavailable"})
			return
		}
		sess.isDev = acc.IsDev
	}

	sess.username = username
	c.SendJSON(protocol.AuthResult{Type: "lrs", Status: true})
}

func (s *Server) handleLogout(c *transport.Connection, sess *connSession) {
	if sess.username != "" {
		s.sessions.Logout(sess.username)
		sess.username = ""
	}
	c.SendJSON(protocol.AuthResult{Type: "llo", Status: true})
}

func (s *Server) handleCaptchaRequest(c *transport.Connection, sess *connSession) {
	// Captcha image generation itself is an external collaborator
	// (spec.md §1 Non-goals); this only mints the tracked challenge
	// id the client will echo back alongside its login/register
	// attempt. The expected answer is a stand-in the external
	// generator is expected to supply out of band.
	id := s.challenges.New(sess.address, "")
	c.SendJSON(protocol.AuthResult{Type: "lrc", Status: true, Message: id})
}

func (s *Server) handleProfileMessage(c *transport.Connection, sess *connSession, msgType string, raw []byte) {
	if sess.username == "" {
		c.SendJSON(protocol.AuthResult{Type: msgType, Status: false, Message: "not authenticated"})
		return
	}
	if s.accounts == nil {
		c.SendJSON(protocol.AuthResult{Type: msgType, Status: false, Message: "accounts unavailable"})
		return
	}

	if msgType == "lpc" {
		var req protocol.LLogin // reuses {username, password}; password carries the new password
		if err := json.Unmarshal(raw, &req); err != nil {
			c.Close()
			return
		}
		ctx, cancel := ctxWithTimeout()
		err := s.accounts.UpdatePassword(ctx, sess.username, req.Password)
		cancel()
		c.SendJSON(protocol.AuthResult{Type: "lpc", Status: err == nil})
		return
	}

	var req protocol.LProfileUpdate
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}
	ctx, cancel := ctxWithTimeout()
	err := s.accounts.UpdateProfile(ctx, sess.username, req.Nickname, req.Skin, req.Squad)
	cancel()
	if err != nil {
		msg := "profile update failed"
		if err == account.ErrNicknameTaken {
			msg = "nickname already taken"
		}
		c.SendJSON(protocol.AuthResult{Type: "lpr", Status: false, Message: msg})
		return
	}
	c.SendJSON(protocol.AuthResult{Type: "lpr", Status: true})
}

// handleInputReady implements "l00": the lobby -> in-game handoff of
// spec.md §4.2/§4.3. A connection may reach here unauthenticated (a
// guest/dev client) — anonymous joins are permitted at this handoff.
func (s *Server) handleInputReady(c *transport.Connection, sess *connSession, raw []byte) {
	var req protocol.L00InputReady
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Close()
		return
	}

	mode := match.GameMode(strings.ToLower(req.GM))
	switch mode {
	case match.ModeRoyale, match.ModePVP, match.ModeHell:
	default:
		mode = match.ModeRoyale
	}

	roomName := ""
	if req.Private {
		roomName = req.Team
	}

	m := s.matches.GetMatch(roomName, req.Private, mode)

	name := match.NormalizeName(req.Name, s.cfg.DefaultName)
	_, team := match.NormalizeTeam(req.Team)

	p := match.NewPlayer(c, name, team, req.Skin, string(mode), sess.isDev)
	m.AddPlayer(p)
	c.SetHandle(p.Handle())

	sess.m = m
	sess.p = p

	c.Advance(protocol.StateInGame)
	c.StartDCTimer(25 * time.Second)
}
