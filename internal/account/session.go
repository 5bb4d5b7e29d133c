package account

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
)

// Sessions is the process-wide token->username table of spec.md §3,
// enforcing single-session-per-account: registering a new token for a
// username that already has one invalidates the prior token.
type Sessions struct {
	mu         sync.Mutex
	byToken    map[string]string
	byUsername map[string]string
}

func NewSessions() *Sessions {
	return &Sessions{
		byToken:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// NewToken mints a URL-safe 32-byte random token for username,
// displacing any prior token for that account.
func (s *Sessions) NewToken(username string) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("account: reading random token: " + err.Error())
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prior, ok := s.byUsername[username]; ok {
		delete(s.byToken, prior)
	}
	s.byToken[token] = username
	s.byUsername[username] = token
	return token
}

// Resolve returns the username bound to token, if any.
func (s *Sessions) Resolve(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.byToken[token]
	return username, ok
}

// IsConnected reports whether username already has an active,
// authenticated connection (spec.md §3's authenticated-set).
func (s *Sessions) IsConnected(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byUsername[username]
	return ok
}

// Logout destroys the token and removes username from the
// authenticated set (spec.md §5 cancellation semantics).
func (s *Sessions) Logout(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.byUsername[username]; ok {
		delete(s.byToken, token)
		delete(s.byUsername, username)
	}
}
