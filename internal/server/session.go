package server

import "github.com/Seednode/royaleserver/internal/match"

// connSession is the server-side state bound to one transport.Connection
// for its lifetime: which account (if any) authenticated it, and which
// match/player it joined. Kept out of transport.Connection itself so
// transport never imports match or account (spec.md §9 cyclic-
// reference note).
type connSession struct {
	address  string
	username string // "" until logged in / resumed
	isDev    bool

	m *match.Match
	p *match.Player
}
