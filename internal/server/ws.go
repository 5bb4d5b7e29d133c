package server

import (
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/royaleserver/internal/transport"
)

// serveWebsocket upgrades the request and runs its read loop,
// enforcing the per-IP connection cap and persistent block list before
// a single byte of protocol traffic is processed (spec.md §4.1, §8
// scenario 6).
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Abuse checks are keyed by host only; RealIP keeps the client port.
	address := transport.RealIP(r)
	if host, _, err := net.SplitHostPort(address); err == nil {
		address = host
	}

	if s.blocklist.Blocked(address) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !s.connections.TryAdmit(address) {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := transport.Upgrade(w, r, s.log)
	if err != nil {
		s.connections.Release(address)
		s.log.Debugf("server: upgrade failed: %v", err)
		return
	}
	conn.Address = address

	conn.ReadLoop(s)
}
