package transport

import (
	"net/http"
	"testing"

	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/protocol"
)

func newTestConnection() *Connection {
	return &Connection{
		send:  make(chan wireMessage, 4),
		state: protocol.StateLobby,
	}
}

func TestAdvanceArmsPendingAckLatch(t *testing.T) {
	c := newTestConnection()
	c.Advance(protocol.StateInGame)

	if c.State() != protocol.StateInGame {
		t.Fatalf("State() = %v, want %v", c.State(), protocol.StateInGame)
	}
	if !c.AckPending() {
		t.Fatal("expected AckPending to clear an armed latch")
	}
	if c.AckPending() {
		t.Fatal("expected a second AckPending call with nothing armed to return false")
	}
}

func TestHandleRoundTrip(t *testing.T) {
	c := newTestConnection()
	if _, ok := c.Handle(); ok {
		t.Fatal("expected no handle before SetHandle")
	}
	h := match.Handle{MatchID: 42, ID: 3}
	c.SetHandle(h)
	got, ok := c.Handle()
	if !ok || got != h {
		t.Fatalf("Handle() = %+v, %v, want %+v, true", got, ok, h)
	}
}

func TestCloseIsIdempotentAndStopsSends(t *testing.T) {
	c := newTestConnection()
	c.Close()
	c.Close()

	c.SendJSON(protocol.S00State{Type: "s00", State: protocol.StateLobby})
	select {
	case _, open := <-c.send:
		if open {
			t.Fatal("expected no message to be queued on a closed connection")
		}
	default:
	}
}

func TestRealIPPrefersCloudflareHeaderOverRemoteAddr(t *testing.T) {
	r := &http.Request{RemoteAddr: "10.0.0.1:5555", Header: http.Header{}}
	r.Header.Set("CF-Connecting-IP", "203.0.113.9")

	if got := RealIP(r); got != "203.0.113.9:5555" {
		t.Fatalf("RealIP() = %q, want %q", got, "203.0.113.9:5555")
	}
}

func TestRealIPFallsBackToRemoteAddr(t *testing.T) {
	r := &http.Request{RemoteAddr: "192.0.2.5:5555", Header: http.Header{}}

	if got := RealIP(r); got != "192.0.2.5:5555" {
		t.Fatalf("RealIP() = %q, want %q", got, "192.0.2.5:5555")
	}
}
