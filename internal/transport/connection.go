// Package transport implements the per-socket protocol state machine
// of spec.md §4.1: WebSocket upgrade, read/write pumps, the receive
// buffer drain for binary opcodes, and the disconnect watchdog. It
// speaks a mixed JSON/binary protocol through a Dispatcher callback
// interface, so transport never imports match, account, or abuse
// directly.
package transport

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/royaleserver/internal/logging"
	"github.com/Seednode/royaleserver/internal/match"
	"github.com/Seednode/royaleserver/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 5 * time.Second
	pongWait   = 5 * time.Second
)

// Dispatcher is the set of callbacks a Connection invokes as frames
// arrive. internal/server implements this, wiring together the
// matchmaker, account store, and abuse guard without transport
// depending on any of them.
type Dispatcher interface {
	OnConnect(c *Connection)
	OnDisconnect(c *Connection)
	HandleLobbyMessage(c *Connection, msgType string, raw []byte)
	HandleGameMessage(c *Connection, msgType string, raw []byte)
	HandleBinaryFrame(c *Connection, op protocol.Opcode, payload []byte)
}

// Connection is one upgraded WebSocket, advancing through the
// lobby -> in-game protocol states of spec.md §4.1. It implements
// match.Sender so a *Connection can be handed to a Match without that
// package importing transport.
type Connection struct {
	conn    *websocket.Conn
	send    chan wireMessage
	log     *logging.Logger
	Address string

	mu          sync.Mutex
	state       protocol.State
	pendingStat protocol.State
	handle      match.Handle
	hasHandle   bool
	closed      bool

	dcTimer *time.Timer

	recvBuf []byte
}

type wireMessage struct {
	binary []byte
	json   any
}

// New wraps an upgraded connection and starts its write pump. Callers
// must also run ReadLoop (typically in the goroutine that called
// Upgrade) to process inbound frames.
func New(conn *websocket.Conn, address string, log *logging.Logger) *Connection {
	c := &Connection{
		conn:    conn,
		send:    make(chan wireMessage, 32),
		log:     log,
		Address: address,
		state:   protocol.StateLobby,
	}
	go c.writePump()
	return c
}

// SendJSON implements match.Sender.
func (c *Connection) SendJSON(v any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	select {
	case c.send <- wireMessage{json: v}:
	default:
		c.Close()
	}
}

// SendBinary implements match.Sender.
func (c *Connection) SendBinary(b []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	select {
	case c.send <- wireMessage{binary: b}:
	default:
		c.Close()
	}
}

// Close implements match.Sender; safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	close(c.send)
}

// State returns the connection's current protocol phase.
func (c *Connection) State() protocol.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Advance moves the connection to state s, arms the pendingStat latch,
// and sends the s00 state push. The latch is only cleared by
// AckPending; ReadLoop does not consult it, so a client that never
// acknowledges is not closed for that reason.
func (c *Connection) Advance(s protocol.State) {
	c.mu.Lock()
	c.state = s
	c.pendingStat = s
	c.mu.Unlock()
	c.SendJSON(protocol.S00State{Type: "s00", State: s})
}

// AckPending clears the pendingStat latch once the client has
// acknowledged the new state; returns false if there was nothing
// pending (caller should treat this as a protocol violation).
func (c *Connection) AckPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingStat == "" {
		return false
	}
	c.pendingStat = ""
	return true
}

// SetHandle binds the connection to a Player's opaque Handle once it
// has joined a Match (spec.md §9 cyclic-reference note: Connection
// never holds a *match.Match or *match.Player).
func (c *Connection) SetHandle(h match.Handle) {
	c.mu.Lock()
	c.handle = h
	c.hasHandle = true
	c.mu.Unlock()
}

func (c *Connection) Handle() (match.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle, c.hasHandle
}

// startDCTimer implements spec.md §4.1's cancel-and-reschedule
// force-close watchdog.
func (c *Connection) startDCTimer(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dcTimer != nil {
		c.dcTimer.Stop()
	}
	c.dcTimer = time.AfterFunc(d, c.Close)
}

// StartDCTimer is the exported waypoint entry point (spec.md §4.1:
// 25s on open, 15s after a load message, 60s after dying, 120s after
// winning).
func (c *Connection) StartDCTimer(d time.Duration) { c.startDCTimer(d) }

// StartDCTimerIndependent schedules a second, non-cancelable force-close
// timer. The shutdown hurry-up broadcast does not call it.
func (c *Connection) StartDCTimerIndependent(d time.Duration) {
	time.AfterFunc(d, c.Close)
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			var err error
			if msg.binary != nil {
				err = c.conn.WriteMessage(websocket.BinaryMessage, msg.binary)
			} else {
				err = c.conn.WriteJSON(msg.json)
			}
			if err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop drives the connection until the socket closes, draining
// binary frames through protocol.Drain and dispatching JSON messages
// by state (spec.md §4.1).
func (c *Connection) ReadLoop(d Dispatcher) {
	defer func() {
		d.OnDisconnect(c)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	d.OnConnect(c)
	c.startDCTimer(25 * time.Second)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.TextMessage:
			var env protocol.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				c.log.Trace("transport: decoding envelope", err)
				c.Close()
				return
			}
			switch c.State() {
			case protocol.StateLobby:
				if !protocol.Allowed(protocol.StateLobby, env.Type) {
					// wrong-state message: protocol violation (spec.md §9).
					return
				}
				d.HandleLobbyMessage(c, env.Type, data)
			case protocol.StateInGame:
				if !protocol.Allowed(protocol.StateInGame, env.Type) {
					return
				}
				d.HandleGameMessage(c, env.Type, data)
			}

		case websocket.BinaryMessage:
			if c.State() != protocol.StateInGame {
				continue
			}
			c.recvBuf = append(c.recvBuf, data...)
			frames, consumed, err := protocol.Drain(c.recvBuf)
			if err == protocol.ErrUnknownOpcode {
				// spec.md §4.1: clear the buffer, drop the batch, keep
				// the socket open.
				c.recvBuf = nil
				continue
			}
			c.recvBuf = c.recvBuf[consumed:]
			for _, f := range frames {
				d.HandleBinaryFrame(c, f.Op, f.Payload)
			}
		}
	}
}
