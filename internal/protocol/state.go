// Package protocol implements the connection state machine and wire
// format described in spec.md §4.1 and §6: a small mixed JSON/binary
// protocol framed over a single WebSocket connection.
package protocol

// State is the coarse phase of a connection's protocol state machine.
// Closed variant set per spec.md §9 ("implement as a closed variant
// set with exhaustive match rather than string-keyed dispatch
// dictionaries") — callers switch on State exhaustively instead of
// consulting a dispatch map.
type State string

const (
	StateLobby  State = "l"
	StateInGame State = "g"
)

// LobbyMessageTypes are the inbound JSON message types accepted while
// in StateLobby.
var LobbyMessageTypes = map[string]bool{
	"l00": true, "llg": true, "llo": true, "lrg": true,
	"lrc": true, "lrs": true, "lpr": true, "lpc": true,
}

// InGameMessageTypes are the inbound JSON message types accepted while
// in StateInGame (in addition to binary opcodes).
var InGameMessageTypes = map[string]bool{
	"g00": true, "g03": true, "g50": true, "g51": true,
	"gsl": true, "gbn": true, "gnm": true, "gsq": true,
}

// Allowed reports whether a JSON message type is valid for state s.
func Allowed(s State, msgType string) bool {
	switch s {
	case StateLobby:
		return LobbyMessageTypes[msgType]
	case StateInGame:
		return InGameMessageTypes[msgType]
	default:
		return false
	}
}
