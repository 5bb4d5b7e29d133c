package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// Opcode identifies a fixed-length binary record per spec.md §6. Every
// opcode is handled exhaustively by the match package; an unknown
// opcode is a protocol violation (spec.md §7): the receive buffer is
// cleared and the frame-batch dropped without closing the socket.
type Opcode byte

const (
	OpAssignPID          Opcode = 0x02
	OpCreatePlayerObject Opcode = 0x10
	OpKillPlayerObject   Opcode = 0x11
	OpUpdatePlayerObject Opcode = 0x12
	OpPlayerObjectEvent  Opcode = 0x13
	OpKillClaim          Opcode = 0x17
	OpResult             Opcode = 0x18
	OpTrustPing          Opcode = 0x19
	OpObjectEvent        Opcode = 0x20
	OpTileEvent          Opcode = 0x30
)

// payloadLen is the number of bytes following the opcode for each
// known fixed-length binary record.
var payloadLen = map[Opcode]int{
	OpAssignPID:          5,  // int16 pid, int16 skin, int8 isDev
	OpCreatePlayerObject: 9,  // int8 level, int8 zone, shor2(x,y)=4, int16 skin, int8 isDev
	OpKillPlayerObject:   0,  // inbound is opcode-only (self-death report); the int16 pid shape below is the outbound broadcast only, built directly by EncodeKillPlayerObject
	OpUpdatePlayerObject: 12, // int8 level, int8 zone, vec2(x,y)=8, int8 sprite, bool reverse
	OpPlayerObjectEvent:  1,  // int8 type
	OpKillClaim:          2,  // int16 victimPid
	OpResult:             4,  // client always sends 4 bytes here; none of them are read (rank is server-assigned)
	OpTrustPing:          0,
	OpObjectEvent:        7, // int8 level, int8 zone, int32 oid, int8 type
	OpTileEvent:          7, // int8 level, int8 zone, shor2 pos(4), int8 type
}

var ErrUnknownOpcode = errors.New("protocol: unknown opcode")
var ErrShortFrame = errors.New("protocol: short frame")

// Frame is a decoded binary record: the opcode plus its raw payload
// (not including the opcode byte itself).
type Frame struct {
	Op      Opcode
	Payload []byte
}

// Drain pulls complete records off buf in order, returning the
// decoded frames and the number of bytes consumed. On an unknown
// opcode it returns ErrUnknownOpcode with zero frames and the full
// buffer length consumed, so the caller clears the buffer per
// spec.md §4.1 ("an unknown opcode clears the buffer and drops the
// frame-batch, but does not close the socket").
func Drain(buf []byte) ([]Frame, int, error) {
	var frames []Frame
	pos := 0

	for pos < len(buf) {
		op := Opcode(buf[pos])
		need, known := payloadLen[op]
		if !known {
			return frames, len(buf), ErrUnknownOpcode
		}
		if pos+1+need > len(buf) {
			// incomplete record; stop, keep unread bytes for next read
			return frames, pos, nil
		}
		frames = append(frames, Frame{
			Op:      op,
			Payload: buf[pos+1 : pos+1+need],
		})
		pos += 1 + need
	}

	return frames, pos, nil
}

// ---- payload decoders ----

type UpdatePlayerObject struct {
	Level, Zone    uint8
	X, Y           float32
	Sprite         uint8
	Reverse        bool
}

func DecodeUpdatePlayerObject(p []byte) (UpdatePlayerObject, error) {
	if len(p) != payloadLen[OpUpdatePlayerObject] {
		return UpdatePlayerObject{}, ErrShortFrame
	}
	return UpdatePlayerObject{
		Level:   p[0],
		Zone:    p[1],
		X:       math.Float32frombits(binary.LittleEndian.Uint32(p[2:6])),
		Y:       math.Float32frombits(binary.LittleEndian.Uint32(p[6:10])),
		Sprite:  p[10],
		Reverse: p[11] != 0,
	}, nil
}

type CreatePlayerObject struct {
	Level, Zone uint8
	X, Y        uint16
	Skin        int16
	IsDev       bool
}

func DecodeCreatePlayerObject(p []byte) (CreatePlayerObject, error) {
	if len(p) != payloadLen[OpCreatePlayerObject] {
		return CreatePlayerObject{}, ErrShortFrame
	}
	return CreatePlayerObject{
		Level: p[0],
		Zone:  p[1],
		X:     binary.LittleEndian.Uint16(p[2:4]),
		Y:     binary.LittleEndian.Uint16(p[4:6]),
		Skin:  int16(binary.LittleEndian.Uint16(p[6:8])),
		IsDev: p[8] != 0,
	}, nil
}

func DecodePlayerObjectEvent(p []byte) (typ uint8, err error) {
	if len(p) != payloadLen[OpPlayerObjectEvent] {
		return 0, ErrShortFrame
	}
	return p[0], nil
}

func EncodePlayerObjectEvent(senderPID int16, typ uint8) []byte {
	b := make([]byte, 1+2+1)
	b[0] = byte(OpPlayerObjectEvent)
	binary.LittleEndian.PutUint16(b[1:3], uint16(senderPID))
	b[3] = typ
	return b
}

type ObjectEvent struct {
	Level, Zone uint8
	OID         uint32
	Type        uint8
}

func DecodeObjectEvent(p []byte) (ObjectEvent, error) {
	if len(p) != payloadLen[OpObjectEvent] {
		return ObjectEvent{}, ErrShortFrame
	}
	return ObjectEvent{
		Level: p[0],
		Zone:  p[1],
		OID:   binary.LittleEndian.Uint32(p[2:6]),
		Type:  p[6],
	}, nil
}

type TileEvent struct {
	Level, Zone uint8
	PosX, PosY  uint16
	Type        uint8
}

func DecodeTileEvent(p []byte) (TileEvent, error) {
	if len(p) != payloadLen[OpTileEvent] {
		return TileEvent{}, ErrShortFrame
	}
	return TileEvent{
		Level: p[0],
		Zone:  p[1],
		PosX:  binary.LittleEndian.Uint16(p[2:4]),
		PosY:  binary.LittleEndian.Uint16(p[4:6]),
		Type:  p[6],
	}, nil
}

func DecodeKillClaim(p []byte) (victimPID int16, err error) {
	if len(p) != payloadLen[OpKillClaim] {
		return 0, ErrShortFrame
	}
	return int16(binary.LittleEndian.Uint16(p)), nil
}

func DecodeResult(p []byte) (pos uint8, err error) {
	if len(p) != payloadLen[OpResult] {
		return 0, ErrShortFrame
	}
	return p[0], nil
}

// ---- encoders ----

func EncodeAssignPID(pid int16, skin int16, isDev bool) []byte {
	b := make([]byte, 1+5)
	b[0] = byte(OpAssignPID)
	binary.LittleEndian.PutUint16(b[1:3], uint16(pid))
	binary.LittleEndian.PutUint16(b[3:5], uint16(skin))
	if isDev {
		b[5] = 1
	}
	return b
}

func EncodeCreatePlayerObject(level, zone uint8, x, y uint16, skin int16, isDev bool) []byte {
	b := make([]byte, 1+9)
	b[0] = byte(OpCreatePlayerObject)
	b[1] = level
	b[2] = zone
	binary.LittleEndian.PutUint16(b[3:5], x)
	binary.LittleEndian.PutUint16(b[5:7], y)
	binary.LittleEndian.PutUint16(b[7:9], uint16(skin))
	if isDev {
		b[9] = 1
	}
	return b
}

func EncodeKillPlayerObject(pid int16) []byte {
	b := make([]byte, 1+2)
	b[0] = byte(OpKillPlayerObject)
	binary.LittleEndian.PutUint16(b[1:3], uint16(pid))
	return b
}

// EncodeResult broadcasts a finisher's podium placement: int16 pid,
// int8 pos, int8 reserved (always 0).
func EncodeResult(pid int16, pos uint8) []byte {
	b := make([]byte, 1+4)
	b[0] = byte(OpResult)
	binary.LittleEndian.PutUint16(b[1:3], uint16(pid))
	b[3] = pos
	b[4] = 0
	return b
}

// EncodeUpdatePlayerObject re-serializes a movement frame, used both
// for normal fan-out and for synthetic warp notifications (spec.md
// §4.4, scenario 5) where the level/zone fields differ from the raw
// packet the sender transmitted.
func EncodeUpdatePlayerObject(level, zone uint8, x, y float32, sprite uint8, reverse bool) []byte {
	b := make([]byte, 1+12)
	b[0] = byte(OpUpdatePlayerObject)
	b[1] = level
	b[2] = zone
	binary.LittleEndian.PutUint32(b[3:7], math.Float32bits(x))
	binary.LittleEndian.PutUint32(b[7:11], math.Float32bits(y))
	b[11] = sprite
	if reverse {
		b[12] = 1
	}
	return b
}

func EncodeObjectEvent(senderPID int16, level, zone uint8, oid uint32, typ uint8) []byte {
	b := make([]byte, 1+2+7)
	b[0] = byte(OpObjectEvent)
	binary.LittleEndian.PutUint16(b[1:3], uint16(senderPID))
	b[3] = level
	b[4] = zone
	binary.LittleEndian.PutUint32(b[5:9], oid)
	b[9] = typ
	return b
}

func EncodeTileEvent(senderPID int16, level, zone uint8, posX, posY uint16, typ uint8) []byte {
	b := make([]byte, 1+2+7)
	b[0] = byte(OpTileEvent)
	binary.LittleEndian.PutUint16(b[1:3], uint16(senderPID))
	b[3] = level
	b[4] = zone
	binary.LittleEndian.PutUint16(b[5:7], posX)
	binary.LittleEndian.PutUint16(b[7:9], posY)
	b[9] = typ
	return b
}
