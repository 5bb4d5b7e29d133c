package protocol

import "testing"

func TestDrainSingleFrame(t *testing.T) {
	buf := EncodeUpdatePlayerObject(1, 0, 3.5, 4.5, 2, false)

	frames, consumed, err := Drain(buf)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d", consumed, len(buf))
	}
	if len(frames) != 1 || frames[0].Op != OpUpdatePlayerObject {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestDrainMultipleFramesInOneRead(t *testing.T) {
	// inbound tile event: level 0, zone 1, pos (10, 20), type 3
	tile := []byte{byte(OpTileEvent), 0, 1, 10, 0, 20, 0, 3}
	buf := append([]byte{byte(OpKillPlayerObject)}, tile...)

	frames, consumed, err := Drain(buf)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d", consumed, len(buf))
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if frames[0].Op != OpKillPlayerObject || len(frames[0].Payload) != 0 {
		t.Fatalf("frames[0] = %+v, want opcode-only self-death frame", frames[0])
	}
}

func TestDrainIncompleteFrameWaitsForMoreBytes(t *testing.T) {
	full := EncodeUpdatePlayerObject(1, 0, 3.5, 4.5, 2, false)
	partial := full[:len(full)-1]

	frames, consumed, err := Drain(partial)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if consumed != 0 || len(frames) != 0 {
		t.Fatalf("expected no frames consumed from a partial record, got consumed=%d frames=%d", consumed, len(frames))
	}
}

func TestDrainSelfDeathIsOpcodeOnly(t *testing.T) {
	buf := []byte{byte(OpKillPlayerObject)}

	frames, consumed, err := Drain(buf)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if consumed != 1 || len(frames) != 1 || len(frames[0].Payload) != 0 {
		t.Fatalf("frames = %+v, consumed = %d, want a single 0-byte-payload frame", frames, consumed)
	}
}

func TestDrainUnknownOpcodeConsumesWholeBuffer(t *testing.T) {
	buf := []byte{0xFF, 1, 2, 3}

	frames, consumed, err := Drain(buf)
	if err != ErrUnknownOpcode {
		t.Fatalf("err = %v, want ErrUnknownOpcode", err)
	}
	if consumed != len(buf) || len(frames) != 0 {
		t.Fatalf("expected full-buffer consumption with no frames, got consumed=%d frames=%d", consumed, len(frames))
	}
}

func TestUpdatePlayerObjectRoundTrip(t *testing.T) {
	raw := EncodeUpdatePlayerObject(2, 3, 12.5, -4.25, 9, true)

	got, err := DecodeUpdatePlayerObject(raw[1:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := UpdatePlayerObject{Level: 2, Zone: 3, X: 12.5, Y: -4.25, Sprite: 9, Reverse: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCreatePlayerObjectRoundTrip(t *testing.T) {
	raw := EncodeCreatePlayerObject(1, 0, 100, 200, 5, true)

	got, err := DecodeCreatePlayerObject(raw[1:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := CreatePlayerObject{Level: 1, Zone: 0, X: 100, Y: 200, Skin: 5, IsDev: true}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeShortFrameErrors(t *testing.T) {
	if _, err := DecodeUpdatePlayerObject([]byte{1, 2, 3}); err != ErrShortFrame {
		t.Fatalf("err = %v, want ErrShortFrame", err)
	}
	if _, err := DecodeKillClaim([]byte{1}); err != ErrShortFrame {
		t.Fatalf("err = %v, want ErrShortFrame", err)
	}
}

func TestPlayerObjectEventRoundTrip(t *testing.T) {
	typ, err := DecodePlayerObjectEvent([]byte{4})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if typ != 4 {
		t.Fatalf("typ = %d, want 4", typ)
	}

	encoded := EncodePlayerObjectEvent(11, 4)
	if encoded[0] != byte(OpPlayerObjectEvent) {
		t.Fatalf("opcode byte = %x, want %x", encoded[0], OpPlayerObjectEvent)
	}
}
