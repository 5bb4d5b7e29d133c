package world

import "testing"

func makeZone(rows, cols int) *Zone {
	data := make([][]int32, rows)
	for i := range data {
		data[i] = make([]int32, cols)
	}
	return &Zone{Layers: []Layer{{Z: 0, Data: data}}, Objects: make(map[uint32]uint8)}
}

// Scenario 3 (spec.md §8): coin-block hit at (x=5,y=2) zoneHeight=10.
func TestApplyTileHit_CoinBlock(t *testing.T) {
	z := makeZone(10, 10)
	code := TileCode{ExtraData: 0, ID: TileCoinBlock}
	y := 10 - 1 - 2
	z.Layers[0].Data[y][5] = code.Encode()

	result, err := ApplyTileHit(z, 10, 5, 2)
	if err != nil {
		t.Fatalf("ApplyTileHit: %v", err)
	}
	if !result.AwardedCoin {
		t.Fatalf("expected coin award")
	}
	if z.Layers[0].Data[y][5] != BrokenTileCode {
		t.Fatalf("expected tile to become %d, got %d", BrokenTileCode, z.Layers[0].Data[y][5])
	}
}

// Scenario 4: multi-coin block exhaustion across four hits.
func TestApplyTileHit_MultiCoinExhaustion(t *testing.T) {
	z := makeZone(10, 10)
	code := TileCode{ExtraData: 3, ID: TileMultiCoinBlock}
	z.Layers[0].Data[0][0] = code.Encode()

	wantExtra := []uint8{2, 1, 0}
	for i, want := range wantExtra {
		result, err := ApplyTileHit(z, 10, 0, 9)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !result.AwardedCoin {
			t.Fatalf("hit %d: expected coin award", i)
		}
		got := DecodeTileCode(z.Layers[0].Data[0][0])
		if want == 0 {
			if z.Layers[0].Data[0][0] != BrokenTileCode {
				t.Fatalf("hit %d: expected broken tile, got %d", i, z.Layers[0].Data[0][0])
			}
		} else if got.ExtraData != want {
			t.Fatalf("hit %d: expected extraData=%d, got %d", i, want, got.ExtraData)
		}
	}

	// fourth hit: tile already broken, awards nothing, stays broken.
	result, err := ApplyTileHit(z, 10, 0, 9)
	if err != nil {
		t.Fatalf("fourth hit: %v", err)
	}
	if result.AwardedCoin {
		t.Fatalf("fourth hit should not award a coin")
	}
	if z.Layers[0].Data[0][0] != BrokenTileCode {
		t.Fatalf("expected tile to remain broken")
	}
}

func TestApplyTileHit_ItemBlockOidQuirk(t *testing.T) {
	z := makeZone(10, 10)
	code := TileCode{ExtraData: 42, ID: TileItemBlock}
	zoneHeight := 10
	posX, posYRaw := uint16(3), uint16(7)
	y := zoneHeight - 1 - int(posYRaw)
	z.Layers[0].Data[y][posX] = code.Encode()

	result, err := ApplyTileHit(z, zoneHeight, posX, posYRaw)
	if err != nil {
		t.Fatalf("ApplyTileHit: %v", err)
	}
	if result.Powerup == nil {
		t.Fatalf("expected a power-up spawn")
	}
	if result.Powerup.Type != 42 {
		t.Fatalf("expected power-up type 42, got %d", result.Powerup.Type)
	}
	// Pinned quirk: the oid is keyed by the raw (un-flipped) y, not the
	// y used to locate the tile itself.
	wantOID := PowerupOID(posX, posYRaw)
	if result.Powerup.OID != wantOID {
		t.Fatalf("expected oid %d, got %d", wantOID, result.Powerup.OID)
	}
	if z.Layers[0].Data[y][posX] != BrokenTileCode {
		t.Fatalf("expected tile to break")
	}
}
