package world

import "fmt"

// PowerupSpawn describes a power-up created by breaking an item block.
type PowerupSpawn struct {
	OID  uint32
	Type uint8
}

// TileHitResult is the outcome of applying §3/§4.4's per-tile-id
// mutation rules to a single tile hit.
type TileHitResult struct {
	AwardedCoin bool
	Powerup     *PowerupSpawn
}

// ApplyTileHit mutates the zone's main layer in place for a TILE_EVENT
// (opcode 0x30) and returns what happened, per spec.md §3/§4.4.
//
// The y index is computed as zoneHeight-1-posYRaw (spec.md §3's
// "tiles[worldId][zoneId][height-1-y][x]" indexing) while any spawned
// power-up is keyed by the raw, un-flipped posYRaw — this mismatch is
// an intentional, preserved quirk (spec.md §9 Open Questions).
func ApplyTileHit(z *Zone, zoneHeight int, posX, posYRaw uint16) (TileHitResult, error) {
	layer := z.MainLayer()
	if layer == nil {
		return TileHitResult{}, fmt.Errorf("world: zone has no main layer")
	}
	y := zoneHeight - 1 - int(posYRaw)
	if y < 0 || y >= len(layer.Data) {
		return TileHitResult{}, fmt.Errorf("world: tile y %d out of range", y)
	}
	row := layer.Data[y]
	if int(posX) >= len(row) {
		return TileHitResult{}, fmt.Errorf("world: tile x %d out of range", posX)
	}

	code := DecodeTileCode(row[posX])
	var result TileHitResult

	switch code.ID {
	case TileItemBlock:
		result.Powerup = &PowerupSpawn{OID: PowerupOID(posX, posYRaw), Type: code.ExtraData}
		row[posX] = BrokenTileCode

	case TileCoinBlock, TileHiddenCoinBlock:
		result.AwardedCoin = true
		row[posX] = BrokenTileCode

	case TileMultiCoinBlock:
		switch {
		case code.ExtraData > 1:
			result.AwardedCoin = true
			code.ExtraData--
			row[posX] = code.Encode()
		case code.ExtraData == 1:
			result.AwardedCoin = true
			row[posX] = BrokenTileCode
		default:
			row[posX] = BrokenTileCode
		}

	default:
		// no mutation rule for this tile id; leave the tile as-is.
	}

	return result, nil
}

// TileAt reads the decoded tile code under a player, using the same
// height-flip indexing as ApplyTileHit, for flagpole-crossing checks
// during movement (spec.md §4.4).
func TileAt(z *Zone, zoneHeight int, posX, posYRaw uint16) (TileCode, bool) {
	layer := z.MainLayer()
	if layer == nil {
		return TileCode{}, false
	}
	y := zoneHeight - 1 - int(posYRaw)
	if y < 0 || y >= len(layer.Data) || int(posX) >= len(layer.Data[y]) {
		return TileCode{}, false
	}
	return DecodeTileCode(layer.Data[y][posX]), true
}
