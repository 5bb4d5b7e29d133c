// Package world holds the authoritative per-match level data: tile
// grids, object/coin/powerup indices, and the mutation rules for
// tile and object events (spec.md §3, §4.4).
//
// Naming note: spec.md overloads "level" both as the whole loaded
// world blob and as the numeric "level" index carried on tile/object
// event payloads (e.g. a multi-floor world has several such indices,
// each itself split into zones). To keep those distinct, this package
// calls the whole blob Data, the per-index sub-area LevelArea, and
// reserves "Level" for nothing — matching spec.md's own
// tiles[worldId][zoneId] / objects[w][z] indexing.
package world

import "encoding/json"

// Layer is one z-ordered layer of a zone. Legacy level files put the
// tile matrix directly on the zone; spec.md §4.3 step 4 requires
// migrating that shape to Layers: [{Z:0, Data: ...}] on load.
type Layer struct {
	Z    int       `json:"z"`
	Data [][]int32 `json:"data"`
}

// Zone is one independently-tiled sub-region of a level area
// (spec.md GLOSSARY).
type Zone struct {
	Layers  []Layer          `json:"layers"`
	Objects map[uint32]uint8 `json:"objects"` // oid -> object type
}

// LevelArea is one numbered "level" (floor/area) of a loaded world,
// holding its zones.
type LevelArea struct {
	Zones map[uint8]*Zone `json:"zones"`
}

// Data is one world's full tile/object data, keyed by level-area id,
// loaded fresh (deep-copied) into each Match on start.
type Data struct {
	World  string                `json:"world"`
	Levels map[uint8]*LevelArea `json:"levels"`
}

// rawZone is the on-disk shape that may carry a legacy "data" field
// directly instead of "layers".
type rawZone struct {
	Data    [][]int32        `json:"data,omitempty"`
	Layers  []Layer          `json:"layers,omitempty"`
	Objects map[uint32]uint8 `json:"objects"`
}

type rawLevelArea struct {
	Zones map[uint8]rawZone `json:"zones"`
}

type rawData struct {
	World  string                  `json:"world"`
	Levels map[uint8]rawLevelArea `json:"levels"`
}

// Parse decodes a level JSON blob and migrates any legacy zone shape
// (spec.md §4.3 step 4: "migrate any legacy zone shape where data sat
// directly on the zone to layers: [{z:0, data}]").
func Parse(blob []byte) (*Data, error) {
	var raw rawData
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, err
	}

	d := &Data{World: raw.World, Levels: make(map[uint8]*LevelArea, len(raw.Levels))}
	for lid, rl := range raw.Levels {
		area := &LevelArea{Zones: make(map[uint8]*Zone, len(rl.Zones))}
		for zid, rz := range rl.Zones {
			z := &Zone{Objects: rz.Objects}
			if z.Objects == nil {
				z.Objects = make(map[uint32]uint8)
			}
			if rz.Data != nil {
				z.Layers = []Layer{{Z: 0, Data: rz.Data}}
			} else {
				z.Layers = rz.Layers
			}
			area.Zones[zid] = z
		}
		d.Levels[lid] = area
	}
	return d, nil
}

// DeepCopy returns an independent copy of the data, as required
// before mutating per-match tile state (spec.md §3 "level: deep-copied
// level data").
func (d *Data) DeepCopy() *Data {
	out := &Data{World: d.World, Levels: make(map[uint8]*LevelArea, len(d.Levels))}
	for lid, area := range d.Levels {
		nArea := &LevelArea{Zones: make(map[uint8]*Zone, len(area.Zones))}
		for zid, z := range area.Zones {
			nz := &Zone{Objects: make(map[uint32]uint8, len(z.Objects))}
			for oid, typ := range z.Objects {
				nz.Objects[oid] = typ
			}
			nz.Layers = make([]Layer, len(z.Layers))
			for i, layer := range z.Layers {
				data := make([][]int32, len(layer.Data))
				for r, row := range layer.Data {
					data[r] = append([]int32(nil), row...)
				}
				nz.Layers[i] = Layer{Z: layer.Z, Data: data}
			}
			nArea.Zones[zid] = nz
		}
		out.Levels[lid] = nArea
	}
	return out
}

// Zone looks up a (level, zone) pair, returning nil if either index
// is absent.
func (d *Data) Zone(level, zone uint8) *Zone {
	area, ok := d.Levels[level]
	if !ok {
		return nil
	}
	return area.Zones[zone]
}

// MainLayer returns the z=0 layer of a zone, which is the layer all
// tile/object mutation in spec.md §4.4 operates against.
func (z *Zone) MainLayer() *Layer {
	for i := range z.Layers {
		if z.Layers[i].Z == 0 {
			return &z.Layers[i]
		}
	}
	return nil
}

// Height returns the row count of the zone's main layer
// (spec.md §3 "zoneHeight[w][z] is the row count of that zone's main
// layer").
func (z *Zone) Height() int {
	if l := z.MainLayer(); l != nil {
		return len(l.Data)
	}
	return 0
}

// TileCode decomposes a packed 32-bit tile code per spec.md §3:
// "extraData<<24 | id<<16 | low16".
type TileCode struct {
	ExtraData uint8
	ID        uint16
	Low16     uint16
}

func DecodeTileCode(v int32) TileCode {
	u := uint32(v)
	return TileCode{
		ExtraData: uint8(u >> 24),
		ID:        uint16(uint8(u >> 16)),
		Low16:     uint16(u),
	}
}

func (t TileCode) Encode() int32 {
	return int32(uint32(t.ExtraData)<<24 | uint32(t.ID)<<16 | uint32(t.Low16))
}

// BrokenTileCode is the fixed code a tile takes after a coin-block or
// item-block hit (spec.md §3, invariant 4).
const BrokenTileCode int32 = 98331

// Tile ids with special mutation rules (spec.md §3).
const (
	TileItemBlock       uint16 = 17
	TileCoinBlock       uint16 = 18
	TileHiddenCoinBlock uint16 = 22
	TileMultiCoinBlock  uint16 = 19
	TileFlagpole        uint16 = 160
)

// ObjectTypeCoin is the object type id that marks an object as a coin
// (spec.md §3: "allcoins[w][z]: set of oids whose type is 97 (coin)").
const ObjectTypeCoin uint8 = 97

// GoldFlowerOID is the special lobby object id that latches
// goldFlowerTaken (spec.md §3, §4.4).
const GoldFlowerOID uint32 = 458761

// PowerupOID encodes the oid for a power-up spawned by breaking an
// item block: x | (y_raw << 16). This mismatches the tile-read
// y (which is flipped) by design — spec.md §9 Open Questions pins this
// quirk as intentional, preserved behavior.
func PowerupOID(x, yRaw uint16) uint32 {
	return uint32(x) | uint32(yRaw)<<16
}
