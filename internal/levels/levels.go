// Package levels implements match.LevelSource against the levels/*.json
// directory of spec.md §7: hot-reload by mtime, catalog lookup by id,
// and random selection filtered by levelMode. The JSON-schema
// validation spec.md §1 calls out as an external collaborator is
// intentionally thin here — this only checks that a blob parses as
// world.Data, not that it satisfies the full level schema; see
// DESIGN.md for why nothing in the example pack offered a richer
// stand-in.
package levels

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/royaleserver/internal/world"
)

type entry struct {
	data    *world.Data
	modTime time.Time
	mode    string // derived from filename prefix, e.g. "royale_1" -> "royale"
}

// Catalog loads and hot-reloads the level directory, implementing
// match.LevelSource.
type Catalog struct {
	dir string

	mu   sync.RWMutex
	byID map[string]*entry
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, byID: make(map[string]*entry)}
}

// Reload rescans dir, (re-)parsing any file whose mtime has advanced
// since the last scan. Call this from a poll loop (spec.md §7:
// "levels/*.json (hot-reloaded by mtime)").
func (c *Catalog) Reload() error {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("levels: globbing %s: %w", c.dir, err)
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(filepath.Base(path), ".json")

		c.mu.RLock()
		cur, loaded := c.byID[id]
		c.mu.RUnlock()
		if loaded && !info.ModTime().After(cur.modTime) {
			continue
		}

		blob, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		data, err := world.Parse(blob)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.byID[id] = &entry{data: data, modTime: info.ModTime(), mode: levelMode(id)}
		c.mu.Unlock()
	}
	return nil
}

func levelMode(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return id
}

// GetLevel implements match.LevelSource.
func (c *Catalog) GetLevel(id string) (*world.Data, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("levels: no such level %q", id)
	}
	return e.data, nil
}

// GetRandomLevel implements match.LevelSource: a uniform pick among
// every loaded level whose derived mode matches levelMode.
func (c *Catalog) GetRandomLevel(levelMode string) (*world.Data, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var candidates []*entry
	for _, e := range c.byID {
		if e.mode == levelMode {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("levels: no levels loaded for mode %q", levelMode)
	}
	return candidates[rand.Intn(len(candidates))].data, nil
}

// ValidateCustom implements match.LevelSource: the minimal parse-check
// a custom level upload must pass before a room owner can select it
// (spec.md §4.6).
func (c *Catalog) ValidateCustom(blob []byte) error {
	_, err := world.Parse(blob)
	return err
}
