package abuse

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BlockEntry is one row of blocked.json: [address, name, reason].
type BlockEntry struct {
	Address string
	Name    string
	Reason  string
}

func (e *BlockEntry) UnmarshalJSON(data []byte) error {
	var triple [3]string
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	e.Address, e.Name, e.Reason = triple[0], triple[1], triple[2]
	return nil
}

func (e BlockEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{e.Address, e.Name, e.Reason})
}

// BlockList is the persistent address block list of spec.md §7's
// "blocked.json (array of [address, name, reason])".
type BlockList struct {
	mu      sync.RWMutex
	path    string
	entries map[string]BlockEntry
}

// LoadBlockList reads blocked.json from path. A missing file is not an
// error; it yields an empty list.
func LoadBlockList(path string) (*BlockList, error) {
	bl := &BlockList{path: path, entries: make(map[string]BlockEntry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return bl, nil
	}
	if err != nil {
		return nil, fmt.Errorf("abuse: reading %s: %w", path, err)
	}

	var list []BlockEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("abuse: parsing %s: %w", path, err)
	}
	for _, e := range list {
		bl.entries[e.Address] = e
	}
	return bl, nil
}

// Blocked reports whether address is on the persistent block list.
func (bl *BlockList) Blocked(address string) bool {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	_, ok := bl.entries[address]
	return ok
}

// Add appends address to the list and persists it to disk.
func (bl *BlockList) Add(address, name, reason string) error {
	bl.mu.Lock()
	bl.entries[address] = BlockEntry{Address: address, Name: name, Reason: reason}
	list := make([]BlockEntry, 0, len(bl.entries))
	for _, e := range bl.entries {
		list = append(list, e)
	}
	bl.mu.Unlock()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("abuse: marshaling block list: %w", err)
	}
	if err := os.WriteFile(bl.path, data, 0o644); err != nil {
		return fmt.Errorf("abuse: writing %s: %w", bl.path, err)
	}
	return nil
}
