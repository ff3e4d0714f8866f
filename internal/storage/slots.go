package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SlotCount is the fixed number of user-customizable glyph slots.
const SlotCount = 6

// defaultSlots populate the picker when no prior choice was persisted.
var defaultSlots = [SlotCount]string{
	"\U0001F600", // grinning face
	"\U0001F60E", // smiling face with sunglasses
	"\U0001F92A", // zany face
	"\U0001F637", // face with medical mask
	"\U0001F921", // clown face
	"\U0001F47B", // ghost
}

// SlotStore persists the six glyph slots across sessions as a small JSON
// file. Reads return defaults when the file is absent.
type SlotStore struct {
	mu   sync.Mutex
	path string
}

func NewSlotStore(path string) *SlotStore {
	return &SlotStore{path: path}
}

// Load returns the persisted slots, falling back to the defaults for a
// missing file. A corrupt file is an error, not silently reset.
func (s *SlotStore) Load() ([SlotCount]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SlotStore) load() ([SlotCount]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return defaultSlots, nil
	}
	if err != nil {
		return defaultSlots, fmt.Errorf("failed to read glyph slots: %w", err)
	}

	var slots [SlotCount]string
	if err := json.Unmarshal(data, &slots); err != nil {
		return defaultSlots, fmt.Errorf("failed to parse glyph slots: %w", err)
	}

	// Older files may carry empty entries; backfill from defaults so a
	// slot always holds a usable glyph.
	for i, g := range slots {
		if g == "" {
			slots[i] = defaultSlots[i]
		}
	}
	return slots, nil
}

// Assign writes glyph into slot index and persists the full set.
func (s *SlotStore) Assign(index int, glyph string) error {
	if index < 0 || index >= SlotCount {
		return fmt.Errorf("slot index %d out of range [0,%d)", index, SlotCount)
	}
	if glyph == "" {
		return fmt.Errorf("glyph must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.load()
	if err != nil {
		return err
	}
	slots[index] = glyph

	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode glyph slots: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create slots directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write glyph slots: %w", err)
	}
	return nil
}
