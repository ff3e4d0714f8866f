package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlotStore_DefaultsWhenFileAbsent(t *testing.T) {
	store := NewSlotStore(filepath.Join(t.TempDir(), "slots.json"))

	slots, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if slots != defaultSlots {
		t.Errorf("got %v, want defaults %v", slots, defaultSlots)
	}
}

func TestSlotStore_AssignPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	store := NewSlotStore(path)

	if err := store.Assign(2, "\U0001F916"); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// A fresh store reading the same file sees the assignment.
	slots, err := NewSlotStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if slots[2] != "\U0001F916" {
		t.Errorf("slot 2 = %q, want robot face", slots[2])
	}
	// Unassigned slots keep their defaults.
	if slots[0] != defaultSlots[0] || slots[5] != defaultSlots[5] {
		t.Error("untouched slots lost their defaults")
	}
}

func TestSlotStore_AssignValidation(t *testing.T) {
	store := NewSlotStore(filepath.Join(t.TempDir(), "slots.json"))

	if err := store.Assign(-1, "x"); err == nil {
		t.Error("negative index should fail")
	}
	if err := store.Assign(SlotCount, "x"); err == nil {
		t.Error("index == SlotCount should fail")
	}
	if err := store.Assign(0, ""); err == nil {
		t.Error("empty glyph should fail")
	}
}

func TestSlotStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSlotStore(path).Load(); err == nil {
		t.Error("corrupt slots file should surface an error")
	}
}
