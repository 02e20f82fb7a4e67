package main

import (
	"encoding/hex"
	"testing"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID(8)
		if len(id) != 16 {
			t.Fatalf("expected 16 hex chars, got %q", id)
		}
		if _, err := hex.DecodeString(id); err != nil {
			t.Fatalf("expected hex id, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
