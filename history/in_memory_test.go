package history

import (
	"testing"

	"github.com/convocli/convo/core"
)

// Interface compliance (compile-time assertions).
var (
	_ core.Store = (*InMemoryStore)(nil)
	_ core.Store = (*FileStore)(nil)
)

func TestInMemoryStore_AppendAndEvict(t *testing.T) {
	s := NewInMemoryStore(2)
	for _, content := range []string{"a", "b", "c"} {
		if err := s.Append(core.NewTurn(core.RoleUser, content)); err != nil {
			t.Fatal(err)
		}
	}
	h, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].Content != "b" {
		t.Errorf("expected [b c], got %+v", h)
	}
	if err := h.Validate(); err != nil {
		t.Errorf("evicted history should stay gapless: %v", err)
	}
}

func TestInMemoryStore_ClearAndRecover(t *testing.T) {
	s := NewInMemoryStore(10)
	if err := s.Append(core.NewTurn(core.RoleUser, "keep")); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	h, _ := s.Load()
	if len(h) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(h))
	}
	restored, err := s.RecoverFromLatestBackup()
	if err != nil {
		t.Fatal(err)
	}
	if len(restored) != 1 || restored[0].Content != "keep" {
		t.Errorf("restored = %+v", restored)
	}
}

func TestInMemoryStore_SnapshotIsolation(t *testing.T) {
	s := NewInMemoryStore(10)
	if err := s.Append(core.NewTurn(core.RoleUser, "original")); err != nil {
		t.Fatal(err)
	}
	h, _ := s.Load()
	h[0].Content = "mutated"
	h2, _ := s.Load()
	if h2[0].Content != "original" {
		t.Error("loaded snapshot should be isolated from caller mutation")
	}
}
