package history

import (
	"testing"
)

func TestPushAndCurrent(t *testing.T) {
	h := New()

	if _, ok := h.Current(); ok {
		t.Error("empty history should have no current entry")
	}

	h.Push("user_1")
	h.Push("user_1/docs")

	entry, ok := h.Current()
	if !ok || entry.Path != "user_1/docs" {
		t.Fatalf("Current = %+v, want user_1/docs", entry)
	}
	if !entry.ClientNavigation {
		t.Error("pushed entries must carry the clientNavigation flag")
	}
	if entry.Timestamp.IsZero() {
		t.Error("pushed entries must carry a timestamp")
	}
	if h.CurrentURL() != "/dateien/docs" {
		t.Errorf("CurrentURL = %q, want /dateien/docs", h.CurrentURL())
	}
}

func TestBackForwardReplay(t *testing.T) {
	h := New()
	h.Push("user_1")
	h.Push("user_1/docs")
	h.Push("user_1/docs/2024")

	entry, ok := h.Back()
	if !ok || entry.Path != "user_1/docs" {
		t.Fatalf("Back = %+v, want user_1/docs", entry)
	}

	entry, ok = h.Back()
	if !ok || entry.Path != "user_1" {
		t.Fatalf("second Back = %+v, want user_1", entry)
	}

	if _, ok := h.Back(); ok {
		t.Error("Back past the first entry should fail")
	}

	entry, ok = h.Forward()
	if !ok || entry.Path != "user_1/docs" {
		t.Fatalf("Forward = %+v, want user_1/docs", entry)
	}
}

func TestPushTruncatesForwardEntries(t *testing.T) {
	h := New()
	h.Push("user_1")
	h.Push("user_1/a")
	h.Push("user_1/b")

	h.Back() // now at user_1/a
	h.Push("user_1/c")

	if h.CanForward() {
		t.Error("push after back must drop forward entries")
	}
	if h.Len() != 3 {
		t.Errorf("Len = %d, want 3", h.Len())
	}

	entry, _ := h.Current()
	if entry.Path != "user_1/c" {
		t.Errorf("Current = %q, want user_1/c", entry.Path)
	}
}

func TestReplaceDoesNotGrow(t *testing.T) {
	h := New()
	h.Replace("user_1")
	h.Replace("user_1/docs")

	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1 after two replaces", h.Len())
	}
	entry, _ := h.Current()
	if entry.Path != "user_1/docs" {
		t.Errorf("Current = %q", entry.Path)
	}
}

func TestResolveHardRefresh(t *testing.T) {
	h := New()

	path, err := h.Resolve("/dateien/invoices/2024", "42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "user_42/invoices/2024" {
		t.Errorf("path = %q", path)
	}

	entry, ok := h.Current()
	if !ok || entry.Path != path {
		t.Error("Resolve should seed the history")
	}

	if _, err := h.Resolve("/einstellungen", "42"); err == nil {
		t.Error("Resolve must reject URLs outside /dateien")
	}
}
