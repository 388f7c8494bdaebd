package navmenu

import "testing"

func TestMenuStartsClosed(t *testing.T) {
	m := NewMenu()
	if m.ActiveDropdown() != DropdownNone {
		t.Errorf("ActiveDropdown = %q, want %q", m.ActiveDropdown(), DropdownNone)
	}
}

func TestToggleOpensAndCloses(t *testing.T) {
	m := NewMenu()

	m.Toggle("objekte")
	if !m.IsOpen("objekte") {
		t.Fatal("Toggle should open the dropdown")
	}

	// Opening another dropdown closes the first.
	m.Toggle("einstellungen")
	if m.IsOpen("objekte") || !m.IsOpen("einstellungen") {
		t.Error("only one dropdown may be open at a time")
	}

	m.Toggle("einstellungen")
	if m.ActiveDropdown() != DropdownNone {
		t.Error("toggling the open dropdown must close it")
	}
}

func TestCloseAllIsIdempotent(t *testing.T) {
	m := NewMenu()
	m.Open("objekte")

	m.CloseAll()
	m.CloseAll()
	m.CloseAll()

	if m.ActiveDropdown() != DropdownNone {
		t.Errorf("ActiveDropdown = %q after CloseAll", m.ActiveDropdown())
	}
}

func TestFocusScopeDismissClosesMenu(t *testing.T) {
	m := NewMenu()
	m.Open("objekte")

	closed := 0
	scope := m.AcquireFocus(func() { closed++ })
	if m.ActiveScopes() != 1 {
		t.Fatalf("ActiveScopes = %d, want 1", m.ActiveScopes())
	}

	scope.Dismiss()
	if m.ActiveDropdown() != DropdownNone {
		t.Error("dismiss must close the menu")
	}
	if closed != 1 {
		t.Errorf("onClose called %d times, want 1", closed)
	}
	if m.ActiveScopes() != 0 {
		t.Error("dismiss must release the scope")
	}

	// A dismissed scope stays dead.
	m.Open("objekte")
	scope.Dismiss()
	if m.ActiveDropdown() != "objekte" {
		t.Error("a released scope must not close a newly opened dropdown")
	}
	if closed != 1 {
		t.Error("onClose must not fire again")
	}
}

func TestFocusScopeReleaseKeepsMenuState(t *testing.T) {
	m := NewMenu()
	m.Open("objekte")

	scope := m.AcquireFocus(nil)
	scope.Release()
	scope.Release()

	if m.ActiveScopes() != 0 {
		t.Error("release must detach the scope")
	}
	if !m.IsOpen("objekte") {
		t.Error("release alone must not change the menu state")
	}
}

func TestRepeatedOpenCloseLeavesNoScopes(t *testing.T) {
	m := NewMenu()

	for i := 0; i < 5; i++ {
		m.Open("objekte")
		scope := m.AcquireFocus(nil)
		m.CloseAll()
		scope.Release()
	}

	if m.ActiveScopes() != 0 {
		t.Errorf("ActiveScopes = %d, scopes leaked", m.ActiveScopes())
	}
}
