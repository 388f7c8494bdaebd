// Package navmenu holds the open/closed state of the navigation menu
// dropdowns. The store is explicitly constructed and passed to whoever
// renders the menu; there is no package-level instance.
package navmenu

import (
	"sync"

	"github.com/hausakte/hausakte/internal/logging"
)

// DropdownNone marks the state with every dropdown closed.
const DropdownNone = "none"

// Menu tracks which dropdown is open. At most one dropdown is open at
// a time; opening one closes the others.
type Menu struct {
	mu     sync.Mutex
	active string
	scopes map[*FocusScope]struct{}
	logger *logging.Logger
}

// NewMenu creates a menu store with all dropdowns closed.
func NewMenu() *Menu {
	return &Menu{
		active: DropdownNone,
		scopes: make(map[*FocusScope]struct{}),
		logger: logging.NewLogger("navmenu"),
	}
}

// ActiveDropdown returns the id of the open dropdown, or DropdownNone.
func (m *Menu) ActiveDropdown() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Toggle opens the dropdown with the given id, or closes it when it is
// already open.
func (m *Menu) Toggle(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == id {
		m.active = DropdownNone
		return
	}
	m.active = id
}

// Open opens the dropdown with the given id, closing any other.
func (m *Menu) Open(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = id
}

// CloseAll closes every dropdown. Safe to call at any time, in any
// state, any number of times.
func (m *Menu) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = DropdownNone
}

// IsOpen reports whether the dropdown with the given id is open.
func (m *Menu) IsOpen(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active == id
}

// FocusScope is an acquired outside-interaction listener. While held,
// interactions outside the dropdown close the menu via Dismiss. Release
// detaches the listener; the pairing is explicit so a scope can never
// leak past the dropdown that acquired it.
type FocusScope struct {
	menu     *Menu
	onClose  func()
	released bool
	mu       sync.Mutex
}

// AcquireFocus registers an outside-interaction listener for the
// currently opening dropdown. onClose is invoked when the scope
// dismisses, after the menu state has been reset. It may be nil.
func (m *Menu) AcquireFocus(onClose func()) *FocusScope {
	scope := &FocusScope{menu: m, onClose: onClose}

	m.mu.Lock()
	m.scopes[scope] = struct{}{}
	m.mu.Unlock()

	return scope
}

// Dismiss reacts to an interaction outside the dropdown: it closes the
// menu and releases the scope. Dismissing a released scope is a no-op.
func (s *FocusScope) Dismiss() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	onClose := s.onClose
	s.mu.Unlock()

	s.menu.mu.Lock()
	delete(s.menu.scopes, s)
	s.menu.active = DropdownNone
	s.menu.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// Release detaches the scope without closing the menu. Called when the
// dropdown closes through its own controls. Idempotent.
func (s *FocusScope) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	s.menu.mu.Lock()
	delete(s.menu.scopes, s)
	s.menu.mu.Unlock()
}

// ActiveScopes returns the number of scopes currently held. A value
// above one after a dropdown closed indicates a leaked listener.
func (m *Menu) ActiveScopes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}
