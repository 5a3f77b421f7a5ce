package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"julesctl/internal/types"
)

func loadAccounts(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.openAccounts()
	m.Update(cmd())
}

func TestAccountsAddFlow(t *testing.T) {
	accounts := &fakeAccountAPI{}
	m := newTestModel(t, &fakeSessionAPI{}, Options{Accounts: accounts})
	loadAccounts(t, m)

	m.handleKey(keyRune('a'))
	if !m.accounts.adding {
		t.Fatalf("expected add form")
	}
	m.accounts.nameInput.SetValue("work")
	m.handleKey(keyCode(tea.KeyEnter))
	if !m.accounts.keyFocus {
		t.Fatalf("expected enter on name to move to the key field")
	}
	m.accounts.keyInput.SetValue("abcd1234efgh")
	cmd := m.handleKey(keyCode(tea.KeyEnter))
	if cmd == nil {
		t.Fatalf("expected add command")
	}
	if m.accounts.adding || m.accounts.keyInput.Value() != "" {
		t.Fatalf("expected form closed and key cleared")
	}
	m.Update(cmd())
	if len(accounts.accounts) != 1 || accounts.activeID != "id-work" {
		t.Fatalf("unexpected accounts: %#v active=%q", accounts.accounts, accounts.activeID)
	}
	m.Update(fetchAccountsCmd(accounts)())
	view := ansi.Strip(m.renderAccounts())
	if !strings.Contains(view, "work") || strings.Contains(view, "abcd1234efgh") {
		t.Fatalf("expected masked account row, got %q", view)
	}
}

func TestAccountsActivateAndRemove(t *testing.T) {
	accounts := &fakeAccountAPI{
		accounts: []types.Account{{ID: "a1", Name: "one", APIKey: "k1"}, {ID: "a2", Name: "two", APIKey: "k2"}},
		activeID: "a1",
	}
	m := newTestModel(t, &fakeSessionAPI{}, Options{Accounts: accounts})
	loadAccounts(t, m)

	m.handleKey(keyRune('j'))
	cmd := m.handleKey(keyCode(tea.KeyEnter))
	if cmd == nil {
		t.Fatalf("expected activate command")
	}
	cmd()
	if accounts.activeID != "a2" {
		t.Fatalf("expected a2 active, got %q", accounts.activeID)
	}

	if cmd := m.handleKey(keyRune('x')); cmd != nil {
		t.Fatalf("expected first x to only arm removal")
	}
	cmd = m.handleKey(keyRune('x'))
	if cmd == nil {
		t.Fatalf("expected second x to remove")
	}
	cmd()
	if len(accounts.accounts) != 1 || accounts.accounts[0].ID != "a1" {
		t.Fatalf("unexpected accounts after remove: %#v", accounts.accounts)
	}
}

func TestAccountsRemoveConfirmationResetsOnOtherKeys(t *testing.T) {
	accounts := &fakeAccountAPI{accounts: []types.Account{{ID: "a1", Name: "one", APIKey: "k1"}}}
	m := newTestModel(t, &fakeSessionAPI{}, Options{Accounts: accounts})
	loadAccounts(t, m)

	m.handleKey(keyRune('x'))
	m.handleKey(keyRune('k'))
	if cmd := m.handleKey(keyRune('x')); cmd != nil {
		t.Fatalf("expected confirmation to be re-armed, not executed")
	}
	if len(accounts.accounts) != 1 {
		t.Fatalf("expected account kept")
	}
}
