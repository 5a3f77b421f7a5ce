package app

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"julesctl/internal/logging"
	"julesctl/internal/types"
)

type accountsView struct {
	accounts      []types.Account
	activeID      string
	cursor        int
	loading       bool
	confirmRemove string

	adding    bool
	keyFocus  bool
	nameInput textinput.Model
	keyInput  textinput.Model
}

func newAccountsView() *accountsView {
	name := textinput.New()
	name.Prompt = "name › "
	name.Placeholder = "work"
	key := textinput.New()
	key.Prompt = "api key › "
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	return &accountsView{nameInput: name, keyInput: key}
}

func (v *accountsView) resize(width int) {
	v.nameInput.SetWidth(max(10, width-14))
	v.keyInput.SetWidth(max(10, width-14))
}

func (v *accountsView) selected() (types.Account, bool) {
	if v.cursor < 0 || v.cursor >= len(v.accounts) {
		return types.Account{}, false
	}
	return v.accounts[v.cursor], true
}

func (v *accountsView) startAdding() tea.Cmd {
	v.adding = true
	v.keyFocus = false
	v.nameInput.SetValue("")
	v.keyInput.SetValue("")
	v.keyInput.Blur()
	return v.nameInput.Focus()
}

func (v *accountsView) stopAdding() {
	v.adding = false
	v.nameInput.Blur()
	v.keyInput.Blur()
	v.keyInput.SetValue("")
}

func (v *accountsView) toggleField() tea.Cmd {
	v.keyFocus = !v.keyFocus
	if v.keyFocus {
		v.nameInput.Blur()
		return v.keyInput.Focus()
	}
	v.keyInput.Blur()
	return v.nameInput.Focus()
}

func (v *accountsView) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if v.keyFocus {
		v.keyInput, cmd = v.keyInput.Update(msg)
	} else {
		v.nameInput, cmd = v.nameInput.Update(msg)
	}
	return cmd
}

func (m *Model) openAccounts() tea.Cmd {
	m.screen = screenAccounts
	m.accounts.loading = true
	m.accounts.confirmRemove = ""
	m.accounts.stopAdding()
	return fetchAccountsCmd(m.accountAPI)
}

func (m *Model) applyAccounts(msg accountsMsg) {
	v := m.accounts
	v.loading = false
	if msg.err != nil {
		m.logger.Warn("load accounts failed", logging.Err(msg.err))
		m.showErrorToast("load accounts failed: " + msg.err.Error())
		return
	}
	v.accounts = msg.accounts
	v.activeID = msg.activeID
	v.cursor = clamp(v.cursor, 0, len(v.accounts)-1)
}

func (m *Model) applyAccountChange(msg accountChangedMsg) tea.Cmd {
	if msg.err != nil {
		m.showErrorToast(msg.err.Error())
		return nil
	}
	m.showInfoToast(msg.status)
	m.accounts.loading = true
	m.sessions.loading = true
	return tea.Batch(fetchAccountsCmd(m.accountAPI), fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize))
}

func (m *Model) handleAccountsKey(msg tea.KeyPressMsg) tea.Cmd {
	v := m.accounts
	if v.adding {
		switch msg.String() {
		case "esc":
			v.stopAdding()
			return nil
		case "tab", "shift+tab":
			return v.toggleField()
		case "enter":
			if !v.keyFocus {
				return v.toggleField()
			}
			name := strings.TrimSpace(v.nameInput.Value())
			apiKey := strings.TrimSpace(v.keyInput.Value())
			if name == "" || apiKey == "" {
				m.showWarningToast("name and api key are required")
				return nil
			}
			v.stopAdding()
			return addAccountCmd(m.accountAPI, name, apiKey)
		}
		return v.updateFocused(msg)
	}

	key := msg.String()
	if key != "x" && key != "y" {
		v.confirmRemove = ""
	}
	switch key {
	case "esc", "q":
		m.screen = screenSessions
		return nil
	case "j", "down":
		v.cursor = clamp(v.cursor+1, 0, len(v.accounts)-1)
	case "k", "up":
		v.cursor = clamp(v.cursor-1, 0, len(v.accounts)-1)
	case "a":
		return v.startAdding()
	case "enter", "u":
		account, ok := v.selected()
		if !ok || account.ID == v.activeID {
			return nil
		}
		return activateAccountCmd(m.accountAPI, account.ID, account.Name)
	case "x", "y":
		account, ok := v.selected()
		if !ok {
			return nil
		}
		if v.confirmRemove != account.ID {
			if key == "x" {
				v.confirmRemove = account.ID
				m.showWarningToast(fmt.Sprintf("press x again to remove %s", account.Name))
			}
			return nil
		}
		v.confirmRemove = ""
		return removeAccountCmd(m.accountAPI, account.ID, account.Name)
	}
	return nil
}

func (m *Model) renderAccounts() string {
	v := m.accounts
	lines := []string{headerStyle.Render("julesctl · accounts"), m.divider()}
	switch {
	case v.loading && len(v.accounts) == 0:
		lines = append(lines, statusStyle.Render("Loading accounts…"))
	case len(v.accounts) == 0:
		lines = append(lines, statusStyle.Render("No accounts. Press a to add one."))
	default:
		nameWidth := max(8, min(30, m.width/3))
		for i, account := range v.accounts {
			marker := "  "
			if account.ID == v.activeID {
				marker = activeAccountStyle.Render("● ")
			}
			row := padToWidth(account.Name, nameWidth) + " " + statusStyle.Render(account.MaskedKey())
			if i == v.cursor {
				row = selectedStyle.Render(row)
			}
			lines = append(lines, marker+row)
		}
	}
	if v.adding {
		lines = append(lines, "", v.nameInput.View(), v.keyInput.View())
	}
	lines = append(lines, m.divider())
	help := "enter use · a add · x remove · esc back"
	if v.adding {
		help = "tab switch field · enter save · esc cancel"
	}
	lines = append(lines, helpStyle.Render(help))
	return strings.Join(lines, "\n")
}
