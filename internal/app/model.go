package app

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"julesctl/internal/client"
	"julesctl/internal/logging"
)

type screen int

const (
	screenSessions screen = iota
	screenDetail
	screenCreate
	screenAccounts
)

const (
	minWidth  = 40
	minHeight = 12
)

type Model struct {
	sessionAPI SessionAPI
	accountAPI AccountAPI
	logger     logging.Logger
	opts       Options

	screen screen
	width  int
	height int

	sessions *sessionsView
	detail   *detailView
	create   *createView
	accounts *accountsView

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
	clock      func() time.Time
}

func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.SessionsPageSize <= 0 {
		opts.SessionsPageSize = client.DefaultSessionsPageSize
	}
	setMarkdownBackgroundDark(opts.DarkMode)
	return Model{
		sessionAPI: opts.Sessions,
		accountAPI: opts.Accounts,
		logger:     opts.Logger,
		opts:       opts,
		screen:     screenSessions,
		width:      80,
		height:     24,
		sessions:   newSessionsView(),
		create:     newCreateView(),
		accounts:   newAccountsView(),
		clock:      time.Now,
	}
}

func (m *Model) now() time.Time {
	if m.clock == nil {
		return time.Now()
	}
	return m.clock()
}

func (m *Model) Init() tea.Cmd {
	m.sessions.loading = true
	return tea.Batch(fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize), tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		return m, tickCmd()
	case sessionsMsg:
		m.sessions.loading = false
		if msg.err != nil {
			m.logger.Warn("list sessions failed", logging.Err(msg.err))
			m.showErrorToast("load sessions failed: " + msg.err.Error())
			return m, nil
		}
		m.sessions.setSessions(msg.sessions)
		return m, nil
	case sourcesMsg:
		return m, m.applySources(msg)
	case createSessionMsg:
		return m, m.applyCreateResult(msg)
	case accountsMsg:
		m.applyAccounts(msg)
		return m, nil
	case accountChangedMsg:
		return m, m.applyAccountChange(msg)
	case loopEventMsg:
		return m, m.applyLoopEvent(msg)
	case sendResultMsg:
		m.applySendResult(msg)
		return m, nil
	case approveResultMsg:
		m.applyApproveResult(msg)
		return m, nil
	case refreshResultMsg:
		if msg.err != nil {
			m.logger.Debug("manual refresh ended", logging.F("session_id", msg.sessionID), logging.Err(msg.err))
		}
		return m, nil
	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	return m, m.forwardToFocusedInput(msg)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return tea.Quit
	}
	switch m.screen {
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenCreate:
		return m.handleCreateKey(msg)
	case screenAccounts:
		return m.handleAccountsKey(msg)
	default:
		return m.handleSessionsKey(msg)
	}
}

func (m *Model) forwardToFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.screen {
	case screenSessions:
		if m.sessions.searching {
			m.sessions.search, cmd = m.sessions.search.Update(msg)
		}
	case screenDetail:
		if m.detail != nil && m.detail.inputFocused {
			m.detail.input, cmd = m.detail.input.Update(msg)
		}
	case screenCreate:
		cmd = m.create.updateFocused(msg)
	case screenAccounts:
		if m.accounts.adding {
			cmd = m.accounts.updateFocused(msg)
		}
	}
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width = max(minWidth, width)
	m.height = max(minHeight, height)
	m.sessions.resize(m.width)
	m.create.resize(m.width)
	m.accounts.resize(m.width)
	if m.detail != nil {
		m.detail.resize(m.width, m.detailViewportHeight())
		m.detail.refreshContent(m.width)
	}
}

// shutdown stops the active reconcile loop, if any.
func (m *Model) shutdown() {
	if m.detail != nil {
		m.detail.close()
	}
}

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) render() string {
	var body string
	switch m.screen {
	case screenDetail:
		body = m.renderDetail()
	case screenCreate:
		body = m.renderCreate()
	case screenAccounts:
		body = m.renderAccounts()
	default:
		body = m.renderSessions()
	}
	parts := []string{body}
	if toast := m.toastLine(m.width); toast != "" {
		parts = append(parts, toast)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) divider() string {
	return dividerStyle.Render(strings.Repeat("─", max(1, m.width)))
}

// fillHeight pads or cuts body to exactly n lines.
func fillHeight(body string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(body, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
