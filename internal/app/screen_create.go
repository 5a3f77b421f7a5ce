package app

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"julesctl/internal/client"
	"julesctl/internal/logging"
	"julesctl/internal/types"
)

type createFocus int

const (
	createFocusSources createFocus = iota
	createFocusPrompt
	createFocusBranch
)

type createView struct {
	sources    []types.Source
	cursor     int
	loading    bool
	submitting bool
	focus      createFocus
	prompt     textinput.Model
	branch     textinput.Model
}

func newCreateView() *createView {
	prompt := textinput.New()
	prompt.Prompt = "prompt › "
	prompt.Placeholder = "describe the task"
	branch := textinput.New()
	branch.Prompt = "branch › "
	branch.Placeholder = client.DefaultStartingBranch
	return &createView{prompt: prompt, branch: branch}
}

func (v *createView) resize(width int) {
	v.prompt.SetWidth(max(10, width-12))
	v.branch.SetWidth(max(10, width-12))
}

func (v *createView) reset() {
	v.sources = nil
	v.cursor = 0
	v.loading = true
	v.submitting = false
	v.prompt.SetValue("")
	v.branch.SetValue("")
	v.setFocus(createFocusSources)
}

func (v *createView) setFocus(focus createFocus) tea.Cmd {
	v.focus = focus
	v.prompt.Blur()
	v.branch.Blur()
	switch focus {
	case createFocusPrompt:
		return v.prompt.Focus()
	case createFocusBranch:
		return v.branch.Focus()
	}
	return nil
}

func (v *createView) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch v.focus {
	case createFocusPrompt:
		v.prompt, cmd = v.prompt.Update(msg)
	case createFocusBranch:
		v.branch, cmd = v.branch.Update(msg)
	}
	return cmd
}

// selectSource moves the cursor to the source named name, if listed.
func (v *createView) selectSource(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for i, source := range v.sources {
		if source.Name == name {
			v.cursor = i
			return
		}
	}
}

func (v *createView) selected() (types.Source, bool) {
	if v.cursor < 0 || v.cursor >= len(v.sources) {
		return types.Source{}, false
	}
	return v.sources[v.cursor], true
}

func (m *Model) openCreate() tea.Cmd {
	m.create.reset()
	m.screen = screenCreate
	return fetchSourcesCmd(m.sessionAPI)
}

func (m *Model) applySources(msg sourcesMsg) tea.Cmd {
	v := m.create
	v.loading = false
	if msg.err != nil {
		m.logger.Warn("list sources failed", logging.Err(msg.err))
		m.showErrorToast("load sources failed: " + msg.err.Error())
		return nil
	}
	v.sources = msg.sources
	v.cursor = 0
	v.selectSource(m.opts.DefaultSource)
	if len(v.sources) > 0 && m.screen == screenCreate && v.focus == createFocusSources && m.opts.DefaultSource != "" {
		return v.setFocus(createFocusPrompt)
	}
	return nil
}

func (m *Model) handleCreateKey(msg tea.KeyPressMsg) tea.Cmd {
	v := m.create
	switch msg.String() {
	case "esc":
		m.screen = screenSessions
		return nil
	case "tab":
		return v.setFocus((v.focus + 1) % 3)
	case "shift+tab":
		return v.setFocus((v.focus + 2) % 3)
	}
	if v.focus == createFocusSources {
		switch msg.String() {
		case "j", "down":
			v.cursor = clamp(v.cursor+1, 0, len(v.sources)-1)
		case "k", "up":
			v.cursor = clamp(v.cursor-1, 0, len(v.sources)-1)
		case "enter":
			return v.setFocus(createFocusPrompt)
		}
		return nil
	}
	if msg.String() == "enter" {
		return m.submitCreate()
	}
	return v.updateFocused(msg)
}

func (m *Model) submitCreate() tea.Cmd {
	v := m.create
	if v.submitting {
		return nil
	}
	source, ok := v.selected()
	if !ok {
		m.showWarningToast("pick a source first")
		return nil
	}
	prompt := strings.TrimSpace(v.prompt.Value())
	if prompt == "" {
		m.showWarningToast("prompt is required")
		return nil
	}
	v.submitting = true
	return createSessionCmd(m.sessionAPI, client.CreateSessionRequest{
		Prompt:         prompt,
		Source:         source.Name,
		StartingBranch: strings.TrimSpace(v.branch.Value()),
	})
}

func (m *Model) applyCreateResult(msg createSessionMsg) tea.Cmd {
	m.create.submitting = false
	if msg.err != nil {
		m.logger.Warn("create session failed", logging.Err(msg.err))
		m.showErrorToast("create failed: " + msg.err.Error())
		return nil
	}
	if msg.session == nil {
		m.screen = screenSessions
		return fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize)
	}
	m.showInfoToast("session created")
	return tea.Batch(m.openDetail(*msg.session), fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize))
}

func (m *Model) renderCreate() string {
	v := m.create
	lines := []string{headerStyle.Render("julesctl · new session"), m.divider()}

	sourceHeader := "Source"
	if v.focus == createFocusSources {
		sourceHeader = chatMetaSelectedStyle.Render("▌ Source")
	}
	lines = append(lines, sourceHeader)
	listHeight := max(3, m.height-12)
	switch {
	case v.loading:
		lines = append(lines, statusStyle.Render("  Loading sources…"))
	case len(v.sources) == 0:
		lines = append(lines, statusStyle.Render("  No sources connected."))
	default:
		start := 0
		if v.cursor >= listHeight {
			start = v.cursor - listHeight + 1
		}
		for i := start; i < min(len(v.sources), start+listHeight); i++ {
			label := "  " + padToWidth(v.sources[i].Label(), max(1, m.width-4))
			if i == v.cursor {
				label = selectedStyle.Render(label)
			}
			lines = append(lines, label)
		}
	}
	lines = append(lines, "", v.prompt.View(), v.branch.View(), m.divider())
	help := "tab next field · j/k pick source · enter create · esc cancel"
	if v.submitting {
		help = "creating session…"
	}
	lines = append(lines, helpStyle.Render(help))
	return strings.Join(lines, "\n")
}
