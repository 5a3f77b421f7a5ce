package app

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"julesctl/internal/sessionfilter"
	"julesctl/internal/types"
)

var familyCycle = []types.StatusFamily{
	"",
	types.StatusWorking,
	types.StatusWaiting,
	types.StatusDone,
	types.StatusFailed,
	types.StatusCancelled,
}

type sessionsView struct {
	all       []types.Session
	visible   []types.Session
	cursor    int
	search    textinput.Model
	searching bool
	family    types.StatusFamily
	loading   bool
}

func newSessionsView() *sessionsView {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search sessions"
	return &sessionsView{search: search}
}

func (v *sessionsView) resize(width int) {
	v.search.SetWidth(max(10, width-4))
}

func (v *sessionsView) setSessions(sessions []types.Session) {
	var keep string
	if selected, ok := v.selected(); ok {
		keep = selected.Name
	}
	v.all = sessions
	v.applyFilter()
	for i, session := range v.visible {
		if session.Name == keep {
			v.cursor = i
			break
		}
	}
}

func (v *sessionsView) filter() sessionfilter.Filter {
	return sessionfilter.Filter{Query: v.search.Value(), Family: v.family}
}

func (v *sessionsView) applyFilter() {
	v.visible = v.filter().Apply(v.all)
	v.cursor = clamp(v.cursor, 0, len(v.visible)-1)
}

func (v *sessionsView) selected() (types.Session, bool) {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return types.Session{}, false
	}
	return v.visible[v.cursor], true
}

func (v *sessionsView) move(delta int) {
	v.cursor = clamp(v.cursor+delta, 0, len(v.visible)-1)
}

func (v *sessionsView) cycleFamily() {
	next := 0
	for i, family := range familyCycle {
		if family == v.family {
			next = (i + 1) % len(familyCycle)
			break
		}
	}
	v.family = familyCycle[next]
	v.applyFilter()
}

func (m *Model) handleSessionsKey(msg tea.KeyPressMsg) tea.Cmd {
	v := m.sessions
	if v.searching {
		switch msg.String() {
		case "esc":
			v.searching = false
			v.search.Blur()
			v.search.SetValue("")
			v.applyFilter()
			return nil
		case "enter":
			v.searching = false
			v.search.Blur()
			return nil
		case "up":
			v.move(-1)
			return nil
		case "down":
			v.move(1)
			return nil
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		v.applyFilter()
		return cmd
	}
	switch msg.String() {
	case "q":
		m.shutdown()
		return tea.Quit
	case "/":
		v.searching = true
		return v.search.Focus()
	case "j", "down":
		v.move(1)
	case "k", "up":
		v.move(-1)
	case "f":
		v.cycleFamily()
	case "r":
		v.loading = true
		return fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize)
	case "n":
		return m.openCreate()
	case "a":
		return m.openAccounts()
	case "enter":
		session, ok := v.selected()
		if !ok {
			return nil
		}
		return m.openDetail(session)
	}
	return nil
}

func (m *Model) renderSessions() string {
	v := m.sessions
	title := headerStyle.Render("julesctl · sessions")
	var meta []string
	if v.loading {
		meta = append(meta, "loading…")
	}
	if v.family != "" {
		meta = append(meta, "status: "+string(v.family))
	}
	if q := strings.TrimSpace(v.search.Value()); q != "" && !v.searching {
		meta = append(meta, "search: "+q)
	}
	header := title
	if len(meta) > 0 {
		header += "  " + statusStyle.Render(strings.Join(meta, " · "))
	}

	lines := []string{header}
	if v.searching {
		lines = append(lines, v.search.View())
	}
	lines = append(lines, m.divider())

	listHeight := m.height - len(lines) - 3
	rows := m.renderSessionRows(listHeight)
	lines = append(lines, fillHeight(rows, listHeight), m.divider())
	lines = append(lines, helpStyle.Render("enter open · / search · f status · r refresh · n new · a accounts · q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderSessionRows(height int) string {
	v := m.sessions
	if len(v.visible) == 0 {
		switch {
		case v.loading:
			return statusStyle.Render("Loading sessions…")
		case len(v.all) > 0:
			return statusStyle.Render("No sessions match the current filter.")
		default:
			return statusStyle.Render("No sessions yet. Press n to start one.")
		}
	}
	start := 0
	if height > 0 && v.cursor >= height {
		start = v.cursor - height + 1
	}
	end := min(len(v.visible), start+max(1, height))

	stateWidth := 22
	sourceWidth := min(28, max(10, m.width/4))
	titleWidth := max(8, m.width-stateWidth-sourceWidth-6)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		session := v.visible[i]
		text := session.DisplayTitle()
		if strings.TrimSpace(session.Title) == "" && session.Prompt != "" {
			text = firstLine(session.Prompt)
		}
		row := fmt.Sprintf("%s %s %s",
			padToWidth(text, titleWidth),
			sourceLabelStyle.Render(padToWidth(sourceLabel(session), sourceWidth)),
			statusStyle.Render(padToWidth(strings.ToLower(string(session.State)), stateWidth)),
		)
		if i == v.cursor {
			row = selectedStyle.Render(row)
		} else {
			row = sessionStyle.Render(row)
		}
		rows = append(rows, statusDot(session.State)+" "+row)
	}
	return strings.Join(rows, "\n")
}

func sourceLabel(session types.Session) string {
	source := types.Source{Name: session.SourceContext.Source}
	return source.Label()
}

func clamp(value, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(value, lo), hi)
}
