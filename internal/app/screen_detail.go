package app

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"julesctl/internal/activity"
	"julesctl/internal/logging"
	"julesctl/internal/reconcile"
	"julesctl/internal/types"
)

const (
	detailHeaderLines = 3
	detailInputLines  = 3
	detailFooterLines = 1
)

type detailView struct {
	session types.Session
	loop    *reconcile.Loop
	bridge  *loopBridge

	items           []activity.Item
	selected        int
	followSelection bool
	stepCursor      int
	diffOpen        map[string]bool
	offsets         []int

	viewport     viewport.Model
	input        textinput.Model
	inputFocused bool
}

func newDetailView(session types.Session, loop *reconcile.Loop, bridge *loopBridge) *detailView {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "message the agent (tab to focus)"
	return &detailView{
		session:         session,
		loop:            loop,
		bridge:          bridge,
		selected:        -1,
		followSelection: true,
		diffOpen:        map[string]bool{},
		viewport:        viewport.New(viewport.WithWidth(80), viewport.WithHeight(10)),
		input:           input,
	}
}

func (m *Model) openDetail(session types.Session) tea.Cmd {
	if m.detail != nil {
		m.detail.close()
	}
	bridge := newLoopBridge(session.Name)
	loop := reconcile.New(m.sessionAPI, session.Name, bridge.hook(reconcile.Options{
		Interval: m.opts.PollInterval,
		PageSize: m.opts.ActivitiesPageSize,
		MaxPages: m.opts.MaxActivityPages,
		Logger:   m.logger,
	}))
	m.detail = newDetailView(session, loop, bridge)
	m.screen = screenDetail
	m.detail.resize(m.width, m.detailViewportHeight())
	m.detail.refreshContent(m.width)
	loop.Start(context.Background())
	m.logger.Info("session opened", logging.F("session_id", loop.SessionID()))
	return bridge.waitCmd()
}

func (m *Model) closeDetail() tea.Cmd {
	if m.detail != nil {
		m.detail.close()
		m.detail = nil
	}
	m.screen = screenSessions
	m.sessions.loading = true
	return fetchSessionsCmd(m.sessionAPI, m.opts.SessionsPageSize)
}

func (d *detailView) close() {
	d.loop.Stop()
	d.bridge.close()
}

func (m *Model) detailViewportHeight() int {
	return max(1, m.height-detailHeaderLines-detailInputLines-detailFooterLines-1)
}

func (d *detailView) resize(width, height int) {
	d.viewport.SetWidth(width)
	d.viewport.SetHeight(height)
	d.input.SetWidth(max(10, width-6))
}

func (m *Model) applyLoopEvent(msg loopEventMsg) tea.Cmd {
	d := m.detail
	if d == nil || msg.bridge != d.bridge {
		return nil
	}
	if msg.settled {
		d.applySnapshot(d.loop.Snapshot())
	}
	if len(msg.errs) > 0 {
		err := msg.errs[len(msg.errs)-1]
		if !errors.Is(err, reconcile.ErrStopped) {
			m.showErrorToast("refresh failed: " + err.Error())
		}
	}
	d.refreshContent(m.width)
	if msg.scroll {
		if d.followSelection && len(d.items) > 0 {
			d.selectIndex(len(d.items) - 1)
			d.refreshContent(m.width)
		}
		_ = d.viewport.GotoBottom()
	}
	return d.bridge.waitCmd()
}

func (d *detailView) applySnapshot(snap reconcile.Snapshot) {
	d.followSelection = d.selected < 0 || d.selected >= len(d.items)-1
	if snap.Session != nil {
		d.session = *snap.Session
	}
	d.items = snap.Items
	if d.selected >= len(d.items) {
		d.selectIndex(len(d.items) - 1)
	}
}

func (d *detailView) selectedItem() (activity.Item, bool) {
	if d.selected < 0 || d.selected >= len(d.items) {
		return activity.Item{}, false
	}
	return d.items[d.selected], true
}

func (d *detailView) selectIndex(idx int) {
	if idx != d.selected {
		d.stepCursor = 0
	}
	d.selected = idx
}

func (d *detailView) moveSelection(delta int) {
	if len(d.items) == 0 {
		return
	}
	start := d.selected
	if start < 0 {
		start = len(d.items) - 1
		delta = 0
	}
	d.selectIndex(clamp(start+delta, 0, len(d.items)-1))
	d.followSelection = d.selected == len(d.items)-1
}

// ensureSelectionVisible scrolls the viewport so the selected item's first
// line is on screen.
func (d *detailView) ensureSelectionVisible() {
	if d.selected < 0 || d.selected >= len(d.offsets) {
		return
	}
	top := d.offsets[d.selected]
	bottom := d.viewport.TotalLineCount()
	if d.selected+1 < len(d.offsets) {
		bottom = d.offsets[d.selected+1] - 1
	}
	switch {
	case top < d.viewport.YOffset():
		d.viewport.SetYOffset(top)
	case bottom > d.viewport.YOffset()+d.viewport.Height():
		d.viewport.SetYOffset(max(top, bottom-d.viewport.Height()))
	}
}

func (d *detailView) refreshContent(width int) {
	d.viewport.SetContent(d.renderItems(width))
}

func (d *detailView) visibleStepCount(it activity.Item) int {
	steps, _ := activity.VisibleSteps(it.Plan, d.loop.Interactions().ShowAll(it.Key()))
	return len(steps)
}

func (m *Model) handleDetailKey(msg tea.KeyPressMsg) tea.Cmd {
	d := m.detail
	if d == nil {
		m.screen = screenSessions
		return nil
	}
	if d.inputFocused {
		return m.handleDetailInputKey(msg)
	}
	key := msg.String()
	switch key {
	case "esc", "q":
		return m.closeDetail()
	case "tab", "i":
		d.inputFocused = true
		return d.input.Focus()
	case "j", "down":
		d.moveSelection(1)
	case "k", "up":
		d.moveSelection(-1)
	case "g", "home":
		if len(d.items) > 0 {
			d.selectIndex(0)
			d.followSelection = len(d.items) == 1
		}
	case "G", "end":
		if len(d.items) > 0 {
			d.selectIndex(len(d.items) - 1)
			d.followSelection = true
		}
		d.refreshContent(m.width)
		_ = d.viewport.GotoBottom()
		return nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		d.viewport, cmd = d.viewport.Update(msg)
		return cmd
	case "left", "h", "right", "l":
		it, ok := d.selectedItem()
		if !ok || it.Kind != activity.KindPlanGenerated {
			return nil
		}
		delta := 1
		if key == "left" || key == "h" {
			delta = -1
		}
		d.stepCursor = clamp(d.stepCursor+delta, 0, d.visibleStepCount(it)-1)
	case " ", "space":
		it, ok := d.selectedItem()
		if !ok || it.Kind != activity.KindPlanGenerated || d.visibleStepCount(it) == 0 {
			return nil
		}
		d.loop.Interactions().ToggleStep(it.Key(), d.stepCursor)
	case "m":
		it, ok := d.selectedItem()
		if !ok || it.Kind != activity.KindPlanGenerated {
			return nil
		}
		d.loop.Interactions().ToggleShowAll(it.Key())
		d.stepCursor = clamp(d.stepCursor, 0, d.visibleStepCount(it)-1)
	case "A":
		return m.approveSelectedPlan()
	case "c":
		it, ok := d.selectedItem()
		if !ok {
			return nil
		}
		m.copyWithToast(copyPayload(it, d.diffOpen[it.Key()]))
		return nil
	case "d":
		it, ok := d.selectedItem()
		if !ok || it.Kind != activity.KindCodeGenerated {
			return nil
		}
		if it.Code.Diff == "" {
			m.showWarningToast("no patch for this change")
			return nil
		}
		d.diffOpen[it.Key()] = !d.diffOpen[it.Key()]
	case "r":
		return refreshLoopCmd(d.loop)
	default:
		return nil
	}
	d.refreshContent(m.width)
	d.ensureSelectionVisible()
	return nil
}

func (m *Model) handleDetailInputKey(msg tea.KeyPressMsg) tea.Cmd {
	d := m.detail
	switch msg.String() {
	case "esc", "tab":
		d.inputFocused = false
		d.input.Blur()
		return nil
	case "enter":
		text := strings.TrimSpace(d.input.Value())
		if text == "" {
			return nil
		}
		d.input.SetValue("")
		return sendMessageCmd(d.loop, text)
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return cmd
}

func (m *Model) approveSelectedPlan() tea.Cmd {
	d := m.detail
	target := activity.LatestApprovablePlan(d.items)
	if activity.HasApprovablePlan(d.items, d.selected) {
		target = d.selected
	}
	if target < 0 {
		m.showWarningToast("no plan awaiting approval")
		return nil
	}
	key := d.items[target].Key()
	if d.loop.Interactions().IsApproving(key) {
		m.showWarningToast("approval already in progress")
		return nil
	}
	m.showInfoToast("approving plan…")
	return approvePlanCmd(d.loop, key)
}

func (m *Model) applySendResult(msg sendResultMsg) {
	d := m.detail
	if msg.err == nil {
		return
	}
	m.logger.Warn("send message failed", logging.F("session_id", msg.sessionID), logging.Err(msg.err))
	m.showErrorToast("send failed: " + msg.err.Error())
	if !m.opts.RestoreDraftOnSendFailure || d == nil || d.loop.SessionID() != msg.sessionID {
		return
	}
	if strings.TrimSpace(d.input.Value()) == "" {
		d.input.SetValue(msg.text)
	}
}

func (m *Model) applyApproveResult(msg approveResultMsg) {
	switch {
	case msg.err == nil:
		m.showInfoToast("plan approved")
	case errors.Is(msg.err, reconcile.ErrApproveInFlight):
		m.showWarningToast("approval already in progress")
	default:
		m.logger.Warn("approve plan failed", logging.F("session_id", msg.sessionID), logging.Err(msg.err))
		m.showErrorToast("approve failed: " + msg.err.Error())
	}
	if m.detail != nil && m.detail.loop.SessionID() == msg.sessionID {
		m.detail.refreshContent(m.width)
	}
}

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}
	session := d.session
	title := statusDot(session.State) + " " + headerStyle.Render(truncateToWidth(session.DisplayTitle(), max(1, m.width-2)))
	meta := []string{sourceLabel(session)}
	if state := strings.TrimSpace(string(session.State)); state != "" {
		meta = append(meta, activity.HumanizeStatus(state))
	}
	if pr := session.PullRequest(); pr != nil && pr.URL != "" {
		meta = append(meta, pr.URL)
	}
	if d.loop.State() == reconcile.StateLoading {
		meta = append(meta, "syncing…")
	}
	lines := []string{
		title,
		statusStyle.Render(truncateToWidth(strings.Join(meta, " · "), m.width)),
		m.divider(),
		d.viewport.View(),
	}

	frame := inputFrameBlurStyle
	if d.inputFocused {
		frame = inputFrameStyle
	}
	lines = append(lines, frame.Render(d.input.View()))

	help := "j/k select · ←/→ step · space expand · m all steps · A approve · d patch · c copy · r refresh · tab message · esc back"
	if d.inputFocused {
		help = "enter send · esc/tab leave input"
	}
	lines = append(lines, helpStyle.Render(truncateToWidth(help, m.width)))
	return strings.Join(lines, "\n")
}
