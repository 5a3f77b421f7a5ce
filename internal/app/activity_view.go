package app

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"julesctl/internal/activity"
	"julesctl/internal/interaction"
	"julesctl/internal/patch"
	"julesctl/internal/reconcile"
)

const cardChrome = 4

type itemRenderContext struct {
	width        int
	selected     bool
	stepCursor   int
	interactions *interaction.State
	approvable   bool
	diffOpen     bool
}

func (d *detailView) renderItems(width int) string {
	d.offsets = d.offsets[:0]
	if len(d.items) == 0 {
		if d.loop.State() == reconcile.StateSettled {
			return statusStyle.Render("No activity yet.")
		}
		return statusStyle.Render("Loading activity…")
	}
	blocks := make([]string, 0, len(d.items))
	line := 0
	for i, it := range d.items {
		block := renderItem(it, itemRenderContext{
			width:        width,
			selected:     i == d.selected,
			stepCursor:   d.stepCursor,
			interactions: d.loop.Interactions(),
			approvable:   activity.HasApprovablePlan(d.items, i),
			diffOpen:     d.diffOpen[it.Key()],
		})
		d.offsets = append(d.offsets, line)
		line += lipgloss.Height(block) + 1
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func renderItem(it activity.Item, rc itemRenderContext) string {
	inner := max(10, rc.width-cardChrome)
	meta := itemMeta(it, rc.selected)
	var body string
	switch it.Kind {
	case activity.KindAgentMessage:
		body = agentBubbleStyle.Render(renderMarkdown(it.Message.Text, inner))
	case activity.KindUserMessage:
		body = userBubbleStyle.Render(renderMarkdown(it.Message.Text, inner))
	case activity.KindPlanGenerated:
		body = renderPlanCard(it, rc, inner)
	case activity.KindPlanApproved:
		body = systemBubbleStyle.Render("✓ Plan approved")
	case activity.KindProgressUpdated:
		text := lipgloss.NewStyle().Bold(true).Render(truncateToWidth(it.Progress.Title, inner))
		if it.Progress.Description != "" {
			text += "\n" + wordwrap.String(it.Progress.Description, inner)
		}
		body = systemBubbleStyle.Render(text)
	case activity.KindCodeGenerated:
		body = renderCodeCard(it, rc, inner)
	case activity.KindSessionCompleted:
		lines := []string{lipgloss.NewStyle().Bold(true).Render("Session completed")}
		if it.Completed.CommitMessage != "" {
			lines = append(lines, wordwrap.String(it.Completed.CommitMessage, inner))
		}
		if len(it.Completed.ArtifactFiles) > 0 {
			lines = append(lines, renderFileList(it.Completed.ArtifactFiles, inner))
		}
		body = completedCardStyle.Render(strings.Join(lines, "\n"))
	case activity.KindStatusChanged:
		body = statusStyle.Render("• " + truncateToWidth(it.Status.StatusText, inner))
	default:
		raw := activity.RawJSON(it)
		if raw == "" {
			raw = "(empty)"
		}
		body = rawCardStyle.Render("Unrecognized activity\n" + truncateLines(raw, inner))
	}
	return meta + "\n" + body
}

func itemMeta(it activity.Item, selected bool) string {
	label := it.Kind.Label()
	if label == "" {
		label = "Activity"
	}
	if it.Activity != nil && it.Activity.CreateTime != nil {
		label += " · " + it.Activity.CreateTime.Local().Format("15:04")
	}
	if selected {
		return chatMetaSelectedStyle.Render("▌ " + label)
	}
	return chatMetaStyle.Render("  " + label)
}

func renderPlanCard(it activity.Item, rc itemRenderContext, inner int) string {
	key := it.Key()
	showAll := rc.interactions.ShowAll(key)
	steps, hidden := activity.VisibleSteps(it.Plan, showAll)

	lines := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Plan · %d steps", len(it.Plan.Steps)))}
	for idx, step := range steps {
		cursor := "  "
		if rc.selected && idx == rc.stepCursor {
			cursor = stepCursorStyle.Render("› ")
		}
		expanded := rc.interactions.StepExpanded(key, idx)
		marker := "▸"
		if expanded {
			marker = "▾"
		}
		title := truncateToWidth(fmt.Sprintf("%s %d. %s", marker, idx+1, step.Title), max(1, inner-2))
		lines = append(lines, cursor+title)
		if expanded && step.Description != "" {
			lines = append(lines, indent.String(wordwrap.String(step.Description, max(1, inner-6)), 6))
		}
	}
	switch {
	case hidden > 0:
		lines = append(lines, helpStyle.Render(fmt.Sprintf("+%d more steps (m to show all)", hidden)))
	case showAll && len(it.Plan.Steps) > activity.CollapsedStepLimit:
		lines = append(lines, helpStyle.Render("m to collapse"))
	}

	style := planResolvedCardStyle
	switch {
	case rc.interactions.IsApproving(key):
		lines = append(lines, pendingButtonStyle.Render("approving…"))
		style = planCardStyle
	case rc.approvable:
		lines = append(lines, approveButtonStyle.Render("A approve plan"))
		style = planCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func renderCodeCard(it activity.Item, rc itemRenderContext, inner int) string {
	files := it.Code.Files
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Code changes · " + patch.Summary(files))}
	if len(files) > 0 {
		lines = append(lines, renderFileList(files, inner))
	}
	if it.Code.Diff != "" {
		if rc.diffOpen {
			lines = append(lines, "", highlightDiff(it.Code.Diff, inner))
		} else {
			lines = append(lines, helpStyle.Render("d show patch"))
		}
	}
	return codeCardStyle.Render(strings.Join(lines, "\n"))
}

func renderFileList(files []patch.FileChange, inner int) string {
	lines := make([]string, 0, len(files))
	for _, file := range files {
		kind := fileKindStyle(file.Kind).Render(padToWidth(file.Kind.String(), 7))
		lines = append(lines, kind+" "+truncateToWidth(file.Path, max(1, inner-8)))
	}
	return strings.Join(lines, "\n")
}
