package activity

import (
	"encoding/json"
	"fmt"
	"strings"

	"julesctl/internal/patch"
)

// CollapsedStepLimit is how many plan steps a collapsed plan card shows.
const CollapsedStepLimit = 3

// VisibleSteps returns the steps a plan card shows and how many are hidden.
func VisibleSteps(plan *PlanGenerated, showAll bool) ([]PlanStep, int) {
	if plan == nil {
		return nil, 0
	}
	if showAll || len(plan.Steps) <= CollapsedStepLimit {
		return plan.Steps, 0
	}
	return plan.Steps[:CollapsedStepLimit], len(plan.Steps) - CollapsedStepLimit
}

// HasApprovablePlan reports whether the item is a plan with no approval
// recorded after it in items.
func HasApprovablePlan(items []Item, idx int) bool {
	if idx < 0 || idx >= len(items) || items[idx].Kind != KindPlanGenerated {
		return false
	}
	planID := items[idx].Plan.PlanID
	for _, later := range items[idx+1:] {
		switch later.Kind {
		case KindPlanApproved:
			if planID == "" || later.PlanApproved.PlanID == "" || later.PlanApproved.PlanID == planID {
				return false
			}
		case KindPlanGenerated:
			// A newer plan supersedes this one.
			return false
		}
	}
	return true
}

// LatestApprovablePlan returns the index of the most recent plan still
// awaiting approval, or -1.
func LatestApprovablePlan(items []Item) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind == KindPlanGenerated {
			if HasApprovablePlan(items, i) {
				return i
			}
			return -1
		}
	}
	return -1
}

// PlainText renders the item without styling, for the CLI and the clipboard.
func PlainText(it Item) string {
	var b strings.Builder
	switch it.Kind {
	case KindPlanGenerated:
		for i, step := range it.Plan.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step.Title)
			if step.Description != "" {
				fmt.Fprintf(&b, "   %s\n", step.Description)
			}
		}
	case KindPlanApproved:
		b.WriteString("Plan approved")
	case KindProgressUpdated:
		b.WriteString(it.Progress.Title)
		if it.Progress.Description != "" {
			b.WriteString("\n" + it.Progress.Description)
		}
	case KindCodeGenerated:
		writeFiles(&b, it.Code.Files)
	case KindSessionCompleted:
		b.WriteString("Session completed")
		if it.Completed.CommitMessage != "" {
			b.WriteString("\n" + it.Completed.CommitMessage)
		}
		if len(it.Completed.ArtifactFiles) > 0 {
			b.WriteString("\n")
			writeFiles(&b, it.Completed.ArtifactFiles)
		}
	case KindStatusChanged:
		b.WriteString(it.Status.StatusText)
	case KindAgentMessage, KindUserMessage:
		b.WriteString(it.Message.Text)
	default:
		return RawJSON(it)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFiles(b *strings.Builder, files []patch.FileChange) {
	if len(files) == 0 {
		b.WriteString("Generated code changes.")
		return
	}
	for _, file := range files {
		fmt.Fprintf(b, "%-7s %s\n", file.Kind, file.Path)
	}
}

// RawJSON is the indented wire form of the activity, used for items no rule
// recognized.
func RawJSON(it Item) string {
	if it.Activity == nil || len(it.Activity.Raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(it.Activity.Raw, &v); err != nil {
		return string(it.Activity.Raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(it.Activity.Raw)
	}
	return string(out)
}
