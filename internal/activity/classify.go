// Package activity turns raw session activities into the closed set of
// renderable item kinds.
package activity

import (
	"sort"
	"strings"
	"time"

	"julesctl/internal/patch"
	"julesctl/internal/types"
)

type Kind int

const (
	KindUnrenderable Kind = iota
	KindPlanGenerated
	KindPlanApproved
	KindProgressUpdated
	KindCodeGenerated
	KindSessionCompleted
	KindStatusChanged
	KindAgentMessage
	KindUserMessage
)

var kindLabels = map[Kind]string{
	KindPlanGenerated:    "Plan",
	KindPlanApproved:     "Plan approved",
	KindProgressUpdated:  "Progress",
	KindCodeGenerated:    "Code",
	KindSessionCompleted: "Completed",
	KindStatusChanged:    "Status",
	KindAgentMessage:     "Agent",
	KindUserMessage:      "You",
}

// Label is the short tag shown above an item; empty for unrenderable items.
func (k Kind) Label() string {
	return kindLabels[k]
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return "Unrenderable"
}

type PlanStep struct {
	Title       string
	Description string
}

type PlanGenerated struct {
	PlanID string
	Steps  []PlanStep
}

type PlanApproved struct {
	PlanID string
}

type ProgressUpdated struct {
	Title       string
	Description string
}

type CodeGenerated struct {
	Files []patch.FileChange
	// Diff is the unified diff the file list came from, when there was one.
	Diff string
}

type SessionCompleted struct {
	ArtifactFiles []patch.FileChange
	CommitMessage string
}

type StatusChanged struct {
	StatusText string
}

type Message struct {
	Text      string
	Timestamp *time.Time
}

// Item is a classified activity. Exactly one variant field is set, matching
// Kind; none are set for KindUnrenderable.
type Item struct {
	Activity *types.Activity
	Kind     Kind

	Plan         *PlanGenerated
	PlanApproved *PlanApproved
	Progress     *ProgressUpdated
	Code         *CodeGenerated
	Completed    *SessionCompleted
	Status       *StatusChanged
	Message      *Message
}

// Key identifies the item across refetches.
func (it Item) Key() string {
	if it.Activity == nil {
		return ""
	}
	if it.Activity.Name != "" {
		return it.Activity.Name
	}
	return it.Activity.ID
}

type rule func(a *types.Activity) (Item, bool)

// rules are tried in order; the first match wins.
var rules = []rule{
	classifyPlanGenerated,
	classifyPlanApproved,
	classifyProgress,
	classifyCode,
	classifyCompleted,
	classifyStatus,
	classifyAgentMessage,
	classifyUserMessage,
}

// Classify maps an activity to exactly one item kind. It never fails;
// activities no rule recognizes are KindUnrenderable.
func Classify(a *types.Activity) Item {
	if a == nil {
		return Item{Kind: KindUnrenderable}
	}
	for _, match := range rules {
		if item, ok := match(a); ok {
			item.Activity = a
			return item
		}
	}
	return Item{Activity: a, Kind: KindUnrenderable}
}

func ClassifyAll(activities []*types.Activity) []Item {
	items := make([]Item, len(activities))
	for i, a := range activities {
		items[i] = Classify(a)
	}
	return items
}

func classifyPlanGenerated(a *types.Activity) (Item, bool) {
	if a.PlanGenerated == nil {
		return Item{}, false
	}
	out := &PlanGenerated{}
	if plan := a.PlanGenerated.Plan; plan != nil {
		out.PlanID = plan.ID
		out.Steps = orderedSteps(plan.Steps)
	}
	return Item{Kind: KindPlanGenerated, Plan: out}, true
}

// orderedSteps sorts by index when every step carries one; otherwise wire
// order is kept.
func orderedSteps(steps []types.PlanStep) []PlanStep {
	indexed := make([]types.PlanStep, len(steps))
	copy(indexed, steps)
	if allIndexed(indexed) {
		sort.SliceStable(indexed, func(i, j int) bool {
			return *indexed[i].Index < *indexed[j].Index
		})
	}
	out := make([]PlanStep, 0, len(indexed))
	for _, step := range indexed {
		out = append(out, PlanStep{
			Title:       strings.TrimSpace(step.Title),
			Description: strings.TrimSpace(step.Description),
		})
	}
	return out
}

func allIndexed(steps []types.PlanStep) bool {
	for _, step := range steps {
		if step.Index == nil {
			return false
		}
	}
	return true
}

func classifyPlanApproved(a *types.Activity) (Item, bool) {
	if a.PlanApproved == nil {
		return Item{}, false
	}
	return Item{Kind: KindPlanApproved, PlanApproved: &PlanApproved{PlanID: a.PlanApproved.PlanID}}, true
}

func classifyProgress(a *types.Activity) (Item, bool) {
	if a.ProgressUpdated == nil {
		return Item{}, false
	}
	title := strings.TrimSpace(a.ProgressUpdated.Title)
	description := strings.TrimSpace(a.ProgressUpdated.Description)
	if title == "" {
		title, description = description, ""
	}
	return Item{Kind: KindProgressUpdated, Progress: &ProgressUpdated{Title: title, Description: description}}, true
}

func classifyCode(a *types.Activity) (Item, bool) {
	if code := a.CodeGenerated; code != nil {
		return Item{Kind: KindCodeGenerated, Code: codeFiles(code)}, true
	}
	if artifactsOnly(a) {
		if diff := joinedArtifactDiff(a); diff != "" {
			return Item{Kind: KindCodeGenerated, Code: &CodeGenerated{
				Files: patch.ExtractFiles(diff),
				Diff:  diff,
			}}, true
		}
	}
	return Item{}, false
}

func artifactsOnly(a *types.Activity) bool {
	return a.SessionCompleted == nil &&
		a.SessionStatusChanged == nil &&
		a.SessionFailed == nil &&
		a.AgentMessaged == nil &&
		a.UserMessaged == nil &&
		a.Message == nil
}

func codeFiles(code *types.CodeGenerated) *CodeGenerated {
	if len(code.Files) > 0 {
		files := make([]patch.FileChange, 0, len(code.Files))
		for _, f := range code.Files {
			if strings.TrimSpace(f.Path) == "" {
				continue
			}
			files = append(files, patch.FileChange{Path: f.Path, Kind: patch.ParseChangeKind(f.ChangeType)})
		}
		return &CodeGenerated{Files: files, Diff: changeSetDiff(code.ChangeSet)}
	}
	if diff := changeSetDiff(code.ChangeSet); diff != "" {
		return &CodeGenerated{Files: patch.ExtractFiles(diff), Diff: diff}
	}
	if path := strings.TrimSpace(code.Path); path != "" {
		return &CodeGenerated{Files: []patch.FileChange{{Path: path, Kind: patch.Edited}}}
	}
	return &CodeGenerated{Files: []patch.FileChange{}}
}

func changeSetDiff(cs *types.ChangeSet) string {
	if cs == nil || cs.GitPatch == nil {
		return ""
	}
	return cs.GitPatch.UnidiffPatch
}

func joinedArtifactDiff(a *types.Activity) string {
	var parts []string
	for _, p := range a.Patches() {
		if strings.TrimSpace(p.UnidiffPatch) != "" {
			parts = append(parts, strings.TrimRight(p.UnidiffPatch, "\n"))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n") + "\n"
}

func classifyCompleted(a *types.Activity) (Item, bool) {
	if a.SessionCompleted == nil {
		return Item{}, false
	}
	out := &SessionCompleted{ArtifactFiles: patch.ExtractFiles(joinedArtifactDiff(a))}
	for _, p := range a.Patches() {
		if msg := strings.TrimSpace(p.SuggestedCommitMessage); msg != "" {
			out.CommitMessage = msg
			break
		}
	}
	return Item{Kind: KindSessionCompleted, Completed: out}, true
}

func classifyStatus(a *types.Activity) (Item, bool) {
	if a.SessionStatusChanged != nil {
		return Item{Kind: KindStatusChanged, Status: &StatusChanged{
			StatusText: HumanizeStatus(a.SessionStatusChanged.Status),
		}}, true
	}
	if a.SessionFailed != nil {
		text := "Failed"
		if reason := strings.TrimSpace(a.SessionFailed.Reason); reason != "" {
			text = "Failed: " + reason
		}
		return Item{Kind: KindStatusChanged, Status: &StatusChanged{StatusText: text}}, true
	}
	return Item{}, false
}

func classifyAgentMessage(a *types.Activity) (Item, bool) {
	switch {
	case a.AgentMessaged != nil:
		return messageItem(KindAgentMessage, a.AgentMessaged.AgentMessage, a), true
	case a.Message != nil && isAgent(a):
		return messageItem(KindAgentMessage, a.Message.Text, a), true
	}
	return Item{}, false
}

func classifyUserMessage(a *types.Activity) (Item, bool) {
	switch {
	case a.UserMessaged != nil:
		return messageItem(KindUserMessage, a.UserMessaged.UserMessage, a), true
	case a.Message != nil:
		return messageItem(KindUserMessage, a.Message.Text, a), true
	}
	return Item{}, false
}

func messageItem(kind Kind, text string, a *types.Activity) Item {
	return Item{Kind: kind, Message: &Message{Text: text, Timestamp: a.CreateTime}}
}

func isAgent(a *types.Activity) bool {
	return strings.EqualFold(strings.TrimSpace(a.Originator), types.OriginatorAgent)
}

// HumanizeStatus turns "AWAITING_PLAN_APPROVAL" into "Awaiting plan approval".
func HumanizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Status changed"
	}
	words := strings.Fields(strings.ToLower(strings.ReplaceAll(status, "_", " ")))
	if len(words) == 0 {
		return "Status changed"
	}
	joined := strings.Join(words, " ")
	return strings.ToUpper(joined[:1]) + joined[1:]
}
