package types

import (
	"encoding/json"
	"time"
)

const (
	OriginatorAgent  = "agent"
	OriginatorUser   = "user"
	OriginatorSystem = "system"
)

// Activity is one entry of a session's append-only event log. At most one
// payload field is expected to be set; the classifier decides precedence when
// more than one is.
type Activity struct {
	Name        string     `json:"name"`
	ID          string     `json:"id,omitempty"`
	CreateTime  *time.Time `json:"createTime,omitempty"`
	Originator  string     `json:"originator,omitempty"`
	Description string     `json:"description,omitempty"`

	PlanGenerated        *PlanGenerated        `json:"planGenerated,omitempty"`
	PlanApproved         *PlanApproved         `json:"planApproved,omitempty"`
	ProgressUpdated      *ProgressUpdated      `json:"progressUpdated,omitempty"`
	CodeGenerated        *CodeGenerated        `json:"codeGenerated,omitempty"`
	SessionCompleted     *SessionCompleted     `json:"sessionCompleted,omitempty"`
	SessionStatusChanged *SessionStatusChanged `json:"sessionStatusChanged,omitempty"`
	SessionFailed        *SessionFailed        `json:"sessionFailed,omitempty"`
	AgentMessaged        *AgentMessaged        `json:"agentMessaged,omitempty"`
	UserMessaged         *UserMessaged         `json:"userMessaged,omitempty"`
	Message              *LegacyMessage        `json:"message,omitempty"`
	Artifacts            []Artifact            `json:"artifacts,omitempty"`

	// Raw holds the activity exactly as received.
	Raw json.RawMessage `json:"-"`
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type wireActivity Activity
	var wire wireActivity
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Activity(wire)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type PlanGenerated struct {
	Plan *Plan `json:"plan,omitempty"`
}

type Plan struct {
	ID    string     `json:"id,omitempty"`
	Steps []PlanStep `json:"steps,omitempty"`
}

type PlanStep struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Index       *int   `json:"index,omitempty"`
}

type PlanApproved struct {
	PlanID string `json:"planId,omitempty"`
}

type ProgressUpdated struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type CodeGenerated struct {
	Files     []CodeFile `json:"files,omitempty"`
	ChangeSet *ChangeSet `json:"changeSet,omitempty"`
	// Path is the single-file form sent by older service versions.
	Path string `json:"path,omitempty"`
}

type CodeFile struct {
	Path       string `json:"path"`
	ChangeType string `json:"changeType,omitempty"`
}

type SessionCompleted struct{}

type SessionStatusChanged struct {
	Status string `json:"status,omitempty"`
}

type SessionFailed struct {
	Reason string `json:"reason,omitempty"`
}

type AgentMessaged struct {
	AgentMessage string `json:"agentMessage,omitempty"`
}

type UserMessaged struct {
	UserMessage string `json:"userMessage,omitempty"`
}

type LegacyMessage struct {
	Text string `json:"text,omitempty"`
}

type Artifact struct {
	ChangeSet  *ChangeSet  `json:"changeSet,omitempty"`
	BashOutput *BashOutput `json:"bashOutput,omitempty"`
	Media      *Media      `json:"media,omitempty"`
}

type ChangeSet struct {
	Source   string    `json:"source,omitempty"`
	GitPatch *GitPatch `json:"gitPatch,omitempty"`
}

type GitPatch struct {
	UnidiffPatch           string `json:"unidiffPatch,omitempty"`
	BaseCommitID           string `json:"baseCommitId,omitempty"`
	SuggestedCommitMessage string `json:"suggestedCommitMessage,omitempty"`
}

type BashOutput struct {
	Command  string `json:"command,omitempty"`
	Output   string `json:"output,omitempty"`
	ExitCode int    `json:"exitCode,omitempty"`
}

type Media struct {
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Patches returns every unified diff carried by the activity's artifacts.
func (a *Activity) Patches() []*GitPatch {
	if a == nil {
		return nil
	}
	var out []*GitPatch
	for _, artifact := range a.Artifacts {
		if artifact.ChangeSet != nil && artifact.ChangeSet.GitPatch != nil {
			out = append(out, artifact.ChangeSet.GitPatch)
		}
	}
	return out
}
