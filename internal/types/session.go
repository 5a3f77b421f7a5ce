package types

import (
	"strings"
	"time"
)

// SessionState is the remote service's lifecycle state for a session.
type SessionState string

const (
	SessionStateWorking            SessionState = "WORKING"
	SessionStateRunning            SessionState = "RUNNING"
	SessionStateQueued             SessionState = "QUEUED"
	SessionStatePlanning           SessionState = "PLANNING"
	SessionStateInProgress         SessionState = "IN_PROGRESS"
	SessionStateWaitingForUser     SessionState = "WAITING_FOR_USER"
	SessionStateNeedsClarification SessionState = "NEEDS_CLARIFICATION"
	SessionStateAwaitingApproval   SessionState = "AWAITING_PLAN_APPROVAL"
	SessionStateAwaitingFeedback   SessionState = "AWAITING_USER_FEEDBACK"
	SessionStatePaused             SessionState = "PAUSED"
	SessionStateDone               SessionState = "DONE"
	SessionStateSucceeded          SessionState = "SUCCEEDED"
	SessionStateCompleted          SessionState = "COMPLETED"
	SessionStateFailed             SessionState = "FAILED"
	SessionStateCancelled          SessionState = "CANCELLED"
)

// StatusFamily groups session states into the buckets the UI colors by.
type StatusFamily string

const (
	StatusWorking   StatusFamily = "working"
	StatusWaiting   StatusFamily = "waiting"
	StatusDone      StatusFamily = "done"
	StatusFailed    StatusFamily = "failed"
	StatusCancelled StatusFamily = "cancelled"
	StatusUnknown   StatusFamily = "unknown"
)

var statusFamilies = map[SessionState]StatusFamily{
	SessionStateWorking:            StatusWorking,
	SessionStateRunning:            StatusWorking,
	SessionStateQueued:             StatusWorking,
	SessionStatePlanning:           StatusWorking,
	SessionStateInProgress:         StatusWorking,
	SessionStateWaitingForUser:     StatusWaiting,
	SessionStateNeedsClarification: StatusWaiting,
	SessionStateAwaitingApproval:   StatusWaiting,
	SessionStateAwaitingFeedback:   StatusWaiting,
	SessionStatePaused:             StatusWaiting,
	SessionStateDone:               StatusDone,
	SessionStateSucceeded:          StatusDone,
	SessionStateCompleted:          StatusDone,
	SessionStateFailed:             StatusFailed,
	SessionStateCancelled:          StatusCancelled,
}

// Family collapses the state into its status family. Matching is
// case-insensitive; unrecognized states are StatusUnknown.
func (s SessionState) Family() StatusFamily {
	key := SessionState(strings.ToUpper(strings.TrimSpace(string(s))))
	if family, ok := statusFamilies[key]; ok {
		return family
	}
	return StatusUnknown
}

// ParseStatusFamily returns the family named by raw, or false.
func ParseStatusFamily(raw string) (StatusFamily, bool) {
	family := StatusFamily(strings.ToLower(strings.TrimSpace(raw)))
	switch family {
	case StatusWorking, StatusWaiting, StatusDone, StatusFailed, StatusCancelled, StatusUnknown:
		return family, true
	}
	return "", false
}

// Color is the status dot color for the family.
func (f StatusFamily) Color() string {
	switch f {
	case StatusDone:
		return "#4a90d9"
	case StatusWorking, StatusWaiting:
		return "#e07b3a"
	case StatusFailed:
		return "#e05252"
	default:
		return "#8888a8"
	}
}

type Session struct {
	Name          string          `json:"name"`
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	State         SessionState    `json:"state,omitempty"`
	SourceContext SourceContext   `json:"sourceContext"`
	URL           string          `json:"url,omitempty"`
	CreateTime    *time.Time      `json:"createTime,omitempty"`
	UpdateTime    *time.Time      `json:"updateTime,omitempty"`
	Outputs       []SessionOutput `json:"outputs,omitempty"`
}

type SourceContext struct {
	Source            string             `json:"source"`
	GithubRepoContext *GithubRepoContext `json:"githubRepoContext,omitempty"`
}

type GithubRepoContext struct {
	StartingBranch string `json:"startingBranch,omitempty"`
}

type SessionOutput struct {
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
}

type PullRequest struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// DisplayTitle prefers the title, then the resource name.
func (s *Session) DisplayTitle() string {
	if s == nil {
		return ""
	}
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	return s.Name
}

// ShortID returns the bare session id.
func (s *Session) ShortID() string {
	if s == nil {
		return ""
	}
	if s.ID != "" {
		return s.ID
	}
	return strings.TrimPrefix(s.Name, "sessions/")
}

// PullRequest returns the first pull request output, if any.
func (s *Session) PullRequest() *PullRequest {
	if s == nil {
		return nil
	}
	for _, output := range s.Outputs {
		if output.PullRequest != nil {
			return output.PullRequest
		}
	}
	return nil
}
