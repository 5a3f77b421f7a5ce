package client

import (
	"errors"
	"strings"

	"julesctl/internal/types"
)

type SourcesResponse struct {
	Sources       []types.Source `json:"sources"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type SessionsPage struct {
	Sessions      []types.Session `json:"sessions"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type ActivitiesPage struct {
	Activities    []*types.Activity `json:"activities"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

type CreateSessionRequest struct {
	Prompt         string
	Source         string
	StartingBranch string
	Title          string
	AutomationMode string
}

type createSessionPayload struct {
	Prompt         string              `json:"prompt"`
	Title          string              `json:"title,omitempty"`
	SourceContext  types.SourceContext `json:"sourceContext"`
	AutomationMode string              `json:"automationMode,omitempty"`
}

func (r CreateSessionRequest) payload() (createSessionPayload, error) {
	prompt := strings.TrimSpace(r.Prompt)
	if prompt == "" {
		return createSessionPayload{}, errors.New("prompt is required")
	}
	source := strings.TrimSpace(r.Source)
	if source == "" {
		return createSessionPayload{}, errors.New("source is required")
	}
	branch := strings.TrimSpace(r.StartingBranch)
	if branch == "" {
		branch = DefaultStartingBranch
	}
	mode := strings.TrimSpace(r.AutomationMode)
	if mode == "" {
		mode = AutomationAutoCreatePR
	}
	return createSessionPayload{
		Prompt: prompt,
		Title:  strings.TrimSpace(r.Title),
		SourceContext: types.SourceContext{
			Source:            source,
			GithubRepoContext: &types.GithubRepoContext{StartingBranch: branch},
		},
		AutomationMode: mode,
	}, nil
}

type SendMessageRequest struct {
	Prompt string `json:"prompt"`
}
