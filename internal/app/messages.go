package app

import (
	"time"

	"julesctl/internal/types"
)

type sessionsMsg struct {
	sessions []types.Session
	err      error
}

type sourcesMsg struct {
	sources []types.Source
	err     error
}

type createSessionMsg struct {
	session *types.Session
	err     error
}

type accountsMsg struct {
	accounts []types.Account
	activeID string
	err      error
}

// accountChangedMsg follows any account mutation; the screen reloads and the
// session list is refetched under the new credential.
type accountChangedMsg struct {
	status string
	err    error
}

type sendResultMsg struct {
	sessionID string
	text      string
	err       error
}

type approveResultMsg struct {
	sessionID string
	itemKey   string
	err       error
}

type refreshResultMsg struct {
	sessionID string
	err       error
}

type tickMsg time.Time
