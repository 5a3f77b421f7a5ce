package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"julesctl/internal/client"
	"julesctl/internal/logging"
	"julesctl/internal/reconcile"
	"julesctl/internal/types"
)

// SessionAPI is the remote surface the TUI drives. *client.Client
// satisfies it.
type SessionAPI interface {
	reconcile.Gateway
	ListSources(ctx context.Context) ([]types.Source, error)
	ListSessions(ctx context.Context, pageSize int) (*client.SessionsPage, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error)
}

// AccountAPI is the account store surface the accounts screen uses.
type AccountAPI interface {
	List(ctx context.Context) ([]types.Account, error)
	Add(ctx context.Context, name, apiKey string) (types.Account, error)
	Remove(ctx context.Context, id string) error
	ActiveID(ctx context.Context) (string, error)
	SetActiveID(ctx context.Context, id string) error
}

type Options struct {
	Sessions SessionAPI
	Accounts AccountAPI
	Logger   logging.Logger

	SessionsPageSize   int
	PollInterval       time.Duration
	ActivitiesPageSize int
	MaxActivityPages   int

	// DefaultSource preselects a source on the create screen, usually the one
	// inferred from the working directory's git remote.
	DefaultSource string
	// RestoreDraftOnSendFailure puts a cleared chat draft back when the send
	// fails.
	RestoreDraftOnSendFailure bool
	DarkMode                  bool
}

func Run(opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(&model)
	_, err := p.Run()
	model.shutdown()
	return err
}
