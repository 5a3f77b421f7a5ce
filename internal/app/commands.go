package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"julesctl/internal/client"
	"julesctl/internal/reconcile"
)

const (
	requestTimeout = 30 * time.Second
	tickInterval   = time.Second
)

func fetchSessionsCmd(api SessionAPI, pageSize int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := api.ListSessions(ctx, pageSize)
		if err != nil {
			return sessionsMsg{err: err}
		}
		return sessionsMsg{sessions: page.Sessions}
	}
}

func fetchSourcesCmd(api SessionAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sources, err := api.ListSources(ctx)
		return sourcesMsg{sources: sources, err: err}
	}
}

func createSessionCmd(api SessionAPI, req client.CreateSessionRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		session, err := api.CreateSession(ctx, req)
		return createSessionMsg{session: session, err: err}
	}
}

func fetchAccountsCmd(api AccountAPI) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		accounts, err := api.List(ctx)
		if err != nil {
			return accountsMsg{err: err}
		}
		activeID, err := api.ActiveID(ctx)
		return accountsMsg{accounts: accounts, activeID: activeID, err: err}
	}
}

func addAccountCmd(api AccountAPI, name, apiKey string) tea.Cmd {
	return func() tea.Msg {
		account, err := api.Add(context.Background(), name, apiKey)
		if err != nil {
			return accountChangedMsg{err: err}
		}
		return accountChangedMsg{status: "added account " + account.Name}
	}
}

func removeAccountCmd(api AccountAPI, id, name string) tea.Cmd {
	return func() tea.Msg {
		if err := api.Remove(context.Background(), id); err != nil {
			return accountChangedMsg{err: err}
		}
		return accountChangedMsg{status: "removed account " + name}
	}
}

func activateAccountCmd(api AccountAPI, id, name string) tea.Cmd {
	return func() tea.Msg {
		if err := api.SetActiveID(context.Background(), id); err != nil {
			return accountChangedMsg{err: err}
		}
		return accountChangedMsg{status: "using account " + name}
	}
}

func sendMessageCmd(loop *reconcile.Loop, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := loop.SendMessage(ctx, text)
		return sendResultMsg{sessionID: loop.SessionID(), text: text, err: err}
	}
}

func approvePlanCmd(loop *reconcile.Loop, itemKey string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := loop.ApprovePlan(ctx, itemKey)
		return approveResultMsg{sessionID: loop.SessionID(), itemKey: itemKey, err: err}
	}
}

func refreshLoopCmd(loop *reconcile.Loop) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return refreshResultMsg{sessionID: loop.SessionID(), err: loop.Refresh(ctx)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
