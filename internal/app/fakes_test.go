package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"julesctl/internal/client"
	"julesctl/internal/types"
)

type fakeSessionAPI struct {
	mu         sync.Mutex
	sessions   []types.Session
	sources    []types.Source
	activities []*types.Activity
	sendErr    error
	approveErr error

	created  []client.CreateSessionRequest
	sent     []string
	approved int
	listed   int
}

func (f *fakeSessionAPI) ListSources(context.Context) ([]types.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources, nil
}

func (f *fakeSessionAPI) ListSessions(context.Context, int) (*client.SessionsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	return &client.SessionsPage{Sessions: f.sessions}, nil
}

func (f *fakeSessionAPI) CreateSession(_ context.Context, req client.CreateSessionRequest) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &types.Session{Name: "sessions/new", Prompt: req.Prompt}, nil
}

func (f *fakeSessionAPI) GetSession(_ context.Context, id string) (*types.Session, error) {
	return &types.Session{Name: "sessions/" + id, Title: "Session " + id}, nil
}

func (f *fakeSessionAPI) ListActivities(ctx context.Context, _ string, _ int, _ string) (*client.ActivitiesPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &client.ActivitiesPage{Activities: f.activities}, nil
}

func (f *fakeSessionAPI) SendMessage(_ context.Context, _ string, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, prompt)
	return nil
}

func (f *fakeSessionAPI) ApprovePlan(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved++
	return nil
}

type fakeAccountAPI struct {
	accounts []types.Account
	activeID string
}

func (f *fakeAccountAPI) List(context.Context) ([]types.Account, error) {
	return append([]types.Account(nil), f.accounts...), nil
}

func (f *fakeAccountAPI) Add(_ context.Context, name, apiKey string) (types.Account, error) {
	if name == "" || apiKey == "" {
		return types.Account{}, errors.New("invalid account")
	}
	account := types.Account{ID: "id-" + name, Name: name, APIKey: apiKey}
	f.accounts = append(f.accounts, account)
	if f.activeID == "" {
		f.activeID = account.ID
	}
	return account, nil
}

func (f *fakeAccountAPI) Remove(_ context.Context, id string) error {
	for i, account := range f.accounts {
		if account.ID == id {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeAccountAPI) ActiveID(context.Context) (string, error) {
	return f.activeID, nil
}

func (f *fakeAccountAPI) SetActiveID(_ context.Context, id string) error {
	f.activeID = id
	return nil
}

func newTestModel(t *testing.T, api *fakeSessionAPI, opts Options) *Model {
	t.Helper()
	opts.Sessions = api
	if opts.Accounts == nil {
		opts.Accounts = &fakeAccountAPI{}
	}
	m := NewModel(opts)
	m.resize(100, 40)
	t.Cleanup(m.shutdown)
	return &m
}

func activityJSON(t *testing.T, raw string) *types.Activity {
	t.Helper()
	var a types.Activity
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	return &a
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func keyCode(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}
