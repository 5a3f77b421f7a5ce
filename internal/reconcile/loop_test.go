package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"julesctl/internal/activity"
	"julesctl/internal/client"
	"julesctl/internal/types"
)

type fakeGateway struct {
	mu sync.Mutex

	session       *types.Session
	sessionErr    error
	activities    []*types.Activity
	activitiesErr error
	pages         map[string]*client.ActivitiesPage

	gate    chan struct{}
	entered chan struct{}

	approveGate chan struct{}
	approveErr  error
	sendErr     error

	listCalls    int
	tokens       []string
	sent         []string
	approveCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		session: &types.Session{Name: "sessions/s1", State: types.SessionStateInProgress},
		entered: make(chan struct{}, 64),
	}
}

func (f *fakeGateway) GetSession(ctx context.Context, id string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	copied := *f.session
	return &copied, nil
}

func (f *fakeGateway) ListActivities(ctx context.Context, id string, pageSize int, token string) (*client.ActivitiesPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.listCalls++
	f.tokens = append(f.tokens, token)
	gate := f.gate
	f.mu.Unlock()

	select {
	case f.entered <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	if f.pages != nil {
		return f.pages[token], nil
	}
	return &client.ActivitiesPage{Activities: f.activities}, nil
}

func (f *fakeGateway) SendMessage(ctx context.Context, id, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, prompt)
	return nil
}

func (f *fakeGateway) ApprovePlan(ctx context.Context, id string) error {
	f.mu.Lock()
	f.approveCalls++
	gate := f.approveGate
	err := f.approveErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeGateway) setActivities(acts []*types.Activity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = acts
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func makeActivities(prefix string, n int) []*types.Activity {
	out := make([]*types.Activity, n)
	for i := range out {
		out[i] = &types.Activity{
			Name:          fmt.Sprintf("sessions/s1/activities/%s%d", prefix, i),
			AgentMessaged: &types.AgentMessaged{AgentMessage: "step"},
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestScrollFiresOnlyWhenCountGrows(t *testing.T) {
	gw := newFakeGateway()
	var scrolls atomic.Int32
	loop := New(gw, "sessions/s1", Options{OnScroll: func() { scrolls.Add(1) }})
	defer loop.Stop()
	ctx := context.Background()

	gw.setActivities(makeActivities("a", 3))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	base := scrolls.Load()

	gw.setActivities(makeActivities("b", 3))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := scrolls.Load(); got != base {
		t.Fatalf("same count must not scroll: %d -> %d", base, got)
	}
	if loop.Snapshot().Activities[0].Name != "sessions/s1/activities/b0" {
		t.Fatalf("list should be replaced even when the count is unchanged")
	}

	gw.setActivities(makeActivities("c", 5))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := scrolls.Load(); got != base+1 {
		t.Fatalf("growth should scroll exactly once: %d -> %d", base, got)
	}

	gw.setActivities(makeActivities("d", 2))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := scrolls.Load(); got != base+1 {
		t.Fatalf("shrinking must not scroll")
	}
	if loop.Snapshot().Count != 2 {
		t.Fatalf("expected shrunken list to be applied")
	}
}

func TestFailedPassKeepsPriorState(t *testing.T) {
	gw := newFakeGateway()
	var reported []error
	loop := New(gw, "s1", Options{OnError: func(err error) { reported = append(reported, err) }})
	defer loop.Stop()
	ctx := context.Background()

	gw.setActivities(makeActivities("a", 2))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	boom := errors.New("boom")
	gw.mu.Lock()
	gw.activitiesErr = boom
	gw.mu.Unlock()
	if err := loop.Refresh(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Fatalf("expected error to be reported once, got %v", reported)
	}
	if snap := loop.Snapshot(); snap.Count != 2 || len(snap.Items) != 2 {
		t.Fatalf("prior state must be kept, got %#v", snap)
	}
	if loop.State() != StateSettled {
		t.Fatalf("expected settled state after failure, got %v", loop.State())
	}
}

func TestFirstPassFailureLeavesIdle(t *testing.T) {
	gw := newFakeGateway()
	gw.activitiesErr = errors.New("offline")
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	if err := loop.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if loop.State() != StateIdle {
		t.Fatalf("expected idle, got %v", loop.State())
	}
}

func TestMetadataFailureIsBestEffort(t *testing.T) {
	gw := newFakeGateway()
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	ctx := context.Background()

	gw.setActivities(makeActivities("a", 1))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	gw.mu.Lock()
	gw.sessionErr = errors.New("metadata down")
	gw.mu.Unlock()
	gw.setActivities(makeActivities("a", 2))
	if err := loop.Refresh(ctx); err != nil {
		t.Fatalf("metadata failure should not fail the pass: %v", err)
	}
	snap := loop.Snapshot()
	if snap.Count != 2 {
		t.Fatalf("expected activities to be applied, got %d", snap.Count)
	}
	if snap.Session == nil || snap.Session.Name != "sessions/s1" {
		t.Fatalf("expected previous metadata to be kept, got %#v", snap.Session)
	}
}

func TestPaginationFollowsTokens(t *testing.T) {
	gw := newFakeGateway()
	gw.pages = map[string]*client.ActivitiesPage{
		"":   {Activities: makeActivities("a", 2), NextPageToken: "p2"},
		"p2": {Activities: makeActivities("b", 1), NextPageToken: "p3"},
		"p3": {Activities: makeActivities("c", 1)},
	}
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	if err := loop.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := loop.Snapshot().Count; got != 4 {
		t.Fatalf("expected 4 activities across pages, got %d", got)
	}
	if len(gw.tokens) != 3 || gw.tokens[1] != "p2" || gw.tokens[2] != "p3" {
		t.Fatalf("unexpected tokens: %v", gw.tokens)
	}
}

func TestPaginationStopsAtMaxPages(t *testing.T) {
	gw := newFakeGateway()
	gw.pages = map[string]*client.ActivitiesPage{
		"":  {Activities: makeActivities("a", 1), NextPageToken: "x"},
		"x": {Activities: makeActivities("b", 1), NextPageToken: "x"},
	}
	loop := New(gw, "s1", Options{MaxPages: 3})
	defer loop.Stop()
	if err := loop.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if gw.calls() != 3 {
		t.Fatalf("expected 3 page fetches, got %d", gw.calls())
	}
}

func TestOverlappingTriggers(t *testing.T) {
	gw := newFakeGateway()
	gw.gate = make(chan struct{})
	gw.setActivities(makeActivities("a", 1))
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- loop.Refresh(ctx) }()
	<-gw.entered

	if err := loop.trigger(ctx, false); err != nil {
		t.Fatalf("overlapping tick should be skipped quietly: %v", err)
	}

	secondDone := make(chan error, 1)
	go func() { secondDone <- loop.Refresh(ctx) }()
	waitFor(t, "manual trigger to be queued", func() bool {
		loop.mu.Lock()
		defer loop.mu.Unlock()
		return loop.pending != nil
	})

	close(gw.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("coalesced refresh: %v", err)
	}
	if got := gw.calls(); got != 2 {
		t.Fatalf("expected one pass plus one follow-up, got %d fetches", got)
	}
}

func TestStopDiscardsLateResults(t *testing.T) {
	gw := newFakeGateway()
	gw.gate = make(chan struct{})
	gw.setActivities(makeActivities("a", 4))
	var settles, scrolls atomic.Int32
	loop := New(gw, "s1", Options{
		OnSettle: func(Snapshot) { settles.Add(1) },
		OnScroll: func() { scrolls.Add(1) },
	})

	done := make(chan error, 1)
	go func() { done <- loop.Refresh(context.Background()) }()
	<-gw.entered

	loop.Stop()
	close(gw.gate)
	if err := <-done; !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if settles.Load() != 0 || scrolls.Load() != 0 {
		t.Fatalf("no callbacks may run after Stop")
	}
	if loop.Snapshot().Count != 0 {
		t.Fatalf("late results must not be applied")
	}
	if err := loop.Refresh(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after stop, got %v", err)
	}
	loop.Stop()
}

func TestStartPollsUntilStopped(t *testing.T) {
	gw := newFakeGateway()
	gw.setActivities(makeActivities("a", 1))
	var settles atomic.Int32
	loop := New(gw, "s1", Options{
		Interval: 5 * time.Millisecond,
		OnSettle: func(Snapshot) { settles.Add(1) },
	})
	loop.Start(context.Background())
	waitFor(t, "repeated settles", func() bool { return settles.Load() >= 3 })

	loop.Stop()
	after := gw.calls()
	time.Sleep(30 * time.Millisecond)
	if gw.calls() != after {
		t.Fatalf("no fetches may be issued after Stop")
	}
}

func TestStartStopsWithContext(t *testing.T) {
	gw := newFakeGateway()
	loop := New(gw, "s1", Options{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	waitFor(t, "first pass", func() bool { return gw.calls() > 0 })
	cancel()
	waitFor(t, "loop to stop", func() bool { return errors.Is(loop.checkRunning(), ErrStopped) })
}

func TestSendMessage(t *testing.T) {
	gw := newFakeGateway()
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	ctx := context.Background()

	if err := loop.SendMessage(ctx, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(gw.sent) != 0 || gw.calls() != 0 {
		t.Fatalf("blank messages must not reach the gateway")
	}

	gw.setActivities(makeActivities("a", 1))
	if err := loop.SendMessage(ctx, "please add tests"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(gw.sent) != 1 || gw.sent[0] != "please add tests" {
		t.Fatalf("unexpected sent messages: %v", gw.sent)
	}
	if gw.calls() != 1 || loop.Snapshot().Count != 1 {
		t.Fatalf("expected one refresh after send")
	}

	gw.mu.Lock()
	gw.sendErr = errors.New("send failed")
	gw.mu.Unlock()
	if err := loop.SendMessage(ctx, "again"); err == nil {
		t.Fatalf("expected send error")
	}
	if gw.calls() != 1 {
		t.Fatalf("failed sends must not refresh")
	}
}

func TestApprovePlanSingleFlight(t *testing.T) {
	gw := newFakeGateway()
	gw.approveGate = make(chan struct{})
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	ctx := context.Background()
	const planItem = "sessions/s1/activities/plan"

	done := make(chan error, 1)
	go func() { done <- loop.ApprovePlan(ctx, planItem) }()
	waitFor(t, "approval in flight", func() bool { return loop.Interactions().IsApproving(planItem) })

	if err := loop.ApprovePlan(ctx, planItem); !errors.Is(err, ErrApproveInFlight) {
		t.Fatalf("expected ErrApproveInFlight, got %v", err)
	}
	close(gw.approveGate)
	if err := <-done; err != nil {
		t.Fatalf("ApprovePlan: %v", err)
	}
	if loop.Interactions().IsApproving(planItem) {
		t.Fatalf("approval flag must be cleared")
	}
	if gw.approveCalls != 1 || gw.calls() != 1 {
		t.Fatalf("expected one approve and one refresh, got %d/%d", gw.approveCalls, gw.calls())
	}
}

func TestApprovePlanFailureClearsFlag(t *testing.T) {
	gw := newFakeGateway()
	gw.approveErr = errors.New("nope")
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	const planItem = "sessions/s1/activities/plan"

	if err := loop.ApprovePlan(context.Background(), planItem); err == nil {
		t.Fatalf("expected approve error")
	}
	if loop.Interactions().IsApproving(planItem) {
		t.Fatalf("failed approval must clear the flag so the user can retry")
	}
	if gw.calls() != 0 {
		t.Fatalf("failed approvals must not refresh")
	}
}

func TestSettlePrunesInteractionState(t *testing.T) {
	gw := newFakeGateway()
	acts := makeActivities("a", 2)
	gw.setActivities(acts)
	loop := New(gw, "s1", Options{})
	defer loop.Stop()

	loop.Interactions().ToggleStep(acts[0].Name, 0)
	loop.Interactions().ToggleStep("sessions/s1/activities/gone", 0)
	if err := loop.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !loop.Interactions().StepExpanded(acts[0].Name, 0) {
		t.Fatalf("state for a live activity must survive a refetch")
	}
	if loop.Interactions().Len() != 1 {
		t.Fatalf("expected stale entry to be pruned, got %d entries", loop.Interactions().Len())
	}
}

func TestNilActivitiesCountButAreUnrenderable(t *testing.T) {
	gw := newFakeGateway()
	gw.setActivities([]*types.Activity{nil, makeActivities("a", 1)[0]})
	loop := New(gw, "s1", Options{})
	defer loop.Stop()
	if err := loop.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := loop.Snapshot()
	if snap.Count != 2 || len(snap.Items) != 2 || snap.Items[0].Kind != activity.KindUnrenderable {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}
