// Package reconcile keeps a local copy of one session's activity log in step
// with the remote service by polling.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"julesctl/internal/activity"
	"julesctl/internal/client"
	"julesctl/internal/interaction"
	"julesctl/internal/logging"
	"julesctl/internal/types"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultPageSize = client.DefaultActivitiesPageSize
	DefaultMaxPages = 10
)

var (
	ErrStopped         = errors.New("reconcile loop stopped")
	ErrApproveInFlight = errors.New("plan approval already in flight")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Gateway is the subset of the remote client the loop drives.
type Gateway interface {
	GetSession(ctx context.Context, id string) (*types.Session, error)
	ListActivities(ctx context.Context, id string, pageSize int, pageToken string) (*client.ActivitiesPage, error)
	SendMessage(ctx context.Context, id, prompt string) error
	ApprovePlan(ctx context.Context, id string) error
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Options configure a Loop. Callbacks run on the loop's goroutines, must not
// block, and must not call Stop.
type Options struct {
	Interval time.Duration
	PageSize int
	MaxPages int
	Logger   logging.Logger

	// OnSettle receives every successfully applied snapshot.
	OnSettle func(Snapshot)
	// OnScroll fires once per settle that grew the activity list.
	OnScroll func()
	// OnError receives failed passes; prior state is kept.
	OnError func(error)
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Snapshot is one applied reconciliation result. Its slices are never
// mutated after being published.
type Snapshot struct {
	Session    *types.Session
	Activities []*types.Activity
	Items      []activity.Item
	Count      int
	SettledAt  time.Time
}

type followUp struct {
	done chan struct{}
	err  error
}

type Loop struct {
	gateway      Gateway
	sessionID    string
	opts         Options
	logger       logging.Logger
	interactions *interaction.State

	ctx    context.Context
	cancel context.CancelFunc

	// cbMu is held while a pass applies its result and runs callbacks, so
	// Stop can wait out a settle that is already past its stopped check.
	cbMu sync.Mutex

	mu        sync.Mutex
	state     State
	snapshot  Snapshot
	settled   bool
	inFlight  bool
	pending   *followUp
	started   bool
	stopped   bool
	stopAfter func() bool
}

func New(gateway Gateway, sessionID string, opts Options) *Loop {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	sessionID = client.NormalizeSessionID(sessionID)
	return &Loop{
		gateway:      gateway,
		sessionID:    sessionID,
		opts:         opts,
		logger:       opts.Logger.With(logging.F("session_id", sessionID)),
		interactions: interaction.New(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (l *Loop) SessionID() string {
	return l.sessionID
}

func (l *Loop) Interactions() *interaction.State {
	return l.interactions
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// Start runs one pass immediately and then one pass per interval, re-armed
// after each pass completes, until Stop or ctx is done.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true
	if ctx != nil {
		l.stopAfter = context.AfterFunc(ctx, l.Stop)
	}
	l.mu.Unlock()

	go l.run()
}

func (l *Loop) run() {
	for {
		if err := l.trigger(l.ctx, false); errors.Is(err, ErrStopped) {
			return
		}
		timer := time.NewTimer(l.opts.Interval)
		select {
		case <-timer.C:
		case <-l.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Stop cancels the timer and any in-flight requests. No callback runs after
// Stop returns. Stop is idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.state = StateIdle
	pending := l.pending
	l.pending = nil
	stopAfter := l.stopAfter
	l.mu.Unlock()

	l.cancel()
	if stopAfter != nil {
		stopAfter()
	}
	l.cbMu.Lock()
	l.cbMu.Unlock()
	if pending != nil {
		pending.err = ErrStopped
		close(pending.done)
	}
	l.logger.Debug("reconcile loop stopped")
}

// Refresh runs a pass now. If one is already running, the request is folded
// into a single follow-up pass that starts when the current one settles, and
// Refresh waits for that follow-up.
func (l *Loop) Refresh(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.trigger(ctx, true)
}

// SendMessage posts text to the session and refreshes on success. A failed
// refresh after a successful send is reported through OnError only.
func (l *Loop) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if err := l.checkRunning(); err != nil {
		return err
	}
	if err := l.gateway.SendMessage(ctx, l.sessionID, text); err != nil {
		return err
	}
	_ = l.Refresh(ctx)
	return nil
}

// ApprovePlan approves the session's pending plan on behalf of the plan item
// keyed by activityName. A second call for the same item while the first is
// outstanding returns ErrApproveInFlight. The in-flight flag is cleared once
// the follow-up refresh has run, whatever the outcome.
func (l *Loop) ApprovePlan(ctx context.Context, activityName string) error {
	if err := l.checkRunning(); err != nil {
		return err
	}
	if !l.interactions.BeginApprove(activityName) {
		return ErrApproveInFlight
	}
	defer l.interactions.EndApprove(activityName)

	if err := l.gateway.ApprovePlan(ctx, l.sessionID); err != nil {
		return err
	}
	_ = l.Refresh(ctx)
	return nil
}

func (l *Loop) checkRunning() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return ErrStopped
	}
	return nil
}

func (l *Loop) trigger(ctx context.Context, manual bool) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if l.inFlight {
		if !manual {
			l.mu.Unlock()
			l.logger.Debug("reconcile tick skipped; pass in flight")
			return nil
		}
		if l.pending == nil {
			l.pending = &followUp{done: make(chan struct{})}
		}
		pending := l.pending
		l.mu.Unlock()
		select {
		case <-pending.done:
			return pending.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.inFlight = true
	l.mu.Unlock()

	err := l.pass(ctx)
	for {
		l.mu.Lock()
		pending := l.pending
		l.pending = nil
		if pending == nil || l.stopped {
			l.inFlight = false
			l.mu.Unlock()
			return err
		}
		l.mu.Unlock()

		pending.err = l.pass(l.ctx)
		close(pending.done)
	}
}

func (l *Loop) pass(ctx context.Context) error {
	passCtx, cancel := context.WithCancel(l.ctx)
	defer cancel()
	if ctx != l.ctx {
		defer context.AfterFunc(ctx, cancel)()
	}

	l.mu.Lock()
	l.state = StateLoading
	l.mu.Unlock()

	var (
		session    *types.Session
		activities []*types.Activity
	)
	g, gctx := errgroup.WithContext(passCtx)
	g.Go(func() error {
		s, err := l.gateway.GetSession(gctx, l.sessionID)
		if err != nil {
			if gctx.Err() == nil {
				l.logger.Warn("session metadata fetch failed", logging.Err(err))
			}
			return nil
		}
		session = s
		return nil
	})
	g.Go(func() error {
		list, err := l.fetchActivities(gctx)
		if err != nil {
			return err
		}
		activities = list
		return nil
	})
	err := g.Wait()

	l.cbMu.Lock()
	defer l.cbMu.Unlock()

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if err != nil {
		l.state = StateIdle
		if l.settled {
			l.state = StateSettled
		}
		l.mu.Unlock()
		l.logger.Warn("reconcile pass failed", logging.Err(err))
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
		return err
	}

	prevCount := len(l.snapshot.Activities)
	if session == nil {
		session = l.snapshot.Session
	}
	items := activity.ClassifyAll(activities)
	l.snapshot = Snapshot{
		Session:    session,
		Activities: activities,
		Items:      items,
		Count:      len(activities),
		SettledAt:  time.Now(),
	}
	l.settled = true
	l.state = StateSettled
	snapshot := l.snapshot
	l.mu.Unlock()

	keys := make([]string, 0, len(items))
	for _, item := range items {
		if key := item.Key(); key != "" {
			keys = append(keys, key)
		}
	}
	l.interactions.Prune(keys)

	l.logger.Debug("reconcile pass settled",
		logging.F("count", snapshot.Count),
		logging.F("previous", prevCount),
	)
	if l.opts.OnSettle != nil {
		l.opts.OnSettle(snapshot)
	}
	if snapshot.Count > prevCount && l.opts.OnScroll != nil {
		l.opts.OnScroll()
	}
	return nil
}

// fetchActivities follows page tokens up to MaxPages.
func (l *Loop) fetchActivities(ctx context.Context) ([]*types.Activity, error) {
	all := []*types.Activity{}
	token := ""
	for page := 0; page < l.opts.MaxPages; page++ {
		resp, err := l.gateway.ListActivities(ctx, l.sessionID, l.opts.PageSize, token)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return all, nil
		}
		all = append(all, resp.Activities...)
		token = strings.TrimSpace(resp.NextPageToken)
		if token == "" {
			return all, nil
		}
	}
	l.logger.Warn("activity list truncated", logging.F("max_pages", l.opts.MaxPages))
	return all, nil
}
