package app

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"julesctl/internal/reconcile"
)

// loopBridge carries reconcile callbacks into the bubbletea event loop.
// Callbacks record what happened and poke wake without blocking; one waiting
// command drains the pending state.
type loopBridge struct {
	sessionID string
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	settled bool
	scroll  bool
	errs    []error
}

type loopEventMsg struct {
	bridge  *loopBridge
	settled bool
	scroll  bool
	errs    []error
}

func newLoopBridge(sessionID string) *loopBridge {
	return &loopBridge{
		sessionID: sessionID,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// hook installs the bridge's callbacks on opts.
func (b *loopBridge) hook(opts reconcile.Options) reconcile.Options {
	opts.OnSettle = func(reconcile.Snapshot) {
		b.record(func() { b.settled = true })
	}
	opts.OnScroll = func() {
		b.record(func() { b.scroll = true })
	}
	opts.OnError = func(err error) {
		b.record(func() { b.errs = append(b.errs, err) })
	}
	return opts
}

func (b *loopBridge) record(apply func()) {
	b.mu.Lock()
	apply()
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *loopBridge) drain() loopEventMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg := loopEventMsg{bridge: b, settled: b.settled, scroll: b.scroll, errs: b.errs}
	b.settled, b.scroll, b.errs = false, false, nil
	return msg
}

func (b *loopBridge) close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// waitCmd blocks until the loop reports something or the bridge closes.
func (b *loopBridge) waitCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.wake:
			return b.drain()
		case <-b.done:
			return nil
		}
	}
}
