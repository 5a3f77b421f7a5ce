package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"julesctl/internal/reconcile"
	"julesctl/internal/types"
)

type WatchCommand struct {
	stdout        io.Writer
	stderr        io.Writer
	open          runtimeFactory
	signalContext func() (context.Context, context.CancelFunc)
}

func NewWatchCommand(stdout, stderr io.Writer, open runtimeFactory, signalContext func() (context.Context, context.CancelFunc)) *WatchCommand {
	return &WatchCommand{
		stdout:        stdout,
		stderr:        stderr,
		open:          open,
		signalContext: signalContext,
	}
}

func (c *WatchCommand) Run(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	interval := fs.Duration("interval", 0, "poll interval (default from config)")
	width := fs.Int("width", textWidth, "wrap text at this many columns (0 disables)")
	untilDone := fs.Bool("until-done", false, "exit once the session is done, failed or cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("watch requires a session id")
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := c.signalContext()
	defer cancel()

	every := *interval
	if every <= 0 {
		every = rt.cfg.PollInterval()
	}
	printer := &watchPrinter{out: c.stdout, errOut: c.stderr, width: *width}
	if *untilDone {
		printer.onFinished = cancel
	}
	loop := reconcile.New(rt.client, fs.Arg(0), reconcile.Options{
		Interval: every,
		PageSize: rt.cfg.ActivitiesPageSize(),
		MaxPages: rt.cfg.MaxActivityPages(),
		Logger:   rt.logger,
		OnSettle: printer.settle,
		OnError:  printer.fail,
	})
	loop.Start(ctx)
	<-ctx.Done()
	loop.Stop()
	return nil
}

// watchPrinter writes activities past the last printed index. Callbacks are
// serialized by the loop.
type watchPrinter struct {
	out        io.Writer
	errOut     io.Writer
	width      int
	printed    int
	started    bool
	lastState  types.SessionState
	onFinished func()
}

func (p *watchPrinter) settle(snapshot reconcile.Snapshot) {
	if !p.started {
		p.started = true
		printSessionHeader(p.out, snapshot.Session)
		fmt.Fprintln(p.out)
	}
	if p.printed > len(snapshot.Items) {
		p.printed = len(snapshot.Items)
	}
	for _, item := range snapshot.Items[p.printed:] {
		printItem(p.out, item, p.width)
	}
	p.printed = len(snapshot.Items)

	if snapshot.Session == nil {
		return
	}
	state := snapshot.Session.State
	if p.lastState != "" && state != p.lastState {
		fmt.Fprintf(p.out, "-- session is now %s\n\n", state.Family())
	}
	p.lastState = state
	if p.onFinished == nil {
		return
	}
	switch state.Family() {
	case types.StatusDone, types.StatusFailed, types.StatusCancelled:
		p.onFinished()
	}
}

func (p *watchPrinter) fail(err error) {
	fmt.Fprintf(p.errOut, "%s watch: %v\n", time.Now().Format("15:04:05"), err)
}
