package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"julesctl/internal/activity"
	"julesctl/internal/reconcile"
)

type ShowCommand struct {
	stdout io.Writer
	stderr io.Writer
	open   runtimeFactory
}

func NewShowCommand(stdout, stderr io.Writer, open runtimeFactory) *ShowCommand {
	return &ShowCommand{
		stdout: stdout,
		stderr: stderr,
		open:   open,
	}
}

func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	width := fs.Int("width", textWidth, "wrap text at this many columns (0 disables)")
	last := fs.Int("last", 0, "only print the last N activities")
	raw := fs.Bool("raw", false, "print activities as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("show requires a session id")
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	loop := reconcile.New(rt.client, fs.Arg(0), reconcile.Options{
		PageSize: rt.cfg.ActivitiesPageSize(),
		MaxPages: rt.cfg.MaxActivityPages(),
		Logger:   rt.logger,
	})
	defer loop.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := loop.Refresh(ctx); err != nil {
		return err
	}
	snapshot := loop.Snapshot()

	items := snapshot.Items
	if *last > 0 && len(items) > *last {
		items = items[len(items)-*last:]
	}
	if *raw {
		for _, item := range items {
			fmt.Fprintln(c.stdout, activity.RawJSON(item))
		}
		return nil
	}

	printSessionHeader(c.stdout, snapshot.Session)
	fmt.Fprintln(c.stdout)
	if len(items) == 0 {
		fmt.Fprintln(c.stdout, "no activity yet")
		return nil
	}
	for _, item := range items {
		printItem(c.stdout, item, *width)
	}
	return nil
}
