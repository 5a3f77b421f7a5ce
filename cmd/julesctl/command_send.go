package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"julesctl/internal/activity"
	"julesctl/internal/client"
	"julesctl/internal/reconcile"
)

type SendCommand struct {
	stdout io.Writer
	stderr io.Writer
	open   runtimeFactory
}

func NewSendCommand(stdout, stderr io.Writer, open runtimeFactory) *SendCommand {
	return &SendCommand{
		stdout: stdout,
		stderr: stderr,
		open:   open,
	}
}

func (c *SendCommand) Run(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("send requires a session id and a message")
	}
	id := fs.Arg(0)
	text := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	if text == "" {
		return reconcile.ErrEmptyMessage
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := rt.client.SendMessage(ctx, id, text); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "sent to %s\n", client.NormalizeSessionID(id))
	return nil
}

type ApproveCommand struct {
	stdout io.Writer
	stderr io.Writer
	open   runtimeFactory
}

func NewApproveCommand(stdout, stderr io.Writer, open runtimeFactory) *ApproveCommand {
	return &ApproveCommand{
		stdout: stdout,
		stderr: stderr,
		open:   open,
	}
}

func (c *ApproveCommand) Run(args []string) error {
	fs := flag.NewFlagSet("approve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	force := fs.Bool("force", false, "approve without checking for a pending plan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("approve requires a session id")
	}
	id := fs.Arg(0)

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if !*force {
		loop := reconcile.New(rt.client, id, reconcile.Options{
			PageSize: rt.cfg.ActivitiesPageSize(),
			MaxPages: rt.cfg.MaxActivityPages(),
			Logger:   rt.logger,
		})
		defer loop.Stop()
		if err := loop.Refresh(ctx); err != nil {
			return err
		}
		items := loop.Snapshot().Items
		idx := activity.LatestApprovablePlan(items)
		if idx < 0 {
			return errors.New("no plan is waiting for approval (use --force to approve anyway)")
		}
		if err := loop.ApprovePlan(ctx, items[idx].Key()); err != nil {
			return err
		}
	} else if err := rt.client.ApprovePlan(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "approved plan for %s\n", client.NormalizeSessionID(id))
	return nil
}
