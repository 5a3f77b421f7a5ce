package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"julesctl/internal/sessionfilter"
	"julesctl/internal/types"
)

type SessionsCommand struct {
	stdout io.Writer
	stderr io.Writer
	open   runtimeFactory
}

func NewSessionsCommand(stdout, stderr io.Writer, open runtimeFactory) *SessionsCommand {
	return &SessionsCommand{
		stdout: stdout,
		stderr: stderr,
		open:   open,
	}
}

func (c *SessionsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	query := fs.String("query", "", "fuzzy match on title and prompt")
	source := fs.String("source", "", "only sessions for this source (name or owner/repo)")
	status := fs.String("status", "", "only sessions in this status: working|waiting|done|failed|cancelled|unknown")
	pageSize := fs.Int("page-size", 0, "number of sessions to fetch (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := sessionfilter.Filter{Query: *query, Source: *source}
	if strings.TrimSpace(*status) != "" {
		family, ok := types.ParseStatusFamily(*status)
		if !ok {
			return fmt.Errorf("invalid status %q", *status)
		}
		filter.Family = family
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	size := *pageSize
	if size <= 0 {
		size = rt.cfg.SessionsPageSize()
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	page, err := rt.client.ListSessions(ctx, size)
	if err != nil {
		return err
	}
	var sessions []types.Session
	if page != nil {
		sessions = filter.Apply(page.Sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(c.stdout, "no sessions")
		return nil
	}
	printSessions(c.stdout, sessions)
	return nil
}
