package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"julesctl/internal/client"
	"julesctl/internal/gitsource"
)

type CreateCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	open       runtimeFactory
	detectRepo func() (gitsource.Repo, error)
}

func NewCreateCommand(stdout, stderr io.Writer, open runtimeFactory, detectRepo func() (gitsource.Repo, error)) *CreateCommand {
	return &CreateCommand{
		stdout:     stdout,
		stderr:     stderr,
		open:       open,
		detectRepo: detectRepo,
	}
}

func (c *CreateCommand) Run(args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	prompt := fs.String("prompt", "", "task for the agent")
	source := fs.String("source", "", "source name (default: inferred from the current git remote)")
	branch := fs.String("branch", client.DefaultStartingBranch, "starting branch")
	title := fs.String("title", "", "session title")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*prompt) == "" && fs.NArg() > 0 {
		*prompt = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(*prompt) == "" {
		return errors.New("create requires --prompt")
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resolved := strings.TrimSpace(*source)
	if resolved == "" {
		resolved, err = c.inferSource(ctx, rt.client)
		if err != nil {
			return err
		}
	}
	session, err := rt.client.CreateSession(ctx, client.CreateSessionRequest{
		Prompt:         *prompt,
		Source:         resolved,
		StartingBranch: *branch,
		Title:          *title,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, session.ShortID())
	if session.URL != "" {
		fmt.Fprintln(c.stdout, session.URL)
	}
	return nil
}

func (c *CreateCommand) inferSource(ctx context.Context, api commandClient) (string, error) {
	if c.detectRepo == nil {
		return "", errors.New("create requires --source")
	}
	repo, err := c.detectRepo()
	if err != nil {
		return "", fmt.Errorf("no --source given and the current directory has no GitHub remote: %w", err)
	}
	sources, err := api.ListSources(ctx)
	if err != nil {
		return "", err
	}
	match, ok := gitsource.Match(sources, repo)
	if !ok {
		return "", fmt.Errorf("%s is not a connected source; pass --source", repo)
	}
	return match.Name, nil
}
