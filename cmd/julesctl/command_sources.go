package main

import (
	"context"
	"flag"
	"io"
)

type SourcesCommand struct {
	stdout io.Writer
	stderr io.Writer
	open   runtimeFactory
}

func NewSourcesCommand(stdout, stderr io.Writer, open runtimeFactory) *SourcesCommand {
	return &SourcesCommand{
		stdout: stdout,
		stderr: stderr,
		open:   open,
	}
}

func (c *SourcesCommand) Run(args []string) error {
	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	sources, err := rt.client.ListSources(ctx)
	if err != nil {
		return err
	}
	printSources(c.stdout, sources)
	return nil
}
