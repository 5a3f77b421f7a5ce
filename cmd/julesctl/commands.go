package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"julesctl/internal/app"
	"julesctl/internal/gitsource"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout        io.Writer
	stderr        io.Writer
	open          runtimeFactory
	readSecret    func(prompt string) (string, error)
	detectRepo    func() (gitsource.Repo, error)
	signalContext func() (context.Context, context.CancelFunc)
	runUI         func(app.Options) error
	version       string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:        stdout,
		stderr:        stderr,
		open:          newRuntimeFactory(stderr),
		readSecret:    promptSecret(os.Stdin, stderr),
		detectRepo:    detectWorkingRepo,
		signalContext: interruptContext,
		runUI:         app.Run,
		version:       buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"accounts": NewAccountsCommand(wiring.stdout, wiring.stderr, wiring.open, wiring.readSecret),
		"sources":  NewSourcesCommand(wiring.stdout, wiring.stderr, wiring.open),
		"sessions": NewSessionsCommand(wiring.stdout, wiring.stderr, wiring.open),
		"create":   NewCreateCommand(wiring.stdout, wiring.stderr, wiring.open, wiring.detectRepo),
		"show":     NewShowCommand(wiring.stdout, wiring.stderr, wiring.open),
		"send":     NewSendCommand(wiring.stdout, wiring.stderr, wiring.open),
		"approve":  NewApproveCommand(wiring.stdout, wiring.stderr, wiring.open),
		"watch":    NewWatchCommand(wiring.stdout, wiring.stderr, wiring.open, wiring.signalContext),
		"ui":       NewUICommand(wiring.stderr, wiring.open, wiring.detectRepo, wiring.runUI),
		"config":   NewConfigCommand(wiring.stdout, wiring.stderr),
		"version":  versionCommand{stdout: wiring.stdout, version: wiring.version},
	}
}

type versionCommand struct {
	stdout  io.Writer
	version string
}

func (c versionCommand) Run([]string) error {
	_, err := fmt.Fprintln(c.stdout, c.version)
	return err
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func detectWorkingRepo() (gitsource.Repo, error) {
	dir, err := os.Getwd()
	if err != nil {
		return gitsource.Repo{}, err
	}
	return gitsource.Detect(dir)
}
