package main

import (
	"context"
	"flag"
	"io"
	"strings"
	"time"

	"julesctl/internal/app"
	"julesctl/internal/gitsource"
	"julesctl/internal/logging"
)

const sourceInferenceTimeout = 5 * time.Second

type UICommand struct {
	stderr     io.Writer
	open       runtimeFactory
	detectRepo func() (gitsource.Repo, error)
	runUI      func(app.Options) error
}

func NewUICommand(stderr io.Writer, open runtimeFactory, detectRepo func() (gitsource.Repo, error), runUI func(app.Options) error) *UICommand {
	return &UICommand{
		stderr:     stderr,
		open:       open,
		detectRepo: detectRepo,
		runUI:      runUI,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	source := fs.String("source", "", "source preselected when creating a session (default: inferred from the current git remote)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := c.open(logToUIFile)
	if err != nil {
		return err
	}
	defer rt.Close()

	defaultSource := strings.TrimSpace(*source)
	if defaultSource == "" {
		defaultSource = c.inferSource(rt)
	}
	rt.logger.Info("ui starting", logging.F("default_source", defaultSource))

	return c.runUI(app.Options{
		Sessions:                  rt.client,
		Accounts:                  rt.accounts,
		Logger:                    rt.logger,
		SessionsPageSize:          rt.cfg.SessionsPageSize(),
		PollInterval:              rt.cfg.PollInterval(),
		ActivitiesPageSize:        rt.cfg.ActivitiesPageSize(),
		MaxActivityPages:          rt.cfg.MaxActivityPages(),
		DefaultSource:             defaultSource,
		RestoreDraftOnSendFailure: rt.cfg.UI.RestoreDraftOnSendFailure,
		DarkMode:                  rt.cfg.DarkMode(),
	})
}

// inferSource is best effort: any failure leaves the create screen without a
// preselected source.
func (c *UICommand) inferSource(rt *runtime) string {
	if c.detectRepo == nil {
		return ""
	}
	repo, err := c.detectRepo()
	if err != nil {
		rt.logger.Debug("no git source detected", logging.Err(err))
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), sourceInferenceTimeout)
	defer cancel()
	sources, err := rt.client.ListSources(ctx)
	if err != nil {
		rt.logger.Warn("list sources for inference failed", logging.Err(err))
		return ""
	}
	match, ok := gitsource.Match(sources, repo)
	if !ok {
		return ""
	}
	return match.Name
}
