package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"julesctl/internal/accounts"
	"julesctl/internal/client"
	"julesctl/internal/config"
	"julesctl/internal/logging"
	"julesctl/internal/store"
	"julesctl/internal/types"
)

type commandClient interface {
	ListSources(ctx context.Context) ([]types.Source, error)
	ListSessions(ctx context.Context, pageSize int) (*client.SessionsPage, error)
	CreateSession(ctx context.Context, req client.CreateSessionRequest) (*types.Session, error)
	GetSession(ctx context.Context, id string) (*types.Session, error)
	ListActivities(ctx context.Context, id string, pageSize int, pageToken string) (*client.ActivitiesPage, error)
	SendMessage(ctx context.Context, id, prompt string) error
	ApprovePlan(ctx context.Context, id string) error
}

type accountStore interface {
	List(ctx context.Context) ([]types.Account, error)
	Add(ctx context.Context, name, apiKey string) (types.Account, error)
	Update(ctx context.Context, id string, patch accounts.AccountPatch) error
	Remove(ctx context.Context, id string) error
	ActiveID(ctx context.Context) (string, error)
	SetActiveID(ctx context.Context, id string) error
}

type logTarget int

const (
	logToStderr logTarget = iota
	logToUIFile
)

// runtime bundles everything a command needs against one opened store. The
// client and the account store share it, so switching the active account
// takes effect on the next request.
type runtime struct {
	cfg      config.Config
	client   commandClient
	accounts accountStore
	logger   logging.Logger
	closers  []io.Closer
}

func (r *runtime) Close() error {
	var errs []error
	for _, closer := range r.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type runtimeFactory func(target logTarget) (*runtime, error)

func newRuntimeFactory(stderr io.Writer) runtimeFactory {
	return func(target logTarget) (*runtime, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		rt := &runtime{cfg: cfg}
		switch target {
		case logToUIFile:
			logger, closer := configureUILogging(cfg)
			rt.logger = logger
			if closer != nil {
				rt.closers = append(rt.closers, closer)
			}
		default:
			rt.logger = logging.New(stderr, logging.ParseLevel(cfg.LogLevel()))
		}

		paths, err := storePaths()
		if err != nil {
			return nil, err
		}
		kv, err := store.Open(cfg.StorageBackend(), paths)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("open account storage: %w", err)
		}
		rt.closers = append([]io.Closer{kv}, rt.closers...)

		accountSet := accounts.New(kv, accounts.WithLogger(rt.logger))
		rt.accounts = accountSet
		rt.client = client.New(cfg.BaseURL(), accountSet,
			client.WithTimeout(cfg.Timeout()),
			client.WithLogger(rt.logger),
		)
		return rt, nil
	}
}

func storePaths() (store.Paths, error) {
	file, err := config.AccountsPath()
	if err != nil {
		return store.Paths{}, err
	}
	bbolt, err := config.AccountsDBPath()
	if err != nil {
		return store.Paths{}, err
	}
	sqlite, err := config.AccountsSQLitePath()
	if err != nil {
		return store.Paths{}, err
	}
	return store.Paths{File: file, Bbolt: bbolt, SQLite: sqlite}, nil
}

// configureUILogging points logs at <datadir>/ui.log so they never draw over
// the terminal UI. Logging is dropped if the file cannot be opened.
func configureUILogging(cfg config.Config) (logging.Logger, io.Closer) {
	path, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), nil
	}
	logger, closer, err := logging.OpenFile(path, logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		return logging.Nop(), nil
	}
	return logger, closer
}

// promptSecret reads a line without echo when in is a terminal, and a plain
// line otherwise so keys can be piped in.
func promptSecret(in *os.File, prompts io.Writer) func(prompt string) (string, error) {
	return func(prompt string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			line, err := bufio.NewReader(in).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(line), nil
		}
		fmt.Fprint(prompts, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(prompts)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
}
