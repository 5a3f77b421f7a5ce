package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"julesctl/internal/accounts"
)

type AccountsCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	open       runtimeFactory
	readSecret func(prompt string) (string, error)
}

func NewAccountsCommand(stdout, stderr io.Writer, open runtimeFactory, readSecret func(string) (string, error)) *AccountsCommand {
	return &AccountsCommand{
		stdout:     stdout,
		stderr:     stderr,
		open:       open,
		readSecret: readSecret,
	}
}

func (c *AccountsCommand) Run(args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list", "ls":
		return c.list(args)
	case "add":
		return c.add(args)
	case "rm", "remove":
		return c.remove(args)
	case "use":
		return c.use(args)
	case "rename":
		return c.rename(args)
	case "set-key":
		return c.setKey(args)
	default:
		return fmt.Errorf("unknown accounts command %q (want list, add, rm, use, rename or set-key)", sub)
	}
}

func (c *AccountsCommand) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("accounts "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *AccountsCommand) list(args []string) error {
	fs := c.flags("list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.withStore(func(ctx context.Context, store accountStore) error {
		list, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(c.stdout, "no accounts; add one with: julesctl accounts add --name <name>")
			return nil
		}
		activeID, err := store.ActiveID(ctx)
		if err != nil {
			return err
		}
		printAccounts(c.stdout, list, activeID)
		return nil
	})
}

func (c *AccountsCommand) add(args []string) error {
	fs := c.flags("add")
	name := fs.String("name", "", "account name")
	key := fs.String("key", "", "API key (prompted when omitted)")
	use := fs.Bool("use", false, "make the new account active")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" && fs.NArg() > 0 {
		*name = fs.Arg(0)
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("accounts add requires --name")
	}
	apiKey, err := c.resolveKey(*key)
	if err != nil {
		return err
	}
	return c.withStore(func(ctx context.Context, store accountStore) error {
		account, err := store.Add(ctx, *name, apiKey)
		if err != nil {
			return err
		}
		if *use {
			if err := store.SetActiveID(ctx, account.ID); err != nil {
				return err
			}
		}
		fmt.Fprintf(c.stdout, "added %s (%s)\n", account.Name, account.ID)
		return nil
	})
}

func (c *AccountsCommand) remove(args []string) error {
	fs := c.flags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("accounts rm requires an account id or name")
	}
	return c.withStore(func(ctx context.Context, store accountStore) error {
		account, err := resolveAccount(ctx, store, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := store.Remove(ctx, account.ID); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "removed %s\n", account.Name)
		return nil
	})
}

func (c *AccountsCommand) use(args []string) error {
	fs := c.flags("use")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("accounts use requires an account id or name")
	}
	return c.withStore(func(ctx context.Context, store accountStore) error {
		account, err := resolveAccount(ctx, store, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := store.SetActiveID(ctx, account.ID); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "using %s\n", account.Name)
		return nil
	})
}

func (c *AccountsCommand) rename(args []string) error {
	fs := c.flags("rename")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("accounts rename requires an account and a new name")
	}
	name := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	return c.withStore(func(ctx context.Context, store accountStore) error {
		account, err := resolveAccount(ctx, store, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := store.Update(ctx, account.ID, accounts.AccountPatch{Name: &name}); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "renamed %s to %s\n", account.Name, name)
		return nil
	})
}

func (c *AccountsCommand) setKey(args []string) error {
	fs := c.flags("set-key")
	key := fs.String("key", "", "API key (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("accounts set-key requires an account id or name")
	}
	apiKey, err := c.resolveKey(*key)
	if err != nil {
		return err
	}
	return c.withStore(func(ctx context.Context, store accountStore) error {
		account, err := resolveAccount(ctx, store, fs.Arg(0))
		if err != nil {
			return err
		}
		if err := store.Update(ctx, account.ID, accounts.AccountPatch{APIKey: &apiKey}); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "updated key for %s\n", account.Name)
		return nil
	})
}

func (c *AccountsCommand) resolveKey(flagValue string) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	if c.readSecret == nil {
		return "", errors.New("--key is required")
	}
	key, err := c.readSecret("API key: ")
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("api key is empty")
	}
	return strings.TrimSpace(key), nil
}

func (c *AccountsCommand) withStore(fn func(ctx context.Context, store accountStore) error) error {
	rt, err := c.open(logToStderr)
	if err != nil {
		return err
	}
	defer rt.Close()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return fn(ctx, rt.accounts)
}
