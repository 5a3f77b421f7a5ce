package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"julesctl/internal/activity"
	"julesctl/internal/types"
)

const (
	version        = "dev"
	requestTimeout = 30 * time.Second
	textWidth      = 88
)

func printSessions(output io.Writer, sessions []types.Session) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSTATUS\tSOURCE\tTITLE")
	for i := range sessions {
		session := &sessions[i]
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			session.ShortID(),
			session.State.Family(),
			strings.TrimPrefix(session.SourceContext.Source, "sources/"),
			oneLine(session.DisplayTitle()),
		)
	}
	_ = writer.Flush()
}

func printSources(output io.Writer, sources []types.Source) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tREPO")
	for _, source := range sources {
		fmt.Fprintf(writer, "%s\t%s\n", source.Name, source.Label())
	}
	_ = writer.Flush()
}

func printAccounts(output io.Writer, accounts []types.Account, activeID string) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ACTIVE\tID\tNAME\tKEY")
	for _, account := range accounts {
		marker := ""
		if account.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", marker, account.ID, account.Name, account.MaskedKey())
	}
	_ = writer.Flush()
}

func printSessionHeader(output io.Writer, session *types.Session) {
	if session == nil {
		return
	}
	fmt.Fprintf(output, "%s  [%s]\n", session.DisplayTitle(), activity.HumanizeStatus(string(session.State)))
	if source := strings.TrimPrefix(session.SourceContext.Source, "sources/"); source != "" {
		fmt.Fprintf(output, "source: %s\n", source)
	}
	if pr := session.PullRequest(); pr != nil && pr.URL != "" {
		fmt.Fprintf(output, "pull request: %s\n", pr.URL)
	}
	if session.URL != "" {
		fmt.Fprintf(output, "url: %s\n", session.URL)
	}
}

// printItem writes one classified activity as a heading line followed by its
// plain text, wrapped and indented.
func printItem(output io.Writer, item activity.Item, width int) {
	label := item.Kind.Label()
	if label == "" {
		label = "Activity"
	}
	heading := "== " + label
	if item.Activity != nil && item.Activity.CreateTime != nil {
		heading += " · " + item.Activity.CreateTime.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintln(output, heading)
	body := activity.PlainText(item)
	if strings.TrimSpace(body) == "" {
		fmt.Fprintln(output)
		return
	}
	if width > 4 && item.Kind != activity.KindUnrenderable {
		body = wordwrap.String(body, width-2)
	}
	fmt.Fprintln(output, indent.String(body, 2))
	fmt.Fprintln(output)
}

func oneLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	return text
}

// resolveAccount finds an account by id, or by name when exactly one account
// carries it.
func resolveAccount(ctx context.Context, store accountStore, ref string) (types.Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Account{}, errors.New("account id or name is required")
	}
	list, err := store.List(ctx)
	if err != nil {
		return types.Account{}, err
	}
	var byName []types.Account
	for _, account := range list {
		if account.ID == ref {
			return account, nil
		}
		if strings.EqualFold(account.Name, ref) {
			byName = append(byName, account)
		}
	}
	switch len(byName) {
	case 0:
		return types.Account{}, fmt.Errorf("no account %q", ref)
	case 1:
		return byName[0], nil
	default:
		return types.Account{}, fmt.Errorf("account name %q is ambiguous; use the id", ref)
	}
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}
	return version
}
