package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"

	"julesctl/internal/activity"
)

type clipboardMethod uint8

const (
	clipboardMethodSystem clipboardMethod = iota
	clipboardMethodOSC52
)

// Terminals and tmux drop OSC52 writes past roughly this many bytes of
// payload, usually without telling anyone.
const osc52MaxPayload = 100_000

var clipboardWriteAll = clipboard.WriteAll
var clipboardWriteOSC52 = writeOSC52Clipboard

// copyPayload picks what "c" copies for an activity and how the toast names
// it. An open patch wins over the file list; a finished session with a commit
// message copies just the message.
func copyPayload(it activity.Item, diffOpen bool) (text, what string) {
	switch it.Kind {
	case activity.KindCodeGenerated:
		if diffOpen && it.Code.Diff != "" {
			return it.Code.Diff, "patch"
		}
		return activity.PlainText(it), "file list"
	case activity.KindPlanGenerated:
		return activity.PlainText(it), fmt.Sprintf("plan (%d steps)", len(it.Plan.Steps))
	case activity.KindSessionCompleted:
		if msg := strings.TrimSpace(it.Completed.CommitMessage); msg != "" {
			return msg, "commit message"
		}
	case activity.KindUnrenderable:
		return activity.RawJSON(it), "raw activity"
	}
	return activity.PlainText(it), strings.ToLower(it.Kind.Label())
}

func copyTextToClipboard(text string) (clipboardMethod, error) {
	systemErr := clipboardWriteAll(text)
	if systemErr == nil {
		return clipboardMethodSystem, nil
	}
	if oscErr := clipboardWriteOSC52(text); oscErr != nil {
		return clipboardMethodSystem, combineClipboardErrors(systemErr, oscErr)
	}
	return clipboardMethodOSC52, nil
}

func (m *Model) copyWithToast(text, what string) bool {
	if strings.TrimSpace(text) == "" {
		m.showWarningToast("nothing to copy")
		return false
	}
	method, err := copyTextToClipboard(text)
	if err != nil {
		m.showErrorToast("copy failed: " + err.Error())
		return false
	}
	msg := "copied " + what
	if method == clipboardMethodOSC52 {
		msg += " via terminal"
	}
	m.showInfoToast(msg)
	return true
}

func writeOSC52Clipboard(text string) error {
	if !osc52Enabled() {
		return errors.New("OSC52 unavailable for this terminal")
	}
	if len(text) > osc52MaxPayload {
		return fmt.Errorf("%d bytes is too large for OSC52", len(text))
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52Sequence(tty, text)
}

// writeOSC52Sequence wraps the escape for the multiplexer in use. Under tmux
// the plain sequence is sent as well, since passthrough may be off.
func writeOSC52Sequence(w io.Writer, text string) error {
	seq := osc52.New(text)
	var wrapped []osc52.Sequence
	switch {
	case os.Getenv("TMUX") != "":
		wrapped = []osc52.Sequence{seq, seq.Tmux()}
	case strings.HasPrefix(strings.ToLower(os.Getenv("TERM")), "screen"):
		wrapped = []osc52.Sequence{seq.Screen()}
	default:
		wrapped = []osc52.Sequence{seq}
	}
	for _, s := range wrapped {
		if _, err := s.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func osc52Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("JULESCTL_DISABLE_OSC52"))) {
	case "1", "true", "yes", "on":
		return false
	}
	termName := strings.TrimSpace(os.Getenv("TERM"))
	return termName != "" && !strings.EqualFold(termName, "dumb")
}

func combineClipboardErrors(systemErr, oscErr error) error {
	if noDisplay() {
		return fmt.Errorf("no desktop clipboard (DISPLAY and WAYLAND_DISPLAY unset); terminal fallback: %v", oscErr)
	}
	systemMsg := strings.TrimSpace(systemErr.Error())
	if systemMsg == "exit status 1" {
		systemMsg = "clipboard helper exited with status 1"
	}
	return fmt.Errorf("system clipboard: %s; terminal fallback: %v", systemMsg, oscErr)
}

func noDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
