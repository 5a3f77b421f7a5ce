package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

var (
	rendererMu       sync.Mutex
	renderersByStyle = map[markdownRendererKey]*glamour.TermRenderer{}
	markdownDarkMode = true
)

type markdownRendererKey struct {
	width int
	dark  bool
}

// renderMarkdown renders agent and user message text. On renderer failure
// the input is returned unchanged.
func renderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := getRenderer(width, markdownBackgroundDark())
	if r == nil {
		return input
	}
	out, err := r.Render(input)
	if err != nil {
		return input
	}
	out = strings.TrimRight(out, "\n")
	out = xansi.Hardwrap(out, width, true)
	return strings.TrimRight(out, "\n")
}

func markdownBackgroundDark() bool {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	return markdownDarkMode
}

func setMarkdownBackgroundDark(dark bool) bool {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	changed := markdownDarkMode != dark
	markdownDarkMode = dark
	return changed
}

func getRenderer(width int, dark bool) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := markdownRendererKey{width: width, dark: dark}
	if renderer, ok := renderersByStyle[key]; ok && renderer != nil {
		return renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(buildStyleConfig(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderersByStyle[key] = r
	return r
}

func buildStyleConfig(dark bool) glamouransi.StyleConfig {
	base := styles.LightStyleConfig
	if dark {
		base = styles.DarkStyleConfig
	}
	// Card padding comes from lipgloss, not the document margins.
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	return base
}
