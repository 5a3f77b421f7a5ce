package app

import (
	"bytes"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	diffLexerOnce sync.Once
	diffLexer     chroma.Lexer
)

func getDiffLexer() chroma.Lexer {
	diffLexerOnce.Do(func() {
		lexer := lexers.Get("diff")
		if lexer == nil {
			lexer = lexers.Fallback
		}
		diffLexer = chroma.Coalesce(lexer)
	})
	return diffLexer
}

func chromaStyle() *chroma.Style {
	if markdownBackgroundDark() {
		if s := styles.Get("monokai"); s != nil {
			return s
		}
	}
	if s := styles.Get("github"); s != nil {
		return s
	}
	return styles.Fallback
}

func ttyFormatter() chroma.Formatter {
	if f := formatters.Get("terminal16m"); f != nil {
		return f
	}
	if f := formatters.Get("terminal256"); f != nil {
		return f
	}
	return formatters.Fallback
}

// highlightDiff colors a unified diff and cuts each line to width. The plain
// text is returned, still cut to width, when highlighting fails.
func highlightDiff(diff string, width int) string {
	diff = strings.TrimRight(diff, "\n")
	if diff == "" {
		return ""
	}
	out := diff
	if it, err := getDiffLexer().Tokenise(nil, diff+"\n"); err == nil {
		var buf bytes.Buffer
		if err := ttyFormatter().Format(&buf, chromaStyle(), it); err == nil {
			out = strings.TrimRight(buf.String(), "\n")
		}
	}
	if width > 0 {
		out = truncateLines(out, width)
	}
	return out
}
