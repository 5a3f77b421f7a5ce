// Package sessionfilter narrows a session list by search text, source and
// status family.
package sessionfilter

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"julesctl/internal/types"
)

type Filter struct {
	// Query is fuzzy-matched against title, prompt and resource name.
	Query string
	// Source is a full source name ("sources/github/acme/api") or its
	// "owner/repo" tail.
	Source string
	// Family keeps only sessions in this status family; empty keeps all.
	Family types.StatusFamily
}

func (f Filter) Empty() bool {
	return strings.TrimSpace(f.Query) == "" && strings.TrimSpace(f.Source) == "" && f.Family == ""
}

// Apply returns the matching sessions. Without a query the input order is
// kept; with one, best matches come first.
func (f Filter) Apply(sessions []types.Session) []types.Session {
	kept := make([]types.Session, 0, len(sessions))
	for _, session := range sessions {
		if f.matchesSource(session) && f.matchesFamily(session) {
			kept = append(kept, session)
		}
	}
	query := strings.TrimSpace(f.Query)
	if query == "" {
		return kept
	}
	matches := fuzzy.FindFrom(query, searchable(kept))
	out := make([]types.Session, 0, len(matches))
	for _, match := range matches {
		out = append(out, kept[match.Index])
	}
	return out
}

func (f Filter) matchesSource(session types.Session) bool {
	want := strings.Trim(strings.TrimSpace(f.Source), "/")
	if want == "" {
		return true
	}
	have := strings.TrimSpace(session.SourceContext.Source)
	if strings.EqualFold(have, want) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(have), "/"+strings.ToLower(want))
}

func (f Filter) matchesFamily(session types.Session) bool {
	return f.Family == "" || session.State.Family() == f.Family
}

type searchable []types.Session

func (s searchable) String(i int) string {
	session := s[i]
	return strings.Join([]string{session.Title, session.Prompt, session.Name}, " ")
}

func (s searchable) Len() int {
	return len(s)
}
