// Package gitsource infers which registered source a local checkout belongs
// to from its GitHub remote.
package gitsource

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"julesctl/internal/types"
)

var (
	ErrNoRemote        = errors.New("repository has no remotes")
	ErrNotGitHubRemote = errors.New("remote is not a GitHub repository")
)

type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Detect opens the repository containing dir and parses its "origin" remote,
// or the first remote by name when there is no origin.
func Detect(dir string) (Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Repo{}, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return Repo{}, err
	}
	if len(remotes) == 0 {
		return Repo{}, ErrNoRemote
	}
	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})
	chosen := remotes[0]
	for _, remote := range remotes {
		if remote.Config().Name == git.DefaultRemoteName {
			chosen = remote
			break
		}
	}
	urls := chosen.Config().URLs
	if len(urls) == 0 {
		return Repo{}, ErrNoRemote
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL understands https, ssh:// and scp-style GitHub URLs.
func ParseRemoteURL(raw string) (Repo, error) {
	raw = strings.TrimSpace(raw)
	var host, path string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Repo{}, err
		}
		host, path = u.Hostname(), u.Path
	case strings.Contains(raw, ":"):
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if colon < at {
			return Repo{}, fmt.Errorf("unrecognized remote url %q", raw)
		}
		host, path = raw[at+1:colon], raw[colon+1:]
	default:
		return Repo{}, fmt.Errorf("unrecognized remote url %q", raw)
	}
	if !strings.EqualFold(host, "github.com") && !strings.EqualFold(host, "www.github.com") {
		return Repo{}, ErrNotGitHubRemote
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("unrecognized repository path %q", path)
	}
	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return Repo{}, fmt.Errorf("unrecognized repository path %q", path)
	}
	return Repo{Owner: parts[0], Name: name}, nil
}

// Match returns the source registered for repo.
func Match(sources []types.Source, repo Repo) (types.Source, bool) {
	for _, source := range sources {
		if source.Matches(repo.Owner, repo.Name) {
			return source, true
		}
	}
	return types.Source{}, false
}
