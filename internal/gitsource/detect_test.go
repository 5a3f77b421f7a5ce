package gitsource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"

	"julesctl/internal/types"
)

func TestParseRemoteURL(t *testing.T) {
	cases := map[string]Repo{
		"https://github.com/acme/api.git":     {Owner: "acme", Name: "api"},
		"https://github.com/acme/api":         {Owner: "acme", Name: "api"},
		"git@github.com:acme/api.git":         {Owner: "acme", Name: "api"},
		"ssh://git@github.com/acme/api.git":   {Owner: "acme", Name: "api"},
		"https://user@github.com/acme/api/":   {Owner: "acme", Name: "api"},
		"  https://GitHub.com/Acme/Api.git  ": {Owner: "Acme", Name: "Api"},
	}
	for raw, want := range cases {
		got, err := ParseRemoteURL(raw)
		if err != nil {
			t.Fatalf("ParseRemoteURL(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseRemoteURL(%q) = %#v, want %#v", raw, got, want)
		}
	}
}

func TestParseRemoteURLRejects(t *testing.T) {
	if _, err := ParseRemoteURL("https://gitlab.com/acme/api.git"); !errors.Is(err, ErrNotGitHubRemote) {
		t.Fatalf("expected ErrNotGitHubRemote, got %v", err)
	}
	for _, raw := range []string{"", "/local/path", "https://github.com/acme", "https://github.com/a/b/c"} {
		if _, err := ParseRemoteURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestDetectFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "upstream", URLs: []string{"https://github.com/other/fork.git"}}); err != nil {
		t.Fatalf("CreateRemote: %v", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/api.git"}}); err != nil {
		t.Fatalf("CreateRemote: %v", err)
	}
	sub := filepath.Join(root, "internal", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Detect(sub)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got.String() != "acme/api" {
		t.Fatalf("expected origin remote to win, got %s", got)
	}
}

func TestDetectWithoutRemotes(t *testing.T) {
	root := t.TempDir()
	if _, err := git.PlainInit(root, false); err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	if _, err := Detect(root); !errors.Is(err, ErrNoRemote) {
		t.Fatalf("expected ErrNoRemote, got %v", err)
	}
}

func TestDetectOutsideRepository(t *testing.T) {
	if _, err := Detect(t.TempDir()); err == nil {
		t.Fatalf("expected error outside a repository")
	}
}

func TestMatch(t *testing.T) {
	sources := []types.Source{
		{Name: "sources/github/acme/web", GithubRepo: &types.GithubRepo{Owner: "acme", Repo: "web"}},
		{Name: "sources/github/acme/api", GithubRepo: &types.GithubRepo{Owner: "acme", Repo: "api"}},
	}
	source, ok := Match(sources, Repo{Owner: "ACME", Name: "api"})
	if !ok || source.Name != "sources/github/acme/api" {
		t.Fatalf("unexpected match: %#v ok=%v", source, ok)
	}
	if _, ok := Match(sources, Repo{Owner: "acme", Name: "cli"}); ok {
		t.Fatalf("expected no match")
	}
}
