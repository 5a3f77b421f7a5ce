package types

import "strings"

type Source struct {
	Name       string      `json:"name"`
	ID         string      `json:"id,omitempty"`
	GithubRepo *GithubRepo `json:"githubRepo,omitempty"`
}

type GithubRepo struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Label renders owner/repo, falling back to the resource name.
func (s Source) Label() string {
	if s.GithubRepo != nil && s.GithubRepo.Owner != "" && s.GithubRepo.Repo != "" {
		return s.GithubRepo.Owner + "/" + s.GithubRepo.Repo
	}
	return strings.TrimPrefix(s.Name, "sources/")
}

// Matches reports whether the source is the given GitHub repository.
func (s Source) Matches(owner, repo string) bool {
	if s.GithubRepo == nil {
		return false
	}
	return strings.EqualFold(s.GithubRepo.Owner, owner) && strings.EqualFold(s.GithubRepo.Repo, repo)
}
