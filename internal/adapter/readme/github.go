// Package readme fetches project README text from source hosting.
package readme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// branchOrder is the fixed branch fallback sequence; the first 200 wins.
var branchOrder = []string{"main", "master"}

// Fetcher implements domain.ReadmeFetcher against raw.githubusercontent.com.
// Any non-200, timeout or connection error yields absent without retry.
type Fetcher struct {
	rawBase string
	hc      *http.Client
}

// New constructs a Fetcher. rawBase overrides the raw-content host for tests;
// empty selects raw.githubusercontent.com.
func New(rawBase string) *Fetcher {
	if rawBase == "" {
		rawBase = "https://raw.githubusercontent.com"
	}
	return &Fetcher{
		rawBase: strings.TrimSuffix(rawBase, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchReadme returns README text for a github.com repository link, trying
// main then master. ok=false means no branch served one.
func (f *Fetcher) FetchReadme(ctx context.Context, repoURL string) (string, bool) {
	owner, repo, ok := parseRepoURL(repoURL)
	if !ok {
		slog.Debug("not a resolvable repository link", slog.String("url", repoURL))
		return "", false
	}
	for _, branch := range branchOrder {
		u := fmt.Sprintf("%s/%s/%s/%s/README.md", f.rawBase, owner, repo, branch)
		text, ok := f.get(ctx, u)
		if ok {
			return text, true
		}
	}
	slog.Debug("readme not found on any branch",
		slog.String("owner", owner),
		slog.String("repo", repo))
	return "", false
}

func (f *Fetcher) get(ctx context.Context, u string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false
	}
	resp, err := f.hc.Do(req)
	if err != nil {
		slog.Debug("readme fetch failed", slog.String("url", u), slog.Any("error", err))
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// parseRepoURL extracts owner/repo from a github.com link.
func parseRepoURL(repoURL string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}
