// Package githubclient provides HTTP access to the GitHub REST API for
// polling commit activity, grounded on the teacher's pkg/runbook.GitHubClient
// (same bearer-token-over-net/http shape, reused here for a different
// endpoint: listing commits instead of downloading runbook content).
package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zetherion/assistant-core/pkg/apperr"
)

// Commit is a single commit returned by the GitHub commits API.
type Commit struct {
	SHA        string
	Message    string
	Author     string
	AuthoredAt time.Time
}

// Client provides read access to GitHub's commits API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *slog.Logger
}

// New creates an HTTP client for GitHub commit polling. token may be empty
// (public repos only, lower rate limits).
func New(token string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.github.com",
		token:      token,
		log:        log.With("component", "githubclient"),
	}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// commitItem is the subset of GitHub's commit object this client consumes.
type commitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// CommitsSince lists commits on repo's default branch authored at or after
// since. repo must be in "owner/name" form. Results are newest-first, the
// order GitHub's commits API returns them in.
func (c *Client) CommitsSince(ctx context.Context, repo string, since time.Time) ([]Commit, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, apperr.Transport("githubclient", fmt.Errorf("repo %q must be in owner/name form", repo))
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/commits?since=%s&per_page=100",
		c.baseURL, owner, name, since.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport("githubclient", fmt.Errorf("list commits for %s: %w", repo, err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperr.Transport("githubclient", fmt.Errorf("repository %q not found or not accessible", repo))
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, apperr.RateLimit("githubclient", fmt.Errorf("GitHub API rate limited (HTTP %d) for %s", resp.StatusCode, repo))
	default:
		return nil, apperr.Transport("githubclient", fmt.Errorf("GitHub API returned HTTP %d for %s", resp.StatusCode, repo))
	}

	var items []commitItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, apperr.Parse("githubclient", fmt.Errorf("decode commits response: %w", err))
	}

	out := make([]Commit, len(items))
	for i, it := range items {
		out[i] = Commit{
			SHA:        it.SHA,
			Message:    it.Commit.Message,
			Author:     it.Commit.Author.Name,
			AuthoredAt: it.Commit.Author.Date,
		}
	}
	return out, nil
}
