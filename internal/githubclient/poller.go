package githubclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/skills/devwatcher"
)

// CommitStore persists ingested commits and reports the ingestion
// watermark. Implemented by internal/store/postgres.DevWatcherStore.
type CommitStore interface {
	InsertCommit(ctx context.Context, userID string, c devwatcher.Commit) error
	LatestCommitAt(ctx context.Context, userID string) (time.Time, error)
}

// commitLister is the subset of *Client the poller depends on.
type commitLister interface {
	CommitsSince(ctx context.Context, repo string, since time.Time) ([]Commit, error)
}

// Poller periodically walks cfg.Repositories for new commits and writes
// them into CommitStore, backing the dev-watcher skill's RecentCommits
// reads (pkg/skills/devwatcher) with an actual ingestion path rather than
// a table nothing ever populates.
type Poller struct {
	client commitLister
	store  CommitStore
	cfg    *config.GitHubConfig
	log    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller builds a Poller. A nil or empty-repositories cfg makes Start a
// no-op: a personal deployment that hasn't named a repo to watch gets no
// background polling rather than a poller that spins doing nothing.
func NewPoller(client commitLister, store CommitStore, cfg *config.GitHubConfig, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{client: client, store: store, cfg: cfg, log: log.With("component", "githubclient.poller")}
}

// Start launches the background polling loop. No-op if cfg has no
// repositories configured.
func (p *Poller) Start(ctx context.Context) {
	if p.cfg == nil || len(p.cfg.Repositories) == 0 {
		return
	}
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go p.run(ctx)

	p.log.Info("github commit poller started",
		"repositories", p.cfg.Repositories, "interval", p.cfg.PollInterval)
}

// Stop signals the polling loop to exit and waits for it to finish.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.log.Info("github commit poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.pollAll(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, repo := range p.cfg.Repositories {
		p.pollRepo(ctx, repo)
	}
}

func (p *Poller) pollRepo(ctx context.Context, repo string) {
	since, err := p.store.LatestCommitAt(ctx, p.cfg.UserID)
	if err != nil {
		p.log.Error("failed to load ingestion watermark", "repo", repo, "error", err)
		return
	}
	if since.IsZero() {
		since = time.Now().Add(-7 * 24 * time.Hour)
	}

	commits, err := p.client.CommitsSince(ctx, repo, since)
	if err != nil {
		p.log.Error("failed to list commits", "repo", repo, "error", err)
		return
	}

	var ingested int
	for _, c := range commits {
		entry := devwatcher.Commit{SHA: c.SHA, Message: c.Message, Author: c.Author, Timestamp: c.AuthoredAt}
		if err := p.store.InsertCommit(ctx, p.cfg.UserID, entry); err != nil {
			p.log.Error("failed to store commit", "repo", repo, "sha", c.SHA, "error", err)
			continue
		}
		ingested++
	}
	if ingested > 0 {
		p.log.Info("ingested commits", "repo", repo, "count", ingested)
	}
}
