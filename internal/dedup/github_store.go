package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-recruit-crawler/internal/github"

	"go.uber.org/zap"
)

// GitHubStore keeps the history document committed to a GitHub repository.
type GitHubStore struct {
	client *github.Client
	path   string
	branch string
	logger *zap.Logger

	mu  sync.Mutex
	sha string // blob SHA of the last loaded or saved version
}

func NewGitHubStore(client *github.Client, path, branch string, logger *zap.Logger) *GitHubStore {
	return &GitHubStore{client: client, path: path, branch: branch, logger: logger}
}

func (gs *GitHubStore) Load(ctx context.Context) (*History, error) {
	f, err := gs.client.GetFile(ctx, gs.path, gs.branch)
	if errors.Is(err, github.ErrNotFound) {
		gs.logger.Info("📋 No history in repository yet, starting fresh",
			zap.String("repo", gs.client.Repo()), zap.String("path", gs.path))
		gs.setSHA("")
		return NewHistory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download history: %w", err)
	}

	h, err := decodeHistory(f.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", gs.path, err)
	}
	gs.setSHA(f.SHA)
	gs.logger.Info("📋 Loaded history from GitHub",
		zap.String("repo", gs.client.Repo()), zap.Int("jobs", len(h.Jobs)))
	return h, nil
}

func (gs *GitHubStore) Save(ctx context.Context, h *History) error {
	data, err := encodeHistory(h)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	msg := fmt.Sprintf("Update job history %s", time.Now().Format("2006-01-02 15:04"))
	sha, err := gs.client.PutFile(ctx, gs.path, gs.branch, msg, data, gs.sha)
	if err != nil {
		return fmt.Errorf("failed to upload history: %w", err)
	}
	gs.sha = sha

	gs.logger.Info("💾 Saved history to GitHub",
		zap.String("repo", gs.client.Repo()), zap.Int("jobs", len(h.Jobs)))
	return nil
}

func (gs *GitHubStore) setSHA(sha string) {
	gs.mu.Lock()
	gs.sha = sha
	gs.mu.Unlock()
}
