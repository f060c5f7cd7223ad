package main

import (
	"fmt"

	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/github"
	"go-recruit-crawler/internal/pipeline"
	"go-recruit-crawler/internal/reporter"
	"go-recruit-crawler/internal/users"

	"go.uber.org/zap"
)

func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	return github.NewClient(cfg.History.Token, cfg.History.Repo)
}

func newStore(cfg *config.Config, logger *zap.Logger) (dedup.Store, error) {
	switch cfg.History.Backend {
	case "github":
		client, err := newGitHubClient(cfg)
		if err != nil {
			return nil, err
		}
		return dedup.NewGitHubStore(client, cfg.History.Path, cfg.History.Branch, logger), nil
	case "", "local":
		return dedup.NewFileStore(cfg.History.Path, logger), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}

func newUserManager(cfg *config.Config, logger *zap.Logger) (*users.Manager, error) {
	var tracker users.IssueTracker
	if cfg.History.Repo != "" && cfg.History.Token != "" {
		client, err := newGitHubClient(cfg)
		if err != nil {
			return nil, err
		}
		tracker = client
	}
	return users.NewManager(cfg.Users, tracker, logger), nil
}

// notifierOptions wires email, telegram and subscribers from the config.
// Channels that fail to initialise are logged and skipped.
func notifierOptions(cfg *config.Config, logger *zap.Logger) []pipeline.Option {
	var (
		notifiers []reporter.Notifier
		opts      []pipeline.Option
	)

	var email *reporter.EmailNotifier
	if cfg.Email.Enabled {
		email = reporter.NewEmailNotifier(cfg.Email, logger)
		notifiers = append(notifiers, email)
	}
	if cfg.Telegram.Enabled {
		tg, err := reporter.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.TopN, logger)
		if err != nil {
			logger.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if len(notifiers) == 0 {
		logger.Info("ℹ️ No notifier enabled, reports are only logged")
	}
	opts = append(opts, pipeline.WithNotifiers(notifiers...))

	if cfg.Users.Enabled && email != nil {
		mgr, err := newUserManager(cfg, logger)
		if err != nil {
			logger.Warn("⚠️ Subscribers disabled", zap.Error(err))
		} else {
			opts = append(opts, pipeline.WithSubscribers(mgr, email))
		}
	}
	return opts
}
