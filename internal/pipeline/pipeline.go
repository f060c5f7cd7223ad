// Package pipeline runs one crawl or digest end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/digest"
	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"
	"go-recruit-crawler/internal/reporter"
	"go-recruit-crawler/internal/scraper"
	"go-recruit-crawler/internal/spreadsheet"

	"go.uber.org/zap"
)

// ErrNoData means the scrape returned nothing usable; the history is left untouched.
var ErrNoData = errors.New("no listings scraped")

const (
	FreqDaily  = "daily"
	FreqWeekly = "weekly"
)

// RecipientMailer sends a report to explicit addresses.
type RecipientMailer interface {
	SendTo(ctx context.Context, to []string, r reporter.Report) error
}

// Subscribers lists verified users.
type Subscribers interface {
	VerifiedUsers() ([]models.User, error)
}

type Pipeline struct {
	cfg       *config.Config
	store     dedup.Store
	keyFn     dedup.KeyFunc
	scraper   scraper.Scraper
	opener    scraper.SessionOpener
	notifiers []reporter.Notifier
	mailer    RecipientMailer
	users     Subscribers
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Pipeline)

// WithNotifiers sets the channels that receive the full report.
func WithNotifiers(n ...reporter.Notifier) Option {
	return func(p *Pipeline) { p.notifiers = append(p.notifiers, n...) }
}

// WithSubscribers enables per-user reports filtered by preferences.
func WithSubscribers(users Subscribers, mailer RecipientMailer) Option {
	return func(p *Pipeline) {
		p.users = users
		p.mailer = mailer
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(cfg *config.Config, store dedup.Store, s scraper.Scraper, opener scraper.SessionOpener, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	keyFn, err := dedup.KeyFuncByName(cfg.History.KeyMode)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		keyFn:   keyFn,
		scraper: s,
		opener:  opener,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ExcelPath is where the merged listing is written.
func (p *Pipeline) ExcelPath() string {
	return filepath.Join(p.cfg.Output.DataDir, p.cfg.Output.ExcelName)
}

// Crawl scrapes, reconciles against the stored history, persists the result and
// sends reports. When nothing was scraped a failure report goes out instead and
// ErrNoData is returned.
func (p *Pipeline) Crawl(ctx context.Context) (*dedup.Result, error) {
	now := p.now()
	p.logger.Info("▶️ Starting crawl", zap.String("scraper", p.scraper.Name()))

	scraped, scrapeErr := p.scraper.Scrape(ctx, p.opener)
	if scrapeErr != nil {
		p.logger.Warn("⚠️ Scraper returned an error", zap.Error(scrapeErr), zap.Int("records", len(scraped)))
	}

	records := make([]models.Record, 0, len(scraped))
	for _, r := range scraped {
		if filter.ShouldIncludeJob(r, p.cfg.Crawl.IncludeKeywords, p.cfg.Crawl.ExcludeKeywords) {
			records = append(records, r)
		}
	}
	p.logger.Info("🔍 Keyword filter", zap.Int("kept", len(records)), zap.Int("scraped", len(scraped)))

	if len(scraped) == 0 {
		if err := reporter.Broadcast(ctx, p.logger, reporter.FailureReport(scrapeErr, now), p.notifiers...); err != nil {
			p.logger.Error("❌ Failed to send failure report", zap.Error(err))
		}
		if scrapeErr == nil {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%w: %v", ErrNoData, scrapeErr)
	}

	hist, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	res := dedup.Reconcile(hist, records, now, p.keyFn)
	c := res.Counts()
	p.logger.Info("📊 Reconciled",
		zap.Int("added", c.Added), zap.Int("updated", c.Updated), zap.Int("unchanged", c.Unchanged),
		zap.Int("expired", c.Expired), zap.Int("dropped", res.Dropped), zap.Int("total", c.Total))

	if err := p.store.Save(ctx, res.History); err != nil {
		return res, fmt.Errorf("save history: %w", err)
	}

	excel := p.ExcelPath()
	if err := spreadsheet.Write(excel, res.Records()); err != nil {
		return res, fmt.Errorf("write spreadsheet: %w", err)
	}
	p.logger.Info("📄 Spreadsheet written", zap.String("path", excel))

	report, err := reporter.UpdateReport(res, excel, now)
	if err != nil {
		return res, err
	}
	if err := reporter.Broadcast(ctx, p.logger, report, p.notifiers...); err != nil {
		p.logger.Warn("⚠️ Some reports were not delivered", zap.Error(err))
	}
	p.notifySubscribers(ctx, report, FreqDaily)
	return res, nil
}

// Digest sends the weekly summary built from the stored history.
func (p *Pipeline) Digest(ctx context.Context) (reporter.Report, error) {
	hist, err := p.store.Load(ctx)
	if err != nil {
		return reporter.Report{}, fmt.Errorf("load history: %w", err)
	}
	report, err := digest.Build(hist, p.now(), p.cfg.Digest.Window)
	if err != nil {
		return reporter.Report{}, err
	}
	p.logger.Info("🗓️ Digest built", zap.Int("records", len(report.Records)))

	if err := reporter.Broadcast(ctx, p.logger, report, p.notifiers...); err != nil {
		p.logger.Warn("⚠️ Some digests were not delivered", zap.Error(err))
	}
	p.notifySubscribers(ctx, report, FreqWeekly)
	return report, nil
}

// notifySubscribers mails every verified user whose frequency is freq the subset
// of report matching their preferences. Users without a frequency count as daily.
func (p *Pipeline) notifySubscribers(ctx context.Context, report reporter.Report, freq string) {
	if p.users == nil || p.mailer == nil {
		return
	}
	users, err := p.users.VerifiedUsers()
	if err != nil {
		p.logger.Warn("⚠️ Could not load subscribers", zap.Error(err))
		return
	}

	var sent int
	for _, u := range users {
		userFreq := u.Preferences.NotificationFreq
		if userFreq == "" {
			userFreq = FreqDaily
		}
		if userFreq != freq {
			continue
		}
		personal, err := reporter.ForRecipient(report, func(r models.Record) bool {
			return filter.MatchesPreferences(r, u.Preferences)
		})
		if err != nil {
			p.logger.Warn("⚠️ Could not build personal report", zap.String("email", u.Email), zap.Error(err))
			continue
		}
		if len(personal.Records) == 0 {
			continue
		}
		if err := p.mailer.SendTo(ctx, []string{u.Email}, personal); err != nil {
			p.logger.Warn("⚠️ Personal report failed", zap.String("email", u.Email), zap.Error(err))
			continue
		}
		sent++
	}
	p.logger.Info("👥 Subscriber reports sent", zap.Int("sent", sent), zap.String("frequency", freq))
}

// Loop runs Crawl every interval until ctx is cancelled. Failed runs are logged,
// not fatal.
func (p *Pipeline) Loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.Crawl(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("❌ Crawl failed", zap.Error(err))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.Info("⏰ Next crawl scheduled", zap.Duration("in", interval))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
