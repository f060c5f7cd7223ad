package givemeoc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-recruit-crawler/internal/browser"
	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/models"
	"go-recruit-crawler/internal/scraper"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	pageInputSelector = "input.crt-page-input"
	pageGoSelector    = "button.crt-page-go-btn"
)

// errLastPage means the pager refused to move on; there is nothing left to crawl.
var errLastPage = errors.New("reached last page")

type GiveMeOCScraper struct {
	cfg     *config.Config
	logger  *zap.Logger
	shots   *browser.ScreenShotDebugger
	limiter *rate.Limiter
}

func NewGiveMeOCScraper(cfg *config.Config, logger *zap.Logger) *GiveMeOCScraper {
	return &GiveMeOCScraper{
		cfg:     cfg,
		logger:  logger.With(zap.String("scraper", "GiveMeOC")),
		shots:   browser.NewScreenShotDebugger(cfg.Output.DataDir+"/screenshots", logger),
		limiter: rate.NewLimiter(rate.Every(cfg.Crawl.PageDelay), 1),
	}
}

func (s *GiveMeOCScraper) Name() string {
	return "GiveMeOC"
}

// Scrape crawls the configured page range in short browser sessions, so a single
// context never sees more than max_pages_per_session pages.
func (s *GiveMeOCScraper) Scrape(ctx context.Context, opener scraper.SessionOpener) ([]models.Record, error) {
	var all []models.Record
	sessions := scraper.PlanSessions(s.cfg.Crawl.StartPage, s.cfg.Crawl.EndPage, s.cfg.Crawl.MaxPagesPerSession)

	for i, sess := range sessions {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}

		s.logger.Info("🚀 Starting browser session",
			zap.Int("session", i+1), zap.Int("from", sess.Start), zap.Int("to", sess.End))

		records, err := s.crawlSession(ctx, opener, sess)
		all = append(all, records...)
		s.logger.Info("📦 Session finished", zap.Int("session", i+1), zap.Int("records", len(records)))

		if errors.Is(err, errLastPage) {
			s.logger.Info("ℹ️ Pager stopped, probably the last page", zap.Error(err))
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return all, err
		}
		if err != nil {
			//a broken session only costs its own pages
			s.logger.Warn("⚠️ Session failed", zap.Int("session", i+1), zap.Error(err))
		}

		if i < len(sessions)-1 {
			s.logger.Info("⏳ Waiting before next session", zap.Duration("pause", s.cfg.Crawl.SessionPause))
			if err := browser.Sleep(ctx, s.cfg.Crawl.SessionPause); err != nil {
				return all, err
			}
		}
	}

	return all, nil
}

func (s *GiveMeOCScraper) crawlSession(ctx context.Context, opener scraper.SessionOpener, sess scraper.Session) ([]models.Record, error) {
	page, closeSession, err := opener.OpenSession()
	if err != nil {
		return nil, err
	}
	defer closeSession()

	if _, err := page.Goto(s.cfg.Site.BaseURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.cfg.Crawl.NavTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", s.cfg.Site.BaseURL, err)
	}

	if blocked, title := isChallengePage(page); blocked {
		s.shots.CaptureAndLog(page, "givemeoc-challenge", "🚨 GiveMeOC: anti-bot challenge page")
		return nil, fmt.Errorf("blocked by challenge page %q", title)
	}

	//initial wait
	if err := browser.RandomDelay(ctx, 2000, 4000); err != nil {
		return nil, err
	}

	if sess.Start > 1 {
		s.logger.Info("↪️ Jumping to start page", zap.Int("page", sess.Start))
		if err := s.jumpToPage(ctx, page, sess.Start); err != nil {
			return nil, fmt.Errorf("jump to page %d: %w", sess.Start, err)
		}
	}

	var records []models.Record
	for p := sess.Start; p <= sess.End; p++ {
		s.logger.Info("🔍 Crawling page", zap.Int("page", p))

		rows, err := s.scrapeCurrentPage(ctx, page)
		if err != nil {
			s.shots.CaptureAndLog(page, fmt.Sprintf("givemeoc-page-%d", p), "⚠️ GiveMeOC: failed to read table")
			return records, fmt.Errorf("page %d: %w", p, err)
		}
		records = append(records, rows...)

		if p == sess.End {
			break
		}
		if err := s.jumpToPage(ctx, page, p+1); err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			return records, fmt.Errorf("%w: %v", errLastPage, err)
		}
	}

	return records, nil
}

func (s *GiveMeOCScraper) scrapeCurrentPage(ctx context.Context, page playwright.Page) ([]models.Record, error) {
	//human behavior
	if err := browser.SmoothScroll(ctx, page); err != nil {
		return nil, err
	}

	if err := page.Locator(scraper.RowSelector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(s.cfg.Crawl.NavTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("listing table did not render: %w", err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, err
	}

	records, rowErrs, err := scraper.ParseTableHTML(html, s.cfg.Site.Type())
	if err != nil {
		return nil, err
	}
	for _, rowErr := range rowErrs {
		s.logger.Warn("⚠️ Skipped row", zap.Error(rowErr))
	}
	s.logger.Info("✅ Page parsed", zap.Int("records", len(records)), zap.Int("skipped", len(rowErrs)))
	return records, nil
}

// jumpToPage types the page number into the pager and clicks "go" through JS,
// since the button is often covered by a floating banner.
func (s *GiveMeOCScraper) jumpToPage(ctx context.Context, page playwright.Page, n int) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	input := page.Locator(pageInputSelector).First()
	if err := input.Fill(strconv.Itoa(n), playwright.LocatorFillOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("page input: %w", err)
	}

	goBtn := page.Locator(pageGoSelector).First()
	if _, err := goBtn.Evaluate("el => el.click()", nil); err != nil {
		return fmt.Errorf("go button: %w", err)
	}

	return browser.RandomDelay(ctx, 2000, 4000)
}

func isChallengePage(page playwright.Page) (bool, string) {
	title, _ := page.Title()
	for _, marker := range []string{"Just a moment", "Attention Required", "Cloudflare", "安全验证"} {
		if strings.Contains(title, marker) {
			return true, title
		}
	}
	return false, title
}

// compile-time check
var _ scraper.Scraper = (*GiveMeOCScraper)(nil)
