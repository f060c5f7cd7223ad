package main

import (
	"fmt"
	"path/filepath"
	"time"

	"go-recruit-crawler/internal/browser"
	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/pipeline"
	"go-recruit-crawler/internal/scraper/givemeoc"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Scrape the listing site and reconcile it with the history",
	Long:  "Scrapes the configured page range, merges the result into the history, writes the Excel sheet and sends the update report. With --interval it keeps running.",
	RunE:  runCrawl,
}

var (
	crawlInterval time.Duration
	crawlJobType  string
	crawlPages    []int
)

func init() {
	crawlCmd.Flags().DurationVar(&crawlInterval, "interval", 0, "Repeat the crawl at this interval (0 runs once)")
	crawlCmd.Flags().StringVarP(&crawlJobType, "type", "t", "", "Override listing type: campus or internship")
	crawlCmd.Flags().IntSliceVar(&crawlPages, "pages", nil, "Override page range as start,end")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if crawlJobType != "" {
		if err := cfg.SetJobType(crawlJobType); err != nil {
			return err
		}
	}
	switch len(crawlPages) {
	case 0:
	case 2:
		cfg.Crawl.StartPage, cfg.Crawl.EndPage = crawlPages[0], crawlPages[1]
	default:
		return fmt.Errorf("--pages takes start,end, got %v", crawlPages)
	}
	if crawlInterval > 0 {
		cfg.Crawl.Interval = crawlInterval
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()

	var cookies []playwright.OptionalCookie
	cookieFile := filepath.Join(cfg.CookiesPath, "cookies-givemeoc.json")
	if loaded, err := browser.LoadCookies(cookieFile); err != nil {
		logger.Debug("🍪 No cookies loaded", zap.String("path", cookieFile), zap.Error(err))
	} else {
		logger.Info("🍪 Loaded cookies", zap.Int("count", len(loaded)))
		cookies = loaded
	}

	pw, err := browser.NewPlaywright(ctx, browser.Options{
		Headless:   !cfg.Crawl.Headful,
		NavTimeout: cfg.Crawl.NavTimeout,
		Cookies:    cookies,
	}, logger)
	if err != nil {
		return err
	}
	//close playwright manager when application stops
	defer pw.Close()

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, store, givemeoc.NewGiveMeOCScraper(cfg, logger), pw, logger,
		notifierOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	if cfg.Crawl.Interval > 0 {
		logger.Info("🔁 Running in loop mode", zap.Duration("interval", cfg.Crawl.Interval))
		if err := p.Loop(ctx, cfg.Crawl.Interval); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	res, err := p.Crawl(ctx)
	if err != nil {
		return err
	}
	c := res.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "added=%d updated=%d unchanged=%d expired=%d total=%d\n",
		c.Added, c.Updated, c.Unchanged, c.Expired, c.Total)
	return nil
}

