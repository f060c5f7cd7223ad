package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go-recruit-crawler/internal/browser"
	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/database"
	"go-recruit-crawler/internal/scraper"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Smoke-test config, cookies, browser and database",
	Long:  "Loads the config, tries the cookie file, opens the first listing page in the browser and pings the database when DATABASE_URL is set.",
	RunE:  runCheck,
}

var checkSkipBrowser bool

func init() {
	checkCmd.Flags().BoolVar(&checkSkipBrowser, "skip-browser", false, "Do not launch the browser")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✅ Config loaded")
	fmt.Fprintf(out, "   Site: %s (%s)\n", cfg.Site.BaseURL, cfg.Site.Type())
	fmt.Fprintf(out, "   Pages: %d-%d, %d per session\n", cfg.Crawl.StartPage, cfg.Crawl.EndPage, cfg.Crawl.MaxPagesPerSession)
	fmt.Fprintf(out, "   History: %s %s (key %s)\n", cfg.History.Backend, cfg.History.Path, cfg.History.KeyMode)
	fmt.Fprintf(out, "   Email: enabled=%t receivers=%v\n", cfg.Email.Enabled, cfg.Email.Receivers)
	fmt.Fprintf(out, "   Telegram: enabled=%t\n", cfg.Telegram.Enabled)

	cookieFile := filepath.Join(cfg.CookiesPath, "cookies-givemeoc.json")
	cookies, err := browser.LoadCookies(cookieFile)
	if err != nil {
		fmt.Fprintf(out, "⚠️ No cookies: %v\n", err)
	} else {
		fmt.Fprintf(out, "🍪 Loaded %d cookies\n", len(cookies))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	if !checkSkipBrowser {
		if err := checkBrowser(ctx, out, cfg, logger); err != nil {
			return err
		}
	}

	if cfg.Database.URL != "" {
		repo, err := database.ConnectDB(ctx, cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer repo.Close()
		version, size, err := repo.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🗄️ Database: %s (%s)\n", version, size)
	}
	return nil
}

func checkBrowser(ctx context.Context, out io.Writer, cfg *config.Config, logger *zap.Logger) error {
	pw, err := browser.NewPlaywright(ctx, browser.Options{Headless: !cfg.Crawl.Headful, NavTimeout: cfg.Crawl.NavTimeout}, logger)
	if err != nil {
		return err
	}
	defer pw.Close()

	page, closeSession, err := pw.OpenSession()
	if err != nil {
		return err
	}
	defer closeSession()

	fmt.Fprintf(out, "🔍 Navigating to %s\n", cfg.Site.BaseURL)
	if _, err := page.Goto(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	rows, err := page.Locator(scraper.RowSelector).Count()
	if err != nil {
		return err
	}
	title, _ := page.Title()
	fmt.Fprintf(out, "✅ Page %q has %d listing rows\n", title, rows)
	return nil
}
