package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// hideWebdriver removes the most obvious automation marker before any page script runs.
const hideWebdriver = `Object.defineProperty(navigator, "webdriver", {get: () => undefined})`

type Options struct {
	Headless   bool
	NavTimeout time.Duration
	Cookies    []playwright.OptionalCookie
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *zap.Logger
}

// NewPlaywright starts the playwright driver and launches a chromium instance.
func NewPlaywright(ctx context.Context, opts Options, logger *zap.Logger) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	logger.Info("🌐 Browser launched", zap.Bool("headless", opts.Headless))
	return &PlaywrightManager{pw: pw, browser: browser, opts: opts, logger: logger}, nil
}

// NewContext creates an isolated (incognito) browser context with a random user agent.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ua := RandomUserAgent()
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(ua),
		Locale:    playwright.String("zh-CN"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriver)}); err != nil {
		bctx.Close()
		return nil, fmt.Errorf("failed to add init script: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			bctx.Close()
			return nil, fmt.Errorf("failed to add cookies: %w", err)
		}
	}

	if pm.opts.NavTimeout > 0 {
		bctx.SetDefaultNavigationTimeout(float64(pm.opts.NavTimeout.Milliseconds()))
		bctx.SetDefaultTimeout(float64(pm.opts.NavTimeout.Milliseconds()))
	}

	pm.logger.Debug("Browser context created", zap.String("user_agent", ua))
	return bctx, nil
}

// OpenSession opens a fresh context and page. Calling the returned func closes both.
func (pm *PlaywrightManager) OpenSession() (playwright.Page, func() error, error) {
	bctx, err := pm.NewContext(pm.opts.Cookies)
	if err != nil {
		return nil, nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, nil, fmt.Errorf("failed to create new page: %w", err)
	}
	return page, func() error { return bctx.Close() }, nil
}

func (pm *PlaywrightManager) Close() error {
	var firstErr error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
