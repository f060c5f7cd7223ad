package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36 Edg/125.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// RandomUserAgent picks a desktop user agent.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// RandomDelay waits for a random duration between min and max milliseconds,
// returning early when ctx is done.
func RandomDelay(ctx context.Context, min, max int) error {
	d := time.Duration(min) * time.Millisecond
	if max > min {
		d = time.Duration(rand.Intn(max-min)+min) * time.Millisecond
	}
	return Sleep(ctx, d)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SmoothScroll simulates human scrolling and ends at the bottom of the page
// to trigger lazy loading.
func SmoothScroll(ctx context.Context, page playwright.Page) error {
	// Scroll down a bit
	if err := page.Mouse().Wheel(0, 500); err != nil {
		return err
	}
	if err := RandomDelay(ctx, 500, 1000); err != nil {
		return err
	}

	// Scroll up a tiny bit (human-like correction)
	if err := page.Mouse().Wheel(0, -200); err != nil {
		return err
	}
	if err := RandomDelay(ctx, 300, 600); err != nil {
		return err
	}

	_, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
