// Define an interface for all scrapers
// Ensure consistency

package scraper

import (
	"context"

	"go-recruit-crawler/internal/models"

	"github.com/playwright-community/playwright-go"
)

//Scraper defines the interface that all listing-site scrapers must implement
type Scraper interface {
	//Scrape listing rows from the site, opening as many browser sessions as it needs
	Scrape(ctx context.Context, browser SessionOpener) ([]models.Record, error)

	//Name is the site name
	Name() string
}

// SessionOpener hands out a fresh browser context and page for each crawl session.
// The returned func releases both.
type SessionOpener interface {
	OpenSession() (playwright.Page, func() error, error)
}

// Session is an inclusive page range crawled with one browser context.
type Session struct {
	Start int
	End   int
}

// PlanSessions splits [start, end] into consecutive sessions of at most perSession pages.
func PlanSessions(start, end, perSession int) []Session {
	if start < 1 {
		start = 1
	}
	if perSession < 1 {
		perSession = 1
	}
	var sessions []Session
	for s := start; s <= end; s += perSession {
		e := s + perSession - 1
		if e > end {
			e = end
		}
		sessions = append(sessions, Session{Start: s, End: e})
	}
	return sessions
}
