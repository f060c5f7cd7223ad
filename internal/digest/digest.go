// Package digest builds the weekly summary of listings that appeared or changed recently.
package digest

import (
	"fmt"
	"sort"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"
	"go-recruit-crawler/internal/reporter"
)

const DefaultWindow = 7 * 24 * time.Hour

// Select returns the history entries first seen or changed within window before now.
// Entries written before first_seen/changed_at existed fall back to their crawl time.
func Select(hist *dedup.History, now time.Time, window time.Duration) []models.Record {
	if window <= 0 {
		window = DefaultWindow
	}
	var out []models.Record
	for _, rec := range hist.Records() {
		if filter.IsExpired(rec.Deadline, now) {
			continue
		}
		seen, changed := rec.FirstSeen, rec.ChangedAt
		if seen.IsZero() && changed.IsZero() {
			seen = rec.CrawlTime
		}
		switch {
		case filter.IsRecent(seen, now, window):
			rec.Status = models.StatusAdded
		case filter.IsRecent(changed, now, window):
			rec.Status = models.StatusUpdated
		default:
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GroupByCompany groups records per company, companies in alphabetical order.
func GroupByCompany(records []models.Record) []reporter.Group {
	byCompany := make(map[string][]models.Record)
	for _, rec := range records {
		byCompany[rec.Company] = append(byCompany[rec.Company], rec)
	}
	names := make([]string, 0, len(byCompany))
	for name := range byCompany {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]reporter.Group, 0, len(names))
	for _, name := range names {
		recs := byCompany[name]
		dedup.SortRecords(recs)
		groups = append(groups, reporter.Group{Name: fmt.Sprintf("%s (%d)", name, len(recs)), Records: recs})
	}
	return groups
}

// Build assembles the digest report for the window ending at now.
func Build(hist *dedup.History, now time.Time, window time.Duration) (reporter.Report, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	records := Select(hist, now, window)

	var added, updated int
	for _, r := range records {
		if r.Status == models.StatusAdded {
			added++
		} else {
			updated++
		}
	}
	groups := GroupByCompany(records)
	from := now.Add(-window)
	summary := fmt.Sprintf("%s 至 %s：新增 %d 条，更新 %d 条，涉及 %d 家公司。",
		from.Format("2006-01-02"), now.Format("2006-01-02"), added, updated, len(groups))

	body, err := reporter.RenderHTML(reporter.SubjectDigest, summary, groups, "")
	if err != nil {
		return reporter.Report{}, err
	}

	//flatten in group order so notifiers list the same order as the body
	ordered := make([]models.Record, 0, len(records))
	for _, g := range groups {
		ordered = append(ordered, g.Records...)
	}
	return reporter.Report{
		Subject: reporter.SubjectDigest + " " + now.Format("2006-01-02"),
		Summary: summary,
		HTML:    body,
		Records: ordered,
	}, nil
}
