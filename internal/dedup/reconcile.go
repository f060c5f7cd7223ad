package dedup

import (
	"sort"
	"time"

	"go-recruit-crawler/internal/filter"
	"go-recruit-crawler/internal/models"
)

// Result is the outcome of one reconciliation run.
type Result struct {
	// History is the merged document to persist.
	History *History

	Added     []models.Record
	Updated   []models.Record
	Unchanged []models.Record
	Expired   []models.Record

	// Dropped counts scraped rows that were already past their deadline and
	// never made it into the history.
	Dropped int
}

type Counts struct {
	Added     int
	Updated   int
	Unchanged int
	Expired   int
	Total     int
}

func (r *Result) Counts() Counts {
	return Counts{
		Added:     len(r.Added),
		Updated:   len(r.Updated),
		Unchanged: len(r.Unchanged),
		Expired:   len(r.Expired),
		Total:     len(r.History.Jobs),
	}
}

// Changed returns the added records followed by the updated ones.
func (r *Result) Changed() []models.Record {
	out := make([]models.Record, 0, len(r.Added)+len(r.Updated))
	out = append(out, r.Added...)
	return append(out, r.Updated...)
}

// Reconcile merges a fresh scrape into the history.
//
// Every scraped record is stamped with now and classified by its identity key: unknown
// keys are added, known keys with different content are updated, known keys with
// identical content are unchanged. Within a single scrape the last row for a key wins.
// Entries whose deadline has passed are then removed from the merged history.
// The input history is not modified.
func Reconcile(hist *History, scraped []models.Record, now time.Time, keyFn KeyFunc) *Result {
	merged := rekey(hist, keyFn)
	res := &Result{}

	//collapse duplicate rows, last one wins but keep first-seen order
	order := make([]string, 0, len(scraped))
	latest := make(map[string]models.Record, len(scraped))
	for _, rec := range scraped {
		key := keyFn(rec)
		if _, dup := latest[key]; !dup {
			order = append(order, key)
		}
		latest[key] = rec
	}

	touched := make(map[string]bool, len(order))
	for _, key := range order {
		touched[key] = true
		rec := latest[key]
		rec.CrawlTime = now
		old, known := merged[key]

		if filter.IsExpired(rec.Deadline, now) {
			if known {
				delete(merged, key)
				rec.Status = models.StatusExpired
				rec.FirstSeen = firstSeen(old)
				rec.ChangedAt = old.ChangedAt
				res.Expired = append(res.Expired, rec)
			} else {
				res.Dropped++
			}
			continue
		}

		switch {
		case !known:
			rec.Status = models.StatusAdded
			rec.FirstSeen = now
			rec.ChangedAt = now
			res.Added = append(res.Added, rec)
		case !old.SameContent(rec):
			rec.Status = models.StatusUpdated
			rec.FirstSeen = firstSeen(old)
			rec.ChangedAt = now
			res.Updated = append(res.Updated, rec)
		default:
			rec.Status = models.StatusUnchanged
			rec.FirstSeen = firstSeen(old)
			rec.ChangedAt = old.ChangedAt
			res.Unchanged = append(res.Unchanged, rec)
		}
		merged[key] = rec
	}

	//expire entries that were not scraped this time
	for key, rec := range merged {
		if touched[key] {
			continue
		}
		if filter.IsExpired(rec.Deadline, now) {
			delete(merged, key)
			rec.Status = models.StatusExpired
			res.Expired = append(res.Expired, rec)
			continue
		}
		//flags only describe the current run
		rec.Status = models.StatusUnchanged
		merged[key] = rec
	}

	SortRecords(res.Added)
	SortRecords(res.Updated)
	SortRecords(res.Unchanged)
	SortRecords(res.Expired)

	res.History = &History{LastUpdated: now, Jobs: merged}
	return res
}

// Records lists the merged history for output: added first, then updated, then the rest.
func (r *Result) Records() []models.Record {
	out := r.History.Records()
	sort.SliceStable(out, func(i, j int) bool {
		return statusRank(out[i].Status) < statusRank(out[j].Status)
	})
	return out
}

// SortRecords orders records by company, position, then update time.
func SortRecords(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.UpdateTime < b.UpdateTime
	})
}

func statusRank(s models.Status) int {
	switch s {
	case models.StatusAdded:
		return 0
	case models.StatusUpdated:
		return 1
	}
	return 2
}

// rekey copies the history under keyFn, so switching key strategies between runs
// does not orphan old entries. On collision the most recently crawled entry wins.
func rekey(hist *History, keyFn KeyFunc) map[string]models.Record {
	out := make(map[string]models.Record)
	if hist == nil {
		return out
	}
	for _, rec := range hist.Jobs {
		key := keyFn(rec)
		if prev, ok := out[key]; ok && newerOrSame(prev, rec) {
			continue
		}
		out[key] = rec
	}
	return out
}

func newerOrSame(a, b models.Record) bool {
	if !a.CrawlTime.Equal(b.CrawlTime) {
		return a.CrawlTime.After(b.CrawlTime)
	}
	return a.UpdateTime >= b.UpdateTime
}

// firstSeen falls back to the crawl time for entries written before first_seen existed.
func firstSeen(r models.Record) time.Time {
	if r.FirstSeen.IsZero() {
		return r.CrawlTime
	}
	return r.FirstSeen
}
