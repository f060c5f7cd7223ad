package filter

import (
	"strings"

	"go-recruit-crawler/internal/models"
)

// MatchesPreferences reports whether a record fits a subscriber's preferences.
// Every non-empty list needs at least one hit; empty preferences match everything.
func MatchesPreferences(r models.Record, p models.Preferences) bool {
	if keywords := compact(p.Keywords); len(keywords) > 0 {
		text := Normalize(r.Company + " " + r.Position + " " + r.Notes)
		if !containsAny(text, keywords) {
			return false
		}
	}

	if locations := compact(p.Locations); len(locations) > 0 {
		if !containsAny(Normalize(r.Location), locations) {
			return false
		}
	}

	return true
}

// FilterByPreferences keeps the records matching p, preserving order.
func FilterByPreferences(records []models.Record, p models.Preferences) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if MatchesPreferences(r, p) {
			out = append(out, r)
		}
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n = Normalize(n); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// compact drops blank entries left behind by hand-edited preference files.
func compact(list []string) []string {
	out := list[:0:0]
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
