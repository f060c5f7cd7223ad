package scraper

import (
	"fmt"
	"io"
	"strings"

	"go-recruit-crawler/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors of the listing table. Every cell carries a crt-col-* class.
const (
	RowSelector = "table.crt-table tbody tr"

	colCompany         = "td.crt-col-company"
	colCompanyType     = "td.crt-col-type"
	colLocation        = "td.crt-col-location"
	colRecruitmentType = "td.crt-col-recruitment-type"
	colTarget          = "td.crt-col-target"
	colPosition        = "td.crt-col-position"
	colUpdateTime      = "td.crt-col-update-time"
	colDeadline        = "td.crt-col-deadline"
	colLinks           = "td.crt-col-links a"
	colNotice          = "td.crt-col-notice a"
	colReferral        = "td.crt-col-referral"
	colNotes           = "td.crt-col-notes"
)

// RowError describes a table row that could not be turned into a record.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ParseTable extracts listing records from a rendered listing page.
// Rows without a company or position cell are skipped and reported as *RowError.
func ParseTable(r io.Reader, jobType models.JobType) ([]models.Record, []error, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse failed: %w", err)
	}

	var records []models.Record
	var rowErrs []error
	doc.Find(RowSelector).Each(func(i int, row *goquery.Selection) {
		companyCell := row.Find(colCompany)
		positionCell := row.Find(colPosition)
		if companyCell.Length() == 0 || positionCell.Length() == 0 {
			rowErrs = append(rowErrs, &RowError{Row: i, Reason: "missing company or position cell"})
			return
		}

		rec := models.Record{
			Company:         cellText(companyCell),
			CompanyType:     cellText(row.Find(colCompanyType)),
			Location:        cellText(row.Find(colLocation)),
			RecruitmentType: cellText(row.Find(colRecruitmentType)),
			Target:          cellText(row.Find(colTarget)),
			Position:        cellText(positionCell),
			UpdateTime:      cellText(row.Find(colUpdateTime)),
			Deadline:        cellText(row.Find(colDeadline)),
			Links:           cellHref(row.Find(colLinks)),
			Notice:          cellHref(row.Find(colNotice)),
			Referral:        cellText(row.Find(colReferral)),
			Notes:           cellText(row.Find(colNotes)),
			JobType:         jobType,
		}

		if rec.Company == "" || rec.Position == "" {
			rowErrs = append(rowErrs, &RowError{Row: i, Reason: "empty company or position"})
			return
		}
		records = append(records, rec)
	})

	return records, rowErrs, nil
}

// ParseTableHTML is ParseTable for an HTML string, as returned by page.Content().
func ParseTableHTML(html string, jobType models.JobType) ([]models.Record, []error, error) {
	return ParseTable(strings.NewReader(html), jobType)
}

// cellText mimics innerText: <br> become spaces and whitespace is collapsed.
func cellText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	s = s.First().Clone()
	s.Find("br").ReplaceWithHtml(" ")
	return strings.Join(strings.Fields(s.Text()), " ")
}

func cellHref(s *goquery.Selection) string {
	href, _ := s.First().Attr("href")
	return strings.TrimSpace(href)
}
