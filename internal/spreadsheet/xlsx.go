// Package spreadsheet writes the merged listing to an xlsx workbook and reads old
// workbooks back, so history kept only in Excel can be migrated to JSON.
package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-recruit-crawler/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName      = "招聘信息"
	HighlightColor = "FFFF00"
	timeLayout     = "2006-01-02 15:04"
)

// Columns is the header row; the order matches the site's table plus our two columns.
var Columns = []string{
	"公司名称", "公司类型", "工作地点", "招聘类型", "招聘对象", "岗位", "更新时间",
	"截止时间", "投递链接", "公告链接", "内推码", "备注学位要求", "抓取时间", "状态",
}

func row(r models.Record) []interface{} {
	crawl := ""
	if !r.CrawlTime.IsZero() {
		crawl = r.CrawlTime.Format(timeLayout)
	}
	return []interface{}{
		r.Company, r.CompanyType, r.Location, r.RecruitmentType, r.Target, r.Position,
		r.UpdateTime, r.Deadline, r.Links, r.Notice, r.Referral, r.Notes, crawl, string(r.Status),
	}
}

// Write saves records to path, highlighting added and updated rows.
func Write(path string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{HighlightColor}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range records {
		n := i + 2
		cells := row(r)
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", n), &cells); err != nil {
			return fmt.Errorf("write row %d: %w", n, err)
		}
		if r.Status == models.StatusAdded || r.Status == models.StatusUpdated {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", n), fmt.Sprintf("%s%d", lastCol, n), highlight); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Read loads a workbook written by Write (or by the older script with the same headers).
// Columns are located by header name, so extra or reordered columns are fine.
func Read(path string, jobType models.JobType) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"公司名称", "岗位"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	get := func(cells []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		r := models.Record{
			Company:         get(cells, "公司名称"),
			CompanyType:     get(cells, "公司类型"),
			Location:        get(cells, "工作地点"),
			RecruitmentType: get(cells, "招聘类型"),
			Target:          get(cells, "招聘对象"),
			Position:        get(cells, "岗位"),
			UpdateTime:      get(cells, "更新时间"),
			Deadline:        get(cells, "截止时间"),
			Links:           get(cells, "投递链接"),
			Notice:          get(cells, "公告链接"),
			Referral:        get(cells, "内推码"),
			Notes:           get(cells, "备注学位要求"),
			Status:          models.Status(get(cells, "状态")),
			JobType:         jobType,
		}
		if r.Company == "" && r.Position == "" {
			continue
		}
		if ts := get(cells, "抓取时间"); ts != "" {
			if t, err := time.ParseInLocation(timeLayout, ts, time.Local); err == nil {
				r.CrawlTime = t
			}
		}
		records = append(records, r)
	}
	return records, nil
}
