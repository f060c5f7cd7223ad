package spreadsheet

import (
	"path/filepath"
	"testing"
	"time"

	"go-recruit-crawler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAndRead(t *testing.T) {
	crawl := time.Date(2025, 10, 15, 9, 30, 0, 0, time.Local)
	records := []models.Record{
		{Company: "腾讯", Position: "后端开发", Deadline: "2025-10-31", Links: "https://join.qq.com", CrawlTime: crawl, Status: models.StatusAdded},
		{Company: "美团", Position: "产品经理", Deadline: "招满为止", CrawlTime: crawl, Status: models.StatusUnchanged},
		{Company: "京东", Position: "算法", Notes: "硕士", CrawlTime: crawl, Status: models.StatusUpdated},
	}
	path := filepath.Join(t.TempDir(), "out", "招聘信息.xlsx")

	require.NoError(t, Write(path, records))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, SheetName, f.GetSheetName(0))
	header, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "公司名称", header)

	//added and updated rows carry the highlight, unchanged rows do not
	addedStyle, err := f.GetCellStyle(SheetName, "A2")
	require.NoError(t, err)
	plainStyle, err := f.GetCellStyle(SheetName, "A3")
	require.NoError(t, err)
	updatedStyle, err := f.GetCellStyle(SheetName, "N4")
	require.NoError(t, err)
	assert.NotEqual(t, addedStyle, plainStyle)
	assert.Equal(t, addedStyle, updatedStyle)

	style, err := f.GetStyle(addedStyle)
	require.NoError(t, err)
	assert.Equal(t, []string{HighlightColor}, style.Fill.Color)

	back, err := Read(path, models.JobTypeCampus)
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, "腾讯", back[0].Company)
	assert.Equal(t, "https://join.qq.com", back[0].Links)
	assert.Equal(t, models.StatusAdded, back[0].Status)
	assert.True(t, crawl.Equal(back[0].CrawlTime))
	assert.Equal(t, "硕士", back[2].Notes)
	assert.Equal(t, models.JobTypeCampus, back[2].JobType)
}

func TestRead_ReorderedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"岗位", "备注", "公司名称"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"测试工程师", "无关列", "网易"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "", ""}))
	require.NoError(t, f.SaveAs(path))
	f.Close()

	records, err := Read(path, models.JobTypeInternship)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "网易", records[0].Company)
	assert.Equal(t, "测试工程师", records[0].Position)
	assert.True(t, records[0].CrawlTime.IsZero())
}

func TestRead_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"名称"}))
	require.NoError(t, f.SaveAs(path))
	f.Close()

	_, err := Read(path, models.JobTypeCampus)
	assert.Error(t, err)
}
