package scraper

import (
	"errors"
	"os"
	"testing"

	"go-recruit-crawler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	f, err := os.Open("testdata/listing.html")
	require.NoError(t, err)
	defer f.Close()

	records, rowErrs, err := ParseTable(f, models.JobTypeCampus)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Len(t, rowErrs, 2, "ad row and empty company row are reported")

	tencent := records[0]
	assert.Equal(t, "腾讯", tencent.Company)
	assert.Equal(t, "互联网", tencent.CompanyType)
	assert.Equal(t, "深圳 北京", tencent.Location)
	assert.Equal(t, "秋招", tencent.RecruitmentType)
	assert.Equal(t, "2026届毕业生", tencent.Target)
	assert.Equal(t, "后端开发、 算法工程师", tencent.Position)
	assert.Equal(t, "2025-10-10", tencent.UpdateTime)
	assert.Equal(t, "2025-10-31", tencent.Deadline)
	assert.Equal(t, "https://join.qq.com/apply", tencent.Links)
	assert.Equal(t, "https://join.qq.com/notice", tencent.Notice)
	assert.Equal(t, "NTAQ9x", tencent.Referral)
	assert.Equal(t, "本科及以上", tencent.Notes)
	assert.Equal(t, models.JobTypeCampus, tencent.JobType)

	sgcc := records[1]
	assert.Equal(t, "国家电网", sgcc.Company)
	assert.Equal(t, "", sgcc.Links, "missing link is empty, not an error")
	assert.Equal(t, "招满为止", sgcc.Deadline)

	var rowErr *RowError
	require.True(t, errors.As(rowErrs[0], &rowErr))
	assert.Equal(t, 2, rowErr.Row)
}

func TestParseTable_NoTable(t *testing.T) {
	records, rowErrs, err := ParseTableHTML("<html><body><p>维护中</p></body></html>", models.JobTypeInternship)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, rowErrs)
}

func TestPlanSessions(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		per        int
		expected   []Session
	}{
		{"default run", 1, 6, 2, []Session{{1, 2}, {3, 4}, {5, 6}}},
		{"uneven tail", 1, 5, 2, []Session{{1, 2}, {3, 4}, {5, 5}}},
		{"late start", 4, 6, 5, []Session{{4, 6}}},
		{"single page", 3, 3, 2, []Session{{3, 3}}},
		{"empty range", 5, 4, 2, nil},
		{"zero per session", 1, 2, 0, []Session{{1, 1}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanSessions(tt.start, tt.end, tt.per))
		})
	}
}
