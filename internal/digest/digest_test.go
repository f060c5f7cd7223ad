package digest

import (
	"testing"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 15, 8, 0, 0, 0, time.Local)

func history(records ...models.Record) *dedup.History {
	h := dedup.NewHistory()
	for _, r := range records {
		h.Jobs[dedup.CompanyPosition(r)] = r
	}
	return h
}

func TestSelect(t *testing.T) {
	day := 24 * time.Hour
	h := history(
		models.Record{Company: "腾讯", Position: "后端", FirstSeen: now.Add(-2 * day), ChangedAt: now.Add(-2 * day)},
		models.Record{Company: "腾讯", Position: "前端", FirstSeen: now.Add(-30 * day), ChangedAt: now.Add(-1 * day)},
		models.Record{Company: "美团", Position: "算法", FirstSeen: now.Add(-30 * day), ChangedAt: now.Add(-20 * day)},
		//legacy entry without first_seen/changed_at
		models.Record{Company: "京东", Position: "测试", CrawlTime: now.Add(-3 * day)},
		models.Record{Company: "网易", Position: "运营", FirstSeen: now.Add(-1 * day), Deadline: "2025-10-01"},
	)

	got := Select(h, now, 7*day)
	require.Len(t, got, 3)

	status := map[string]models.Status{}
	for _, r := range got {
		status[r.Company+r.Position] = r.Status
	}
	assert.Equal(t, models.StatusAdded, status["腾讯后端"])
	assert.Equal(t, models.StatusUpdated, status["腾讯前端"])
	assert.Equal(t, models.StatusAdded, status["京东测试"])
}

func TestBuild(t *testing.T) {
	day := 24 * time.Hour
	h := history(
		models.Record{Company: "腾讯", Position: "后端", FirstSeen: now.Add(-day)},
		models.Record{Company: "腾讯", Position: "前端", FirstSeen: now.Add(-20 * day), ChangedAt: now.Add(-day)},
		models.Record{Company: "字节跳动", Position: "客户端", FirstSeen: now.Add(-day)},
	)

	r, err := Build(h, now, 0)
	require.NoError(t, err)

	assert.Equal(t, "招聘信息周报 2025-10-15", r.Subject)
	assert.Equal(t, "2025-10-08 至 2025-10-15：新增 2 条，更新 1 条，涉及 2 家公司。", r.Summary)
	assert.Contains(t, r.HTML, "腾讯 (2)")
	assert.Contains(t, r.HTML, "字节跳动 (1)")
	require.Len(t, r.Records, 3)
	assert.Equal(t, "字节跳动", r.Records[0].Company)
	assert.Equal(t, "前端", r.Records[1].Position)
}

func TestBuild_Empty(t *testing.T) {
	r, err := Build(dedup.NewHistory(), now, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, r.Records)
	assert.Contains(t, r.HTML, "没有新增或更新")
}
