package dedup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-recruit-crawler/internal/github"
	"go-recruit-crawler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())

	h, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, h.Jobs)
	assert.Empty(t, h.Jobs)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.json")
	fs := NewFileStore(path, zap.NewNop())

	res := Reconcile(nil, []models.Record{rec("腾讯", "后端开发", "招满为止")}, today, CompanyPosition)
	require.NoError(t, fs.Save(context.Background(), res.History))

	loaded, err := fs.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Jobs, 1)
	got := loaded.Jobs[CompanyPosition(rec("腾讯", "后端开发", ""))]
	assert.Equal(t, "腾讯", got.Company)
	assert.True(t, today.Equal(got.CrawlTime))
	assert.True(t, today.Equal(loaded.LastUpdated))

	//no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path, zap.NewNop()).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_LegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `{"jobs":{"腾讯|后端开发":{"company":"腾讯","position":"后端开发","job_type":"校招","crawl_time":"2025-10-01T10:00:00+08:00"}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	h, err := NewFileStore(path, zap.NewNop()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, h.Jobs, 1)

	res := Reconcile(h, []models.Record{{Company: "腾讯", Position: "后端开发", JobType: models.JobTypeCampus}}, today, CompanyPosition)
	require.Len(t, res.Unchanged, 1)
	assert.Equal(t, 1, res.Unchanged[0].FirstSeen.Day(), "first_seen falls back to crawl_time")
}

func TestGitHubStore(t *testing.T) {
	var stored []byte
	var lastSHA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if stored == nil {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"sha":      "sha-1",
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString(stored),
			})
		case http.MethodPut:
			var body struct {
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			lastSHA = body.SHA
			stored, _ = base64.StdEncoding.DecodeString(body.Content)
			w.Write([]byte(`{"content":{"sha":"sha-2"}}`))
		}
	}))
	defer srv.Close()

	client, err := github.NewClient("token", "alice/jobs")
	require.NoError(t, err)
	store := NewGitHubStore(client.WithBaseURL(srv.URL), "data/history.json", "main", zap.NewNop())
	ctx := context.Background()

	h, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, h.Jobs)

	res := Reconcile(h, []models.Record{rec("美团", "产品经理", "招满为止")}, today, CompanyPosition)
	require.NoError(t, store.Save(ctx, res.History))
	assert.Equal(t, "", lastSHA, "first save creates the file")

	h, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, h.Jobs, 1)

	require.NoError(t, store.Save(ctx, h))
	assert.Equal(t, "sha-1", lastSHA, "updates send the loaded blob sha")
}

func TestGitHubStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := github.NewClient("token", "alice/jobs")
	require.NoError(t, err)
	store := NewGitHubStore(client.WithBaseURL(srv.URL), "history.json", "", zap.NewNop())

	_, err = store.Load(context.Background())
	var httpErr *github.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestKeyFuncByName(t *testing.T) {
	fn, err := KeyFuncByName("")
	require.NoError(t, err)
	assert.Equal(t, "a|b", fn(models.Record{Company: "A", Position: "B"}))

	fn, err = KeyFuncByName(KeyCompanyPositionUpdated)
	require.NoError(t, err)
	assert.Equal(t, "a|b|2025-10-01", fn(models.Record{Company: "A", Position: "B", UpdateTime: "2025-10-01"}))

	_, err = KeyFuncByName("url")
	assert.Error(t, err)
}

func TestHistoryImport(t *testing.T) {
	fallback := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	crawled := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

	h := NewHistory()
	h.Jobs["腾讯|后端"] = models.Record{Company: "腾讯", Position: "后端", Notes: "keep"}

	added := h.Import([]models.Record{
		{Company: "腾讯", Position: "后端", Notes: "ignored"},
		{Company: "美团", Position: "算法", Status: models.StatusAdded},
		{Company: "京东", Position: "测试", CrawlTime: crawled},
	}, CompanyPosition, fallback)

	assert.Equal(t, 2, added)
	assert.Equal(t, "keep", h.Jobs["腾讯|后端"].Notes)
	assert.Equal(t, fallback, h.Jobs["美团|算法"].CrawlTime)
	assert.Equal(t, models.StatusUnchanged, h.Jobs["美团|算法"].Status)
	assert.Equal(t, crawled, h.Jobs["京东|测试"].FirstSeen)
}
