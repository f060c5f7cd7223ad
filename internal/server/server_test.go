package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go-recruit-crawler/internal/dedup"
	"go-recruit-crawler/internal/models"
	"go-recruit-crawler/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticHistory struct {
	hist *dedup.History
	err  error
}

func (s staticHistory) Load(context.Context) (*dedup.History, error) { return s.hist, s.err }

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "good":
		return &models.User{Email: "a@x.com"}, nil
	case "broken":
		return nil, errors.New("disk full")
	}
	return nil, users.ErrInvalidToken
}

func setup(t *testing.T, loader HistoryLoader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(loader, fakeVerifier{}, zap.NewNop()).Router()
}

func sampleHistory() *dedup.History {
	h := dedup.NewHistory()
	h.LastUpdated = time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC)
	for _, r := range []models.Record{
		{Company: "腾讯", Position: "Golang后端", Location: "深圳", Target: "2026届", JobType: models.JobTypeCampus},
		{Company: "美团", Position: "产品经理", Location: "北京", Target: "2026届", JobType: models.JobTypeCampus},
		{Company: "字节跳动", Position: "前端实习", Location: "北京,上海", Target: "2027届", JobType: models.JobTypeInternship},
	} {
		h.Jobs[dedup.CompanyPosition(r)] = r
	}
	return h
}

func get(t *testing.T, r http.Handler, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealth(t *testing.T) {
	code, body := get(t, setup(t, staticHistory{hist: sampleHistory()}), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestListJobs(t *testing.T) {
	r := setup(t, staticHistory{hist: sampleHistory()})

	tests := []struct {
		url   string
		code  int
		count float64
	}{
		{"/jobs", http.StatusOK, 3},
		{"/jobs?type=campus", http.StatusOK, 2},
		{"/jobs?type=intern", http.StatusOK, 1},
		{"/jobs?location=" + url.QueryEscape("北京"), http.StatusOK, 2},
		{"/jobs?location=" + url.QueryEscape("北京") + "&target=2026", http.StatusOK, 1},
		{"/jobs?keyword=GOLANG", http.StatusOK, 1},
		{"/jobs?limit=1", http.StatusOK, 1},
		{"/jobs?type=fulltime", http.StatusBadRequest, 0},
		{"/jobs?limit=0x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			code, body := get(t, r, tt.url)
			assert.Equal(t, tt.code, code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.count, body["count"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestListJobs_LoadError(t *testing.T) {
	code, _ := get(t, setup(t, staticHistory{err: errors.New("boom")}), "/jobs")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestVerify(t *testing.T) {
	r := setup(t, staticHistory{hist: sampleHistory()})

	code, body := get(t, r, "/verify?token=good")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a@x.com", body["email"])

	code, _ = get(t, r, "/verify")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, r, "/verify?token=nope")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, r, "/verify?token=broken")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestVerifyDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(staticHistory{hist: sampleHistory()}, nil, zap.NewNop()).Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify?token=good", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
