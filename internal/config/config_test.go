package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-recruit-crawler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.givemeoc.com", cfg.Site.BaseURL)
	assert.Equal(t, models.JobTypeCampus, cfg.Site.Type())
	assert.Equal(t, 1, cfg.Crawl.StartPage)
	assert.Equal(t, 6, cfg.Crawl.EndPage)
	assert.Equal(t, 2, cfg.Crawl.MaxPagesPerSession)
	assert.Equal(t, 5*time.Second, cfg.Crawl.SessionPause)
	assert.Equal(t, "local", cfg.History.Backend)
	assert.Equal(t, "company_position", cfg.History.KeyMode)
	assert.Equal(t, "smtp.qq.com", cfg.Email.SMTPServer)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, 7*24*time.Hour, cfg.Digest.Window)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
site:
  job_type: internship
crawl:
  start_page: 2
  end_page: 4
  session_pause: 10s
  exclude_keywords: ["销售"]
history:
  backend: github
  path: data/intern.json
  key: company_position_update
email:
  enabled: true
  receivers: ["a@example.com"]
`)
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("EMAIL_PWD", "secret")
	t.Setenv("REPO_NAME", "alice/jobs")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("SMTP_PORT", "465")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, models.JobTypeInternship, cfg.Site.Type())
	assert.Equal(t, "https://www.givemeoc.com/internship", cfg.Site.BaseURL)
	assert.Equal(t, 2, cfg.Crawl.StartPage)
	assert.Equal(t, 10*time.Second, cfg.Crawl.SessionPause)
	assert.Equal(t, []string{"销售"}, cfg.Crawl.ExcludeKeywords)
	assert.Equal(t, "alice/jobs", cfg.History.Repo)
	assert.Equal(t, "ghp_x", cfg.History.Token)
	assert.Equal(t, "bot@example.com", cfg.Email.User)
	assert.Equal(t, "secret", cfg.Email.Password)
	assert.Equal(t, 465, cfg.Email.SMTPPort)
	assert.Equal(t, []string{"a@example.com"}, cfg.Email.Receivers)
}

func TestLoad_ReceiverDefaultsToSender(t *testing.T) {
	t.Setenv("EMAIL_USER", "me@example.com")
	t.Setenv("EMAIL_RECEIVER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"me@example.com"}, cfg.Email.Receivers)
}

func TestLoad_ReceiverList(t *testing.T) {
	t.Setenv("EMAIL_RECEIVER", "a@example.com, b@example.com;c@example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, cfg.Email.Receivers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "pages reversed", yaml: "crawl:\n  start_page: 5\n  end_page: 2\n"},
		{name: "unknown backend", yaml: "history:\n  backend: s3\n"},
		{name: "github without repo", yaml: "history:\n  backend: github\n"},
		{name: "unknown job type", yaml: "site:\n  job_type: fulltime\n"},
		{name: "email enabled without user", yaml: "email:\n  enabled: true\n"},
		{name: "bad receiver", yaml: "email:\n  receivers: [\"not-an-email\"]\n"},
		{name: "bad telegram chat", yaml: "", env: map[string]string{"TELEGRAM_CHAT_ID": "abc"}},
		{name: "broken yaml", yaml: "site: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSetJobType(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.NoError(t, cfg.SetJobType("intern"))
	assert.Equal(t, models.JobTypeInternship, cfg.Site.Type())
	assert.Equal(t, DefaultInternshipURL, cfg.Site.BaseURL)

	require.NoError(t, cfg.SetJobType("校招"))
	assert.Equal(t, DefaultBaseURL, cfg.Site.BaseURL)

	cfg.Site.BaseURL = "https://mirror.example.com"
	require.NoError(t, cfg.SetJobType("internship"))
	assert.Equal(t, "https://mirror.example.com", cfg.Site.BaseURL)

	assert.Error(t, cfg.SetJobType("fulltime"))
}
