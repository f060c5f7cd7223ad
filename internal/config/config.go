// Load envs from .env
// Load YAML config
// Override secrets from env
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-recruit-crawler/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = "configs/config.yaml"
	DefaultBaseURL       = "https://www.givemeoc.com"
	DefaultInternshipURL = DefaultBaseURL + "/internship"
)

type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	History  HistoryConfig  `yaml:"history"`
	Output   OutputConfig   `yaml:"output"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Digest   DigestConfig   `yaml:"digest"`
	Database DatabaseConfig `yaml:"database"`
	Users    UsersConfig    `yaml:"users"`
	Server   ServerConfig   `yaml:"server"`
	//Paths
	CookiesPath string `yaml:"cookies_path"`
}

type SiteConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	JobType string `yaml:"job_type" validate:"required,oneof=campus internship intern 校招 实习"`
}

// Type resolves the configured listing type. Validation guarantees it parses.
func (s SiteConfig) Type() models.JobType {
	jt, _ := models.ParseJobType(s.JobType)
	return jt
}

type CrawlConfig struct {
	StartPage          int           `yaml:"start_page" validate:"min=1"`
	EndPage            int           `yaml:"end_page" validate:"gtefield=StartPage"`
	MaxPagesPerSession int           `yaml:"max_pages_per_session" validate:"min=1"`
	SessionPause       time.Duration `yaml:"session_pause"`
	PageDelay          time.Duration `yaml:"page_delay"`
	NavTimeout         time.Duration `yaml:"nav_timeout"`
	Headful            bool          `yaml:"headful"`
	IncludeKeywords    []string      `yaml:"include_keywords"`
	ExcludeKeywords    []string      `yaml:"exclude_keywords"`
	// Interval > 0 keeps the crawler running and repeats the crawl.
	Interval time.Duration `yaml:"interval"`
}

type HistoryConfig struct {
	Backend string `yaml:"backend" validate:"oneof=local github"`
	Path    string `yaml:"path" validate:"required"`
	KeyMode string `yaml:"key" validate:"oneof=company_position company_position_update"`
	Repo    string `yaml:"repo" validate:"required_if=Backend github"`
	Branch  string `yaml:"branch"`
	Token   string `yaml:"-"`
}

type OutputConfig struct {
	DataDir   string `yaml:"data_dir" validate:"required"`
	ExcelName string `yaml:"excel_name" validate:"required"`
}

type EmailConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SMTPServer string   `yaml:"smtp_server" validate:"required_if=Enabled true"`
	SMTPPort   int      `yaml:"smtp_port" validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
	User       string   `yaml:"user" validate:"required_if=Enabled true,omitempty,email"`
	Password   string   `yaml:"-"`
	Receivers  []string `yaml:"receivers" validate:"dive,email"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"-" validate:"required_if=Enabled true"`
	ChatID  int64  `yaml:"chat_id" validate:"required_if=Enabled true"`
	TopN    int    `yaml:"top_n" validate:"min=0"`
}

type DigestConfig struct {
	Window time.Duration `yaml:"window"`
}

type DatabaseConfig struct {
	URL string `yaml:"-"`
}

type UsersConfig struct {
	Enabled       bool   `yaml:"enabled"`
	File          string `yaml:"file"`
	DataDir       string `yaml:"data_dir"`
	Label         string `yaml:"label"`
	VerifyBaseURL string `yaml:"verify_base_url" validate:"required_if=Enabled true,omitempty,url"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads .env and the YAML file at path, applies env overrides and defaults,
// and validates the result. A missing YAML file is not an error; defaults plus env
// must then be enough.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	//Load yaml config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetJobType switches the listing type after loading, moving between the default
// campus and internship URLs when the base URL was not customised.
func (c *Config) SetJobType(s string) error {
	jt, ok := models.ParseJobType(s)
	if !ok {
		return fmt.Errorf("unknown job type %q", s)
	}
	c.Site.JobType = s
	switch {
	case jt == models.JobTypeInternship && c.Site.BaseURL == DefaultBaseURL:
		c.Site.BaseURL = DefaultInternshipURL
	case jt == models.JobTypeCampus && c.Site.BaseURL == DefaultInternshipURL:
		c.Site.BaseURL = DefaultBaseURL
	}
	return nil
}

// Override with env vars
func applyEnv(cfg *Config) error {
	if v := os.Getenv("EMAIL_USER"); v != "" {
		cfg.Email.User = v
	}
	if v := os.Getenv("EMAIL_PWD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("EMAIL_RECEIVER"); v != "" {
		cfg.Email.Receivers = splitList(v)
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.Email.SMTPServer = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.Email.SMTPPort = port
	}

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.History.Token = v
	}
	if v := os.Getenv("REPO_NAME"); v != "" {
		cfg.History.Repo = v
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	return nil
}

//Set default values if not set
func applyDefaults(cfg *Config) {
	if cfg.Site.JobType == "" {
		cfg.Site.JobType = "campus"
	}
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = DefaultBaseURL
		if cfg.Site.Type() == models.JobTypeInternship {
			cfg.Site.BaseURL = DefaultInternshipURL
		}
	}

	if cfg.Crawl.StartPage == 0 {
		cfg.Crawl.StartPage = 1
	}
	if cfg.Crawl.EndPage == 0 {
		cfg.Crawl.EndPage = 6
	}
	if cfg.Crawl.MaxPagesPerSession == 0 {
		cfg.Crawl.MaxPagesPerSession = 2
	}
	if cfg.Crawl.SessionPause == 0 {
		cfg.Crawl.SessionPause = 5 * time.Second
	}
	if cfg.Crawl.PageDelay == 0 {
		cfg.Crawl.PageDelay = 3 * time.Second
	}
	if cfg.Crawl.NavTimeout == 0 {
		cfg.Crawl.NavTimeout = 30 * time.Second
	}

	if cfg.Output.DataDir == "" {
		cfg.Output.DataDir = "data"
	}
	if cfg.Output.ExcelName == "" {
		cfg.Output.ExcelName = "招聘信息.xlsx"
	}

	if cfg.History.Backend == "" {
		cfg.History.Backend = "local"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "data/jobs.json"
	}
	if cfg.History.KeyMode == "" {
		cfg.History.KeyMode = "company_position"
	}
	if cfg.History.Branch == "" {
		cfg.History.Branch = "main"
	}

	if cfg.Email.SMTPServer == "" {
		cfg.Email.SMTPServer = "smtp.qq.com"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	//default receiver is the sender itself
	if len(cfg.Email.Receivers) == 0 && cfg.Email.User != "" {
		cfg.Email.Receivers = []string{cfg.Email.User}
	}

	if cfg.Telegram.TopN == 0 {
		cfg.Telegram.TopN = 10
	}
	if cfg.Digest.Window == 0 {
		cfg.Digest.Window = 7 * 24 * time.Hour
	}

	if cfg.Users.File == "" {
		cfg.Users.File = "users.json"
	}
	if cfg.Users.DataDir == "" {
		cfg.Users.DataDir = "user_data"
	}
	if cfg.Users.Label == "" {
		cfg.Users.Label = "registration"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.CookiesPath == "" {
		cfg.CookiesPath = ".cookies"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

//Validate required fields
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
