// Package users manages email subscribers who register through GitHub issues
// and confirm their address with a tokenised link.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go-recruit-crawler/internal/config"
	"go-recruit-crawler/internal/github"
	"go-recruit-crawler/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	registrationMarker = "新用户注册"
	verifiedLabel      = "verified"
	preferencesFile    = "preferences.json"
)

var (
	ErrInvalidToken = errors.New("invalid or expired verification token")
	validate        = validator.New()
)

// IssueTracker is the part of the GitHub client the manager needs.
type IssueTracker interface {
	ListOpenIssues(ctx context.Context, label string) ([]github.Issue, error)
	UpdateIssue(ctx context.Context, number int, patch github.IssuePatch) error
}

type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

type document struct {
	Verified map[string]models.User         `json:"verified_users"`
	Pending  map[string]models.Registration `json:"pending_verification"`
}

type Manager struct {
	mu        sync.Mutex
	path      string
	dataDir   string
	label     string
	verifyURL string
	issues    IssueTracker
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager builds a manager over the users file. issues may be nil when
// registrations are not pulled from GitHub.
func NewManager(cfg config.UsersConfig, issues IssueTracker, logger *zap.Logger) *Manager {
	return &Manager{
		path:      cfg.File,
		dataDir:   cfg.DataDir,
		label:     cfg.Label,
		verifyURL: cfg.VerifyBaseURL,
		issues:    issues,
		logger:    logger,
		now:       time.Now,
	}
}

// ParseRegistrationTitle extracts the address from a title like "新用户注册: a@b.com".
// Both ASCII and full-width colons are accepted.
func ParseRegistrationTitle(title string) (string, bool) {
	if !strings.Contains(title, registrationMarker) {
		return "", false
	}
	i := strings.IndexAny(title, ":：")
	if i < 0 {
		return "", false
	}
	_, size := utf8.DecodeRuneInString(title[i:])
	email := strings.TrimSpace(title[i+size:])
	if validate.Var(email, "required,email") != nil {
		return "", false
	}
	return email, true
}

// FetchRegistrations lists open registration issues with a parseable address.
func (m *Manager) FetchRegistrations(ctx context.Context) ([]models.Registration, error) {
	if m.issues == nil {
		return nil, errors.New("no issue tracker configured")
	}
	issues, err := m.issues.ListOpenIssues(ctx, m.label)
	if err != nil {
		return nil, fmt.Errorf("failed to list registration issues: %w", err)
	}

	var regs []models.Registration
	for _, is := range issues {
		email, ok := ParseRegistrationTitle(is.Title)
		if !ok {
			m.logger.Debug("skip issue", zap.Int("number", is.Number), zap.String("title", is.Title))
			continue
		}
		regs = append(regs, models.Registration{Email: email, IssueNumber: is.Number, CreatedAt: is.CreatedAt})
	}
	return regs, nil
}

// BeginVerification stores reg as pending under a fresh token and mails the link.
func (m *Manager) BeginVerification(ctx context.Context, reg models.Registration, mailer Mailer) (string, error) {
	token := uuid.NewString()
	link := m.VerifyLink(token)

	if err := mailer.SendVerification(ctx, reg.Email, link); err != nil {
		return "", fmt.Errorf("failed to send verification to %s: %w", reg.Email, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.load()
	if err != nil {
		return "", err
	}
	sent := m.now()
	reg.Token = token
	reg.SentAt = &sent
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = sent
	}
	doc.Pending[token] = reg
	if err := m.save(doc); err != nil {
		return "", err
	}
	m.logger.Info("✉️ verification sent", zap.String("email", reg.Email), zap.Int("issue", reg.IssueNumber))
	return token, nil
}

func (m *Manager) VerifyLink(token string) string {
	sep := "?"
	if strings.Contains(m.verifyURL, "?") {
		sep = "&"
	}
	return m.verifyURL + sep + "token=" + token
}

// Sync starts verification for every new registration. Addresses already verified or
// pending are skipped. It returns how many verification emails went out.
func (m *Manager) Sync(ctx context.Context, mailer Mailer) (int, error) {
	regs, err := m.FetchRegistrations(ctx)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	doc, err := m.load()
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool)
	for email := range doc.Verified {
		known[strings.ToLower(email)] = true
	}
	for _, p := range doc.Pending {
		known[strings.ToLower(p.Email)] = true
	}

	var sent int
	var errs []error
	for _, reg := range regs {
		if known[strings.ToLower(reg.Email)] {
			continue
		}
		if _, err := m.BeginVerification(ctx, reg, mailer); err != nil {
			m.logger.Warn("⚠️ verification failed", zap.String("email", reg.Email), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		known[strings.ToLower(reg.Email)] = true
		sent++
	}
	return sent, errors.Join(errs...)
}

// Verify completes a registration: the pending entry becomes a verified user with
// default preferences, and the GitHub issue is closed.
func (m *Manager) Verify(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return nil, err
	}
	reg, ok := doc.Pending[token]
	if !ok || token == "" {
		return nil, ErrInvalidToken
	}

	verified := m.now()
	user := models.User{
		Email:       reg.Email,
		IssueNumber: reg.IssueNumber,
		CreatedAt:   reg.CreatedAt,
		VerifiedAt:  &verified,
		Preferences: DefaultPreferences(),
	}
	if err := m.writePreferences(user.Email, user.Preferences); err != nil {
		return nil, err
	}

	delete(doc.Pending, token)
	doc.Verified[user.Email] = user
	if err := m.save(doc); err != nil {
		return nil, err
	}

	if m.issues != nil && reg.IssueNumber > 0 {
		patch := github.IssuePatch{State: "closed", Labels: []string{m.label, verifiedLabel}}
		if err := m.issues.UpdateIssue(ctx, reg.IssueNumber, patch); err != nil {
			m.logger.Warn("⚠️ failed to close registration issue", zap.Int("issue", reg.IssueNumber), zap.Error(err))
		}
	}
	m.logger.Info("✅ user verified", zap.String("email", user.Email))
	return &user, nil
}

// VerifiedUsers returns verified users sorted by email, with preferences read from
// their data directory when present.
func (m *Manager) VerifiedUsers() ([]models.User, error) {
	m.mu.Lock()
	doc, err := m.load()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(doc.Verified))
	for _, u := range doc.Verified {
		if p, ok := m.readPreferences(u.Email); ok {
			u.Preferences = p
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func DefaultPreferences() models.Preferences {
	return models.Preferences{Keywords: []string{}, Locations: []string{}, NotificationFreq: "daily"}
}

func (m *Manager) userDir(email string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.ToLower(email))
	return filepath.Join(m.dataDir, safe)
}

func (m *Manager) writePreferences(email string, p models.Preferences) error {
	dir := m.userDir(email)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	path := filepath.Join(dir, preferencesFile)
	if _, err := os.Stat(path); err == nil {
		//keep preferences the user already edited
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Manager) readPreferences(email string) (models.Preferences, bool) {
	data, err := os.ReadFile(filepath.Join(m.userDir(email), preferencesFile))
	if err != nil {
		return models.Preferences{}, false
	}
	var p models.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		m.logger.Warn("⚠️ bad preferences file", zap.String("email", email), zap.Error(err))
		return models.Preferences{}, false
	}
	return p, true
}

func (m *Manager) load() (*document, error) {
	doc := &document{}
	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", m.path, err)
	default:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", m.path, err)
		}
	}
	if doc.Verified == nil {
		doc.Verified = make(map[string]models.User)
	}
	if doc.Pending == nil {
		doc.Pending = make(map[string]models.Registration)
	}
	return doc, nil
}

func (m *Manager) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.path, err)
	}
	return os.Rename(tmp, m.path)
}
