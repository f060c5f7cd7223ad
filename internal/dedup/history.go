package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-recruit-crawler/internal/models"

	"go.uber.org/zap"
)

// History is the persisted document mapping identity key -> last-seen record.
type History struct {
	LastUpdated time.Time                `json:"last_updated"`
	Jobs        map[string]models.Record `json:"jobs"`
}

func NewHistory() *History {
	return &History{Jobs: make(map[string]models.Record)}
}

// Records returns the history entries in a stable order (see SortRecords).
func (h *History) Records() []models.Record {
	out := make([]models.Record, 0, len(h.Jobs))
	for _, r := range h.Jobs {
		out = append(out, r)
	}
	SortRecords(out)
	return out
}

// Import adds records whose key is not in the history yet and returns how many were
// added. Existing entries win. Records without a crawl time get fallback.
func (h *History) Import(records []models.Record, keyFn KeyFunc, fallback time.Time) int {
	var added int
	for _, r := range records {
		key := keyFn(r)
		if _, ok := h.Jobs[key]; ok {
			continue
		}
		if r.CrawlTime.IsZero() {
			r.CrawlTime = fallback
		}
		if r.FirstSeen.IsZero() {
			r.FirstSeen = r.CrawlTime
		}
		r.Status = models.StatusUnchanged
		h.Jobs[key] = r
		added++
	}
	return added
}

// Store loads and saves the history document.
type Store interface {
	Load(ctx context.Context) (*History, error)
	Save(ctx context.Context, h *History) error
}

func decodeHistory(data []byte) (*History, error) {
	h := NewHistory()
	if err := json.Unmarshal(data, h); err != nil {
		return nil, err
	}
	if h.Jobs == nil {
		h.Jobs = make(map[string]models.Record)
	}
	return h, nil
}

func encodeHistory(h *History) ([]byte, error) {
	if h.Jobs == nil {
		h.Jobs = make(map[string]models.Record)
	}
	return json.MarshalIndent(h, "", "  ")
}

// FileStore keeps the history in a local JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the history; a missing file yields an empty history.
func (fs *FileStore) Load(ctx context.Context) (*History, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			fs.logger.Info("📋 No history file yet, starting fresh", zap.String("path", fs.path))
			return NewHistory(), nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	h, err := decodeHistory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}
	fs.logger.Info("📋 Loaded history", zap.String("path", fs.path), zap.Int("jobs", len(h.Jobs)))
	return h, nil
}

// Save replaces the file atomically via a temp file in the same directory.
func (fs *FileStore) Save(ctx context.Context, h *History) error {
	data, err := encodeHistory(h)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}

	fs.logger.Info("💾 Saved history", zap.String("path", fs.path), zap.Int("jobs", len(h.Jobs)))
	return nil
}
