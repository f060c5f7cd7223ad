package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ScreenShotDebugger handles debug screenshots
type ScreenShotDebugger struct {
	outputDir string
	logger    *zap.Logger
}

func NewScreenShotDebugger(dir string, logger *zap.Logger) *ScreenShotDebugger {
	return &ScreenShotDebugger{outputDir: dir, logger: logger}
}

// CaptureAndLog saves a full-page screenshot named after the failure.
// It never fails the caller; problems are only logged.
func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) {
	if s == nil || page == nil {
		return
	}
	s.logger.Warn("📸 "+message, zap.String("shot", name))

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Warn("⚠️ Failed to create screenshot directory", zap.Error(err))
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))

	//Take screenshot
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return
	}
	s.logger.Info("Screenshot saved", zap.String("path", path))
}
