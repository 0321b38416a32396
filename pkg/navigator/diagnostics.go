package navigator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
)

const diagnosticsTimeout = 10 * time.Second

// captureDiagnostics writes a screenshot and the page markup for post-mortem
// inspection. It runs after cancellation too, so it detaches from ctx.
func (n *Navigator) captureDiagnostics(ctx context.Context, cause error) []string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnosticsTimeout)
	defer cancel()

	if err := os.MkdirAll(n.diagnosticsDir, 0o755); err != nil {
		logger.Log.WithError(err).Error("Failed to create diagnostics directory")
		return nil
	}

	stamp := n.now().Unix()
	var written []string

	if shot, err := n.driver.Screenshot(ctx); err != nil {
		logger.Log.WithError(err).Warn("Screenshot capture failed")
	} else {
		path := filepath.Join(n.diagnosticsDir, fmt.Sprintf("error_screenshot_%d.png", stamp))
		if err := os.WriteFile(path, shot, 0o644); err != nil {
			logger.Log.WithError(err).Warn("Failed to write screenshot")
		} else {
			written = append(written, path)
		}
	}

	if page, err := n.driver.PageHTML(ctx); err != nil {
		logger.Log.WithError(err).Warn("Page markup capture failed")
	} else {
		path := filepath.Join(n.diagnosticsDir, fmt.Sprintf("error_page_%d.html", stamp))
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			logger.Log.WithError(err).Warn("Failed to write page markup")
		} else {
			written = append(written, path)
		}
	}

	logger.Log.WithError(cause).WithField("files", written).Error("Navigation aborted, diagnostics captured")
	return written
}
