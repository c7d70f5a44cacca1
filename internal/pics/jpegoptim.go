package pics

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/acm19/webpics/internal/logger"
)

// ProgressiveRewriter rewrites a baseline JPEG as a progressive JPEG in place.
type ProgressiveRewriter interface {
	// Rewrite converts the JPEG at path to progressive encoding. It is a no-op when the
	// rewriter is unavailable.
	Rewrite(path string) error
	// Available reports whether the external optimiser was found.
	Available() bool
}

// jpegoptim implements ProgressiveRewriter using the jpegoptim binary.
type jpegoptim struct {
	path      string
	available bool
	warnOnce  sync.Once
}

// NewProgressiveRewriter creates a ProgressiveRewriter using jpegoptim from PATH.
func NewProgressiveRewriter() ProgressiveRewriter {
	return NewProgressiveRewriterWithPath("jpegoptim")
}

// NewProgressiveRewriterWithPath creates a ProgressiveRewriter with a custom jpegoptim path.
func NewProgressiveRewriterWithPath(jpegoptimPath string) ProgressiveRewriter {
	resolved, err := exec.LookPath(jpegoptimPath)
	return &jpegoptim{path: resolved, available: err == nil}
}

// Available reports whether the external optimiser was found.
func (j *jpegoptim) Available() bool {
	return j.available
}

// Rewrite converts the JPEG at path to progressive encoding, keeping its modification time.
func (j *jpegoptim) Rewrite(path string) error {
	if !j.available {
		j.warnOnce.Do(func() {
			logger.Warn("jpegoptim not found, writing baseline JPEGs")
		})
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %w", err)
	}

	cmd := exec.Command(j.path, "--all-progressive", "--force", "--quiet", "-p", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("jpegoptim failed for %s: %w, output: %s", path, err, output)
	}
	return nil
}
