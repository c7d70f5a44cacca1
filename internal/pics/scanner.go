package pics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/acm19/webpics/internal/logger"
	"github.com/h2non/filetype"
)

// Scanner enumerates the source assets of a batch directory.
type Scanner interface {
	// ValidateDirectory checks that dir exists and is a directory.
	ValidateDirectory(dir string) error
	// Scan returns the source assets of dir in name order, skipping excluded and
	// unrecognised files.
	Scan(dir string) ([]SourceAsset, error)
	// SweepTemp removes leftover codec temporary files from dir and returns how many were removed.
	SweepTemp(dir string) int
}

type scanner struct {
	extensions Extensions
	exclusion  *Exclusion
}

// NewScanner creates a Scanner using the given exclusion predicate.
func NewScanner(exclusion *Exclusion) Scanner {
	return &scanner{
		extensions: NewExtensions(),
		exclusion:  exclusion,
	}
}

// ValidateDirectory checks that dir exists and is a directory.
func (s *scanner) ValidateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return newCodecError(FilesystemError, dir, fmt.Errorf("source directory is not accessible: %w", err))
	}
	if !info.IsDir() {
		return newCodecError(FilesystemError, dir, fmt.Errorf("source path is not a directory"))
	}
	return nil
}

// Scan returns the source assets of dir in name order.
func (s *scanner) Scan(dir string) ([]SourceAsset, error) {
	if err := s.ValidateDirectory(dir); err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newCodecError(FilesystemError, dir, err)
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, newCodecError(FilesystemError, dir, fmt.Errorf("failed to read directory: %w", err))
	}

	var sources []SourceAsset
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		format, ok := s.extensions.FormatOf(name)
		if !ok {
			logger.Debug("Skipping unrecognised file", "file", name)
			continue
		}
		if reason := s.exclusion.Reason(name); reason != NotExcluded {
			logger.Debug("Skipping excluded file", "file", name, "reason", string(reason))
			continue
		}

		path := filepath.Join(absDir, name)
		info, err := entry.Info()
		if err != nil {
			logger.Warn("Failed to stat file, skipping", "file", name, "error", err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		asset := SourceAsset{
			Name:     name,
			Path:     path,
			Size:     info.Size(),
			Format:   format,
			Detected: detectMIME(path),
		}
		if asset.Detected != "" && asset.Detected != format.ContentType() {
			logger.Warn("File content does not match extension", "file", name, "extension", format.String(), "content", asset.Detected)
		}
		sources = append(sources, asset)
	}
	return sources, nil
}

// SweepTemp removes codec temporary files left in dir by an interrupted batch. Other files
// that merely start with TempPrefix are left alone. Removal failures are logged.
func (s *scanner) SweepTemp(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read directory for temp sweep", "path", dir, "error", err)
		}
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsCodecTempName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Error("Failed to remove leftover temporary file", "path", path, "error", err)
			continue
		}
		logger.Info("Removed leftover temporary file", "path", path)
		removed++
	}
	return removed
}

// detectMIME sniffs the MIME type of a file from its header. It returns "" when the type is
// unknown or the file cannot be read.
func detectMIME(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
