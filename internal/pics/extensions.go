package pics

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions defines the interface for file extension operations.
type Extensions interface {
	// IsSource returns true if the file extension is a recognised source raster format.
	IsSource(filePath string) bool
	// IsJPEG returns true if the file extension is JPEG (jpg or jpeg).
	IsJPEG(filePath string) bool
	// IsPNG returns true if the file extension is PNG.
	IsPNG(filePath string) bool
	// FormatOf returns the source format implied by the extension.
	FormatOf(filePath string) (Format, bool)
}

// extensions implements the Extensions interface.
type extensions struct {
	sourceExts []string
}

// NewExtensions creates a new Extensions instance.
func NewExtensions() Extensions {
	return &extensions{
		sourceExts: []string{".jpg", ".jpeg", ".png"},
	}
}

func extOf(filePath string) string {
	return filepath.Ext(filePath)
}

// IsSource returns true if the file extension is a recognised source raster format.
func (e *extensions) IsSource(filePath string) bool {
	ext := strings.ToLower(extOf(filePath))
	return slices.Contains(e.sourceExts, ext)
}

// IsJPEG returns true if the file extension is JPEG (jpg or jpeg).
func (e *extensions) IsJPEG(filePath string) bool {
	ext := strings.ToLower(extOf(filePath))
	return ext == ".jpg" || ext == ".jpeg"
}

// IsPNG returns true if the file extension is PNG.
func (e *extensions) IsPNG(filePath string) bool {
	return strings.ToLower(extOf(filePath)) == ".png"
}

// FormatOf returns the source format implied by the extension.
func (e *extensions) FormatOf(filePath string) (Format, bool) {
	switch {
	case e.IsJPEG(filePath):
		return FormatJPEG, true
	case e.IsPNG(filePath):
		return FormatPNG, true
	}
	return 0, false
}
