package pics

import (
	"fmt"
	"strings"
)

// Format identifies an output (or source) image encoding.
type Format int

const (
	// FormatJPEG is baseline or progressive JPEG.
	FormatJPEG Format = iota
	// FormatPNG is lossless PNG, optionally palette reduced.
	FormatPNG
	// FormatWebP is lossy WebP.
	FormatWebP
	// FormatAVIF is AVIF.
	FormatAVIF
)

var formatNames = map[Format]string{
	FormatJPEG: "jpeg",
	FormatPNG:  "png",
	FormatWebP: "webp",
	FormatAVIF: "avif",
}

// String returns the canonical lower-case name of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Extension returns the file extension used for derivatives of this format.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	case FormatAVIF:
		return ".avif"
	}
	return ""
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatAVIF:
		return "image/avif"
	}
	return "application/octet-stream"
}

// ParseFormat converts a format name or extension (with or without the dot) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "avif":
		return FormatAVIF, nil
	}
	return 0, fmt.Errorf("unsupported format: %q", s)
}

// Fit controls how a resize reconciles the source aspect ratio with the target box.
type Fit int

const (
	// FitCover scales to fill the box and crops the overflow around the centre.
	FitCover Fit = iota
	// FitContain scales to fit inside the box and letterboxes the remainder.
	FitContain
)

func (f Fit) String() string {
	if f == FitContain {
		return "contain"
	}
	return "cover"
}

// Resize is a target box for a derivative.
type Resize struct {
	Width  int
	Height int
	Fit    Fit
}

// EncodeOptions holds the format specific knobs of an encode. Fields that do not apply to a
// format are ignored by its encoder.
type EncodeOptions struct {
	// Quality is the lossy quality (0-100). For PNG with Palette it sizes the palette.
	Quality int
	// Progressive requests a progressive JPEG.
	Progressive bool
	// Effort is the encoder effort (0-9), higher is slower and smaller.
	Effort int
	// CompressionLevel is the PNG zlib level (0-9).
	CompressionLevel int
	// Palette enables PNG colour quantisation.
	Palette bool
}

// EncodingProfile is a named bundle of resize and per-format options for one use-case.
type EncodingProfile struct {
	Name    string
	Resize  *Resize
	Formats map[Format]EncodeOptions
}

// Options returns the encode options of the profile for the given format.
func (p EncodingProfile) Options(f Format) (EncodeOptions, bool) {
	opts, ok := p.Formats[f]
	return opts, ok
}

// SourceAsset is a source image discovered in the batch directory.
type SourceAsset struct {
	// Name is the file name, without directory.
	Name string
	// Path is the absolute path of the file.
	Path string
	// Size is the size in bytes at discovery time.
	Size int64
	// Format is derived from the file extension.
	Format Format
	// Detected is the MIME type sniffed from the file content, empty when unknown.
	Detected string
}

// Base returns the file name without its extension.
func (s SourceAsset) Base() string {
	return strings.TrimSuffix(s.Name, extOf(s.Name))
}

// DerivativeSpec is one planned output of a source under a profile and format.
type DerivativeSpec struct {
	Source     SourceAsset
	Profile    EncodingProfile
	Format     Format
	Suffix     string
	OutputPath string
}

// Options returns the encode options the spec's profile defines for its format.
func (d DerivativeSpec) Options() EncodeOptions {
	opts, _ := d.Profile.Options(d.Format)
	return opts
}

// DerivativeResult is the outcome of executing a DerivativeSpec.
type DerivativeResult struct {
	Spec DerivativeSpec
	Size int64
	Err  error
}

// Mode selects the batch driver policy.
type Mode int

const (
	// ModeReplace re-encodes every source in place and keeps it only if smaller.
	ModeReplace Mode = iota
	// ModeResponsive writes a planned set of derivatives into the output directory.
	ModeResponsive
)

func (m Mode) String() string {
	if m == ModeResponsive {
		return "responsive"
	}
	return "replace"
}

// BatchOptions holds configuration options for a batch run.
type BatchOptions struct {
	// Mode selects in-place replacement or the responsive derivative set.
	Mode Mode
	// ReplaceProfile is the profile used by ModeReplace.
	ReplaceProfile string
	// OutputDirName is the derivatives subdirectory used by ModeResponsive.
	OutputDirName string
	// Exclude lists file names that are never read or written.
	Exclude []string
	// MaxConcurrency is the number of files processed concurrently (0 = NumCPU).
	MaxConcurrency int
	// ProgressChan is an optional channel for receiving progress events.
	ProgressChan chan<- ProgressEvent
}

// DefaultOutputDirName is the derivatives subdirectory used when none is configured.
const DefaultOutputDirName = "compressed"

// DefaultBatchOptions returns the default batch options.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Mode:           ModeReplace,
		ReplaceProfile: ProfileOriginal,
		OutputDirName:  DefaultOutputDirName,
		Exclude:        []string{"logo.jpeg"},
		MaxConcurrency: 0,
		ProgressChan:   nil,
	}
}

// ProgressEvent represents a progress update during batch processing.
type ProgressEvent struct {
	// Stage indicates the current processing stage ("compressing", "deriving").
	Stage string
	// Current is the number of items processed so far.
	Current int
	// Total is the total number of items to process.
	Total int
	// Message is a human-readable description of the current operation.
	Message string
	// File is the path of the file currently being processed.
	File string
}
