package pics

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/acm19/webpics/internal/logger"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Codec decodes, resizes and encodes images.
type Codec interface {
	// Decode reads and decodes the image at path, applying EXIF orientation.
	Decode(path string) (image.Image, error)
	// Encode resizes img, encodes it as format and atomically writes it to dst.
	// It returns the size of the written file. On failure nothing is left behind.
	Encode(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (int64, error)
	// EncodeTemp is Encode without the final rename: the output is left at the returned
	// temporary path next to dst and the caller owns it.
	EncodeTemp(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (string, int64, error)
}

// imageCodec implements Codec with imaging and the per-format encoders.
type imageCodec struct {
	progressive ProgressiveRewriter
}

// NewCodec creates a Codec using jpegoptim from PATH for progressive JPEGs.
func NewCodec() Codec {
	return &imageCodec{progressive: NewProgressiveRewriter()}
}

// NewCodecWithRewriter creates a Codec with a custom progressive JPEG rewriter.
func NewCodecWithRewriter(rewriter ProgressiveRewriter) Codec {
	return &imageCodec{progressive: rewriter}
}

// Decode reads and decodes the image at path.
func (c *imageCodec) Decode(path string) (image.Image, error) {
	if err := isValidFile(path); err != nil {
		return nil, newCodecError(DecodeError, path, err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newCodecError(DecodeError, path, err)
	}
	return img, nil
}

// Encode resizes, encodes and atomically writes img to dst.
func (c *imageCodec) Encode(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (int64, error) {
	tmpPath, size, err := c.EncodeTemp(img, format, opts, r, dst)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		removeTemp(tmpPath)
		return 0, newCodecError(FilesystemError, dst, fmt.Errorf("failed to move output into place: %w", err))
	}
	return size, nil
}

// EncodeTemp encodes img to a uniquely named temporary file next to dst.
func (c *imageCodec) EncodeTemp(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (string, int64, error) {
	encode, err := encoderFor(format)
	if err != nil {
		return "", 0, newCodecError(EncodeError, dst, err)
	}

	tmpPath := TempPath(dst)
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, newCodecError(FilesystemError, dst, fmt.Errorf("failed to create temporary file: %w", err))
	}

	w := bufio.NewWriter(out)
	if err := encode(w, resize(img, r, format), opts); err != nil {
		out.Close()
		removeTemp(tmpPath)
		return "", 0, newCodecError(EncodeError, dst, err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		removeTemp(tmpPath)
		return "", 0, newCodecError(FilesystemError, dst, err)
	}
	if err := out.Close(); err != nil {
		removeTemp(tmpPath)
		return "", 0, newCodecError(FilesystemError, dst, err)
	}

	if format == FormatJPEG && opts.Progressive && c.progressive != nil {
		if err := c.progressive.Rewrite(tmpPath); err != nil {
			removeTemp(tmpPath)
			return "", 0, newCodecError(EncodeError, dst, err)
		}
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		removeTemp(tmpPath)
		return "", 0, newCodecError(FilesystemError, dst, err)
	}
	return tmpPath, info.Size(), nil
}

// TempPath returns a unique temporary path in the directory of dst.
func TempPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), fmt.Sprintf("%s%s_%s", TempPrefix, uuid.NewString(), filepath.Base(dst)))
}

// IsCodecTempName reports whether name has the exact shape TempPath produces:
// TempPrefix, a UUID, an underscore and the destination name. Only such files are swept.
func IsCodecTempName(name string) bool {
	rest, ok := strings.CutPrefix(name, TempPrefix)
	if !ok || len(rest) < uuidLength+2 || rest[uuidLength] != '_' {
		return false
	}
	_, err := uuid.Parse(rest[:uuidLength])
	return err == nil
}

// uuidLength is the length of a UUID in its canonical string form.
const uuidLength = 36

// removeTemp removes a temporary file, logging rather than returning failures.
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to remove temporary file", "path", path, "error", err)
	}
}
