package pics

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Helper functions

func createTestDir(t *testing.T, parentDir, name string) string {
	t.Helper()
	dirPath := filepath.Join(parentDir, name)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dirPath, err)
	}
	return dirPath
}

func createTestFile(t *testing.T, dir, filename string) string {
	t.Helper()
	return createSizedFile(t, dir, filename, 4)
}

func createSizedFile(t *testing.T, dir, filename string, size int) string {
	t.Helper()
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, bytes.Repeat([]byte{'x'}, size), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", filePath, err)
	}
	return filePath
}

// testImage returns a deterministic image with enough detail that encoders do real work.
func testImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: uint8((x*31 + y*17) % 256),
				A: 255,
			})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, width, height, quality int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(width, height), &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, testImage(width, height)); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// writeFlatPNG writes an uncompressed PNG made of four solid blocks, so a palette encoding is
// much smaller.
func writeFlatPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	blocks := []color.NRGBA{
		{R: 200, G: 30, B: 30, A: 255},
		{R: 30, G: 200, B: 30, A: 255},
		{R: 30, G: 30, B: 200, A: 255},
		{R: 240, G: 240, B: 240, A: 255},
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := 0
			if x >= width/2 {
				i++
			}
			if y >= height/2 {
				i += 2
			}
			img.SetNRGBA(x, y, blocks[i])
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	return info.Size()
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func assertNoTempFiles(t *testing.T, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			t.Fatalf("Failed to read %s: %v", dir, err)
		}
		for _, e := range entries {
			if IsCodecTempName(e.Name()) {
				t.Errorf("Temporary file left behind: %s", filepath.Join(dir, e.Name()))
			}
		}
	}
}

// noopRewriter stands in for jpegoptim so tests do not depend on the binary.
type noopRewriter struct {
	mu    sync.Mutex
	calls int
}

func (r *noopRewriter) Rewrite(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *noopRewriter) Available() bool { return true }

// fakeCodec writes outputs of a configured size without touching image data.
type fakeCodec struct {
	mu sync.Mutex
	// sizes maps an output file name to the number of bytes to write. Unlisted names get
	// defaultSize.
	sizes       map[string]int
	defaultSize int
	// failDecode and failEncode list source or output file names that fail.
	failDecode map[string]bool
	failEncode map[string]bool
	decoded    []string
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		sizes:       map[string]int{},
		defaultSize: 100,
		failDecode:  map[string]bool{},
		failEncode:  map[string]bool{},
	}
}

func (f *fakeCodec) Decode(path string) (image.Image, error) {
	f.mu.Lock()
	f.decoded = append(f.decoded, filepath.Base(path))
	f.mu.Unlock()
	if f.failDecode[filepath.Base(path)] {
		return nil, newCodecError(DecodeError, path, errors.New("corrupt image"))
	}
	return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (f *fakeCodec) Encode(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (int64, error) {
	tmp, size, err := f.EncodeTemp(img, format, opts, r, dst)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return 0, newCodecError(FilesystemError, dst, err)
	}
	return size, nil
}

func (f *fakeCodec) EncodeTemp(img image.Image, format Format, opts EncodeOptions, r *Resize, dst string) (string, int64, error) {
	name := filepath.Base(dst)
	if f.failEncode[name] {
		return "", 0, newCodecError(EncodeError, dst, fmt.Errorf("encoder rejected %s", format))
	}
	size := f.defaultSize
	if s, ok := f.sizes[name]; ok {
		size = s
	}
	tmp := TempPath(dst)
	content := bytes.Repeat([]byte(strings.ToUpper(format.String())[:1]), size)
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return "", 0, newCodecError(FilesystemError, dst, err)
	}
	return tmp, int64(size), nil
}

func (f *fakeCodec) decodedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.decoded...)
}
