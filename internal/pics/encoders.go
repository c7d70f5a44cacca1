package pics

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
)

// encodeFunc writes img to w in one output format.
type encodeFunc func(w io.Writer, img image.Image, opts EncodeOptions) error

// encoders maps each format tag to its encoder.
var encoders = map[Format]encodeFunc{
	FormatJPEG: encodeJPEG,
	FormatPNG:  encodePNG,
	FormatWebP: encodeWebP,
	FormatAVIF: encodeAVIF,
}

func encoderFor(f Format) (encodeFunc, error) {
	fn, ok := encoders[f]
	if !ok {
		return nil, fmt.Errorf("no encoder for %s", f)
	}
	return fn, nil
}

func encodeJPEG(w io.Writer, img image.Image, opts EncodeOptions) error {
	return imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(clamp(opts.Quality, 1, 100)))
}

func encodePNG(w io.Writer, img image.Image, opts EncodeOptions) error {
	if opts.Palette {
		img = reducePalette(img, opts.Quality)
	}
	enc := png.Encoder{CompressionLevel: pngCompressionLevel(opts.CompressionLevel)}
	return enc.Encode(w, img)
}

func encodeWebP(w io.Writer, img image.Image, opts EncodeOptions) error {
	return webp.Encode(w, img, webp.Options{
		Quality: clamp(opts.Quality, 0, 100),
		Method:  clamp(opts.Effort, 0, 6),
	})
}

func encodeAVIF(w io.Writer, img image.Image, opts EncodeOptions) error {
	quality := clamp(opts.Quality, 0, 100)
	return avif.Encode(w, img, avif.Options{
		Quality:           quality,
		QualityAlpha:      quality,
		Speed:             clamp(10-opts.Effort, 0, 10),
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

// flatten composites img onto an opaque white background.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// reducePalette quantises img to a palette sized by quality. No dithering is applied so the
// output is stable across runs.
func reducePalette(img image.Image, quality int) image.Image {
	colors := clamp(quality, 1, 100) * 256 / 100
	if colors < 2 {
		colors = 2
	}
	opaque := true
	if o, ok := img.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}
	q := quantize.MedianCutQuantizer{AddTransparent: !opaque}
	palette := q.Quantize(make(color.Palette, 0, colors), img)

	b := img.Bounds()
	paletted := image.NewPaletted(b, palette)
	draw.Draw(paletted, b, img, b.Min, draw.Src)
	return paletted
}

func pngCompressionLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.DefaultCompression
	case level >= 9:
		return png.BestCompression
	case level <= 3:
		return png.BestSpeed
	}
	return png.DefaultCompression
}

// resize applies a resize request to img.
func resize(img image.Image, r *Resize, format Format) image.Image {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return img
	}
	if r.Fit == FitContain {
		fitted := imaging.Fit(img, r.Width, r.Height, imaging.Lanczos)
		bg := color.Color(color.Transparent)
		if format == FormatJPEG {
			bg = color.White
		}
		return imaging.PasteCenter(imaging.New(r.Width, r.Height, bg), fitted)
	}
	return imaging.Fill(img, r.Width, r.Height, imaging.Center, imaging.Lanczos)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
