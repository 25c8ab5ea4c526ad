package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/pixelsmith/imageset/internal/domain"
)

type stdEngine struct{}

func (stdEngine) Decode(data []byte) (Image, error) {
	src, srcFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("source image has invalid dimensions")
	}
	return &stdImage{src: src, srcFormat: canonicalSourceFormat(srcFormat)}, nil
}

type fitMode int

const (
	fitExact fitMode = iota
	fitMax
	fitMin
	fitCrop
)

// stdImage records the requested operations and realizes them at
// Encode. The recording preserves the semantics of the fixed operation
// order: blur is always applied to the full-resolution source before
// any scaling.
type stdImage struct {
	src       image.Image
	srcFormat string
	blurSigma *float64
	target    *Box
	fit       fitMode
	format    string
}

func (s *stdImage) Meta() domain.ImageMeta {
	bounds := s.src.Bounds()
	return domain.ImageMeta{Width: bounds.Dx(), Height: bounds.Dy(), Density: 1}
}

func (s *stdImage) Blur(sigma float64) error {
	if sigma <= 0 {
		return fmt.Errorf("blur requires sigma > 0, got %v", sigma)
	}
	s.blurSigma = &sigma
	return nil
}

func (s *stdImage) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("resize requires non-negative dimensions, got %dx%d", width, height)
	}
	if width == 0 && height == 0 {
		return errors.New("resize requires at least one target dimension")
	}
	s.target = &Box{Width: width, Height: height}
	return nil
}

func (s *stdImage) Max() error {
	s.fit = fitMax
	return nil
}

func (s *stdImage) Min() error {
	s.fit = fitMin
	return nil
}

func (s *stdImage) Crop(gravity string) error {
	if gravity != defaultGravity {
		return fmt.Errorf("unsupported crop gravity: %s", gravity)
	}
	s.fit = fitCrop
	return nil
}

func (s *stdImage) ToFormat(format string) error {
	normalized, err := normalizeOutputFormat(format)
	if err != nil {
		return err
	}
	s.format = normalized
	return nil
}

func (s *stdImage) Close() {}

func (s *stdImage) Encode(quality int) ([]byte, domain.VariantMeta, error) {
	img := cloneRGBA(s.src)

	if s.blurSigma != nil {
		img = boxBlur(img, *s.blurSigma)
	}

	if s.target != nil {
		resized, err := s.applyFit(img)
		if err != nil {
			return nil, domain.VariantMeta{}, err
		}
		img = resized
	}

	format := s.format
	if format == "" {
		format = s.srcFormat
	}

	data, err := encodeImage(img, format, quality)
	if err != nil {
		return nil, domain.VariantMeta{}, err
	}

	bounds := img.Bounds()
	return data, domain.VariantMeta{Format: format, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func (s *stdImage) applyFit(img *image.RGBA) (*image.RGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	tw, th, err := resolveTarget(*s.target, w, h)
	if err != nil {
		return nil, err
	}

	switch s.fit {
	case fitMax:
		scale := math.Min(float64(tw)/float64(w), float64(th)/float64(h))
		return scaleTo(img, roundDim(float64(w)*scale), roundDim(float64(h)*scale)), nil
	case fitMin, fitCrop:
		scale := math.Max(float64(tw)/float64(w), float64(th)/float64(h))
		scaled := scaleTo(img, roundDim(float64(w)*scale), roundDim(float64(h)*scale))
		return centerCrop(scaled, tw, th), nil
	default:
		return scaleTo(img, tw, th), nil
	}
}

// resolveTarget fills a zero side from the source aspect ratio.
func resolveTarget(target Box, srcW, srcH int) (int, int, error) {
	tw, th := target.Width, target.Height
	if tw == 0 && th == 0 {
		return 0, 0, errors.New("resize target has no dimensions")
	}
	if tw == 0 {
		tw = roundDim(float64(srcW) * float64(th) / float64(srcH))
	}
	if th == 0 {
		th = roundDim(float64(srcH) * float64(tw) / float64(srcW))
	}
	return tw, th, nil
}

func roundDim(v float64) int {
	d := int(math.Round(v))
	if d < 1 {
		return 1
	}
	return d
}

func scaleTo(src *image.RGBA, width, height int) *image.RGBA {
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func centerCrop(src *image.RGBA, width, height int) *image.RGBA {
	bounds := src.Bounds()
	if bounds.Dx() <= width && bounds.Dy() <= height {
		return src
	}

	x0 := bounds.Min.X + (bounds.Dx()-width)/2
	y0 := bounds.Min.Y + (bounds.Dy()-height)/2
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), src, image.Point{X: x0, Y: y0}, xdraw.Src)
	return dst
}

func cloneRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Src)
	return dst
}

// boxBlur approximates a gaussian blur with three separable box
// passes, the usual cheap approximation for build-time previews.
func boxBlur(src *image.RGBA, sigma float64) *image.RGBA {
	radius := int(math.Round(sigma))
	if radius < 1 {
		return src
	}

	out := src
	for pass := 0; pass < 3; pass++ {
		out = boxBlurPass(out, radius, true)
		out = boxBlurPass(out, radius, false)
	}
	return out
}

func boxBlurPass(src *image.RGBA, radius int, horizontal bool) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	outer, inner := h, w
	if !horizontal {
		outer, inner = w, h
	}

	at := func(line, i int) (int, int) {
		if horizontal {
			return i, line
		}
		return line, i
	}

	for line := 0; line < outer; line++ {
		var sumR, sumG, sumB, sumA int
		count := 0

		push := func(i int) {
			x, y := at(line, i)
			o := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			sumR += int(src.Pix[o])
			sumG += int(src.Pix[o+1])
			sumB += int(src.Pix[o+2])
			sumA += int(src.Pix[o+3])
			count++
		}
		pop := func(i int) {
			x, y := at(line, i)
			o := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			sumR -= int(src.Pix[o])
			sumG -= int(src.Pix[o+1])
			sumB -= int(src.Pix[o+2])
			sumA -= int(src.Pix[o+3])
			count--
		}

		for i := 0; i <= radius && i < inner; i++ {
			push(i)
		}
		for i := 0; i < inner; i++ {
			x, y := at(line, i)
			o := dst.PixOffset(x, y)
			dst.Pix[o] = uint8(sumR / count)
			dst.Pix[o+1] = uint8(sumG / count)
			dst.Pix[o+2] = uint8(sumB / count)
			dst.Pix[o+3] = uint8(sumA / count)

			if next := i + radius + 1; next < inner {
				push(next)
			}
			if prev := i - radius; prev >= 0 {
				pop(prev)
			}
		}
	}
	return dst
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		return nil, errors.New("webp export requires govips build tag")
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return buf.Bytes(), nil
}
