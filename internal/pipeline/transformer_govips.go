//go:build govips && cgo

package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/pixelsmith/imageset/internal/domain"
)

type govipsEngine struct{}

func (govipsEngine) Decode(data []byte) (Image, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	if ref.Width() <= 0 || ref.Height() <= 0 {
		ref.Close()
		return nil, errors.New("source image has invalid dimensions")
	}
	return &govipsImage{ref: ref, srcFormat: formatForImageType(ref.Format())}, nil
}

type govipsImage struct {
	ref       *vips.ImageRef
	srcFormat string
	target    *Box
	fit       fitMode
	format    string
}

func (g *govipsImage) Meta() domain.ImageMeta {
	return domain.ImageMeta{Width: g.ref.Width(), Height: g.ref.Height(), Density: 1}
}

func (g *govipsImage) Blur(sigma float64) error {
	if sigma <= 0 {
		return fmt.Errorf("blur requires sigma > 0, got %v", sigma)
	}
	if err := g.ref.GaussianBlur(sigma); err != nil {
		return fmt.Errorf("gaussian blur: %w", err)
	}
	return nil
}

func (g *govipsImage) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("resize requires non-negative dimensions, got %dx%d", width, height)
	}
	if width == 0 && height == 0 {
		return errors.New("resize requires at least one target dimension")
	}
	g.target = &Box{Width: width, Height: height}
	return nil
}

func (g *govipsImage) Max() error {
	g.fit = fitMax
	return nil
}

func (g *govipsImage) Min() error {
	g.fit = fitMin
	return nil
}

func (g *govipsImage) Crop(gravity string) error {
	if gravity != defaultGravity {
		return fmt.Errorf("unsupported crop gravity: %s", gravity)
	}
	g.fit = fitCrop
	return nil
}

func (g *govipsImage) ToFormat(format string) error {
	normalized, err := normalizeOutputFormat(format)
	if err != nil {
		return err
	}
	g.format = normalized
	return nil
}

func (g *govipsImage) Close() {
	g.ref.Close()
}

func (g *govipsImage) Encode(quality int) ([]byte, domain.VariantMeta, error) {
	if g.target != nil {
		if err := g.realizeFit(); err != nil {
			return nil, domain.VariantMeta{}, err
		}
	}

	format := g.format
	if format == "" {
		format = g.srcFormat
	}

	data, err := exportImage(g.ref, format, quality)
	if err != nil {
		return nil, domain.VariantMeta{}, err
	}
	return data, domain.VariantMeta{Format: format, Width: g.ref.Width(), Height: g.ref.Height()}, nil
}

func (g *govipsImage) realizeFit() error {
	w, h := g.ref.Width(), g.ref.Height()
	tw, th, err := resolveTarget(*g.target, w, h)
	if err != nil {
		return err
	}

	switch g.fit {
	case fitMax:
		scale := math.Min(float64(tw)/float64(w), float64(th)/float64(h))
		if err := g.ref.Resize(scale, vips.KernelLanczos3); err != nil {
			return fmt.Errorf("resize image: %w", err)
		}
	case fitMin, fitCrop:
		scale := math.Max(float64(tw)/float64(w), float64(th)/float64(h))
		if err := g.ref.Resize(scale, vips.KernelLanczos3); err != nil {
			return fmt.Errorf("resize image: %w", err)
		}
		if g.ref.Width() > tw || g.ref.Height() > th {
			x := (g.ref.Width() - tw) / 2
			y := (g.ref.Height() - th) / 2
			if err := g.ref.ExtractArea(x, y, tw, th); err != nil {
				return fmt.Errorf("crop image: %w", err)
			}
		}
	default:
		if err := g.ref.ResizeWithVScale(
			float64(tw)/float64(w),
			float64(th)/float64(h),
			vips.KernelLanczos3,
		); err != nil {
			return fmt.Errorf("resize image: %w", err)
		}
	}
	return nil
}

func formatForImageType(t vips.ImageType) string {
	switch t {
	case vips.ImageTypeJPEG:
		return "jpeg"
	case vips.ImageTypeWEBP:
		return "webp"
	default:
		return "png"
	}
}

func exportImage(ref *vips.ImageRef, format string, quality int) ([]byte, error) {
	switch format {
	case "jpeg":
		params := vips.NewJpegExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := ref.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case "png":
		params := vips.NewPngExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := ref.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case "webp":
		params := vips.NewWebpExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := ref.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
