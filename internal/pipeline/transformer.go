package pipeline

import (
	"fmt"
	"math"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/preset"
)

// Engine decodes source bytes into independent transform handles. Each
// combination gets its own handle, so per-combination work never shares
// mutable state.
type Engine interface {
	Decode(data []byte) (Image, error)
}

// Image is one transform handle. Operations record intent; the encoded
// result is realized by Encode. Implementations must honor the call
// order Apply establishes.
type Image interface {
	Meta() domain.ImageMeta
	Blur(sigma float64) error
	Resize(width, height int) error
	Max() error
	Min() error
	Crop(gravity string) error
	ToFormat(format string) error
	Encode(quality int) ([]byte, domain.VariantMeta, error)
	Close()
}

// Box is a resize target. A zero side is derived from the source
// aspect ratio.
type Box struct {
	Width  int
	Height int
}

// TransformSpec is the pipeline-ready operation set derived from one
// combination: at most six operations, each skipped when its governing
// key is absent.
type TransformSpec struct {
	Blur    *float64
	Resize  *Box
	Max     bool
	Min     bool
	Crop    string
	Format  string
	Quality int
}

const defaultGravity = "center"

// BuildSpec derives the operation set for one combination. density
// overrides width/height: the resize target scales the intrinsic
// dimensions by requestedDensity / max(declared densities), keeping
// visual size constant across density variants of one asset.
func BuildSpec(combo preset.Combination, meta domain.ImageMeta, declared preset.Normalized) (TransformSpec, error) {
	var spec TransformSpec

	if v, ok := combo.Get(domain.OptionFormat); ok {
		format, ok := preset.AsString(v)
		if !ok {
			return TransformSpec{}, fmt.Errorf("format option must be a string, got %T", v)
		}
		normalized, err := normalizeOutputFormat(format)
		if err != nil {
			return TransformSpec{}, err
		}
		spec.Format = normalized
	}

	width, hasWidth := intOption(combo, domain.OptionWidth)
	height, hasHeight := intOption(combo, domain.OptionHeight)
	if hasWidth || hasHeight {
		spec.Resize = &Box{Width: width, Height: height}
	}

	if v, ok := combo.Get(domain.OptionDensity); ok {
		density, ok := preset.AsFloat(v)
		if !ok || density <= 0 {
			return TransformSpec{}, fmt.Errorf("density option must be a positive number, got %v", v)
		}
		scale := density / maxDeclaredDensity(declared, meta)
		spec.Resize = &Box{
			Width:  int(math.Round(float64(meta.Width) * scale)),
			Height: int(math.Round(float64(meta.Height) * scale)),
		}
	}

	mode := ""
	if v, ok := combo.Get(domain.OptionMode); ok {
		mode, _ = preset.AsString(v)
	}
	switch mode {
	case domain.ModeContain:
		spec.Max = true
	case domain.ModeCover:
		spec.Min = true
	default:
		spec.Crop = defaultGravity
	}

	if v, ok := combo.Get(domain.OptionBlur); ok {
		sigma, ok := preset.AsFloat(v)
		if !ok {
			return TransformSpec{}, fmt.Errorf("blur option must be numeric, got %T", v)
		}
		spec.Blur = &sigma
	}

	if v, ok := combo.Get(domain.OptionQuality); ok {
		quality, ok := preset.AsInt(v)
		if !ok {
			return TransformSpec{}, fmt.Errorf("quality option must be numeric, got %T", v)
		}
		spec.Quality = quality
	}

	return spec, nil
}

// maxDeclaredDensity is the baseline for density-relative resizing: the
// largest density the preset declares, falling back to the source's
// intrinsic density.
func maxDeclaredDensity(declared preset.Normalized, meta domain.ImageMeta) float64 {
	maxDensity := 0.0
	if values, ok := declared.Lookup(domain.OptionDensity); ok {
		for _, v := range values {
			if f, ok := preset.AsFloat(v); ok && f > maxDensity {
				maxDensity = f
			}
		}
	}
	if maxDensity <= 0 {
		maxDensity = meta.Density
	}
	if maxDensity <= 0 {
		maxDensity = 1
	}
	return maxDensity
}

// Apply runs the enabled operations in the fixed order blur, resize,
// max-constrain, min-constrain, crop, format. The order is a contract:
// blurring before resizing and cropping after fit-mode sizing are
// visually distinct from any other arrangement.
func Apply(img Image, spec TransformSpec) error {
	if spec.Blur != nil {
		if err := img.Blur(*spec.Blur); err != nil {
			return fmt.Errorf("blur: %w", err)
		}
	}
	if spec.Resize != nil {
		if err := img.Resize(spec.Resize.Width, spec.Resize.Height); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}
	if spec.Max {
		if err := img.Max(); err != nil {
			return fmt.Errorf("max-constrain: %w", err)
		}
	}
	if spec.Min {
		if err := img.Min(); err != nil {
			return fmt.Errorf("min-constrain: %w", err)
		}
	}
	if spec.Crop != "" {
		if err := img.Crop(spec.Crop); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}
	if spec.Format != "" {
		if err := img.ToFormat(spec.Format); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	return nil
}

func intOption(combo preset.Combination, key string) (int, bool) {
	v, ok := combo.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := preset.AsInt(v)
	return i, ok
}

func normalizeOutputFormat(format string) (string, error) {
	switch format {
	case "jpg":
		return "jpeg", nil
	case "jpeg", "png", "webp":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", format)
	}
}

// canonicalSourceFormat folds decoder aliases without rejecting anything;
// formats we cannot encode are reported at encode time instead.
func canonicalSourceFormat(format string) string {
	if format == "jpg" {
		return "jpeg"
	}
	return format
}
