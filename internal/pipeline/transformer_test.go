package pipeline

import (
	"reflect"
	"testing"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/preset"
)

type recordingImage struct {
	calls []string
	meta  domain.ImageMeta
}

func (r *recordingImage) Meta() domain.ImageMeta { return r.meta }

func (r *recordingImage) Blur(float64) error {
	r.calls = append(r.calls, "blur")
	return nil
}

func (r *recordingImage) Resize(int, int) error {
	r.calls = append(r.calls, "resize")
	return nil
}

func (r *recordingImage) Max() error {
	r.calls = append(r.calls, "max")
	return nil
}

func (r *recordingImage) Min() error {
	r.calls = append(r.calls, "min")
	return nil
}

func (r *recordingImage) Crop(string) error {
	r.calls = append(r.calls, "crop")
	return nil
}

func (r *recordingImage) ToFormat(string) error {
	r.calls = append(r.calls, "format")
	return nil
}

func (r *recordingImage) Encode(int) ([]byte, domain.VariantMeta, error) {
	return nil, domain.VariantMeta{}, nil
}

func (r *recordingImage) Close() {}

func combination(bindings ...preset.Binding) preset.Combination {
	return preset.NewCombination(bindings)
}

func TestBuildSpecDensityOverridesWidthHeight(t *testing.T) {
	combo := combination(
		preset.Binding{Key: "width", Value: 10},
		preset.Binding{Key: "height", Value: 10},
		preset.Binding{Key: "density", Value: 1.0},
	)
	declared := preset.Normalized{Options: []preset.NormalizedOption{
		{Key: "density", Values: []any{1.0, 2.0}},
	}}
	meta := domain.ImageMeta{Width: 100, Height: 80, Density: 1}

	spec, err := BuildSpec(combo, meta, declared)
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}

	if spec.Resize == nil {
		t.Fatal("expected a resize target")
	}
	// scale = 1 / max(1, 2) = 0.5 against the intrinsic dimensions,
	// not the declared width/height.
	if spec.Resize.Width != 50 || spec.Resize.Height != 40 {
		t.Fatalf("expected density-derived 50x40, got %dx%d", spec.Resize.Width, spec.Resize.Height)
	}
}

func TestBuildSpecModeSelection(t *testing.T) {
	meta := domain.ImageMeta{Width: 100, Height: 100, Density: 1}

	spec, err := BuildSpec(combination(preset.Binding{Key: "mode", Value: "contain"}), meta, preset.Normalized{})
	if err != nil {
		t.Fatalf("build contain spec: %v", err)
	}
	if !spec.Max || spec.Min || spec.Crop != "" {
		t.Fatalf("contain: expected max only, got %+v", spec)
	}

	spec, err = BuildSpec(combination(preset.Binding{Key: "mode", Value: "cover"}), meta, preset.Normalized{})
	if err != nil {
		t.Fatalf("build cover spec: %v", err)
	}
	if spec.Max || !spec.Min || spec.Crop != "" {
		t.Fatalf("cover: expected min only, got %+v", spec)
	}

	spec, err = BuildSpec(combination(), meta, preset.Normalized{})
	if err != nil {
		t.Fatalf("build default spec: %v", err)
	}
	if spec.Max || spec.Min || spec.Crop != defaultGravity {
		t.Fatalf("default: expected crop-to-center, got %+v", spec)
	}
}

func TestBuildSpecMaxDeclaredDensityFallsBackToIntrinsic(t *testing.T) {
	combo := combination(preset.Binding{Key: "density", Value: 1.0})
	meta := domain.ImageMeta{Width: 100, Height: 100, Density: 2}

	spec, err := BuildSpec(combo, meta, preset.Normalized{})
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}
	if spec.Resize.Width != 50 || spec.Resize.Height != 50 {
		t.Fatalf("expected intrinsic-density scaling to 50x50, got %dx%d", spec.Resize.Width, spec.Resize.Height)
	}
}

func TestBuildSpecRejectsUnknownFormat(t *testing.T) {
	combo := combination(preset.Binding{Key: "format", Value: "wepb"})
	meta := domain.ImageMeta{Width: 100, Height: 100, Density: 1}

	if _, err := BuildSpec(combo, meta, preset.Normalized{}); err == nil {
		t.Fatal("expected an error for a misspelled format, got none")
	}
}

func TestBuildSpecAliasesJpgToJpeg(t *testing.T) {
	combo := combination(preset.Binding{Key: "format", Value: "jpg"})
	meta := domain.ImageMeta{Width: 100, Height: 100, Density: 1}

	spec, err := BuildSpec(combo, meta, preset.Normalized{})
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}
	if spec.Format != "jpeg" {
		t.Fatalf("expected jpg to normalize to jpeg, got %q", spec.Format)
	}
}

func TestCanonicalSourceFormatPassesUnknownThrough(t *testing.T) {
	if got := canonicalSourceFormat("jpg"); got != "jpeg" {
		t.Fatalf("expected jpg alias to fold to jpeg, got %q", got)
	}
	// Decodable-but-unencodable formats keep their name so the encode
	// step can report them instead of silently re-encoding as png.
	if got := canonicalSourceFormat("gif"); got != "gif" {
		t.Fatalf("expected gif to pass through, got %q", got)
	}
}

func TestApplyFixedOperationOrder(t *testing.T) {
	blur := 2.5
	spec := TransformSpec{
		Blur:   &blur,
		Resize: &Box{Width: 50, Height: 50},
		Min:    true,
		Format: "jpeg",
	}

	img := &recordingImage{}
	if err := Apply(img, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	want := []string{"blur", "resize", "min", "format"}
	if !reflect.DeepEqual(img.calls, want) {
		t.Fatalf("expected call order %v, got %v", want, img.calls)
	}
}

func TestApplySkipsAbsentOperations(t *testing.T) {
	img := &recordingImage{}
	if err := Apply(img, TransformSpec{}); err != nil {
		t.Fatalf("apply empty spec: %v", err)
	}
	if len(img.calls) != 0 {
		t.Fatalf("expected no operations, got %v", img.calls)
	}
}

func TestApplyContainMakesExactlyOneMaxAndNoCrop(t *testing.T) {
	combo := combination(
		preset.Binding{Key: "mode", Value: "contain"},
		preset.Binding{Key: "width", Value: 50},
		preset.Binding{Key: "height", Value: 50},
	)
	spec, err := BuildSpec(combo, domain.ImageMeta{Width: 200, Height: 100, Density: 1}, preset.Normalized{})
	if err != nil {
		t.Fatalf("build spec: %v", err)
	}

	img := &recordingImage{}
	if err := Apply(img, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	maxCalls, cropCalls := 0, 0
	for _, call := range img.calls {
		switch call {
		case "max":
			maxCalls++
		case "crop":
			cropCalls++
		}
	}
	if maxCalls != 1 || cropCalls != 0 {
		t.Fatalf("expected one max call and no crop calls, got %v", img.calls)
	}
}
