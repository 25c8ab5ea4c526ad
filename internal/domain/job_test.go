package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		SourceType: SourceTypeS3Presigned,
		Preset:     json.RawMessage(`"thumbnails"`),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	invalid := CreateJobRequest{}
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingObjectKey := CreateJobRequest{
		SourceType: SourceTypeLocalFile,
	}
	if err := missingObjectKey.Validate(); err == nil {
		t.Fatal("expected validation error for local_file object_key")
	}

	unsupportedSourceType := CreateJobRequest{
		SourceType: "http_url",
		ObjectKey:  "input.png",
	}
	if err := unsupportedSourceType.Validate(); err == nil {
		t.Fatal("expected validation error for unsupported source_type")
	}

	badSelector := CreateJobRequest{
		SourceType: SourceTypeS3Presigned,
		Preset:     json.RawMessage(`42`),
		ObjectKey:  "input.png",
	}
	if err := badSelector.Validate(); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected ErrInvalidSelector, got %v", err)
	}
}

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector(nil, nil)
	if err != nil {
		t.Fatalf("parse empty selector: %v", err)
	}
	if sel.Kind != SelectAll {
		t.Fatalf("expected SelectAll, got %d", sel.Kind)
	}

	sel, err = ParseSelector(json.RawMessage(`"thumbs"`), nil)
	if err != nil {
		t.Fatalf("parse name selector: %v", err)
	}
	if sel.Kind != SelectOne || sel.Name != "thumbs" {
		t.Fatalf("expected SelectOne thumbs, got kind=%d name=%q", sel.Kind, sel.Name)
	}

	sel, err = ParseSelector(nil, []string{"a", "b"})
	if err != nil {
		t.Fatalf("parse list selector: %v", err)
	}
	if sel.Kind != SelectMany || len(sel.Names) != 2 {
		t.Fatalf("expected SelectMany with 2 names, got kind=%d names=%v", sel.Kind, sel.Names)
	}

	sel, err = ParseSelector(json.RawMessage(`{"format": ["webp", "jpeg"], "density": [1, 2]}`), nil)
	if err != nil {
		t.Fatalf("parse inline selector: %v", err)
	}
	if sel.Kind != SelectInline {
		t.Fatalf("expected SelectInline, got %d", sel.Kind)
	}
	if got := len(sel.Inline.Options); got != 2 {
		t.Fatalf("expected 2 inline options, got %d", got)
	}
	if sel.Inline.Options[0].Key != "format" || sel.Inline.Options[1].Key != "density" {
		t.Fatalf("inline option order not preserved: %+v", sel.Inline.Options)
	}

	if _, err := ParseSelector(json.RawMessage(`true`), nil); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected ErrInvalidSelector for boolean, got %v", err)
	}
	if _, err := ParseSelector(json.RawMessage(`"x"`), []string{"y"}); !errors.Is(err, ErrInvalidSelector) {
		t.Fatalf("expected ErrInvalidSelector for both fields set, got %v", err)
	}
}

func TestSelectorJSONRoundTrip(t *testing.T) {
	var inline Preset
	inline.Set("format", List{Items: []any{"webp", "png"}})
	inline.Set("inline", Literal{V: true})

	for _, sel := range []Selector{
		AllPresets(),
		OnePreset("thumbs"),
		ManyPresets([]string{"thumbs", "heroes"}),
		InlinePreset(inline),
	} {
		data, err := json.Marshal(sel)
		if err != nil {
			t.Fatalf("marshal selector kind=%d: %v", sel.Kind, err)
		}
		var back Selector
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal selector kind=%d: %v", sel.Kind, err)
		}
		if back.Kind != sel.Kind {
			t.Fatalf("round trip changed kind: got %d want %d", back.Kind, sel.Kind)
		}
	}
}

func TestPresetYAMLPreservesOrder(t *testing.T) {
	src := `
format: [webp, jpeg]
density: [1, 2]
quality: 80
mode: cover
`
	var p Preset
	if err := yaml.Unmarshal([]byte(src), &p); err != nil {
		t.Fatalf("unmarshal preset: %v", err)
	}

	wantKeys := []string{"format", "density", "quality", "mode"}
	if len(p.Options) != len(wantKeys) {
		t.Fatalf("expected %d options, got %d", len(wantKeys), len(p.Options))
	}
	for i, key := range wantKeys {
		if p.Options[i].Key != key {
			t.Fatalf("option %d: expected key %q, got %q", i, key, p.Options[i].Key)
		}
	}

	formats, ok := p.Options[0].Value.(List)
	if !ok {
		t.Fatalf("expected format to decode as List, got %T", p.Options[0].Value)
	}
	if len(formats.Items) != 2 || formats.Items[0] != "webp" {
		t.Fatalf("unexpected format items: %v", formats.Items)
	}

	quality, ok := p.Options[2].Value.(Literal)
	if !ok {
		t.Fatalf("expected quality to decode as Literal, got %T", p.Options[2].Value)
	}
	if quality.V != 80 {
		t.Fatalf("expected quality 80, got %v", quality.V)
	}
}

func TestPresetMergeOverrides(t *testing.T) {
	var base Preset
	base.Set("format", Literal{V: "png"})
	base.Set("width", Literal{V: 100})

	var overrides Preset
	overrides.Set("width", Literal{V: 200})
	overrides.Set("blur", Literal{V: 2})

	merged := base.Merge(overrides)
	if len(merged.Options) != 3 {
		t.Fatalf("expected 3 merged options, got %d", len(merged.Options))
	}
	if merged.Options[1].Key != "width" || merged.Options[1].Value.(Literal).V != 200 {
		t.Fatalf("expected width override in place, got %+v", merged.Options[1])
	}
	if merged.Options[2].Key != "blur" {
		t.Fatalf("expected blur appended, got %+v", merged.Options[2])
	}

	if v, _ := base.Lookup("width"); v.(Literal).V != 100 {
		t.Fatal("merge must not mutate the base preset")
	}
}
