// Package pipeline expands presets into concrete variant combinations
// and drives the transform, naming, and delivery of every combination
// for one source image.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pixelsmith/imageset/internal/codegen"
	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/emit"
	"github.com/pixelsmith/imageset/internal/preset"
)

const SourceTypeLocalFile = "local_file"

// DefaultPublicPathVar is the runtime binding non-inline asset URLs
// concatenate against in the generated module.
const DefaultPublicPathVar = "__webpack_public_path__"

var (
	ErrUnsupportedSourceType = errors.New("unsupported source_type")
	ErrPresetNotFound        = errors.New("preset not found")
)

// Request is one generation invocation: a source image plus the preset
// selection and invocation-level overrides.
type Request struct {
	JobID      string
	SourceType string
	ObjectKey  string
	Selector   domain.Selector
	Overrides  domain.Preset
}

// Options carries the invocation-independent project configuration.
type Options struct {
	Presets       domain.Table
	NameTemplate  string
	PublicPathVar string
	ExportExpr    string
}

func (o Options) publicPathVar() string {
	if strings.TrimSpace(o.PublicPathVar) == "" {
		return DefaultPublicPathVar
	}
	return o.PublicPathVar
}

// Asset describes one produced variant and its delivery.
type Asset struct {
	Preset      string
	Name        string
	Path        string
	ContentType string
	Inline      bool
	Bytes       int
	Meta        domain.VariantMeta
	Record      codegen.Object
}

type Result struct {
	Assets      []Asset
	Module      string
	SourceBytes int
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Processor struct {
	fetcher Fetcher
	engine  Engine
	emitter emit.Emitter
	opts    Options
}

func NewProcessor(fetcher Fetcher, emitter emit.Emitter, opts Options) (*Processor, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if emitter == nil {
		return nil, errors.New("emitter is required")
	}

	engine, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("build transform engine: %w", err)
	}

	return &Processor{
		fetcher: fetcher,
		engine:  engine,
		emitter: emitter,
		opts:    opts,
	}, nil
}

func NewLocalProcessor(outputDir string, opts Options) (*Processor, error) {
	return NewProcessor(LocalFileFetcher{}, emit.DirEmitter{Dir: outputDir}, opts)
}

// Process runs the full invocation: fetch, expand every selected
// preset, transform each combination concurrently, and assemble the
// generated module. Any single combination failure fails the whole
// invocation; there is no partial delivery.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	data, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	probe, err := p.engine.Decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("probe stage: %w", err)
	}
	meta := probe.Meta()
	probe.Close()

	selected, err := resolvePresets(req.Selector, req.Overrides, p.opts.Presets)
	if err != nil {
		return Result{}, err
	}

	type unit struct {
		presetName string
		combo      preset.Combination
		declared   preset.Normalized
	}
	var units []unit
	for _, sp := range selected {
		normalized, err := preset.Normalize(sp.preset, meta)
		if err != nil {
			return Result{}, fmt.Errorf("normalize preset %q: %w", sp.name, err)
		}
		for _, combo := range preset.Expand(normalized) {
			units = append(units, unit{presetName: sp.name, combo: combo, declared: normalized})
		}
	}

	// Combinations are independent; fan out and join. Results land in
	// pre-allocated slots so the output order stays deterministic
	// regardless of completion order.
	assets := make([]Asset, len(units))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range units {
		g.Go(func() error {
			asset, err := p.runCombination(gctx, data, meta, req, u.presetName, u.combo, u.declared)
			if err != nil {
				return fmt.Errorf("preset %q combination %d: %w", u.presetName, i, err)
			}
			assets[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	records := make([]codegen.Object, len(assets))
	for i := range assets {
		records[i] = assets[i].Record
	}

	return Result{
		Assets:      assets,
		Module:      codegen.ModuleText(p.opts.ExportExpr, records),
		SourceBytes: len(data),
	}, nil
}

func (p *Processor) runCombination(
	ctx context.Context,
	data []byte,
	meta domain.ImageMeta,
	req Request,
	presetName string,
	combo preset.Combination,
	declared preset.Normalized,
) (Asset, error) {
	select {
	case <-ctx.Done():
		return Asset{}, ctx.Err()
	default:
	}

	spec, err := BuildSpec(combo, meta, declared)
	if err != nil {
		return Asset{}, err
	}

	img, err := p.engine.Decode(data)
	if err != nil {
		return Asset{}, err
	}
	defer img.Close()

	if err := Apply(img, spec); err != nil {
		return Asset{}, err
	}

	encoded, variantMeta, err := img.Encode(spec.Quality)
	if err != nil {
		return Asset{}, err
	}

	name := emit.ResolveName(p.nameTemplate(combo), req.ObjectKey, combo, variantMeta, encoded)
	contentType := emit.ContentType(name, variantMeta.Format)

	inline := false
	if v, ok := combo.Get(domain.OptionInline); ok {
		inline = preset.Truthy(v)
	}

	var (
		url         any
		emittedPath string
	)
	if inline {
		url = emit.DataURI(contentType, encoded)
	} else {
		emittedPath, err = p.emitter.Emit(ctx, req.JobID, name, encoded, contentType)
		if err != nil {
			return Asset{}, fmt.Errorf("emit stage: %w", err)
		}
		url = codegen.PathExpr(p.opts.publicPathVar(), name)
	}

	return Asset{
		Preset:      presetName,
		Name:        name,
		Path:        emittedPath,
		ContentType: contentType,
		Inline:      inline,
		Bytes:       len(encoded),
		Meta:        variantMeta,
		Record:      buildRecord(combo, variantMeta, contentType, presetName, name, url),
	}, nil
}

func (p *Processor) nameTemplate(combo preset.Combination) string {
	if v, ok := combo.Get(domain.OptionName); ok {
		if tpl, ok := preset.AsString(v); ok && tpl != "" {
			return tpl
		}
	}
	if strings.TrimSpace(p.opts.NameTemplate) != "" {
		return p.opts.NameTemplate
	}
	return emit.DefaultTemplate
}

// buildRecord assembles the serialized shape of one asset: the
// original combination options, then the produced metadata, then the
// bookkeeping fields. Later fields overwrite earlier keys in place, so
// each key appears exactly once.
func buildRecord(
	combo preset.Combination,
	meta domain.VariantMeta,
	contentType, presetName, name string,
	url any,
) codegen.Object {
	rec := codegen.Object{}
	for _, b := range combo.Bindings() {
		rec = rec.Set(b.Key, b.Value)
	}
	rec = rec.Set("format", meta.Format)
	rec = rec.Set("width", meta.Width)
	rec = rec.Set("height", meta.Height)
	rec = rec.Set("type", contentType)
	rec = rec.Set("preset", presetName)
	rec = rec.Set("name", name)
	rec = rec.Set("url", url)
	return rec
}

type selectedPreset struct {
	name   string
	preset domain.Preset
}

// resolvePresets maps the selector union onto concrete presets.
// Unknown names are configuration errors and fail the invocation
// immediately; a structurally invalid selector is a distinct usage
// error.
func resolvePresets(sel domain.Selector, overrides domain.Preset, table domain.Table) ([]selectedPreset, error) {
	switch sel.Kind {
	case domain.SelectAll:
		if table.Len() == 0 {
			return []selectedPreset{{preset: overrides}}, nil
		}
		out := make([]selectedPreset, 0, table.Len())
		for _, name := range table.Names() {
			p, _ := table.Get(name)
			out = append(out, selectedPreset{name: name, preset: p.Merge(overrides)})
		}
		return out, nil
	case domain.SelectOne:
		p, ok := table.Get(sel.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, sel.Name)
		}
		return []selectedPreset{{name: sel.Name, preset: p.Merge(overrides)}}, nil
	case domain.SelectMany:
		out := make([]selectedPreset, 0, len(sel.Names))
		for _, name := range sel.Names {
			p, ok := table.Get(name)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
			}
			out = append(out, selectedPreset{name: name, preset: p.Merge(overrides)})
		}
		return out, nil
	case domain.SelectInline:
		return []selectedPreset{{preset: sel.Inline.Merge(overrides)}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", domain.ErrInvalidSelector, sel.Kind)
	}
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}
