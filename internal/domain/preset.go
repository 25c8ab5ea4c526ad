package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Option keys with defined pipeline semantics. Any other key passes
// through into combinations and the generated records unchanged.
const (
	OptionFormat  = "format"
	OptionWidth   = "width"
	OptionHeight  = "height"
	OptionDensity = "density"
	OptionBlur    = "blur"
	OptionMode    = "mode"
	OptionQuality = "quality"
	OptionInline  = "inline"
	OptionName    = "name"
)

// Fit modes for the mode option. Anything else falls back to
// crop-to-center.
const (
	ModeCover   = "cover"
	ModeContain = "contain"
)

// Value is a declared preset option value before normalization:
// a single literal, a list of literals declaring multiplicity, or a
// derived value computed from the source image's metadata.
type Value interface {
	isValue()
}

type Literal struct {
	V any
}

type List struct {
	Items []any
}

// Derived resolves against image metadata during normalization. It may
// return a Literal or a List; returning another Derived is an error.
type Derived struct {
	Resolve func(meta ImageMeta) Value
}

func (Literal) isValue() {}
func (List) isValue()    {}
func (Derived) isValue() {}

// Option is one declared preset entry. Declaration order is semantic:
// it fixes the enumeration order of generated combinations.
type Option struct {
	Key   string
	Value Value
}

// Preset is an ordered set of declared options.
type Preset struct {
	Options []Option
}

func (p Preset) Lookup(key string) (Value, bool) {
	for _, opt := range p.Options {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return nil, false
}

func (p Preset) Len() int {
	return len(p.Options)
}

// Set replaces an existing option in place or appends a new one,
// preserving declaration order for all untouched keys.
func (p *Preset) Set(key string, v Value) {
	for i, opt := range p.Options {
		if opt.Key == key {
			p.Options[i].Value = v
			return
		}
	}
	p.Options = append(p.Options, Option{Key: key, Value: v})
}

// Merge returns a copy of p with every option from overrides applied
// on top, override values winning per key.
func (p Preset) Merge(overrides Preset) Preset {
	merged := Preset{Options: make([]Option, len(p.Options))}
	copy(merged.Options, p.Options)
	for _, opt := range overrides.Options {
		merged.Set(opt.Key, opt.Value)
	}
	return merged
}

// UnmarshalYAML decodes a preset from a YAML mapping, preserving the
// mapping's declaration order. Scalars become Literal values, sequences
// become List values.
func (p *Preset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("preset must be a mapping, got %s", yamlKindName(node.Kind))
	}

	p.Options = p.Options[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("decode preset key: %w", err)
		}

		value, err := yamlToValue(valNode)
		if err != nil {
			return fmt.Errorf("decode preset option %q: %w", key, err)
		}
		p.Options = append(p.Options, Option{Key: key, Value: value})
	}
	return nil
}

func yamlToValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return Literal{V: v}, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			var v any
			if err := item.Decode(&v); err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return List{Items: items}, nil
	default:
		return nil, fmt.Errorf("option value must be a scalar or sequence, got %s", yamlKindName(node.Kind))
	}
}

func yamlKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// UnmarshalJSON decodes a preset from a JSON object, preserving key
// order by walking the document token stream instead of going through
// an unordered map.
func (p *Preset) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode preset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("preset must be a JSON object")
	}

	p.Options = p.Options[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode preset key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("preset key must be a string")
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode preset option %q: %w", key, err)
		}
		value, err := jsonToValue(raw)
		if err != nil {
			return fmt.Errorf("decode preset option %q: %w", key, err)
		}
		p.Options = append(p.Options, Option{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode preset: %w", err)
	}
	return nil
}

func jsonToValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			converted, err := jsonScalar(item)
			if err != nil {
				return nil, err
			}
			items = append(items, converted)
		}
		return List{Items: items}, nil
	default:
		converted, err := jsonScalar(raw)
		if err != nil {
			return nil, err
		}
		return Literal{V: converted}, nil
	}
}

func jsonScalar(raw any) (any, error) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v.String())
		}
		return f, nil
	case map[string]any:
		return nil, errors.New("nested objects are not valid option values")
	default:
		return v, nil
	}
}

// MarshalJSON renders the preset as a JSON object in declaration order.
// Derived options cannot be marshaled; they only exist for presets
// registered programmatically.
func (p Preset) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, opt := range p.Options {
		if i > 0 {
			b.WriteByte(',')
		}
		keyJSON, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		b.Write(keyJSON)
		b.WriteByte(':')

		var raw any
		switch v := opt.Value.(type) {
		case Literal:
			raw = v.V
		case List:
			raw = v.Items
		case Derived:
			return nil, fmt.Errorf("option %q: derived values cannot be marshaled", opt.Key)
		default:
			return nil, fmt.Errorf("option %q: unsupported value type %T", opt.Key, opt.Value)
		}
		valJSON, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", opt.Key, err)
		}
		b.Write(valJSON)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Table is the globally declared preset table. Declaration order is
// preserved so that an all-presets invocation enumerates presets in a
// stable order.
type Table struct {
	names   []string
	presets map[string]Preset
}

func (t *Table) Add(name string, p Preset) {
	if t.presets == nil {
		t.presets = make(map[string]Preset)
	}
	if _, exists := t.presets[name]; !exists {
		t.names = append(t.names, name)
	}
	t.presets[name] = p
}

func (t Table) Get(name string) (Preset, bool) {
	p, ok := t.presets[name]
	return p, ok
}

func (t Table) Names() []string {
	return t.names
}

func (t Table) Len() int {
	return len(t.names)
}

func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("presets must be a mapping, got %s", yamlKindName(node.Kind))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("decode preset name: %w", err)
		}

		var p Preset
		if err := node.Content[i+1].Decode(&p); err != nil {
			return fmt.Errorf("decode preset %q: %w", name, err)
		}
		t.Add(name, p)
	}
	return nil
}
