package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSelector marks a selector that is structurally wrong (a
// usage error), as opposed to a well-formed selector naming an unknown
// preset (a configuration error).
var ErrInvalidSelector = errors.New("invalid preset selector")

type SelectorKind int

const (
	// SelectAll expands every preset in the declared table, or a single
	// pass-through preset when the table is empty.
	SelectAll SelectorKind = iota
	SelectOne
	SelectMany
	SelectInline
)

// Selector picks which presets an invocation expands. It is an explicit
// tagged union; exactly the fields implied by Kind are meaningful.
type Selector struct {
	Kind   SelectorKind
	Name   string
	Names  []string
	Inline Preset
}

func AllPresets() Selector {
	return Selector{Kind: SelectAll}
}

func OnePreset(name string) Selector {
	return Selector{Kind: SelectOne, Name: name}
}

func ManyPresets(names []string) Selector {
	return Selector{Kind: SelectMany, Names: names}
}

func InlinePreset(p Preset) Selector {
	return Selector{Kind: SelectInline, Inline: p}
}

func (k SelectorKind) String() string {
	switch k {
	case SelectAll:
		return "all"
	case SelectOne:
		return "one"
	case SelectMany:
		return "many"
	case SelectInline:
		return "inline"
	default:
		return "unknown"
	}
}

type selectorJSON struct {
	Kind   string          `json:"kind"`
	Name   string          `json:"name,omitempty"`
	Names  []string        `json:"names,omitempty"`
	Inline json.RawMessage `json:"inline,omitempty"`
}

func (s Selector) MarshalJSON() ([]byte, error) {
	out := selectorJSON{Name: s.Name, Names: s.Names}
	switch s.Kind {
	case SelectAll:
		out.Kind = "all"
	case SelectOne:
		out.Kind = "one"
	case SelectMany:
		out.Kind = "many"
	case SelectInline:
		out.Kind = "inline"
		inline, err := json.Marshal(s.Inline)
		if err != nil {
			return nil, fmt.Errorf("marshal inline preset: %w", err)
		}
		out.Inline = inline
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidSelector, s.Kind)
	}
	return json.Marshal(out)
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw selectorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal selector: %w", err)
	}

	switch raw.Kind {
	case "all":
		*s = AllPresets()
	case "one":
		*s = OnePreset(raw.Name)
	case "many":
		*s = ManyPresets(raw.Names)
	case "inline":
		var p Preset
		if err := json.Unmarshal(raw.Inline, &p); err != nil {
			return fmt.Errorf("unmarshal inline preset: %w", err)
		}
		*s = InlinePreset(p)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSelector, raw.Kind)
	}
	return nil
}

// ParseSelector resolves the duck-typed request surface into the
// explicit union: a JSON string selects one named preset, a JSON object
// is an anonymous inline preset, a list of names comes in through the
// separate presets field, and absence of both selects all presets.
func ParseSelector(preset json.RawMessage, presets []string) (Selector, error) {
	hasPreset := len(bytes.TrimSpace(preset)) > 0
	if hasPreset && len(presets) > 0 {
		return Selector{}, fmt.Errorf("%w: preset and presets are mutually exclusive", ErrInvalidSelector)
	}
	if len(presets) > 0 {
		return ManyPresets(presets), nil
	}
	if !hasPreset {
		return AllPresets(), nil
	}

	trimmed := bytes.TrimSpace(preset)
	switch trimmed[0] {
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return Selector{}, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return OnePreset(name), nil
	case '{':
		var p Preset
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return Selector{}, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return InlinePreset(p), nil
	default:
		return Selector{}, fmt.Errorf("%w: preset must be a name or an object", ErrInvalidSelector)
	}
}
