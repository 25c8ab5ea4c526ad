// Package preset turns declared presets into concrete option
// combinations: it normalizes multi-valued declarations into uniform
// value sequences and expands them into their cartesian product.
package preset

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pixelsmith/imageset/internal/domain"
)

var ErrDerivedDepth = errors.New("derived option resolved to another derived value")

// NormalizedOption is one option key with its full ordered value
// sequence. After normalization every declared key maps to a non-empty
// sequence of concrete, coerced values.
type NormalizedOption struct {
	Key    string
	Values []any
}

// Normalized preserves the preset's key declaration order; that order
// drives combination enumeration.
type Normalized struct {
	Options []NormalizedOption
}

func (n Normalized) Lookup(key string) ([]any, bool) {
	for _, opt := range n.Options {
		if opt.Key == key {
			return opt.Values, true
		}
	}
	return nil, false
}

// Normalize resolves derived values against the source image metadata,
// wraps scalars into one-element sequences, and coerces numeric keys.
// Coercion happens here, before expansion, so every combination already
// carries typed values.
func Normalize(p domain.Preset, meta domain.ImageMeta) (Normalized, error) {
	out := Normalized{Options: make([]NormalizedOption, 0, len(p.Options))}
	for _, opt := range p.Options {
		values, err := normalizeValue(opt.Value, meta, false)
		if err != nil {
			return Normalized{}, fmt.Errorf("option %q: %w", opt.Key, err)
		}

		coerced := make([]any, 0, len(values))
		for _, v := range values {
			c, err := coerce(opt.Key, v)
			if err != nil {
				return Normalized{}, fmt.Errorf("option %q: %w", opt.Key, err)
			}
			coerced = append(coerced, c)
		}
		out.Options = append(out.Options, NormalizedOption{Key: opt.Key, Values: coerced})
	}
	return out, nil
}

func normalizeValue(v domain.Value, meta domain.ImageMeta, resolved bool) ([]any, error) {
	switch value := v.(type) {
	case domain.Literal:
		return []any{value.V}, nil
	case domain.List:
		if len(value.Items) == 0 {
			return nil, errors.New("value list must not be empty")
		}
		return value.Items, nil
	case domain.Derived:
		// One level of indirection only: a derived value may produce a
		// literal or a list, never another derived value.
		if resolved {
			return nil, ErrDerivedDepth
		}
		if value.Resolve == nil {
			return nil, errors.New("derived option has no resolver")
		}
		return normalizeValue(value.Resolve(meta), meta, true)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func coerce(key string, v any) (any, error) {
	switch key {
	case domain.OptionDensity, domain.OptionBlur:
		f, ok := AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("value %v is not numeric", v)
		}
		return f, nil
	case domain.OptionWidth, domain.OptionHeight:
		i, ok := AsInt(v)
		if !ok {
			return nil, fmt.Errorf("value %v is not numeric", v)
		}
		return i, nil
	default:
		return v, nil
	}
}

// AsFloat reads any numeric-ish value, including numeric strings.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Truthy mirrors loose boolean coercion for flag-like options such as
// inline: false, zero, and empty values are false, everything else is
// true.
func Truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b != "" && b != "false" && b != "0"
	default:
		return true
	}
}
