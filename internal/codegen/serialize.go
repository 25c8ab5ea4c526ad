// Package codegen renders asset records into the generated module
// text. Values flowing through it may originate from untrusted
// filenames or image metadata, so string rendering escapes every
// character that could break out of a double-quoted literal inside
// generated source.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a fragment of already-rendered source text. The serializer
// splices it into the output verbatim instead of quoting it; it is used
// for the non-inline asset URL, which must reference the runtime
// public-path binding rather than a string literal.
type Expr string

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is an ordered mapping. The serializer renders fields exactly
// in slice order and never sorts or deduplicates keys; builders are
// responsible for key uniqueness.
type Object []Field

// Set replaces the value of an existing key in place, or appends the
// field when the key is new.
func (o Object) Set(key string, value any) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, Field{Key: key, Value: value})
}

func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// stringEscaper replaces every occurrence of each unsafe character,
// not merely the first. The angle-bracket and slash escapes keep the
// output safe to inline into HTML script contexts as well.
var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"<", `\u003C`,
	">", `\u003E`,
	"/", `\/`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// Quote renders s as a double-quoted, fully escaped string literal.
func Quote(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// Serialize renders v as source text. Supported shapes: nil, Expr,
// Object, []Object, []any, strings, booleans, and numeric primitives.
// Anything else falls back to best-effort stringification, which is
// only correct for primitive-ish types.
func Serialize(v any) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case Expr:
		b.WriteString(string(t))
	case Object:
		b.WriteByte('{')
		for i, f := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Quote(f.Key))
			b.WriteString(": ")
			writeValue(b, f.Value)
		}
		b.WriteByte('}')
	case []Object:
		b.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case []any:
		b.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(Quote(t))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(t), 'f', -1, 32))
	default:
		b.WriteString(fmt.Sprintf("%v", t))
	}
}
