// Package emit computes deterministic output names for produced
// variants and delivers their bytes, either inline as data URIs or
// through an emission sink.
package emit

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/preset"
)

// DefaultTemplate is the last-resort name pattern when neither the
// combination nor the project config supplies one.
const DefaultTemplate = "[name]-[hash].[ext]"

var placeholderPattern = regexp.MustCompile(`\[([a-zA-Z][a-zA-Z0-9]*)\]`)

// ResolveName interpolates every [token] placeholder in template.
// name and hash resolve from the source file name and the produced
// content; every other token resolves first from the combination's
// options, then from the produced metadata, and stays literal when
// unresolved.
func ResolveName(template, sourcePath string, combo preset.Combination, meta domain.VariantMeta, data []byte) string {
	base := filepath.Base(sourcePath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		token := match[1 : len(match)-1]
		switch token {
		case "name":
			return base
		case "hash":
			return fmt.Sprintf("%016x", xxhash.Sum64(data))
		case "ext":
			return ExtensionForFormat(meta.Format)
		}

		if v, ok := combo.Get(token); ok {
			return tokenValue(v)
		}

		switch token {
		case "format":
			return meta.Format
		case "width":
			return strconv.Itoa(meta.Width)
		case "height":
			return strconv.Itoa(meta.Height)
		}
		return match
	})
}

func tokenValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func ExtensionForFormat(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "bin"
	default:
		return format
	}
}

// ContentType resolves the content type from the computed name's
// extension, falling back to the produced format when the extension is
// unknown to the platform MIME table.
func ContentType(name, format string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// DataURI renders a self-contained inline delivery of the produced
// bytes.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
