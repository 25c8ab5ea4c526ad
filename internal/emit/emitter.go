package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pixelsmith/imageset/internal/storage"
)

// Emitter is the file-emission sink for non-inline variants. Emission
// is keyed by computed name within a group; two variants computing the
// same name overwrite rather than conflict.
type Emitter interface {
	Emit(ctx context.Context, group, name string, data []byte, contentType string) (string, error)
}

// DirEmitter writes variants under a local output directory, one
// subdirectory per group.
type DirEmitter struct {
	Dir string
}

func (e DirEmitter) Emit(ctx context.Context, group, name string, data []byte, _ string) (string, error) {
	if strings.TrimSpace(e.Dir) == "" {
		return "", errors.New("output directory is required")
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("output name is required")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	dir := e.Dir
	if group != "" {
		dir = filepath.Join(dir, sanitizePathToken(group))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write variant file: %w", err)
	}
	return fullPath, nil
}

// ObjectEmitter writes variants into the object store under
// <prefix>/<group>/<name>.
type ObjectEmitter struct {
	Storage *storage.Client
	Prefix  string
}

func (e ObjectEmitter) Emit(ctx context.Context, group, name string, data []byte, contentType string) (string, error) {
	if e.Storage == nil {
		return "", errors.New("storage client is required")
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("output name is required")
	}

	prefix := strings.TrimSpace(e.Prefix)
	if prefix == "" {
		prefix = "outputs"
	}
	objectKey := path.Join(prefix, sanitizePathToken(group), path.Base(name))

	if err := e.Storage.WriteObject(ctx, objectKey, data, contentType); err != nil {
		return "", err
	}
	return objectKey, nil
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
