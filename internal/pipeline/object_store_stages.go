package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/emit"
	"github.com/pixelsmith/imageset/internal/storage"
)

const SourceTypeS3Presigned = domain.SourceTypeS3Presigned

// ObjectStoreFetcher reads the source image from the object store.
type ObjectStoreFetcher struct {
	Storage *storage.Client
}

func (f ObjectStoreFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if f.Storage == nil {
		return nil, errors.New("storage client is required")
	}
	if strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}
	return f.Storage.ReadObject(ctx, req.ObjectKey)
}

// NewObjectStoreProcessor wires a processor that both fetches sources
// from and emits variants into the object store.
func NewObjectStoreProcessor(storageClient *storage.Client, outputPrefix string, opts Options) (*Processor, error) {
	if storageClient == nil {
		return nil, errors.New("storage client is required")
	}
	return NewProcessor(
		ObjectStoreFetcher{Storage: storageClient},
		emit.ObjectEmitter{Storage: storageClient, Prefix: outputPrefix},
		opts,
	)
}
