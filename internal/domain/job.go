package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"
)

// CreateJobRequest is the API surface for declaring one variant
// generation job. The preset field is duck-typed on the wire (a name or
// an inline preset object); ResolveSelector lifts it into the explicit
// Selector union.
type CreateJobRequest struct {
	SourceType string          `json:"source_type"`
	WebhookURL string          `json:"webhook_url,omitempty"`
	ObjectKey  string          `json:"object_key,omitempty"`
	Preset     json.RawMessage `json:"preset,omitempty"`
	Presets    []string        `json:"presets,omitempty"`
	Overrides  Preset          `json:"overrides,omitempty"`
}

func (r CreateJobRequest) ResolveSelector() (Selector, error) {
	return ParseSelector(r.Preset, r.Presets)
}

type Job struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	ObjectKey  string
	Selector   Selector
	Overrides  Preset
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateJobRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if _, err := r.ResolveSelector(); err != nil {
		return err
	}
	for i, name := range r.Presets {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("presets[%d] must not be empty", i)
		}
	}
	return nil
}
