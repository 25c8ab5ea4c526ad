package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pixelsmith/imageset/internal/domain"
)

const TypeGenerateVariants = "image:generate_variants"

type GenerateVariantsPayload struct {
	JobID       string          `json:"job_id"`
	SourceType  string          `json:"source_type"`
	WebhookURL  string          `json:"webhook_url,omitempty"`
	ObjectKey   string          `json:"object_key"`
	Selector    domain.Selector `json:"selector"`
	Overrides   domain.Preset   `json:"overrides,omitempty"`
	RequestedAt time.Time       `json:"requested_at"`
}

func NewGenerateVariantsTask(payload GenerateVariantsPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generate payload: %w", err)
	}
	return asynq.NewTask(TypeGenerateVariants, body), nil
}

func ParseGenerateVariantsPayload(task *asynq.Task) (GenerateVariantsPayload, error) {
	var payload GenerateVariantsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GenerateVariantsPayload{}, fmt.Errorf("unmarshal generate payload: %w", err)
	}
	return payload, nil
}
