package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixelsmith/imageset/internal/domain"
)

func TestMemoryJobStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	job := domain.Job{
		ID:         "job-1",
		UserID:     "user-1",
		Status:     domain.JobStatusCreated,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  "photo.png",
		Selector:   domain.OnePreset("thumb"),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	got, ok, err := s.Get(ctx, "job-1")
	if err != nil || !ok {
		t.Fatalf("get job: ok=%v err=%v", ok, err)
	}
	if got.Selector.Kind != domain.SelectOne || got.Selector.Name != "thumb" {
		t.Fatalf("selector not preserved: %+v", got.Selector)
	}

	updated, err := s.UpdateStatus(ctx, "job-1", domain.JobStatusQueued)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.JobStatusQueued {
		t.Fatalf("expected status %q, got %q", domain.JobStatusQueued, updated.Status)
	}

	if _, err := s.UpdateStatus(ctx, "missing", domain.JobStatusFailed); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryJobStoreUsageLogs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryJobStore()

	if err := s.CreateUsageLog(ctx, domain.UsageLog{JobID: "job-1", VariantsProduced: 4}); err != nil {
		t.Fatalf("create usage log: %v", err)
	}

	logs := s.UsageLogs()
	if len(logs) != 1 || logs[0].VariantsProduced != 4 {
		t.Fatalf("unexpected usage logs: %+v", logs)
	}
}
