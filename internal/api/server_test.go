package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/queue"
	"github.com/pixelsmith/imageset/internal/store"
)

func TestExtractJobIDFromStartPath(t *testing.T) {
	jobID, err := extractJobIDFromStartPath("/v1/jobs/abc123/start")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if jobID != "abc123" {
		t.Fatalf("expected abc123, got %s", jobID)
	}

	if _, err := extractJobIDFromStartPath("/v1/jobs/abc123"); err == nil {
		t.Fatal("expected error for invalid path")
	}
}

type fakeEnqueuer struct {
	payload queue.GenerateVariantsPayload
	called  bool
}

func (f *fakeEnqueuer) EnqueueGenerateVariants(_ context.Context, payload queue.GenerateVariantsPayload) (*asynq.TaskInfo, error) {
	f.called = true
	f.payload = payload
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", State: asynq.TaskStatePending}, nil
}

func newTestServer(t *testing.T) (*Server, *store.MemoryJobStore, *fakeEnqueuer) {
	t.Helper()
	jobStore := store.NewMemoryJobStore()
	enqueuer := &fakeEnqueuer{}
	s := NewServer(log.New(io.Discard, "", 0), enqueuer, jobStore, nil, 0)
	return s, jobStore, enqueuer
}

func TestCreateJobResolvesSelectorFromPresetName(t *testing.T) {
	s, jobStore, _ := newTestServer(t)

	body := `{"source_type":"local_file","object_key":"photo.png","preset":"thumb"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID    string `json:"job_id"`
		Selector string `json:"selector"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Selector != "one" {
		t.Fatalf("expected selector=one, got %q", resp.Selector)
	}

	job, ok, err := jobStore.Get(context.Background(), resp.JobID)
	if err != nil || !ok {
		t.Fatalf("stored job lookup: ok=%v err=%v", ok, err)
	}
	if job.Selector.Kind != domain.SelectOne || job.Selector.Name != "thumb" {
		t.Fatalf("stored selector wrong: %+v", job.Selector)
	}
}

func TestCreateJobRejectsPresetAndPresetsTogether(t *testing.T) {
	s, _, _ := newTestServer(t)

	body := `{"source_type":"local_file","object_key":"photo.png","preset":"thumb","presets":["hero"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateJobAcceptsInlinePresetObject(t *testing.T) {
	s, jobStore, _ := newTestServer(t)

	body := `{"source_type":"local_file","object_key":"photo.png","preset":{"format":["webp","jpeg"],"width":320}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	job, _, _ := jobStore.Get(context.Background(), resp.JobID)
	if job.Selector.Kind != domain.SelectInline || job.Selector.Inline.Len() != 2 {
		t.Fatalf("inline selector wrong: %+v", job.Selector)
	}
	if job.Selector.Inline.Options[0].Key != "format" {
		t.Fatalf("inline option order not preserved: %+v", job.Selector.Inline.Options)
	}
}

func TestStartJobEnqueuesSelectorPayload(t *testing.T) {
	s, jobStore, enqueuer := newTestServer(t)

	dir := t.TempDir()
	source := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(source, []byte("not-a-real-png"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	body := `{"source_type":"local_file","object_key":` + jsonString(source) + `,"presets":["thumb","hero"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create: expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		JobID    string `json:"job_id"`
		StartURL string `json:"start_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	startReq := httptest.NewRequest(http.MethodPost, created.StartURL, nil)
	startRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(startRec, startReq)
	if startRec.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", startRec.Code, startRec.Body.String())
	}

	if !enqueuer.called {
		t.Fatal("expected a task to be enqueued")
	}
	if enqueuer.payload.Selector.Kind != domain.SelectMany || len(enqueuer.payload.Selector.Names) != 2 {
		t.Fatalf("enqueued selector wrong: %+v", enqueuer.payload.Selector)
	}

	job, _, _ := jobStore.Get(context.Background(), created.JobID)
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("expected status queued, got %s", job.Status)
	}
}

func TestStartJobMissingSourceConflicts(t *testing.T) {
	s, jobStore, _ := newTestServer(t)

	if err := jobStore.Create(context.Background(), domain.Job{
		ID:         "job-missing",
		Status:     domain.JobStatusCreated,
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  "/nonexistent/photo.png",
		Selector:   domain.AllPresets(),
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/job-missing/start", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
