package jobs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/providers"
	"github.com/abapscribe/scribe/internal/section"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testJob runs a scripted function.
type testJob struct {
	typ string
	fn  func(ctx context.Context) error
}

func (j *testJob) Type() string {
	if j.typ == "" {
		return "test"
	}
	return j.typ
}

func (j *testJob) Execute(ctx context.Context) error {
	if j.fn == nil {
		return nil
	}
	return j.fn(ctx)
}

func waitForStatus(t *testing.T, store *Store, jobID string, want Status) *Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, err := store.Get(jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if record.Status == want {
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	record, _ := store.Get(jobID)
	t.Fatalf("job %s stuck in status %s, want %s", jobID, record.Status, want)
	return nil
}

func TestContextDeps(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		logger := slog.Default()
		store := NewStore(discardLogger())
		ctx := ContextWithDeps(context.Background(), Dependencies{Logger: logger, Jobs: store})

		got := DepsFromContext(ctx)
		if got.Logger != logger {
			t.Error("logger not preserved")
		}
		if got.Jobs != store {
			t.Error("job store not preserved")
		}
	})

	t.Run("missing deps returns empty", func(t *testing.T) {
		deps := DepsFromContext(context.Background())
		if deps.Logger != nil || deps.Jobs != nil || deps.Engine != nil {
			t.Error("expected zero dependencies")
		}
	})

	t.Run("job id round trip", func(t *testing.T) {
		ctx := ContextWithJobID(context.Background(), "job-1")
		if got := JobIDFromContext(ctx); got != "job-1" {
			t.Errorf("JobIDFromContext() = %q, want job-1", got)
		}
		if got := JobIDFromContext(context.Background()); got != "" {
			t.Errorf("expected empty job id, got %q", got)
		}
	})
}

func TestNewRecord(t *testing.T) {
	metadata := map[string]any{"key": "value"}
	record := NewRecord("test", metadata)

	if record.JobType != "test" {
		t.Errorf("JobType = %s, want test", record.JobType)
	}
	if record.Status != StatusQueued {
		t.Errorf("Status = %s, want queued", record.Status)
	}
	if record.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if record.Metadata["key"] != "value" {
		t.Error("metadata not preserved")
	}
}

func TestStore(t *testing.T) {
	t.Run("create and get", func(t *testing.T) {
		store := NewStore(discardLogger())
		id := store.Create("bundle", map[string]any{"source": "api"})
		if id == "" {
			t.Fatal("expected a job id")
		}

		record, err := store.Get(id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.ID != id {
			t.Errorf("ID = %s, want %s", record.ID, id)
		}
		if record.Status != StatusQueued {
			t.Errorf("Status = %s, want queued", record.Status)
		}
		if record.Metadata["source"] != "api" {
			t.Error("metadata not preserved")
		}
	})

	t.Run("get unknown job", func(t *testing.T) {
		store := NewStore(discardLogger())
		_, err := store.Get("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("get returns an isolated copy", func(t *testing.T) {
		store := NewStore(discardLogger())
		id := store.Create("bundle", map[string]any{"k": "original"})

		record, _ := store.Get(id)
		record.Status = StatusFailed
		record.Metadata["k"] = "changed"

		fresh, _ := store.Get(id)
		if fresh.Status != StatusQueued {
			t.Error("mutating a returned record leaked into the store")
		}
		if fresh.Metadata["k"] != "original" {
			t.Error("mutating returned metadata leaked into the store")
		}
	})

	t.Run("list newest first with filters", func(t *testing.T) {
		store := NewStore(discardLogger())
		first := store.Create("bundle", nil)
		second := store.Create("other", nil)
		third := store.Create("bundle", nil)

		all := store.List(ListFilter{})
		if len(all) != 3 {
			t.Fatalf("expected 3 records, got %d", len(all))
		}
		if all[0].ID != third || all[1].ID != second || all[2].ID != first {
			t.Errorf("expected newest-first order, got %s %s %s", all[0].ID, all[1].ID, all[2].ID)
		}

		if err := store.UpdateStatus(second, StatusCompleted, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		completed := store.List(ListFilter{Status: StatusCompleted})
		if len(completed) != 1 || completed[0].ID != second {
			t.Errorf("status filter returned %d records", len(completed))
		}

		bundles := store.List(ListFilter{JobType: "bundle"})
		if len(bundles) != 2 {
			t.Errorf("job type filter returned %d records, want 2", len(bundles))
		}

		limited := store.List(ListFilter{Limit: 2})
		if len(limited) != 2 || limited[0].ID != third {
			t.Errorf("limit returned %d records", len(limited))
		}
	})

	t.Run("status transitions stamp timestamps", func(t *testing.T) {
		store := NewStore(discardLogger())
		id := store.Create("bundle", nil)

		if err := store.UpdateStatus(id, StatusRunning, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		record, _ := store.Get(id)
		if record.StartedAt == nil {
			t.Error("expected started_at after running transition")
		}
		if record.CompletedAt != nil {
			t.Error("completed_at set too early")
		}

		if err := store.UpdateStatus(id, StatusFailed, "boom"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		record, _ = store.Get(id)
		if record.CompletedAt == nil {
			t.Error("expected completed_at after terminal transition")
		}
		if record.Error != "boom" {
			t.Errorf("Error = %q, want boom", record.Error)
		}
		if !record.Status.Terminal() {
			t.Error("failed should be terminal")
		}
	})

	t.Run("updates on unknown jobs fail", func(t *testing.T) {
		store := NewStore(discardLogger())
		if err := store.UpdateStatus("nope", StatusRunning, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateStatus: expected ErrNotFound, got %v", err)
		}
		if err := store.UpdateMetadata("nope", nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateMetadata: expected ErrNotFound, got %v", err)
		}
	})
}

func newTestRunner(t *testing.T, workers, queueSize int) (*Runner, *Store) {
	t.Helper()
	store := NewStore(discardLogger())
	runner := NewRunner(RunnerConfig{
		Logger:      discardLogger(),
		Store:       store,
		WorkerCount: workers,
		QueueSize:   queueSize,
	})
	return runner, store
}

func TestRunner(t *testing.T) {
	t.Run("runs submitted jobs to completion", func(t *testing.T) {
		runner, store := newTestRunner(t, 2, 10)
		runner.Start(context.Background())
		t.Cleanup(runner.Stop)

		id, err := runner.Submit(&testJob{}, map[string]any{"k": "v"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		record := waitForStatus(t, store, id, StatusCompleted)
		if record.StartedAt == nil || record.CompletedAt == nil {
			t.Error("expected both timestamps on a completed job")
		}
		if record.Metadata["k"] != "v" {
			t.Error("submission metadata not preserved")
		}
	})

	t.Run("failed jobs record the error", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 10)
		runner.Start(context.Background())
		t.Cleanup(runner.Stop)

		id, err := runner.Submit(&testJob{fn: func(ctx context.Context) error {
			return errors.New("boom")
		}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		record := waitForStatus(t, store, id, StatusFailed)
		if record.Error != "boom" {
			t.Errorf("Error = %q, want boom", record.Error)
		}
	})

	t.Run("panics become failed jobs", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 10)
		runner.Start(context.Background())
		t.Cleanup(runner.Stop)

		id, err := runner.Submit(&testJob{fn: func(ctx context.Context) error {
			panic("kaboom")
		}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		record := waitForStatus(t, store, id, StatusFailed)
		if !strings.Contains(record.Error, "panic: kaboom") {
			t.Errorf("Error = %q, want panic message", record.Error)
		}
	})

	t.Run("cancellation marks the running job cancelled", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 10)
		ctx, cancel := context.WithCancel(context.Background())
		runner.Start(ctx)
		t.Cleanup(runner.Stop)

		entered := make(chan struct{})
		id, err := runner.Submit(&testJob{fn: func(ctx context.Context) error {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		<-entered
		cancel()
		waitForStatus(t, store, id, StatusCancelled)
	})

	t.Run("queue full rejects the submission", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 1)
		// Not started, so the first submission fills the queue.
		if _, err := runner.Submit(&testJob{}, nil); err != nil {
			t.Fatalf("submit: %v", err)
		}

		_, err := runner.Submit(&testJob{}, nil)
		if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}

		failed := store.List(ListFilter{Status: StatusFailed})
		if len(failed) != 1 {
			t.Fatalf("expected 1 failed record, got %d", len(failed))
		}
		if failed[0].Error != ErrQueueFull.Error() {
			t.Errorf("Error = %q, want queue full", failed[0].Error)
		}
	})

	t.Run("submit after stop is rejected", func(t *testing.T) {
		runner, _ := newTestRunner(t, 1, 10)
		runner.Start(context.Background())
		runner.Stop()

		_, err := runner.Submit(&testJob{}, nil)
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
	})

	t.Run("stop drains the queue", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 10)
		runner.Start(context.Background())

		release := make(chan struct{})
		ids := []string{}
		id, err := runner.Submit(&testJob{fn: func(ctx context.Context) error {
			<-release
			return nil
		}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, id)
		for i := 0; i < 3; i++ {
			id, err := runner.Submit(&testJob{}, nil)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			ids = append(ids, id)
		}

		close(release)
		runner.Stop()

		for _, id := range ids {
			record, err := store.Get(id)
			if err != nil {
				t.Fatalf("get job: %v", err)
			}
			if record.Status != StatusCompleted {
				t.Errorf("job %s = %s, want completed after drain", id, record.Status)
			}
		}
	})

	t.Run("queued jobs drain as cancelled on shutdown", func(t *testing.T) {
		runner, store := newTestRunner(t, 1, 10)
		ctx, cancel := context.WithCancel(context.Background())
		runner.Start(ctx)

		entered := make(chan struct{})
		release := make(chan struct{})
		blockID, err := runner.Submit(&testJob{fn: func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		<-entered

		queued := []string{}
		for i := 0; i < 2; i++ {
			id, err := runner.Submit(&testJob{}, nil)
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			queued = append(queued, id)
		}

		cancel()
		close(release)
		runner.Stop()

		blocked, _ := store.Get(blockID)
		if blocked.Status != StatusCompleted {
			t.Errorf("running job = %s, want completed", blocked.Status)
		}
		for _, id := range queued {
			record, _ := store.Get(id)
			if record.Status != StatusCancelled {
				t.Errorf("queued job %s = %s, want cancelled", id, record.Status)
			}
		}
	})
}

const coverageJSON = `{"requirement_coverage":[{"requirement":"Input for MATNR","status":"Fully Implemented","explanation":"Parameter present."}],"final_summary":"Covered."}`

var bundleResponses = []string{
	"DATA gv_matnr TYPE matnr.",
	"PARAMETERS p_matnr TYPE matnr.",
	"SELECT SINGLE * FROM mara INTO @DATA(ls_mara) WHERE matnr = @p_matnr.",
	"WRITE: / ls_mara-matnr.",
	coverageJSON,
}

const bundleRequirement = "SECTION: 4. User Interface\nInput for MATNR.\nSECTION: 5. Technical Architecture\nRead MARA."

func newBundleDeps(t *testing.T, client providers.LLMClient) (Dependencies, *Store) {
	t.Helper()
	store := NewStore(discardLogger())
	metricStore := metrics.NewStore()
	engine := abap.NewEngine(abap.Config{
		Client:     client,
		Model:      "test-model",
		Usage:      metrics.NewRecorder(metricStore),
		Logger:     discardLogger(),
		RetryDelay: time.Millisecond,
	})
	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Dependencies{
		Engine:  engine,
		Jobs:    store,
		Metrics: metricStore,
		Home:    dir,
		Logger:  discardLogger(),
	}, store
}

// docPart unpacks a DOCX container and returns the document part text.
func docPart(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("artifact is not a zip container: %v", err)
	}
	f, err := zr.Open("word/document.xml")
	if err != nil {
		t.Fatalf("open document part: %v", err)
	}
	defer f.Close()
	part, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read document part: %v", err)
	}
	return string(part)
}

func assertDocxContains(t *testing.T, path string, wants ...string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	part := docPart(t, data)
	for _, want := range wants {
		if !strings.Contains(part, want) {
			t.Errorf("document %s missing %q", path, want)
		}
	}
}

func TestBundleJob(t *testing.T) {
	t.Run("renders both artifacts and stores metadata", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = bundleResponses
		deps, store := newBundleDeps(t, client)

		id := store.Create(TypeBundle, nil)
		ctx := ContextWithJobID(ContextWithDeps(context.Background(), deps), id)

		job := &BundleJob{Payload: map[string]any{"REQUIREMENT": bundleRequirement}}
		if err := job.Execute(ctx); err != nil {
			t.Fatalf("execute: %v", err)
		}

		record, err := store.Get(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}

		specPath, _ := record.Metadata[MetaSpecPath].(string)
		codePath, _ := record.Metadata[MetaCodePath].(string)
		if specPath != deps.Home.SpecDocPath(id) {
			t.Errorf("spec_path = %q", specPath)
		}
		if codePath != deps.Home.CodeDocPath(id) {
			t.Errorf("code_path = %q", codePath)
		}

		assertDocxContains(t, specPath, SpecDocTitle, "Input for MATNR.")
		assertDocxContains(t, codePath, CodeDocTitle, "DATA gv_matnr TYPE matnr.", "WRITE: / ls_mara-matnr.")

		if _, ok := record.Metadata[MetaFields]; !ok {
			t.Error("expected field analysis in metadata")
		}
		if _, ok := record.Metadata[MetaValidation]; !ok {
			t.Error("expected requirement validation in metadata")
		}
		summary, ok := record.Metadata[MetaUsage].(*metrics.Summary)
		if !ok {
			t.Fatal("expected a usage summary in metadata")
		}
		if summary.Count != 5 {
			t.Errorf("usage count = %d, want 5 calls", summary.Count)
		}
	})

	t.Run("fails before any call on an empty requirement", func(t *testing.T) {
		client := providers.NewMockClient()
		deps, store := newBundleDeps(t, client)
		id := store.Create(TypeBundle, nil)
		ctx := ContextWithJobID(ContextWithDeps(context.Background(), deps), id)

		job := &BundleJob{Payload: map[string]any{"REQUIREMENT": ""}}
		err := job.Execute(ctx)
		if !errors.Is(err, abap.ErrNoRequirements) {
			t.Fatalf("expected ErrNoRequirements, got %v", err)
		}
		if client.RequestCount() != 0 {
			t.Errorf("expected no LLM calls, got %d", client.RequestCount())
		}
	})

	t.Run("rejects a payload that is not an object", func(t *testing.T) {
		client := providers.NewMockClient()
		deps, store := newBundleDeps(t, client)
		id := store.Create(TypeBundle, nil)
		ctx := ContextWithJobID(ContextWithDeps(context.Background(), deps), id)

		job := &BundleJob{Payload: "not json"}
		err := job.Execute(ctx)
		if !errors.Is(err, section.ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("missing dependencies fail fast", func(t *testing.T) {
		job := &BundleJob{Payload: map[string]any{"REQUIREMENT": "x"}}
		err := job.Execute(context.Background())
		if err == nil || !strings.Contains(err.Error(), "dependencies") {
			t.Fatalf("expected a dependency error, got %v", err)
		}
	})

	t.Run("runs through the runner", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = bundleResponses
		deps, store := newBundleDeps(t, client)

		runner := NewRunner(RunnerConfig{
			Logger:       discardLogger(),
			Store:        store,
			Dependencies: deps,
			WorkerCount:  1,
			QueueSize:    4,
		})
		runner.Start(context.Background())
		t.Cleanup(runner.Stop)

		id, err := runner.Submit(&BundleJob{Payload: map[string]any{"REQUIREMENT": bundleRequirement}}, nil)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		record := waitForStatus(t, store, id, StatusCompleted)
		if record.Metadata[MetaSpecPath] == nil || record.Metadata[MetaCodePath] == nil {
			t.Error("expected artifact paths in metadata after completion")
		}
	})

	t.Run("whole strategy drafts and refines", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = []string{
			"WRITE 1.",
			"WRITE 2.",
			coverageJSON,
		}
		deps, store := newBundleDeps(t, client)
		id := store.Create(TypeBundle, nil)
		ctx := ContextWithJobID(ContextWithDeps(context.Background(), deps), id)

		job := &BundleJob{
			Payload:  map[string]any{"REQUIREMENT": bundleRequirement},
			Strategy: config.StrategyWhole,
		}
		if err := job.Execute(ctx); err != nil {
			t.Fatalf("execute: %v", err)
		}
		if got := client.RequestCount(); got != 3 {
			t.Errorf("request count = %d, want draft, refine and review", got)
		}

		record, err := store.Get(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		codePath, _ := record.Metadata[MetaCodePath].(string)
		assertDocxContains(t, codePath, "WRITE 2.")
		if _, ok := record.Metadata[MetaValidation]; !ok {
			t.Error("expected requirement validation in metadata")
		}
	})

	t.Run("submit-time engine overrides runner dependencies", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = bundleResponses
		deps, store := newBundleDeps(t, client)
		deps.Engine = nil

		id := store.Create(TypeBundle, nil)
		ctx := ContextWithJobID(ContextWithDeps(context.Background(), deps), id)

		engine := abap.NewEngine(abap.Config{
			Client:     client,
			Logger:     discardLogger(),
			RetryDelay: time.Millisecond,
		})
		job := &BundleJob{
			Payload: map[string]any{"REQUIREMENT": bundleRequirement},
			Engine:  engine,
		}
		if err := job.Execute(ctx); err != nil {
			t.Fatalf("execute: %v", err)
		}

		record, err := store.Get(id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if record.Metadata[MetaCodePath] == nil {
			t.Error("expected artifacts from the submit-time engine")
		}
	})
}

func TestBuildSpecDoc(t *testing.T) {
	b, err := BuildSpecDoc("1. Purpose\nTrack **stock** levels.SECTION: 4. User Interface\nSelection screen fields.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	part := docPart(t, data)
	for _, want := range []string{SpecDocTitle, "1. Purpose", "stock", "SECTION: 4. User Interface"} {
		if !strings.Contains(part, want) {
			t.Errorf("spec document missing %q", want)
		}
	}
}
