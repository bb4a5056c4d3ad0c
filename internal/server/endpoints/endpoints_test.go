package endpoints

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/llmcall"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/providers"
	"github.com/abapscribe/scribe/internal/svcctx"
	"github.com/abapscribe/scribe/version"

	// Registers the swagger spec served by SwaggerEndpoint.
	_ "github.com/abapscribe/scribe/docs"
)

const testConfig = `llm_providers:
  mock:
    type: mock
    enabled: true
generation:
  provider: mock
  strategy: units
  attempts: 1
jobs:
  workers: 1
  queue_size: 4
`

const wholeStrategyConfig = `llm_providers:
  mock:
    type: mock
    enabled: true
generation:
  provider: mock
  strategy: whole
  attempts: 1
`

const coverageJSON = `{"requirement_coverage":[{"requirement":"Input for MATNR","status":"Fully Implemented","explanation":"Parameter present."}],"final_summary":"Covered."}`

var generationResponses = []string{
	"DATA gv_matnr TYPE matnr.",
	"PARAMETERS p_matnr TYPE matnr.",
	"SELECT SINGLE * FROM mara INTO @DATA(ls_mara) WHERE matnr = @p_matnr.",
	"WRITE: / ls_mara-matnr.",
	coverageJSON,
}

const testRequirement = "SECTION: 4. User Interface\nInput for MATNR.\nSECTION: 5. Technical Architecture\nRead MARA."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServices(t *testing.T, client providers.LLMClient) *svcctx.Services {
	return newTestServicesWithConfig(t, client, testConfig)
}

// newTestServicesWithConfig builds the full service set the server would
// attach to requests, backed by a temp config file and home directory.
// The runner is left nil; tests that need one call startRunner.
func newTestServicesWithConfig(t *testing.T, client providers.LLMClient, cfgYAML string) *svcctx.Services {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	manager, err := config.NewManager(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	registry := providers.NewRegistry()
	registry.SetLogger(discardLogger())
	if client != nil {
		registry.RegisterLLM("mock", client)
	}

	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return &svcctx.Services{
		ConfigManager: manager,
		Registry:      registry,
		JobStore:      jobs.NewStore(discardLogger()),
		Metrics:       metrics.NewStore(),
		Calls:         llmcall.NewStore(0),
		Logger:        discardLogger(),
		Home:          dir,
	}
}

// startRunner attaches a started single-worker runner to the services.
func startRunner(t *testing.T, services *svcctx.Services, queueSize int) {
	t.Helper()
	runner := jobs.NewRunner(jobs.RunnerConfig{
		Logger:       discardLogger(),
		Store:        services.JobStore,
		Dependencies: services.JobDependencies(nil),
		WorkerCount:  1,
		QueueSize:    queueSize,
	})
	runner.Start(context.Background())
	t.Cleanup(runner.Stop)
	services.Runner = runner
}

// serve routes the request through a fresh mux so path values resolve the
// same way they do on the real server.
func serve(t *testing.T, ep api.Endpoint, services *svcctx.Services, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	method, path, handler := ep.Route()
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+path, handler)

	if services != nil {
		req = req.WithContext(svcctx.WithServices(req.Context(), services))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeJSON(t, rec, &resp)
	return resp.Error
}

func payloadReader(t *testing.T, requirement string) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(map[string]string{"REQUIREMENT": requirement})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return bytes.NewReader(data)
}

func waitForStatus(t *testing.T, store *jobs.Store, jobID string, want jobs.Status) *jobs.Record {
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

// docPart unpacks a DOCX container and returns the document part text.
func docPart(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("response is not a zip container: %v", err)
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

func TestHealthEndpoint(t *testing.T) {
	rec := serve(t, &HealthEndpoint{}, nil, httptest.NewRequest("GET", "/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	decodeJSON(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.Version != version.GitRelease {
		t.Errorf("Version = %q, want %q", resp.Version, version.GitRelease)
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("reports providers and pool state", func(t *testing.T) {
		services := newTestServices(t, providers.NewMockClient())
		startRunner(t, services, 4)

		rec := serve(t, &StatusEndpoint{}, services, httptest.NewRequest("GET", "/v1/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp StatusResponse
		decodeJSON(t, rec, &resp)
		if resp.Server != "running" {
			t.Errorf("Server = %q, want running", resp.Server)
		}
		if len(resp.Providers) != 1 || resp.Providers[0] != "mock" {
			t.Errorf("Providers = %v, want [mock]", resp.Providers)
		}
		if resp.Runner == nil || resp.Runner.Workers != 1 {
			t.Errorf("Runner = %+v, want a 1-worker snapshot", resp.Runner)
		}
	})

	t.Run("degrades without services", func(t *testing.T) {
		rec := serve(t, &StatusEndpoint{}, nil, httptest.NewRequest("GET", "/v1/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp StatusResponse
		decodeJSON(t, rec, &resp)
		if resp.Providers != nil || resp.Runner != nil {
			t.Errorf("expected bare response, got %+v", resp)
		}
	})
}

func TestSectionsEndpoint(t *testing.T) {
	t.Run("splits a valid payload", func(t *testing.T) {
		rec := serve(t, &SectionsEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/sections", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var sections []Section
		decodeJSON(t, rec, &sections)
		if len(sections) != 2 {
			t.Fatalf("got %d sections, want 2", len(sections))
		}
		if sections[0].Label != "SECTION: 4. User Interface" {
			t.Errorf("first label = %q", sections[0].Label)
		}
		if sections[0].Body != "Input for MATNR.\n" {
			t.Errorf("first body = %q", sections[0].Body)
		}
		if sections[1].Label != "SECTION: 5. Technical Architecture" {
			t.Errorf("second label = %q", sections[1].Label)
		}
	})

	t.Run("normalizes header variants", func(t *testing.T) {
		rec := serve(t, &SectionsEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/sections", payloadReader(t, "SECTION:1. Purpose\nTrack stock.")))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var sections []Section
		decodeJSON(t, rec, &sections)
		if len(sections) != 1 || sections[0].Label != "SECTION: 1. Purpose" {
			t.Errorf("sections = %+v, want canonical label", sections)
		}
	})

	t.Run("empty requirement yields an empty list", func(t *testing.T) {
		rec := serve(t, &SectionsEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/sections", payloadReader(t, "")))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var sections []Section
		decodeJSON(t, rec, &sections)
		if len(sections) != 0 {
			t.Errorf("got %d sections, want none", len(sections))
		}
	})

	t.Run("rejects a body that is not JSON", func(t *testing.T) {
		rec := serve(t, &SectionsEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/sections", strings.NewReader("not json")))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "JSON object") {
			t.Errorf("error = %q", msg)
		}
	})
}

func TestBundleEndpoint(t *testing.T) {
	t.Run("streams the spec document", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = generationResponses
		services := newTestServices(t, client)

		rec := serve(t, &BundleEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/bundles", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != docxContentType {
			t.Errorf("Content-Type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Functional_Spec_") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		bundleID := rec.Header().Get("X-Job-ID")
		if bundleID == "" {
			t.Fatal("expected an X-Job-ID header")
		}

		part := docPart(t, rec.Body.Bytes())
		for _, want := range []string{jobs.SpecDocTitle, "Input for MATNR."} {
			if !strings.Contains(part, want) {
				t.Errorf("spec document missing %q", want)
			}
		}

		// Both artifacts land in the data directory.
		if _, err := os.Stat(services.Home.SpecDocPath(bundleID)); err != nil {
			t.Errorf("spec artifact: %v", err)
		}
		if _, err := os.Stat(services.Home.CodeDocPath(bundleID)); err != nil {
			t.Errorf("code artifact: %v", err)
		}

		// The run is attributed for usage queries.
		summary := metrics.NewQuery(services.Metrics).GetSummary(metrics.Filter{JobID: bundleID})
		if summary.Count != 5 {
			t.Errorf("usage count = %d, want 5 calls", summary.Count)
		}
	})

	t.Run("honors the whole strategy", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = []string{"WRITE 1.", "WRITE 2.", coverageJSON}
		services := newTestServicesWithConfig(t, client, wholeStrategyConfig)

		rec := serve(t, &BundleEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/bundles", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if got := client.RequestCount(); got != 3 {
			t.Errorf("request count = %d, want draft, refine and review", got)
		}
	})

	t.Run("rejects an invalid payload", func(t *testing.T) {
		rec := serve(t, &BundleEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/bundles", strings.NewReader("not json")))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("fails without services", func(t *testing.T) {
		rec := serve(t, &BundleEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/bundles", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("fails when the provider is not registered", func(t *testing.T) {
		services := newTestServices(t, nil)

		rec := serve(t, &BundleEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/bundles", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "resolve llm provider") {
			t.Errorf("error = %q", msg)
		}
	})
}

func TestCreateJobEndpoint(t *testing.T) {
	t.Run("queues and completes a bundle job", func(t *testing.T) {
		client := providers.NewMockClient()
		client.Responses = generationResponses
		services := newTestServices(t, client)
		startRunner(t, services, 4)

		rec := serve(t, &CreateJobEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/jobs", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var resp CreateJobResponse
		decodeJSON(t, rec, &resp)
		if resp.JobID == "" {
			t.Fatal("expected a job id")
		}

		record := waitForStatus(t, services.JobStore, resp.JobID, jobs.StatusCompleted)
		if record.Metadata["provider"] != "mock" {
			t.Errorf("provider metadata = %v", record.Metadata["provider"])
		}
		if record.Metadata["strategy"] != config.StrategyUnits {
			t.Errorf("strategy metadata = %v", record.Metadata["strategy"])
		}
		if record.Metadata[jobs.MetaSpecPath] == nil || record.Metadata[jobs.MetaCodePath] == nil {
			t.Error("expected artifact paths in metadata")
		}
		if record.Metadata[jobs.MetaUsage] == nil {
			t.Error("expected a usage summary in metadata")
		}
	})

	t.Run("rejects an invalid payload before queueing", func(t *testing.T) {
		rec := serve(t, &CreateJobEndpoint{}, nil,
			httptest.NewRequest("POST", "/v1/jobs", strings.NewReader("not json")))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("fails without a runner", func(t *testing.T) {
		services := newTestServices(t, providers.NewMockClient())

		rec := serve(t, &CreateJobEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/jobs", payloadReader(t, testRequirement)))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("reports queue saturation", func(t *testing.T) {
		services := newTestServices(t, providers.NewMockClient())
		// Runner deliberately not started, so the first submission fills
		// the queue.
		services.Runner = jobs.NewRunner(jobs.RunnerConfig{
			Logger:      discardLogger(),
			Store:       services.JobStore,
			WorkerCount: 1,
			QueueSize:   1,
		})

		first := serve(t, &CreateJobEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/jobs", payloadReader(t, testRequirement)))
		if first.Code != http.StatusAccepted {
			t.Fatalf("first submission = %d, want 202", first.Code)
		}

		second := serve(t, &CreateJobEndpoint{}, services,
			httptest.NewRequest("POST", "/v1/jobs", payloadReader(t, testRequirement)))
		if second.Code != http.StatusServiceUnavailable {
			t.Fatalf("second submission = %d, want 503", second.Code)
		}
		if msg := errorMessage(t, second); msg != jobs.ErrQueueFull.Error() {
			t.Errorf("error = %q", msg)
		}
	})
}

func TestGetJobEndpoint(t *testing.T) {
	t.Run("returns the record", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", map[string]any{"source": "api"})

		rec := serve(t, &GetJobEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var resp GetJobResponse
		decodeJSON(t, rec, &resp)
		if resp.ID != id {
			t.Errorf("ID = %q, want %q", resp.ID, id)
		}
		if resp.Status != jobs.StatusQueued {
			t.Errorf("Status = %q, want queued", resp.Status)
		}
		if resp.Runner != nil {
			t.Error("pool snapshot on a queued job")
		}
	})

	t.Run("unknown job is a 404", func(t *testing.T) {
		services := newTestServices(t, nil)

		rec := serve(t, &GetJobEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "job not found" {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("running jobs include the pool snapshot", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)
		if err := services.JobStore.UpdateStatus(id, jobs.StatusRunning, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		services.Runner = jobs.NewRunner(jobs.RunnerConfig{
			Logger:      discardLogger(),
			Store:       services.JobStore,
			WorkerCount: 3,
		})

		rec := serve(t, &GetJobEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp GetJobResponse
		decodeJSON(t, rec, &resp)
		if resp.Runner == nil || resp.Runner.Workers != 3 {
			t.Errorf("Runner = %+v, want a 3-worker snapshot", resp.Runner)
		}
	})
}

func TestListJobsEndpoint(t *testing.T) {
	services := newTestServices(t, nil)
	first := services.JobStore.Create("bundle", nil)
	second := services.JobStore.Create("export", nil)
	third := services.JobStore.Create("bundle", nil)
	if err := services.JobStore.UpdateStatus(second, jobs.StatusCompleted, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("lists newest first", func(t *testing.T) {
		rec := serve(t, &ListJobsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp ListJobsResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Jobs) != 3 {
			t.Fatalf("got %d jobs, want 3", len(resp.Jobs))
		}
		if resp.Jobs[0].ID != third || resp.Jobs[2].ID != first {
			t.Errorf("expected newest-first order, got %s .. %s", resp.Jobs[0].ID, resp.Jobs[2].ID)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		rec := serve(t, &ListJobsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs?status=completed", nil))

		var resp ListJobsResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Jobs) != 1 || resp.Jobs[0].ID != second {
			t.Errorf("status filter returned %d jobs", len(resp.Jobs))
		}
	})

	t.Run("filters by job type", func(t *testing.T) {
		rec := serve(t, &ListJobsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs?job_type=bundle", nil))

		var resp ListJobsResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Jobs) != 2 {
			t.Errorf("job type filter returned %d jobs, want 2", len(resp.Jobs))
		}
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		rec := serve(t, &ListJobsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs?limit=ten", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "invalid limit") {
			t.Errorf("error = %q", msg)
		}
	})
}

func TestJobArtifactEndpoint(t *testing.T) {
	t.Run("serves the code document", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)
		if err := services.Home.EnsureExists(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		path := services.Home.CodeDocPath(id)
		data, err := jobs.BuildCodeDoc("WRITE 1.").Bytes()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := services.JobStore.UpdateStatus(id, jobs.StatusCompleted, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := services.JobStore.UpdateMetadata(id, map[string]any{jobs.MetaCodePath: path}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/code", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != docxContentType {
			t.Errorf("Content-Type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ABAP_Code_") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if part := docPart(t, rec.Body.Bytes()); !strings.Contains(part, "WRITE 1.") {
			t.Error("code document missing program text")
		}
	})

	t.Run("falls back to the conventional path", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)
		if err := services.Home.EnsureExists(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc, err := jobs.BuildSpecDoc("SECTION: 1. Purpose\nTrack stock.")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := doc.Bytes()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := os.WriteFile(services.Home.SpecDocPath(id), data, 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := services.JobStore.UpdateStatus(id, jobs.StatusCompleted, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/spec", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown kind is a 400", func(t *testing.T) {
		services := newTestServices(t, nil)

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/whatever/artifacts/audio", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "unknown artifact kind") {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("unknown job is a 404", func(t *testing.T) {
		services := newTestServices(t, nil)

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/nope/artifacts/spec", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("pending jobs conflict", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/spec", nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "artifact not ready") {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("failed jobs conflict", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)
		if err := services.JobStore.UpdateStatus(id, jobs.StatusFailed, "boom"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/spec", nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "did not complete") {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("vanished artifacts are gone", func(t *testing.T) {
		services := newTestServices(t, nil)
		id := services.JobStore.Create("bundle", nil)
		if err := services.JobStore.UpdateStatus(id, jobs.StatusCompleted, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		meta := map[string]any{jobs.MetaSpecPath: filepath.Join(t.TempDir(), "gone.docx")}
		if err := services.JobStore.UpdateMetadata(id, meta); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/spec", nil))
		if rec.Code != http.StatusGone {
			t.Fatalf("status = %d, want 410", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "no longer exists") {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("unrecorded path without a home directory is gone", func(t *testing.T) {
		services := newTestServices(t, nil)
		services.Home = nil
		id := services.JobStore.Create("bundle", nil)
		if err := services.JobStore.UpdateStatus(id, jobs.StatusCompleted, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := serve(t, &JobArtifactEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/jobs/"+id+"/artifacts/code", nil))
		if rec.Code != http.StatusGone {
			t.Fatalf("status = %d, want 410", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "not recorded") {
			t.Errorf("error = %q", msg)
		}
	})
}

func TestUsageEndpoint(t *testing.T) {
	services := newTestServices(t, nil)
	services.Metrics.Add(metrics.Metric{
		JobID: "job-1", Unit: "processing_logic", Provider: "mock", Model: "m1",
		CostUSD: 0.25, TotalTokens: 100, TotalSeconds: 2, Success: true,
	})
	services.Metrics.Add(metrics.Metric{
		JobID: "job-1", Unit: "forms", Provider: "mock", Model: "m1",
		CostUSD: 0.75, TotalTokens: 300, TotalSeconds: 4, Success: true,
	})
	services.Metrics.Add(metrics.Metric{
		JobID: "job-2", Provider: "mock", Model: "m2",
		CostUSD: 0.5, TotalTokens: 50, TotalSeconds: 1, Success: false,
	})

	t.Run("aggregates everything", func(t *testing.T) {
		rec := serve(t, &UsageEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/usage", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp UsageResponse
		decodeJSON(t, rec, &resp)
		if resp.Count != 3 {
			t.Errorf("Count = %d, want 3", resp.Count)
		}
		if resp.SuccessCount != 2 || resp.ErrorCount != 1 {
			t.Errorf("success/error = %d/%d, want 2/1", resp.SuccessCount, resp.ErrorCount)
		}
		if resp.TotalTokens != 450 {
			t.Errorf("TotalTokens = %d, want 450", resp.TotalTokens)
		}
		if resp.TotalCostUSD != 1.5 {
			t.Errorf("TotalCostUSD = %v, want 1.5", resp.TotalCostUSD)
		}
		if resp.TotalTimeSeconds != 7 {
			t.Errorf("TotalTimeSeconds = %v, want 7", resp.TotalTimeSeconds)
		}
	})

	t.Run("filters by job", func(t *testing.T) {
		rec := serve(t, &UsageEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/usage?job_id=job-1", nil))

		var resp UsageResponse
		decodeJSON(t, rec, &resp)
		if resp.Count != 2 || resp.ErrorCount != 0 {
			t.Errorf("Count = %d, ErrorCount = %d", resp.Count, resp.ErrorCount)
		}
		if resp.TotalTokens != 400 || resp.AvgTokens != 200 {
			t.Errorf("tokens = %d avg %v", resp.TotalTokens, resp.AvgTokens)
		}
	})

	t.Run("filters by model", func(t *testing.T) {
		rec := serve(t, &UsageEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/usage?model=m2", nil))

		var resp UsageResponse
		decodeJSON(t, rec, &resp)
		if resp.Count != 1 || resp.SuccessCount != 0 {
			t.Errorf("Count = %d, SuccessCount = %d", resp.Count, resp.SuccessCount)
		}
	})

	t.Run("missing store is unavailable", func(t *testing.T) {
		rec := serve(t, &UsageEndpoint{}, &svcctx.Services{},
			httptest.NewRequest("GET", "/v1/usage", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}

func TestCallEndpoints(t *testing.T) {
	services := newTestServices(t, nil)
	now := time.Now().UTC()
	services.Calls.Add(&llmcall.Call{
		ID: "call-1", Timestamp: now.Add(-time.Hour), JobID: "job-1",
		Unit: "data_declarations", PromptKey: "unitgen.data_declarations",
		Provider: "mock", Model: "m1", Success: true,
	})
	services.Calls.Add(&llmcall.Call{
		ID: "call-2", Timestamp: now, JobID: "job-1",
		Unit: "processing_logic", PromptKey: "unitgen.processing_logic",
		Provider: "mock", Model: "m1", Success: true,
	})
	services.Calls.Add(&llmcall.Call{
		ID: "call-3", Timestamp: now, JobID: "job-2",
		PromptKey: "review.coverage", Provider: "mock", Model: "m2",
		Success: false, Error: "boom",
	})

	t.Run("lists oldest first", func(t *testing.T) {
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp CallsResponse
		decodeJSON(t, rec, &resp)
		if resp.Total != 3 || len(resp.Calls) != 3 {
			t.Fatalf("Total = %d, len = %d", resp.Total, len(resp.Calls))
		}
		if resp.Calls[0].ID != "call-1" {
			t.Errorf("first call = %q, want call-1", resp.Calls[0].ID)
		}
	})

	t.Run("filters by job and success", func(t *testing.T) {
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls?job_id=job-1&success=true", nil))

		var resp CallsResponse
		decodeJSON(t, rec, &resp)
		if resp.Total != 2 {
			t.Errorf("Total = %d, want 2", resp.Total)
		}
	})

	t.Run("filters failed calls", func(t *testing.T) {
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls?success=false", nil))

		var resp CallsResponse
		decodeJSON(t, rec, &resp)
		if resp.Total != 1 || resp.Calls[0].Error != "boom" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("filters by time window", func(t *testing.T) {
		after := now.Add(-30 * time.Minute).Format(time.RFC3339)
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls?after="+after, nil))

		var resp CallsResponse
		decodeJSON(t, rec, &resp)
		if resp.Total != 2 {
			t.Errorf("Total = %d, want the two recent calls", resp.Total)
		}
	})

	t.Run("rejects a bad success flag", func(t *testing.T) {
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls?success=maybe", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects a bad time filter", func(t *testing.T) {
		rec := serve(t, &ListCallsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls?after=yesterday", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("gets one call", func(t *testing.T) {
		rec := serve(t, &GetCallEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls/call-2", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp CallResponse
		decodeJSON(t, rec, &resp)
		if resp.Call == nil || resp.Call.ID != "call-2" {
			t.Errorf("Call = %+v, want call-2", resp.Call)
		}
	})

	t.Run("unknown call is a 404", func(t *testing.T) {
		rec := serve(t, &GetCallEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("counts by prompt key", func(t *testing.T) {
		rec := serve(t, &CallCountsEndpoint{}, services,
			httptest.NewRequest("GET", "/v1/calls/counts/job-1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp CallCountsResponse
		decodeJSON(t, rec, &resp)
		want := map[string]int{"unitgen.data_declarations": 1, "unitgen.processing_logic": 1}
		if len(resp.Counts) != len(want) {
			t.Fatalf("Counts = %v", resp.Counts)
		}
		for key, n := range want {
			if resp.Counts[key] != n {
				t.Errorf("Counts[%s] = %d, want %d", key, resp.Counts[key], n)
			}
		}
	})
}

func TestSwaggerEndpoints(t *testing.T) {
	t.Run("serves the registered spec", func(t *testing.T) {
		rec := serve(t, &SwaggerEndpoint{}, nil, httptest.NewRequest("GET", "/swagger.json", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var spec struct {
			Swagger string `json:"swagger"`
			Info    struct {
				Title string `json:"title"`
			} `json:"info"`
			Paths map[string]json.RawMessage `json:"paths"`
		}
		decodeJSON(t, rec, &spec)
		if spec.Swagger != "2.0" {
			t.Errorf("swagger = %q, want 2.0", spec.Swagger)
		}
		if spec.Info.Title != "Scribe API" {
			t.Errorf("title = %q", spec.Info.Title)
		}
		for _, path := range []string{"/v1/sections", "/v1/bundles", "/v1/jobs", "/v1/jobs/{id}"} {
			if _, ok := spec.Paths[path]; !ok {
				t.Errorf("spec missing path %s", path)
			}
		}
	})

	t.Run("serves the UI shell", func(t *testing.T) {
		rec := serve(t, &SwaggerUIEndpoint{}, nil, httptest.NewRequest("GET", "/swagger", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
			t.Errorf("Content-Type = %q", ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "swagger-ui") || !strings.Contains(body, "/swagger.json") {
			t.Error("UI shell missing swagger wiring")
		}
	})
}

func TestEndpointRegistry(t *testing.T) {
	eps := All()

	t.Run("routes are unique and complete", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, ep := range eps {
			method, path, handler := ep.Route()
			if handler == nil {
				t.Errorf("%s %s has no handler", method, path)
			}
			key := method + " " + path
			if seen[key] {
				t.Errorf("duplicate route %s", key)
			}
			seen[key] = true
		}

		for _, want := range []string{
			"GET /v1/health", "GET /v1/status",
			"POST /v1/sections", "POST /v1/bundles",
			"POST /v1/jobs", "GET /v1/jobs", "GET /v1/jobs/{id}", "GET /v1/jobs/{id}/artifacts/{kind}",
			"GET /v1/usage",
			"GET /v1/calls", "GET /v1/calls/{id}", "GET /v1/calls/counts/{job_id}",
			"GET /swagger.json", "GET /swagger",
		} {
			if !seen[want] {
				t.Errorf("missing route %s", want)
			}
		}
	})

	t.Run("every endpoint builds a client command", func(t *testing.T) {
		for _, ep := range eps {
			if cmd := ep.Command(func() string { return "http://localhost:8080" }); cmd == nil {
				method, path, _ := ep.Route()
				t.Errorf("%s %s has no client command", method, path)
			}
		}
	})

	t.Run("command groups cover the job and call operations", func(t *testing.T) {
		if got := len(JobCommands()); got != 4 {
			t.Errorf("JobCommands() = %d endpoints, want 4", got)
		}
		if got := len(CallCommands()); got != 3 {
			t.Errorf("CallCommands() = %d endpoints, want 3", got)
		}
	})
}
