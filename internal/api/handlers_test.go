package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autoblogger/internal/model"
	"autoblogger/internal/settings"
	"autoblogger/internal/store"
)

type recordingRunner struct {
	ch chan string
}

func (r *recordingRunner) Run(_ context.Context, id string) error {
	r.ch <- id
	return nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *recordingRunner) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "test.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	runner := &recordingRunner{ch: make(chan string, 1)}
	srv := New(s, settings.NewFiles(filepath.Join(dir, "data")), runner, "")
	return srv, s, runner
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode JSON: %v\nbody: %s", err, rr.Body.String())
	}
	return result
}

func TestCreateArtifact(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rr := doRequest(t, h, "POST", "/api/artifacts", `{"title":"테니스 전 워밍업","seedType":"tennis"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	result := decodeJSON(t, rr)
	if result["stage"] != string(model.StageTopic) {
		t.Errorf("stage = %v, want topic", result["stage"])
	}
	if result["id"] == "" {
		t.Error("id missing")
	}
}

func TestCreateArtifact_InvalidJSON(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv.Handler(), "POST", "/api/artifacts", `{"title":`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestListArtifacts_EmptyIsArray(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv.Handler(), "GET", "/api/artifacts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestGetArtifact_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv.Handler(), "GET", "/api/artifacts/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestRunArtifact(t *testing.T) {
	srv, s, runner := newTestServer(t)
	h := srv.Handler()

	art, err := s.Create(context.Background(), "제목", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rr := doRequest(t, h, "POST", "/api/artifacts/"+art.ID+"/run", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body: %s", rr.Code, rr.Body.String())
	}
	result := decodeJSON(t, rr)
	if result["status"] != "started" {
		t.Errorf("status = %v, want started", result["status"])
	}

	select {
	case id := <-runner.ch:
		if id != art.ID {
			t.Errorf("runner got id %q, want %q", id, art.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner never invoked")
	}
}

func TestRunArtifact_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv.Handler(), "POST", "/api/artifacts/nope/run", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestRunArtifact_PipelineDisabled(t *testing.T) {
	srv, s, _ := newTestServer(t)

	if err := srv.settings.WritePipeline(settings.Pipeline{Enabled: false, MaxLoops: 5, MinScore: 70}); err != nil {
		t.Fatalf("WritePipeline: %v", err)
	}
	art, err := s.Create(context.Background(), "제목", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rr := doRequest(t, srv.Handler(), "POST", "/api/artifacts/"+art.ID+"/run", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestStageMarkdown(t *testing.T) {
	srv, s, _ := newTestServer(t)
	h := srv.Handler()

	art, err := s.Create(context.Background(), "제목", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rr := doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/stages/topic", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
	if rr.Body.String() != art.BodyMarkdown {
		t.Errorf("body = %q, want mirrored topic markdown", rr.Body.String())
	}

	rr = doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/stages/draft", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unreached stage status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/stages/banana", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown stage status = %d, want 400", rr.Code)
	}
}

func TestExports(t *testing.T) {
	srv, s, _ := newTestServer(t)
	h := srv.Handler()

	art, err := s.Create(context.Background(), "제목", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.WriteExport(art.ID, "naver_body.html", "<p>본문</p>"); err != nil {
		t.Fatalf("WriteExport: %v", err)
	}

	rr := doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/exports/naver_body.html", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if rr.Body.String() != "<p>본문</p>" {
		t.Errorf("body = %q", rr.Body.String())
	}

	rr = doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/exports/hashtags.txt", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing export status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, h, "GET", "/api/artifacts/"+art.ID+"/exports/secrets.env", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown export status = %d, want 400", rr.Code)
	}
}

func TestPipelineSettings_PutClamps(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rr := doRequest(t, h, "PUT", "/api/settings/pipeline", `{"enabled":true,"maxLoops":999,"minScore":120}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	result := decodeJSON(t, rr)
	if result["maxLoops"] != float64(50) {
		t.Errorf("maxLoops = %v, want 50", result["maxLoops"])
	}
	if result["minScore"] != float64(100) {
		t.Errorf("minScore = %v, want 100", result["minScore"])
	}
}

func TestEvalSettings_RoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rr := doRequest(t, h, "GET", "/api/settings/eval", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rr.Code)
	}

	rr = doRequest(t, h, "PUT", "/api/settings/eval", `{"enabled":false,"weights":{"structure":30,"specificity":20,"humanizer":10,"medicalLegal":25,"seo":15},"notes":"custom"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want 200", rr.Code)
	}

	rr = doRequest(t, h, "GET", "/api/settings/eval", "")
	result := decodeJSON(t, rr)
	if result["enabled"] != false || result["notes"] != "custom" {
		t.Errorf("persisted settings = %v", result)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv.Handler(), "OPTIONS", "/api/artifacts", "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q, want *", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}
