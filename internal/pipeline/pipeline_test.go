package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autoblogger/internal/export"
	"autoblogger/internal/images"
	"autoblogger/internal/model"
	"autoblogger/internal/refs"
	"autoblogger/internal/settings"
	"autoblogger/internal/store"
)

// newTestPipeline wires a pipeline over a temp store with stub clients and
// pacing collapsed.
func newTestPipeline(t *testing.T) (*Pipeline, *store.Store, *settings.Files) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "test.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	set := settings.NewFiles(filepath.Join(dir, "data"))
	fetcher := images.NewFetcher(&images.StubSearcher{}, &images.StubDownloader{}, s)
	p := New(s, set, fetcher, &refs.StubSearcher{}, 0)
	return p, s, set
}

func TestRun_ToPublished(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	ctx := context.Background()

	// Title shares a token with the stub citations so verification passes.
	art, err := s.Create(ctx, "tennis warm-up 루틴 점검", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != model.StagePublished {
		t.Fatalf("Stage = %q, want published (body:\n%s)", got.Stage, got.BodyMarkdown)
	}
	if got.Running {
		t.Error("Running still true after run")
	}
	if got.EvalScore == nil || *got.EvalScore < 70 {
		t.Errorf("EvalScore = %v, want >= 70", got.EvalScore)
	}
	if got.LoopCount < 1 || got.LoopCount > 5 {
		t.Errorf("LoopCount = %d, want within [1, maxLoops]", got.LoopCount)
	}
	if got.StageScores[model.StageReady] != 100 {
		t.Errorf("ready gate score = %d, want 100", got.StageScores[model.StageReady])
	}

	// Export package written under the artifact's export location.
	for _, name := range []string{export.FileFull, export.FileBody, export.FileHashtags} {
		content, err := s.ReadExport(art.ID, name)
		if err != nil {
			t.Fatalf("ReadExport(%s): %v", name, err)
		}
		if content == "" {
			t.Errorf("export %s is empty", name)
		}
	}

	// Images downloaded with their credit block.
	if _, err := os.Stat(filepath.Join(s.ImagesDir(art.ID), "img_01.jpg")); err != nil {
		t.Errorf("img_01.jpg missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.ImagesDir(art.ID), "CREDITS.md")); err != nil {
		t.Errorf("CREDITS.md missing: %v", err)
	}

	// Every passed stage mirror exists.
	for _, stg := range model.Stages {
		md, err := s.ReadStageMarkdown(art.ID, stg)
		if err != nil {
			t.Fatalf("ReadStageMarkdown(%s): %v", stg, err)
		}
		if md == "" {
			t.Errorf("stage mirror %s missing", stg)
		}
	}
}

func TestRun_SecondRunHaltsAtReadyOnDedupe(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	ctx := context.Background()

	art, err := s.Create(ctx, "tennis warm-up 루틴 점검", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Second run resolves the same stub source URLs; all are in history now,
	// so zero images download and the ready gate drops to 2 x 34 = 68.
	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != model.StageReady {
		t.Fatalf("Stage = %q, want ready", got.Stage)
	}
	if got.Running {
		t.Error("Running still true after halted run")
	}
	if got.StageScores[model.StageReady] != 68 {
		t.Errorf("ready gate score = %d, want 68", got.StageScores[model.StageReady])
	}
}

// offTopicSearcher returns citations sharing no token with any Korean title.
type offTopicSearcher struct{}

func (offTopicSearcher) Fetch(_ context.Context, _ string, _ int) ([]model.Reference, error) {
	return []model.Reference{
		{PMID: "1", Title: "Gastric emptying after abdominal surgery", URL: "https://pubmed.ncbi.nlm.nih.gov/1/"},
		{PMID: "2", Title: "Cortical thickness in adolescents", URL: "https://pubmed.ncbi.nlm.nih.gov/2/"},
		{PMID: "3", Title: "Renal outcomes of contrast media", URL: "https://pubmed.ncbi.nlm.nih.gov/3/"},
	}, nil
}

func TestRun_VerificationFailureCapsReadyAt79(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	p.refs = offTopicSearcher{}
	ctx := context.Background()

	art, err := s.Create(ctx, "테니스 루틴", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != model.StageReady {
		t.Fatalf("Stage = %q, want ready halt", got.Stage)
	}
	if got.StageScores[model.StageReady] != 79 {
		t.Errorf("ready gate score = %d, want capped 79", got.StageScores[model.StageReady])
	}
	if !strings.Contains(got.BodyMarkdown, "ref not obviously on-topic") {
		t.Error("verification failures missing from ready checklist")
	}
}

func TestRun_LoopExhaustionStillPublishes(t *testing.T) {
	p, s, set := newTestPipeline(t)
	ctx := context.Background()
	if err := set.WritePipeline(settings.Pipeline{Enabled: true, MaxLoops: 3, MinScore: 100}); err != nil {
		t.Fatalf("WritePipeline: %v", err)
	}

	art, err := s.Create(ctx, "tennis warm-up 루틴", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LoopCount != 3 {
		t.Errorf("LoopCount = %d, want exhausted maxLoops 3", got.LoopCount)
	}
	if got.Stage != model.StagePublished {
		t.Errorf("Stage = %q, want published after exhaustion", got.Stage)
	}
	if got.EvalScore == nil || *got.EvalScore >= 100 {
		t.Errorf("EvalScore = %v, want sub-minScore value persisted", got.EvalScore)
	}
}

func TestRun_ZeroLoopsHaltsAtReady(t *testing.T) {
	p, s, set := newTestPipeline(t)
	ctx := context.Background()
	if err := set.WritePipeline(settings.Pipeline{Enabled: true, MaxLoops: 0, MinScore: 70}); err != nil {
		t.Fatalf("WritePipeline: %v", err)
	}

	art, err := s.Create(ctx, "tennis 루틴", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != model.StageReady {
		t.Errorf("Stage = %q, want ready halt with no draft", got.Stage)
	}
	if got.Running {
		t.Error("Running still true")
	}
}

func TestRun_ReentryIsSilentNoop(t *testing.T) {
	p, s, _ := newTestPipeline(t)
	ctx := context.Background()

	art, err := s.Create(ctx, "제목", model.SeedTennis)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := s.AcquireRunLease(ctx, art.ID)
	if err != nil || !ok {
		t.Fatalf("AcquireRunLease: ok=%v err=%v", ok, err)
	}

	if err := p.Run(ctx, art.ID); err != nil {
		t.Fatalf("Run with held lease: %v", err)
	}
	got, err := s.Get(ctx, art.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != model.StageTopic {
		t.Errorf("Stage = %q, want untouched topic", got.Stage)
	}
}

func TestRun_UnknownIDIsNoop(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	if err := p.Run(context.Background(), "no-such-artifact"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
