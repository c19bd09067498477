// Package pipeline drives an artifact through the fixed stage sequence,
// gating every stage, looping the draft/review/eval segment on insufficient
// quality, and enriching the final draft with images and references.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autoblogger/internal/export"
	"autoblogger/internal/gate"
	"autoblogger/internal/generate"
	"autoblogger/internal/images"
	"autoblogger/internal/model"
	"autoblogger/internal/refs"
	"autoblogger/internal/score"
	"autoblogger/internal/settings"
	"autoblogger/internal/store"
)

// Pipeline orchestrates one run per artifact.
type Pipeline struct {
	store    *store.Store
	settings *settings.Files
	images   *images.Fetcher
	refs     refs.Searcher

	// delay is the pacing pause after every persisted stage transition, so
	// observers polling stage state see each step. Zero collapses pacing.
	delay time.Duration
}

// New creates a pipeline with the given dependencies.
func New(s *store.Store, set *settings.Files, img *images.Fetcher, rf refs.Searcher, delay time.Duration) *Pipeline {
	return &Pipeline{store: s, settings: set, images: img, refs: rf, delay: delay}
}

// StepError wraps an error with the stage that failed.
type StepError struct {
	Stage model.Stage
	Err   error
}

func (e *StepError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// refLimit is the number of bibliographic candidates requested per run.
const refLimit = 3

// Run executes the full stage sequence for the artifact. A run already in
// progress is a silent no-op. A stage gate below threshold halts the run,
// leaving the last gated stage visible as a stalled partial result.
func (p *Pipeline) Run(ctx context.Context, id string) error {
	art, err := p.store.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}

	acquired, err := p.store.AcquireRunLease(ctx, id)
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	if !acquired {
		slog.Info("run already in progress", "artifact_id", id)
		return nil
	}
	defer func() {
		if err := p.store.ReleaseRunLease(context.WithoutCancel(ctx), id); err != nil {
			slog.Error("release run lease", "artifact_id", id, "error", err)
		}
	}()

	ps, err := p.settings.ReadPipeline()
	if err != nil {
		slog.Warn("pipeline settings unreadable, using defaults", "error", err)
	}

	title, seed := art.Title, art.SeedType
	carried := art.EvalFixes // feedback from a previous run, if any

	// Stage: topic
	topicMD := generate.TopicCard(title, seed, carried, generate.SeededPicker(id, 0))
	halted, err := p.gateAndPersist(ctx, id, model.StageTopic, topicMD, store.Patch{})
	if halted || err != nil {
		return err
	}

	// Stage: outline
	outlineMD := generate.OutlinePacket(title, seed, generate.SeededPicker(id, 0))
	halted, err = p.gateAndPersist(ctx, id, model.StageOutline, outlineMD, store.Patch{})
	if halted || err != nil {
		return err
	}
	outlinePH := images.ExtractPlaceholders(outlineMD)

	// Loop segment: draft → review → eval, bounded by maxLoops.
	var (
		draftMD   string
		evalScore *int
		loopCount int
	)
	for i := 0; i < ps.MaxLoops; i++ {
		loopCount = i + 1

		// Stage: draft (carry outline placeholders when absent)
		draftMD = images.EnsurePlaceholders(generate.Draft(title, seed), outlinePH)
		halted, err = p.gateAndPersist(ctx, id, model.StageDraft, draftMD, store.Patch{LoopCount: &loopCount})
		if halted || err != nil {
			return err
		}

		// Stage: review
		reviewMD, _, _ := generate.ReviewComments(draftMD)
		halted, err = p.gateAndPersist(ctx, id, model.StageReview, reviewMD, store.Patch{})
		if halted || err != nil {
			return err
		}

		// Stage: eval
		res := score.Draft(draftMD)
		evalScore = &res.Score
		evalMD := generate.EvalReport(title, res.Score, ps.MinScore)
		breakdown := res.Breakdown
		halted, err = p.gateAndPersist(ctx, id, model.StageEval, evalMD, store.Patch{
			EvalScore:   &res.Score,
			EvalBreak:   &breakdown,
			EvalReasons: res.Failures,
			EvalFixes:   res.Fixes,
		})
		if halted || err != nil {
			return err
		}

		if res.Score >= ps.MinScore || i+1 >= ps.MaxLoops {
			break
		}

		// Sub-threshold quality: loop back to topic carrying this loop's
		// fixes. Loop-back placeholders are not gated.
		carried = res.Fixes
		topicBack := generate.LoopBackTopic(title, res.Score, carried)
		if err := p.persistStage(ctx, id, model.StageTopic, topicBack, store.Patch{}); err != nil {
			return &StepError{Stage: model.StageTopic, Err: err}
		}
		outlineBack := generate.LoopBackOutline(title, i+2)
		if err := p.persistStage(ctx, id, model.StageOutline, outlineBack, store.Patch{}); err != nil {
			return &StepError{Stage: model.StageOutline, Err: err}
		}
	}
	// Loop exhaustion is not an error: enrichment proceeds with the last draft.

	// Enrichment: images, references, verification.
	imgRes, err := p.images.FetchForDraft(ctx, p.store.ImagesDir(id), draftMD)
	if err != nil {
		return &StepError{Stage: model.StageReady, Err: err}
	}
	readyMD := images.Inject(draftMD, imgRes.Downloaded)

	references, err := p.refs.Fetch(ctx, refs.SearchTerm(seed), refLimit)
	if err != nil {
		// Degrades to no citations; the ready gate will report it.
		slog.Warn("reference fetch failed", "artifact_id", id, "error", err)
		references = nil
	}
	readyMD += refs.FormatMarkdown(references)
	_, refFailures := refs.Verify(title, references)

	// Stage: ready. Verification failures join the checklist as failing
	// checks and cap the score below threshold.
	readyScore, checks := gate.Evaluate(model.StageReady, readyMD)
	for _, f := range refFailures {
		checks = append(checks, model.StageCheck{Key: "refVerify", Label: f, Pass: false})
	}
	if len(refFailures) > 0 && readyScore > 79 {
		readyScore = 79
	}
	readyBody := gate.AppendReport(readyMD, model.StageReady, readyScore, checks)
	if err := p.persistStage(ctx, id, model.StageReady, readyBody, store.Patch{
		StageScore: &readyScore, StageScoreStage: model.StageReady,
	}); err != nil {
		return &StepError{Stage: model.StageReady, Err: err}
	}
	if readyScore < gate.Threshold {
		slog.Info("gate failed, halting run", "artifact_id", id, "stage", model.StageReady, "score", readyScore)
		return nil
	}

	// Stage: naver. Render and persist the export package.
	pkg, err := export.Render(readyMD, title)
	if err != nil {
		return &StepError{Stage: model.StageNaver, Err: err}
	}
	for name, content := range map[string]string{
		export.FileFull:     pkg.FullDocument,
		export.FileBody:     pkg.BodyFragment,
		export.FileHashtags: pkg.TagLine,
	} {
		if err := p.store.WriteExport(id, name, content); err != nil {
			return &StepError{Stage: model.StageNaver, Err: fmt.Errorf("write export %s: %w", name, err)}
		}
	}
	naverMD := fmt.Sprintf("# %s\n\n(Naver 패키지)\n- %s\n- %s\n- %s\n",
		title, export.FileFull, export.FileBody, export.FileHashtags)
	halted, err = p.gateAndPersist(ctx, id, model.StageNaver, naverMD, store.Patch{})
	if halted || err != nil {
		return err
	}

	// Stage: published
	finalScore := "-"
	if evalScore != nil {
		finalScore = fmt.Sprint(*evalScore)
	}
	publishedMD := fmt.Sprintf("# %s\n\n(Published)\n\n최종 점수: %s (minScore %d)\n루프 횟수: %d/%d\n",
		title, finalScore, ps.MinScore, loopCount, ps.MaxLoops)
	halted, err = p.gateAndPersist(ctx, id, model.StagePublished, publishedMD, store.Patch{})
	if halted || err != nil {
		return err
	}

	slog.Info("pipeline finished", "artifact_id", id, "loops", loopCount, "eval_score", finalScore)
	return nil
}

// gateAndPersist evaluates the stage gate over body, persists the annotated
// body with the gate score, and pauses for pacing. halted is true when the
// score is below threshold; the caller must stop the run.
func (p *Pipeline) gateAndPersist(ctx context.Context, id string, stg model.Stage, body string, patch store.Patch) (halted bool, err error) {
	stageScore, checks := gate.Evaluate(stg, body)
	annotated := gate.AppendReport(body, stg, stageScore, checks)

	patch.StageScore = &stageScore
	patch.StageScoreStage = stg
	if err := p.persistStage(ctx, id, stg, annotated, patch); err != nil {
		return false, &StepError{Stage: stg, Err: err}
	}

	if stageScore < gate.Threshold {
		slog.Info("gate failed, halting run", "artifact_id", id, "stage", stg, "score", stageScore)
		return true, nil
	}
	return false, nil
}

// persistStage merges the stage transition into the record and pauses so the
// persisted state is externally observable before the next stage begins.
func (p *Pipeline) persistStage(ctx context.Context, id string, stg model.Stage, body string, patch store.Patch) error {
	patch.Stage = &stg
	patch.BodyMarkdown = &body
	if _, err := p.store.Update(ctx, id, patch); err != nil {
		return err
	}
	p.pause(ctx)
	return nil
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.delay):
	}
}
