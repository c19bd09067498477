package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"autoblogger/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ArtifactReader = (*Store)(nil)
	_ ArtifactWriter = (*Store)(nil)
	_ LeaseKeeper    = (*Store)(nil)
	_ ImageHistory   = (*Store)(nil)
)

// ErrVersionConflict is returned when an update loses the optimistic
// version check to a concurrent writer.
var ErrVersionConflict = errors.New("artifact version conflict")

// imageHistoryCap is the number of most recent source URLs retained for
// cross-run image deduplication.
const imageHistoryCap = 500

// Store provides data access to the SQLite database and mirrors stage
// content to per-artifact files under dataDir.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens (or creates) the SQLite database at path and initialises the schema.
// Stage content is mirrored under dataDir.
func Open(path, dataDir string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent reads while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 2

func (s *Store) migrate() error {
	// Ensure the schema_version table exists.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: initialize to version 0.
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: artifacts table
		s.migrateV2, // v1 → v2: image_history table
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the artifacts table (v0 → v1).
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id             TEXT PRIMARY KEY,
		stage          TEXT NOT NULL,
		title          TEXT NOT NULL,
		seed_type      TEXT NOT NULL,
		body_markdown  TEXT NOT NULL,
		running        INTEGER NOT NULL DEFAULT 0,
		loop_count     INTEGER NOT NULL DEFAULT 0,
		eval_score     INTEGER,
		eval_breakdown TEXT,
		eval_reasons   TEXT,
		eval_fixes     TEXT,
		stage_scores   TEXT NOT NULL DEFAULT '{}',
		version        INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_stage ON artifacts(stage, updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 creates the image_history table (v1 → v2).
func (s *Store) migrateV2() error {
	schema := `
	CREATE TABLE IF NOT EXISTS image_history (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		url        TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_image_history_url ON image_history(url);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Artifacts
// ---------------------------------------------------------------------------

// Create inserts a new artifact at the topic stage and mirrors its body.
func (s *Store) Create(ctx context.Context, title, seedType string) (*model.Artifact, error) {
	art := model.NewArtifact(uuid.New().String(), title, seedType)

	scores, _ := json.Marshal(art.StageScores)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, stage, title, seed_type, body_markdown, running, loop_count, stage_scores, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)`,
		art.ID, string(art.Stage), art.Title, art.SeedType, art.BodyMarkdown,
		string(scores), art.Version, art.CreatedAt, art.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.mirrorStageFile(&art); err != nil {
		return nil, fmt.Errorf("mirror stage file: %w", err)
	}
	return &art, nil
}

// Get returns one artifact by id.
func (s *Store) Get(ctx context.Context, id string) (*model.Artifact, error) {
	row := s.db.QueryRowContext(ctx, selectArtifact+` WHERE id = ?`, id)
	return scanArtifact(row)
}

// List returns all artifacts, most recently updated first.
func (s *Store) List(ctx context.Context) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, selectArtifact+` ORDER BY updated_at DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var arts []model.Artifact
	for rows.Next() {
		art, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		arts = append(arts, *art)
	}
	return arts, rows.Err()
}

// Patch holds the fields of a merge-update. Nil fields are left untouched.
type Patch struct {
	Title        *string
	Stage        *model.Stage
	BodyMarkdown *string
	Running      *bool
	LoopCount    *int
	EvalScore    *int
	EvalBreak    *model.EvalBreakdown
	EvalReasons  []string
	EvalFixes    []string
	// StageScore records the latest gate score for StageScoreStage.
	StageScore      *int
	StageScoreStage model.Stage
}

// Update merges the patch into the artifact record, stamps updated_at, bumps
// the version, and mirrors body_markdown to the stage-scoped file (plus the
// topic convenience copy when the resulting stage is topic). The write is
// guarded by an optimistic version check; the transaction serialises writers
// so a conflict indicates an out-of-band writer.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*model.Artifact, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectArtifact+` WHERE id = ?`, id)
	art, err := scanArtifact(row)
	if err != nil {
		return nil, err
	}

	applyPatch(art, patch)
	expected := art.Version
	art.Version++
	art.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	breakdown := marshalNullable(art.EvalBreak)
	reasons := marshalNullable(art.EvalReasons)
	fixes := marshalNullable(art.EvalFixes)
	scores, _ := json.Marshal(art.StageScores)

	res, err := tx.ExecContext(ctx, `
		UPDATE artifacts
		SET stage = ?, title = ?, body_markdown = ?, running = ?, loop_count = ?,
		    eval_score = ?, eval_breakdown = ?, eval_reasons = ?, eval_fixes = ?,
		    stage_scores = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(art.Stage), art.Title, art.BodyMarkdown, boolToInt(art.Running), art.LoopCount,
		art.EvalScore, breakdown, reasons, fixes,
		string(scores), art.Version, art.UpdatedAt,
		id, expected,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := s.mirrorStageFile(art); err != nil {
		return nil, fmt.Errorf("mirror stage file: %w", err)
	}
	return art, nil
}

func applyPatch(art *model.Artifact, patch Patch) {
	if patch.Title != nil {
		art.Title = *patch.Title
	}
	if patch.Stage != nil {
		art.Stage = *patch.Stage
	}
	if patch.BodyMarkdown != nil {
		art.BodyMarkdown = *patch.BodyMarkdown
	}
	if patch.Running != nil {
		art.Running = *patch.Running
	}
	if patch.LoopCount != nil {
		art.LoopCount = *patch.LoopCount
	}
	if patch.EvalScore != nil {
		art.EvalScore = patch.EvalScore
	}
	if patch.EvalBreak != nil {
		art.EvalBreak = patch.EvalBreak
	}
	if patch.EvalReasons != nil {
		art.EvalReasons = patch.EvalReasons
	}
	if patch.EvalFixes != nil {
		art.EvalFixes = patch.EvalFixes
	}
	if patch.StageScore != nil && patch.StageScoreStage != "" {
		if art.StageScores == nil {
			art.StageScores = map[model.Stage]int{}
		}
		art.StageScores[patch.StageScoreStage] = *patch.StageScore
	}
}

// ---------------------------------------------------------------------------
// Run lease
// ---------------------------------------------------------------------------

// AcquireRunLease marks the artifact as running if and only if it is not
// already. The conditional UPDATE makes the test-and-set atomic; two
// near-simultaneous callers cannot both acquire.
func (s *Store) AcquireRunLease(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET running = 1, version = version + 1, updated_at = ? WHERE id = ? AND running = 0`,
		now, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseRunLease clears the running flag.
func (s *Store) ReleaseRunLease(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET running = 0, version = version + 1, updated_at = ? WHERE id = ?`,
		now, id,
	)
	return err
}

// ResetStaleRunning clears running flags left behind by a crashed run.
// A run cannot survive the process, so this sweep at startup is sufficient.
func (s *Store) ResetStaleRunning(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET running = 0, version = version + 1, updated_at = ? WHERE running = 1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------------------------------------------------------------------
// Image history
// ---------------------------------------------------------------------------

// SeenImageURL reports whether the source URL was already used by any artifact.
func (s *Store) SeenImageURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM image_history WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendImageURLs records the batch of used source URLs and trims history to
// the most recent entries, in one transaction so a concurrent reader never
// observes an over-cap list.
func (s *Store) AppendImageURLs(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, u := range urls {
		if _, err := tx.ExecContext(ctx, `INSERT INTO image_history (url, created_at) VALUES (?, ?)`, u, now); err != nil {
			return fmt.Errorf("insert history url: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM image_history
		WHERE seq NOT IN (SELECT seq FROM image_history ORDER BY seq DESC LIMIT ?)`,
		imageHistoryCap,
	); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

const selectArtifact = `
	SELECT id, stage, title, seed_type, body_markdown, running, loop_count,
	       eval_score, eval_breakdown, eval_reasons, eval_fixes,
	       stage_scores, version, created_at, updated_at
	FROM artifacts`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(row scanner) (*model.Artifact, error) {
	var (
		art       model.Artifact
		stage     string
		running   int
		evalScore sql.NullInt64
		breakdown sql.NullString
		reasons   sql.NullString
		fixes     sql.NullString
		scores    string
	)
	err := row.Scan(&art.ID, &stage, &art.Title, &art.SeedType, &art.BodyMarkdown,
		&running, &art.LoopCount, &evalScore, &breakdown, &reasons, &fixes,
		&scores, &art.Version, &art.CreatedAt, &art.UpdatedAt)
	if err != nil {
		return nil, err
	}
	art.Stage = model.Stage(stage)
	art.Running = running != 0
	if evalScore.Valid {
		v := int(evalScore.Int64)
		art.EvalScore = &v
	}

	if breakdown.Valid && breakdown.String != "" {
		var b model.EvalBreakdown
		if err := json.Unmarshal([]byte(breakdown.String), &b); err == nil {
			art.EvalBreak = &b
		}
	}
	if reasons.Valid && reasons.String != "" {
		_ = json.Unmarshal([]byte(reasons.String), &art.EvalReasons)
	}
	if fixes.Valid && fixes.String != "" {
		_ = json.Unmarshal([]byte(fixes.String), &art.EvalFixes)
	}
	art.StageScores = map[model.Stage]int{}
	if scores != "" {
		_ = json.Unmarshal([]byte(scores), &art.StageScores)
	}
	return &art, nil
}

func marshalNullable(v interface{}) *string {
	switch x := v.(type) {
	case *model.EvalBreakdown:
		if x == nil {
			return nil
		}
	case []string:
		if x == nil {
			return nil
		}
	}
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
