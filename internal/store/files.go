package store

import (
	"os"
	"path/filepath"

	"autoblogger/internal/model"
)

// ArtifactDir returns the artifact-scoped directory under the data root.
func (s *Store) ArtifactDir(id string) string {
	return filepath.Join(s.dataDir, "artifacts", id)
}

// ImagesDir returns the artifact-scoped image directory.
func (s *Store) ImagesDir(id string) string {
	return filepath.Join(s.ArtifactDir(id), "images")
}

// ExportsDir returns the artifact-scoped export directory.
func (s *Store) ExportsDir(id string) string {
	return filepath.Join(s.ArtifactDir(id), "exports")
}

func (s *Store) stageFile(id string, stage model.Stage) string {
	return filepath.Join(s.ArtifactDir(id), string(stage)+".md")
}

// mirrorStageFile writes the current body to the stage-scoped file, and for
// the topic stage also to the convenience entry point copy.
func (s *Store) mirrorStageFile(art *model.Artifact) error {
	dir := s.ArtifactDir(art.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.stageFile(art.ID, art.Stage), []byte(art.BodyMarkdown), 0o644); err != nil {
		return err
	}
	if art.Stage == model.StageTopic {
		return os.WriteFile(filepath.Join(dir, "topic.mf.md"), []byte(art.BodyMarkdown), 0o644)
	}
	return nil
}

// ReadStageMarkdown returns the mirrored markdown for one stage, or "" when
// the stage has not been reached yet.
func (s *Store) ReadStageMarkdown(id string, stage model.Stage) (string, error) {
	b, err := os.ReadFile(s.stageFile(id, stage))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteExport writes one named export file for the artifact.
func (s *Store) WriteExport(id, name, content string) error {
	dir := s.ExportsDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

// ReadExport returns one named export file, or "" when it does not exist.
func (s *Store) ReadExport(id, name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.ExportsDir(id), name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
