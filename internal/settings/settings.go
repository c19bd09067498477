// Package settings persists the pipeline and eval settings records as small
// JSON files under the data directory. Malformed or missing records fall back
// to the hard-coded defaults, and the record is rewritten with those defaults.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Pipeline holds the pipeline settings record.
type Pipeline struct {
	Enabled  bool `json:"enabled"`
	MaxLoops int  `json:"maxLoops"`
	MinScore int  `json:"minScore"`
}

// EvalWeights holds the per-criterion weights of the eval settings record.
type EvalWeights struct {
	Structure    int `json:"structure"`
	Specificity  int `json:"specificity"`
	Humanizer    int `json:"humanizer"`
	MedicalLegal int `json:"medicalLegal"`
	SEO          int `json:"seo"`
}

// Eval holds the eval settings record.
type Eval struct {
	Enabled bool        `json:"enabled"`
	Weights EvalWeights `json:"weights"`
	Notes   string      `json:"notes"`
}

// DefaultPipeline returns the hard-coded pipeline defaults.
func DefaultPipeline() Pipeline {
	return Pipeline{Enabled: true, MaxLoops: 5, MinScore: 70}
}

// DefaultEval returns the hard-coded eval defaults.
func DefaultEval() Eval {
	return Eval{
		Enabled: true,
		Weights: EvalWeights{
			Structure:    25,
			Specificity:  20,
			Humanizer:    15,
			MedicalLegal: 25,
			SEO:          15,
		},
		Notes: "구조(공감→정보→실천), 구체성(수치/비유), Humanizer(리듬/대화체), Medical/Legal, SEO 자연스러움 기준으로 평가",
	}
}

// Files reads and writes settings records under dir.
type Files struct {
	dir string
}

// NewFiles creates a settings accessor rooted at dataDir/settings.
func NewFiles(dataDir string) *Files {
	return &Files{dir: filepath.Join(dataDir, "settings")}
}

func (f *Files) path(name string) string {
	return filepath.Join(f.dir, name)
}

// ReadPipeline loads the pipeline settings record, clamping values to their
// allowed ranges. A missing or malformed record is rewritten with defaults.
func (f *Files) ReadPipeline() (Pipeline, error) {
	defaults := DefaultPipeline()
	raw, err := os.ReadFile(f.path("pipeline.json"))
	if err != nil {
		return defaults, f.WritePipeline(defaults)
	}
	var p Pipeline
	if err := json.Unmarshal(raw, &p); err != nil {
		return defaults, f.WritePipeline(defaults)
	}
	p.MaxLoops = clamp(p.MaxLoops, 0, 50)
	p.MinScore = clamp(p.MinScore, 0, 100)
	return p, nil
}

// WritePipeline persists the pipeline settings record.
func (f *Files) WritePipeline(p Pipeline) error {
	return f.write("pipeline.json", p)
}

// ReadEval loads the eval settings record. A missing or malformed record is
// rewritten with defaults.
func (f *Files) ReadEval() (Eval, error) {
	defaults := DefaultEval()
	raw, err := os.ReadFile(f.path("eval.json"))
	if err != nil {
		return defaults, f.WriteEval(defaults)
	}
	var e Eval
	if err := json.Unmarshal(raw, &e); err != nil {
		return defaults, f.WriteEval(defaults)
	}
	return e, nil
}

// WriteEval persists the eval settings record.
func (f *Files) WriteEval(e Eval) error {
	return f.write("eval.json", e)
}

func (f *Files) write(name string, v interface{}) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(name), b, 0o644)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
