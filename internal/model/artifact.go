package model

import "time"

// Stage is one phase in the fixed production sequence.
type Stage string

// Stage constants, in pipeline order.
const (
	StageTopic     Stage = "topic"
	StageOutline   Stage = "outline"
	StageDraft     Stage = "draft"
	StageReview    Stage = "review"
	StageEval      Stage = "eval"
	StageReady     Stage = "ready"
	StageNaver     Stage = "naver"
	StagePublished Stage = "published"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageTopic,
	StageOutline,
	StageDraft,
	StageReview,
	StageEval,
	StageReady,
	StageNaver,
	StagePublished,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Next returns the following stage, or the last stage when already there.
// Unknown stages map to topic.
func (s Stage) Next() Stage {
	for i, st := range Stages {
		if s == st {
			if i+1 < len(Stages) {
				return Stages[i+1]
			}
			return st
		}
	}
	return StageTopic
}

// Seed type constants.
const (
	SeedTennis  = "tennis"
	SeedWeights = "weights"
	SeedCases   = "cases"
	SeedCustom  = "custom"
)

// ValidSeedType reports whether s is a known seed category.
// Unknown values are coerced to custom by callers.
func ValidSeedType(s string) bool {
	switch s {
	case SeedTennis, SeedWeights, SeedCases, SeedCustom:
		return true
	}
	return false
}

// EvalBreakdown holds the per-criterion heuristic sub-scores for a draft.
type EvalBreakdown struct {
	Structure    int `json:"structure"`
	Specificity  int `json:"specificity"`
	Humanizer    int `json:"humanizer"`
	MedicalLegal int `json:"medicalLegal"`
	SEO          int `json:"seo"`
}

// Artifact is the unit of content moving through the stage sequence.
type Artifact struct {
	ID           string         `json:"id"`
	Stage        Stage          `json:"stage"`
	Title        string         `json:"title"`
	SeedType     string         `json:"seed_type"`
	BodyMarkdown string         `json:"body_markdown"`
	Running      bool           `json:"running"`
	LoopCount    int            `json:"loop_count"`
	EvalScore    *int           `json:"eval_score,omitempty"`
	EvalBreak    *EvalBreakdown `json:"eval_breakdown,omitempty"`
	EvalReasons  []string       `json:"eval_reasons,omitempty"`
	EvalFixes    []string       `json:"eval_fixes,omitempty"`
	StageScores  map[Stage]int  `json:"stage_scores,omitempty"`
	Version      int64          `json:"version"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// NewArtifact creates a fresh artifact at the topic stage.
func NewArtifact(id, title, seedType string) Artifact {
	now := time.Now().UTC().Format(time.RFC3339)
	if title == "" {
		title = "Untitled"
	}
	if !ValidSeedType(seedType) {
		seedType = SeedCustom
	}
	return Artifact{
		ID:           id,
		Stage:        StageTopic,
		Title:        title,
		SeedType:     seedType,
		BodyMarkdown: "# " + title + "\n\n(Topic card 초안)\n",
		StageScores:  map[Stage]int{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
