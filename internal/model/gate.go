package model

// StageCheck is a single checklist item produced by the stage gate.
// Checks are reported per run; only the aggregate score is persisted.
type StageCheck struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Pass  bool   `json:"pass"`
	Note  string `json:"note,omitempty"`
}
