package model

import "time"

// FileStatus is the tri-state outcome of one batch input.
type FileStatus string

const (
	StatusSuccess FileStatus = "success"
	StatusFailed  FileStatus = "failed"
	StatusSkipped FileStatus = "skipped"
)

// FileResult records what happened to a single input path. Exactly one of
// these exists per input in a BatchReport.
type FileResult struct {
	File     string     `json:"file"`
	Status   FileStatus `json:"status"`
	Outputs  []string   `json:"outputs,omitempty"`
	Error    string     `json:"error,omitempty"`
	Language string     `json:"language,omitempty"`
	Duration float64    `json:"duration,omitempty"`
	Elapsed  float64    `json:"elapsed,omitempty"`
}

// BatchReport aggregates the results of one batch run. It is only used for
// summary display and export, never for control decisions.
type BatchReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []FileResult `json:"results"`
}

// WallSeconds returns the wall-clock duration of the run.
func (r *BatchReport) WallSeconds() float64 {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt).Seconds()
}
