package model

import "time"

// StageStatus is the state of a stage within a run
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageProgress is a stage transition recorded in the run history
type StageProgress struct {
	Stage     string      `json:"stage"`
	Status    StageStatus `json:"status"`
	StartTime time.Time   `json:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Duration is EndTime - StartTime, or 0 while the stage is running
func (p StageProgress) Duration() time.Duration {
	if p.EndTime == nil {
		return 0
	}
	return p.EndTime.Sub(p.StartTime)
}

// StageDuration is the measured run time of a finished stage
type StageDuration struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// RunReport summarizes stage durations of a successful run
type RunReport struct {
	RunID       string          `json:"run_id"`
	LogicalTime time.Time       `json:"logical_time"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Elapsed     time.Duration   `json:"elapsed"`
	Stages      []StageDuration `json:"stages"`
	Longest     *StageDuration  `json:"longest,omitempty"`
	Shortest    *StageDuration  `json:"shortest,omitempty"`
}

// RunSummary is a run as read back from the run history
type RunSummary struct {
	ID           string              `json:"id"`
	LogicalTime  time.Time           `json:"logical_time"`
	InputPath    string              `json:"input_path"`
	Status       RunStatus           `json:"status"`
	Attempt      int                 `json:"attempt"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Stages       []StageProgress     `json:"stages,omitempty"`
	Load         *LoadResult         `json:"load,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}
