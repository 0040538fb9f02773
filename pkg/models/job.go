package models

import "time"

const (
	JobStatusPending  = "pending"
	JobStatusRunning  = "running"
	JobStatusComplete = "complete"
	JobStatusFailed   = "failed"
)

// Job tracks one async research operation. start_job returns a job_id; the
// caller polls check_status until the status is complete or failed, then
// fetches the terminal value with get_result. Terminal states are absorbing.
type Job struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message,omitempty"`
	Result    *ResearchResult `json:"result,omitempty"`
	SavedTo   string          `json:"saved_to,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}

// ResearchResult is the terminal value of a completed research job.
type ResearchResult struct {
	Report   string           `json:"report"`
	Sources  []ResearchSource `json:"sources"`
	Metadata ResearchMetadata `json:"metadata"`
}

// ResearchSource is one source surfaced by the research run.
type ResearchSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchMetadata summarizes a research run.
type ResearchMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SourcesAnalyzed int     `json:"sources_analyzed"`
}
