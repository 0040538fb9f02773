// Package research runs asynchronous deep-research jobs against a generation
// provider and tracks their lifecycle in a job store.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/articleforge/articleforge/pkg/models"
	"github.com/google/uuid"
)

// StartReceipt is the immediate response to a job submission.
type StartReceipt struct {
	JobID                string `json:"job_id"`
	Status               string `json:"status"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds"`
}

// Service orchestrates deep-research jobs. Start returns immediately; the
// background runner is the sole writer of a job's terminal state.
type Service struct {
	provider models.Provider
	store    Store
	timeout  time.Duration
	interval time.Duration
}

// NewService creates a research Service. timeout bounds how long the runner
// polls the upstream interaction; interval is the upstream polling cadence.
func NewService(provider models.Provider, store Store, timeout, interval time.Duration) *Service {
	return &Service{
		provider: provider,
		store:    store,
		timeout:  timeout,
		interval: interval,
	}
}

// Start validates nothing beyond what the gateway already checked, begins the
// upstream interaction, registers the job, and dispatches the runner.
func (s *Service) Start(ctx context.Context, spec models.ResearchSpec, outputPath string) (*StartReceipt, error) {
	query := buildResearchQuery(spec)

	interactionID, err := s.provider.StartResearch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("starting research interaction: %w", err)
	}

	job := &models.Job{
		ID:        newJobID(),
		Status:    models.JobStatusPending,
		Message:   "Starting research...",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(job); err != nil {
		return nil, fmt.Errorf("registering job: %w", err)
	}
	if err := s.store.MarkRunning(job.ID); err != nil {
		return nil, fmt.Errorf("marking job running: %w", err)
	}

	slog.Info("research job started",
		"job_id", job.ID,
		"interaction_id", interactionID,
		"provider", s.provider.Name(),
	)

	go s.run(job.ID, interactionID, outputPath, time.Now().UTC())

	return &StartReceipt{
		JobID:                job.ID,
		Status:               models.JobStatusRunning,
		EstimatedTimeSeconds: int(s.timeout.Seconds()),
	}, nil
}

// Status is a side-effect-free read of the job's current state.
func (s *Service) Status(id string) (models.Job, error) {
	return s.store.Get(id)
}

// Result returns the terminal value of a job. A running job yields
// ErrNotReady; a failed job surfaces its captured error.
func (s *Service) Result(id string) (models.Job, error) {
	job, err := s.store.Get(id)
	if err != nil {
		return models.Job{}, err
	}
	switch job.Status {
	case models.JobStatusComplete:
		return job, nil
	case models.JobStatusFailed:
		return models.Job{}, fmt.Errorf("research failed: %s: %w", job.Error, ErrJobFailed)
	default:
		return models.Job{}, ErrNotReady
	}
}

// run polls the upstream interaction until done, then writes exactly one
// terminal value. It recovers from panics and never crashes the process.
func (s *Service) run(jobID, interactionID, outputPath string, startedAt time.Time) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in research runner", "error", r, "job_id", jobID)
			s.fail(jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	maxPolls := int(s.timeout / s.interval)
	if maxPolls < 1 {
		maxPolls = 1
	}

	var update *models.ResearchUpdate
	for poll := 1; poll <= maxPolls; poll++ {
		u, err := s.provider.PollResearch(ctx, interactionID)
		if err != nil {
			s.fail(jobID, fmt.Sprintf("polling research: %v", err))
			return
		}
		if u.Done {
			slog.Debug("interaction complete", "job_id", jobID, "polls", poll)
			update = &u
			break
		}

		// Progress is an estimate from the poll budget, capped at 85 until
		// the upstream reports done.
		progress := poll * 85 / maxPolls
		if progress > 85 {
			progress = 85
		}
		_ = s.store.SetProgress(jobID, progress, "Researching...")

		time.Sleep(s.interval)
	}

	if update == nil {
		s.fail(jobID, "research timed out waiting for upstream interaction")
		return
	}

	sources := update.Sources
	if len(sources) > 20 {
		sources = sources[:20]
	}
	result := &models.ResearchResult{
		Report:  update.Report,
		Sources: sources,
		Metadata: models.ResearchMetadata{
			DurationSeconds: time.Since(startedAt).Seconds(),
			SourcesAnalyzed: len(update.Sources),
		},
	}

	savedTo := ""
	if outputPath != "" {
		if err := writeReport(outputPath, update.Report); err != nil {
			s.fail(jobID, fmt.Sprintf("persisting report: %v", err))
			return
		}
		savedTo = outputPath
	}

	if err := s.store.Complete(jobID, result, savedTo); err != nil {
		slog.Error("failed to complete job", "job_id", jobID, "error", err)
		return
	}
	slog.Info("research job complete",
		"job_id", jobID,
		"report_chars", len(update.Report),
		"sources", len(update.Sources),
	)
}

func (s *Service) fail(jobID, message string) {
	if err := s.store.Fail(jobID, message); err != nil {
		slog.Error("failed to fail job", "job_id", jobID, "error", err)
	}
	slog.Warn("research job failed", "job_id", jobID, "reason", message)
}

// buildResearchQuery turns the structured spec into a single research query.
func buildResearchQuery(spec models.ResearchSpec) string {
	parts := []string{spec.ResearchGoal}

	if len(spec.FocusAreas) > 0 {
		areas := spec.FocusAreas
		if len(areas) > 5 {
			areas = areas[:5]
		}
		parts = append(parts, "Focus on: "+strings.Join(areas, ", "))
	}

	if spec.Domain != "" {
		parts = append(parts, "Domain: "+spec.Domain)
	}

	switch spec.Constraints.Recency {
	case "recent":
		parts = append(parts, "Focus on recent developments (2024-2025)")
	case "last_year":
		parts = append(parts, "Focus on 2024")
	}

	if len(spec.Exclusions) > 0 {
		excl := spec.Exclusions
		if len(excl) > 3 {
			excl = excl[:3]
		}
		parts = append(parts, "Exclude: "+strings.Join(excl, ", "))
	}

	return strings.Join(parts, ". ")
}

// writeReport persists the report with a temp-file-and-rename so a reader
// never sees a partial file.
func writeReport(path, report string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.WriteString(report); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename report file: %w", err)
	}
	return nil
}

func newJobID() string {
	return "research-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
