package research

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/articleforge/articleforge/internal/gen/mock"
	"github.com/articleforge/articleforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() models.ResearchSpec {
	spec := models.ResearchSpec{
		ResearchGoal: "State of quantum networking",
		Domain:       "networking",
		FocusAreas:   []string{"entanglement distribution", "repeaters"},
		Exclusions:   []string{"vendor press releases"},
	}
	spec.Constraints.Recency = "recent"
	spec.ApplyDefaults()
	return spec
}

func newTestService(p models.Provider) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	// Short timings so runner loops settle within the test.
	return NewService(p, store, 500*time.Millisecond, 5*time.Millisecond), store
}

// waitTerminal polls the store the way an external caller would, giving up
// after the deadline.
func waitTerminal(t *testing.T, svc *Service, id string, deadline time.Duration) models.Job {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		job, err := svc.Status(id)
		require.NoError(t, err)
		if job.Terminal() {
			return job
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return models.Job{}
}

func TestStart_ReturnsImmediately(t *testing.T) {
	blocked := make(chan struct{})
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		<-blocked
		return models.ResearchUpdate{Done: true, Report: "r"}, nil
	}
	svc, _ := newTestService(p)

	start := time.Now()
	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, models.JobStatusRunning, receipt.Status)
	assert.NotEmpty(t, receipt.JobID)
	assert.Positive(t, receipt.EstimatedTimeSeconds)

	close(blocked)
}

func TestStart_QueryBuiltFromSpec(t *testing.T) {
	var gotQuery string
	p := mock.NewMockProvider()
	p.StartResearchFunc = func(_ context.Context, query string) (string, error) {
		gotQuery = query
		return "int-1", nil
	}
	svc, _ := newTestService(p)

	_, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "State of quantum networking")
	assert.Contains(t, gotQuery, "Focus on: entanglement distribution, repeaters")
	assert.Contains(t, gotQuery, "Domain: networking")
	assert.Contains(t, gotQuery, "recent developments")
	assert.Contains(t, gotQuery, "Exclude: vendor press releases")
}

func TestStart_UpstreamStartFailure(t *testing.T) {
	p := mock.NewFailingProvider(errors.New("quota exhausted"))
	svc, _ := newTestService(p)

	_, err := svc.Start(context.Background(), testSpec(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestRunner_CompletesJob(t *testing.T) {
	var polls atomic.Int32
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		if polls.Add(1) < 3 {
			return models.ResearchUpdate{}, nil
		}
		return models.ResearchUpdate{
			Done:    true,
			Report:  "# Findings\n\nEverything checks out.",
			Sources: []models.ResearchSource{{Title: "A", URL: "https://a.example"}},
		}, nil
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, time.Second)
	assert.Equal(t, models.JobStatusComplete, job.Status)
	require.NotNil(t, job.Result)
	assert.Contains(t, job.Result.Report, "Findings")
	assert.Equal(t, 1, job.Result.Metadata.SourcesAnalyzed)
	assert.Equal(t, 100, job.Progress)
}

func TestRunner_PollFailureFailsJob(t *testing.T) {
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		return models.ResearchUpdate{}, errors.New("interaction gone")
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, time.Second)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "interaction gone")
}

func TestRunner_PollBudgetExhausted(t *testing.T) {
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		return models.ResearchUpdate{}, nil // never done
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, 5*time.Second)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "timed out")
}

func TestRunner_PanicIsContained(t *testing.T) {
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		panic("runner blew up")
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, time.Second)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "panic")
}

func TestRunner_PersistsReport(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "reports", "quantum.md")
	p := mock.NewMockProvider()
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), outPath)
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, time.Second)
	require.Equal(t, models.JobStatusComplete, job.Status)
	assert.Equal(t, outPath, job.SavedTo)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mock Research Report")
}

func TestRunner_PersistenceFailureFailsJob(t *testing.T) {
	// Target a path under an existing file so MkdirAll fails.
	base := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0644))
	outPath := filepath.Join(base, "sub", "report.md")

	p := mock.NewMockProvider()
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), outPath)
	require.NoError(t, err)

	job := waitTerminal(t, svc, receipt.JobID, time.Second)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "persisting report")
}

func TestResult_NotReadyWhileRunning(t *testing.T) {
	blocked := make(chan struct{})
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		<-blocked
		return models.ResearchUpdate{Done: true, Report: "r"}, nil
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)

	_, err = svc.Result(receipt.JobID)
	assert.ErrorIs(t, err, ErrNotReady)

	close(blocked)
}

func TestResult_UnknownJob(t *testing.T) {
	svc, _ := newTestService(mock.NewMockProvider())
	_, err := svc.Result("research-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Status("research-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResult_FailedJobSurfacesError(t *testing.T) {
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		return models.ResearchUpdate{}, errors.New("model overloaded")
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)
	waitTerminal(t, svc, receipt.JobID, time.Second)

	_, err = svc.Result(receipt.JobID)
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestResult_CompleteJobReturnsValue(t *testing.T) {
	svc, _ := newTestService(mock.NewMockProvider())

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)
	waitTerminal(t, svc, receipt.JobID, time.Second)

	job, err := svc.Result(receipt.JobID)
	require.NoError(t, err)
	require.NotNil(t, job.Result)
	assert.Contains(t, job.Result.Report, "Mock Research Report")
}

func TestSourcesCappedAtTwenty(t *testing.T) {
	sources := make([]models.ResearchSource, 30)
	for i := range sources {
		sources[i] = models.ResearchSource{Title: "s", URL: "https://example.com"}
	}
	p := mock.NewMockProvider()
	p.PollResearchFunc = func(_ context.Context, _ string) (models.ResearchUpdate, error) {
		return models.ResearchUpdate{Done: true, Report: "r", Sources: sources}, nil
	}
	svc, _ := newTestService(p)

	receipt, err := svc.Start(context.Background(), testSpec(), "")
	require.NoError(t, err)
	job := waitTerminal(t, svc, receipt.JobID, time.Second)

	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Sources, 20)
	assert.Equal(t, 30, job.Result.Metadata.SourcesAnalyzed)
}
