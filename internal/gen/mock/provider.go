package mock

import (
	"context"
	"fmt"

	"github.com/articleforge/articleforge/pkg/models"
)

// MockProvider satisfies models.Provider for testing.
type MockProvider struct {
	Name_             string
	StartResearchFunc func(ctx context.Context, query string) (string, error)
	PollResearchFunc  func(ctx context.Context, interactionID string) (models.ResearchUpdate, error)
	GenerateTextFunc  func(ctx context.Context, req models.TextRequest) (string, error)
	GenerateImageFunc func(ctx context.Context, req models.ImageRequest) ([]byte, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) StartResearch(ctx context.Context, query string) (string, error) {
	if m.StartResearchFunc != nil {
		return m.StartResearchFunc(ctx, query)
	}
	return "interaction-mock", nil
}

func (m *MockProvider) PollResearch(ctx context.Context, interactionID string) (models.ResearchUpdate, error) {
	if m.PollResearchFunc != nil {
		return m.PollResearchFunc(ctx, interactionID)
	}
	return models.ResearchUpdate{Done: true, Report: "mock report"}, nil
}

func (m *MockProvider) GenerateText(ctx context.Context, req models.TextRequest) (string, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, req)
	}
	return "mock article from " + req.Model, nil
}

func (m *MockProvider) GenerateImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, req)
	}
	return []byte("mock-png"), nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		PollResearchFunc: func(_ context.Context, _ string) (models.ResearchUpdate, error) {
			return models.ResearchUpdate{
				Done:   true,
				Report: "# Mock Research Report\n\nSimulated findings for testing.",
				Sources: []models.ResearchSource{
					{Title: "Example source", URL: "https://example.com/source"},
				},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider whose every call returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		StartResearchFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
		PollResearchFunc: func(_ context.Context, _ string) (models.ResearchUpdate, error) {
			return models.ResearchUpdate{}, err
		},
		GenerateTextFunc: func(_ context.Context, _ models.TextRequest) (string, error) {
			return "", err
		},
		GenerateImageFunc: func(_ context.Context, _ models.ImageRequest) ([]byte, error) {
			return nil, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	blockUntilDone := func(ctx context.Context) error {
		<-ctx.Done()
		return fmt.Errorf("generation cancelled: %w", ctx.Err())
	}
	return &MockProvider{
		Name_: "mock-timeout",
		StartResearchFunc: func(ctx context.Context, _ string) (string, error) {
			return "", blockUntilDone(ctx)
		},
		PollResearchFunc: func(ctx context.Context, _ string) (models.ResearchUpdate, error) {
			return models.ResearchUpdate{}, blockUntilDone(ctx)
		},
		GenerateTextFunc: func(ctx context.Context, _ models.TextRequest) (string, error) {
			return "", blockUntilDone(ctx)
		},
		GenerateImageFunc: func(ctx context.Context, _ models.ImageRequest) ([]byte, error) {
			return nil, blockUntilDone(ctx)
		},
	}
}

// Compile-time check that MockProvider implements Provider.
var _ models.Provider = (*MockProvider)(nil)
