package models

import "context"

// Provider is the core interface every generation backend must implement.
// Callers take this interface rather than a concrete backend.
type Provider interface {
	// StartResearch begins a background deep-research run for the query and
	// returns an opaque upstream interaction ID.
	StartResearch(ctx context.Context, query string) (string, error)
	// PollResearch fetches the current state of a research interaction.
	PollResearch(ctx context.Context, interactionID string) (ResearchUpdate, error)
	// GenerateText produces markdown text for the prompt with a named model.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// GenerateImage produces raw image bytes (PNG) for the prompt.
	GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error)
	// Name returns the provider identifier (e.g., "gemini", "mock").
	Name() string
}

// TextRequest is the input to a single text generation call.
type TextRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// ImageRequest is the input to a single image generation call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
}

// ResearchUpdate is a snapshot of an upstream research interaction.
type ResearchUpdate struct {
	Done    bool
	Report  string
	Sources []ResearchSource
}
