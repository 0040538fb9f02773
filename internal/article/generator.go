// Package article generates article drafts from a research report, fanning
// out to a fixed set of model variants in parallel.
package article

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/articleforge/articleforge/pkg/models"
)

const (
	// VariantPro is the thorough, comprehensive draft.
	VariantPro = "pro"
	// VariantFlash is the faster, more concise draft.
	VariantFlash = "flash"
)

const (
	draftTemperature = 0.7
	draftMaxTokens   = 8192
)

// Generator fans one prompt out to both model variants. Both drafts are
// required outputs of the step, so any variant failure fails the whole call.
type Generator struct {
	provider models.Provider
	variants map[string]string // variant name -> model id
	timeout  time.Duration
}

func NewGenerator(provider models.Provider, proModel, flashModel string) *Generator {
	return &Generator{
		provider: provider,
		variants: map[string]string{
			VariantPro:   proModel,
			VariantFlash: flashModel,
		},
	}
}

// WithTimeout bounds each variant call. Zero means no generator-level bound.
func (g *Generator) WithTimeout(d time.Duration) *Generator {
	g.timeout = d
	return g
}

// GenerateVariants issues all variant calls concurrently and joins them.
// The returned map is keyed by variant name, never by completion order.
func (g *Generator) GenerateVariants(ctx context.Context, research string, spec models.ResearchSpec) (map[string]string, error) {
	prompt := buildPrompt(research, spec)
	slog.Info("generating article variants", "variants", len(g.variants), "prompt_chars", len(prompt))

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type outcome struct {
		name    string
		content string
		err     error
	}

	results := make([]outcome, 0, len(g.variants))
	for name := range g.variants {
		results = append(results, outcome{name: name})
	}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(slot *outcome) {
			defer wg.Done()
			slot.content, slot.err = g.provider.GenerateText(ctx, models.TextRequest{
				Model:       g.variants[slot.name],
				Prompt:      prompt,
				Temperature: draftTemperature,
				MaxTokens:   draftMaxTokens,
			})
		}(&results[i])
	}
	wg.Wait()

	out := make(map[string]string, len(results))
	for _, r := range results {
		if r.err != nil {
			// All-or-nothing: a missing variant is not meaningful on its own.
			return nil, fmt.Errorf("variant %q: %w", r.name, r.err)
		}
		out[r.name] = r.content
	}

	return out, nil
}

func buildPrompt(research string, spec models.ResearchSpec) string {
	audience := spec.Audience.ExpertiseLevel
	if audience == "" {
		audience = "general"
	}
	format := spec.OutputPreferences.Format
	if format == "" {
		format = "blog"
	}
	wordCount := spec.OutputPreferences.WordCount
	if wordCount == 0 {
		wordCount = 2000
	}

	return fmt.Sprintf(`Based on the following research, write a comprehensive article.

## Research
%s

## Requirements
- Target audience: %s level readers
- Format: %s post
- Target word count: ~%d words
- Tone: Professional but accessible
- Include specific examples and data points
- Structure with clear sections and headings
- Include citations to sources where appropriate

Write the article in markdown format with proper headings, paragraphs, and formatting.`,
		research, audience, format, wordCount)
}
