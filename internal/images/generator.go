// Package images generates a batch of images where each item succeeds or
// fails on its own; one bad item never voids the rest of the batch.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/articleforge/articleforge/pkg/models"
)

// ItemError records one failed batch item by its destination identifier.
type ItemError struct {
	Destination string `json:"destination"`
	Message     string `json:"message"`
}

// Report aggregates a whole batch. Successful + Failed always equals Total;
// no item is silently dropped.
type Report struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Items      []string    `json:"items"`
	Errors     []ItemError `json:"errors"`
}

// Generator runs image batches against a generation provider.
type Generator struct {
	provider models.Provider
}

func NewGenerator(provider models.Provider) *Generator {
	return &Generator{provider: provider}
}

// GenerateBatch issues one generation call per prompt concurrently and writes
// each produced image to its own destination under outputDir. Items resolve
// independently; per-item failures are reported, never fatal.
func (g *Generator) GenerateBatch(ctx context.Context, prompts []models.ImagePrompt, outputDir string) (*Report, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	slog.Info("generating image batch", "items", len(prompts), "output_dir", outputDir)

	type outcome struct {
		path string
		err  error
	}

	outcomes := make([]outcome, len(prompts))

	var wg sync.WaitGroup
	for i := range prompts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prompt := prompts[i]
			prompt.ApplyDefaults()
			// Destination is derived from the item's position and purpose, so
			// no two items in a batch ever share a writer.
			dest := fmt.Sprintf("%d-%s.png", i+1, prompt.Purpose)

			if strings.TrimSpace(prompt.Description) == "" {
				outcomes[i] = outcome{path: dest, err: fmt.Errorf("description is required")}
				return
			}

			data, err := g.provider.GenerateImage(ctx, models.ImageRequest{
				Prompt:      buildImagePrompt(prompt),
				AspectRatio: prompt.AspectRatio,
			})
			if err != nil {
				outcomes[i] = outcome{path: dest, err: err}
				return
			}

			full := filepath.Join(outputDir, dest)
			if err := os.WriteFile(full, data, 0644); err != nil {
				outcomes[i] = outcome{path: dest, err: fmt.Errorf("write image: %w", err)}
				return
			}
			outcomes[i] = outcome{path: full}
		}(i)
	}
	wg.Wait()

	report := &Report{
		Total:  len(prompts),
		Items:  []string{},
		Errors: []ItemError{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			report.Failed++
			report.Errors = append(report.Errors, ItemError{Destination: o.path, Message: o.err.Error()})
			continue
		}
		report.Successful++
		report.Items = append(report.Items, o.path)
	}

	slog.Info("image batch finished",
		"total", report.Total,
		"successful", report.Successful,
		"failed", report.Failed,
	)
	return report, nil
}

// buildImagePrompt assembles the full prompt including quality modifiers and
// a style clause when the style is not already part of the description.
func buildImagePrompt(p models.ImagePrompt) string {
	parts := []string{p.Description}

	if len(p.QualityModifiers) > 0 {
		parts = append(parts, strings.Join(p.QualityModifiers, ", "))
	}

	if p.Style != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(p.Style)) {
		parts = append(parts, "Style: "+p.Style)
	}

	return strings.Join(parts, ". ")
}
