// Package gemini implements models.Provider against the Google Generative
// Language HTTP API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/articleforge/articleforge/internal/config"
	"github.com/articleforge/articleforge/pkg/models"
)

// Provider implements models.Provider using Gemini for text, Imagen for
// images (with a Gemini image-output fallback), and the background
// interactions API for deep research.
type Provider struct {
	cfg    config.GeminiConfig
	client *http.Client
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Provider) Name() string { return "gemini" }

// StartResearch creates a background deep-research interaction and returns its ID.
func (p *Provider) StartResearch(ctx context.Context, query string) (string, error) {
	body := map[string]any{
		"agent":      p.cfg.ResearchModel,
		"input":      query,
		"background": true,
	}

	raw, err := p.post(ctx, fmt.Sprintf("%s/v1beta/interactions", p.cfg.BaseURL), body)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding interaction response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: interaction has no id", models.ErrInvalidResponse)
	}

	slog.Debug("research interaction started", "interaction_id", resp.ID, "agent", p.cfg.ResearchModel)
	return resp.ID, nil
}

// PollResearch fetches the current state of a research interaction.
func (p *Provider) PollResearch(ctx context.Context, interactionID string) (models.ResearchUpdate, error) {
	raw, err := p.get(ctx, fmt.Sprintf("%s/v1beta/interactions/%s", p.cfg.BaseURL, interactionID))
	if err != nil {
		return models.ResearchUpdate{}, err
	}

	var resp struct {
		Done     bool   `json:"done"`
		Output   string `json:"output"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ResearchUpdate{}, fmt.Errorf("decoding interaction state: %w", err)
	}

	update := models.ResearchUpdate{Done: resp.Done}
	if !resp.Done {
		return update, nil
	}

	update.Report = resp.Output
	if update.Report == "" {
		// No direct output: take the last assistant message instead.
		for i := len(resp.Messages) - 1; i >= 0; i-- {
			if resp.Messages[i].Role == "assistant" && resp.Messages[i].Content != "" {
				update.Report = resp.Messages[i].Content
				break
			}
		}
	}

	for _, chunk := range resp.GroundingMetadata.GroundingChunks {
		if chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = "Untitled"
		}
		update.Sources = append(update.Sources, models.ResearchSource{Title: title, URL: chunk.Web.URI})
	}

	return update, nil
}

// GenerateText produces markdown text for the prompt with the requested model.
func (p *Provider) GenerateText(ctx context.Context, req models.TextRequest) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     req.Temperature,
			"maxOutputTokens": req.MaxTokens,
		},
	}

	raw, err := p.post(ctx, fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.cfg.BaseURL, req.Model), body)
	if err != nil {
		return "", err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding generateContent response: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no text candidates", models.ErrInvalidResponse)
}

// GenerateImage produces PNG bytes for the prompt. Imagen is tried first;
// if it fails, the Gemini image-output path is used as a fallback.
func (p *Provider) GenerateImage(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	data, err := p.generateImagen(ctx, req)
	if err == nil {
		return data, nil
	}

	slog.Warn("imagen generation failed, trying gemini fallback", "error", err)
	return p.generateImageFallback(ctx, req)
}

func (p *Provider) generateImagen(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	body := map[string]any{
		"instances": []map[string]any{{"prompt": req.Prompt}},
		"parameters": map[string]any{
			"sampleCount": 1,
			"aspectRatio": req.AspectRatio,
		},
	}

	raw, err := p.post(ctx, fmt.Sprintf("%s/v1beta/models/%s:predict", p.cfg.BaseURL, p.cfg.ImageModel), body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding predict response: %w", err)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("%w: no image predictions", models.ErrInvalidResponse)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: image payload is not base64", models.ErrInvalidResponse)
	}
	return data, nil
}

func (p *Provider) generateImageFallback(ctx context.Context, req models.ImageRequest) ([]byte, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": "Generate an image: " + req.Prompt}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"IMAGE", "TEXT"},
		},
	}

	raw, err := p.post(ctx, fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.cfg.BaseURL, p.cfg.ImageModel), body)
	if err != nil {
		return nil, err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding generateContent response: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: inline image is not base64", models.ErrInvalidResponse)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: fallback produced no image", models.ErrInvalidResponse)
}

func (p *Provider) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return p.do(httpReq)
}

func (p *Provider) get(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return p.do(httpReq)
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	slog.Debug("gemini api call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrProviderUnavailable, resp.StatusCode, apiErrorMessage(raw))
	}
	return raw, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
}

// apiErrorMessage pulls the error message out of an API error body, falling
// back to the raw body when it does not parse.
func apiErrorMessage(raw []byte) string {
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Compile-time check that Provider implements models.Provider.
var _ models.Provider = (*Provider)(nil)
