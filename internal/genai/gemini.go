// This file implements ClientInterface on the Google Gemini API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gemini "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the Gemini model used when none is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient wraps a Gemini generative model. One client is shared by
// all concurrent requests, so each call builds its own model handle
// instead of mutating shared state.
type GeminiClient struct {
	client      *gemini.Client
	modelName   string
	temperature float32
}

// NewGeminiClient initializes a Gemini client, falling back to the
// GEMINI_API_KEY environment variable when no key option is given.
func NewGeminiClient(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	cfg := Opts{Model: DefaultGeminiModel, Temperature: 0.7}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := gemini.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		slog.Error("genai.NewGeminiClient: client creation failed", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	slog.Debug("genai.NewGeminiClient: Gemini client created", "model", cfg.Model)
	return &GeminiClient{client: client, modelName: cfg.Model, temperature: float32(cfg.Temperature)}, nil
}

// buildModel returns a fresh model handle carrying the system instruction
// for one request.
func (c *GeminiClient) buildModel(systemPrompt string) *gemini.GenerativeModel {
	model := c.client.GenerativeModel(c.modelName)
	temp := c.temperature
	model.Temperature = &temp
	model.SystemInstruction = &gemini.Content{Parts: []gemini.Part{gemini.Text(systemPrompt)}}
	return model
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *GeminiClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := c.buildModel(systemPrompt)

	resp, err := model.GenerateContent(ctx, gemini.Text(userPrompt))
	if err != nil {
		slog.Error("genai.GeminiClient.GeneratePrompt: generation failed", "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		slog.Error("genai.GeminiClient.GeneratePrompt: empty candidates in response")
		return "", ErrNoChoicesReturned
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(gemini.Text); ok {
			sb.WriteString(string(text))
		}
	}
	slog.Debug("genai.GeminiClient.GeneratePrompt: generation succeeded", "length", sb.Len())
	return sb.String(), nil
}

// Close releases the underlying Gemini connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
