package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

type geminiBackend struct {
	apiKey  string
	model   string
	timeout time.Duration
}

func newGeminiBackend(cfg Config) *geminiBackend {
	return &geminiBackend{apiKey: cfg.GeminiAPIKey, model: cfg.GeminiModel, timeout: cfg.Timeout}
}

func (b *geminiBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if b.apiKey == "" {
		return "", missingKeyError("GEMINI_API_KEY")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, b.model, genai.Text(user), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(Temperature)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("no text in response")
	}
	return text, nil
}
