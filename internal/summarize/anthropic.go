package summarize

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

type anthropicBackend struct {
	apiKey string
	model  string
	opts   []option.RequestOption
}

func newAnthropicBackend(cfg Config) *anthropicBackend {
	return &anthropicBackend{
		apiKey: cfg.AnthropicAPIKey,
		model:  cfg.AnthropicModel,
		opts:   []option.RequestOption{option.WithRequestTimeout(cfg.Timeout)},
	}
}

func (b *anthropicBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if b.apiKey == "" {
		return "", missingKeyError("ANTHROPIC_API_KEY")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(b.apiKey)}, b.opts...)...)
	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text in response")
	}
	return sb.String(), nil
}
