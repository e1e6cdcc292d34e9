package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Claude struct {
	client *anthropic.Client
	model  string
}

func NewClaude(apiKey, model string) *Claude {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Claude{client: &client, model: model}
}

func (c *Claude) Analyze(ctx context.Context, content string, meta Meta) (string, error) {
	fullPrompt := fmt.Sprintf("%s\n\n---\n\nContent to audit:\n\n%s", BuildPrompt(meta), content)

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}

	var result strings.Builder
	for _, block := range message.Content {
		result.WriteString(block.AsText().Text)
	}
	return result.String(), nil
}
