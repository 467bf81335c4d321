package translate

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
)

// Completer sends a prompt to a language model and returns its reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// LLMCompleter sends prompts through an LLM client as single user messages
type LLMCompleter struct {
	client    ports.LLMClient
	model     string
	maxTokens int
}

// NewLLMCompleter creates a completer for the given model
func NewLLMCompleter(client ports.LLMClient, model string, maxTokens int) *LLMCompleter {
	return &LLMCompleter{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer
func (c *LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := &domain.LLMRequest{
		Model: c.model,
		Messages: []domain.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: c.maxTokens,
	}

	respInterface, err := c.client.GenerateCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}

	resp, ok := respInterface.(*domain.LLMResponse)
	if !ok {
		return "", fmt.Errorf("unexpected response type from LLM: %T", respInterface)
	}

	return resp.Content, nil
}
