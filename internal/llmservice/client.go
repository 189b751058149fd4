// Package llmservice wraps the chat-completion provider behind a small
// interface so retrieval code and tests stay provider-agnostic.
package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"resilience-rag/internal/config"
)

// Completer turns a fully assembled prompt into an answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client is the langchaingo-backed Completer.
type Client struct {
	cfg *config.LLMConfig
}

func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{cfg: cfg}
}

// Complete sends a single human message to the configured model.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	log.Debug().Str("model", c.cfg.Model).Int("promptLen", len(prompt)).Msg("Generating completion")
	res, err := GenerateContent(ctx, c.cfg, nil, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Content, nil
}

// GenerateContent calls the LLM with optional tools.
func GenerateContent(ctx context.Context, llmConfig *config.LLMConfig, tools []llms.Tool, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, err
	}

	if len(tools) > 0 {
		return llm.GenerateContent(ctx, messages, llms.WithTools(tools))
	}
	return llm.GenerateContent(ctx, messages)
}
