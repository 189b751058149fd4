// Package embedding constructs the text embedders used to build and query
// vector indexes. Providers are reached through langchaingo; everything
// downstream depends only on the embeddings.Embedder interface.
package embedding

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"resilience-rag/internal/config"
)

// NewEmbedder builds an embedder for the configured provider.
func NewEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai", "":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// NewOpenAIEmbedder targets any OpenAI-compatible endpoint.
func NewOpenAIEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder targets a local Ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}
