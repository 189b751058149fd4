package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"resilience-rag/internal/config"
	"resilience-rag/internal/embedding"
	"resilience-rag/internal/llmservice"
	"resilience-rag/internal/memory"
	"resilience-rag/internal/registry"
	"resilience-rag/internal/retrieval"
	"resilience-rag/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment as is")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	applyEnvOverrides(cfg)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	completer := llmservice.NewClient(&cfg.ChatLLM)

	mem := memory.NewStore(embedder)
	reg, err := registry.New(cfg.Uploads.Dir, embedder, cfg.RAG, mem)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing registry")
	}
	agg := retrieval.NewAggregator(completer)

	srv := server.NewServer(reg, mem, agg, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func applyEnvOverrides(cfg *config.Config) {
	if key := os.Getenv("EMBED_LLM_API_KEY"); key != "" {
		cfg.EmbedLLM.Key = key
	}
	if key := os.Getenv("CHAT_LLM_API_KEY"); key != "" {
		cfg.ChatLLM.Key = key
	}
}
