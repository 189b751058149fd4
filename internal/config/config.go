package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Uploads  UploadsConfig `yaml:"uploads"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	ChatLLM  LLMConfig     `yaml:"chat_llm"`
	RAG      RAGConfig     `yaml:"rag"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type UploadsConfig struct {
	Dir       string `yaml:"dir"`
	DemoDir   string `yaml:"demo_dir"`
	MaxSizeMB int64  `yaml:"max_size_mb"`
}

// LLMConfig points at one OpenAI-compatible or Ollama endpoint.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	LineLen       int `yaml:"line_len"`
	WindowSize    int `yaml:"window_size"`
	WindowOverlap int `yaml:"window_overlap"`
	TopK          int `yaml:"top_k"`
}

const (
	DefaultChunkSize     = 1500
	DefaultLineLen       = 100
	DefaultWindowSize    = 1200
	DefaultWindowOverlap = 100
	DefaultTopK          = 5
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset numeric knobs.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "./uploads"
	}
	if c.Uploads.DemoDir == "" {
		c.Uploads.DemoDir = "./demo_docs"
	}
	if c.Uploads.MaxSizeMB == 0 {
		c.Uploads.MaxSizeMB = 15
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.LineLen == 0 {
		c.RAG.LineLen = DefaultLineLen
	}
	if c.RAG.WindowSize == 0 {
		c.RAG.WindowSize = DefaultWindowSize
	}
	if c.RAG.WindowOverlap == 0 {
		c.RAG.WindowOverlap = DefaultWindowOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
}
