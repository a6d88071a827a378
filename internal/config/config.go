package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the env var holding an optional YAML config file. File
// values replace the defaults; env vars override both.
const FileEnv = "PAGELENS_CONFIG"

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Indexing and summarization collaborator
	RAGURL string `yaml:"rag_url"`

	// Local generation collaborator
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	// Zero means collaborator calls never time out.
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout"`

	// Document loading
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	BrowserTimeout   time.Duration `yaml:"browser_timeout"`
	MaxDocumentBytes int64         `yaml:"max_document_bytes"`
	ReaderMode       bool          `yaml:"reader_mode"`

	// Session state
	SessionTTL  time.Duration `yaml:"session_ttl"`
	MaxSessions int           `yaml:"max_sessions"`
}

func Defaults() Config {
	return Config{
		Port:             "8091",
		LogLevel:         "info",
		RAGURL:           "http://127.0.0.1:8000",
		OllamaURL:        "http://localhost:11434",
		OllamaModel:      "mistral",
		FetchTimeout:     30 * time.Second,
		BrowserTimeout:   30 * time.Second,
		MaxDocumentBytes: 10485760, // 10MB
		SessionTTL:       1 * time.Hour,
		MaxSessions:      100,
	}
}

func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.RAGURL = envOr("RAG_URL", cfg.RAGURL)
	cfg.OllamaURL = envOr("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaModel = envOr("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.CollaboratorTimeout = envDuration("COLLABORATOR_TIMEOUT", cfg.CollaboratorTimeout)
	cfg.FetchTimeout = envDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.BrowserTimeout = envDuration("BROWSER_TIMEOUT", cfg.BrowserTimeout)
	cfg.MaxDocumentBytes = envInt64("MAX_DOCUMENT_BYTES", cfg.MaxDocumentBytes)
	cfg.ReaderMode = envBool("READER_MODE", cfg.ReaderMode)
	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.MaxSessions = envInt("MAX_SESSIONS", cfg.MaxSessions)

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Defaults()
	if c.CollaboratorTimeout < 0 {
		c.CollaboratorTimeout = 0
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.BrowserTimeout <= 0 {
		c.BrowserTimeout = d.BrowserTimeout
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = d.MaxDocumentBytes
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = d.MaxSessions
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	for name, raw := range map[string]string{"RAG_URL": c.RAGURL, "OLLAMA_URL": c.OllamaURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}
	if c.OllamaModel == "" {
		return fmt.Errorf("OLLAMA_MODEL is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
