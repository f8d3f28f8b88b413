//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the assistant configuration from YAML.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/runner"
)

//go:embed default.yaml
var defaultYAML []byte

// Backends accepted by CheckpointConfig.Backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

// Providers accepted by ModelConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root of the assistant configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Model      ModelConfig      `yaml:"model"`
	Runner     runner.Config    `yaml:"runner"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Tools      ToolsConfig      `yaml:"tools"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Shop       ShopConfig       `yaml:"shop"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Primary    ScopeConfig      `yaml:"primary"`
	Scopes     []ScopeConfig    `yaml:"scopes" validate:"dive"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string          `yaml:"addr" validate:"required"`
	CORSOrigins     []string        `yaml:"cors_origins"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" validate:"gte=0"`
}

// RateLimitConfig is a token bucket shared by all clients. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error fatal"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// ModelConfig selects the LLM backend.
type ModelConfig struct {
	Provider string `yaml:"provider" validate:"oneof=openai anthropic gemini mock"`
	Name     string `yaml:"name" validate:"required_unless=Provider mock"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv   string  `yaml:"api_key_env"`
	MaxAttempts int     `yaml:"max_attempts" validate:"gte=1,lte=10"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
}

// APIKey reads the key from the environment variable named by APIKeyEnv.
func (m ModelConfig) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// CheckpointConfig selects where conversation checkpoints are kept.
type CheckpointConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory sqlite postgres redis badger"`
	// DSN is a file path for sqlite, a directory for badger and a URL for
	// postgres and redis.
	DSN       string        `yaml:"dsn" validate:"required_unless=Backend memory"`
	TTL       time.Duration `yaml:"ttl" validate:"gte=0"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// ToolsConfig configures tool execution.
type ToolsConfig struct {
	Concurrency int         `yaml:"concurrency" validate:"gte=1,lte=64"`
	Fetch       FetchConfig `yaml:"fetch"`
}

// FetchConfig configures the fetch_url tool.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxChars  int           `yaml:"max_chars" validate:"gte=0"`
}

// KnowledgeConfig configures the two document bases.
type KnowledgeConfig struct {
	ChunkSize    int                 `yaml:"chunk_size" validate:"gte=0"`
	ChunkOverlap int                 `yaml:"chunk_overlap" validate:"gte=0"`
	MaxResults   int                 `yaml:"max_results" validate:"gte=1,lte=20"`
	Policies     KnowledgeBaseConfig `yaml:"policies"`
	Guides       KnowledgeBaseConfig `yaml:"guides"`
}

// KnowledgeBaseConfig lists the directories and doublestar patterns of one base.
type KnowledgeBaseConfig struct {
	Dirs     []string `yaml:"dirs"`
	Patterns []string `yaml:"patterns"`
}

// ShopConfig configures the in-memory shop backend.
type ShopConfig struct {
	// DemoCatalog seeds the catalog with demo products.
	DemoCatalog bool `yaml:"demo_catalog"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Traces  ExporterConfig `yaml:"traces"`
	Metrics ExporterConfig `yaml:"metrics"`
}

// ExporterConfig configures one OTLP exporter.
type ExporterConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol" validate:"omitempty,oneof=grpc http"`
}

// ScopeConfig declares one assistant scope.
type ScopeConfig struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Instruction    string   `yaml:"instruction" validate:"required"`
	SafeTools      []string `yaml:"safe_tools"`
	SensitiveTools []string `yaml:"sensitive_tools"`
	ContextFields  []string `yaml:"context_fields"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded default: %v", err))
	}
	return cfg
}

// Load reads the file at path over the embedded defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes data over the embedded defaults and validates the result.
// Mappings merge into the defaults; lists replace them.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := decode(defaultYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: embedded default: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field constraints and scope declarations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Primary.Name != "" && c.Primary.Name != dialog.Primary {
		return fmt.Errorf("%w: primary scope must be named %q", ErrInvalid, dialog.Primary)
	}
	seen := map[string]bool{dialog.Primary: true}
	for _, s := range c.Scopes {
		if s.Name == "" {
			return fmt.Errorf("%w: scope without a name", ErrInvalid)
		}
		if !dialog.Valid(s.Name) {
			return fmt.Errorf("%w: unknown scope %q", ErrInvalid, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate scope %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
		if s.Description == "" {
			return fmt.Errorf("%w: scope %q has no description", ErrInvalid, s.Name)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
