package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the top-level service configuration loaded from JSON.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Sanitizer SanitizerConfig `json:"sanitizer"`
	Input     InputConfig     `json:"input"`
}

// ServerConfig controls how MCP clients connect to the service.
type ServerConfig struct {
	Transport string     `json:"transport"` // "stdio" or "http"
	HTTP      HTTPConfig `json:"http"`
}

// HTTPConfig holds HTTP listener settings.
type HTTPConfig struct {
	Addr string `json:"addr"` // e.g. ":8080"
	Path string `json:"path"` // e.g. "/mcp"
}

// SanitizerConfig tunes the sanitization engine. Pointer fields are
// optional; nil means the default applies.
type SanitizerConfig struct {
	// TablesFile is a .json or .toml file whose fields replace the
	// matching built-in denylists. Relative paths resolve against the
	// directory of the config file.
	TablesFile    string `json:"tablesFile,omitempty"`
	MaxPasses     *int   `json:"maxPasses,omitempty"`
	MaxInputBytes *int   `json:"maxInputBytes,omitempty"`
}

// InputConfig controls the request input guard.
type InputConfig struct {
	// Exclude lists field names that are passed through unsanitized,
	// e.g. passwords that are hashed rather than displayed.
	Exclude []string `json:"exclude,omitempty"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultHTTPAddr      = ":8080"
	DefaultHTTPPath      = "/mcp"
	DefaultMaxPasses     = 64
	DefaultMaxInputBytes = 1 << 20
)

// Load reads and parses a JSON config file, applies defaults, and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if tf := cfg.Sanitizer.TablesFile; tf != "" && !filepath.IsAbs(tf) {
		cfg.Sanitizer.TablesFile = filepath.Join(filepath.Dir(path), tf)
	}

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Server.HTTP.Path == "" {
		cfg.Server.HTTP.Path = DefaultHTTPPath
	}

	if cfg.Sanitizer.MaxPasses == nil {
		cfg.Sanitizer.MaxPasses = intPtr(DefaultMaxPasses)
	}
	if cfg.Sanitizer.MaxInputBytes == nil {
		cfg.Sanitizer.MaxInputBytes = intPtr(DefaultMaxInputBytes)
	}
}

func validate(cfg Config) error {
	if cfg.Server.Transport != TransportStdio && cfg.Server.Transport != TransportHTTP {
		return fmt.Errorf("server transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, cfg.Server.Transport)
	}

	if cfg.Server.Transport == TransportHTTP && !strings.HasPrefix(cfg.Server.HTTP.Path, "/") {
		return fmt.Errorf("server.http.path must start with \"/\", got %q", cfg.Server.HTTP.Path)
	}

	if *cfg.Sanitizer.MaxPasses <= 0 {
		return fmt.Errorf("sanitizer.maxPasses must be positive, got %d", *cfg.Sanitizer.MaxPasses)
	}
	if *cfg.Sanitizer.MaxInputBytes <= 0 {
		return fmt.Errorf("sanitizer.maxInputBytes must be positive, got %d", *cfg.Sanitizer.MaxInputBytes)
	}

	for i, name := range cfg.Input.Exclude {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("input.exclude[%d]: name is required", i)
		}
	}

	if cfg.Sanitizer.TablesFile != "" {
		t, err := cfg.Tables()
		if err != nil {
			return fmt.Errorf("sanitizer.tablesFile: %w", err)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("sanitizer.tablesFile %s: %w", cfg.Sanitizer.TablesFile, err)
		}
	}

	return nil
}

func intPtr(i int) *int { return &i }
