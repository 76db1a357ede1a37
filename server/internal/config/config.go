package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultLogLevel        = "info"
	DefaultSessionTTL      = 30 * time.Minute
	DefaultBreathingCycles = 3
	DefaultInhale          = 4 * time.Second
	DefaultExhale          = 4 * time.Second
	DefaultPingPeriod      = 54 * time.Second
)

// Config holds the configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the web UI, REST API and WebSocket endpoints listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Auth configures how the server authenticates REST API clients.
	Auth AuthConfig `yaml:"auth"`

	// Session controls in-memory session retention.
	Session SessionConfig `yaml:"session"`

	// Breathing controls the guided breathing exercise.
	Breathing BreathingConfig `yaml:"breathing"`

	// WebSocket tunes the keepalive of streaming connections.
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// AuthConfig controls client authentication for /api/ routes.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// SessionConfig controls how long idle sessions are kept.
type SessionConfig struct {
	// TTL is how long a session survives without activity. Default: 30m.
	TTL time.Duration `yaml:"ttl"`
}

// BreathingConfig describes the scripted breathing exercise.
type BreathingConfig struct {
	// Cycles is the number of inhale/exhale pairs (default 3).
	Cycles int `yaml:"cycles"`

	// Inhale is how long each "Inhale..." prompt is shown (default 4s).
	Inhale time.Duration `yaml:"inhale"`

	// Exhale is how long each "Exhale..." prompt is shown (default 4s).
	Exhale time.Duration `yaml:"exhale"`
}

// WebSocketConfig tunes streaming connections.
type WebSocketConfig struct {
	// PingPeriod is how often ping frames are sent to idle clients (default 54s).
	PingPeriod time.Duration `yaml:"ping_period"`
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values fall back to info;
// validate rejects them before this is reached.
func (s ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values. It is what the
// server runs with when no config file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			LogLevel: DefaultLogLevel,
			Session: SessionConfig{
				TTL: DefaultSessionTTL,
			},
			Breathing: BreathingConfig{
				Cycles: DefaultBreathingCycles,
				Inhale: DefaultInhale,
				Exhale: DefaultExhale,
			},
			WebSocket: WebSocketConfig{
				PingPeriod: DefaultPingPeriod,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", s.LogLevel)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Auth.Mode == "apikey" && s.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required when mode is apikey")
	}
	if s.Session.TTL <= 0 {
		return fmt.Errorf("server.session.ttl must be positive")
	}
	if s.Breathing.Cycles <= 0 {
		return fmt.Errorf("server.breathing.cycles must be positive")
	}
	if s.Breathing.Inhale <= 0 || s.Breathing.Exhale <= 0 {
		return fmt.Errorf("server.breathing.inhale and exhale must be positive")
	}
	if s.WebSocket.PingPeriod <= 0 {
		return fmt.Errorf("server.websocket.ping_period must be positive")
	}
	return nil
}
