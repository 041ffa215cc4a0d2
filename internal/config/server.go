package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Server is the file-backed server configuration.
type Server struct {
	Addr             string `yaml:"addr"`
	LogLevel         string `yaml:"logLevel"`
	ConfigLocation   string `yaml:"configLocation"`
	LocationSchedule string `yaml:"locationSchedule"`
	OfferTimeoutMS   int    `yaml:"offerTimeoutMs"`
}

// LoadServerConfig loads the server configuration from config/server.yaml
func LoadServerConfig() (*Server, error) {
	return LoadServerConfigFromPath(filepath.Join("config", "server.yaml"))
}

// LoadServerConfigFromPath loads the server configuration from a specific path
func LoadServerConfigFromPath(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	var cfg Server
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("server config: addr is required")
	}
	if cfg.OfferTimeoutMS < 0 {
		return nil, fmt.Errorf("server config: offerTimeoutMs must not be negative")
	}

	return &cfg, nil
}

// LoadServerConfigOrDefault loads the server config or returns the default
// if the file is not found.
func LoadServerConfigOrDefault() *Server {
	cfg, err := LoadServerConfig()
	if err != nil {
		return DefaultServerConfig()
	}
	return cfg
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() *Server {
	return &Server{
		Addr:             ":8080",
		LogLevel:         "info",
		ConfigLocation:   "",
		LocationSchedule: "@every 10s",
		OfferTimeoutMS:   2000,
	}
}

// Env carries environment overrides and secrets that never live in the
// config file.
type Env struct {
	Addr           string `env:"COMPANION_ADDR"`
	LogLevel       string `env:"LOG_LEVEL"`
	ConfigLocation string `env:"CONFIG_LOCATION"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisAddr      string `env:"REDIS_ADDR"`
	TokenEndpoint  string `env:"IMS_TOKEN_ENDPOINT"`
	TokenClientID  string `env:"IMS_CLIENT_ID"`
	TokenSecret    string `env:"IMS_CLIENT_SECRET"`
	TokenScopes    string `env:"IMS_SCOPES"`
}

// LoadEnv decodes the environment overrides. All fields are optional.
func LoadEnv() (Env, error) {
	var env Env
	if err := envdecode.Decode(&env); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return Env{}, err
	}
	return env, nil
}

// Apply overlays the environment values onto the file configuration.
func (e Env) Apply(cfg *Server) {
	if e.Addr != "" {
		cfg.Addr = e.Addr
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.ConfigLocation != "" {
		cfg.ConfigLocation = e.ConfigLocation
	}
}
