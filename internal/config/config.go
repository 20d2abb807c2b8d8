package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds CrashSense configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Reasoner  ReasonerConfig  `yaml:"reasoner"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr      string          `yaml:"addr"`     // HTTP listen address, e.g. ":8080"
	APIKeys   []string        `yaml:"api_keys"` // empty list disables auth
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"` // 0 disables throttling
	Burst int     `yaml:"burst"`
}

type EngineConfig struct {
	// Mode selects the classification path: "assisted" tries the reasoning
	// service first and degrades to the rule table, "rules" is deterministic
	// only.
	Mode string `yaml:"mode"`
}

type ReasonerConfig struct {
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	APIKeyEnv        string `yaml:"api_key_env"` // e.g. "OPENAI_API_KEY"
	TimeoutMS        int    `yaml:"timeout_ms"`
	MaxResponseBytes int64  `yaml:"max_response_bytes"`
}

type NotifierConfig struct {
	GatewayURL  string `yaml:"gateway_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Destination string `yaml:"destination"` // the single emergency contact
	TimeoutMS   int    `yaml:"timeout_ms"`
	Async       bool   `yaml:"async"`
	QueueSize   int    `yaml:"queue_size"`
	Workers     int    `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns the default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		cfg.Server.RateLimit.Burst = 10
	}
	if cfg.Engine.Mode == "" {
		cfg.Engine.Mode = "assisted"
	}
	if cfg.Reasoner.Model == "" {
		cfg.Reasoner.Model = "gpt-4o-mini"
	}
	if cfg.Reasoner.APIKeyEnv == "" {
		cfg.Reasoner.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Reasoner.TimeoutMS <= 0 {
		cfg.Reasoner.TimeoutMS = 10000
	}
	if cfg.Notifier.APIKeyEnv == "" {
		cfg.Notifier.APIKeyEnv = "SMS_GATEWAY_API_KEY"
	}
	if cfg.Notifier.TimeoutMS <= 0 {
		cfg.Notifier.TimeoutMS = 5000
	}
	if cfg.Notifier.QueueSize <= 0 {
		cfg.Notifier.QueueSize = 256
	}
	if cfg.Notifier.Workers <= 0 {
		cfg.Notifier.Workers = 2
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// ReasonerTimeout converts the configured timeout to a duration.
func (c *Config) ReasonerTimeout() time.Duration {
	return time.Duration(c.Reasoner.TimeoutMS) * time.Millisecond
}

// NotifierTimeout converts the configured timeout to a duration.
func (c *Config) NotifierTimeout() time.Duration {
	return time.Duration(c.Notifier.TimeoutMS) * time.Millisecond
}

// ReasonerAPIKey resolves the reasoning-service key from the environment.
func (c *Config) ReasonerAPIKey() string {
	return os.Getenv(c.Reasoner.APIKeyEnv)
}

// NotifierAPIKey resolves the gateway key from the environment.
func (c *Config) NotifierAPIKey() string {
	return os.Getenv(c.Notifier.APIKeyEnv)
}
