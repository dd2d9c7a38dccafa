package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "xiaomi/mimo-v2-flash:free"
	DefaultListen      = ":3001"
	DefaultMemoryPath  = "planwise.db"
	DefaultTemperature = 0.7

	// APIKeyEnv overrides the api key of the enabled provider.
	APIKeyEnv = "OPENROUTER_API_KEY"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app"`
	Server    ServerConfig              `json:"server" yaml:"server"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory"`
	Plans     PlansConfig               `json:"plans" yaml:"plans"`
	Logging   LoggingConfig             `json:"logging" yaml:"logging"`
}

type AppConfig struct {
	Name       string `json:"name" yaml:"name"`
	Referer    string `json:"referer" yaml:"referer"`
	PromptsDir string `json:"prompts_dir,omitempty" yaml:"prompts_dir,omitempty"`
}

type ServerConfig struct {
	Listen string `json:"listen" yaml:"listen"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type ProviderConfig struct {
	APIKey      string  `json:"api_key" yaml:"api_key"`
	Model       string  `json:"model" yaml:"model"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Enabled     bool    `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

type PlansConfig struct {
	// Images overrides the bundled card images.
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`
	// ShuffleSeed fixes the image order; 0 picks a time-based seed.
	ShuffleSeed int64 `json:"shuffle_seed,omitempty" yaml:"shuffle_seed,omitempty"`
	// Telegram /new uses these when the command omits them.
	DefaultRole  string `json:"default_role,omitempty" yaml:"default_role,omitempty"`
	DefaultFocus string `json:"default_focus,omitempty" yaml:"default_focus,omitempty"`
}

type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"` // json or console
	LLMLogPath string `json:"llm_log_path" yaml:"llm_log_path"`
}

// Default returns a config with a single OpenRouter provider, no api key.
func Default() *Config {
	return &Config{
		App:    AppConfig{Name: "PlanWise", Referer: "http://localhost:3000"},
		Server: ServerConfig{Listen: DefaultListen},
		Gateways: map[string]GatewayConfig{
			"telegram": {},
		},
		Providers: map[string]ProviderConfig{
			"openrouter": {
				Model:       DefaultModel,
				BaseURL:     DefaultBaseURL,
				Temperature: DefaultTemperature,
				Enabled:     true,
			},
		},
		Memory:  MemoryConfig{Type: "sqlite", Path: DefaultMemoryPath},
		Plans:   PlansConfig{DefaultRole: "student", DefaultFocus: "General"},
		Logging: LoggingConfig{Level: "info", Format: "json", LLMLogPath: filepath.Join("logs", "llm.jsonl")},
	}
}

// LoadConfig reads path (JSON, or YAML for .yaml/.yml) on top of Default.
// A missing file is not an error: the defaults plus environment are used.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyEnv() {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	name, p := c.GetDefaultProvider()
	if name == "" {
		name = "openrouter"
		p = ProviderConfig{Enabled: true}
	}
	p.APIKey = key
	c.Providers[name] = p
}

func (c *Config) fillDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Memory.Path == "" {
		c.Memory.Path = DefaultMemoryPath
	}
	if c.App.Name == "" {
		c.App.Name = "PlanWise"
	}
	for name, p := range c.Providers {
		if p.BaseURL == "" {
			p.BaseURL = DefaultBaseURL
		}
		if p.Model == "" {
			p.Model = DefaultModel
		}
		if p.Temperature == 0 {
			p.Temperature = DefaultTemperature
		}
		c.Providers[name] = p
	}
}

// GetDefaultProvider returns the enabled provider, preferring openrouter
// when several are enabled.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	if p, ok := c.Providers["openrouter"]; ok && p.Enabled {
		return "openrouter", p
	}
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled && tg.Token != "" {
		return tg, true
	}
	return GatewayConfig{}, false
}
