package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := writeFile(t, "config.json", `{
		"server": {"listen": ":8080"},
		"providers": {"openrouter": {"api_key": "sk-test", "model": "some/model", "enabled": true}},
		"gateways": {"telegram": {"token": "tg", "enabled": true}},
		"plans": {"shuffle_seed": 7}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openrouter" || p.APIKey != "sk-test" || p.Model != "some/model" {
		t.Errorf("unexpected provider %s: %+v", name, p)
	}
	if p.BaseURL != DefaultBaseURL || p.Temperature != DefaultTemperature {
		t.Errorf("defaults not filled: %+v", p)
	}
	if tg, ok := cfg.GetTelegramConfig(); !ok || tg.Token != "tg" {
		t.Errorf("telegram config not enabled: %+v", tg)
	}
	if cfg.Plans.ShuffleSeed != 7 {
		t.Errorf("shuffle seed = %d", cfg.Plans.ShuffleSeed)
	}
	if cfg.Memory.Path != DefaultMemoryPath {
		t.Errorf("memory path = %q", cfg.Memory.Path)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := writeFile(t, "config.yaml", `
memory:
  path: /tmp/plans.db
providers:
  openrouter:
    api_key: sk-yaml
    enabled: true
plans:
  images: ["/x.jpg", "/y.jpg"]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Memory.Path != "/tmp/plans.db" {
		t.Errorf("memory path = %q", cfg.Memory.Path)
	}
	_, p := cfg.GetDefaultProvider()
	if p.APIKey != "sk-yaml" || p.Model != DefaultModel {
		t.Errorf("unexpected provider: %+v", p)
	}
	if len(cfg.Plans.Images) != 2 {
		t.Errorf("images = %v", cfg.Plans.Images)
	}
	if _, ok := cfg.GetTelegramConfig(); ok {
		t.Error("telegram should be disabled by default")
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openrouter" || p.APIKey != "sk-env" {
		t.Errorf("env key not applied: %s %+v", name, p)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
}

func TestLoadConfig_BadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"server": `)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected decode error")
	}
}
