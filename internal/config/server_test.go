package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigFromPath(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
logLevel: debug
configLocation: "https://example.com/luma"
locationSchedule: "@every 5s"
offerTimeoutMs: 1500
`)
	cfg, err := LoadServerConfigFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.ConfigLocation != "https://example.com/luma" {
		t.Fatalf("config location: %q", cfg.ConfigLocation)
	}
	if cfg.LocationSchedule != "@every 5s" || cfg.OfferTimeoutMS != 1500 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestLoadServerConfigRequiresAddr(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n")
	if _, err := LoadServerConfigFromPath(path); err == nil {
		t.Fatal("missing addr accepted")
	}
}

func TestLoadServerConfigRejectsNegativeTimeout(t *testing.T) {
	path := writeConfig(t, "addr: \":8080\"\nofferTimeoutMs: -1\n")
	if _, err := LoadServerConfigFromPath(path); err == nil {
		t.Fatal("negative timeout accepted")
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfigFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr: %q", cfg.Addr)
	}
	if cfg.LocationSchedule != "@every 10s" || cfg.OfferTimeoutMS != 2000 {
		t.Fatalf("defaults: %#v", cfg)
	}
}

func TestEnvApplyOverlays(t *testing.T) {
	cfg := DefaultServerConfig()
	env := Env{Addr: ":7070", ConfigLocation: "https://example.com/cfg"}
	env.Apply(cfg)

	if cfg.Addr != ":7070" {
		t.Fatalf("addr override: %q", cfg.Addr)
	}
	if cfg.ConfigLocation != "https://example.com/cfg" {
		t.Fatalf("config location override: %q", cfg.ConfigLocation)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unset env field must not clobber: %q", cfg.LogLevel)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("COMPANION_ADDR", ":6060")
	t.Setenv("IMS_TOKEN_ENDPOINT", "https://ims.example.com/token")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if env.Addr != ":6060" {
		t.Fatalf("addr: %q", env.Addr)
	}
	if env.TokenEndpoint != "https://ims.example.com/token" {
		t.Fatalf("token endpoint: %q", env.TokenEndpoint)
	}
}
