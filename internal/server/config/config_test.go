package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"test"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetArgs(t)

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.TokenValidityDuration != 24*time.Hour {
		t.Fatalf("unexpected token validity: %v", cfg.TokenValidityDuration)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Fatalf("unexpected cache TTL: %v", cfg.CacheTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	if cfg.ProbeTimeout != 5*time.Second {
		t.Fatalf("unexpected probe timeout: %v", cfg.ProbeTimeout)
	}
	if cfg.QueueName != "inventory.updates" || cfg.ExchangeName != "events" {
		t.Fatalf("unexpected queue settings: %q %q", cfg.QueueName, cfg.ExchangeName)
	}
}

func TestLoadConfig_Flags(t *testing.T) {
	resetArgs(t, "-a", ":9090", "-s", "flag-secret", "-t", "60", "-l", "30")

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.SecretKey != "flag-secret" {
		t.Fatalf("unexpected secret: %q", cfg.SecretKey)
	}
	if cfg.TokenValidityDuration != time.Hour {
		t.Fatalf("unexpected token validity: %v", cfg.TokenValidityDuration)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache TTL: %v", cfg.CacheTTL)
	}
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.json")
	body := `{
		"http_addr": ":7070",
		"database_dsn": "postgres://u:p@db:5432/store",
		"token_validity_duration": "1h",
		"cache_ttl": "60s",
		"bcrypt_cost": 10
	}`
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	resetArgs(t, "-c", file)

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseDSN != "postgres://u:p@db:5432/store" {
		t.Fatalf("unexpected DSN: %q", cfg.DatabaseDSN)
	}
	if cfg.TokenValidityDuration != time.Hour {
		t.Fatalf("unexpected token validity: %v", cfg.TokenValidityDuration)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Fatalf("unexpected cache TTL: %v", cfg.CacheTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	// untouched fields keep their defaults
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected RedisAddr: %q", cfg.RedisAddr)
	}
}

func TestLoadConfig_FlagsBeatJson(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.json")
	if err := os.WriteFile(file, []byte(`{"http_addr": ":7070"}`), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	resetArgs(t, "-c", file, "-a", ":6060")

	cfg := LoadConfig()

	if cfg.HTTPAddr != ":6060" {
		t.Fatalf("expected flag to win over JSON, got %q", cfg.HTTPAddr)
	}
}
