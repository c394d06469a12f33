package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/bida")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TokenKeyID != "k1" {
		t.Fatalf("TokenKeyID = %q, want k1", cfg.TokenKeyID)
	}
}

func TestLoadServerRequiresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected error for empty POSTGRES_DSN")
	}
}

func TestLoadApp(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/bida")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	if cfg.Server.PostgresDSN != "postgres://localhost/bida" {
		t.Fatalf("PostgresDSN = %q", cfg.Server.PostgresDSN)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadLog(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("LoadLog: %v", err)
	}
	if cfg.Level != "debug" || !cfg.Pretty {
		t.Fatalf("unexpected log config: %+v", cfg)
	}
	if cfg.MaxMB != 10 {
		t.Fatalf("MaxMB = %d, want 10", cfg.MaxMB)
	}
}
