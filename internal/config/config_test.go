package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "clave-de-firma-de-test")
	t.Setenv("SECRETBOX_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	setRequiredSecrets(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr default = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" || cfg.Cache.Driver != "memory" {
		t.Fatalf("drivers default inesperados: %q %q", cfg.Storage.Driver, cfg.Cache.Driver)
	}
	if cfg.AccessTTL() != time.Hour {
		t.Fatalf("access ttl default = %v", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 720*time.Hour {
		t.Fatalf("refresh ttl default = %v", cfg.RefreshTTL())
	}
}

func TestLoad_YAMLPlusEnvOverride(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("SERVER_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":3000"
storage:
  driver: memory
jwt:
  access_ttl: 30m
security:
  totp_issuer: OtraApp
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// el env pisa al YAML
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q, esperaba el override de env", cfg.Server.Addr)
	}
	// el YAML pisa al default
	if cfg.AccessTTL() != 30*time.Minute {
		t.Fatalf("access ttl = %v", cfg.AccessTTL())
	}
	if cfg.Security.TOTPIssuer != "OtraApp" {
		t.Fatalf("totp issuer = %q", cfg.Security.TOTPIssuer)
	}
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRETBOX_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatal("esperaba error sin JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "algo")
	if _, err := Load(""); err == nil {
		t.Fatal("esperaba error sin SECRETBOX_KEY")
	}
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")
	if _, err := Load(""); err == nil {
		t.Fatal("driver mongo sin URI debería fallar")
	}

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Mongo.URI != "mongodb://localhost:27017" {
		t.Fatalf("mongo uri = %q", cfg.Storage.Mongo.URI)
	}
}

func TestLoad_ProdForcesSecureCookie(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Security.CookieSecure {
		t.Fatal("en prod la cookie va Secure siempre")
	}
}
