// Package config carga config.yaml y lo pisa con variables de entorno.
// Los secretos (firma JWT, clave del secretbox, password SMTP) solo
// entran por entorno; el YAML lleva lo demás.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | mongo
		Driver string `yaml:"driver"`
		Mongo  struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Prefix string `yaml:"prefix"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Secret     string `yaml:"-"` // solo por env: JWT_SECRET
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Security struct {
		// SecretboxKey cifra los secretos TOTP en reposo. Solo por env:
		// SECRETBOX_KEY (base64 o 32 bytes crudos).
		SecretboxKey string `yaml:"-"`
		TOTPIssuer   string `yaml:"totp_issuer"`
		CookieSecure bool   `yaml:"cookie_secure"`
	} `yaml:"security"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		User     string `yaml:"user"`
		Pass     string `yaml:"-"` // solo por env: SMTP_PASS
		TLSMode  string `yaml:"tls_mode"`
		ResetURL string `yaml:"reset_url"`
	} `yaml:"smtp"`

	OAuth struct {
		Google struct {
			ClientID string `yaml:"client_id"`
		} `yaml:"google"`
		Github struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"github"`
	} `yaml:"oauth"`
}

// Load lee el YAML (si path existe), aplica defaults y después los
// overrides de entorno. Un path vacío arranca solo con entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "tasknest"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "tasknest"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "tasknest"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "1h"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.Security.TOTPIssuer == "" {
		c.Security.TOTPIssuer = "TaskNest"
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}

	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEnvOverrides: el entorno siempre gana sobre el YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DATABASE"); ok {
		c.Storage.Mongo.Database = v
	}

	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}

	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	if v, ok := getEnvStr("SECRETBOX_KEY"); ok {
		c.Security.SecretboxKey = v
	}
	if v, ok := getEnvStr("TOTP_ISSUER"); ok {
		c.Security.TOTPIssuer = v
	}
	if v, ok := getEnvBool("COOKIE_SECURE"); ok {
		c.Security.CookieSecure = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = v
	}
	if v, ok := getEnvStr("SMTP_RESET_URL"); ok {
		c.SMTP.ResetURL = v
	}

	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.OAuth.Google.ClientID = v
	}
	if v, ok := getEnvBool("GITHUB_ENABLED"); ok {
		c.OAuth.Github.Enabled = v
	}

	// En prod la cookie del refresh va Secure siempre, sin importar lo
	// que diga el YAML.
	if c.App.Env == "prod" {
		c.Security.CookieSecure = true
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: falta JWT_SECRET")
	}
	if c.Security.SecretboxKey == "" {
		return fmt.Errorf("config: falta SECRETBOX_KEY")
	}
	if c.Storage.Driver == "mongo" && c.Storage.Mongo.URI == "" {
		return fmt.Errorf("config: storage.driver=mongo requiere MONGO_URI")
	}
	if _, err := time.ParseDuration(c.JWT.AccessTTL); err != nil {
		return fmt.Errorf("config: jwt.access_ttl inválido: %w", err)
	}
	if _, err := time.ParseDuration(c.JWT.RefreshTTL); err != nil {
		return fmt.Errorf("config: jwt.refresh_ttl inválido: %w", err)
	}
	return nil
}

// AccessTTL ya validado por Validate.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

func (c *Config) RefreshTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.RefreshTTL)
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
