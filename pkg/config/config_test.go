package config

import (
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DB.Port != "5432" {
		t.Errorf("db port = %q, want 5432", cfg.DB.Port)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Redis.CountTTL != 30*time.Second {
		t.Errorf("count ttl = %v, want 30s", cfg.Redis.CountTTL)
	}
	if cfg.Upload.URLPrefix != "/uploads" {
		t.Errorf("upload prefix = %q, want /uploads", cfg.Upload.URLPrefix)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_SSL_MODE", "require")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("JWT_EXPIRATION_HOURS", "12")
	t.Setenv("REDIS_COUNT_TTL", "2m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Errorf("db host = %q", cfg.DB.Host)
	}
	if cfg.DB.LogLevel != logger.Silent {
		t.Errorf("db log level = %v, want silent", cfg.DB.LogLevel)
	}
	if cfg.JWT.ExpirationHours != 12 {
		t.Errorf("jwt expiration = %d, want 12", cfg.JWT.ExpirationHours)
	}
	if cfg.Redis.CountTTL != 2*time.Minute {
		t.Errorf("count ttl = %v, want 2m", cfg.Redis.CountTTL)
	}
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	want := "host=localhost port=5432 user=u password=p dbname=d sslmode=disable"
	if got := c.GetDSN(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}
