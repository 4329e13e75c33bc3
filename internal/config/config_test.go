package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: expected 8080, got %d", cfg.Server.Port)
	}
	if cfg.WebSocket.PingInterval != 30*time.Second {
		t.Errorf("ping interval: expected 30s, got %v", cfg.WebSocket.PingInterval)
	}
	if cfg.WebSocket.PongWait != 60*time.Second {
		t.Errorf("pong wait: expected 60s, got %v", cfg.WebSocket.PongWait)
	}
	if cfg.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("max message size: expected 4096, got %d", cfg.WebSocket.MaxMessageSize)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("db driver: expected sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Cache.Enabled {
		t.Error("cache must default to disabled")
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("cache ttl: expected 30s, got %v", cfg.Cache.TTL)
	}
	if cfg.Chat.HistoryLimit != 50 {
		t.Errorf("history limit: expected 50, got %d", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.MaxMessageLength != 1000 {
		t.Errorf("max message length: expected 1000, got %d", cfg.Chat.MaxMessageLength)
	}
	if cfg.Auth.Issuer != "aaventure" {
		t.Errorf("issuer: expected aaventure, got %s", cfg.Auth.Issuer)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("PORT override ignored: got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("JWT_SECRET override ignored: got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("DB_DRIVER override ignored: got %q", cfg.Database.Driver)
	}
}
