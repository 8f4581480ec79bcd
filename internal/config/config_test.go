// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns defaults patched to pass validation.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid defaults pass", func(t *testing.T) {
		cfg := validTestConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid config rejected: %v", err)
		}
	})

	t.Run("empty JWT secret rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.JWTSecret = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for empty JWT secret")
		}
	})

	t.Run("short JWT secret rejected in production", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.Environment = "production"
		cfg.Security.JWTSecret = "short"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "32 characters") {
			t.Fatalf("expected production secret length error, got %v", err)
		}
	})

	t.Run("short JWT secret tolerated in development", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.JWTSecret = "dev"
		if err := cfg.Validate(); err != nil {
			t.Fatalf("development config rejected: %v", err)
		}
	})

	t.Run("invalid port rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for port 0")
		}
	})

	t.Run("image cap above video cap rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Uploads.MaxImageBytes = cfg.Uploads.MaxVideoBytes + 1
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for image cap above video cap")
		}
	})

	t.Run("refresh shorter than access rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Security.AccessTimeout = 2 * time.Hour
		cfg.Security.RefreshTimeout = time.Hour
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for refresh < access timeout")
		}
	})

	t.Run("configured provider with bad URL rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.OAuth.Google.ClientID = "client-id"
		cfg.OAuth.Google.RedirectURI = "not a url"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for invalid redirect URI")
		}
	})

	t.Run("unconfigured provider skips URL checks", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.OAuth.Google.ClientID = ""
		cfg.OAuth.Google.RedirectURI = ""
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unconfigured provider should be ignored: %v", err)
		}
	})

	t.Run("assistant enabled without key rejected", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Assistant.Enabled = true
		cfg.Assistant.APIKey = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for enabled assistant without API key")
		}
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "google-client")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URI", "https://api.example.com/auth/google/callback")
	t.Setenv("OAUTH_STATE_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("HTTP_PORT not applied: got %d", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORS_ORIGINS not split: %v", cfg.Security.CORSOrigins)
	}
	if cfg.OAuth.Google.ClientID != "google-client" {
		t.Errorf("GOOGLE_OAUTH_CLIENT_ID not applied: %q", cfg.OAuth.Google.ClientID)
	}
	if cfg.OAuth.StateTTL != 10*time.Minute {
		t.Errorf("OAUTH_STATE_TTL not applied: %v", cfg.OAuth.StateTTL)
	}
	// Unmapped environment variables must not leak into the config.
	if cfg.OAuth.Google.ClientSecret != "" {
		t.Errorf("unexpected client secret: %q", cfg.OAuth.Google.ClientSecret)
	}
}

func TestProviderByName(t *testing.T) {
	cfg := validTestConfig()
	if _, ok := cfg.OAuth.ProviderByName("google"); !ok {
		t.Error("google provider should be known")
	}
	if _, ok := cfg.OAuth.ProviderByName("kakao"); !ok {
		t.Error("kakao provider should be known")
	}
	if _, ok := cfg.OAuth.ProviderByName("github"); ok {
		t.Error("github provider should be unknown")
	}
}
