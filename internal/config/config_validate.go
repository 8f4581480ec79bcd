// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLength is the minimum secret length accepted in production.
const minJWTSecretLength = 32

// Validate checks the configuration for internal consistency. It is called
// by Load after all layers are merged; components may assume a validated
// Config.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minJWTSecretLength)
	}

	if c.Security.AccessTimeout <= 0 || c.Security.RefreshTimeout <= 0 {
		return fmt.Errorf("session timeouts must be positive")
	}
	if c.Security.RefreshTimeout < c.Security.AccessTimeout {
		return fmt.Errorf("refresh timeout must not be shorter than access timeout")
	}

	if c.OAuth.StateTTL <= 0 {
		return fmt.Errorf("oauth.state_ttl must be positive")
	}
	if c.OAuth.SweepInterval <= 0 {
		return fmt.Errorf("oauth.sweep_interval must be positive")
	}
	if !strings.Contains(c.OAuth.AppRedirectScheme, "://") {
		return fmt.Errorf("oauth.app_redirect_scheme must be a URL scheme, got %q", c.OAuth.AppRedirectScheme)
	}

	for name, p := range map[string]OAuthProviderConfig{
		"google": c.OAuth.Google,
		"kakao":  c.OAuth.Kakao,
	} {
		// A provider with no client ID is treated as disabled; only
		// configured providers get their endpoints checked.
		if p.ClientID == "" {
			continue
		}
		for field, raw := range map[string]string{
			"auth_url":     p.AuthURL,
			"token_url":    p.TokenURL,
			"profile_url":  p.ProfileURL,
			"redirect_uri": p.RedirectURI,
		} {
			if _, err := url.ParseRequestURI(raw); err != nil {
				return fmt.Errorf("oauth.%s.%s is not a valid URL: %w", name, field, err)
			}
		}
	}

	if c.Uploads.MaxImageBytes <= 0 || c.Uploads.MaxVideoBytes <= 0 {
		return fmt.Errorf("upload size caps must be positive")
	}
	if c.Uploads.MaxImageBytes > c.Uploads.MaxVideoBytes {
		return fmt.Errorf("uploads.max_image_bytes must not exceed uploads.max_video_bytes")
	}
	if len(c.Uploads.AllowedMIMEs) == 0 {
		return fmt.Errorf("uploads.allowed_mimes must not be empty")
	}

	if c.Assistant.Enabled && c.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key is required when the assistant is enabled")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ProviderByName returns the provider config for a known provider name.
// The second return is false for unknown providers.
func (c *OAuthConfig) ProviderByName(name string) (OAuthProviderConfig, bool) {
	switch name {
	case "google":
		return c.Google, true
	case "kakao":
		return c.Kakao, true
	default:
		return OAuthProviderConfig{}, false
	}
}
