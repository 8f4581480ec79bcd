// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nestling/config.yaml",
	"/etc/nestling/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. The returned Config has already
// passed Validate.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; split known slice fields on commas.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"uploads.allowed_mimes",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults) - skip.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return empty string and are skipped, which keeps
// unrelated environment noise out of the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> security.jwt_secret
//   - GOOGLE_OAUTH_CLIENT_ID -> oauth.google.client_id
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Security
		"jwt_secret":              "security.jwt_secret",
		"access_token_timeout":    "security.access_timeout",
		"refresh_token_timeout":   "security.refresh_timeout",
		"cors_origins":            "security.cors_origins",
		"disable_rate_limit":      "security.rate_limit_disabled",
		"rate_limit_general":      "security.general_requests",
		"rate_limit_auth":         "security.auth_requests",
		"rate_limit_upload":       "security.upload_requests",
		"rate_limit_assistant":    "security.assistant_requests",
		"rate_limit_auth_window":  "security.auth_window",
		"rate_limit_general_window": "security.general_window",

		// OAuth providers
		"google_oauth_client_id":     "oauth.google.client_id",
		"google_oauth_client_secret": "oauth.google.client_secret",
		"google_oauth_redirect_uri":  "oauth.google.redirect_uri",
		"kakao_oauth_client_id":      "oauth.kakao.client_id",
		"kakao_oauth_client_secret":  "oauth.kakao.client_secret",
		"kakao_oauth_redirect_uri":   "oauth.kakao.redirect_uri",

		// OAuth flow
		"oauth_state_path":     "oauth.state_path",
		"oauth_state_ttl":      "oauth.state_ttl",
		"oauth_sweep_interval": "oauth.sweep_interval",
		"app_redirect_scheme":  "oauth.app_redirect_scheme",

		// Uploads
		"storage_endpoint":        "uploads.endpoint",
		"storage_region":          "uploads.region",
		"storage_bucket":          "uploads.bucket",
		"storage_access_key":      "uploads.access_key",
		"storage_secret_key":      "uploads.secret_key",
		"storage_public_base_url": "uploads.public_base_url",
		"storage_url_ttl":         "uploads.url_ttl",
		"storage_path_style":      "uploads.use_path_style",
		"upload_max_image_bytes":  "uploads.max_image_bytes",
		"upload_max_video_bytes":  "uploads.max_video_bytes",
		"upload_allowed_mimes":    "uploads.allowed_mimes",

		// Assistant
		"assistant_enabled":       "assistant.enabled",
		"assistant_api_key":       "assistant.api_key",
		"assistant_model":         "assistant.model",
		"assistant_hourly_budget": "assistant.hourly_budget",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
