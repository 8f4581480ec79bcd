// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package config

import "time"

// Config is the root configuration for the Nestling server.
// It is constructed once at process entry via Load and passed explicitly to
// every component that needs it; nothing reads configuration ambiently.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	Uploads   UploadsConfig   `koanf:"uploads"`
	Assistant AssistantConfig `koanf:"assistant"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds embedded DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// SecurityConfig holds session, CORS, and rate limit settings.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	AccessTimeout  time.Duration `koanf:"access_timeout"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`

	// Rate limiting: fixed windows keyed by client IP, per route class.
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	GeneralRequests   int           `koanf:"general_requests"`
	GeneralWindow     time.Duration `koanf:"general_window"`
	AuthRequests      int           `koanf:"auth_requests"`
	AuthWindow        time.Duration `koanf:"auth_window"`
	UploadRequests    int           `koanf:"upload_requests"`
	UploadWindow      time.Duration `koanf:"upload_window"`
	AssistantRequests int           `koanf:"assistant_requests"`
	AssistantWindow   time.Duration `koanf:"assistant_window"`
}

// OAuthProviderConfig holds the credentials and endpoints for one external
// OAuth provider.
type OAuthProviderConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri"`
	AuthURL      string `koanf:"auth_url"`
	TokenURL     string `koanf:"token_url"`
	ProfileURL   string `koanf:"profile_url"`
	Scopes       string `koanf:"scopes"`
}

// OAuthConfig holds the OAuth login flow settings.
type OAuthConfig struct {
	Google OAuthProviderConfig `koanf:"google"`
	Kakao  OAuthProviderConfig `koanf:"kakao"`

	// StatePath is the BadgerDB directory for the anti-CSRF state store.
	StatePath string `koanf:"state_path"`

	// StateTTL bounds how long an issued state may be consumed.
	StateTTL time.Duration `koanf:"state_ttl"`

	// SweepInterval is how often expired states are swept as a backstop.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// AppRedirectScheme is the mobile client's custom URL scheme that the
	// callback redirects to. The query parameter names carried on it are a
	// binding contract with the app.
	AppRedirectScheme string `koanf:"app_redirect_scheme"`
}

// UploadsConfig holds object-storage presigning settings.
type UploadsConfig struct {
	Endpoint       string        `koanf:"endpoint"` // S3-compatible endpoint (MinIO, R2)
	Region         string        `koanf:"region"`
	Bucket         string        `koanf:"bucket"`
	AccessKey      string        `koanf:"access_key"`
	SecretKey      string        `koanf:"secret_key"`
	PublicBaseURL  string        `koanf:"public_base_url"`
	URLTTL         time.Duration `koanf:"url_ttl"`
	MaxImageBytes  int64         `koanf:"max_image_bytes"`
	MaxVideoBytes  int64         `koanf:"max_video_bytes"`
	UsePathStyle   bool          `koanf:"use_path_style"`
	AllowedMIMEs   []string      `koanf:"allowed_mimes"`
}

// AssistantConfig holds the LLM chat proxy settings.
type AssistantConfig struct {
	Enabled      bool    `koanf:"enabled"`
	APIKey       string  `koanf:"api_key"`
	Model        string  `koanf:"model"`
	HourlyBudget float64 `koanf:"hourly_budget"` // requests per hour, process-wide
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all sensible default values. Defaults
// are applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/nestling.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Security: SecurityConfig{
			JWTSecret:      "",
			AccessTimeout:  time.Hour,
			RefreshTimeout: 30 * 24 * time.Hour,
			CORSOrigins:    []string{},

			RateLimitDisabled: false,
			GeneralRequests:   100,
			GeneralWindow:     15 * time.Minute,
			AuthRequests:      5,
			AuthWindow:        15 * time.Minute,
			UploadRequests:    20,
			UploadWindow:      time.Hour,
			AssistantRequests: 30,
			AssistantWindow:   time.Hour,
		},
		OAuth: OAuthConfig{
			Google: OAuthProviderConfig{
				AuthURL:    "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:   "https://oauth2.googleapis.com/token",
				ProfileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
				Scopes:     "openid email profile",
			},
			Kakao: OAuthProviderConfig{
				AuthURL:    "https://kauth.kakao.com/oauth/authorize",
				TokenURL:   "https://kauth.kakao.com/oauth/token",
				ProfileURL: "https://kapi.kakao.com/v2/user/me",
				Scopes:     "account_email profile_nickname",
			},
			StatePath:         "/data/oauth-state",
			StateTTL:          10 * time.Minute,
			SweepInterval:     5 * time.Minute,
			AppRedirectScheme: "nestling://auth/callback",
		},
		Uploads: UploadsConfig{
			Region:        "us-east-1",
			Bucket:        "nestling-media",
			URLTTL:        15 * time.Minute,
			MaxImageBytes: 10 << 20,  // 10MB
			MaxVideoBytes: 100 << 20, // 100MB
			UsePathStyle:  false,
			AllowedMIMEs: []string{
				"image/jpeg", "image/png", "image/webp", "image/heic",
				"video/mp4", "video/quicktime",
			},
		},
		Assistant: AssistantConfig{
			Enabled:      false,
			Model:        "gemini-2.0-flash",
			HourlyBudget: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
