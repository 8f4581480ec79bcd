// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/nestling-app/nestling/internal/config"
)

// ExternalProfile is the normalized identity fetched from an OAuth provider.
type ExternalProfile struct {
	Provider    string
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

// httpResult carries a provider response through the circuit breaker.
type httpResult struct {
	status int
	body   []byte
}

// OAuthClient performs the authorization-code flow against one external
// provider (google or kakao). Endpoints come from configuration so tests can
// point them at mock servers.
//
// Outbound calls run behind a circuit breaker: a provider outage fails fast
// instead of tying up login requests.
type OAuthClient struct {
	provider   string
	cfg        config.OAuthProviderConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[httpResult]

	// Endpoint overrides for tests
	authURL    string
	tokenURL   string
	profileURL string
}

// NewOAuthClient creates a provider client from configuration.
func NewOAuthClient(provider string, cfg config.OAuthProviderConfig) *OAuthClient {
	breaker := gobreaker.NewCircuitBreaker[httpResult](gobreaker.Settings{
		Name:        "oauth-" + provider,
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OAuthClient{
		provider: provider,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:    breaker,
		authURL:    cfg.AuthURL,
		tokenURL:   cfg.TokenURL,
		profileURL: cfg.ProfileURL,
	}
}

// Provider returns the provider name this client talks to.
func (c *OAuthClient) Provider() string {
	return c.provider
}

// BuildAuthorizationURL constructs the provider authorization URL carrying
// the anti-CSRF state.
func (c *OAuthClient) BuildAuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("state", state)
	if c.cfg.Scopes != "" {
		params.Set("scope", c.cfg.Scopes)
	}

	return c.authURL + "?" + params.Encode()
}

// tokenResponse is the provider token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeCodeForToken exchanges an authorization code for a provider access
// token. Any non-2xx status or schema-invalid body yields a
// TokenExchangeError; a semantically wrong 200 is not trusted.
func (c *OAuthClient) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", c.cfg.ClientID)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	if c.cfg.ClientSecret != "" {
		data.Set("client_secret", c.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	result, err := c.do(req)
	if err != nil {
		return "", &TokenExchangeError{Provider: c.provider, Reason: err.Error()}
	}
	if result.status != http.StatusOK {
		return "", &TokenExchangeError{
			Provider:   c.provider,
			StatusCode: result.status,
			Reason:     truncateBody(result.body),
		}
	}

	var token tokenResponse
	if err := json.Unmarshal(result.body, &token); err != nil {
		return "", &TokenExchangeError{
			Provider:   c.provider,
			StatusCode: result.status,
			Reason:     fmt.Sprintf("invalid token response: %v", err),
		}
	}
	if token.AccessToken == "" {
		return "", &TokenExchangeError{
			Provider:   c.provider,
			StatusCode: result.status,
			Reason:     "token response missing access_token",
		}
	}

	return token.AccessToken, nil
}

// FetchProfile retrieves the provider profile for an access token and
// normalizes it. A response missing the external ID is a ProfileFetchError;
// a missing email is legal here and rejected later during identity
// resolution.
func (c *OAuthClient) FetchProfile(ctx context.Context, accessToken string) (*ExternalProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	result, err := c.do(req)
	if err != nil {
		return nil, &ProfileFetchError{Provider: c.provider, Reason: err.Error()}
	}
	if result.status != http.StatusOK {
		return nil, &ProfileFetchError{
			Provider:   c.provider,
			StatusCode: result.status,
			Reason:     truncateBody(result.body),
		}
	}

	var profile *ExternalProfile
	switch c.provider {
	case "kakao":
		profile, err = parseKakaoProfile(result.body)
	default:
		profile, err = parseGoogleProfile(result.body)
	}
	if err != nil {
		return nil, &ProfileFetchError{
			Provider:   c.provider,
			StatusCode: result.status,
			Reason:     err.Error(),
		}
	}

	profile.Provider = c.provider
	return profile, nil
}

// do executes an HTTP request through the circuit breaker and reads the body.
func (c *OAuthClient) do(req *http.Request) (httpResult, error) {
	return c.breaker.Execute(func() (httpResult, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return httpResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return httpResult{}, fmt.Errorf("failed to read response body: %w", err)
		}

		// 5xx counts against the breaker; 4xx is a caller problem and
		// should not trip it.
		if resp.StatusCode >= http.StatusInternalServerError {
			return httpResult{status: resp.StatusCode, body: body},
				fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
}

// googleProfile is the Google userinfo response shape.
type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func parseGoogleProfile(body []byte) (*ExternalProfile, error) {
	var p googleProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid profile response: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("profile response missing id")
	}
	return &ExternalProfile{
		ExternalID:  p.ID,
		Email:       p.Email,
		DisplayName: p.Name,
		AvatarURL:   p.Picture,
	}, nil
}

// kakaoProfile is the Kakao /v2/user/me response shape.
type kakaoProfile struct {
	ID      int64 `json:"id"`
	Account struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func parseKakaoProfile(body []byte) (*ExternalProfile, error) {
	var p kakaoProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid profile response: %w", err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("profile response missing id")
	}
	return &ExternalProfile{
		ExternalID:  strconv.FormatInt(p.ID, 10),
		Email:       p.Account.Email,
		DisplayName: p.Account.Profile.Nickname,
		AvatarURL:   p.Account.Profile.ProfileImageURL,
	}, nil
}

// truncateBody bounds an upstream body for inclusion in error messages.
func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// SetAuthURL overrides the authorization endpoint. Test use only.
func (c *OAuthClient) SetAuthURL(url string) { c.authURL = url }

// SetTokenURL overrides the token endpoint. Test use only.
func (c *OAuthClient) SetTokenURL(url string) { c.tokenURL = url }

// SetProfileURL overrides the profile endpoint. Test use only.
func (c *OAuthClient) SetProfileURL(url string) { c.profileURL = url }
