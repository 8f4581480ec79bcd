// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nestling-app/nestling/internal/config"
)

func testProviderConfig() config.OAuthProviderConfig {
	return config.OAuthProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "https://api.example.com/auth/google/callback",
		AuthURL:      "https://accounts.example.com/auth",
		Scopes:       "openid email profile",
	}
}

func TestBuildAuthorizationURL(t *testing.T) {
	client := NewOAuthClient("google", testProviderConfig())

	raw := client.BuildAuthorizationURL("the-state")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("authorization URL not parseable: %v", err)
	}

	q := u.Query()
	if q.Get("client_id") != "test-client" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "the-state" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("redirect_uri") == "" {
		t.Error("redirect_uri missing")
	}
}

func TestExchangeCodeForToken(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "authorization_code" {
				t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
			}
			if r.Form.Get("code") != "auth-code" {
				t.Errorf("code = %q", r.Form.Get("code"))
			}
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer","expires_in":3600}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetTokenURL(server.URL)

		token, err := client.ExchangeCodeForToken(ctx, "auth-code")
		if err != nil {
			t.Fatalf("exchange failed: %v", err)
		}
		if token != "provider-token" {
			t.Errorf("token = %q", token)
		}
	})

	t.Run("non-200 yields typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetTokenURL(server.URL)

		_, err := client.ExchangeCodeForToken(ctx, "bad-code")
		var exchangeErr *TokenExchangeError
		if !errors.As(err, &exchangeErr) {
			t.Fatalf("got %T, want TokenExchangeError", err)
		}
		if exchangeErr.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", exchangeErr.StatusCode)
		}
	})

	t.Run("200 with missing access_token yields typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(`{"token_type":"bearer"}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetTokenURL(server.URL)

		_, err := client.ExchangeCodeForToken(ctx, "auth-code")
		var exchangeErr *TokenExchangeError
		if !errors.As(err, &exchangeErr) {
			t.Fatalf("got %T, want TokenExchangeError", err)
		}
		if !strings.Contains(exchangeErr.Reason, "access_token") {
			t.Errorf("reason = %q", exchangeErr.Reason)
		}
	})

	t.Run("non-JSON 200 yields typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(`<html>maintenance</html>`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetTokenURL(server.URL)

		var exchangeErr *TokenExchangeError
		if _, err := client.ExchangeCodeForToken(ctx, "auth-code"); !errors.As(err, &exchangeErr) {
			t.Fatalf("got %T, want TokenExchangeError", err)
		}
	})
}

func TestFetchProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("google profile normalized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer provider-token" {
				t.Errorf("authorization = %q", got)
			}
			if _, err := w.Write([]byte(`{"id":"g-123","email":"parent@example.com","name":"Parent","picture":"https://img.example.com/p.jpg"}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetProfileURL(server.URL)

		profile, err := client.FetchProfile(ctx, "provider-token")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if profile.Provider != "google" || profile.ExternalID != "g-123" || profile.Email != "parent@example.com" {
			t.Errorf("profile = %+v", profile)
		}
	})

	t.Run("kakao profile normalized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(`{"id":9876,"kakao_account":{"email":"parent@example.com","profile":{"nickname":"Parent","profile_image_url":"https://img.example.com/k.jpg"}}}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("kakao", testProviderConfig())
		client.SetProfileURL(server.URL)

		profile, err := client.FetchProfile(ctx, "provider-token")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if profile.ExternalID != "9876" || profile.DisplayName != "Parent" {
			t.Errorf("profile = %+v", profile)
		}
	})

	t.Run("profile without id yields typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(`{"email":"parent@example.com"}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetProfileURL(server.URL)

		var profileErr *ProfileFetchError
		if _, err := client.FetchProfile(ctx, "provider-token"); !errors.As(err, &profileErr) {
			t.Fatalf("got %T, want ProfileFetchError", err)
		}
	})

	t.Run("profile without email is not an error here", func(t *testing.T) {
		// Identity resolution rejects missing emails; the client just
		// reports what the provider said.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(`{"id":"g-123","name":"Parent"}`)); err != nil {
				t.Errorf("write response: %v", err)
			}
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetProfileURL(server.URL)

		profile, err := client.FetchProfile(ctx, "provider-token")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if profile.Email != "" {
			t.Errorf("email = %q, want empty", profile.Email)
		}
	})

	t.Run("upstream 500 yields typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewOAuthClient("google", testProviderConfig())
		client.SetProfileURL(server.URL)

		var profileErr *ProfileFetchError
		if _, err := client.FetchProfile(ctx, "provider-token"); !errors.As(err, &profileErr) {
			t.Fatalf("got %T, want ProfileFetchError", err)
		}
	})
}
