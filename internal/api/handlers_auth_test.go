// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// fakeProvider stands in for Google's token and profile endpoints.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "provider-access-token",
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "google-user-1",
			"email":   "oauth-user@example.com",
			"name":    "OAuth User",
			"picture": "https://example.com/pic.jpg",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoginURL(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("issues state and url", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/auth/google/login-url", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("login-url returned %d: %s", rec.Code, rec.Body.String())
		}

		resp := decodeEnvelope(t, rec)
		var data struct {
			URL   string `json:"url"`
			State string `json:"state"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
		if data.State == "" {
			t.Error("no state issued")
		}
		if !strings.Contains(data.URL, "state="+url.QueryEscape(data.State)) {
			t.Errorf("url does not carry the state: %s", data.URL)
		}
	})

	t.Run("unknown provider is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/auth/github/login-url", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("got %d, want 404", rec.Code)
		}
	})
}

func TestCallbackRedirectContract(t *testing.T) {
	env := newTestEnv(t, nil)
	provider := fakeProvider(t)
	env.google.SetTokenURL(provider.URL + "/token")
	env.google.SetProfileURL(provider.URL + "/profile")

	// redirectQuery asserts the 302 target is the app scheme and returns
	// its query parameters.
	redirectQuery := func(t *testing.T, rec *httptest.ResponseRecorder) url.Values {
		t.Helper()
		if rec.Code != http.StatusFound {
			t.Fatalf("got %d, want 302: %s", rec.Code, rec.Body.String())
		}
		location := rec.Header().Get("Location")
		if !strings.HasPrefix(location, "nestling://auth/callback?") {
			t.Fatalf("redirect target = %q", location)
		}
		u, err := url.Parse(location)
		if err != nil {
			t.Fatalf("failed to parse redirect: %v", err)
		}
		return u.Query()
	}

	t.Run("successful login redirects with tokens", func(t *testing.T) {
		state, err := env.states.Issue(context.Background(), "google")
		if err != nil {
			t.Fatalf("failed to issue state: %v", err)
		}

		rec := env.do(t, http.MethodGet,
			"/api/v1/auth/google/callback?code=auth-code&state="+url.QueryEscape(state), "", nil)

		query := redirectQuery(t, rec)
		if query.Get("success") != "true" {
			t.Fatalf("success = %q, query = %v", query.Get("success"), query)
		}
		if query.Get("access_token") == "" || query.Get("refresh_token") == "" {
			t.Error("tokens missing from redirect")
		}
		if query.Get("needs_profile_setup") != "true" {
			t.Errorf("needs_profile_setup = %q, want true for a brand new user", query.Get("needs_profile_setup"))
		}
	})

	t.Run("unknown state redirects with failure", func(t *testing.T) {
		rec := env.do(t, http.MethodGet,
			"/api/v1/auth/google/callback?code=auth-code&state=never-issued", "", nil)

		query := redirectQuery(t, rec)
		if query.Get("success") != "false" {
			t.Errorf("success = %q, want false", query.Get("success"))
		}
		if query.Get("error") == "" {
			t.Error("error reason missing from redirect")
		}
		if query.Get("access_token") != "" {
			t.Error("failure redirect must not carry tokens")
		}
	})

	t.Run("state cannot be replayed", func(t *testing.T) {
		state, err := env.states.Issue(context.Background(), "google")
		if err != nil {
			t.Fatalf("failed to issue state: %v", err)
		}

		path := "/api/v1/auth/google/callback?code=auth-code&state=" + url.QueryEscape(state)
		first := redirectQuery(t, env.do(t, http.MethodGet, path, "", nil))
		if first.Get("success") != "true" {
			t.Fatalf("first callback failed: %v", first)
		}

		second := redirectQuery(t, env.do(t, http.MethodGet, path, "", nil))
		if second.Get("success") != "false" {
			t.Errorf("replayed state succeeded: %v", second)
		}
	})

	t.Run("provider error redirects with failure", func(t *testing.T) {
		rec := env.do(t, http.MethodGet,
			"/api/v1/auth/google/callback?error=access_denied", "", nil)

		query := redirectQuery(t, rec)
		if query.Get("success") != "false" {
			t.Errorf("success = %q, want false", query.Get("success"))
		}
	})
}
