// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/metrics"
	"github.com/nestling-app/nestling/internal/models"
)

// LoginURL handles GET /api/v1/auth/{provider}/login-url.
// It issues a fresh anti-CSRF state and returns the provider authorization
// URL for the app to open.
func (router *Router) LoginURL(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	provider := chi.URLParam(r, "provider")
	client, ok := router.oauth[provider]
	if !ok {
		rw.NotFound("Unknown OAuth provider: " + provider)
		return
	}

	state, err := router.states.Issue(r.Context(), provider)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(map[string]string{
		"url":   client.BuildAuthorizationURL(state),
		"state": state,
	})
}

// Callback handles GET /api/v1/auth/{provider}/callback.
//
// The response is always a 302 redirect to the mobile app's custom scheme.
// The query parameter names (success, access_token, refresh_token,
// needs_profile_setup, error) are a binding contract with the app; every
// failure path redirects with success=false rather than rendering an error
// page the app cannot parse.
func (router *Router) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query()

	client, ok := router.oauth[provider]
	if !ok {
		router.redirectFailure(w, r, "unknown provider")
		return
	}

	if providerErr := query.Get("error"); providerErr != "" {
		logging.Ctx(r.Context()).Warn().
			Str("provider", provider).
			Str("error", providerErr).
			Msg("OAuth provider returned an error")
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, "provider denied the request")
		return
	}

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, "missing code or state")
		return
	}

	if err := router.states.Consume(r.Context(), state, provider); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("provider", provider).
			Msg("OAuth state rejected")
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, "invalid or expired state")
		return
	}

	accessToken, err := client.ExchangeCodeForToken(r.Context(), code)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("provider", provider).
			Msg("OAuth code exchange failed")
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, "token exchange failed")
		return
	}

	profile, err := client.FetchProfile(r.Context(), accessToken)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("provider", provider).
			Msg("OAuth profile fetch failed")
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, "profile fetch failed")
		return
	}

	result, err := router.identity.HandleExternalLogin(r.Context(), profile)
	if err != nil {
		var missingEmail *auth.MissingEmailError
		reason := "login failed"
		if errors.As(err, &missingEmail) {
			reason = "email permission is required"
		}
		logging.Ctx(r.Context()).Error().Err(err).
			Str("provider", provider).
			Msg("Identity resolution failed")
		metrics.RecordLogin(provider, false)
		router.redirectFailure(w, r, reason)
		return
	}

	metrics.RecordLogin(provider, true)

	params := url.Values{}
	params.Set("success", "true")
	params.Set("access_token", result.Tokens.AccessToken)
	params.Set("refresh_token", result.Tokens.RefreshToken)
	params.Set("needs_profile_setup", strconv.FormatBool(result.NeedsProfileSetup))
	http.Redirect(w, r, router.cfg.OAuth.AppRedirectScheme+"?"+params.Encode(), http.StatusFound)
}

// redirectFailure sends the app-scheme redirect for a failed login.
func (router *Router) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	params := url.Values{}
	params.Set("success", "false")
	params.Set("error", reason)
	http.Redirect(w, r, router.cfg.OAuth.AppRedirectScheme+"?"+params.Encode(), http.StatusFound)
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,max=100"`
}

// Signup handles POST /api/v1/auth/signup for direct email/password signup.
func (router *Router) Signup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	result, err := router.identity.SignupWithPassword(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(loginResponse(result))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/v1/auth/login for email/password login.
func (router *Router) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	result, err := router.identity.LoginWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(loginResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshToken handles POST /api/v1/auth/refresh, rotating the token pair.
func (router *Router) RefreshToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	tokens, err := router.jwt.Refresh(req.RefreshToken)
	if err != nil {
		rw.Unauthorized("Invalid or expired refresh token")
		return
	}

	rw.Success(map[string]interface{}{"tokens": tokens})
}

// loginResponse shapes a LoginResult for the wire.
func loginResponse(result *auth.LoginResult) map[string]interface{} {
	return map[string]interface{}{
		"user":              result.User,
		"tokens":            result.Tokens,
		"isNewUser":         result.IsNewUser,
		"needsProfileSetup": result.NeedsProfileSetup,
	}
}

// Me handles GET /api/v1/me.
func (router *Router) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := currentUserID(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	user, err := router.db.GetUserByID(r.Context(), userID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(user)
}

type updateMeRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url,max=2048"`
}

// UpdateMe handles PATCH /api/v1/me. Setting a name on an account that is
// still mid-registration completes the registration.
func (router *Router) UpdateMe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := currentUserID(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	var req updateMeRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	user, err := router.db.GetUserByID(r.Context(), userID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}

	if err := router.db.UpdateUser(r.Context(), user); err != nil {
		respondServiceError(rw, err)
		return
	}

	if req.Name != nil && user.RegistrationStatus == models.RegistrationIncomplete {
		if err := router.db.CompleteRegistration(r.Context(), userID); err != nil {
			respondServiceError(rw, err)
			return
		}
		user.RegistrationStatus = models.RegistrationCompleted
	}

	rw.Success(user)
}
