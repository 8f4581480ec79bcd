// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/metrics"
)

type ctxKey string

const userIDKey ctxKey = "auth_user_id"

// currentUserID returns the authenticated user's ID from the request
// context. The second return is false on unauthenticated requests, which
// only happens when a handler is wired outside the Authenticate middleware.
func currentUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Authenticate returns middleware that requires a valid bearer access token.
// The user ID is placed in the request context for handlers and attached to
// the logging context for every subsequent log line.
func Authenticate(jwt *auth.JWTManager) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				NewResponseWriter(w, r).Unauthorized("Missing or malformed Authorization header")
				return
			}

			userID, _, err := jwt.ValidateAccess(strings.TrimPrefix(header, prefix))
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Access token rejected")
				NewResponseWriter(w, r).Unauthorized("Invalid or expired access token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = logging.ContextWithUserID(ctx, userID.String())

			next(w, r.WithContext(ctx))
		}
	}
}

// RouteMiddleware provides per-route-class middleware factories: CORS and
// fixed-window IP rate limits for the general API, auth endpoints, uploads,
// and the assistant.
type RouteMiddleware struct {
	cfg  *config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewRouteMiddleware creates the middleware factories from security config.
func NewRouteMiddleware(cfg *config.SecurityConfig) *RouteMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &RouteMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the CORS middleware. Applied globally so OPTIONS preflight
// requests are handled on every route.
func (m *RouteMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitGeneral limits the general API route class.
func (m *RouteMiddleware) RateLimitGeneral() func(http.Handler) http.Handler {
	return m.limit("general", m.cfg.GeneralRequests, m.cfg.GeneralWindow)
}

// RateLimitAuth limits login and token endpoints. The strictest class:
// it bounds brute-force attempts.
func (m *RouteMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.limit("auth", m.cfg.AuthRequests, m.cfg.AuthWindow)
}

// RateLimitUploads limits presign/confirm endpoints.
func (m *RouteMiddleware) RateLimitUploads() func(http.Handler) http.Handler {
	return m.limit("uploads", m.cfg.UploadRequests, m.cfg.UploadWindow)
}

// RateLimitAssistant limits assistant chat.
func (m *RouteMiddleware) RateLimitAssistant() func(http.Handler) http.Handler {
	return m.limit("assistant", m.cfg.AssistantRequests, m.cfg.AssistantWindow)
}

// limit builds a fixed-window IP-keyed limiter for one route class. Requests
// over the limit get the standard 429 envelope. Clients sharing a NAT share
// the budget; that is an accepted limitation of IP keying.
func (m *RouteMiddleware) limit(class string, requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(class)
			logging.Ctx(r.Context()).Warn().
				Str("class", class).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rate limit exceeded")
			NewResponseWriter(w, r).TooManyRequests("Too many requests, slow down")
		}),
	)
}
