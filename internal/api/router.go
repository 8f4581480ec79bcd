// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nestling-app/nestling/internal/assistant"
	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/authz"
	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/middleware"
	"github.com/nestling-app/nestling/internal/notify"
	"github.com/nestling-app/nestling/internal/uploads"
)

// Router wires handlers, middleware, and services into the HTTP API.
type Router struct {
	cfg       *config.Config
	db        *database.DB
	jwt       *auth.JWTManager
	identity  *auth.Identity
	states    *auth.StateStore
	oauth     map[string]*auth.OAuthClient
	guard     *authz.Guard
	uploads   *uploads.Service
	notify    *notify.Service
	assistant *assistant.Service // nil when disabled
	mw        *RouteMiddleware
	startTime time.Time
}

// Deps carries the services the router needs. Assistant and Uploads may be
// nil when the corresponding feature is not configured.
type Deps struct {
	Config    *config.Config
	DB        *database.DB
	JWT       *auth.JWTManager
	Identity  *auth.Identity
	States    *auth.StateStore
	OAuth     map[string]*auth.OAuthClient
	Uploads   *uploads.Service
	Notify    *notify.Service
	Assistant *assistant.Service
}

// NewRouter creates the API router from its dependencies.
func NewRouter(deps Deps) *Router {
	return &Router{
		cfg:       deps.Config,
		db:        deps.DB,
		jwt:       deps.JWT,
		identity:  deps.Identity,
		states:    deps.States,
		oauth:     deps.OAuth,
		guard:     authz.NewGuard(deps.DB),
		uploads:   deps.Uploads,
		notify:    deps.Notify,
		assistant: deps.Assistant,
		mw:        NewRouteMiddleware(&deps.Config.Security),
		startTime: time.Now(),
	}
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())
	r.Use(chiMiddleware(middleware.RequestLogger))

	// Health and metrics are public and unauthenticated.
	r.Get("/health", router.Health)
	r.Get("/health/live", router.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	// Auth endpoints: strict rate limiting, no bearer token required.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.mw.RateLimitAuth())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/{provider}/login-url", router.LoginURL)
		r.Get("/{provider}/callback", router.Callback)
		r.Post("/signup", router.Signup)
		r.Post("/login", router.Login)
		r.Post("/refresh", router.RefreshToken)
	})

	// Core resources: bearer auth plus the general rate limit class.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimitGeneral())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(Authenticate(router.jwt)))

		r.Get("/me", router.Me)
		r.Patch("/me", router.UpdateMe)

		r.Route("/children", func(r chi.Router) {
			r.Get("/", router.ListChildren)
			r.Post("/", router.CreateChild)
			r.Get("/{childID}", router.GetChild)
			r.Put("/{childID}", router.UpdateChild)
			r.Delete("/{childID}", router.DeleteChild)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", router.ListActivities)
			r.Post("/", router.CreateActivity)
			r.Get("/{activityID}", router.GetActivity)
			r.Put("/{activityID}", router.UpdateActivity)
			r.Delete("/{activityID}", router.DeleteActivity)
		})

		r.Route("/growth-records", func(r chi.Router) {
			r.Get("/", router.ListGrowthRecords)
			r.Post("/", router.CreateGrowthRecord)
			r.Get("/{recordID}", router.GetGrowthRecord)
			r.Put("/{recordID}", router.UpdateGrowthRecord)
			r.Delete("/{recordID}", router.DeleteGrowthRecord)
		})

		r.Route("/diary-entries", func(r chi.Router) {
			r.Get("/", router.ListDiaryEntries)
			r.Post("/", router.CreateDiaryEntry)
			r.Get("/{entryID}", router.GetDiaryEntry)
			r.Put("/{entryID}", router.UpdateDiaryEntry)
			r.Delete("/{entryID}", router.DeleteDiaryEntry)
		})

		r.Route("/milestones", func(r chi.Router) {
			r.Get("/", router.ListMilestones)
			r.Post("/", router.CreateMilestone)
			r.Get("/{milestoneID}", router.GetMilestone)
			r.Put("/{milestoneID}", router.UpdateMilestone)
			r.Delete("/{milestoneID}", router.DeleteMilestone)
		})

		r.Route("/guardians", func(r chi.Router) {
			r.Get("/", router.ListGuardians)
			r.Post("/invite", router.InviteGuardian)
			r.Post("/accept", router.AcceptGuardianInvite)
			r.Delete("/{guardianID}", router.RevokeGuardian)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", router.ListDevices)
			r.Post("/", router.RegisterDevice)
			r.Delete("/", router.UnregisterDevice)
		})

		// Uploads and assistant carry their own tighter limits on top of
		// bearer auth.
		r.Route("/uploads", func(r chi.Router) {
			r.Use(router.mw.RateLimitUploads())
			r.Post("/presign", router.PresignUpload)
			r.Post("/confirm", router.ConfirmUpload)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Use(router.mw.RateLimitAssistant())
			r.Post("/chat", router.AssistantChat)
		})
	})

	return r
}
