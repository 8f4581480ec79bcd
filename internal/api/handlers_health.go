// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"time"

	"github.com/nestling-app/nestling/internal/models"
)

// serverVersion is stamped at build time via -ldflags.
var serverVersion = "dev"

// Health handles GET /health: overall status including database
// connectivity and uptime.
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbStatus := "connected"
	status := "healthy"
	if router.db == nil || router.db.Ping(r.Context()) != nil {
		dbStatus = "disconnected"
		status = "degraded"
	}

	rw.Success(models.HealthStatus{
		Status:    status,
		Version:   serverVersion,
		Uptime:    time.Since(router.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Database:  dbStatus,
	})
}

// HealthLive handles GET /health/live: a liveness probe that only reports
// the process is up, regardless of dependencies.
func (router *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}
