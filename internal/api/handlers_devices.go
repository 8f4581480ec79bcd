// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
)

type deviceRequest struct {
	Platform string `json:"platform" validate:"required,oneof=ios android"`
	Token    string `json:"token" validate:"required,max=4096"`
}

// RegisterDevice handles POST /api/v1/devices. Re-registering a token moves
// it to the calling account.
func (router *Router) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req deviceRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	device, err := router.notify.RegisterDevice(r.Context(), userID, req.Platform, req.Token)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(device)
}

type unregisterDeviceRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

// UnregisterDevice handles DELETE /api/v1/devices.
func (router *Router) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req unregisterDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.notify.UnregisterDevice(r.Context(), userID, req.Token); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}

// ListDevices handles GET /api/v1/devices, listing the caller's registered
// devices.
func (router *Router) ListDevices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	devices, err := router.notify.ListDevices(r.Context(), userID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(devices)
}
