// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"time"

	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/models"
)

type childRequest struct {
	Name        string    `json:"name" validate:"required,max=100"`
	BirthDate   time.Time `json:"birthDate" validate:"required"`
	Gender      *string   `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthWeight *float64  `json:"birthWeight" validate:"omitempty,gt=0,lt=30"`
	BirthHeight *float64  `json:"birthHeight" validate:"omitempty,gt=0,lt=120"`
	PhotoURL    *string   `json:"photoUrl" validate:"omitempty,url,max=2048"`
}

// ListChildren handles GET /api/v1/children. The result covers children the
// caller owns and those shared with them as an accepted guardian.
func (router *Router) ListChildren(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	children, err := router.db.ListChildrenForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(children)
}

// CreateChild handles POST /api/v1/children.
func (router *Router) CreateChild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req childRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	child := &models.Child{
		OwnerID:     userID,
		Name:        req.Name,
		BirthDate:   req.BirthDate,
		Gender:      req.Gender,
		BirthWeight: req.BirthWeight,
		BirthHeight: req.BirthHeight,
		PhotoURL:    req.PhotoURL,
	}
	if err := router.db.CreateChild(r.Context(), child); err != nil {
		respondServiceError(rw, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("child_id", child.ID.String()).
		Msg("Child created")

	rw.Created(child)
}

// GetChild handles GET /api/v1/children/{childID}.
func (router *Router) GetChild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	childID, err := pathUUID(r, "childID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	child, err := router.db.GetChild(r.Context(), childID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(child)
}

// UpdateChild handles PUT /api/v1/children/{childID}.
func (router *Router) UpdateChild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	childID, err := pathUUID(r, "childID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	var req childRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	child, err := router.db.GetChild(r.Context(), childID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	child.Name = req.Name
	child.BirthDate = req.BirthDate
	child.Gender = req.Gender
	child.BirthWeight = req.BirthWeight
	child.BirthHeight = req.BirthHeight
	child.PhotoURL = req.PhotoURL

	if err := router.db.UpdateChild(r.Context(), child); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(child)
}

// DeleteChild handles DELETE /api/v1/children/{childID}. Only the owner may
// delete; the cascade removes every dependent record.
func (router *Router) DeleteChild(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	childID, err := pathUUID(r, "childID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildOwner(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.db.DeleteChild(r.Context(), childID); err != nil {
		respondServiceError(rw, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("child_id", childID.String()).
		Msg("Child deleted with all records")

	rw.NoContent()
}
