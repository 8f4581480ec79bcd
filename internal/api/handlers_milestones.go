// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/models"
	"github.com/nestling-app/nestling/internal/validation"
)

type milestoneRequest struct {
	ChildID     uuid.UUID `json:"childId" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	AchievedAt  time.Time `json:"achievedAt" validate:"required"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	PhotoURL    *string   `json:"photoUrl" validate:"omitempty,url,max=2048"`
}

// CreateMilestone handles POST /api/v1/milestones.
func (router *Router) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req milestoneRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), req.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	milestone := &models.Milestone{
		ChildID:     req.ChildID,
		Title:       req.Title,
		AchievedAt:  req.AchievedAt,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	}
	if err := router.db.CreateMilestone(r.Context(), milestone); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(milestone)
}

// ListMilestones handles GET /api/v1/milestones?child_id, in achievement
// order.
func (router *Router) ListMilestones(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	childID, err := queryUUID(r, "child_id")
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if childID == uuid.Nil {
		respondServiceError(rw, validation.NewFieldError("child_id", "required", "child_id is required"))
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	milestones, err := router.db.ListMilestones(r.Context(), childID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(milestones)
}

// GetMilestone handles GET /api/v1/milestones/{milestoneID}.
func (router *Router) GetMilestone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	milestoneID, err := pathUUID(r, "milestoneID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	milestone, err := router.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), milestone.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(milestone)
}

// UpdateMilestone handles PUT /api/v1/milestones/{milestoneID}.
func (router *Router) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	milestoneID, err := pathUUID(r, "milestoneID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	milestone, err := router.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), milestone.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	var req milestoneRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	milestone.Title = req.Title
	milestone.AchievedAt = req.AchievedAt
	milestone.Description = req.Description
	milestone.PhotoURL = req.PhotoURL

	if err := router.db.UpdateMilestone(r.Context(), milestone); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(milestone)
}

// DeleteMilestone handles DELETE /api/v1/milestones/{milestoneID}.
func (router *Router) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	milestoneID, err := pathUUID(r, "milestoneID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	milestone, err := router.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), milestone.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.db.DeleteMilestone(r.Context(), milestoneID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}
