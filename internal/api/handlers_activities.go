// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/models"
	"github.com/nestling-app/nestling/internal/validation"
)

type activityRequest struct {
	ChildID   uuid.UUID       `json:"childId" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	Timestamp time.Time       `json:"timestamp" validate:"required"`
	Data      json.RawMessage `json:"data"`
	Notes     *string         `json:"notes" validate:"omitempty,max=2000"`
}

// CreateActivity handles POST /api/v1/activities. The payload is validated
// against the schema selected by type before anything is persisted; a
// mismatch is rejected with a field-scoped error, never coerced.
func (router *Router) CreateActivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req activityRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), req.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}
	if verr := models.ValidateActivityData(req.Type, req.Data); verr != nil {
		respondServiceError(rw, verr)
		return
	}

	activity := &models.Activity{
		ChildID:   req.ChildID,
		UserID:    userID,
		Type:      req.Type,
		Timestamp: req.Timestamp,
		Data:      req.Data,
		Notes:     req.Notes,
	}
	if err := router.db.CreateActivity(r.Context(), activity); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(activity)
}

// ListActivities handles GET /api/v1/activities?child_id&type&date_from&
// date_to&limit&offset. The time range is checked before any storage access.
func (router *Router) ListActivities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	filter, err := router.activityFilterFromQuery(r)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), filter.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	activities, total, err := router.db.ListActivities(r.Context(), *filter)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.SuccessWithPagination(activities, &PaginationMeta{
		Total:   total,
		Count:   len(activities),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
		HasMore: filter.Offset+len(activities) < total,
	})
}

func (router *Router) activityFilterFromQuery(r *http.Request) (*database.ActivityFilter, error) {
	childID, err := queryUUID(r, "child_id")
	if err != nil {
		return nil, err
	}
	if childID == uuid.Nil {
		return nil, validation.NewFieldError("child_id", "required", "child_id is required")
	}

	from, err := queryTime(r, "date_from")
	if err != nil {
		return nil, err
	}
	to, err := queryTime(r, "date_to")
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return nil, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return nil, err
	}

	return &database.ActivityFilter{
		ChildID: childID,
		Type:    r.URL.Query().Get("type"),
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// GetActivity handles GET /api/v1/activities/{activityID}.
func (router *Router) GetActivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	activityID, err := pathUUID(r, "activityID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	activity, err := router.db.GetActivity(r.Context(), activityID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), activity.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(activity)
}

// UpdateActivity handles PUT /api/v1/activities/{activityID}. The child the
// activity belongs to cannot be changed.
func (router *Router) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	activityID, err := pathUUID(r, "activityID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	activity, err := router.db.GetActivity(r.Context(), activityID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), activity.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	var req activityRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if verr := models.ValidateActivityData(req.Type, req.Data); verr != nil {
		respondServiceError(rw, verr)
		return
	}

	activity.Type = req.Type
	activity.Timestamp = req.Timestamp
	activity.Data = req.Data
	activity.Notes = req.Notes

	if err := router.db.UpdateActivity(r.Context(), activity); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(activity)
}

// DeleteActivity handles DELETE /api/v1/activities/{activityID}.
func (router *Router) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	activityID, err := pathUUID(r, "activityID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	activity, err := router.db.GetActivity(r.Context(), activityID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), activity.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.db.DeleteActivity(r.Context(), activityID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}
