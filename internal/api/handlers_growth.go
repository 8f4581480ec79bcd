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

type growthRecordRequest struct {
	ChildID    uuid.UUID `json:"childId" validate:"required"`
	RecordedAt time.Time `json:"recordedAt" validate:"required"`
	WeightKg   *float64  `json:"weightKg" validate:"omitempty,gt=0,lt=150"`
	HeightCm   *float64  `json:"heightCm" validate:"omitempty,gt=0,lt=250"`
	HeadCm     *float64  `json:"headCm" validate:"omitempty,gt=0,lt=100"`
	Notes      *string   `json:"notes" validate:"omitempty,max=2000"`
}

// CreateGrowthRecord handles POST /api/v1/growth-records.
func (router *Router) CreateGrowthRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req growthRecordRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if req.WeightKg == nil && req.HeightCm == nil && req.HeadCm == nil {
		respondServiceError(rw, validation.NewFieldError("weightKg", "required_without_all",
			"at least one measurement is required"))
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), req.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	record := &models.GrowthRecord{
		ChildID:    req.ChildID,
		RecordedAt: req.RecordedAt,
		WeightKg:   req.WeightKg,
		HeightCm:   req.HeightCm,
		HeadCm:     req.HeadCm,
		Notes:      req.Notes,
	}
	if err := router.db.CreateGrowthRecord(r.Context(), record); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(record)
}

// ListGrowthRecords handles GET /api/v1/growth-records?child_id&date_from&
// date_to. Results are chronological for charting.
func (router *Router) ListGrowthRecords(w http.ResponseWriter, r *http.Request) {
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
	from, err := queryTime(r, "date_from")
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	to, err := queryTime(r, "date_to")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.guard.RequireChildAccess(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	records, err := router.db.ListGrowthRecords(r.Context(), childID, from, to)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(records)
}

// GetGrowthRecord handles GET /api/v1/growth-records/{recordID}.
func (router *Router) GetGrowthRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	recordID, err := pathUUID(r, "recordID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	record, err := router.db.GetGrowthRecord(r.Context(), recordID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), record.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(record)
}

// UpdateGrowthRecord handles PUT /api/v1/growth-records/{recordID}.
func (router *Router) UpdateGrowthRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	recordID, err := pathUUID(r, "recordID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	record, err := router.db.GetGrowthRecord(r.Context(), recordID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), record.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	var req growthRecordRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	// An update must not strip the last measurement from a record.
	if req.WeightKg == nil && req.HeightCm == nil && req.HeadCm == nil {
		respondServiceError(rw, validation.NewFieldError("weightKg", "required_without_all",
			"at least one measurement is required"))
		return
	}

	record.RecordedAt = req.RecordedAt
	record.WeightKg = req.WeightKg
	record.HeightCm = req.HeightCm
	record.HeadCm = req.HeadCm
	record.Notes = req.Notes

	if err := router.db.UpdateGrowthRecord(r.Context(), record); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(record)
}

// DeleteGrowthRecord handles DELETE /api/v1/growth-records/{recordID}.
func (router *Router) DeleteGrowthRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	recordID, err := pathUUID(r, "recordID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	record, err := router.db.GetGrowthRecord(r.Context(), recordID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), record.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.db.DeleteGrowthRecord(r.Context(), recordID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}
