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

type diaryEntryRequest struct {
	ChildID   uuid.UUID `json:"childId" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	Content   string    `json:"content" validate:"required,max=20000"`
	PhotoURLs []string  `json:"photoUrls" validate:"omitempty,max=10,dive,url"`
}

// CreateDiaryEntry handles POST /api/v1/diary-entries.
func (router *Router) CreateDiaryEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req diaryEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), req.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	entry := &models.DiaryEntry{
		ChildID:   req.ChildID,
		AuthorID:  userID,
		Date:      req.Date,
		Title:     req.Title,
		Content:   req.Content,
		PhotoURLs: req.PhotoURLs,
	}
	if err := router.db.CreateDiaryEntry(r.Context(), entry); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Created(entry)
}

// ListDiaryEntries handles GET /api/v1/diary-entries?child_id&date_from&
// date_to&limit&offset, newest first.
func (router *Router) ListDiaryEntries(w http.ResponseWriter, r *http.Request) {
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
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.guard.RequireChildAccess(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	entries, total, err := router.db.ListDiaryEntries(r.Context(), childID, from, to, limit, offset)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.SuccessWithPagination(entries, &PaginationMeta{
		Total:   total,
		Count:   len(entries),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(entries) < total,
	})
}

// GetDiaryEntry handles GET /api/v1/diary-entries/{entryID}.
func (router *Router) GetDiaryEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	entryID, err := pathUUID(r, "entryID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	entry, err := router.db.GetDiaryEntry(r.Context(), entryID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), entry.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(entry)
}

// UpdateDiaryEntry handles PUT /api/v1/diary-entries/{entryID}.
func (router *Router) UpdateDiaryEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	entryID, err := pathUUID(r, "entryID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	entry, err := router.db.GetDiaryEntry(r.Context(), entryID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), entry.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	var req diaryEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	entry.Date = req.Date
	entry.Title = req.Title
	entry.Content = req.Content
	entry.PhotoURLs = req.PhotoURLs

	if err := router.db.UpdateDiaryEntry(r.Context(), entry); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(entry)
}

// DeleteDiaryEntry handles DELETE /api/v1/diary-entries/{entryID}.
func (router *Router) DeleteDiaryEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	entryID, err := pathUUID(r, "entryID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	entry, err := router.db.GetDiaryEntry(r.Context(), entryID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildAccess(r.Context(), entry.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	if err := router.db.DeleteDiaryEntry(r.Context(), entryID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}
