// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/assistant"
	"github.com/nestling-app/nestling/internal/metrics"
	"github.com/nestling-app/nestling/internal/models"
)

type chatRequest struct {
	Message string     `json:"message" validate:"required,max=4000"`
	ChildID *uuid.UUID `json:"childId"`
}

// AssistantChat handles POST /api/v1/assistant/chat. The optional childId
// adds the child's age as context; the caller must have access to that
// child.
func (router *Router) AssistantChat(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	if router.assistant == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "The assistant is not enabled")
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	var child *models.Child
	if req.ChildID != nil {
		if err := router.guard.RequireChildAccess(r.Context(), *req.ChildID, userID); err != nil {
			respondServiceError(rw, err)
			return
		}
		var err error
		child, err = router.db.GetChild(r.Context(), *req.ChildID)
		if err != nil {
			respondServiceError(rw, err)
			return
		}
	}

	start := time.Now()
	reply, err := router.assistant.Chat(r.Context(), req.Message, child)
	if err != nil {
		metrics.RecordAssistantRequest(assistantResult(err), 0)
		respondServiceError(rw, err)
		return
	}
	metrics.RecordAssistantRequest("success", time.Since(start))

	rw.Success(map[string]string{"reply": reply})
}

// assistantResult classifies a chat failure for metrics.
func assistantResult(err error) string {
	var upstreamErr *assistant.UpstreamError
	switch {
	case errors.Is(err, assistant.ErrBudgetExhausted):
		return "budget_exhausted"
	case errors.As(err, &upstreamErr):
		return "upstream_error"
	default:
		return "error"
	}
}
