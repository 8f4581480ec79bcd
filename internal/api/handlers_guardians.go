// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/models"
	"github.com/nestling-app/nestling/internal/validation"
)

type guardianInviteRequest struct {
	ChildID uuid.UUID `json:"childId" validate:"required"`
	Email   string    `json:"email" validate:"required,email"`
	Role    string    `json:"role" validate:"required,oneof=parent relative caregiver"`
}

// InviteGuardian handles POST /api/v1/guardians/invite. Only the child's
// owner may invite; the invitee must already have an account. A notification
// is enqueued for the invitee.
func (router *Router) InviteGuardian(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req guardianInviteRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.guard.RequireChildOwner(r.Context(), req.ChildID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	invitee, err := router.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			rw.NotFound("No account exists for that email")
			return
		}
		respondServiceError(rw, err)
		return
	}
	if invitee.ID == userID {
		respondServiceError(rw, validation.NewFieldError("email", "nefield",
			"you cannot invite yourself"))
		return
	}

	token, err := generateInviteToken()
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	guardian := &models.Guardian{
		ChildID:     req.ChildID,
		UserID:      invitee.ID,
		Role:        req.Role,
		InviteToken: token,
	}
	if err := router.db.CreateGuardianInvite(r.Context(), guardian); err != nil {
		respondServiceError(rw, err)
		return
	}

	child, err := router.db.GetChild(r.Context(), req.ChildID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if err := router.notify.NotifyGuardianInvite(r.Context(), invitee.ID, child.Name); err != nil {
		// The invite stands; the notification can be re-delivered later.
		logging.Ctx(r.Context()).Error().Err(err).
			Str("guardian_id", guardian.ID.String()).
			Msg("Failed to enqueue guardian invite notification")
	}

	rw.Created(map[string]interface{}{
		"guardian":    guardian,
		"inviteToken": token,
	})
}

type guardianAcceptRequest struct {
	InviteToken string `json:"inviteToken" validate:"required"`
}

// AcceptGuardianInvite handles POST /api/v1/guardians/accept. Only the
// invited user may accept, and only once.
func (router *Router) AcceptGuardianInvite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	var req guardianAcceptRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	guardian, err := router.db.GetGuardianByToken(r.Context(), req.InviteToken)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	if guardian.UserID != userID {
		rw.Forbidden("This invitation was issued to a different account")
		return
	}
	if guardian.Accepted() {
		rw.Conflict("This invitation has already been accepted")
		return
	}

	if err := router.db.AcceptGuardian(r.Context(), guardian.ID); err != nil {
		respondServiceError(rw, err)
		return
	}

	updated, err := router.db.GetGuardian(r.Context(), guardian.ChildID, guardian.UserID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("child_id", guardian.ChildID.String()).
		Str("role", guardian.Role).
		Msg("Guardian invitation accepted")

	rw.Success(updated)
}

// ListGuardians handles GET /api/v1/guardians?child_id, pending and
// accepted. Only the owner sees the guardian list.
func (router *Router) ListGuardians(w http.ResponseWriter, r *http.Request) {
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
	if err := router.guard.RequireChildOwner(r.Context(), childID, userID); err != nil {
		respondServiceError(rw, err)
		return
	}

	guardians, err := router.db.ListGuardiansForChild(r.Context(), childID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(guardians)
}

// RevokeGuardian handles DELETE /api/v1/guardians/{guardianID}. The owner
// may revoke anyone; a guardian may remove their own link.
func (router *Router) RevokeGuardian(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	guardianID, err := pathUUID(r, "guardianID")
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	guardian, err := router.db.GetGuardianByID(r.Context(), guardianID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	if guardian.UserID != userID {
		if err := router.guard.RequireChildOwner(r.Context(), guardian.ChildID, userID); err != nil {
			respondServiceError(rw, err)
			return
		}
	}

	if err := router.db.DeleteGuardian(r.Context(), guardianID); err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.NoContent()
}

// generateInviteToken creates a 256-bit URL-safe invitation token.
func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
