// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"errors"
	"net/http"

	"github.com/nestling-app/nestling/internal/assistant"
	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/authz"
	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/uploads"
	"github.com/nestling-app/nestling/internal/validation"
)

// respondServiceError maps service-layer errors to the API error taxonomy.
// Unknown errors become a generic 500 with the cause logged server-side.
func respondServiceError(rw *ResponseWriter, err error) {
	var validationErr *validation.RequestValidationError
	if errors.As(err, &validationErr) {
		rw.ValidationError("Request validation failed", validationErr.Fields())
		return
	}

	var upstreamErr *assistant.UpstreamError
	if errors.As(err, &upstreamErr) {
		rw.UpstreamError("assistant", upstreamErr)
		return
	}

	switch {
	case errors.Is(err, authz.ErrForbidden):
		rw.Forbidden("You do not have access to this child")

	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrChildNotFound),
		errors.Is(err, database.ErrActivityNotFound),
		errors.Is(err, database.ErrGrowthRecordNotFound),
		errors.Is(err, database.ErrDiaryEntryNotFound),
		errors.Is(err, database.ErrMilestoneNotFound),
		errors.Is(err, database.ErrGuardianNotFound),
		errors.Is(err, database.ErrInviteNotFound),
		errors.Is(err, database.ErrNotificationNotFound):
		rw.NotFound(err.Error())

	case errors.Is(err, database.ErrEmailConflict),
		errors.Is(err, database.ErrGuardianConflict):
		rw.Conflict(err.Error())

	case errors.Is(err, database.ErrInvalidTimeRange):
		rw.ValidationError("Request validation failed", []validation.FieldError{{
			Field:   "dateFrom",
			Tag:     "ltefield",
			Message: "dateFrom must not be after dateTo",
		}})

	case errors.Is(err, auth.ErrInvalidCredentials):
		rw.Unauthorized("Invalid email or password")

	case errors.Is(err, uploads.ErrMIMENotAllowed),
		errors.Is(err, uploads.ErrFileTooLarge),
		errors.Is(err, uploads.ErrEmptyFile):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())

	case errors.Is(err, uploads.ErrKeyNotOwned):
		rw.Forbidden(err.Error())

	case errors.Is(err, assistant.ErrBudgetExhausted):
		rw.TooManyRequests(err.Error())

	default:
		rw.InternalError(err)
	}
}
