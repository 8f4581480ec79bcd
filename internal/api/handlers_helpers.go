// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/validation"
)

// maxRequestBody bounds request body reads. Uploads go directly to object
// storage, so nothing the API accepts should come close.
const maxRequestBody = 1 << 20 // 1MB

// decodeBody decodes the JSON request body into dst and validates it.
// Returns a *validation.RequestValidationError suitable for
// respondServiceError on any failure.
func decodeBody(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validation.NewFieldError("body", "json", "request body must be valid JSON")
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// pathUUID extracts and parses a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validation.NewFieldError(name, "uuid",
			fmt.Sprintf("%s must be a valid UUID", name))
	}
	return id, nil
}

// queryUUID parses an optional UUID query parameter. Returns uuid.Nil when
// the parameter is absent.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validation.NewFieldError(name, "uuid",
			fmt.Sprintf("%s must be a valid UUID", name))
	}
	return id, nil
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NewFieldError(name, "numeric",
			fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

// queryTime parses an optional RFC 3339 time query parameter.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, validation.NewFieldError(name, "datetime",
			fmt.Sprintf("%s must be an RFC 3339 timestamp", name))
	}
	return &t, nil
}
