// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"strings"

	"github.com/nestling-app/nestling/internal/metrics"
)

type presignRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// PresignUpload handles POST /api/v1/uploads/presign. MIME allow-list and
// size caps are enforced before any URL is issued.
func (router *Router) PresignUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	if router.uploads == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "Uploads are not configured")
		return
	}

	var req presignRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	upload, err := router.uploads.Presign(r.Context(), userID, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	contentClass := "image"
	if strings.HasPrefix(strings.ToLower(req.ContentType), "video/") {
		contentClass = "video"
	}
	metrics.UploadsPresigned.WithLabelValues(contentClass).Inc()

	rw.Created(upload)
}

type confirmRequest struct {
	Key string `json:"key" validate:"required,max=512"`
}

// ConfirmUpload handles POST /api/v1/uploads/confirm, turning a completed
// upload's key into the public URL to store on a record.
func (router *Router) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID, _ := currentUserID(r.Context())

	if router.uploads == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeUnavailable, "Uploads are not configured")
		return
	}

	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		respondServiceError(rw, err)
		return
	}

	publicURL, err := router.uploads.Confirm(userID, req.Key)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	rw.Success(map[string]string{"url": publicURL})
}
