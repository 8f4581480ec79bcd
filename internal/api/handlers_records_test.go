// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func TestGrowthRecordEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "parent@example.com", "Parent")
	childID := env.createChild(t, token, "Kid")

	t.Run("create requires at least one measurement", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/growth-records", token, map[string]interface{}{
			"childId":    childID,
			"recordedAt": time.Now().Format(time.RFC3339),
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rec.Code)
		}
	})

	t.Run("create and list chronologically", func(t *testing.T) {
		base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
		weights := []float64{4.2, 3.8, 4.6}
		for i, w := range weights {
			rec := env.do(t, http.MethodPost, "/api/v1/growth-records", token, map[string]interface{}{
				"childId":    childID,
				"recordedAt": base.AddDate(0, 0, 10-5*i).Format(time.RFC3339),
				"weightKg":   w,
			})
			if rec.Code != http.StatusCreated {
				t.Fatalf("create %d returned %d: %s", i, rec.Code, rec.Body.String())
			}
		}

		rec := env.do(t, http.MethodGet, "/api/v1/growth-records?child_id="+childID, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d", rec.Code)
		}
		resp := decodeEnvelope(t, rec)
		var records []struct {
			RecordedAt time.Time `json:"recordedAt"`
		}
		if err := json.Unmarshal(resp.Data, &records); err != nil {
			t.Fatalf("failed to decode records: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("records = %d, want 3", len(records))
		}
		for i := 1; i < len(records); i++ {
			if records[i].RecordedAt.Before(records[i-1].RecordedAt) {
				t.Errorf("records not chronological at %d", i)
			}
		}
	})

	t.Run("get single record", func(t *testing.T) {
		weight := 5.1
		rec := env.do(t, http.MethodPost, "/api/v1/growth-records", token, map[string]interface{}{
			"childId":    childID,
			"recordedAt": time.Now().Format(time.RFC3339),
			"weightKg":   weight,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
		}
		created := decodeEnvelope(t, rec)
		var createdRecord struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(created.Data, &createdRecord); err != nil {
			t.Fatalf("failed to decode created record: %v", err)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/growth-records/"+createdRecord.ID, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeEnvelope(t, rec)
		var fetched struct {
			ID       string   `json:"id"`
			WeightKg *float64 `json:"weightKg"`
		}
		if err := json.Unmarshal(resp.Data, &fetched); err != nil {
			t.Fatalf("failed to decode record: %v", err)
		}
		if fetched.ID != createdRecord.ID || fetched.WeightKg == nil || *fetched.WeightKg != weight {
			t.Errorf("fetched = %+v", fetched)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/growth-records/"+uuid.NewString(), token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("unknown record returned %d, want 404", rec.Code)
		}
	})

	t.Run("update cannot strip all measurements", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/growth-records", token, map[string]interface{}{
			"childId":    childID,
			"recordedAt": time.Now().Format(time.RFC3339),
			"heightCm":   58.5,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
		}
		created := decodeEnvelope(t, rec)
		var createdRecord struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(created.Data, &createdRecord); err != nil {
			t.Fatalf("failed to decode created record: %v", err)
		}

		rec = env.do(t, http.MethodPut, "/api/v1/growth-records/"+createdRecord.ID, token, map[string]interface{}{
			"childId":    childID,
			"recordedAt": time.Now().Format(time.RFC3339),
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("empty update returned %d, want 400", rec.Code)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/growth-records/"+createdRecord.ID, token, nil)
		resp := decodeEnvelope(t, rec)
		var fetched struct {
			HeightCm *float64 `json:"heightCm"`
		}
		if err := json.Unmarshal(resp.Data, &fetched); err != nil {
			t.Fatalf("failed to decode record: %v", err)
		}
		if fetched.HeightCm == nil {
			t.Error("rejected update still cleared the measurement")
		}
	})
}

func TestDiaryEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "parent@example.com", "Parent")
	childID := env.createChild(t, token, "Kid")

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/diary-entries", token, map[string]interface{}{
			"childId": childID,
			"date":    time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"title":   "Day",
			"content": "A fine day.",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d returned %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	t.Run("list is newest first with pagination", func(t *testing.T) {
		rec := env.do(t, http.MethodGet,
			"/api/v1/diary-entries?child_id="+childID+"&limit=2", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d", rec.Code)
		}
		resp := decodeEnvelope(t, rec)
		var entries []struct {
			Date time.Time `json:"date"`
		}
		if err := json.Unmarshal(resp.Data, &entries); err != nil {
			t.Fatalf("failed to decode entries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(entries))
		}
		if entries[0].Date.Before(entries[1].Date) {
			t.Error("entries not newest first")
		}
		if resp.Meta == nil || resp.Meta.Pagination == nil || resp.Meta.Pagination.Total != 3 {
			t.Errorf("pagination meta = %+v", resp.Meta)
		}
	})

	t.Run("update rewrites content", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/diary-entries?child_id="+childID+"&limit=1", token, nil)
		resp := decodeEnvelope(t, rec)
		var entries []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp.Data, &entries); err != nil || len(entries) == 0 {
			t.Fatalf("failed to get an entry: %v", err)
		}

		rec = env.do(t, http.MethodPut, "/api/v1/diary-entries/"+entries[0].ID, token, map[string]interface{}{
			"childId": childID,
			"date":    time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"title":   "Edited",
			"content": "Rewritten.",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestMilestoneEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "parent@example.com", "Parent")
	childID := env.createChild(t, token, "Kid")

	rec := env.do(t, http.MethodPost, "/api/v1/milestones", token, map[string]interface{}{
		"childId":    childID,
		"title":      "First smile",
		"achievedAt": time.Now().Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/milestones?child_id="+childID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	var milestones []struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(resp.Data, &milestones); err != nil {
		t.Fatalf("failed to decode milestones: %v", err)
	}
	if len(milestones) != 1 || milestones[0].Title != "First smile" {
		t.Errorf("milestones = %+v", milestones)
	}

	t.Run("get single milestone", func(t *testing.T) {
		var withIDs []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp.Data, &withIDs); err != nil || len(withIDs) == 0 {
			t.Fatalf("failed to get a milestone id: %v", err)
		}

		rec := env.do(t, http.MethodGet, "/api/v1/milestones/"+withIDs[0].ID, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
		}
		single := decodeEnvelope(t, rec)
		var fetched struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(single.Data, &fetched); err != nil {
			t.Fatalf("failed to decode milestone: %v", err)
		}
		if fetched.Title != "First smile" {
			t.Errorf("title = %q", fetched.Title)
		}
	})
}

func TestDeviceEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "parent@example.com", "Parent")

	t.Run("register list unregister", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/devices", token, map[string]string{
			"platform": "ios",
			"token":    "apns-token-1",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
		}

		rec = env.do(t, http.MethodGet, "/api/v1/devices", token, nil)
		resp := decodeEnvelope(t, rec)
		var devices []struct {
			Platform string `json:"platform"`
		}
		if err := json.Unmarshal(resp.Data, &devices); err != nil {
			t.Fatalf("failed to decode devices: %v", err)
		}
		if len(devices) != 1 || devices[0].Platform != "ios" {
			t.Errorf("devices = %+v", devices)
		}

		rec = env.do(t, http.MethodDelete, "/api/v1/devices", token, map[string]string{
			"token": "apns-token-1",
		})
		if rec.Code != http.StatusNoContent {
			t.Errorf("unregister returned %d", rec.Code)
		}
	})

	t.Run("unknown platform is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/devices", token, map[string]string{
			"platform": "windows",
			"token":    "some-token",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rec.Code)
		}
	})
}

func TestUnconfiguredFeatures(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.signup(t, "parent@example.com", "Parent")

	t.Run("uploads 503 when not configured", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/uploads/presign", token, map[string]interface{}{
			"fileName":    "photo.jpg",
			"contentType": "image/jpeg",
			"sizeBytes":   1024,
		})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("got %d, want 503", rec.Code)
		}
	})

	t.Run("assistant 503 when not enabled", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/assistant/chat", token, map[string]string{
			"message": "hello",
		})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("got %d, want 503", rec.Code)
		}
	})
}
