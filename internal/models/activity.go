// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package models

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/validation"
)

// Activity types. The type selects which payload schema Data must satisfy.
const (
	ActivityFeeding   = "feeding"
	ActivityDiaper    = "diaper"
	ActivitySleep     = "sleep"
	ActivityTummyTime = "tummy_time"
	ActivityCustom    = "custom"
)

// Activity is a single caregiving event for a child. Data is a discriminated
// union: its schema is selected by Type and validated at write time, never
// coerced.
type Activity struct {
	ID        uuid.UUID       `json:"id"`
	ChildID   uuid.UUID       `json:"childId"`
	UserID    uuid.UUID       `json:"userId"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Notes     *string         `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FeedingData is the payload for feeding activities.
type FeedingData struct {
	Method      string   `json:"method" validate:"required,oneof=breast bottle formula solid"`
	AmountML    *float64 `json:"amountMl,omitempty" validate:"omitempty,gt=0"`
	DurationMin *int     `json:"durationMin,omitempty" validate:"omitempty,gt=0"`
	Side        *string  `json:"side,omitempty" validate:"omitempty,oneof=left right both"`
}

// DiaperData is the payload for diaper activities.
type DiaperData struct {
	Kind string `json:"kind" validate:"required,oneof=wet dirty both"`
}

// SleepData is the payload for sleep activities. EndTime must not be before
// StartTime; that ordering is checked beyond struct tags.
type SleepData struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	Quality   *int      `json:"quality,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// TummyTimeData is the payload for tummy time activities.
type TummyTimeData struct {
	DurationMin int `json:"durationMin" validate:"required,gt=0"`
}

// CustomData is the payload for free-form activities.
type CustomData struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Detail *string `json:"detail,omitempty" validate:"omitempty,max=2000"`
}

// ValidActivityType reports whether the type selects a known payload schema.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityFeeding, ActivityDiaper, ActivitySleep, ActivityTummyTime, ActivityCustom:
		return true
	default:
		return false
	}
}

// ValidateActivityData decodes and validates a payload against the schema
// selected by activityType. Unknown fields and type mismatches are rejected
// with field-scoped errors; the payload is never coerced into shape.
func ValidateActivityData(activityType string, raw json.RawMessage) *validation.RequestValidationError {
	if !ValidActivityType(activityType) {
		return validation.NewFieldError("type", "oneof",
			fmt.Sprintf("type must be one of: feeding, diaper, sleep, tummy_time, custom; got %q", activityType))
	}
	if len(raw) == 0 {
		return validation.NewFieldError("data", "required", "data is required")
	}

	var payload interface{}
	switch activityType {
	case ActivityFeeding:
		payload = &FeedingData{}
	case ActivityDiaper:
		payload = &DiaperData{}
	case ActivitySleep:
		payload = &SleepData{}
	case ActivityTummyTime:
		payload = &TummyTimeData{}
	case ActivityCustom:
		payload = &CustomData{}
	}

	if err := decodeStrict(raw, payload); err != nil {
		return validation.NewFieldError("data", "schema",
			fmt.Sprintf("data does not match the %s schema: %v", activityType, err))
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		return verr
	}

	if sleep, ok := payload.(*SleepData); ok {
		if sleep.EndTime.Before(sleep.StartTime) {
			return validation.NewFieldError("endTime", "gtefield",
				"endTime must not be before startTime")
		}
	}

	return nil
}

// decodeStrict unmarshals raw into v, rejecting unknown fields.
func decodeStrict(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
