// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package models

import (
	"time"

	"github.com/google/uuid"
)

// GrowthRecord is a point-in-time body measurement for a child.
type GrowthRecord struct {
	ID         uuid.UUID `json:"id"`
	ChildID    uuid.UUID `json:"childId"`
	RecordedAt time.Time `json:"recordedAt"`
	WeightKg   *float64  `json:"weightKg,omitempty"`
	HeightCm   *float64  `json:"heightCm,omitempty"`
	HeadCm     *float64  `json:"headCm,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DiaryEntry is a dated journal entry written by a guardian about a child.
type DiaryEntry struct {
	ID        uuid.UUID `json:"id"`
	ChildID   uuid.UUID `json:"childId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	PhotoURLs []string  `json:"photoUrls,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Milestone marks a developmental first for a child.
type Milestone struct {
	ID          uuid.UUID `json:"id"`
	ChildID     uuid.UUID `json:"childId"`
	Title       string    `json:"title"`
	AchievedAt  time.Time `json:"achievedAt"`
	Description *string   `json:"description,omitempty"`
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notification is an outbox row recording a push notification to be
// delivered. Delivery mechanics are out of process; rows are written and
// logged, then handed to the delivery pipeline.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

// Notification kinds.
const (
	NotificationGuardianInvite = "guardian_invite"
)
