// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package models

import (
	"time"

	"github.com/google/uuid"
)

// Child is a tracked child profile. OwnerID is the creating user; additional
// users gain access through accepted Guardian rows.
type Child struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	BirthDate   time.Time `json:"birthDate"`
	Gender      *string   `json:"gender,omitempty"`
	BirthWeight *float64  `json:"birthWeight,omitempty"` // kg
	BirthHeight *float64  `json:"birthHeight,omitempty"` // cm
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AgeAt returns the child's age at the given instant, floored to whole months.
// Used to provide child context to the assistant.
func (c *Child) AgeAt(at time.Time) (years, months int) {
	if at.Before(c.BirthDate) {
		return 0, 0
	}
	y := at.Year() - c.BirthDate.Year()
	m := int(at.Month()) - int(c.BirthDate.Month())
	if at.Day() < c.BirthDate.Day() {
		m--
	}
	if m < 0 {
		y--
		m += 12
	}
	return y, m
}

// Guardian roles.
const (
	GuardianRoleParent    = "parent"
	GuardianRoleRelative  = "relative"
	GuardianRoleCaregiver = "caregiver"
)

// Guardian links a user to a child they may view and record for. AcceptedAt
// is nil while the invitation is pending; only accepted rows grant access.
type Guardian struct {
	ID         uuid.UUID  `json:"id"`
	ChildID    uuid.UUID  `json:"childId"`
	UserID     uuid.UUID  `json:"userId"`
	Role       string     `json:"role"`
	InviteToken string    `json:"-"`
	InvitedAt  time.Time  `json:"invitedAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// Accepted reports whether the invitation has been accepted.
func (g *Guardian) Accepted() bool {
	return g.AcceptedAt != nil
}
