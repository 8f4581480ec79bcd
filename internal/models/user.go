// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration status values for User.RegistrationStatus.
const (
	RegistrationIncomplete = "incomplete"
	RegistrationCompleted  = "completed"
)

// OAuth provider names accepted by the login flow.
const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
)

// User is an account holder. The email address is the federation key: a user
// logging in through any OAuth provider with a known email resolves to the
// same account.
//
// PasswordHash is set only for direct email/password signups and is never
// serialized.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	AvatarURL       *string   `json:"avatarUrl,omitempty"`
	OAuthProvider   *string   `json:"oauthProvider,omitempty"`
	OAuthProviderID *string   `json:"-"`
	PasswordHash    *string   `json:"-"`

	// RegistrationStatus is incomplete until the user finishes profile
	// setup (registers a first child).
	RegistrationStatus string `json:"registrationStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasProvider reports whether the user is linked to the named OAuth provider.
func (u *User) HasProvider(provider string) bool {
	return u.OAuthProvider != nil && *u.OAuthProvider == provider
}

// DeviceToken registers a mobile device for push notification delivery.
type DeviceToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Platform  string    `json:"platform"` // ios or android
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// ValidPlatform reports whether the platform name is one we deliver to.
func ValidPlatform(p string) bool {
	return p == PlatformIOS || p == PlatformAndroid
}
