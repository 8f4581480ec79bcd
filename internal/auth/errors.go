// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"errors"
	"fmt"
)

// State store errors
var (
	ErrStateNotFound    = errors.New("oauth state not found")
	ErrStateExpired     = errors.New("oauth state expired")
	ErrProviderMismatch = errors.New("oauth state was issued for a different provider")
)

// Credential errors
var ErrInvalidCredentials = errors.New("invalid email or password")

// MissingEmailError indicates the provider profile carried no email address.
// Email is the federation key, so login cannot proceed without it.
type MissingEmailError struct {
	Provider string
}

func (e *MissingEmailError) Error() string {
	return fmt.Sprintf("%s profile has no email address", e.Provider)
}

// TokenExchangeError indicates the provider rejected or mangled the
// authorization code exchange. A 200 with a schema-invalid body is reported
// the same way as a non-2xx status.
type TokenExchangeError struct {
	Provider   string
	StatusCode int
	Reason     string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("%s token exchange failed (status %d): %s", e.Provider, e.StatusCode, e.Reason)
}

// ProfileFetchError indicates the provider profile endpoint failed or
// returned a body missing required fields.
type ProfileFetchError struct {
	Provider   string
	StatusCode int
	Reason     string
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("%s profile fetch failed (status %d): %s", e.Provider, e.StatusCode, e.Reason)
}
