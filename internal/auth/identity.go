// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"fmt"

	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/models"
)

// Identity resolves external OAuth profiles to local accounts and issues
// first-party sessions.
type Identity struct {
	db  *database.DB
	jwt *JWTManager
}

// NewIdentity creates the identity resolution service.
func NewIdentity(db *database.DB, jwt *JWTManager) *Identity {
	return &Identity{db: db, jwt: jwt}
}

// LoginResult is the outcome of a completed login.
type LoginResult struct {
	User              *models.User
	Tokens            *TokenPair
	IsNewUser         bool
	NeedsProfileSetup bool
}

// HandleExternalLogin resolves a provider profile to an account and issues a
// session. Email is the federation key: a known email links the provider to
// the existing account, an unknown email creates a new one with
// registration_status incomplete.
//
// User creation is idempotent (upsert on the unique email), so a login
// retried after a mid-flow failure resolves to the same account with no
// orphan row.
func (i *Identity) HandleExternalLogin(ctx context.Context, profile *ExternalProfile) (*LoginResult, error) {
	if profile.Email == "" {
		return nil, &MissingEmailError{Provider: profile.Provider}
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.Email
	}

	candidate := &models.User{
		Email:           profile.Email,
		Name:            name,
		OAuthProvider:   &profile.Provider,
		OAuthProviderID: &profile.ExternalID,
	}
	if profile.AvatarURL != "" {
		candidate.AvatarURL = &profile.AvatarURL
	}

	user, created, err := i.db.UpsertUserByEmail(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	if !created {
		// Refresh the provider link on every login; the last provider used
		// wins.
		user.OAuthProvider = &profile.Provider
		user.OAuthProviderID = &profile.ExternalID
		if profile.AvatarURL != "" && user.AvatarURL == nil {
			user.AvatarURL = &profile.AvatarURL
		}
		if err := i.db.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to refresh provider link: %w", err)
		}
	}

	needsSetup, err := i.needsProfileSetup(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := i.jwt.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("provider", profile.Provider).
		Str("email", logging.SanitizeEmail(user.Email)).
		Bool("is_new_user", created).
		Bool("needs_profile_setup", needsSetup).
		Msg("External login completed")

	return &LoginResult{
		User:              user,
		Tokens:            tokens,
		IsNewUser:         created,
		NeedsProfileSetup: needsSetup,
	}, nil
}

// needsProfileSetup reports whether the client should route the user through
// profile setup: registration incomplete and no child registered yet.
func (i *Identity) needsProfileSetup(ctx context.Context, user *models.User) (bool, error) {
	if user.RegistrationStatus == models.RegistrationCompleted {
		return false, nil
	}
	count, err := i.db.CountChildrenForUser(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count children: %w", err)
	}
	return count == 0, nil
}
