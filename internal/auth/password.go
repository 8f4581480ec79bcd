// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/models"
)

// bcryptCost balances hashing time against login latency.
const bcryptCost = 12

// SignupWithPassword creates a direct email/password account and issues a
// session. The email must not already be registered.
func (i *Identity) SignupWithPassword(ctx context.Context, email, password, name string) (*LoginResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: &hashStr,
	}
	if err := i.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := i.jwt.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &LoginResult{
		User:              user,
		Tokens:            tokens,
		IsNewUser:         true,
		NeedsProfileSetup: true,
	}, nil
}

// LoginWithPassword verifies direct credentials and issues a session.
// Unknown email and wrong password are indistinguishable to the caller.
func (i *Identity) LoginWithPassword(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := i.db.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.PasswordHash == nil {
		// OAuth-only account; comparing against an empty hash would leak
		// which case occurred through timing, so run bcrypt anyway.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	needsSetup, err := i.needsProfileSetup(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := i.jwt.GeneratePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &LoginResult{
		User:              user,
		Tokens:            tokens,
		NeedsProfileSetup: needsSetup,
	}, nil
}
