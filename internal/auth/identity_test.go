// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/models"
)

func newTestIdentity(t *testing.T) (*Identity, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return NewIdentity(db, newTestJWTManager(t)), db
}

func googleTestProfile(email string) *ExternalProfile {
	return &ExternalProfile{
		Provider:    "google",
		ExternalID:  "g-123",
		Email:       email,
		DisplayName: "Parent",
		AvatarURL:   "https://img.example.com/p.jpg",
	}
}

func TestHandleExternalLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email creates incomplete account", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		result, err := identity.HandleExternalLogin(ctx, googleTestProfile("new@example.com"))
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !result.IsNewUser || !result.NeedsProfileSetup {
			t.Errorf("is_new=%v needs_setup=%v, want true/true", result.IsNewUser, result.NeedsProfileSetup)
		}
		if result.User.RegistrationStatus != models.RegistrationIncomplete {
			t.Errorf("status = %q", result.User.RegistrationStatus)
		}
		if result.Tokens == nil || result.Tokens.AccessToken == "" {
			t.Error("no session issued")
		}
	})

	t.Run("known email resolves to same account across providers", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		first, err := identity.HandleExternalLogin(ctx, googleTestProfile("shared@example.com"))
		if err != nil {
			t.Fatalf("first login failed: %v", err)
		}

		kakao := &ExternalProfile{
			Provider:    "kakao",
			ExternalID:  "k-987",
			Email:       "shared@example.com",
			DisplayName: "Parent K",
		}
		second, err := identity.HandleExternalLogin(ctx, kakao)
		if err != nil {
			t.Fatalf("second login failed: %v", err)
		}

		if second.IsNewUser {
			t.Error("existing email treated as new user")
		}
		if second.User.ID != first.User.ID {
			t.Errorf("accounts diverged: %s vs %s", second.User.ID, first.User.ID)
		}
		if !second.User.HasProvider("kakao") {
			t.Errorf("provider link not refreshed: %+v", second.User.OAuthProvider)
		}
	})

	t.Run("missing email rejected", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		_, err := identity.HandleExternalLogin(ctx, googleTestProfile(""))
		var missingErr *MissingEmailError
		if !errors.As(err, &missingErr) {
			t.Fatalf("got %T, want MissingEmailError", err)
		}
	})

	t.Run("user with child no longer needs setup", func(t *testing.T) {
		identity, db := newTestIdentity(t)

		first, err := identity.HandleExternalLogin(ctx, googleTestProfile("parent@example.com"))
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}

		child := &models.Child{
			OwnerID:   first.User.ID,
			Name:      "Kid",
			BirthDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		}
		if err := db.CreateChild(ctx, child); err != nil {
			t.Fatalf("create child failed: %v", err)
		}

		again, err := identity.HandleExternalLogin(ctx, googleTestProfile("parent@example.com"))
		if err != nil {
			t.Fatalf("second login failed: %v", err)
		}
		if again.NeedsProfileSetup {
			t.Error("user with a child still flagged for setup")
		}
	})
}

func TestPasswordAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("signup then login", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		signup, err := identity.SignupWithPassword(ctx, "direct@example.com", "correct horse battery", "Direct User")
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if !signup.IsNewUser || !signup.NeedsProfileSetup {
			t.Errorf("signup flags = %+v", signup)
		}

		login, err := identity.LoginWithPassword(ctx, "direct@example.com", "correct horse battery")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if login.User.ID != signup.User.ID {
			t.Errorf("login resolved to different account")
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		if _, err := identity.SignupWithPassword(ctx, "direct@example.com", "right password", "User"); err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if _, err := identity.LoginWithPassword(ctx, "direct@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("got %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		if _, err := identity.LoginWithPassword(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("got %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("oauth-only account rejects password login", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		if _, err := identity.HandleExternalLogin(ctx, googleTestProfile("oauth@example.com")); err != nil {
			t.Fatalf("oauth login failed: %v", err)
		}
		if _, err := identity.LoginWithPassword(ctx, "oauth@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("got %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		identity, _ := newTestIdentity(t)

		if _, err := identity.SignupWithPassword(ctx, "dup@example.com", "password one", "User"); err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		if _, err := identity.SignupWithPassword(ctx, "dup@example.com", "password two", "User"); !errors.Is(err, database.ErrEmailConflict) {
			t.Fatalf("got %v, want ErrEmailConflict", err)
		}
	})
}
