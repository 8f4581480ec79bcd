// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/models"
)

var testBirthDate = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestUserCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("create and get by email is case insensitive", func(t *testing.T) {
		user := createTestUser(t, db, "Parent@Example.COM")

		got, err := db.GetUserByEmail(ctx, "parent@example.com")
		if err != nil {
			t.Fatalf("get by email failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("got user %s, want %s", got.ID, user.ID)
		}
		if got.RegistrationStatus != models.RegistrationIncomplete {
			t.Errorf("new user status = %q, want incomplete", got.RegistrationStatus)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		createTestUser(t, db, "dup@example.com")
		err := db.CreateUser(ctx, &models.User{Email: "dup@example.com", Name: "Other"})
		if !errors.Is(err, ErrEmailConflict) {
			t.Fatalf("expected ErrEmailConflict, got %v", err)
		}
	})

	t.Run("upsert by email is idempotent", func(t *testing.T) {
		first := &models.User{Email: "upsert@example.com", Name: "First"}
		got, created, err := db.UpsertUserByEmail(ctx, first)
		if err != nil || !created {
			t.Fatalf("first upsert: created=%v err=%v", created, err)
		}

		second := &models.User{Email: "upsert@example.com", Name: "Second"}
		again, created, err := db.UpsertUserByEmail(ctx, second)
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if created {
			t.Error("second upsert reported a new user")
		}
		if again.ID != got.ID {
			t.Errorf("upsert resolved to %s, want %s", again.ID, got.ID)
		}
	})

	t.Run("complete registration", func(t *testing.T) {
		user := createTestUser(t, db, "complete@example.com")
		if err := db.CompleteRegistration(ctx, user.ID); err != nil {
			t.Fatalf("complete registration failed: %v", err)
		}
		got, err := db.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.RegistrationStatus != models.RegistrationCompleted {
			t.Errorf("status = %q, want completed", got.RegistrationStatus)
		}
	})

	t.Run("missing user returns not found", func(t *testing.T) {
		_, err := db.GetUserByID(ctx, uuid.New())
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestChildAndGuardianAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	guardian := createTestUser(t, db, "guardian@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	child := createTestChild(t, db, owner.ID)

	t.Run("owner has access", func(t *testing.T) {
		ok, err := db.IsOwnerOrAcceptedGuardian(ctx, child.ID, owner.ID)
		if err != nil || !ok {
			t.Fatalf("owner access = %v, err = %v", ok, err)
		}
	})

	t.Run("pending guardian has no access", func(t *testing.T) {
		invite := &models.Guardian{
			ChildID:     child.ID,
			UserID:      guardian.ID,
			Role:        models.GuardianRoleRelative,
			InviteToken: "invite-token-1",
		}
		if err := db.CreateGuardianInvite(ctx, invite); err != nil {
			t.Fatalf("create invite failed: %v", err)
		}

		ok, err := db.IsOwnerOrAcceptedGuardian(ctx, child.ID, guardian.ID)
		if err != nil {
			t.Fatalf("access check failed: %v", err)
		}
		if ok {
			t.Error("pending guardian should not have access")
		}
	})

	t.Run("accepted guardian has access", func(t *testing.T) {
		invite, err := db.GetGuardianByToken(ctx, "invite-token-1")
		if err != nil {
			t.Fatalf("get by token failed: %v", err)
		}
		if err := db.AcceptGuardian(ctx, invite.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		ok, err := db.IsOwnerOrAcceptedGuardian(ctx, child.ID, guardian.ID)
		if err != nil || !ok {
			t.Fatalf("accepted guardian access = %v, err = %v", ok, err)
		}

		// Second accept is a conflict, not a silent success.
		if err := db.AcceptGuardian(ctx, invite.ID); !errors.Is(err, ErrInviteNotFound) {
			t.Errorf("double accept: got %v, want ErrInviteNotFound", err)
		}
	})

	t.Run("stranger has no access even for existing child", func(t *testing.T) {
		ok, err := db.IsOwnerOrAcceptedGuardian(ctx, child.ID, stranger.ID)
		if err != nil {
			t.Fatalf("access check failed: %v", err)
		}
		if ok {
			t.Error("stranger should not have access")
		}
	})

	t.Run("shared child appears in guardian listing", func(t *testing.T) {
		children, err := db.ListChildrenForUser(ctx, guardian.ID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(children) != 1 || children[0].ID != child.ID {
			t.Errorf("guardian listing = %+v", children)
		}
	})

	t.Run("re-inviting existing guardian conflicts", func(t *testing.T) {
		err := db.CreateGuardianInvite(ctx, &models.Guardian{
			ChildID:     child.ID,
			UserID:      guardian.ID,
			Role:        models.GuardianRoleRelative,
			InviteToken: "invite-token-2",
		})
		if !errors.Is(err, ErrGuardianConflict) {
			t.Fatalf("expected ErrGuardianConflict, got %v", err)
		}
	})

	t.Run("delete child removes dependents", func(t *testing.T) {
		if err := db.DeleteChild(ctx, child.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := db.GetChild(ctx, child.ID); !errors.Is(err, ErrChildNotFound) {
			t.Errorf("expected ErrChildNotFound, got %v", err)
		}
		guardians, err := db.ListGuardiansForChild(ctx, child.ID)
		if err != nil {
			t.Fatalf("list guardians failed: %v", err)
		}
		if len(guardians) != 0 {
			t.Errorf("guardians not cascaded: %+v", guardians)
		}
	})
}

func TestActivityListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "activities@example.com")
	child := createTestChild(t, db, owner.ID)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		a := &models.Activity{
			ChildID:   child.ID,
			UserID:    owner.ID,
			Type:      models.ActivityFeeding,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Data:      []byte(`{"method":"bottle","amountMl":100}`),
		}
		if err := db.CreateActivity(ctx, a); err != nil {
			t.Fatalf("create activity %d failed: %v", i, err)
		}
	}

	t.Run("newest first with total", func(t *testing.T) {
		list, total, err := db.ListActivities(ctx, ActivityFilter{ChildID: child.ID})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if total != 5 || len(list) != 5 {
			t.Fatalf("total = %d len = %d, want 5/5", total, len(list))
		}
		if !list[0].Timestamp.After(list[4].Timestamp) {
			t.Error("list not newest first")
		}
	})

	t.Run("time range filter", func(t *testing.T) {
		from := base.Add(1 * time.Hour)
		to := base.Add(3 * time.Hour)
		list, total, err := db.ListActivities(ctx, ActivityFilter{ChildID: child.ID, From: &from, To: &to})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if total != 3 || len(list) != 3 {
			t.Errorf("total = %d len = %d, want 3/3", total, len(list))
		}
	})

	t.Run("offset limit pagination", func(t *testing.T) {
		list, total, err := db.ListActivities(ctx, ActivityFilter{ChildID: child.ID, Limit: 2, Offset: 4})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if total != 5 {
			t.Errorf("total = %d, want 5", total)
		}
		if len(list) != 1 {
			t.Errorf("page len = %d, want 1", len(list))
		}
	})

	t.Run("inverted range rejected before query", func(t *testing.T) {
		from := base.Add(3 * time.Hour)
		to := base.Add(1 * time.Hour)
		_, _, err := db.ListActivities(ctx, ActivityFilter{ChildID: child.ID, From: &from, To: &to})
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
		}
	})

	t.Run("payload round trips", func(t *testing.T) {
		list, _, err := db.ListActivities(ctx, ActivityFilter{ChildID: child.ID, Limit: 1})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if string(list[0].Data) != `{"method":"bottle","amountMl":100}` {
			t.Errorf("payload mangled: %s", list[0].Data)
		}
	})
}

func TestDeviceRegistration(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	t.Run("token moves between accounts", func(t *testing.T) {
		if err := db.RegisterDevice(ctx, &models.DeviceToken{
			UserID: alice.ID, Platform: models.PlatformIOS, Token: "push-token",
		}); err != nil {
			t.Fatalf("first register failed: %v", err)
		}
		if err := db.RegisterDevice(ctx, &models.DeviceToken{
			UserID: bob.ID, Platform: models.PlatformIOS, Token: "push-token",
		}); err != nil {
			t.Fatalf("second register failed: %v", err)
		}

		aliceDevices, err := db.ListDevicesForUser(ctx, alice.ID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(aliceDevices) != 0 {
			t.Errorf("token should have moved off alice: %+v", aliceDevices)
		}
		bobDevices, err := db.ListDevicesForUser(ctx, bob.ID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(bobDevices) != 1 {
			t.Errorf("bob devices = %+v", bobDevices)
		}
	})

	t.Run("unregister requires ownership", func(t *testing.T) {
		err := db.UnregisterDevice(ctx, alice.ID, "push-token")
		if !errors.Is(err, ErrDeviceNotFound) {
			t.Fatalf("expected ErrDeviceNotFound for non-owner, got %v", err)
		}
		if err := db.UnregisterDevice(ctx, bob.ID, "push-token"); err != nil {
			t.Fatalf("owner unregister failed: %v", err)
		}
	})
}

func TestNotificationOutbox(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "notify@example.com")

	n := &models.Notification{
		UserID: user.ID,
		Kind:   models.NotificationGuardianInvite,
		Title:  "Guardian invitation",
		Body:   "You have been invited to follow a child",
	}
	if err := db.CreateNotification(ctx, n); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pending, err := db.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := db.MarkNotificationSent(ctx, n.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	if err := db.MarkNotificationSent(ctx, n.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("double mark: got %v, want ErrNotificationNotFound", err)
	}

	pending, err = db.ListPendingNotifications(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after send = %d, want 0", len(pending))
	}
}
