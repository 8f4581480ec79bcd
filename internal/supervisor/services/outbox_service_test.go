// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nestling-app/nestling/internal/config"
	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/metrics"
	"github.com/nestling-app/nestling/internal/models"
	"github.com/nestling-app/nestling/internal/notify"
)

func newTestNotifyService(t *testing.T) (*notify.Service, *database.DB) {
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
	return notify.NewService(db), db
}

func TestOutboxService(t *testing.T) {
	svc, db := newTestNotifyService(t)
	ctx := context.Background()

	user := &models.User{Email: "parent@example.com", Name: "Parent"}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if _, err := svc.RegisterDevice(ctx, user.ID, models.PlatformIOS, "device-token"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.NotifyGuardianInvite(ctx, user.ID, "Kid"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// Seed the gauge with a stale value; only the drainer resets it.
	metrics.NotificationsPending.Set(99)

	outbox := NewOutboxService(svc, 10*time.Millisecond)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- outbox.Serve(runCtx)
	}()

	deadline := time.After(2 * time.Second)
	for {
		pending, err := db.ListPendingNotifications(ctx, 10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		// The gauge is refreshed in the same tick that drains the rows.
		if len(pending) == 0 && testutil.ToFloat64(metrics.NotificationsPending) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("outbox still has %d pending notifications (gauge %v)",
				len(pending), testutil.ToFloat64(metrics.NotificationsPending))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestOutboxServiceString(t *testing.T) {
	outbox := NewOutboxService(nil, 0)
	if got := outbox.String(); got != "notification-outbox" {
		t.Errorf("String() = %q, want %q", got, "notification-outbox")
	}
}
