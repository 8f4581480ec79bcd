// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package notify handles push notification bookkeeping: device token
// registration and an outbox of queued notifications. Actual delivery is
// delegated to the platform push pipeline; this service records intent and
// hands rows off.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/database"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/models"
)

// Service records device registrations and enqueues notifications.
type Service struct {
	db *database.DB
}

// NewService creates the notification service.
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// RegisterDevice stores a push token for the user.
func (s *Service) RegisterDevice(ctx context.Context, userID uuid.UUID, platform, token string) (*models.DeviceToken, error) {
	device := &models.DeviceToken{
		UserID:   userID,
		Platform: platform,
		Token:    token,
	}
	if err := s.db.RegisterDevice(ctx, device); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("platform", platform).
		Str("token", logging.SanitizeToken(token)).
		Msg("Device registered for push notifications")

	return device, nil
}

// UnregisterDevice removes a push token owned by the user.
func (s *Service) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return s.db.UnregisterDevice(ctx, userID, token)
}

// ListDevices returns the user's registered devices.
func (s *Service) ListDevices(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	return s.db.ListDevicesForUser(ctx, userID)
}

// Enqueue writes a notification to the outbox. Users with no registered
// device still get a row; they may register a device later and the intent is
// part of the record either way.
func (s *Service) Enqueue(ctx context.Context, userID uuid.UUID, kind, title, body string) error {
	n := &models.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}
	if err := s.db.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("kind", kind).
		Str("notification_id", n.ID.String()).
		Msg("Notification enqueued")
	return nil
}

// NotifyGuardianInvite enqueues the invitation notification for an invited
// user.
func (s *Service) NotifyGuardianInvite(ctx context.Context, inviteeID uuid.UUID, childName string) error {
	return s.Enqueue(ctx, inviteeID,
		models.NotificationGuardianInvite,
		"Guardian invitation",
		fmt.Sprintf("You have been invited to follow %s", childName),
	)
}

// PendingCount returns the current outbox depth.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.db.CountPendingNotifications(ctx)
}

// DispatchPending marks queued notifications as handed off to the delivery
// pipeline and logs each one. Returns the number dispatched.
func (s *Service) DispatchPending(ctx context.Context, batchSize int) (int, error) {
	pending, err := s.db.ListPendingNotifications(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, n := range pending {
		devices, err := s.db.ListDevicesForUser(ctx, n.UserID)
		if err != nil {
			return dispatched, err
		}
		if len(devices) == 0 {
			// No device yet; leave the row queued.
			continue
		}

		if err := s.db.MarkNotificationSent(ctx, n.ID); err != nil {
			return dispatched, err
		}
		dispatched++

		logging.Ctx(ctx).Info().
			Str("notification_id", n.ID.String()).
			Str("kind", n.Kind).
			Int("devices", len(devices)).
			Msg("Notification dispatched")
	}

	return dispatched, nil
}
