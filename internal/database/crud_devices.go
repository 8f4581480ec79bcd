// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/models"
)

// Device and notification errors
var (
	ErrDeviceNotFound       = errors.New("device token not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// RegisterDevice stores a push token for a user. Re-registering the same
// token moves it to the new user, so a device that changes accounts only ever
// has one row.
func (db *DB) RegisterDevice(ctx context.Context, d *models.DeviceToken) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	// Token is unique; drop any previous registration first.
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ?`, d.Token); err != nil {
		return fmt.Errorf("failed to clear existing device token: %w", err)
	}

	query := `INSERT INTO device_tokens (id, user_id, platform, token, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, query, d.ID, d.UserID, d.Platform, d.Token, d.CreatedAt); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// ListDevicesForUser retrieves a user's registered devices.
func (db *DB) ListDevicesForUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	query := `SELECT id, user_id, platform, token, created_at FROM device_tokens WHERE user_id = ? ORDER BY created_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := make([]models.DeviceToken, 0)
	for rows.Next() {
		var d models.DeviceToken
		if err := rows.Scan(&d.ID, &d.UserID, &d.Platform, &d.Token, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// UnregisterDevice removes a device token owned by the user.
func (db *DB) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM device_tokens WHERE user_id = ? AND token = ?`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	return requireRowAffected(result, ErrDeviceNotFound)
}

// CreateNotification writes an outbox row for later delivery.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO notifications (id, user_id, kind, title, body, created_at, sent_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, query, n.ID, n.UserID, n.Kind, n.Title, n.Body, n.CreatedAt, n.SentAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListPendingNotifications retrieves unsent outbox rows, oldest first.
func (db *DB) ListPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := `SELECT id, user_id, kind, title, body, created_at, sent_at
	FROM notifications WHERE sent_at IS NULL ORDER BY created_at ASC LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.CreatedAt, &n.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// CountPendingNotifications returns the number of unsent outbox rows.
func (db *DB) CountPendingNotifications(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE sent_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationSent stamps an outbox row as handed off.
func (db *DB) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET sent_at = ? WHERE id = ? AND sent_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return requireRowAffected(result, ErrNotificationNotFound)
}
