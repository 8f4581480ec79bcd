// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/models"
)

// User errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailConflict = errors.New("user with this email already exists")
)

const userColumns = `id, email, name, avatar_url, oauth_provider, oauth_provider_id,
	password_hash, registration_status, created_at, updated_at`

// CreateUser inserts a new user. Email uniqueness is enforced by the schema;
// a duplicate returns ErrEmailConflict.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	if user.RegistrationStatus == "" {
		user.RegistrationStatus = models.RegistrationIncomplete
	}
	user.Email = normalizeEmail(user.Email)

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.AvatarURL, user.OAuthProvider, user.OAuthProviderID,
		user.PasswordHash, user.RegistrationStatus, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpsertUserByEmail creates the user, or returns the existing account when
// the email is already registered. Login flows rely on this being idempotent:
// retrying an interrupted login after user creation but before session
// issuance resolves to the same account with no orphan row.
func (db *DB) UpsertUserByEmail(ctx context.Context, user *models.User) (*models.User, bool, error) {
	err := db.CreateUser(ctx, user)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, ErrEmailConflict) {
		return nil, false, err
	}

	existing, err := db.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetUserByID retrieves a user by ID. Every authenticated request resolves
// its user through here, so the statement is prepared once and reused.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	start := time.Now()
	stmt, err := db.prepared(ctx, query)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(stmt.QueryRowContext(ctx, id))
	observe("select", "users", start, err)
	return user, err
}

// GetUserByEmail retrieves a user by email. Lookup is case-insensitive; the
// stored email is the federation key across OAuth providers.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(db.conn.QueryRowContext(ctx, query, normalizeEmail(email)))
}

// UpdateUser updates mutable profile fields.
func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `UPDATE users SET
		name = ?, avatar_url = ?, oauth_provider = ?, oauth_provider_id = ?,
		registration_status = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		user.Name, user.AvatarURL, user.OAuthProvider, user.OAuthProviderID,
		user.RegistrationStatus, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRowAffected(result, ErrUserNotFound)
}

// CompleteRegistration marks the user's registration as completed. Called
// when the first child profile is created.
func (db *DB) CompleteRegistration(ctx context.Context, userID uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET registration_status = ?, updated_at = ? WHERE id = ?`,
		models.RegistrationCompleted, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete registration: %w", err)
	}
	return requireRowAffected(result, ErrUserNotFound)
}

// scanUser scans a single user row.
func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.OAuthProvider, &u.OAuthProviderID,
		&u.PasswordHash, &u.RegistrationStatus, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// requireRowAffected converts a zero-row update into notFound.
func requireRowAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

// normalizeEmail lowercases and trims an email for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
