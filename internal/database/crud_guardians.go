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
	"time"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/models"
)

// Guardian errors
var (
	ErrGuardianNotFound = errors.New("guardian not found")
	ErrGuardianConflict = errors.New("user is already a guardian for this child")
	ErrInviteNotFound   = errors.New("invitation not found")
)

const guardianColumns = `id, child_id, user_id, role, invite_token, invited_at, accepted_at`

// CreateGuardianInvite inserts a pending guardian invitation.
func (db *DB) CreateGuardianInvite(ctx context.Context, g *models.Guardian) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.InvitedAt.IsZero() {
		g.InvitedAt = time.Now().UTC()
	}

	// One row per (child, user); re-inviting an existing guardian conflicts.
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guardians WHERE child_id = ? AND user_id = ?`,
		g.ChildID, g.UserID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check existing guardian: %w", err)
	}
	if count > 0 {
		return ErrGuardianConflict
	}

	query := `INSERT INTO guardians (` + guardianColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = db.conn.ExecContext(ctx, query,
		g.ID, g.ChildID, g.UserID, g.Role, g.InviteToken, g.InvitedAt, g.AcceptedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrGuardianConflict
		}
		return fmt.Errorf("failed to create guardian invite: %w", err)
	}
	return nil
}

// GetGuardianByToken retrieves a guardian row by its invitation token.
func (db *DB) GetGuardianByToken(ctx context.Context, token string) (*models.Guardian, error) {
	query := `SELECT ` + guardianColumns + ` FROM guardians WHERE invite_token = ?`
	g, err := scanGuardian(db.conn.QueryRowContext(ctx, query, token))
	if errors.Is(err, ErrGuardianNotFound) {
		return nil, ErrInviteNotFound
	}
	return g, err
}

// GetGuardianByID retrieves a guardian row by its primary key.
func (db *DB) GetGuardianByID(ctx context.Context, id uuid.UUID) (*models.Guardian, error) {
	query := `SELECT ` + guardianColumns + ` FROM guardians WHERE id = ?`
	return scanGuardian(db.conn.QueryRowContext(ctx, query, id))
}

// GetGuardian retrieves the guardian row linking a user to a child, if any.
func (db *DB) GetGuardian(ctx context.Context, childID, userID uuid.UUID) (*models.Guardian, error) {
	query := `SELECT ` + guardianColumns + ` FROM guardians WHERE child_id = ? AND user_id = ?`
	return scanGuardian(db.conn.QueryRowContext(ctx, query, childID, userID))
}

// AcceptGuardian marks a pending invitation as accepted. Accepting an already
// accepted invitation is a no-op conflict.
func (db *DB) AcceptGuardian(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE guardians SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to accept guardian invite: %w", err)
	}
	return requireRowAffected(result, ErrInviteNotFound)
}

// ListGuardiansForChild retrieves all guardian rows for a child, pending and
// accepted.
func (db *DB) ListGuardiansForChild(ctx context.Context, childID uuid.UUID) ([]models.Guardian, error) {
	query := `SELECT ` + guardianColumns + ` FROM guardians WHERE child_id = ? ORDER BY invited_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guardians: %w", err)
	}
	defer rows.Close()

	guardians := make([]models.Guardian, 0)
	for rows.Next() {
		var g models.Guardian
		if err := rows.Scan(&g.ID, &g.ChildID, &g.UserID, &g.Role, &g.InviteToken, &g.InvitedAt, &g.AcceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		guardians = append(guardians, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guardians: %w", err)
	}
	return guardians, nil
}

// DeleteGuardian revokes a guardian link.
func (db *DB) DeleteGuardian(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM guardians WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete guardian: %w", err)
	}
	return requireRowAffected(result, ErrGuardianNotFound)
}

// IsOwnerOrAcceptedGuardian reports whether the user may access the child:
// the owner of the profile or the holder of an accepted guardian link. This
// runs on every child-scoped request, so the statement is prepared once and
// reused.
func (db *DB) IsOwnerOrAcceptedGuardian(ctx context.Context, childID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*) FROM children c
		WHERE c.id = ?
		  AND (c.owner_id = ?
		       OR EXISTS (SELECT 1 FROM guardians g
		                  WHERE g.child_id = c.id AND g.user_id = ? AND g.accepted_at IS NOT NULL))`

	start := time.Now()
	stmt, err := db.prepared(ctx, query)
	if err != nil {
		return false, err
	}

	var count int
	err = stmt.QueryRowContext(ctx, childID, userID, userID).Scan(&count)
	observe("select", "guardians", start, err)
	if err != nil {
		return false, fmt.Errorf("failed to check child access: %w", err)
	}
	return count > 0, nil
}

// scanGuardian scans a single guardian row.
func scanGuardian(row *sql.Row) (*models.Guardian, error) {
	var g models.Guardian
	err := row.Scan(&g.ID, &g.ChildID, &g.UserID, &g.Role, &g.InviteToken, &g.InvitedAt, &g.AcceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuardianNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guardian: %w", err)
	}
	return &g, nil
}
