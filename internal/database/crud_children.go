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

// Child errors
var ErrChildNotFound = errors.New("child not found")

const childColumns = `id, owner_id, name, birth_date, gender, birth_weight,
	birth_height, photo_url, created_at, updated_at`

// CreateChild inserts a new child profile owned by its creator.
func (db *DB) CreateChild(ctx context.Context, child *models.Child) error {
	if child.ID == uuid.Nil {
		child.ID = uuid.New()
	}
	if child.CreatedAt.IsZero() {
		child.CreatedAt = time.Now().UTC()
	}
	child.UpdatedAt = child.CreatedAt

	query := `INSERT INTO children (` + childColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		child.ID, child.OwnerID, child.Name, child.BirthDate, child.Gender,
		child.BirthWeight, child.BirthHeight, child.PhotoURL, child.CreatedAt, child.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	return nil
}

// GetChild retrieves a child by ID.
func (db *DB) GetChild(ctx context.Context, id uuid.UUID) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = ?`
	return scanChild(db.conn.QueryRowContext(ctx, query, id))
}

// ListChildrenForUser retrieves all children the user can access: owned
// profiles plus those shared through an accepted guardian link.
func (db *DB) ListChildrenForUser(ctx context.Context, userID uuid.UUID) ([]models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children
	WHERE owner_id = ?
	   OR id IN (SELECT child_id FROM guardians WHERE user_id = ? AND accepted_at IS NOT NULL)
	ORDER BY created_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := make([]models.Child, 0)
	for rows.Next() {
		var c models.Child
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &c.BirthDate, &c.Gender,
			&c.BirthWeight, &c.BirthHeight, &c.PhotoURL, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children: %w", err)
	}
	return children, nil
}

// CountChildrenForUser counts children the user owns. Zero means the user
// still needs profile setup.
func (db *DB) CountChildrenForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM children WHERE owner_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}

// UpdateChild updates mutable child profile fields.
func (db *DB) UpdateChild(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()

	query := `UPDATE children SET
		name = ?, birth_date = ?, gender = ?, birth_weight = ?,
		birth_height = ?, photo_url = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		child.Name, child.BirthDate, child.Gender, child.BirthWeight,
		child.BirthHeight, child.PhotoURL, child.UpdatedAt, child.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return requireRowAffected(result, ErrChildNotFound)
}

// DeleteChild removes a child and all dependent records.
func (db *DB) DeleteChild(ctx context.Context, id uuid.UUID) error {
	// DuckDB has no cascading foreign keys here; dependent rows are removed
	// explicitly in one transaction.
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM activities WHERE child_id = ?`,
		`DELETE FROM growth_records WHERE child_id = ?`,
		`DELETE FROM diary_entries WHERE child_id = ?`,
		`DELETE FROM milestones WHERE child_id = ?`,
		`DELETE FROM guardians WHERE child_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete child records: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	if err := requireRowAffected(result, ErrChildNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// scanChild scans a single child row.
func scanChild(row *sql.Row) (*models.Child, error) {
	var c models.Child
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.BirthDate, &c.Gender,
		&c.BirthWeight, &c.BirthHeight, &c.PhotoURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan child: %w", err)
	}
	return &c, nil
}
