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

// Milestone errors
var ErrMilestoneNotFound = errors.New("milestone not found")

const milestoneColumns = `id, child_id, title, achieved_at, description, photo_url, created_at`

// CreateMilestone inserts a developmental milestone.
func (db *DB) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.AchievedAt.IsZero() {
		m.AchievedAt = m.CreatedAt
	}

	query := `INSERT INTO milestones (` + milestoneColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, query,
		m.ID, m.ChildID, m.Title, m.AchievedAt, m.Description, m.PhotoURL, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

// GetMilestone retrieves a milestone by ID.
func (db *DB) GetMilestone(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = ?`
	row := db.conn.QueryRowContext(ctx, query, id)

	var m models.Milestone
	err := row.Scan(&m.ID, &m.ChildID, &m.Title, &m.AchievedAt, &m.Description, &m.PhotoURL, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan milestone: %w", err)
	}
	return &m, nil
}

// ListMilestones retrieves a child's milestones in achievement order.
func (db *DB) ListMilestones(ctx context.Context, childID uuid.UUID) ([]models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE child_id = ? ORDER BY achieved_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := make([]models.Milestone, 0)
	for rows.Next() {
		var m models.Milestone
		if err := rows.Scan(&m.ID, &m.ChildID, &m.Title, &m.AchievedAt, &m.Description, &m.PhotoURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}
	return milestones, nil
}

// UpdateMilestone updates a milestone.
func (db *DB) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	query := `UPDATE milestones SET
		title = ?, achieved_at = ?, description = ?, photo_url = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		m.Title, m.AchievedAt, m.Description, m.PhotoURL, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update milestone: %w", err)
	}
	return requireRowAffected(result, ErrMilestoneNotFound)
}

// DeleteMilestone removes a milestone.
func (db *DB) DeleteMilestone(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	return requireRowAffected(result, ErrMilestoneNotFound)
}
