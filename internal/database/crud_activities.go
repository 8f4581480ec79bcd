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

	json "github.com/goccy/go-json"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/models"
)

// Activity errors
var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrInvalidTimeRange = errors.New("date_from must not be after date_to")
)

const activityColumns = `id, child_id, user_id, activity_type, occurred_at, data, notes, created_at, updated_at`

// ActivityFilter narrows activity list queries. From/To bound the occurrence
// time; Type narrows to one activity type. Limit of 0 falls back to the
// default page size.
type ActivityFilter struct {
	ChildID uuid.UUID
	Type    string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// defaultPageSize bounds list responses when no limit is given.
const defaultPageSize = 50

// maxPageSize caps a caller-supplied limit.
const maxPageSize = 200

// normalize applies paging defaults and validates the time range.
func (f *ActivityFilter) normalize() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidTimeRange
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}

// CreateActivity inserts a caregiving event. The data payload is stored as
// serialized JSON; callers validate it against the type schema first.
func (db *DB) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	if a.Timestamp.IsZero() {
		a.Timestamp = a.CreatedAt
	}

	query := `INSERT INTO activities (` + activityColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	stmt, err := db.prepared(ctx, query)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		a.ID, a.ChildID, a.UserID, a.Type, a.Timestamp, string(a.Data), a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	observe("insert", "activities", start, err)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID.
func (db *DB) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = ?`
	return scanActivity(db.conn.QueryRowContext(ctx, query, id))
}

// ListActivities retrieves activities matching the filter, newest first, and
// the total match count for pagination meta.
func (db *DB) ListActivities(ctx context.Context, filter ActivityFilter) ([]models.Activity, int, error) {
	if err := filter.normalize(); err != nil {
		return nil, 0, err
	}

	where := ` WHERE child_id = ?`
	args := []any{filter.ChildID}
	if filter.Type != "" {
		where += ` AND activity_type = ?`
		args = append(args, filter.Type)
	}
	if filter.From != nil {
		where += ` AND occurred_at >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where += ` AND occurred_at <= ?`
		args = append(args, *filter.To)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `SELECT ` + activityColumns + ` FROM activities` + where +
		` ORDER BY occurred_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		var data string
		if err := rows.Scan(&a.ID, &a.ChildID, &a.UserID, &a.Type, &a.Timestamp, &data, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Data = json.RawMessage(data)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, total, nil
}

// UpdateActivity updates an activity's type, time, payload, and notes.
func (db *DB) UpdateActivity(ctx context.Context, a *models.Activity) error {
	a.UpdatedAt = time.Now().UTC()

	query := `UPDATE activities SET
		activity_type = ?, occurred_at = ?, data = ?, notes = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		a.Type, a.Timestamp, string(a.Data), a.Notes, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireRowAffected(result, ErrActivityNotFound)
}

// DeleteActivity removes an activity.
func (db *DB) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return requireRowAffected(result, ErrActivityNotFound)
}

// scanActivity scans a single activity row.
func scanActivity(row *sql.Row) (*models.Activity, error) {
	var a models.Activity
	var data string
	err := row.Scan(&a.ID, &a.ChildID, &a.UserID, &a.Type, &a.Timestamp, &data, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	a.Data = json.RawMessage(data)
	return &a, nil
}
