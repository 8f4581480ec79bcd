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

// Growth record errors
var ErrGrowthRecordNotFound = errors.New("growth record not found")

const growthColumns = `id, child_id, recorded_at, weight_kg, height_cm, head_cm, notes, created_at`

// CreateGrowthRecord inserts a measurement.
func (db *DB) CreateGrowthRecord(ctx context.Context, r *models.GrowthRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = r.CreatedAt
	}

	query := `INSERT INTO growth_records (` + growthColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, query,
		r.ID, r.ChildID, r.RecordedAt, r.WeightKg, r.HeightCm, r.HeadCm, r.Notes, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create growth record: %w", err)
	}
	return nil
}

// GetGrowthRecord retrieves a measurement by ID.
func (db *DB) GetGrowthRecord(ctx context.Context, id uuid.UUID) (*models.GrowthRecord, error) {
	query := `SELECT ` + growthColumns + ` FROM growth_records WHERE id = ?`
	row := db.conn.QueryRowContext(ctx, query, id)

	var r models.GrowthRecord
	err := row.Scan(&r.ID, &r.ChildID, &r.RecordedAt, &r.WeightKg, &r.HeightCm, &r.HeadCm, &r.Notes, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGrowthRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan growth record: %w", err)
	}
	return &r, nil
}

// ListGrowthRecords retrieves all measurements for a child in chronological
// order, oldest first, for charting.
func (db *DB) ListGrowthRecords(ctx context.Context, childID uuid.UUID, from, to *time.Time) ([]models.GrowthRecord, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidTimeRange
	}

	query := `SELECT ` + growthColumns + ` FROM growth_records WHERE child_id = ?`
	args := []any{childID}
	if from != nil {
		query += ` AND recorded_at >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND recorded_at <= ?`
		args = append(args, *to)
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list growth records: %w", err)
	}
	defer rows.Close()

	records := make([]models.GrowthRecord, 0)
	for rows.Next() {
		var r models.GrowthRecord
		if err := rows.Scan(&r.ID, &r.ChildID, &r.RecordedAt, &r.WeightKg, &r.HeightCm, &r.HeadCm, &r.Notes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan growth record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating growth records: %w", err)
	}
	return records, nil
}

// UpdateGrowthRecord updates a measurement.
func (db *DB) UpdateGrowthRecord(ctx context.Context, r *models.GrowthRecord) error {
	query := `UPDATE growth_records SET
		recorded_at = ?, weight_kg = ?, height_cm = ?, head_cm = ?, notes = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		r.RecordedAt, r.WeightKg, r.HeightCm, r.HeadCm, r.Notes, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update growth record: %w", err)
	}
	return requireRowAffected(result, ErrGrowthRecordNotFound)
}

// DeleteGrowthRecord removes a measurement.
func (db *DB) DeleteGrowthRecord(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM growth_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete growth record: %w", err)
	}
	return requireRowAffected(result, ErrGrowthRecordNotFound)
}
