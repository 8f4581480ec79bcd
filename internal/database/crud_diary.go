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

// Diary errors
var ErrDiaryEntryNotFound = errors.New("diary entry not found")

const diaryColumns = `id, child_id, author_id, entry_date, title, content, photo_urls, created_at, updated_at`

// CreateDiaryEntry inserts a journal entry. Photo URLs are stored as a JSON
// array.
func (db *DB) CreateDiaryEntry(ctx context.Context, e *models.DiaryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.UpdatedAt = e.CreatedAt

	photos, err := marshalPhotoURLs(e.PhotoURLs)
	if err != nil {
		return err
	}

	query := `INSERT INTO diary_entries (` + diaryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.conn.ExecContext(ctx, query,
		e.ID, e.ChildID, e.AuthorID, e.Date, e.Title, e.Content, photos, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create diary entry: %w", err)
	}
	return nil
}

// GetDiaryEntry retrieves a journal entry by ID.
func (db *DB) GetDiaryEntry(ctx context.Context, id uuid.UUID) (*models.DiaryEntry, error) {
	query := `SELECT ` + diaryColumns + ` FROM diary_entries WHERE id = ?`
	return scanDiaryEntryRow(db.conn.QueryRowContext(ctx, query, id))
}

// ListDiaryEntries retrieves a child's journal entries, newest first, with
// offset/limit pagination and the total match count.
func (db *DB) ListDiaryEntries(ctx context.Context, childID uuid.UUID, from, to *time.Time, limit, offset int) ([]models.DiaryEntry, int, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, 0, ErrInvalidTimeRange
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	where := ` WHERE child_id = ?`
	args := []any{childID}
	if from != nil {
		where += ` AND entry_date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		where += ` AND entry_date <= ?`
		args = append(args, *to)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM diary_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count diary entries: %w", err)
	}

	query := `SELECT ` + diaryColumns + ` FROM diary_entries` + where +
		` ORDER BY entry_date DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list diary entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.DiaryEntry, 0)
	for rows.Next() {
		var e models.DiaryEntry
		var photos string
		if err := rows.Scan(&e.ID, &e.ChildID, &e.AuthorID, &e.Date, &e.Title, &e.Content, &photos, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan diary entry: %w", err)
		}
		if err := json.Unmarshal([]byte(photos), &e.PhotoURLs); err != nil {
			return nil, 0, fmt.Errorf("failed to decode photo urls: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating diary entries: %w", err)
	}
	return entries, total, nil
}

// UpdateDiaryEntry updates a journal entry.
func (db *DB) UpdateDiaryEntry(ctx context.Context, e *models.DiaryEntry) error {
	e.UpdatedAt = time.Now().UTC()

	photos, err := marshalPhotoURLs(e.PhotoURLs)
	if err != nil {
		return err
	}

	query := `UPDATE diary_entries SET
		entry_date = ?, title = ?, content = ?, photo_urls = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		e.Date, e.Title, e.Content, photos, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update diary entry: %w", err)
	}
	return requireRowAffected(result, ErrDiaryEntryNotFound)
}

// DeleteDiaryEntry removes a journal entry.
func (db *DB) DeleteDiaryEntry(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM diary_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	return requireRowAffected(result, ErrDiaryEntryNotFound)
}

// marshalPhotoURLs serializes photo URLs, defaulting nil to an empty array.
func marshalPhotoURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("failed to encode photo urls: %w", err)
	}
	return string(data), nil
}

// scanDiaryEntryRow scans a single diary entry row.
func scanDiaryEntryRow(row *sql.Row) (*models.DiaryEntry, error) {
	var e models.DiaryEntry
	var photos string
	err := row.Scan(&e.ID, &e.ChildID, &e.AuthorID, &e.Date, &e.Title, &e.Content, &photos, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiaryEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan diary entry: %w", err)
	}
	if err := json.Unmarshal([]byte(photos), &e.PhotoURLs); err != nil {
		return nil, fmt.Errorf("failed to decode photo urls: %w", err)
	}
	return &e, nil
}
