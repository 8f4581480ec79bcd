// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package database

import "fmt"

// createTableStatements defines the full schema. All columns live in the
// initial CREATE TABLE statements; incremental changes go through versioned
// migrations once databases with real data exist.
var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		avatar_url TEXT,
		oauth_provider TEXT,
		oauth_provider_id TEXT,
		password_hash TEXT,
		registration_status TEXT NOT NULL DEFAULT 'incomplete',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS children (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL,
		name TEXT NOT NULL,
		birth_date TIMESTAMP NOT NULL,
		gender TEXT,
		birth_weight DOUBLE,
		birth_height DOUBLE,
		photo_url TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS guardians (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL,
		user_id UUID NOT NULL,
		role TEXT NOT NULL,
		invite_token TEXT NOT NULL UNIQUE,
		invited_at TIMESTAMP NOT NULL,
		accepted_at TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL,
		user_id UUID NOT NULL,
		activity_type TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS growth_records (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL,
		recorded_at TIMESTAMP NOT NULL,
		weight_kg DOUBLE,
		height_cm DOUBLE,
		head_cm DOUBLE,
		notes TEXT,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS diary_entries (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL,
		author_id UUID NOT NULL,
		entry_date TIMESTAMP NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		photo_urls TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS milestones (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL,
		title TEXT NOT NULL,
		achieved_at TIMESTAMP NOT NULL,
		description TEXT,
		photo_url TEXT,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS device_tokens (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		platform TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		sent_at TIMESTAMP
	);`,
}

// createIndexStatements defines secondary indexes for the hot list queries.
var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_children_owner ON children(owner_id);`,
	`CREATE INDEX IF NOT EXISTS idx_guardians_child ON guardians(child_id);`,
	`CREATE INDEX IF NOT EXISTS idx_guardians_user ON guardians(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_activities_child_time ON activities(child_id, occurred_at);`,
	`CREATE INDEX IF NOT EXISTS idx_growth_child_time ON growth_records(child_id, recorded_at);`,
	`CREATE INDEX IF NOT EXISTS idx_diary_child_date ON diary_entries(child_id, entry_date);`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_child_time ON milestones(child_id, achieved_at);`,
	`CREATE INDEX IF NOT EXISTS idx_devices_user ON device_tokens(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);`,
}

// createTables creates all tables if they do not exist.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range createTableStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates all secondary indexes if they do not exist.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range createIndexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
