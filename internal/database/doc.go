// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package database provides the embedded DuckDB storage layer: schema
// creation, versioned migrations, and CRUD for users, children, guardians,
// and caregiving records.
package database
