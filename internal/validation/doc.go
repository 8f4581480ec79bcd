// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package validation wraps go-playground/validator with translated,
// field-scoped error messages for request payloads.
package validation
