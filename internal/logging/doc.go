// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package logging provides the process-wide structured logger, request
// context propagation, and sensitive-field redaction used across Nestling.
package logging
