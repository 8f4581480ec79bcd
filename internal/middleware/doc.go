// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package middleware provides HTTP middleware shared across the API:
// request ID propagation, Prometheus instrumentation, and structured
// request logging with credential redaction.
package middleware
