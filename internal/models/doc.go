// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package models defines the data structures used throughout the Nestling
// application: users, children, caregiving records, guardian links, device
// tokens, and the health status payload.
package models
