// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package auth implements the login stack: the BadgerDB-backed OAuth state
// store, provider clients for the authorization-code flow, identity
// resolution keyed on email, password credentials, and first-party JWT
// session issuance.
package auth
