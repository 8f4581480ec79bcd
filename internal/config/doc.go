// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package config loads and validates the layered server configuration
// (struct defaults, optional YAML file, environment variables) using koanf.
package config
