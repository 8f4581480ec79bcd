// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package authz enforces child-scoped access control. Authorization is
// relational, not role-based: a user may touch a child's records only as the
// profile owner or through an accepted guardian link.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nestling-app/nestling/internal/database"
)

// ErrForbidden is returned for any actor who is neither owner nor accepted
// guardian. Callers map it to 403 without revealing whether the child or the
// requested record exists.
var ErrForbidden = errors.New("access to this child is not permitted")

// Guard answers child access questions against the database. Access is
// re-derived per request; nothing is cached between calls, so a revoked
// guardian loses access immediately.
type Guard struct {
	db *database.DB
}

// NewGuard creates an access guard backed by the database.
func NewGuard(db *database.DB) *Guard {
	return &Guard{db: db}
}

// RequireChildAccess returns nil when the user may access the child and
// ErrForbidden otherwise. A nonexistent child also yields ErrForbidden: the
// denial must not disclose record existence.
func (g *Guard) RequireChildAccess(ctx context.Context, childID, userID uuid.UUID) error {
	ok, err := g.db.IsOwnerOrAcceptedGuardian(ctx, childID, userID)
	if err != nil {
		return fmt.Errorf("failed to check child access: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// RequireChildOwner returns nil only for the profile owner. Guardian
// management (inviting, revoking) is owner-only.
func (g *Guard) RequireChildOwner(ctx context.Context, childID, userID uuid.UUID) error {
	child, err := g.db.GetChild(ctx, childID)
	if errors.Is(err, database.ErrChildNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("failed to load child: %w", err)
	}
	if child.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}
