// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package services

import (
	"context"
	"time"

	"github.com/nestling-app/nestling/internal/auth"
	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/metrics"
)

// StateSweepService periodically removes expired OAuth states. Badger's TTL
// already reclaims most entries; the sweep is the explicit backstop with an
// owned lifecycle, so expiry never depends on a constructor side effect.
type StateSweepService struct {
	states   *auth.StateStore
	interval time.Duration
}

// NewStateSweepService creates the sweeper.
func NewStateSweepService(states *auth.StateStore, interval time.Duration) *StateSweepService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StateSweepService{states: states, interval: interval}
}

// Serve implements suture.Service.
func (s *StateSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StateSweepService) sweep(ctx context.Context) {
	removed, err := s.states.SweepExpired(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("OAuth state sweep failed")
		return
	}

	remaining, err := s.states.Count(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("OAuth state count failed")
		remaining = 0
	}
	metrics.RecordStateSweep(removed, remaining)

	if removed > 0 {
		logging.Ctx(ctx).Info().
			Int("removed", removed).
			Int("remaining", remaining).
			Msg("Swept expired OAuth states")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *StateSweepService) String() string {
	return "oauth-state-sweeper"
}
