// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package services

import (
	"context"
	"time"

	"github.com/nestling-app/nestling/internal/logging"
	"github.com/nestling-app/nestling/internal/metrics"
	"github.com/nestling-app/nestling/internal/notify"
)

// outboxBatchSize bounds how many queued notifications one tick hands off.
const outboxBatchSize = 100

// OutboxService drains the notification outbox on a fixed interval,
// handing queued rows to the delivery pipeline.
type OutboxService struct {
	notify   *notify.Service
	interval time.Duration
}

// NewOutboxService creates the outbox drainer.
func NewOutboxService(n *notify.Service, interval time.Duration) *OutboxService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OutboxService{notify: n, interval: interval}
}

// Serve implements suture.Service.
func (s *OutboxService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			dispatched, err := s.notify.DispatchPending(ctx, outboxBatchSize)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("Notification outbox dispatch failed")
				continue
			}
			if dispatched > 0 {
				metrics.NotificationsDispatched.Add(float64(dispatched))
			}
			if pending, err := s.notify.PendingCount(ctx); err == nil {
				metrics.NotificationsPending.Set(float64(pending))
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *OutboxService) String() string {
	return "notification-outbox"
}
