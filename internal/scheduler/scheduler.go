// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs, currently the purge of
// expired mailboxes.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"burnermail/internal/mailbox"
)

// purgeTimeout bounds one purge run.
const purgeTimeout = 30 * time.Second

// Scheduler handles scheduled tasks like purging expired mailboxes.
type Scheduler struct {
	mailbox  *mailbox.Service
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// New creates a new scheduler instance. schedule is a standard five-field
// cron expression.
func New(mailboxSvc *mailbox.Service, schedule string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		mailbox:  mailboxSvc,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the purge job and begins the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runPurge)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// runPurge executes one purge pass.
func (s *Scheduler) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	if _, err := s.mailbox.PurgeExpired(ctx); err != nil {
		s.logger.Error("failed to purge expired mailboxes", "error", err)
	}
}
