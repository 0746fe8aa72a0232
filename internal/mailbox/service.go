// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailbox implements the disposable inbox service: random addresses
// with a limited lifetime, message ingestion and retrieval, and purging of
// expired inboxes.
package mailbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"burnermail/internal/model"
	"burnermail/internal/sanitize"
	"burnermail/internal/store"
)

// addressTokenLength is the length of the random local part of an address.
const addressTokenLength = 12

// Service provides disposable mailbox operations.
type Service struct {
	queries   *store.Queries
	sanitizer *sanitize.Sanitizer
	domain    string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewService creates a mailbox service. domain is the mail domain new
// addresses are minted under; ttl is the lifetime of a fresh mailbox.
func NewService(db *sql.DB, sanitizer *sanitize.Sanitizer, domain string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		queries:   store.New(db),
		sanitizer: sanitizer,
		domain:    domain,
		ttl:       ttl,
		logger:    logger,
	}
}

// Create mints a new disposable mailbox with a random address.
func (s *Service) Create(ctx context.Context) (store.Mailbox, error) {
	now := time.Now().UTC()
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:addressTokenLength]

	mb, err := s.queries.CreateMailbox(ctx, store.CreateMailboxParams{
		ID:        uuid.NewString(),
		Address:   token + "@" + s.domain,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return store.Mailbox{}, fmt.Errorf("creating mailbox: %w", err)
	}

	s.logger.Info("mailbox created", "address", mb.Address, "expires_at", mb.ExpiresAt)
	return mb, nil
}

// DeliverInput carries one inbound message.
type DeliverInput struct {
	Address string
	Sender  string
	Subject string
	Body    string
}

// Deliver ingests an inbound message into a live mailbox. The HTML body is
// untrusted and passes through the same sanitizer as blog content; the store
// never receives raw input. Delivery to an unknown or expired mailbox
// returns ErrNotFound.
func (s *Service) Deliver(ctx context.Context, in DeliverInput) (store.Message, error) {
	if in.Address == "" {
		return store.Message{}, model.NewValidationError("address", "must not be empty")
	}
	if in.Sender == "" {
		return store.Message{}, model.NewValidationError("sender", "must not be empty")
	}

	mb, err := s.liveMailbox(ctx, in.Address)
	if err != nil {
		return store.Message{}, err
	}

	msg, err := s.queries.CreateMessage(ctx, store.CreateMessageParams{
		ID:         uuid.NewString(),
		MailboxID:  mb.ID,
		Sender:     in.Sender,
		Subject:    in.Subject,
		Body:       s.sanitizer.Sanitize(in.Body),
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return store.Message{}, fmt.Errorf("storing message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a live mailbox's messages, newest first.
func (s *Service) ListMessages(ctx context.Context, address string) ([]store.Message, error) {
	mb, err := s.liveMailbox(ctx, address)
	if err != nil {
		return nil, err
	}

	msgs, err := s.queries.ListMessagesByMailbox(ctx, mb.ID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for %q: %w", address, err)
	}
	return msgs, nil
}

// GetMessage returns one message from a live mailbox.
func (s *Service) GetMessage(ctx context.Context, address, messageID string) (store.Message, error) {
	mb, err := s.liveMailbox(ctx, address)
	if err != nil {
		return store.Message{}, err
	}

	msg, err := s.queries.GetMessage(ctx, store.GetMessageParams{ID: messageID, MailboxID: mb.ID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Message{}, model.ErrNotFound
		}
		return store.Message{}, fmt.Errorf("loading message %q: %w", messageID, err)
	}
	return msg, nil
}

// DeleteMessage removes one message from a live mailbox.
func (s *Service) DeleteMessage(ctx context.Context, address, messageID string) error {
	mb, err := s.liveMailbox(ctx, address)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteMessage(ctx, store.GetMessageParams{ID: messageID, MailboxID: mb.ID}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("deleting message %q: %w", messageID, err)
	}
	return nil
}

// Extend pushes a live mailbox's expiry to now + ttl.
func (s *Service) Extend(ctx context.Context, address string) (store.Mailbox, error) {
	mb, err := s.liveMailbox(ctx, address)
	if err != nil {
		return store.Mailbox{}, err
	}

	mb.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if err := s.queries.ExtendMailbox(ctx, store.ExtendMailboxParams{ID: mb.ID, ExpiresAt: mb.ExpiresAt}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Mailbox{}, model.ErrNotFound
		}
		return store.Mailbox{}, fmt.Errorf("extending mailbox %q: %w", address, err)
	}
	return mb, nil
}

// PurgeExpired hard-deletes every expired mailbox and, via the store's
// cascade, its messages. Returns the number of mailboxes removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredMailboxes(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging expired mailboxes: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired mailboxes", "count", n)
	}
	return n, nil
}

// liveMailbox resolves an address to a mailbox that has not expired.
// Expired mailboxes are indistinguishable from absent ones.
func (s *Service) liveMailbox(ctx context.Context, address string) (store.Mailbox, error) {
	mb, err := s.queries.GetMailboxByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Mailbox{}, model.ErrNotFound
		}
		return store.Mailbox{}, fmt.Errorf("loading mailbox %q: %w", address, err)
	}
	if time.Now().UTC().After(mb.ExpiresAt) {
		return store.Mailbox{}, model.ErrNotFound
	}
	return mb, nil
}
