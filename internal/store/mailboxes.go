// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Mailbox is a disposable inbox row.
type Mailbox struct {
	ID        string
	Address   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Message is a mail message received into a mailbox. Body holds sanitized
// HTML; raw inbound content is never persisted.
type Message struct {
	ID         string
	MailboxID  string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// CreateMailboxParams holds the fields for inserting a mailbox.
type CreateMailboxParams struct {
	ID        string
	Address   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CreateMailbox inserts a new mailbox.
func (q *Queries) CreateMailbox(ctx context.Context, arg CreateMailboxParams) (Mailbox, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO mailboxes (id, address, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		arg.ID, arg.Address, arg.CreatedAt, arg.ExpiresAt)
	if err != nil {
		return Mailbox{}, err
	}
	return Mailbox(arg), nil
}

// GetMailboxByAddress returns the mailbox owning address.
func (q *Queries) GetMailboxByAddress(ctx context.Context, address string) (Mailbox, error) {
	var m Mailbox
	err := q.db.QueryRowContext(ctx,
		`SELECT id, address, created_at, expires_at FROM mailboxes WHERE address = ?`,
		address).Scan(&m.ID, &m.Address, &m.CreatedAt, &m.ExpiresAt)
	return m, err
}

// ExtendMailboxParams holds a new expiry for a mailbox.
type ExtendMailboxParams struct {
	ID        string
	ExpiresAt time.Time
}

// ExtendMailbox moves a mailbox's expiry forward.
// Returns sql.ErrNoRows if the mailbox does not exist.
func (q *Queries) ExtendMailbox(ctx context.Context, arg ExtendMailboxParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE mailboxes SET expires_at = ? WHERE id = ?`, arg.ExpiresAt, arg.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// DeleteExpiredMailboxes hard-deletes every mailbox expired at now, cascading
// to its messages. Returns the number of mailboxes removed.
func (q *Queries) DeleteExpiredMailboxes(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM mailboxes WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateMessageParams holds the fields for inserting a message.
type CreateMessageParams struct {
	ID         string
	MailboxID  string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// CreateMessage inserts a message into a mailbox.
func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error) {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO messages (id, mailbox_id, sender, subject, body, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.MailboxID, arg.Sender, arg.Subject, arg.Body, arg.ReceivedAt)
	if err != nil {
		return Message{}, err
	}
	return Message(arg), nil
}

// ListMessagesByMailbox returns a mailbox's messages, newest first.
func (q *Queries) ListMessagesByMailbox(ctx context.Context, mailboxID string) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, mailbox_id, sender, subject, body, received_at
		 FROM messages WHERE mailbox_id = ? ORDER BY received_at DESC`, mailboxID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.MailboxID, &m.Sender, &m.Subject, &m.Body, &m.ReceivedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessageParams identifies one message within a mailbox.
type GetMessageParams struct {
	ID        string
	MailboxID string
}

// GetMessage returns one message scoped to its mailbox.
func (q *Queries) GetMessage(ctx context.Context, arg GetMessageParams) (Message, error) {
	var m Message
	err := q.db.QueryRowContext(ctx,
		`SELECT id, mailbox_id, sender, subject, body, received_at
		 FROM messages WHERE id = ? AND mailbox_id = ?`,
		arg.ID, arg.MailboxID).Scan(&m.ID, &m.MailboxID, &m.Sender, &m.Subject, &m.Body, &m.ReceivedAt)
	return m, err
}

// DeleteMessage removes one message scoped to its mailbox.
// Returns sql.ErrNoRows if absent.
func (q *Queries) DeleteMessage(ctx context.Context, arg GetMessageParams) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND mailbox_id = ?`, arg.ID, arg.MailboxID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
