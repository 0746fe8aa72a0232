// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"burnermail/internal/mailbox"
	"burnermail/internal/store"
)

// MailboxResponse represents a mailbox in API responses.
type MailboxResponse struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse represents a received message in API responses.
type MessageResponse struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

func storeMessageToResponse(m store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		Sender:     m.Sender,
		Subject:    m.Subject,
		Body:       m.Body,
		ReceivedAt: m.ReceivedAt,
	}
}

// CreateMailbox handles POST /api/v1/mailboxes.
func (h *Handler) CreateMailbox(w http.ResponseWriter, r *http.Request) {
	mb, err := h.mailbox.Create(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "mailbox")
		return
	}
	WriteCreated(w, MailboxResponse{
		Address:   mb.Address,
		CreatedAt: mb.CreatedAt,
		ExpiresAt: mb.ExpiresAt,
	})
}

// ListMessages handles GET /api/v1/mailboxes/{address}/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.mailbox.ListMessages(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, err, "mailbox")
		return
	}

	responses := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, storeMessageToResponse(m))
	}
	WriteSuccess(w, responses, nil)
}

// GetMessage handles GET /api/v1/mailboxes/{address}/messages/{messageID}.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.mailbox.GetMessage(r.Context(), chi.URLParam(r, "address"), chi.URLParam(r, "messageID"))
	if err != nil {
		h.writeServiceError(w, err, "message")
		return
	}
	WriteSuccess(w, storeMessageToResponse(msg), nil)
}

// DeleteMessage handles DELETE /api/v1/mailboxes/{address}/messages/{messageID}.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.mailbox.DeleteMessage(r.Context(), chi.URLParam(r, "address"), chi.URLParam(r, "messageID")); err != nil {
		h.writeServiceError(w, err, "message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtendMailbox handles POST /api/v1/mailboxes/{address}/extend.
func (h *Handler) ExtendMailbox(w http.ResponseWriter, r *http.Request) {
	mb, err := h.mailbox.Extend(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		h.writeServiceError(w, err, "mailbox")
		return
	}
	WriteSuccess(w, MailboxResponse{
		Address:   mb.Address,
		CreatedAt: mb.CreatedAt,
		ExpiresAt: mb.ExpiresAt,
	}, nil)
}

// InboundRequest is the payload the MTA bridge posts for each received mail.
type InboundRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Inbound handles POST /api/v1/inbound, the delivery webhook. The body is
// treated as hostile HTML and sanitized before storage. Unknown or expired
// recipients answer 404 so the bridge can bounce the mail.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	var req InboundRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.mailbox.Deliver(r.Context(), mailbox.DeliverInput{
		Address: req.To,
		Sender:  req.From,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		h.writeServiceError(w, err, "delivery")
		return
	}

	WriteCreated(w, map[string]any{"id": msg.ID})
}
