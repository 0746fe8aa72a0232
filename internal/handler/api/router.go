// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes builds the /api/v1 route tree. adminAuth guards the admin group;
// webhookAuth guards the inbound delivery webhook.
func (h *Handler) Routes(adminAuth, webhookAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)

	// Posts - public read endpoints. Static segments take priority over the
	// {slug} parameter in chi, so /posts/featured never matches as a slug.
	r.Get("/posts", h.ListPublishedPosts)
	r.Get("/posts/featured", h.ListFeaturedPosts)
	r.Get("/posts/trending", h.ListTrendingPosts)
	r.Get("/posts/category/{category}", h.ListPostsByCategory)
	r.Get("/posts/{slug}", h.GetPublishedPost)

	// Mailboxes - public endpoints; the address itself is the capability.
	r.Post("/mailboxes", h.CreateMailbox)
	r.Get("/mailboxes/{address}/messages", h.ListMessages)
	r.Get("/mailboxes/{address}/messages/{messageID}", h.GetMessage)
	r.Delete("/mailboxes/{address}/messages/{messageID}", h.DeleteMessage)
	r.Post("/mailboxes/{address}/extend", h.ExtendMailbox)

	// Inbound delivery webhook (shared-secret protected)
	r.Group(func(r chi.Router) {
		r.Use(webhookAuth)
		r.Post("/inbound", h.Inbound)
	})

	// Admin endpoints (Bearer shared secret)
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Get("/posts", h.ListAllPosts)
		r.Post("/posts", h.CreatePost)
		r.Put("/posts/reorder", h.ReorderPosts)
		r.Get("/posts/{id}", h.GetPost)
		r.Put("/posts/{id}", h.UpdatePost)
		r.Delete("/posts/{id}", h.DeletePost)
		r.Put("/posts/{id}/flags", h.SetPostFlags)
	})

	return r
}
