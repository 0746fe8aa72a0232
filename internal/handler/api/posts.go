// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"burnermail/internal/blog"
	"burnermail/internal/model"
	"burnermail/internal/store"
)

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Category        string    `json:"category,omitempty"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Keywords        string    `json:"keywords,omitempty"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	Author          string    `json:"author,omitempty"`
	Status          string    `json:"status"`
	IsFeatured      bool      `json:"is_featured"`
	IsTrending      bool      `json:"is_trending"`
	FeaturedOrder   *int64    `json:"featured_order,omitempty"`
	TrendingOrder   *int64    `json:"trending_order,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// storePostToResponse converts a store.Post to PostResponse.
func storePostToResponse(p store.Post) PostResponse {
	resp := PostResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Category:        p.Category,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		Keywords:        p.Keywords,
		FeaturedImage:   p.FeaturedImage,
		Author:          p.Author,
		Status:          p.Status,
		IsFeatured:      p.IsFeatured,
		IsTrending:      p.IsTrending,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.FeaturedOrder.Valid {
		resp.FeaturedOrder = &p.FeaturedOrder.Int64
	}
	if p.TrendingOrder.Valid {
		resp.TrendingOrder = &p.TrendingOrder.Int64
	}
	return resp
}

func storePostsToResponses(posts []store.Post) []PostResponse {
	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, storePostToResponse(p))
	}
	return responses
}

// PostRequest represents the request body for creating or updating a post.
type PostRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	ContentFormat   string `json:"content_format,omitempty"`
	Category        string `json:"category,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	Keywords        string `json:"keywords,omitempty"`
	FeaturedImage   string `json:"featured_image,omitempty"`
	Author          string `json:"author,omitempty"`
	Status          string `json:"status,omitempty"`
}

func (req PostRequest) toInput() blog.PostInput {
	return blog.PostInput{
		Title:           req.Title,
		Content:         req.Content,
		ContentFormat:   req.ContentFormat,
		Category:        req.Category,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Keywords:        req.Keywords,
		FeaturedImage:   req.FeaturedImage,
		Author:          req.Author,
		Status:          req.Status,
	}
}

// ListPublishedPosts handles GET /api/v1/posts.
func (h *Handler) ListPublishedPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, perPage := parsePagination(r, 20, 100)

	posts, err := h.blog.ListPublished(ctx, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}
	total, err := h.blog.CountPublished(ctx)
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}

	WriteSuccess(w, storePostsToResponses(posts), paginationMeta(total, page, perPage))
}

// GetPublishedPost handles GET /api/v1/posts/{slug}. Drafts answer 404.
func (h *Handler) GetPublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err, "post")
		return
	}
	WriteSuccess(w, storePostToResponse(post), nil)
}

// ListPostsByCategory handles GET /api/v1/posts/category/{category}.
func (h *Handler) ListPostsByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.ListPublishedByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}
	WriteSuccess(w, storePostsToResponses(posts), nil)
}

// ListFeaturedPosts handles GET /api/v1/posts/featured.
func (h *Handler) ListFeaturedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.ListFeatured(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}
	WriteSuccess(w, storePostsToResponses(posts), nil)
}

// ListTrendingPosts handles GET /api/v1/posts/trending.
func (h *Handler) ListTrendingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.ListTrending(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}
	WriteSuccess(w, storePostsToResponses(posts), nil)
}

// ListAllPosts handles GET /api/v1/admin/posts. Returns every status.
func (h *Handler) ListAllPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, perPage := parsePagination(r, 20, 100)

	posts, err := h.blog.ListAll(ctx, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}
	total, err := h.blog.CountAll(ctx)
	if err != nil {
		h.writeServiceError(w, err, "posts")
		return
	}

	WriteSuccess(w, storePostsToResponses(posts), paginationMeta(total, page, perPage))
}

// GetPost handles GET /api/v1/admin/posts/{id}. Returns any status.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	post, err := h.blog.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "post")
		return
	}
	WriteSuccess(w, storePostToResponse(post), nil)
}

// CreatePost handles POST /api/v1/admin/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.blog.Create(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, err, "post")
		return
	}

	WriteCreated(w, map[string]any{"id": post.ID, "slug": post.Slug})
}

// UpdatePost handles PUT /api/v1/admin/posts/{id}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.blog.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.writeServiceError(w, err, "post")
		return
	}

	WriteSuccess(w, map[string]any{"slug": post.Slug}, nil)
}

// DeletePost handles DELETE /api/v1/admin/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	if err := h.blog.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FlagsRequest represents the request body for updating curation flags.
type FlagsRequest struct {
	IsFeatured    bool   `json:"is_featured"`
	IsTrending    bool   `json:"is_trending"`
	FeaturedOrder *int64 `json:"featured_order,omitempty"`
	TrendingOrder *int64 `json:"trending_order,omitempty"`
}

// SetPostFlags handles PUT /api/v1/admin/posts/{id}/flags.
func (h *Handler) SetPostFlags(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	var req FlagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err = h.blog.SetFlags(r.Context(), id, blog.FlagsInput{
		IsFeatured:    req.IsFeatured,
		IsTrending:    req.IsTrending,
		FeaturedOrder: req.FeaturedOrder,
		TrendingOrder: req.TrendingOrder,
	})
	if err != nil {
		h.writeServiceError(w, err, "post")
		return
	}
	WriteSuccess(w, map[string]any{"id": id}, nil)
}

// ReorderRequest represents the request body for batch reordering.
type ReorderRequest struct {
	Kind    string `json:"kind"`
	Entries []struct {
		ID    int64  `json:"id"`
		Order *int64 `json:"order,omitempty"`
	} `json:"entries"`
}

// ReorderEntryResult reports the per-entry outcome of a reorder batch.
type ReorderEntryResult struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ReorderPosts handles PUT /api/v1/admin/posts/reorder. Entries are applied
// independently; the response lists which ones landed.
func (h *Handler) ReorderPosts(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries := make([]blog.OrderEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, blog.OrderEntry{ID: e.ID, Order: e.Order})
	}

	results, err := h.blog.Reorder(r.Context(), req.Kind, entries)
	if err != nil {
		h.writeServiceError(w, err, "reorder")
		return
	}

	out := make([]ReorderEntryResult, 0, len(results))
	for _, res := range results {
		entry := ReorderEntryResult{ID: res.ID, OK: res.Err == nil}
		if res.Err != nil {
			entry.Error = reorderEntryMessage(res.Err)
			if !errors.Is(res.Err, model.ErrNotFound) {
				h.logger.Error("reorder entry failed", "id", res.ID, "error", res.Err)
			}
		}
		out = append(out, entry)
	}
	WriteSuccess(w, out, nil)
}

// reorderEntryMessage converts a per-entry reorder error into client-facing
// text. Storage errors stay opaque; the detail goes to the log only.
func reorderEntryMessage(err error) string {
	if errors.Is(err, model.ErrNotFound) {
		return "not found"
	}
	return "storage failure"
}

// paginationMeta builds the standard pagination block.
func paginationMeta(total int64, page, perPage int) *Meta {
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
	}
}
