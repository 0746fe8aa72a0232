// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog implements the publication workflow: it orchestrates the
// sanitizer, the slug generator and the store to create, update, curate and
// read posts while holding the slug-uniqueness and draft-visibility
// invariants.
package blog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"burnermail/internal/cache"
	"burnermail/internal/model"
	"burnermail/internal/sanitize"
	"burnermail/internal/store"
	"burnermail/internal/util"
)

// Service coordinates post mutations and reads. It holds no shared mutable
// state of its own; concurrent create/update races on the same slug are
// resolved by the store's unique index.
type Service struct {
	queries   *store.Queries
	sanitizer *sanitize.Sanitizer
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewService creates a blog service. The cache is an explicit capability of
// the service, not a per-request attachment; pass nil to disable caching.
func NewService(db *sql.DB, sanitizer *sanitize.Sanitizer, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		queries:   store.New(db),
		sanitizer: sanitizer,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// PostInput carries the author-supplied fields for create and update.
type PostInput struct {
	Title           string
	Content         string
	ContentFormat   string // "html" (default) or "markdown"
	Category        string
	MetaTitle       string
	MetaDescription string
	Keywords        string
	FeaturedImage   string
	Author          string
	Status          string // defaults to draft on create
}

// Create validates the input, derives the slug, sanitizes the content and
// persists a new post. Returns ErrDuplicateSlug when another post already
// owns the derived slug.
func (s *Service) Create(ctx context.Context, in PostInput) (store.Post, error) {
	status := in.Status
	if status == "" {
		status = model.PostStatusDraft
	}
	in.Status = status

	if err := validateInput(in); err != nil {
		return store.Post{}, err
	}

	slug := util.Slugify(in.Title)
	if slug == "" {
		return store.Post{}, model.NewValidationError("title", "title produces an empty slug")
	}

	if _, err := s.queries.GetPostIDBySlug(ctx, slug); err == nil {
		return store.Post{}, model.ErrDuplicateSlug
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, fmt.Errorf("checking slug %q: %w", slug, err)
	}

	content, err := s.prepareContent(in)
	if err != nil {
		return store.Post{}, err
	}

	now := time.Now().UTC()
	post, err := s.queries.CreatePost(ctx, store.CreatePostParams{
		Title:           in.Title,
		Slug:            slug,
		Content:         content,
		Category:        in.Category,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Keywords:        in.Keywords,
		FeaturedImage:   in.FeaturedImage,
		Author:          in.Author,
		Status:          in.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		// Two concurrent creates racing on the same derived slug: the unique
		// index lets exactly one through, the loser surfaces a conflict.
		if store.IsUniqueViolation(err) {
			return store.Post{}, model.ErrDuplicateSlug
		}
		return store.Post{}, fmt.Errorf("inserting post: %w", err)
	}

	s.invalidate(ctx)
	return post, nil
}

// Update rewrites a post. The slug is always regenerated from the title and
// the content is always re-sanitized, even when unchanged: skipping
// re-sanitization could let previously-unsafe legacy content survive an
// allowlist tightening.
func (s *Service) Update(ctx context.Context, id int64, in PostInput) (store.Post, error) {
	existing, err := s.queries.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, model.ErrNotFound
		}
		return store.Post{}, fmt.Errorf("loading post %d: %w", id, err)
	}

	if in.Status == "" {
		in.Status = existing.Status
	}
	if err := validateInput(in); err != nil {
		return store.Post{}, err
	}

	slug := util.Slugify(in.Title)
	if slug == "" {
		return store.Post{}, model.NewValidationError("title", "title produces an empty slug")
	}

	// The slug may collide with any post other than the one being updated;
	// renaming a post to its own slug-equivalent title succeeds.
	if ownerID, err := s.queries.GetPostIDBySlug(ctx, slug); err == nil {
		if ownerID != id {
			return store.Post{}, model.ErrDuplicateSlug
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, fmt.Errorf("checking slug %q: %w", slug, err)
	}

	content, err := s.prepareContent(in)
	if err != nil {
		return store.Post{}, err
	}

	post, err := s.queries.UpdatePost(ctx, store.UpdatePostParams{
		ID:              id,
		Title:           in.Title,
		Slug:            slug,
		Content:         content,
		Category:        in.Category,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Keywords:        in.Keywords,
		FeaturedImage:   in.FeaturedImage,
		Author:          in.Author,
		Status:          in.Status,
		UpdatedAt:       time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return store.Post{}, model.ErrNotFound
		case store.IsUniqueViolation(err):
			return store.Post{}, model.ErrDuplicateSlug
		default:
			return store.Post{}, fmt.Errorf("updating post %d: %w", id, err)
		}
	}

	s.invalidate(ctx)
	return post, nil
}

// FlagsInput carries the curation flags and manual positions. Nil order
// means unordered; unordered entries sort after ordered ones.
type FlagsInput struct {
	IsFeatured    bool
	IsTrending    bool
	FeaturedOrder *int64
	TrendingOrder *int64
}

// SetFlags unconditionally overwrites the four curation fields of a post.
// Order values are not validated against other posts; last writer wins.
func (s *Service) SetFlags(ctx context.Context, id int64, in FlagsInput) error {
	err := s.queries.UpdatePostFlags(ctx, store.UpdatePostFlagsParams{
		ID:            id,
		IsFeatured:    in.IsFeatured,
		IsTrending:    in.IsTrending,
		FeaturedOrder: toNullInt64(in.FeaturedOrder),
		TrendingOrder: toNullInt64(in.TrendingOrder),
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("updating flags for post %d: %w", id, err)
	}

	s.invalidate(ctx)
	return nil
}

// OrderEntry assigns one manual position to one post.
type OrderEntry struct {
	ID    int64
	Order *int64
}

// ReorderResult reports the outcome for one entry of a reorder batch.
type ReorderResult struct {
	ID  int64
	Err error
}

// Reorder applies one order value per listed post to the featured or trending
// ordering. Entries are processed independently and the batch is not
// transactional: a mid-batch failure leaves earlier updates applied. The
// per-entry results tell the caller exactly which entries landed.
func (s *Service) Reorder(ctx context.Context, kind string, entries []OrderEntry) ([]ReorderResult, error) {
	if !model.IsValidOrderKind(kind) {
		return nil, model.NewValidationError("kind", "must be featured or trending")
	}

	now := time.Now().UTC()
	results := make([]ReorderResult, 0, len(entries))
	for _, e := range entries {
		arg := store.UpdateOrderParams{ID: e.ID, Order: toNullInt64(e.Order), UpdatedAt: now}

		var err error
		if kind == model.OrderKindFeatured {
			err = s.queries.UpdateFeaturedOrder(ctx, arg)
		} else {
			err = s.queries.UpdateTrendingOrder(ctx, arg)
		}
		if errors.Is(err, sql.ErrNoRows) {
			err = model.ErrNotFound
		}
		results = append(results, ReorderResult{ID: e.ID, Err: err})
	}

	s.invalidate(ctx)
	return results, nil
}

// Delete permanently removes a post. There is no tombstone.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.queries.DeletePost(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("deleting post %d: %w", id, err)
	}

	s.invalidate(ctx)
	return nil
}

// GetByID returns a post of any status. Admin path only.
func (s *Service) GetByID(ctx context.Context, id int64) (store.Post, error) {
	post, err := s.queries.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, model.ErrNotFound
		}
		return store.Post{}, fmt.Errorf("loading post %d: %w", id, err)
	}
	return post, nil
}

// GetPublishedBySlug returns a published post by slug. This is the
// unauthenticated lookup path; drafts are never visible through it.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (store.Post, error) {
	key := "post:slug:" + slug
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var post store.Post
			if err := json.Unmarshal(data, &post); err == nil {
				return post, nil
			}
		}
	}

	post, err := s.queries.GetPublishedPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, model.ErrNotFound
		}
		return store.Post{}, fmt.Errorf("loading post %q: %w", slug, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(post); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Debug("caching post failed", "slug", slug, "error", err)
			}
		}
	}
	return post, nil
}

// ListPublished returns published posts, newest first.
func (s *Service) ListPublished(ctx context.Context, limit, offset int64) ([]store.Post, error) {
	posts, err := s.queries.ListPublishedPosts(ctx, store.ListPostsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing published posts: %w", err)
	}
	return posts, nil
}

// ListAll returns posts of every status, newest first. Admin path only.
func (s *Service) ListAll(ctx context.Context, limit, offset int64) ([]store.Post, error) {
	posts, err := s.queries.ListPosts(ctx, store.ListPostsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// CountPublished returns the number of published posts.
func (s *Service) CountPublished(ctx context.Context) (int64, error) {
	return s.queries.CountPublishedPosts(ctx)
}

// CountAll returns the number of posts of every status.
func (s *Service) CountAll(ctx context.Context) (int64, error) {
	return s.queries.CountPosts(ctx)
}

// ListPublishedByCategory returns published posts in a category; the category
// listing is derived from the published set only.
func (s *Service) ListPublishedByCategory(ctx context.Context, category string) ([]store.Post, error) {
	posts, err := s.queries.ListPublishedPostsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing posts in category %q: %w", category, err)
	}
	return posts, nil
}

// ListFeatured returns published featured posts in curated order.
func (s *Service) ListFeatured(ctx context.Context) ([]store.Post, error) {
	posts, err := s.queries.ListFeaturedPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing featured posts: %w", err)
	}
	return posts, nil
}

// ListTrending returns published trending posts in curated order.
func (s *Service) ListTrending(ctx context.Context) ([]store.Post, error) {
	posts, err := s.queries.ListTrendingPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trending posts: %w", err)
	}
	return posts, nil
}

// validateInput checks the required fields and enum values.
// Validation failures never reach the store.
func validateInput(in PostInput) error {
	if in.Title == "" {
		return model.NewValidationError("title", "must not be empty")
	}
	if in.Content == "" {
		return model.NewValidationError("content", "must not be empty")
	}
	if in.Category == "" {
		return model.NewValidationError("category", "must not be empty")
	}
	if !model.IsValidPostStatus(in.Status) {
		return model.NewValidationError("status", "must be draft or published")
	}
	switch in.ContentFormat {
	case "", model.ContentFormatHTML, model.ContentFormatMarkdown:
	default:
		return model.NewValidationError("content_format", "must be html or markdown")
	}
	return nil
}

// prepareContent renders markdown input to HTML when requested, then
// sanitizes. The store only ever receives sanitizer output.
func (s *Service) prepareContent(in PostInput) (string, error) {
	raw := in.Content
	if in.ContentFormat == model.ContentFormatMarkdown {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(raw), &buf); err != nil {
			return "", fmt.Errorf("rendering markdown: %w", err)
		}
		raw = buf.String()
	}
	return s.sanitizer.Sanitize(raw), nil
}

// invalidate drops cached reads after any mutation.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("clearing post cache failed", "error", err)
	}
}

// toNullInt64 converts an optional order value for storage.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
