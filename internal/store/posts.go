// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Post is a durable blog post row. Content always holds sanitizer output;
// raw author input is never persisted.
type Post struct {
	ID              int64
	Title           string
	Slug            string
	Content         string
	Category        string
	MetaTitle       string
	MetaDescription string
	Keywords        string
	FeaturedImage   string
	Author          string
	Status          string
	IsFeatured      bool
	IsTrending      bool
	FeaturedOrder   sql.NullInt64
	TrendingOrder   sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const postColumns = `id, title, slug, content, category, meta_title, meta_description,
	keywords, featured_image, author, status, is_featured, is_trending,
	featured_order, trending_order, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Category,
		&p.MetaTitle, &p.MetaDescription, &p.Keywords,
		&p.FeaturedImage, &p.Author, &p.Status,
		&p.IsFeatured, &p.IsTrending,
		&p.FeaturedOrder, &p.TrendingOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds the fields for inserting a post.
type CreatePostParams struct {
	Title           string
	Slug            string
	Content         string
	Category        string
	MetaTitle       string
	MetaDescription string
	Keywords        string
	FeaturedImage   string
	Author          string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePost inserts a new post and returns the stored row.
// A slug collision surfaces as a UNIQUE constraint error (see IsUniqueViolation).
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (
			title, slug, content, category, meta_title, meta_description,
			keywords, featured_image, author, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Content, arg.Category,
		arg.MetaTitle, arg.MetaDescription, arg.Keywords,
		arg.FeaturedImage, arg.Author, arg.Status,
		arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPost(row)
}

// GetPost returns a post by id regardless of status.
func (q *Queries) GetPost(ctx context.Context, id int64) (Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug returns a post by slug regardless of status.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// GetPublishedPostBySlug returns a published post by slug. Drafts are never
// visible through this query; it backs the unauthenticated read path.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ? AND status = 'published'`, slug)
	return scanPost(row)
}

// GetPostIDBySlug returns the id of the post owning slug.
func (q *Queries) GetPostIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = ?`, slug).Scan(&id)
	return id, err
}

// ListPostsParams holds pagination for unfiltered listings.
type ListPostsParams struct {
	Limit  int64
	Offset int64
}

// ListPosts returns posts of every status, newest first.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListPublishedPosts returns published posts, newest first.
func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPostsParams) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE status = 'published'
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListPublishedPostsByCategory returns published posts in a category, newest first.
func (q *Queries) ListPublishedPostsByCategory(ctx context.Context, category string) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE category = ? AND status = 'published'
		 ORDER BY created_at DESC`, category)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListFeaturedPosts returns published featured posts ordered by their manual
// position ascending with unordered entries last, tiebroken by recency.
func (q *Queries) ListFeaturedPosts(ctx context.Context) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE is_featured = 1 AND status = 'published'
		 ORDER BY CASE WHEN featured_order IS NULL THEN 1 ELSE 0 END,
		          featured_order ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ListTrendingPosts returns published trending posts ordered by their manual
// position ascending with unordered entries last, tiebroken by recency.
func (q *Queries) ListTrendingPosts(ctx context.Context) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE is_trending = 1 AND status = 'published'
		 ORDER BY CASE WHEN trending_order IS NULL THEN 1 ELSE 0 END,
		          trending_order ASC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// CountPublishedPosts returns the number of published posts.
func (q *Queries) CountPublishedPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE status = 'published'`).Scan(&n)
	return n, err
}

// UpdatePostParams holds the fields for a full post update.
type UpdatePostParams struct {
	ID              int64
	Title           string
	Slug            string
	Content         string
	Category        string
	MetaTitle       string
	MetaDescription string
	Keywords        string
	FeaturedImage   string
	Author          string
	Status          string
	UpdatedAt       time.Time
}

// UpdatePost rewrites the descriptive fields of a post and returns the stored
// row. Returns sql.ErrNoRows if the post does not exist.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = ?, slug = ?, content = ?, category = ?,
			meta_title = ?, meta_description = ?, keywords = ?,
			featured_image = ?, author = ?, status = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Content, arg.Category,
		arg.MetaTitle, arg.MetaDescription, arg.Keywords,
		arg.FeaturedImage, arg.Author, arg.Status,
		arg.UpdatedAt, arg.ID,
	)
	return scanPost(row)
}

// UpdatePostFlagsParams holds the curation flags and order positions.
type UpdatePostFlagsParams struct {
	ID            int64
	IsFeatured    bool
	IsTrending    bool
	FeaturedOrder sql.NullInt64
	TrendingOrder sql.NullInt64
	UpdatedAt     time.Time
}

// UpdatePostFlags unconditionally overwrites the curation fields of a post.
// Returns sql.ErrNoRows if the post does not exist.
func (q *Queries) UpdatePostFlags(ctx context.Context, arg UpdatePostFlagsParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE posts SET
			is_featured = ?, is_trending = ?,
			featured_order = ?, trending_order = ?, updated_at = ?
		WHERE id = ?`,
		arg.IsFeatured, arg.IsTrending,
		arg.FeaturedOrder, arg.TrendingOrder, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// UpdateOrderParams holds one manual position assignment.
type UpdateOrderParams struct {
	ID        int64
	Order     sql.NullInt64
	UpdatedAt time.Time
}

// UpdateFeaturedOrder sets the featured position of one post.
// Returns sql.ErrNoRows if the post does not exist.
func (q *Queries) UpdateFeaturedOrder(ctx context.Context, arg UpdateOrderParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE posts SET featured_order = ?, updated_at = ? WHERE id = ?`,
		arg.Order, arg.UpdatedAt, arg.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// UpdateTrendingOrder sets the trending position of one post.
// Returns sql.ErrNoRows if the post does not exist.
func (q *Queries) UpdateTrendingOrder(ctx context.Context, arg UpdateOrderParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE posts SET trending_order = ?, updated_at = ? WHERE id = ?`,
		arg.Order, arg.UpdatedAt, arg.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// DeletePost permanently removes a post. Returns sql.ErrNoRows if absent.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// requireRowAffected maps a zero-row write to sql.ErrNoRows.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
