// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"burnermail/internal/cache"
	"burnermail/internal/model"
	"burnermail/internal/sanitize"
	"burnermail/internal/store"
)

// newTestService creates a blog service backed by a temporary database and an
// in-memory cache.
func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "burnermail-blog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(db, sanitize.New(), c, time.Minute, logger)

	cleanup := func() {
		c.Close()
		db.Close()
		os.Remove(dbPath)
	}
	return svc, cleanup
}

func validInput() PostInput {
	return PostInput{
		Title:    "Hello, World!",
		Content:  "<p>first post</p>",
		Category: "announcements",
		Author:   "ops",
	}
}

func TestCreate(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	post, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if post.ID == 0 {
		t.Error("ID should be assigned")
	}
	if post.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", post.Slug, "hello-world")
	}
	if post.Status != model.PostStatusDraft {
		t.Errorf("Status = %q, want draft default", post.Status)
	}
	if post.Content != "<p>first post</p>" {
		t.Errorf("Content = %q, want sanitized input preserved", post.Content)
	}
}

func TestCreate_SanitizesContent(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	in := validInput()
	in.Content = `<p>ok</p><script>alert(1)</script><iframe src="https://evil.com/x"></iframe>`

	post, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if strings.Contains(post.Content, "<script") {
		t.Errorf("stored content contains script: %q", post.Content)
	}
	if !strings.Contains(post.Content, "Invalid video embed") {
		t.Errorf("rejected embed not replaced with placeholder: %q", post.Content)
	}

	// Stored content must be a fixed point of the sanitizer.
	if again := sanitize.New().Sanitize(post.Content); again != post.Content {
		t.Errorf("stored content is not a sanitizer fixed point:\nstored = %q\nresan  = %q", post.Content, again)
	}
}

func TestCreate_MarkdownRenderedThenSanitized(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	in := validInput()
	in.ContentFormat = model.ContentFormatMarkdown
	in.Content = "# Heading\n\nsome *emphasis*\n\n<script>alert(1)</script>\n"

	post, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.Contains(post.Content, "<h1>Heading</h1>") {
		t.Errorf("markdown heading not rendered: %q", post.Content)
	}
	if !strings.Contains(post.Content, "<em>emphasis</em>") {
		t.Errorf("markdown emphasis not rendered: %q", post.Content)
	}
	if strings.Contains(post.Content, "<script") {
		t.Errorf("raw HTML survived markdown pipeline: %q", post.Content)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	tests := []struct {
		name   string
		mutate func(*PostInput)
		field  string
	}{
		{"empty title", func(in *PostInput) { in.Title = "" }, "title"},
		{"empty content", func(in *PostInput) { in.Content = "" }, "content"},
		{"empty category", func(in *PostInput) { in.Category = "" }, "category"},
		{"bad status", func(in *PostInput) { in.Status = "archived" }, "status"},
		{"bad format", func(in *PostInput) { in.ContentFormat = "rst" }, "content_format"},
		{"punctuation-only title", func(in *PostInput) { in.Title = "  ---  " }, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			ve, ok := model.AsValidationError(err)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Different title, identical slug.
	in := validInput()
	in.Title = "hello world"
	if _, err := svc.Create(ctx, in); !errors.Is(err, model.ErrDuplicateSlug) {
		t.Errorf("err = %v, want ErrDuplicateSlug", err)
	}
}

func TestUpdate(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	post, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	in := validInput()
	in.Title = "A Better Title"
	in.Content = `<p>updated</p><img src=x onerror=alert(1)>`
	in.Status = model.PostStatusPublished

	updated, err := svc.Update(ctx, post.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Slug != "a-better-title" {
		t.Errorf("Slug = %q, want regenerated from new title", updated.Slug)
	}
	if updated.Status != model.PostStatusPublished {
		t.Errorf("Status = %q, want published", updated.Status)
	}
	if strings.Contains(updated.Content, "onerror") {
		t.Errorf("update persisted raw content: %q", updated.Content)
	}
	if !updated.UpdatedAt.After(post.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", post.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(post.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", post.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	if _, err := svc.Update(context.Background(), 9999, validInput()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_SlugCollision(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()

	a, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	inB := validInput()
	inB.Title = "Post B"
	if _, err := svc.Create(ctx, inB); err != nil {
		t.Fatalf("Create b: %v", err)
	}

	// Renaming A to collide with B's slug fails.
	in := validInput()
	in.Title = "post b"
	if _, err := svc.Update(ctx, a.ID, in); !errors.Is(err, model.ErrDuplicateSlug) {
		t.Errorf("err = %v, want ErrDuplicateSlug", err)
	}

	// Renaming A to its own slug-equivalent title succeeds.
	in = validInput()
	in.Title = "HELLO world"
	updated, err := svc.Update(ctx, a.ID, in)
	if err != nil {
		t.Fatalf("Update to own slug: %v", err)
	}
	if updated.Slug != "hello-world" {
		t.Errorf("Slug = %q, want %q", updated.Slug, "hello-world")
	}
}

func TestSetFlags(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	post, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	order := int64(3)
	err = svc.SetFlags(ctx, post.ID, FlagsInput{IsFeatured: true, FeaturedOrder: &order})
	if err != nil {
		t.Fatalf("SetFlags: %v", err)
	}

	got, err := svc.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsFeatured || got.IsTrending {
		t.Errorf("flags = featured %v trending %v, want featured only", got.IsFeatured, got.IsTrending)
	}
	if !got.FeaturedOrder.Valid || got.FeaturedOrder.Int64 != 3 {
		t.Errorf("FeaturedOrder = %+v, want 3", got.FeaturedOrder)
	}

	// Overwrite is unconditional: clearing the flag also clears nothing else.
	if err := svc.SetFlags(ctx, post.ID, FlagsInput{}); err != nil {
		t.Fatalf("SetFlags clear: %v", err)
	}
	got, _ = svc.GetByID(ctx, post.ID)
	if got.IsFeatured || got.FeaturedOrder.Valid {
		t.Errorf("flags not cleared: %+v", got)
	}

	if err := svc.SetFlags(ctx, 9999, FlagsInput{}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("SetFlags missing = %v, want ErrNotFound", err)
	}
}

func TestReorder_PartialSuccess(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"One", "Two"} {
		in := validInput()
		in.Title = title
		p, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		ids = append(ids, p.ID)
	}

	one, two := int64(1), int64(2)
	results, err := svc.Reorder(ctx, model.OrderKindFeatured, []OrderEntry{
		{ID: ids[0], Order: &one},
		{ID: 9999, Order: &two}, // missing post: this entry fails alone
		{ID: ids[1], Order: &two},
	})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("valid entries failed: %+v", results)
	}
	if !errors.Is(results[1].Err, model.ErrNotFound) {
		t.Errorf("results[1].Err = %v, want ErrNotFound", results[1].Err)
	}

	// Entries around the failure stayed applied.
	for i, want := range []int64{1, 2} {
		got, err := svc.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if !got.FeaturedOrder.Valid || got.FeaturedOrder.Int64 != want {
			t.Errorf("post %d FeaturedOrder = %+v, want %d", ids[i], got.FeaturedOrder, want)
		}
	}
}

func TestReorder_InvalidKind(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.Reorder(context.Background(), "sideways", nil)
	if _, ok := model.AsValidationError(err); !ok {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestDelete(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	post, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, post.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestGetPublishedBySlug_HidesDrafts(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.GetPublishedBySlug(ctx, "hello-world"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("draft visible on public path, err = %v", err)
	}

	in := validInput()
	in.Title = "Published Post"
	in.Status = model.PostStatusPublished
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create published: %v", err)
	}

	got, err := svc.GetPublishedBySlug(ctx, "published-post")
	if err != nil {
		t.Fatalf("GetPublishedBySlug: %v", err)
	}
	if got.Slug != "published-post" {
		t.Errorf("Slug = %q, want %q", got.Slug, "published-post")
	}
}

func TestGetPublishedBySlug_CacheInvalidatedOnUpdate(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()
	in := validInput()
	in.Status = model.PostStatusPublished
	post, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Warm the cache.
	if _, err := svc.GetPublishedBySlug(ctx, post.Slug); err != nil {
		t.Fatalf("GetPublishedBySlug: %v", err)
	}

	in.Content = "<p>second version</p>"
	if _, err := svc.Update(ctx, post.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.GetPublishedBySlug(ctx, post.Slug)
	if err != nil {
		t.Fatalf("GetPublishedBySlug after update: %v", err)
	}
	if got.Content != "<p>second version</p>" {
		t.Errorf("Content = %q, want updated version (stale cache?)", got.Content)
	}
}

func TestListPublished_FiltersDrafts(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()

	for i, status := range []string{model.PostStatusPublished, model.PostStatusDraft, model.PostStatusPublished} {
		in := validInput()
		in.Title = "Post " + string(rune('A'+i))
		in.Status = status
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	posts, err := svc.ListPublished(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len = %d, want 2", len(posts))
	}
	for _, p := range posts {
		if p.Status != model.PostStatusPublished {
			t.Errorf("draft leaked into published listing: %+v", p)
		}
	}
}

func TestListFeatured_SpecOrdering(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()

	ctx := context.Background()

	// Orders [2, null, 1] across three posts must render as [1, 2, null].
	orders := []*int64{ptr(2), nil, ptr(1)}
	titles := []string{"Second", "Unordered", "First"}
	for i, title := range titles {
		in := validInput()
		in.Title = title
		in.Status = model.PostStatusPublished
		p, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		if err := svc.SetFlags(ctx, p.ID, FlagsInput{IsFeatured: true, FeaturedOrder: orders[i]}); err != nil {
			t.Fatalf("SetFlags: %v", err)
		}
	}

	posts, err := svc.ListFeatured(ctx)
	if err != nil {
		t.Fatalf("ListFeatured: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len = %d, want 3", len(posts))
	}

	want := []string{"first", "second", "unordered"}
	for i, w := range want {
		if posts[i].Slug != w {
			t.Errorf("posts[%d].Slug = %q, want %q", i, posts[i].Slug, w)
		}
	}
}

func ptr(v int64) *int64 { return &v }

// Caching is optional: a nil cache must disable it, not break reads.
func TestNewServiceWithoutCache(t *testing.T) {
	f, err := os.CreateTemp("", "burnermail-nocache-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	defer os.Remove(dbPath)

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := NewService(db, sanitize.New(), nil, 0, logger)

	ctx := context.Background()
	in := validInput()
	in.Status = model.PostStatusPublished
	post, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetPublishedBySlug(ctx, post.Slug); err != nil {
		t.Errorf("GetPublishedBySlug without cache: %v", err)
	}
}