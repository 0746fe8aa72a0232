// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain types and constants shared across the application.
package model

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// IsValidPostStatus reports whether s is a known post status.
func IsValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Curated ordering kinds for reorder operations.
const (
	OrderKindFeatured = "featured"
	OrderKindTrending = "trending"
)

// IsValidOrderKind reports whether k names a curated ordering.
func IsValidOrderKind(k string) bool {
	return k == OrderKindFeatured || k == OrderKindTrending
}

// Content formats accepted by create/update. Markdown is rendered to HTML
// before sanitization; stored content is always sanitizer output.
const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)
