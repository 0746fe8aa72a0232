// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize neutralizes untrusted author-supplied HTML before it is
// stored. It combines an iframe embed rewrite pass with an allowlist policy
// so that stored content is always a fixed point of Sanitize.
package sanitize

import "regexp"

// trustedEmbedPattern matches the only embed source accepted: an http(s)
// YouTube embed URL with an optional www. subdomain and a non-empty video ID.
// Query strings, fragments, lookalike hosts and other paths do not match.
var trustedEmbedPattern = regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/[A-Za-z0-9_-]+$`)

// IsTrustedEmbed reports whether url is a recognized, trusted video embed
// source. It is a pure predicate: malformed or empty input returns false.
func IsTrustedEmbed(url string) bool {
	return trustedEmbedPattern.MatchString(url)
}
