// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuth validates the shared admin token on /api/v1/admin routes.
// The token travels in the Authorization header as a Bearer credential.
type AdminAuth struct {
	tokenHash [sha256.Size]byte
}

// NewAdminAuth creates an AdminAuth around a shared token. Hashing both
// sides before comparing keeps the comparison constant time regardless of
// credential length.
func NewAdminAuth(token string) *AdminAuth {
	return &AdminAuth{tokenHash: sha256.Sum256([]byte(token))}
}

// RequireAdmin rejects requests that do not carry the admin token.
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
			return
		}

		got := sha256.Sum256([]byte(parts[1]))
		if subtle.ConstantTimeCompare(got[:], a.tokenHash[:]) != 1 {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid admin token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireSecret validates a shared secret delivered in a custom header.
// Used for the inbound mail webhook, where the upstream MTA bridge is
// configured with a fixed secret. An empty configured secret disables the
// check, which is only appropriate in development.
func RequireSecret(header, secret string) func(http.Handler) http.Handler {
	var want [sha256.Size]byte
	if secret != "" {
		want = sha256.Sum256([]byte(secret))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := sha256.Sum256([]byte(r.Header.Get(header)))
				if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid webhook secret", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
