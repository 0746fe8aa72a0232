// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// Blocklist denies requests from configured CIDR ranges before they reach
// any handler.
type Blocklist struct {
	networks []*net.IPNet
}

// NewBlocklist parses the given CIDR strings. A bad entry fails loudly
// rather than silently narrowing the blocklist.
func NewBlocklist(cidrs []string) (*Blocklist, error) {
	bl := &Blocklist{}
	for _, c := range cidrs {
		_, network, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("parsing blocked CIDR %q: %w", c, err)
		}
		bl.networks = append(bl.networks, network)
	}
	return bl, nil
}

// Blocked reports whether ip falls inside any denied range.
func (bl *Blocklist) Blocked(ip string) bool {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	for _, n := range bl.networks {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}

// Middleware rejects requests from blocked clients with 403.
func (bl *Blocklist) Middleware(next http.Handler) http.Handler {
	if len(bl.networks) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		if bl.Blocked(ip) {
			slog.Warn("blocked client rejected", "ip", ip, "path", r.URL.Path)
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Access denied", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
