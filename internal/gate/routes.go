// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package gate

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/tomtom215/ndisgate/internal/validation"
)

// ActionRead is the action checked for every mapped route.
const ActionRead = "read"

// RouteRule maps a path prefix to a catalog resource.
type RouteRule struct {
	Prefix   string `json:"prefix" validate:"required,urlpath"`
	Resource string `json:"resource" validate:"required,resource"`
}

// DefaultRoutes is the built-in route table.
func DefaultRoutes() []RouteRule {
	return []RouteRule{
		{Prefix: "/admin", Resource: "admin"},
		{Prefix: "/finance", Resource: "finance"},
		{Prefix: "/scheduler", Resource: "schedules"},
		{Prefix: "/support", Resource: "clients"},
	}
}

// RouteTable resolves a path to a resource by longest matching prefix.
// Matching is a plain string prefix, so "/admin" also covers "/administrator".
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable validates and orders the rules.
func NewRouteTable(rules []RouteRule) (*RouteTable, error) {
	seen := make(map[string]struct{}, len(rules))
	sorted := make([]RouteRule, 0, len(rules))
	for _, rule := range rules {
		if err := validation.ValidateStruct(&rule); err != nil {
			return nil, fmt.Errorf("invalid route %q: %w", rule.Prefix, err)
		}
		if _, dup := seen[rule.Prefix]; dup {
			return nil, fmt.Errorf("duplicate route prefix %q", rule.Prefix)
		}
		seen[rule.Prefix] = struct{}{}
		sorted = append(sorted, rule)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &RouteTable{rules: sorted}, nil
}

// Lookup returns the resource for path.
func (t *RouteTable) Lookup(path string) (string, bool) {
	for _, rule := range t.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Resource, true
		}
	}
	return "", false
}

// Rules returns the rules, longest prefix first.
func (t *RouteTable) Rules() []RouteRule {
	out := make([]RouteRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// CanonicalPath removes dot segments and repeated slashes from p so that
// prefix matching sees the path the upstream will serve. A trailing slash
// is kept. Paths not starting with "/" (such as the asterisk form) are
// rooted first.
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean
}

// PublicMatcher recognises paths that need no authentication.
type PublicMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPublicMatcher builds a matcher from exact paths and prefixes.
func NewPublicMatcher(paths, prefixes []string) *PublicMatcher {
	m := &PublicMatcher{exact: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		m.exact[p] = struct{}{}
	}
	for _, p := range prefixes {
		if p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}
	return m
}

// IsPublic reports whether path is public.
func (m *PublicMatcher) IsPublic(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
