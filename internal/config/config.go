// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

// Package config loads gate configuration from defaults, an optional YAML
// file and environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Default policies for protected routes with no configured resource mapping.
const (
	PolicyAllowAuthenticated = "allow_authenticated"
	PolicyDeny               = "deny"
)

// Identity provider kinds.
const (
	ProviderGoTrue = "gotrue"
	ProviderJWT    = "jwt"
)

// Identity cache modes.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheBadger = "badger"
)

// Audit store kinds.
const (
	AuditStoreHTTP   = "http"
	AuditStoreLog    = "log"
	AuditStoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Gate       GateConfig       `koanf:"gate"`
	Identity   IdentityConfig   `koanf:"identity"`
	Authz      AuthzConfig      `koanf:"authz"`
	Audit      AuditConfig      `koanf:"audit"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`

	// Upstream is the application the gate fronts. Allowed requests that
	// match no gate-owned route are proxied to it. Empty answers 404.
	Upstream string `koanf:"upstream"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GateConfig controls which paths are public and how protected paths map to
// catalog resources.
type GateConfig struct {
	// PublicPaths are matched exactly.
	PublicPaths []string `koanf:"public_paths"`

	// PublicPrefixes are matched with a plain prefix test.
	PublicPrefixes []string `koanf:"public_prefixes"`

	// Routes are "prefix=resource" pairs, e.g. "/finance=finance".
	Routes []string `koanf:"routes"`

	// DefaultPolicy applies to protected paths with no route mapping.
	DefaultPolicy string `koanf:"default_policy"`

	// SignInPath is where browser callers are redirected on deny.
	SignInPath string `koanf:"signin_path"`
}

// RouteEntry is a parsed prefix to resource mapping.
type RouteEntry struct {
	Prefix   string
	Resource string
}

// RouteEntries parses Routes into prefix/resource pairs.
func (g GateConfig) RouteEntries() ([]RouteEntry, error) {
	entries := make([]RouteEntry, 0, len(g.Routes))
	for _, raw := range g.Routes {
		prefix, resource, ok := strings.Cut(raw, "=")
		prefix = strings.TrimSpace(prefix)
		resource = strings.TrimSpace(resource)
		if !ok || prefix == "" || resource == "" {
			return nil, fmt.Errorf("invalid route %q: expected prefix=resource", raw)
		}
		entries = append(entries, RouteEntry{Prefix: prefix, Resource: resource})
	}
	return entries, nil
}

// IdentityConfig configures token validation against the identity provider.
type IdentityConfig struct {
	Provider    string        `koanf:"provider"`
	URL         string        `koanf:"url"`
	APIKey      string        `koanf:"api_key"`
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTAudience string        `koanf:"jwt_audience"`
	Timeout     time.Duration `koanf:"timeout"`

	CacheMode string        `koanf:"cache_mode"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
	CachePath string        `koanf:"cache_path"`
}

// AuthzConfig points at optional Casbin model and policy files. Empty paths
// select the embedded defaults.
type AuthzConfig struct {
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// AuditConfig configures the asynchronous audit sink.
type AuditConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Store        string        `koanf:"store"`
	Endpoint     string        `koanf:"endpoint"`
	APIKey       string        `koanf:"api_key"`
	BufferSize   int           `koanf:"buffer_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	LogAllowed   bool          `koanf:"log_allowed"`
}

// SecurityConfig holds transport-level protections around the gate.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// SupervisorConfig tunes the suture restart policy and background jobs.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	CacheGCInterval  time.Duration `koanf:"cache_gc_interval"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
