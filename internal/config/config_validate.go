// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/ndisgate/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateGate(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateSupervisor()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read/write timeouts must be positive")
	}
	if c.Server.Upstream != "" {
		if err := validateHTTPURL("UPSTREAM_URL", c.Server.Upstream); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateGate() error {
	for _, p := range c.Gate.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("public path %q must start with /", p)
		}
	}
	for _, p := range c.Gate.PublicPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("public prefix %q must start with /", p)
		}
	}

	entries, err := c.Gate.RouteEntries()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.Prefix, "/") {
			return fmt.Errorf("route prefix %q must start with /", e.Prefix)
		}
		if seen[e.Prefix] {
			return fmt.Errorf("duplicate route prefix %q", e.Prefix)
		}
		seen[e.Prefix] = true
	}

	switch c.Gate.DefaultPolicy {
	case PolicyAllowAuthenticated, PolicyDeny:
	default:
		return fmt.Errorf("GATE_DEFAULT_POLICY must be %q or %q, got %q",
			PolicyAllowAuthenticated, PolicyDeny, c.Gate.DefaultPolicy)
	}

	if !strings.HasPrefix(c.Gate.SignInPath, "/") {
		return fmt.Errorf("GATE_SIGNIN_PATH must start with /, got %q", c.Gate.SignInPath)
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.Provider {
	case ProviderGoTrue:
		if err := validateHTTPURL("SUPABASE_URL", c.Identity.URL); err != nil {
			return err
		}
		if c.Identity.APIKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required when IDP_PROVIDER=%s", ProviderGoTrue)
		}
	case ProviderJWT:
		if len(c.Identity.JWTSecret) < 32 {
			return fmt.Errorf("SUPABASE_JWT_SECRET must be at least 32 characters when IDP_PROVIDER=%s", ProviderJWT)
		}
	default:
		return fmt.Errorf("IDP_PROVIDER must be %q or %q, got %q", ProviderGoTrue, ProviderJWT, c.Identity.Provider)
	}

	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("IDP_TIMEOUT must be positive, got %v", c.Identity.Timeout)
	}

	switch c.Identity.CacheMode {
	case CacheNone:
	case CacheMemory:
		if c.Identity.CacheSize <= 0 {
			return fmt.Errorf("IDENTITY_CACHE_SIZE must be positive")
		}
		if c.Identity.CacheTTL <= 0 {
			return fmt.Errorf("IDENTITY_CACHE_TTL must be positive")
		}
	case CacheBadger:
		if c.Identity.CachePath == "" {
			return fmt.Errorf("IDENTITY_CACHE_PATH is required when IDENTITY_CACHE=%s", CacheBadger)
		}
		if c.Identity.CacheTTL <= 0 {
			return fmt.Errorf("IDENTITY_CACHE_TTL must be positive")
		}
	default:
		return fmt.Errorf("IDENTITY_CACHE must be one of none, memory, badger; got %q", c.Identity.CacheMode)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	switch c.Audit.Store {
	case AuditStoreHTTP:
		if err := validateHTTPURL("AUDIT_ENDPOINT", c.Audit.Endpoint); err != nil {
			return err
		}
	case AuditStoreLog, AuditStoreMemory:
	default:
		return fmt.Errorf("AUDIT_STORE must be one of http, log, memory; got %q", c.Audit.Store)
	}
	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", c.Audit.BufferSize)
	}
	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("AUDIT_WRITE_TIMEOUT must be positive, got %v", c.Audit.WriteTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold < 0 || c.Supervisor.FailureDecay < 0 {
		return fmt.Errorf("supervisor failure threshold and decay must not be negative")
	}
	if c.Identity.CacheMode == CacheBadger && c.Supervisor.CacheGCInterval <= 0 {
		return fmt.Errorf("IDENTITY_CACHE_GC_INTERVAL must be positive when IDENTITY_CACHE=%s", CacheBadger)
	}
	return nil
}

// ShouldWarnAboutCORS reports a wildcard CORS origin outside development.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Server.Environment == "development" {
		return false
	}
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
