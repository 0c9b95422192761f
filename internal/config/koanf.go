// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ndisgate/config.yaml",
	"/etc/ndisgate/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Gate: GateConfig{
			PublicPaths:    []string{"/"},
			PublicPrefixes: []string{"/auth/", "/api/auth/"},
			Routes: []string{
				"/admin=admin",
				"/finance=finance",
				"/scheduler=schedules",
				"/support=clients",
			},
			DefaultPolicy: PolicyAllowAuthenticated,
			SignInPath:    "/auth/signin",
		},
		Identity: IdentityConfig{
			Provider:  ProviderGoTrue,
			Timeout:   5 * time.Second,
			CacheMode: CacheNone,
			CacheTTL:  30 * time.Second,
			CacheSize: 10000,
			CachePath: "/data/identity-cache",
		},
		Audit: AuditConfig{
			Enabled:      true,
			Store:        AuditStoreLog,
			BufferSize:   1000,
			WriteTimeout: 5 * time.Second,
			LogAllowed:   false,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			TrustedProxies:  []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
			CacheGCInterval:  10 * time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, otherwise the first
// default path found, otherwise "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"gate.public_paths",
	"gate.public_prefixes",
	"gate.routes",
	"security.cors_origins",
	"security.trusted_proxies",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"upstream_url":          "server.upstream",

	"gate_public_paths":    "gate.public_paths",
	"gate_public_prefixes": "gate.public_prefixes",
	"gate_routes":          "gate.routes",
	"gate_default_policy":  "gate.default_policy",
	"gate_signin_path":     "gate.signin_path",

	"idp_provider":              "identity.provider",
	"supabase_url":              "identity.url",
	"supabase_service_role_key": "identity.api_key",
	"supabase_jwt_secret":       "identity.jwt_secret",
	"idp_jwt_audience":          "identity.jwt_audience",
	"idp_timeout":               "identity.timeout",
	"identity_cache":            "identity.cache_mode",
	"identity_cache_ttl":        "identity.cache_ttl",
	"identity_cache_size":       "identity.cache_size",
	"identity_cache_path":       "identity.cache_path",

	"casbin_model_path":  "authz.model_path",
	"casbin_policy_path": "authz.policy_path",

	"audit_enabled":       "audit.enabled",
	"audit_store":         "audit.store",
	"audit_endpoint":      "audit.endpoint",
	"audit_api_key":       "audit.api_key",
	"audit_buffer_size":   "audit.buffer_size",
	"audit_write_timeout": "audit.write_timeout",
	"audit_log_allowed":   "audit.log_allowed",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
	"identity_cache_gc_interval":   "supervisor.cache_gc_interval",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
//   - SUPABASE_URL -> identity.url
//   - GATE_ROUTES -> gate.routes
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
