// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// AccessEvent is a single authorization outcome as written to the local log.
// It is separate from the durable audit trail and never carries raw tokens.
type AccessEvent struct {
	Decision  string
	Path      string
	Resource  string
	UserID    string
	Email     string
	Role      string
	IPAddress string
	UserAgent string
	Reason    string
}

// AccessLogger writes sanitized access decisions.
type AccessLogger struct {
	logger zerolog.Logger
}

// NewAccessLogger creates an access logger on the global logger.
func NewAccessLogger() *AccessLogger {
	return &AccessLogger{logger: WithComponent("gate")}
}

// NewAccessLoggerWithLogger creates an access logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAccessLoggerWithLogger(logger zerolog.Logger) *AccessLogger {
	return &AccessLogger{logger: logger.With().Str("component", "gate").Logger()}
}

// LogDecision logs an access decision. Allow decisions go to debug, denials to info.
func (l *AccessLogger) LogDecision(event *AccessEvent) {
	e := l.logger.Info()
	if event.Decision == "allow" {
		e = l.logger.Debug()
	}
	e = e.Str("decision", event.Decision).Str("path", event.Path)

	if event.Resource != "" {
		e = e.Str("resource", event.Resource)
	}
	if event.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(event.UserID))
	}
	if event.Email != "" {
		e = e.Str("email", SanitizeEmail(event.Email))
	}
	if event.Role != "" {
		e = e.Str("role", event.Role)
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}
	if event.Reason != "" {
		e = e.Str("reason", SanitizeError(event.Reason))
	}
	e.Msg("access decision")
}

// SanitizeToken masks a token, showing only the first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks a user ID.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeEmail masks the local part of an email address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeError collapses messages that mention credentials into a generic one.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"password", "secret", "bearer", "authorization", "cookie", "apikey", "api_key"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
