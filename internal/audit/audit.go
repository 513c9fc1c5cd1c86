// Copyright 2026 The Workflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess = "login_success"
	TypeLoginFailed  = "login_failed"
	TypeUserLocked   = "user_locked"
	TypeUserCreated  = "user_created"

	TypeAccessDenied = "access_denied"

	TypeProgramCreated = "program_created"
	TypeProgramUpdated = "program_updated"
	TypeProgramDeleted = "program_deleted"

	TypeActivityCreated = "activity_created"
	TypeActivityUpdated = "activity_updated"
	TypeActivityDeleted = "activity_deleted"

	TypeMembershipCreated = "membership_created"
	TypeMembershipDeleted = "membership_deleted"

	TypeTranslationCreated = "translation_created"
	TypeTranslationUpdated = "translation_updated"
	TypeTranslationDeleted = "translation_deleted"
)

// Metadata keys
const (
	AttrReason   = "reason"
	AttrAttempts = "attempts"
	AttrRole     = "role"
	AttrAction   = "action"
	AttrProgram  = "workflowlevel1_id"
	AttrLanguage = "language"
)

// Event represents an auditable action
type Event struct {
	Type           string
	OrganizationID int64
	ActorID        int64
	Resource       string
	Metadata       map[string]any
	Timestamp      time.Time
	IPAddress      string
	UserAgent      string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger on top of the default slog logger.
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// NewSlogLoggerWith creates an audit logger writing to l.
func NewSlogLoggerWith(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.Int64("organization_id", event.OrganizationID),
		slog.Int64("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	attrs = append(attrs, slog.String("component", "audit"))

	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "AUDIT_EVENT", attrs...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "api_key", "private_key", "hash", "credential", "authorization"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
