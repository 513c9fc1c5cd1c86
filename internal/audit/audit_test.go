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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that sensitive keys are correctly identified as secrets to prevent them from being logged in plaintext.
// Scope: Unit Test
// Security: Data Masking and Leakage Prevention (CWE-532)
// Expected: Returns true for keys containing 'password', 'token', 'secret', etc., and false for non-sensitive keys.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"secret", true},
		{"api_key", true},
		{"password_hash", true},
		{"credential", true},
		{"private_key", true},
		{"user_id", false},
		{"workflowlevel1_id", false},
		{"role", false},
		{"language", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.isSecret, isSecret(tt.key))
		})
	}
}

// TestPurpose: Validates that audit events are emitted as structured records with redacted secret metadata.
// Scope: Unit Test
// Security: Audit trail integrity, secret redaction
// Expected: The record carries audit_type, actor and the redacted password value.
// Test Case ID: AUD-02
func TestAudit_SlogLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLoggerWith(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.Log(context.Background(), Event{
		Type:           TypeAccessDenied,
		OrganizationID: 3,
		ActorID:        11,
		Resource:       "workflowlevel1",
		Metadata:       map[string]any{AttrAction: "delete", "password": "hunter2"},
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, TypeAccessDenied, rec["audit_type"])
	assert.Equal(t, float64(11), rec["actor_id"])
	meta := rec["metadata"].(map[string]any)
	assert.Equal(t, "delete", meta[AttrAction])
	assert.Equal(t, "[REDACTED]", meta["password"])
}
