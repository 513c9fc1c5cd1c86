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

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates level parsing falls back to info for unknown values.
// Scope: Unit Test
// Security: N/A
// Expected: Known names map to their slog levels; anything else is info.
// Test Case ID: LOG-01
func TestLogger_ParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

// TestPurpose: Validates the JSON logger writes structured records with service and domain attributes.
// Scope: Unit Test
// Security: Audit trail integrity
// Expected: A record carries service, workflowlevel1_id, role and error keys.
// Test Case ID: LOG-02
func TestLogger_NewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", ServiceName: "workflow", Output: &buf})

	l.Info("decision", ProgramID(7), Role("Program Team"), Error(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "workflow", rec["service"])
	assert.Equal(t, float64(7), rec["workflowlevel1_id"])
	assert.Equal(t, "Program Team", rec["role"])
	assert.Equal(t, "boom", rec["error"])
}

// TestPurpose: Validates that the fanout handler delivers a record to every enabled handler.
// Scope: Unit Test
// Security: N/A
// Expected: Both buffers receive the record; a disabled level is dropped.
// Test Case ID: LOG-03
func TestLogger_Fanout(t *testing.T) {
	var a, b bytes.Buffer
	h := NewFanoutHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	l := slog.New(h)

	l.Info("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Empty(t, b.String())

	l.Error("bad")
	assert.Contains(t, b.String(), "bad")
}
