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

package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that generated identifiers are well-formed and unique.
// Scope: Unit Test
// Security: Server-authoritative record identifiers
// Expected: Both generators return parseable, distinct UUIDs.
// Test Case ID: ID-01
func TestID_Generators(t *testing.T) {
	a, b := NewUUID(), NewUUID()
	assert.True(t, IsValid(a))
	assert.NotEqual(t, a, b)

	v7 := NewUUIDv7()
	assert.True(t, IsValid(v7))
	assert.False(t, IsValid("84a9888-4149-11e8-842f-0ed5f89f718b"))
}
