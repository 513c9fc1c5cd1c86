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

package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that authorization decisions are counted by outcome.
// Scope: Unit Test
// Security: Visibility into denied access attempts
// Expected: Allowed and denied decisions increment separate series; Tee forwards to every recorder.
// Test Case ID: MET-01
func TestMetrics_RecordDecision(t *testing.T) {
	m := NewMetrics()
	other := NewMetrics()
	rec := Tee{m, other}

	ctx := context.Background()
	rec.RecordDecision(ctx, "workflowlevel1", "create", true)
	rec.RecordDecision(ctx, "workflowlevel1", "delete", false)
	rec.RecordDecision(ctx, "workflowlevel1", "delete", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("workflowlevel1", "create", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthzDecisionsTotal.WithLabelValues("workflowlevel1", "delete", "denied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(other.AuthzDecisionsTotal.WithLabelValues("workflowlevel1", "delete", "denied")))
}

// TestPurpose: Validates HTTP instrumentation and the exposition endpoint.
// Scope: Unit Test
// Security: N/A
// Expected: Requests are labelled by route pattern and appear on the metrics handler.
// Test Case ID: MET-02
func TestMetrics_Middleware(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/workflowlevel1/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/workflowlevel1/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/workflowlevel1/{id}", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "workflow_http_requests_total"))
}

// TestPurpose: Validates the OpenTelemetry decision recorder against the global no-op provider.
// Scope: Unit Test
// Security: N/A
// Expected: Instruments are created and recording does not panic.
// Test Case ID: MET-03
func TestAuthzRecorder(t *testing.T) {
	meter, err := New(context.Background(), Config{Enabled: true}, "workflow-test")
	require.NoError(t, err)

	rec, err := NewAuthzRecorder(meter)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		rec.RecordDecision(context.Background(), "workflowlevel2", "update", false)
	})
}
