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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Exporters are attached to the global meter provider by the process.
	return &Meter{
		meter: otel.Meter(serviceName),
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// AuthzRecorder counts authorization decisions as OpenTelemetry metrics.
type AuthzRecorder struct {
	decisions metric.Int64Counter
	denials   metric.Int64Counter
}

// NewAuthzRecorder creates the decision instruments on m.
func NewAuthzRecorder(m *Meter) (*AuthzRecorder, error) {
	decisions, err := m.CreateCounter("workflow.authz.decisions", "Authorization decisions by resource, action and outcome")
	if err != nil {
		return nil, err
	}
	denials, err := m.CreateCounter("workflow.authz.denials", "Denied authorization decisions by resource and action")
	if err != nil {
		return nil, err
	}
	return &AuthzRecorder{decisions: decisions, denials: denials}, nil
}

// RecordDecision implements workflow.DecisionRecorder.
func (r *AuthzRecorder) RecordDecision(ctx context.Context, resource, action string, allowed bool) {
	attrs := metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("action", action),
		attribute.Bool("allowed", allowed),
	)
	r.decisions.Add(ctx, 1, attrs)
	if !allowed {
		r.denials.Add(ctx, 1, metric.WithAttributes(
			attribute.String("resource", resource),
			attribute.String("action", action),
		))
	}
}

// Recorder is satisfied by every decision sink in this package.
type Recorder interface {
	RecordDecision(ctx context.Context, resource, action string, allowed bool)
}

// Tee fans a decision out to every recorder.
type Tee []Recorder

// RecordDecision implements workflow.DecisionRecorder.
func (t Tee) RecordDecision(ctx context.Context, resource, action string, allowed bool) {
	for _, r := range t {
		r.RecordDecision(ctx, resource, action, allowed)
	}
}
