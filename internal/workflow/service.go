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

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/observability/logger"
)

const (
	maxNameLength = 255
	tracerName    = "github.com/workflowhq/workflow/internal/workflow"
)

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, resource, action string, allowed bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(context.Context, string, string, bool) {}

// Stores groups the repositories the service depends on.
type Stores struct {
	Organizations OrganizationRepository
	Programs      ProgramRepository
	Activities    ActivityRepository
	Memberships   MembershipRepository
	Contacts      ContactRepository
	Users         identity.UserRepository
}

// Service implements program, activity and membership operations with
// authorization applied.
type Service struct {
	orgs        OrganizationRepository
	programs    ProgramRepository
	activities  ActivityRepository
	memberships MembershipRepository
	contacts    ContactRepository
	users       identity.UserRepository
	auditLogger audit.Logger
	recorder    DecisionRecorder
	tracer      trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the decision recorder.
func WithRecorder(r DecisionRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracerProvider starts service spans from tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewService creates a new workflow service
func NewService(stores Stores, auditLogger audit.Logger, opts ...Option) *Service {
	s := &Service{
		orgs:        stores.Organizations,
		programs:    stores.Programs,
		activities:  stores.Activities,
		memberships: stores.Memberships,
		contacts:    stores.Contacts,
		users:       stores.Users,
		auditLogger: auditLogger,
		recorder:    noopRecorder{},
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subject loads the engine's view of user. A nil user is anonymous.
// Memberships are read on every call; role data is never cached.
func (s *Service) Subject(ctx context.Context, user *identity.User) (authz.Subject, error) {
	if user == nil {
		return authz.Anonymous(), nil
	}

	rows, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		return authz.Subject{}, fmt.Errorf("failed to load memberships: %w", err)
	}

	memberships := make([]authz.Membership, 0, len(rows))
	for _, m := range rows {
		am, ok := m.Membership()
		if !ok {
			slog.WarnContext(ctx, "ignoring membership with unknown role",
				logger.UserID(user.ID), logger.Role(m.Role))
			continue
		}
		memberships = append(memberships, am)
	}

	return authz.NewSubject(user.ID, user.IsStaff, user.IsSuperuser, user.OrgID(), user.Groups, memberships), nil
}

// authorize applies the decision for action on target and records it.
func (s *Service) authorize(ctx context.Context, subj authz.Subject, resource string, action authz.Action, target *authz.ProgramRef) error {
	err := authz.Authorize(subj, action, target)
	s.recorder.RecordDecision(ctx, resource, string(action), err == nil)
	if err == nil || errors.Is(err, authz.ErrUnauthenticated) {
		return err
	}

	meta := map[string]any{audit.AttrAction: string(action), audit.AttrReason: err.Error()}
	if target != nil {
		meta[audit.AttrProgram] = target.ID
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeAccessDenied,
		OrganizationID: subj.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resource,
		Metadata:       meta,
	})
	return err
}

func (s *Service) startSpan(ctx context.Context, name string, subj authz.Subject) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("workflow.user_id", subj.UserID),
		attribute.Int64("workflow.organization_id", subj.OrganizationID),
	))
}

func validateName(name string) (string, error) {
	name = cleanText(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "this field is required"}
	}
	if len(name) > maxNameLength {
		return "", &ValidationError{Field: "name", Message: fmt.Sprintf("ensure this field has no more than %d characters", maxNameLength)}
	}
	return name, nil
}
