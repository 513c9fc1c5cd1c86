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

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/id"
	"github.com/workflowhq/workflow/internal/identity"
)

const resourceMembership = "workflowteam"

// MemberInput names the user and role for a new program membership.
type MemberInput struct {
	UserID int64
	Role   string
}

// ListMembers returns the team of a program. The caller needs view on it.
func (s *Service) ListMembers(ctx context.Context, user *identity.User, programID int64) ([]*TeamMembership, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "workflow.ListMembers", subj)
	defer span.End()

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	ref := p.Ref()
	if err := s.authorize(ctx, subj, resourceMembership, authz.ActionView, &ref); err != nil {
		return nil, err
	}
	return s.memberships.ListByProgram(ctx, programID)
}

// AddMember grants a role on a program. The caller needs manageUsers.
func (s *Service) AddMember(ctx context.Context, user *identity.User, programID int64, in MemberInput) (*TeamMembership, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "workflow.AddMember", subj)
	defer span.End()

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	ref := p.Ref()
	if err := s.authorize(ctx, subj, resourceMembership, authz.ActionManageUsers, &ref); err != nil {
		return nil, err
	}

	role, ok := authz.ParseRole(in.Role)
	if !ok {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("%q is not a valid choice", in.Role)}
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, &ValidationError{Field: "workflow_user", Message: "user does not exist"}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	pid := p.ID
	m := &TeamMembership{
		UUID:      id.NewUUID(),
		UserID:    in.UserID,
		ProgramID: &pid,
		Role:      role.String(),
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeMembershipCreated,
		OrganizationID: p.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceMembership,
		Metadata:       map[string]any{audit.AttrProgram: p.ID, audit.AttrRole: m.Role},
	})
	return m, nil
}

// RemoveMember deletes a membership of a program. The caller needs
// manageUsers on that program.
func (s *Service) RemoveMember(ctx context.Context, user *identity.User, programID, membershipID int64) error {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "workflow.RemoveMember", subj)
	defer span.End()

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return err
	}
	m, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if m.ProgramID == nil || *m.ProgramID != p.ID {
		return ErrMembershipNotFound
	}
	ref := p.Ref()
	if err := s.authorize(ctx, subj, resourceMembership, authz.ActionManageUsers, &ref); err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, membershipID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeMembershipDeleted,
		OrganizationID: p.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceMembership,
		Metadata:       map[string]any{audit.AttrProgram: p.ID, audit.AttrRole: m.Role},
	})
	return nil
}
