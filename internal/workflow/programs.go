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
	"fmt"
	"log/slog"
	"sort"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/id"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/observability/logger"
	"github.com/workflowhq/workflow/internal/query"
)

const resourceProgram = "workflowlevel1"

// ProgramInput carries writable program fields. Nil fields are left
// unchanged on update. Identifiers and the organization are never taken
// from input.
type ProgramInput struct {
	Name        *string
	Description *string
	Countries   []string
}

// ListPrograms returns the programs visible to user, narrowed by filters.
func (s *Service) ListPrograms(ctx context.Context, user *identity.User, filters query.Spec) ([]*Program, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	if !subj.Authenticated {
		return nil, authz.ErrUnauthenticated
	}
	ctx, span := s.startSpan(ctx, "workflow.ListPrograms", subj)
	defer span.End()

	// Visibility first, then the caller's filters.
	programs, err := s.programs.List(ctx, authz.VisiblePrograms(subj).And(filters))
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// GetProgram returns one program. Programs outside the caller's visibility
// are reported as not found.
func (s *Service) GetProgram(ctx context.Context, user *identity.User, programID int64) (*Program, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	if !subj.Authenticated {
		return nil, authz.ErrUnauthenticated
	}

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if !authz.VisiblePrograms(subj).Matches(p) {
		return nil, ErrProgramNotFound
	}
	return p, nil
}

// CreateProgram creates a program in the caller's organization. The caller
// is added to user_access and receives a Program Admin membership in the
// same transaction.
func (s *Service) CreateProgram(ctx context.Context, user *identity.User, in ProgramInput) (*Program, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "workflow.CreateProgram", subj)
	defer span.End()

	if err := s.authorize(ctx, subj, resourceProgram, authz.ActionCreate, nil); err != nil {
		return nil, err
	}

	if in.Name == nil {
		return nil, &ValidationError{Field: "name", Message: "this field is required"}
	}
	name, err := validateName(*in.Name)
	if err != nil {
		return nil, err
	}
	orgID := user.OrgID()
	if orgID == 0 {
		return nil, &ValidationError{Field: "organization", Message: "user does not belong to an organization"}
	}

	p := &Program{
		UUID:           id.NewUUID(),
		Name:           name,
		OrganizationID: orgID,
		Countries:      cleanList(in.Countries),
		UserAccess:     []int64{user.ID},
	}
	if in.Description != nil {
		p.Description = cleanRichText(*in.Description)
	}

	admin := &TeamMembership{
		UUID:   id.NewUUID(),
		UserID: user.ID,
		Role:   authz.LabelProgramAdmin,
	}

	if err := s.programs.CreateWithAdmin(ctx, p, admin); err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeProgramCreated,
		OrganizationID: orgID,
		ActorID:        user.ID,
		Resource:       resourceProgram,
		Metadata:       map[string]any{audit.AttrProgram: p.ID},
	})
	slog.InfoContext(ctx, "program created", logger.ProgramID(p.ID), logger.UserID(user.ID))

	return p, nil
}

// UpdateProgram applies in to an existing program. A missing program is
// reported before any permission check.
func (s *Service) UpdateProgram(ctx context.Context, user *identity.User, programID int64, in ProgramInput) (*Program, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "workflow.UpdateProgram", subj)
	defer span.End()

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	ref := p.Ref()
	if err := s.authorize(ctx, subj, resourceProgram, authz.ActionUpdate, &ref); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = cleanRichText(*in.Description)
	}
	if in.Countries != nil {
		p.Countries = cleanList(in.Countries)
	}

	if err := s.programs.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update program: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeProgramUpdated,
		OrganizationID: p.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceProgram,
		Metadata:       map[string]any{audit.AttrProgram: p.ID},
	})

	return p, nil
}

// DeleteProgram removes a program with its activities and memberships.
func (s *Service) DeleteProgram(ctx context.Context, user *identity.User, programID int64) error {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "workflow.DeleteProgram", subj)
	defer span.End()

	p, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return err
	}
	ref := p.Ref()
	if err := s.authorize(ctx, subj, resourceProgram, authz.ActionDelete, &ref); err != nil {
		return err
	}

	if err := s.programs.Delete(ctx, programID); err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeProgramDeleted,
		OrganizationID: p.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceProgram,
		Metadata:       map[string]any{audit.AttrProgram: p.ID},
	})

	return nil
}

// Permissions builds the capability report for user.
func (s *Service) Permissions(ctx context.Context, user *identity.User) (authz.Report, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return authz.Report{}, err
	}
	if !subj.Authenticated {
		return authz.Report{}, authz.ErrUnauthenticated
	}
	ctx, span := s.startSpan(ctx, "workflow.Permissions", subj)
	defer span.End()

	seen := make(map[int64]bool)
	var candidates []authz.ProgramRef
	for _, scope := range authz.ReportScopes(subj) {
		if scope.IsNone() {
			continue
		}
		programs, err := s.programs.List(ctx, scope)
		if err != nil {
			return authz.Report{}, fmt.Errorf("failed to list programs: %w", err)
		}
		for _, p := range programs {
			if !seen[p.ID] {
				seen[p.ID] = true
				candidates = append(candidates, p.Ref())
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	return authz.BuildReport(subj, candidates)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if c := cleanText(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}
