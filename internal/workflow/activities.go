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
	"github.com/workflowhq/workflow/internal/query"
)

const resourceActivity = "workflowlevel2"

// ActivityInput carries writable activity fields. Nil fields are left
// unchanged on update; level2_uuid is never taken from input.
type ActivityInput struct {
	Name             *string
	Description      *string
	ProgramID        *int64
	Progress         *string
	StaffResponsible *int64
	Products         []Product
	Approvals        []Approval
}

// ListActivities returns the activities visible to user, narrowed by
// filters, with contacts attached.
func (s *Service) ListActivities(ctx context.Context, user *identity.User, filters query.Spec) ([]*Activity, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	if !subj.Authenticated {
		return nil, authz.ErrUnauthenticated
	}
	ctx, span := s.startSpan(ctx, "workflow.ListActivities", subj)
	defer span.End()

	activities, err := s.activities.List(ctx, authz.VisibleActivities(subj).And(filters))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	if err := s.attachContacts(ctx, activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivity returns one visible activity.
func (s *Service) GetActivity(ctx context.Context, user *identity.User, activityID int64) (*Activity, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	if !subj.Authenticated {
		return nil, authz.ErrUnauthenticated
	}

	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !authz.VisibleActivities(subj).Matches(a) {
		return nil, ErrActivityNotFound
	}
	if err := s.attachContacts(ctx, []*Activity{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateActivity creates an activity under in.ProgramID. The caller needs
// the create capability on that program.
func (s *Service) CreateActivity(ctx context.Context, user *identity.User, in ActivityInput) (*Activity, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	if !subj.Authenticated {
		return nil, authz.ErrUnauthenticated
	}
	ctx, span := s.startSpan(ctx, "workflow.CreateActivity", subj)
	defer span.End()

	if in.ProgramID == nil {
		return nil, &ValidationError{Field: "workflowlevel1", Message: "this field is required"}
	}
	program, err := s.lookupProgram(ctx, *in.ProgramID)
	if err != nil {
		return nil, err
	}
	ref := program.Ref()
	if err := s.authorize(ctx, subj, resourceActivity, authz.ActionCreate, &ref); err != nil {
		return nil, err
	}

	a := &Activity{
		UUID:      id.NewUUID(),
		ProgramID: program.ID,
		Progress:  ProgressOpen,
	}
	if in.Name == nil {
		return nil, &ValidationError{Field: "name", Message: "this field is required"}
	}
	if err := s.applyActivityInput(ctx, a, in); err != nil {
		return nil, err
	}

	if err := s.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	a.OrganizationID = program.OrganizationID
	a.ProgramName = program.Name
	a.ProgramCountries = program.Countries

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeActivityCreated,
		OrganizationID: program.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceActivity,
		Metadata:       map[string]any{audit.AttrProgram: program.ID},
	})
	return a, nil
}

// UpdateActivity applies in to an existing activity. Moving it to another
// program also requires create on the destination.
func (s *Service) UpdateActivity(ctx context.Context, user *identity.User, activityID int64, in ActivityInput) (*Activity, error) {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "workflow.UpdateActivity", subj)
	defer span.End()

	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	program, err := s.programs.GetByID(ctx, a.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program of activity: %w", err)
	}
	ref := program.Ref()
	if err := s.authorize(ctx, subj, resourceActivity, authz.ActionUpdate, &ref); err != nil {
		return nil, err
	}

	if in.ProgramID != nil && *in.ProgramID != a.ProgramID {
		dest, err := s.lookupProgram(ctx, *in.ProgramID)
		if err != nil {
			return nil, err
		}
		destRef := dest.Ref()
		if err := s.authorize(ctx, subj, resourceActivity, authz.ActionCreate, &destRef); err != nil {
			return nil, err
		}
		a.ProgramID = dest.ID
		program = dest
	}

	if err := s.applyActivityInput(ctx, a, in); err != nil {
		return nil, err
	}
	if err := s.activities.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	a.OrganizationID = program.OrganizationID
	a.ProgramName = program.Name
	a.ProgramCountries = program.Countries

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeActivityUpdated,
		OrganizationID: program.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceActivity,
		Metadata:       map[string]any{audit.AttrProgram: program.ID},
	})
	return a, nil
}

// DeleteActivity removes an activity. The caller needs remove on its program.
func (s *Service) DeleteActivity(ctx context.Context, user *identity.User, activityID int64) error {
	subj, err := s.Subject(ctx, user)
	if err != nil {
		return err
	}
	ctx, span := s.startSpan(ctx, "workflow.DeleteActivity", subj)
	defer span.End()

	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return err
	}
	ref := authz.ProgramRef{ID: a.ProgramID, OrganizationID: a.OrganizationID}
	if err := s.authorize(ctx, subj, resourceActivity, authz.ActionDelete, &ref); err != nil {
		return err
	}

	if err := s.activities.Delete(ctx, activityID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeActivityDeleted,
		OrganizationID: a.OrganizationID,
		ActorID:        subj.UserID,
		Resource:       resourceActivity,
		Metadata:       map[string]any{audit.AttrProgram: a.ProgramID},
	})
	return nil
}

// lookupProgram resolves a program referenced from a payload; a dangling
// reference is a validation error, not a 404.
func (s *Service) lookupProgram(ctx context.Context, programID int64) (*Program, error) {
	p, err := s.programs.GetByID(ctx, programID)
	if errors.Is(err, ErrProgramNotFound) {
		return nil, &ValidationError{Field: "workflowlevel1", Message: fmt.Sprintf("invalid pk %d - object does not exist", programID)}
	}
	return p, err
}

func (s *Service) applyActivityInput(ctx context.Context, a *Activity, in ActivityInput) error {
	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return err
		}
		a.Name = name
	}
	if in.Description != nil {
		a.Description = cleanRichText(*in.Description)
	}
	if in.Progress != nil {
		if !validProgress[*in.Progress] {
			return &ValidationError{Field: "progress", Message: fmt.Sprintf("%q is not a valid choice", *in.Progress)}
		}
		a.Progress = *in.Progress
	}
	if in.StaffResponsible != nil {
		if _, err := s.users.GetByID(ctx, *in.StaffResponsible); err != nil {
			if errors.Is(err, identity.ErrUserNotFound) {
				return &ValidationError{Field: "staff_responsible", Message: "user does not exist"}
			}
			return fmt.Errorf("failed to load staff_responsible: %w", err)
		}
		staff := *in.StaffResponsible
		a.StaffResponsible = &staff
	}
	if in.Products != nil {
		products := make([]Product, 0, len(in.Products))
		for _, p := range in.Products {
			products = append(products, Product{
				Name:        cleanText(p.Name),
				Type:        cleanText(p.Type),
				ReferenceID: cleanText(p.ReferenceID),
			})
		}
		a.Products = products
	}
	if in.Approvals != nil {
		approvals := make([]Approval, 0, len(in.Approvals))
		for i, ap := range in.Approvals {
			if ap.Status == "" {
				ap.Status = ApprovalOpen
			}
			if !validApproval[ap.Status] {
				return &ValidationError{Field: fmt.Sprintf("approval[%d].status", i), Message: fmt.Sprintf("%q is not a valid choice", ap.Status)}
			}
			ap.Note = cleanRichText(ap.Note)
			approvals = append(approvals, ap)
		}
		a.Approvals = approvals
	}
	return nil
}

func (s *Service) attachContacts(ctx context.Context, activities []*Activity) error {
	if len(activities) == 0 || s.contacts == nil {
		return nil
	}
	uuids := make([]string, len(activities))
	for i, a := range activities {
		uuids[i] = a.UUID
	}
	contacts, err := s.contacts.ListByActivityUUIDs(ctx, uuids)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	byActivity := make(map[string]*Contact, len(contacts))
	for _, c := range contacts {
		for _, u := range c.WorkflowLevel2UUIDs {
			if _, ok := byActivity[u]; !ok {
				byActivity[u] = c
			}
		}
	}
	for _, a := range activities {
		a.Contact = byActivity[a.UUID]
	}
	return nil
}
