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
	"errors"
	"fmt"
	"time"

	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/query"
)

// Domain errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrProgramNotFound      = errors.New("program not found")
	ErrActivityNotFound     = errors.New("activity not found")
	ErrMembershipNotFound   = errors.New("team membership not found")
	ErrContactNotFound      = errors.New("contact not found")
	ErrAlreadyExists        = errors.New("record already exists")
)

// IsNotFound reports whether err is any workflow not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrProgramNotFound) ||
		errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrMembershipNotFound) ||
		errors.Is(err, ErrContactNotFound)
}

// ValidationError is a malformed or inconsistent input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Activity progress values
const (
	ProgressOpen             = "open"
	ProgressTracking         = "tracking"
	ProgressClosed           = "closed"
	ProgressAwaitingApproval = "awaitingapproval"
)

// Approval status values
const (
	ApprovalOpen     = "open"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

var (
	validProgress = map[string]bool{ProgressOpen: true, ProgressTracking: true, ProgressClosed: true, ProgressAwaitingApproval: true}
	validApproval = map[string]bool{ApprovalOpen: true, ApprovalApproved: true, ApprovalRejected: true}
)

// Organization is the tenant boundary.
type Organization struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"organization_uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"create_date"`
	UpdatedAt time.Time `json:"edit_date"`
}

// Program is a WorkflowLevel1: the top-level container owned by one
// organization. UUID is assigned by the server at creation and never changes.
type Program struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"level1_uuid"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	OrganizationID int64     `json:"organization_id"`
	Countries      []string  `json:"countries"`
	UserAccess     []int64   `json:"user_access"`
	CreatedAt      time.Time `json:"create_date"`
	UpdatedAt      time.Time `json:"edit_date"`
}

// Ref returns the engine's view of p.
func (p *Program) Ref() authz.ProgramRef {
	return authz.ProgramRef{ID: p.ID, UUID: p.UUID, OrganizationID: p.OrganizationID}
}

// FieldValues implements query.Record.
func (p *Program) FieldValues(f query.Field) ([]any, bool) {
	switch f {
	case query.FieldID, query.FieldProgramID:
		return []any{p.ID}, true
	case query.FieldName, query.FieldProgramName:
		return []any{p.Name}, true
	case query.FieldOrganizationID:
		return []any{p.OrganizationID}, true
	case query.FieldLevel1UUID:
		return []any{p.UUID}, true
	case query.FieldCountry:
		return anySlice(p.Countries), true
	}
	return nil, false
}

// Product is embedded in an activity.
type Product struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	ReferenceID string `json:"reference_id" yaml:"reference_id"`
}

// Approval is an approval step embedded in an activity.
type Approval struct {
	Status     string `json:"status" yaml:"status"`
	AssignedTo *int64 `json:"assigned_to,omitempty" yaml:"assigned_to"`
	Note       string `json:"note,omitempty" yaml:"note"`
}

// Activity is a WorkflowLevel2 belonging to exactly one program. Its
// organization is always its program's; OrganizationID, ProgramName and
// ProgramCountries are filled from the program on every read.
type Activity struct {
	ID               int64      `json:"id"`
	UUID             string     `json:"level2_uuid"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	ProgramID        int64      `json:"workflowlevel1"`
	Progress         string     `json:"progress"`
	StaffResponsible *int64     `json:"staff_responsible"`
	Products         []Product  `json:"products"`
	Approvals        []Approval `json:"approval"`
	Contact          *Contact   `json:"-"`
	CreatedAt        time.Time  `json:"create_date"`
	UpdatedAt        time.Time  `json:"edit_date"`

	OrganizationID   int64    `json:"-"`
	ProgramName      string   `json:"-"`
	ProgramCountries []string `json:"-"`
}

// FieldValues implements query.Record.
func (a *Activity) FieldValues(f query.Field) ([]any, bool) {
	switch f {
	case query.FieldID:
		return []any{a.ID}, true
	case query.FieldName:
		return []any{a.Name}, true
	case query.FieldProgramID:
		return []any{a.ProgramID}, true
	case query.FieldProgramName:
		return []any{a.ProgramName}, true
	case query.FieldOrganizationID:
		return []any{a.OrganizationID}, true
	case query.FieldCountry:
		return anySlice(a.ProgramCountries), true
	case query.FieldLevel2UUID:
		return []any{a.UUID}, true
	case query.FieldProgress:
		return []any{a.Progress}, true
	case query.FieldStaffResponsible:
		if a.StaffResponsible == nil {
			return nil, true
		}
		return []any{*a.StaffResponsible}, true
	case query.FieldApprovalStatus:
		out := make([]any, 0, len(a.Approvals))
		for _, ap := range a.Approvals {
			out = append(out, ap.Status)
		}
		return out, true
	case query.FieldApprovalAssignedTo:
		out := make([]any, 0, len(a.Approvals))
		for _, ap := range a.Approvals {
			if ap.AssignedTo != nil {
				out = append(out, *ap.AssignedTo)
			}
		}
		return out, true
	}
	return nil, false
}

// TeamMembership binds a user to a program with a role. A membership with
// only PartnerOrgID set names a partner organization and grants nothing.
type TeamMembership struct {
	ID           int64     `json:"id"`
	UUID         string    `json:"uuid"`
	UserID       int64     `json:"workflow_user"`
	ProgramID    *int64    `json:"workflowlevel1"`
	PartnerOrgID *int64    `json:"partner_org"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"create_date"`
}

// Membership converts m for the engine. ok is false for unknown role names.
func (m *TeamMembership) Membership() (authz.Membership, bool) {
	r, ok := authz.ParseRole(m.Role)
	if !ok {
		return authz.Membership{}, false
	}
	am := authz.Membership{Scope: authz.ScopeOrganization, Role: r}
	if m.ProgramID != nil {
		am.Scope = authz.ScopeProgram
		am.ProgramID = *m.ProgramID
	}
	if m.PartnerOrgID != nil {
		am.OrganizationID = *m.PartnerOrgID
	}
	return am, true
}

// Contact is a CRM contact linked to activities by level2_uuid.
type Contact struct {
	ID                  int64    `json:"id"`
	UUID                string   `json:"uuid"`
	FirstName           string   `json:"first_name"`
	MiddleName          string   `json:"middle_name"`
	LastName            string   `json:"last_name"`
	Title               string   `json:"title"`
	ContactType         string   `json:"contact_type"`
	CustomerType        string   `json:"customer_type"`
	Company             string   `json:"company"`
	OrganizationID      int64    `json:"-"`
	WorkflowLevel2UUIDs []string `json:"-"`
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
