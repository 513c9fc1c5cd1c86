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

package authz

// Scope defines the level at which a membership grants a role
type Scope string

const (
	// ScopeProgram binds a role to a single program.
	ScopeProgram Scope = "program"
	// ScopeOrganization is a membership naming only a partner organization.
	// It grants neither visibility nor capabilities.
	ScopeOrganization Scope = "organization"
)

// Membership is a team-role assignment of the subject.
type Membership struct {
	Scope          Scope
	ProgramID      int64
	OrganizationID int64
	Role           Role
}

// ProgramRef is the part of a program the engine needs.
type ProgramRef struct {
	ID             int64
	UUID           string
	OrganizationID int64
}

// Subject is the already-loaded view of a requesting user. The anonymous
// subject is the zero value.
type Subject struct {
	UserID         int64
	Authenticated  bool
	IsStaff        bool
	IsSuperuser    bool
	OrganizationID int64
	// OrgRoles are the fixed-set roles found among the user's groups.
	OrgRoles    []Role
	Memberships []Membership
}

// Anonymous returns the unauthenticated subject.
func Anonymous() Subject { return Subject{} }

// NewSubject builds a subject from user attributes. Group names outside the
// fixed role set are ignored.
func NewSubject(userID int64, isStaff, isSuperuser bool, organizationID int64, groups []string, memberships []Membership) Subject {
	s := Subject{
		UserID:         userID,
		Authenticated:  true,
		IsStaff:        isStaff,
		IsSuperuser:    isSuperuser,
		OrganizationID: organizationID,
		Memberships:    memberships,
	}
	for _, g := range groups {
		if r, ok := ParseRole(g); ok {
			s.OrgRoles = append(s.OrgRoles, r)
		}
	}
	return s
}

// Superuser reports whether the subject bypasses all scoping. Both flags are
// required.
func (s Subject) Superuser() bool {
	return s.Authenticated && s.IsStaff && s.IsSuperuser
}

// ProgramIDs returns the distinct programs the subject holds a membership on,
// in first-seen order.
func (s Subject) ProgramIDs() []int64 {
	seen := make(map[int64]bool, len(s.Memberships))
	var ids []int64
	for _, m := range s.Memberships {
		if m.Scope != ScopeProgram || m.ProgramID == 0 || seen[m.ProgramID] {
			continue
		}
		seen[m.ProgramID] = true
		ids = append(ids, m.ProgramID)
	}
	return ids
}
