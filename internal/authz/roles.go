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

import "errors"

// Errors
var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidRole     = errors.New("invalid role")
)

// -----------------------------------------------------------------------------
// Role Labels
// These are the canonical names for roles as stored on team memberships and
// user groups, and as reported to clients.
// -----------------------------------------------------------------------------

const (
	// LabelAdmin is reported for superusers. It is never stored.
	LabelAdmin = "Admin"

	LabelOrganizationAdmin = "Organization Admin"
	LabelProgramAdmin      = "Program Admin"
	LabelProgramTeam       = "Program Team"
	LabelViewOnly          = "View Only"
)

// Role is either the implicit superuser role or one of the fixed named roles.
// The zero value is "no role".
type Role struct {
	label     string
	superuser bool
}

var (
	RoleAdmin             = Role{label: LabelAdmin, superuser: true}
	RoleOrganizationAdmin = Role{label: LabelOrganizationAdmin}
	RoleProgramAdmin      = Role{label: LabelProgramAdmin}
	RoleProgramTeam       = Role{label: LabelProgramTeam}
	RoleViewOnly          = Role{label: LabelViewOnly}
)

// rank orders roles by capability breadth; used for every tie-break.
var rank = map[string]int{
	LabelAdmin:             5,
	LabelOrganizationAdmin: 4,
	LabelProgramAdmin:      3,
	LabelProgramTeam:       2,
	LabelViewOnly:          1,
}

// Roles returns the fixed role set, highest rank first.
func Roles() []Role {
	return []Role{RoleAdmin, RoleOrganizationAdmin, RoleProgramAdmin, RoleProgramTeam, RoleViewOnly}
}

// NamedRoles returns the roles that may be stored on memberships or groups.
func NamedRoles() []Role {
	return []Role{RoleOrganizationAdmin, RoleProgramAdmin, RoleProgramTeam, RoleViewOnly}
}

// ParseRole maps a stored role name to a named role. The superuser label is
// rejected: superuser status comes from user flags only.
func ParseRole(name string) (Role, bool) {
	for _, r := range NamedRoles() {
		if r.label == name {
			return r, true
		}
	}
	return Role{}, false
}

// IsValidLabel reports whether label is any reportable role label.
func IsValidLabel(label string) bool {
	_, ok := rank[label]
	return ok
}

func (r Role) String() string { return r.label }

// IsSuperuser reports whether r is the implicit superuser role.
func (r Role) IsSuperuser() bool { return r.superuser }

// IsZero reports whether r is "no role".
func (r Role) IsZero() bool { return r.label == "" }

// Rank returns r's precedence; 0 for no role.
func (r Role) Rank() int { return rank[r.label] }

// Highest returns the highest-ranked role, or the zero Role when none given.
func Highest(roles ...Role) Role {
	var best Role
	for _, r := range roles {
		if r.Rank() > best.Rank() {
			best = r
		}
	}
	return best
}
