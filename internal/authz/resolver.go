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

// ResolveOrgRole returns the subject's organization-wide role. Superusers get
// Admin regardless of groups; otherwise the highest-ranked group role wins,
// so Organization Admin beats everything else.
func ResolveOrgRole(s Subject) (Role, bool) {
	if !s.Authenticated {
		return Role{}, false
	}
	if s.Superuser() {
		return RoleAdmin, true
	}
	r := Highest(s.OrgRoles...)
	return r, !r.IsZero()
}

// ResolveProgramRole returns the subject's role on program p: Admin for
// superusers, else the membership role on p, else the org-wide role when p
// belongs to the subject's organization.
//
// Several memberships on the same program resolve to the highest-ranked one.
func ResolveProgramRole(s Subject, p ProgramRef) (Role, bool) {
	if !s.Authenticated {
		return Role{}, false
	}
	if s.Superuser() {
		return RoleAdmin, true
	}

	var held []Role
	for _, m := range s.Memberships {
		if m.Scope == ScopeProgram && m.ProgramID == p.ID {
			held = append(held, m.Role)
		}
	}
	if r := Highest(held...); !r.IsZero() {
		return r, true
	}

	if s.OrganizationID != 0 && p.OrganizationID == s.OrganizationID {
		return ResolveOrgRole(s)
	}
	return Role{}, false
}
