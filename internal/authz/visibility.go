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

import "github.com/workflowhq/workflow/internal/query"

// VisiblePrograms returns the predicate selecting the programs s may list.
// Membership alone grants visibility; the role only gates writes.
func VisiblePrograms(s Subject) query.Spec {
	return visibility(s)
}

// VisibleActivities returns the predicate selecting the activities s may
// list. Activities expose their program's id and organization under the same
// logical fields, so the rule is the program rule applied through the parent.
func VisibleActivities(s Subject) query.Spec {
	return visibility(s)
}

func visibility(s Subject) query.Spec {
	if !s.Authenticated {
		return query.None()
	}
	if s.Superuser() {
		return query.All()
	}
	if r, ok := ResolveOrgRole(s); ok && r == RoleOrganizationAdmin && s.OrganizationID != 0 {
		return query.Where(query.FieldOrganizationID, s.OrganizationID)
	}

	ids := s.ProgramIDs()
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return query.Where(query.FieldProgramID, values...)
}

// ReportScopes returns the program predicates whose union forms the
// permissions report candidates: the visible programs, plus the subject's
// whole organization when any org-wide role resolves.
func ReportScopes(s Subject) []query.Spec {
	visible := VisiblePrograms(s)
	if !s.Authenticated || visible.IsAll() {
		return []query.Spec{visible}
	}
	scopes := []query.Spec{visible}
	if _, ok := ResolveOrgRole(s); ok && s.OrganizationID != 0 {
		scopes = append(scopes, query.Where(query.FieldOrganizationID, s.OrganizationID))
	}
	return scopes
}
