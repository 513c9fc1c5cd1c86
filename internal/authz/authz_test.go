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

package authz_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/query"
)

const (
	orgA int64 = 1
	orgB int64 = 2
)

var (
	progA1 = authz.ProgramRef{ID: 10, UUID: "a1", OrganizationID: orgA}
	progA2 = authz.ProgramRef{ID: 11, UUID: "a2", OrganizationID: orgA}
	progA3 = authz.ProgramRef{ID: 12, UUID: "a3", OrganizationID: orgA}
	progB1 = authz.ProgramRef{ID: 20, UUID: "b1", OrganizationID: orgB}
)

func member(p authz.ProgramRef, r authz.Role) authz.Membership {
	return authz.Membership{Scope: authz.ScopeProgram, ProgramID: p.ID, OrganizationID: p.OrganizationID, Role: r}
}

func superuser() authz.Subject {
	return authz.NewSubject(1, true, true, orgA, nil, nil)
}

func orgUser(groups []string, ms ...authz.Membership) authz.Subject {
	return authz.NewSubject(2, false, false, orgA, groups, ms)
}

type programRecord authz.ProgramRef

func (p programRecord) FieldValues(f query.Field) ([]any, bool) {
	switch f {
	case query.FieldProgramID, query.FieldID:
		return []any{p.ID}, true
	case query.FieldOrganizationID:
		return []any{p.OrganizationID}, true
	}
	return nil, false
}

func visibleIDs(spec query.Spec, programs ...authz.ProgramRef) []int64 {
	var ids []int64
	for _, p := range programs {
		if spec.Matches(programRecord(p)) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// TestPurpose: Validates org-wide role resolution, including the superuser override and group precedence.
// Scope: Unit Test
// Security: Privilege resolution (CWE-269)
// Expected: Superuser -> Admin; Organization Admin beats View Only; unknown groups are ignored; anonymous has no role.
// Test Case ID: AUTHZ-01
func TestResolveOrgRole(t *testing.T) {
	tests := []struct {
		name    string
		subject authz.Subject
		want    authz.Role
		ok      bool
	}{
		{"superuser", superuser(), authz.RoleAdmin, true},
		{"superuser ignores groups", authz.NewSubject(1, true, true, orgA, []string{authz.LabelViewOnly}, nil), authz.RoleAdmin, true},
		{"staff only is not superuser", authz.NewSubject(1, true, false, orgA, nil, nil), authz.Role{}, false},
		{"org admin", orgUser([]string{authz.LabelOrganizationAdmin}), authz.RoleOrganizationAdmin, true},
		{"view only", orgUser([]string{authz.LabelViewOnly}), authz.RoleViewOnly, true},
		{"mixed", orgUser([]string{authz.LabelViewOnly, authz.LabelOrganizationAdmin}), authz.RoleOrganizationAdmin, true},
		{"unknown group", orgUser([]string{"Invented"}), authz.Role{}, false},
		{"no groups", orgUser(nil), authz.Role{}, false},
		{"anonymous", authz.Anonymous(), authz.Role{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := authz.ResolveOrgRole(tt.subject)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)

			again, _ := authz.ResolveOrgRole(tt.subject)
			assert.Equal(t, got, again)
		})
	}
}

// TestPurpose: Validates program-scoped role resolution: superuser, membership, same-org fallback, cross-org denial.
// Scope: Unit Test
// Security: Tenant isolation between organizations (CWE-284)
// Expected: Membership wins; org role applies only within the user's organization; otherwise no role.
// Test Case ID: AUTHZ-02
func TestResolveProgramRole(t *testing.T) {
	teamOnA1 := orgUser(nil, member(progA1, authz.RoleProgramTeam))
	orgAdmin := orgUser([]string{authz.LabelOrganizationAdmin})
	orgAdminWithMembership := orgUser([]string{authz.LabelOrganizationAdmin}, member(progA1, authz.RoleViewOnly))
	partnerOnly := orgUser(nil, authz.Membership{Scope: authz.ScopeOrganization, OrganizationID: orgB, Role: authz.RoleProgramAdmin})

	tests := []struct {
		name    string
		subject authz.Subject
		program authz.ProgramRef
		want    authz.Role
		ok      bool
	}{
		{"superuser any org", superuser(), progB1, authz.RoleAdmin, true},
		{"membership", teamOnA1, progA1, authz.RoleProgramTeam, true},
		{"no membership no org role", teamOnA1, progA2, authz.Role{}, false},
		{"org fallback", orgAdmin, progA2, authz.RoleOrganizationAdmin, true},
		{"org role other org", orgAdmin, progB1, authz.Role{}, false},
		{"membership beats org role", orgAdminWithMembership, progA1, authz.RoleViewOnly, true},
		{"partner org membership", partnerOnly, progB1, authz.Role{}, false},
		{"anonymous", authz.Anonymous(), progA1, authz.Role{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := authz.ResolveProgramRole(tt.subject, tt.program)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPurpose: Validates the deterministic tie-break for duplicate memberships on one program.
// Scope: Unit Test
// Security: Deterministic privilege resolution
// Expected: The highest-capability role wins regardless of membership order.
// Test Case ID: AUTHZ-03
func TestResolveProgramRole_DuplicateMemberships(t *testing.T) {
	a := orgUser(nil, member(progA1, authz.RoleViewOnly), member(progA1, authz.RoleProgramAdmin), member(progA1, authz.RoleProgramTeam))
	b := orgUser(nil, member(progA1, authz.RoleProgramTeam), member(progA1, authz.RoleProgramAdmin), member(progA1, authz.RoleViewOnly))

	ra, _ := authz.ResolveProgramRole(a, progA1)
	rb, _ := authz.ResolveProgramRole(b, progA1)
	assert.Equal(t, authz.RoleProgramAdmin, ra)
	assert.Equal(t, ra, rb)
}

// TestPurpose: Validates the fixed capability matrix for every role.
// Scope: Unit Test
// Security: Least privilege
// Expected: Exact flag values per role; no role has no mapping.
// Test Case ID: AUTHZ-04
func TestCapabilitiesFor(t *testing.T) {
	full := authz.Capabilities{Create: true, Edit: true, Remove: true, ManageUsers: true, View: true}
	for _, r := range []authz.Role{authz.RoleAdmin, authz.RoleOrganizationAdmin, authz.RoleProgramAdmin} {
		c, ok := authz.CapabilitiesFor(r)
		require.True(t, ok, r.String())
		assert.Equal(t, full, c, r.String())
	}

	c, ok := authz.CapabilitiesFor(authz.RoleProgramTeam)
	require.True(t, ok)
	assert.Equal(t, authz.Capabilities{Create: true, Edit: true, View: true}, c)

	c, ok = authz.CapabilitiesFor(authz.RoleViewOnly)
	require.True(t, ok)
	assert.Equal(t, authz.Capabilities{View: true}, c)
	assert.True(t, c.Allows(authz.CapView))
	assert.False(t, c.Allows(authz.CapEdit))

	_, ok = authz.CapabilitiesFor(authz.Role{})
	assert.False(t, ok)
}

// TestPurpose: Validates listing visibility predicates per role.
// Scope: Unit Test
// Security: Multi-tenant data separation (CWE-284)
// Expected: Superuser sees all; Org Admin sees own org; members see their programs; others see nothing.
// Test Case ID: AUTHZ-05
func TestVisiblePrograms(t *testing.T) {
	all := []authz.ProgramRef{progA1, progA2, progA3, progB1}

	assert.Equal(t, []int64{10, 11, 12, 20}, visibleIDs(authz.VisiblePrograms(superuser()), all...))
	assert.Equal(t, []int64{10, 11, 12}, visibleIDs(authz.VisiblePrograms(orgUser([]string{authz.LabelOrganizationAdmin})), all...))
	assert.Equal(t, []int64{10, 20}, visibleIDs(authz.VisiblePrograms(orgUser(nil, member(progA1, authz.RoleViewOnly), member(progB1, authz.RoleProgramTeam))), all...))
	assert.Empty(t, visibleIDs(authz.VisiblePrograms(orgUser([]string{authz.LabelViewOnly})), all...))
	assert.Empty(t, visibleIDs(authz.VisiblePrograms(orgUser(nil)), all...))
	assert.True(t, authz.VisiblePrograms(authz.Anonymous()).IsNone())
	assert.True(t, authz.VisibleActivities(authz.Anonymous()).IsNone())
}

// TestPurpose: Validates create/update/delete decisions across roles and organizations.
// Scope: Unit Test
// Security: Authorization enforcement (CWE-285)
// Expected: Capabilities of the program-scoped role decide; cross-org and no-role are forbidden; anonymous is unauthenticated.
// Test Case ID: AUTHZ-06
func TestAuthorize(t *testing.T) {
	team := orgUser(nil, member(progA1, authz.RoleProgramTeam))
	viewer := orgUser(nil, member(progA1, authz.RoleViewOnly))
	orgAdmin := orgUser([]string{authz.LabelOrganizationAdmin})
	nobody := orgUser(nil)

	tests := []struct {
		name    string
		subject authz.Subject
		action  authz.Action
		target  *authz.ProgramRef
		wantErr error
	}{
		{"anyone creates programs", nobody, authz.ActionCreate, nil, nil},
		{"anonymous cannot create", authz.Anonymous(), authz.ActionCreate, nil, authz.ErrUnauthenticated},
		{"update without target", nobody, authz.ActionUpdate, nil, authz.ErrForbidden},
		{"team edits", team, authz.ActionUpdate, &progA1, nil},
		{"team creates activity", team, authz.ActionCreate, &progA1, nil},
		{"team cannot delete", team, authz.ActionDelete, &progA1, authz.ErrForbidden},
		{"team other program", team, authz.ActionUpdate, &progA2, authz.ErrForbidden},
		{"viewer cannot edit", viewer, authz.ActionUpdate, &progA1, authz.ErrForbidden},
		{"viewer cannot create activity", viewer, authz.ActionCreate, &progA1, authz.ErrForbidden},
		{"viewer views", viewer, authz.ActionView, &progA1, nil},
		{"org admin deletes in org", orgAdmin, authz.ActionDelete, &progA2, nil},
		{"org admin other org", orgAdmin, authz.ActionDelete, &progB1, authz.ErrForbidden},
		{"superuser other org", superuser(), authz.ActionDelete, &progB1, nil},
		{"unknown action", superuser(), authz.Action("publish"), &progA1, authz.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.Authorize(tt.subject, tt.action, tt.target)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

// TestPurpose: Validates the permissions report for a mixed-membership user.
// Scope: Unit Test
// Security: Capability disclosure matches enforcement
// Expected: One entry per membership program in id order with matrix flags; no role_org.
// Test Case ID: AUTHZ-07
func TestBuildReport_Mixed(t *testing.T) {
	s := orgUser(nil,
		member(progA3, authz.RoleViewOnly),
		member(progA1, authz.RoleProgramAdmin),
		member(progA2, authz.RoleProgramTeam),
	)

	report, err := authz.BuildReport(s, []authz.ProgramRef{progA3, progA1, progA2, progB1})
	require.NoError(t, err)

	require.Len(t, report.Permissions, 3)
	assert.Equal(t, authz.PermissionEntry{ProgramID: 10, ProgramUUID: "a1", Role: authz.LabelProgramAdmin, Create: true, Edit: true, Remove: true, ManageUsers: true, View: true}, report.Permissions[0])
	assert.Equal(t, authz.PermissionEntry{ProgramID: 11, ProgramUUID: "a2", Role: authz.LabelProgramTeam, Create: true, Edit: true, View: true}, report.Permissions[1])
	assert.Equal(t, authz.PermissionEntry{ProgramID: 12, ProgramUUID: "a3", Role: authz.LabelViewOnly, View: true}, report.Permissions[2])
	assert.Empty(t, report.RoleOrg)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "role_org")
	assert.Contains(t, string(raw), `"manageUsers":true`)
}

// TestPurpose: Validates report contents for superusers, org-group holders, empty users and anonymous callers.
// Scope: Unit Test
// Security: Capability disclosure, anonymous rejection
// Expected: Superuser gets Admin everywhere; View Only group sees own-org programs; empty user gets an empty list; anonymous is rejected.
// Test Case ID: AUTHZ-08
func TestBuildReport_Variants(t *testing.T) {
	report, err := authz.BuildReport(superuser(), []authz.ProgramRef{progB1, progA1})
	require.NoError(t, err)
	require.Len(t, report.Permissions, 2)
	assert.Equal(t, authz.LabelAdmin, report.Permissions[0].Role)
	assert.Equal(t, int64(10), report.Permissions[0].ProgramID)
	assert.Equal(t, authz.LabelAdmin, report.RoleOrg)

	viewGroup := orgUser([]string{authz.LabelViewOnly})
	report, err = authz.BuildReport(viewGroup, []authz.ProgramRef{progA1})
	require.NoError(t, err)
	require.Len(t, report.Permissions, 1)
	assert.Equal(t, authz.LabelViewOnly, report.Permissions[0].Role)
	assert.Equal(t, authz.LabelViewOnly, report.RoleOrg)

	report, err = authz.BuildReport(orgUser(nil), nil)
	require.NoError(t, err)
	assert.NotNil(t, report.Permissions)
	assert.Empty(t, report.Permissions)

	_, err = authz.BuildReport(authz.Anonymous(), nil)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

// TestPurpose: Validates that report validation rejects labels outside the fixed set.
// Scope: Unit Test
// Security: Output integrity
// Expected: A ReportError wrapping ErrInvalidRole names the offending field.
// Test Case ID: AUTHZ-09
func TestReport_Validate(t *testing.T) {
	ok := authz.Report{RoleOrg: authz.LabelViewOnly, Permissions: []authz.PermissionEntry{{Role: authz.LabelViewOnly}}}
	assert.NoError(t, ok.Validate())

	bad := authz.Report{RoleOrg: "Invented"}
	err := bad.Validate()
	var re *authz.ReportError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "role_org", re.Field)
	assert.ErrorIs(t, err, authz.ErrInvalidRole)
}

// TestPurpose: Validates report candidate scopes include the whole organization for org-role holders.
// Scope: Unit Test
// Security: Report and listing scopes stay within the organization
// Expected: View Only group holders get visible + own-org scopes; superusers get a single unconstrained scope.
// Test Case ID: AUTHZ-10
func TestReportScopes(t *testing.T) {
	scopes := authz.ReportScopes(superuser())
	require.Len(t, scopes, 1)
	assert.True(t, scopes[0].IsAll())

	scopes = authz.ReportScopes(orgUser([]string{authz.LabelViewOnly}))
	require.Len(t, scopes, 2)
	assert.True(t, scopes[0].IsNone())
	assert.Equal(t, []int64{10, 11}, visibleIDs(scopes[1], progA1, progA2, progB1))

	scopes = authz.ReportScopes(orgUser(nil, member(progA1, authz.RoleViewOnly)))
	require.Len(t, scopes, 1)
}
