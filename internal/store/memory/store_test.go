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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func seedProgram(t *testing.T, s *Store, name string, countries ...string) (*workflow.Organization, *identity.User, *workflow.Program) {
	t.Helper()
	ctx := context.Background()

	org, err := s.Organizations().GetByName(ctx, "Acme")
	if err != nil {
		org = &workflow.Organization{UUID: "org-uuid", Name: "Acme"}
		require.NoError(t, s.Organizations().Create(ctx, org))
	}

	orgID := org.ID
	user := &identity.User{Username: "creator-" + name, OrganizationID: &orgID, IsActive: true}
	require.NoError(t, s.Users().Create(ctx, user))

	p := &workflow.Program{UUID: "uuid-" + name, Name: name, OrganizationID: org.ID, Countries: countries, UserAccess: []int64{user.ID}}
	admin := &workflow.TeamMembership{UUID: "m-" + name, UserID: user.ID, Role: authz.LabelProgramAdmin}
	require.NoError(t, s.Programs().CreateWithAdmin(ctx, p, admin))
	return org, user, p
}

// TestPurpose: Validates that a program and its creator's Program Admin membership are stored together.
// Scope: Unit Test
// Security: Creator must hold admin rights on the new program
// Expected: The membership references the new program id; a missing organization stores nothing.
// Test Case ID: MEM-01
func TestProgramRepository_CreateWithAdmin(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, user, p := seedProgram(t, s, "Health")
	assert.NotZero(t, p.ID)

	ms, err := s.Memberships().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	require.NotNil(t, ms[0].ProgramID)
	assert.Equal(t, p.ID, *ms[0].ProgramID)
	assert.Equal(t, authz.LabelProgramAdmin, ms[0].Role)

	orphan := &workflow.Program{Name: "Orphan", OrganizationID: 999}
	err = s.Programs().CreateWithAdmin(ctx, orphan, &workflow.TeamMembership{UserID: user.ID, Role: authz.LabelProgramAdmin})
	assert.ErrorIs(t, err, workflow.ErrOrganizationNotFound)

	all, err := s.Programs().List(ctx, query.All())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	ms, err = s.Memberships().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

// TestPurpose: Validates that deleting a program removes its activities and team memberships.
// Scope: Unit Test
// Security: No dangling role grants after deletion
// Expected: Activities and memberships of the deleted program are gone; other programs are untouched.
// Test Case ID: MEM-02
func TestProgramRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, user, doomed := seedProgram(t, s, "Doomed")
	_, _, kept := seedProgram(t, s, "Kept")

	for _, pid := range []int64{doomed.ID, kept.ID} {
		require.NoError(t, s.Activities().Create(ctx, &workflow.Activity{UUID: "a", Name: "act", ProgramID: pid, Progress: workflow.ProgressOpen}))
	}

	require.NoError(t, s.Programs().Delete(ctx, doomed.ID))

	_, err := s.Programs().GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, workflow.ErrProgramNotFound)

	acts, err := s.Activities().List(ctx, query.All())
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, kept.ID, acts[0].ProgramID)

	ms, err := s.Memberships().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)

	assert.ErrorIs(t, s.Programs().Delete(ctx, doomed.ID), workflow.ErrProgramNotFound)
}

// TestPurpose: Validates that activity reads carry their program's fields and that specs filter on them.
// Scope: Unit Test
// Security: Organization scoping of activities derives from the program
// Expected: OrganizationID, ProgramName and countries come from the program; filters on them and on approvals match.
// Test Case ID: MEM-03
func TestActivityRepository_ProgramJoin(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	org, _, kenya := seedProgram(t, s, "Kenya Water", "Kenya")
	_, _, peru := seedProgram(t, s, "Peru Schools", "Peru")

	assignee := int64(42)
	a1 := &workflow.Activity{UUID: "a1", Name: "wells", ProgramID: kenya.ID, Progress: workflow.ProgressTracking,
		Approvals: []workflow.Approval{{Status: workflow.ApprovalApproved, AssignedTo: &assignee}}}
	a2 := &workflow.Activity{UUID: "a2", Name: "books", ProgramID: peru.ID, Progress: workflow.ProgressOpen}
	require.NoError(t, s.Activities().Create(ctx, a1))
	require.NoError(t, s.Activities().Create(ctx, a2))

	got, err := s.Activities().GetByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.OrganizationID)
	assert.Equal(t, "Kenya Water", got.ProgramName)
	assert.Equal(t, []string{"Kenya"}, got.ProgramCountries)

	tests := []struct {
		name string
		spec query.Spec
		want []int64
	}{
		{"all", query.All(), []int64{a1.ID, a2.ID}},
		{"none", query.None(), nil},
		{"country", query.Where(query.FieldCountry, "Peru"), []int64{a2.ID}},
		{"program name", query.Where(query.FieldProgramName, "Kenya Water"), []int64{a1.ID}},
		{"approval status", query.Where(query.FieldApprovalStatus, "approved"), []int64{a1.ID}},
		{"approval assignee", query.Where(query.FieldApprovalAssignedTo, int64(42)), []int64{a1.ID}},
		{"progress and program", query.Where(query.FieldProgress, "open").And(query.Where(query.FieldProgramID, kenya.ID)), nil},
		{"organization", query.Where(query.FieldOrganizationID, org.ID), []int64{a1.ID, a2.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.Activities().List(ctx, tt.spec)
			require.NoError(t, err)
			var ids []int64
			for _, a := range list {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	err = s.Activities().Create(ctx, &workflow.Activity{Name: "x", ProgramID: 999})
	assert.ErrorIs(t, err, workflow.ErrProgramNotFound)
}

// TestPurpose: Validates that callers never share memory with stored records.
// Scope: Unit Test
// Security: A rejected update must not leak into the store through aliasing
// Expected: Mutating a returned program does not change the stored one until Update is called; Update keeps uuid and organization.
// Test Case ID: MEM-04
func TestProgramRepository_Isolation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, _, p := seedProgram(t, s, "Original", "Chad")

	got, err := s.Programs().GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Name = "Mutated"
	got.Countries[0] = "Niger"

	again, err := s.Programs().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
	assert.Equal(t, []string{"Chad"}, again.Countries)

	got.UUID = "forged"
	got.OrganizationID = 77
	require.NoError(t, s.Programs().Update(ctx, got))

	again, err = s.Programs().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mutated", again.Name)
	assert.Equal(t, p.UUID, again.UUID)
	assert.Equal(t, p.OrganizationID, again.OrganizationID)
}

// TestPurpose: Validates user storage, username uniqueness, credentials and lockout updates.
// Scope: Unit Test
// Security: Credential storage
// Expected: Duplicate usernames are rejected; credentials and lockout state round-trip; superuser detection works.
// Test Case ID: MEM-05
func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	users := s.Users()

	u := &identity.User{Username: "alice", IsActive: true, Groups: []string{authz.LabelViewOnly}}
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, &identity.User{Username: "alice"}), identity.ErrUserAlreadyExists)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []string{authz.LabelViewOnly}, got.Groups)

	_, err = users.GetCredentials(ctx, u.ID)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
	require.NoError(t, users.SetCredentials(ctx, &identity.Credentials{UserID: u.ID, PasswordHash: "hash"}))
	creds, err := users.GetCredentials(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", creds.PasswordHash)

	require.NoError(t, users.UpdateLockout(ctx, u.ID, 3, nil))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.FailedLoginAttempts)

	exists, err := users.ExistsSuperuser(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, users.Create(ctx, &identity.User{Username: "root", IsStaff: true, IsSuperuser: true, IsActive: true}))
	exists, err = users.ExistsSuperuser(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestPurpose: Validates contact lookup by activity uuid and translation filtering.
// Scope: Unit Test
// Security: N/A
// Expected: Each linked contact is returned once; translations filter by language.
// Test Case ID: MEM-06
func TestContactsAndTranslations(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Contacts().Create(ctx, &workflow.Contact{UUID: "c1", FirstName: "Ana", WorkflowLevel2UUIDs: []string{"a1", "a2"}}))
	require.NoError(t, s.Contacts().Create(ctx, &workflow.Contact{UUID: "c2", FirstName: "Ben"}))

	contacts, err := s.Contacts().ListByActivityUUIDs(ctx, []string{"a1", "a2", "a3"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ana", contacts[0].FirstName)

	tr := s.Translations()
	require.NoError(t, tr.Create(ctx, &i18n.Translation{Language: "en", LanguageFile: `{}`}))
	require.NoError(t, tr.Create(ctx, &i18n.Translation{Language: "pt-BR", LanguageFile: `{"name":"Nome"}`}))

	list, err := tr.List(ctx, query.Where(query.FieldLanguage, "pt-BR"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `{"name":"Nome"}`, list[0].LanguageFile)

	require.NoError(t, tr.Delete(ctx, list[0].ID))
	_, err = tr.GetByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, i18n.ErrTranslationNotFound)
}
