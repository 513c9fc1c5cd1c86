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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("workflow_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping integration test: failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx, InitialSchema))
	return db
}

func newStores(db *DB) workflow.Stores {
	return workflow.Stores{
		Organizations: NewOrganizationRepository(db),
		Programs:      NewProgramRepository(db),
		Activities:    NewActivityRepository(db),
		Memberships:   NewMembershipRepository(db),
		Contacts:      NewContactRepository(db),
		Users:         NewUserRepository(db),
	}
}

// TestPurpose: Validates tenant-scoped program visibility end to end against PostgreSQL.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: An Organization Admin lists only own-organization programs; a Program Team member lists only activities of its program.
// Test Case ID: ISO-01
// Metadata:
//   - Category: Authorization
//   - Priority: High
//   - Tags: multi-tenancy, security, data-isolation
func TestPostgres_VisibilityScoping(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	stores := newStores(db)
	svc := workflow.NewService(stores, audit.NewSlogLogger())

	orgA := &workflow.Organization{UUID: "org-a", Name: "Org A"}
	orgB := &workflow.Organization{UUID: "org-b", Name: "Org B"}
	require.NoError(t, stores.Organizations.Create(ctx, orgA))
	require.NoError(t, stores.Organizations.Create(ctx, orgB))

	newUser := func(name string, org *workflow.Organization, groups ...string) *identity.User {
		id := org.ID
		u := &identity.User{Username: name, IsActive: true, OrganizationID: &id, Groups: groups}
		require.NoError(t, stores.Users.Create(ctx, u))
		return u
	}

	creatorA := newUser("creator-a", orgA)
	creatorB := newUser("creator-b", orgB)
	boss := newUser("boss", orgA, authz.LabelOrganizationAdmin)

	name := func(s string) *string { return &s }
	a1, err := svc.CreateProgram(ctx, creatorA, workflow.ProgramInput{Name: name("A1"), Countries: []string{"Kenya"}})
	require.NoError(t, err)
	a2, err := svc.CreateProgram(ctx, creatorA, workflow.ProgramInput{Name: name("A2")})
	require.NoError(t, err)
	_, err = svc.CreateProgram(ctx, creatorB, workflow.ProgramInput{Name: name("B1")})
	require.NoError(t, err)

	list, err := svc.ListPrograms(ctx, boss, query.All())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a1.ID, list[0].ID)
	assert.Equal(t, a2.ID, list[1].ID)

	list, err = svc.ListPrograms(ctx, boss, query.Where(query.FieldCountry, "Kenya"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a1.ID, list[0].ID)

	list, err = svc.ListPrograms(ctx, boss, query.Contains(query.FieldName, "a2"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a2.ID, list[0].ID)

	// One page past a1 holds only a2: B1 has a higher id but another organization.
	list, err = svc.ListPrograms(ctx, boss, query.After(query.FieldID, a1.ID).Limit(2))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a2.ID, list[0].ID)

	list, err = svc.ListPrograms(ctx, boss, query.All().Limit(1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a1.ID, list[0].ID)

	team := newUser("team", orgA)
	pid := a1.ID
	require.NoError(t, stores.Memberships.Create(ctx, &workflow.TeamMembership{UUID: "m-team", UserID: team.ID, ProgramID: &pid, Role: authz.LabelProgramTeam}))

	assignee := creatorA.ID
	act, err := svc.CreateActivity(ctx, team, workflow.ActivityInput{
		Name:      name("Survey"),
		ProgramID: &pid,
		Approvals: []workflow.Approval{{Status: workflow.ApprovalApproved, AssignedTo: &assignee}},
		Products:  []workflow.Product{{Name: "Kit", Type: "supply"}},
	})
	require.NoError(t, err)
	pid2 := a2.ID
	_, err = svc.CreateActivity(ctx, creatorA, workflow.ActivityInput{Name: name("Other"), ProgramID: &pid2})
	require.NoError(t, err)

	acts, err := svc.ListActivities(ctx, team, query.All())
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, act.ID, acts[0].ID)
	assert.Equal(t, orgA.ID, acts[0].OrganizationID)
	assert.Equal(t, []workflow.Product{{Name: "Kit", Type: "supply"}}, acts[0].Products)

	acts, err = svc.ListActivities(ctx, boss, query.Where(query.FieldApprovalAssignedTo, assignee).And(query.Where(query.FieldApprovalStatus, "approved")))
	require.NoError(t, err)
	require.Len(t, acts, 1)

	report, err := svc.Permissions(ctx, team)
	require.NoError(t, err)
	require.Len(t, report.Permissions, 1)
	assert.Equal(t, authz.LabelProgramTeam, report.Permissions[0].Role)
	assert.False(t, report.Permissions[0].Remove)
}

// TestPurpose: Validates that program deletion cascades and creation is transactional.
// Scope: Database Integration Test
// Security: No dangling role grants
// Expected: Memberships and activities disappear with their program; a failed insert leaves no membership behind.
// Test Case ID: ISO-02
func TestPostgres_ProgramLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	stores := newStores(db)

	org := &workflow.Organization{UUID: "org", Name: "Org"}
	require.NoError(t, stores.Organizations.Create(ctx, org))
	orgID := org.ID
	user := &identity.User{Username: "u", IsActive: true, OrganizationID: &orgID}
	require.NoError(t, stores.Users.Create(ctx, user))

	p := &workflow.Program{UUID: "p-uuid", Name: "P", OrganizationID: org.ID, UserAccess: []int64{user.ID}}
	require.NoError(t, stores.Programs.CreateWithAdmin(ctx, p, &workflow.TeamMembership{UUID: "m", UserID: user.ID, Role: authz.LabelProgramAdmin}))
	require.NoError(t, stores.Activities.Create(ctx, &workflow.Activity{UUID: "a", Name: "A", ProgramID: p.ID, Progress: workflow.ProgressOpen}))

	dup := &workflow.Program{UUID: "p-uuid", Name: "Dup", OrganizationID: org.ID}
	assert.Error(t, stores.Programs.CreateWithAdmin(ctx, dup, &workflow.TeamMembership{UUID: "m2", UserID: user.ID, Role: authz.LabelProgramAdmin}))
	ms, err := stores.Memberships.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	require.NoError(t, stores.Programs.Delete(ctx, p.ID))
	ms, err = stores.Memberships.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
	acts, err := stores.Activities.List(ctx, query.All())
	require.NoError(t, err)
	assert.Empty(t, acts)
	assert.ErrorIs(t, stores.Programs.Delete(ctx, p.ID), workflow.ErrProgramNotFound)
}

// TestPurpose: Validates translation persistence and filtering.
// Scope: Database Integration Test
// Security: N/A
// Expected: Translations round-trip and filter by language; missing ids map to ErrTranslationNotFound.
// Test Case ID: ISO-03
func TestPostgres_Translations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewTranslationRepository(db)

	require.NoError(t, repo.Create(ctx, &i18n.Translation{Language: "en", LanguageFile: `{}`}))
	require.NoError(t, repo.Create(ctx, &i18n.Translation{Language: "pt-BR", LanguageFile: `{"name":"Nome"}`}))

	list, err := repo.List(ctx, query.Where(query.FieldLanguage, "pt-BR"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, `{"name":"Nome"}`, list[0].LanguageFile)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, i18n.ErrTranslationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 999), i18n.ErrTranslationNotFound)
}
