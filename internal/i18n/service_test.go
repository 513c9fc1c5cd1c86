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

package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/query"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, t *Translation) error {
	args := m.Called(ctx, t)
	if args.Error(0) == nil {
		t.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Translation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Translation), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, spec query.Spec) ([]*Translation, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).([]*Translation), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, t *Translation) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func ptr(s string) *string { return &s }

var (
	superuser = &identity.User{ID: 1, Username: "root", IsStaff: true, IsSuperuser: true, IsActive: true}
	member    = &identity.User{ID: 2, Username: "alice", IsActive: true}
)

// TestPurpose: Validates that only superusers can create translations and that language_file must be a JSON object.
// Scope: Unit Test
// Security: Write access to shared reference data
// Expected: Superuser creates succeed; normal users get ErrForbidden; anonymous gets ErrUnauthenticated; invalid documents are rejected.
// Test Case ID: I18N-01
func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("superuser", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*i18n.Translation")).Return(nil)
		svc := NewService(repo, audit.NewSlogLogger())

		tr, err := svc.Create(ctx, superuser, Input{Language: ptr("pt-BR"), LanguageFile: ptr(`{"name": "Nome", "gender": "Gênero"}`)})
		require.NoError(t, err)
		assert.Equal(t, "pt-BR", tr.Language)
		repo.AssertExpectations(t)
	})

	t.Run("normal user", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, audit.NewSlogLogger())

		_, err := svc.Create(ctx, member, Input{Language: ptr("pt-BR"), LanguageFile: ptr(`{}`)})
		assert.ErrorIs(t, err, authz.ErrForbidden)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("staff without superuser flag", func(t *testing.T) {
		svc := NewService(new(MockRepository), audit.NewSlogLogger())
		staff := &identity.User{ID: 3, IsStaff: true}

		_, err := svc.Create(ctx, staff, Input{Language: ptr("en"), LanguageFile: ptr(`{}`)})
		assert.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := NewService(new(MockRepository), audit.NewSlogLogger())

		_, err := svc.Create(ctx, nil, Input{Language: ptr("en"), LanguageFile: ptr(`{}`)})
		assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	})

	t.Run("invalid documents", func(t *testing.T) {
		svc := NewService(new(MockRepository), audit.NewSlogLogger())

		_, err := svc.Create(ctx, superuser, Input{Language: ptr("en"), LanguageFile: ptr(`["a"]`)})
		assert.ErrorIs(t, err, ErrInvalidLanguageFile)

		_, err = svc.Create(ctx, superuser, Input{Language: ptr("en"), LanguageFile: ptr(`{"a":`)})
		assert.ErrorIs(t, err, ErrInvalidLanguageFile)

		_, err = svc.Create(ctx, superuser, Input{Language: ptr("en us"), LanguageFile: ptr(`{}`)})
		assert.ErrorIs(t, err, ErrInvalidLanguage)

		_, err = svc.Create(ctx, superuser, Input{Language: ptr("en")})
		assert.ErrorIs(t, err, ErrInvalidLanguage)
	})
}

// TestPurpose: Validates that update and delete report missing translations before checking permissions.
// Scope: Unit Test
// Security: Error ordering for write operations
// Expected: Missing ids yield ErrTranslationNotFound for every caller; existing ids yield ErrForbidden for normal users.
// Test Case ID: I18N-02
func TestService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	existing := &Translation{ID: 7, Language: "en", LanguageFile: `{"name":"Name"}`}

	repo := new(MockRepository)
	repo.On("GetByID", ctx, int64(999)).Return(nil, ErrTranslationNotFound)
	repo.On("GetByID", ctx, int64(7)).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)
	repo.On("Delete", ctx, int64(7)).Return(nil)
	svc := NewService(repo, audit.NewSlogLogger())

	_, err := svc.Update(ctx, member, 999, Input{Language: ptr("pt-BR")})
	assert.ErrorIs(t, err, ErrTranslationNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, superuser, 999), ErrTranslationNotFound)

	_, err = svc.Update(ctx, member, 7, Input{Language: ptr("pt-BR")})
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, member, 7), authz.ErrForbidden)

	updated, err := svc.Update(ctx, superuser, 7, Input{Language: ptr("pt-BR")})
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", updated.Language)
	assert.Equal(t, `{"name":"Name"}`, updated.LanguageFile)

	require.NoError(t, svc.Delete(ctx, superuser, 7))
	repo.AssertNumberOfCalls(t, "Delete", 1)
}

// TestPurpose: Validates that translation reads are open to anonymous callers.
// Scope: Unit Test
// Security: Public reference data
// Expected: List passes the filter through to the repository.
// Test Case ID: I18N-03
func TestService_List(t *testing.T) {
	ctx := context.Background()
	filter := query.Where(query.FieldLanguage, "pt-BR")

	repo := new(MockRepository)
	repo.On("List", ctx, filter).Return([]*Translation{{ID: 2, Language: "pt-BR"}}, nil)
	svc := NewService(repo, audit.NewSlogLogger())

	list, err := svc.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pt-BR", list[0].Language)
}
