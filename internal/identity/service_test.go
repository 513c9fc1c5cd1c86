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

package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workflowhq/workflow/internal/audit"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*User
	credentials map[int64]*Credentials
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:       make(map[int64]*User),
		credentials: make(map[int64]*Credentials),
	}
}

func (m *MockUserRepository) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) SetCredentials(_ context.Context, c *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[c.UserID] = c
	return nil
}

func (m *MockUserRepository) GetCredentials(_ context.Context, userID int64) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return c, nil
}

func (m *MockUserRepository) UpdateLockout(_ context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *MockUserRepository) ExistsSuperuser(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.IsSuperuser && u.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(repo UserRepository) *Service {
	// Light argon2 parameters keep the suite fast.
	hasher := NewPasswordHasher(1024, 1, 1, 16, 32)
	return NewService(repo, hasher, audit.NewSlogLogger(), 3, 5*time.Minute)
}

// TestPurpose: Validates the user authentication flow, including success, failure, and account lockout after multiple failed attempts.
// Scope: Unit Test
// Security: Authentication mechanisms and Brute-force protection (lockout)
// Expected: Successful login for correct credentials, error for wrong credentials, and account lockout after the configured threshold.
// Test Case ID: IDN-01
func TestIdentity_Service_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepository()
	s := newTestService(repo)

	org := int64(1)
	u, err := s.Provision(ctx, ProvisionInput{Username: "alice", Password: "correct-horse", OrganizationID: &org})
	require.NoError(t, err)

	got, err := s.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, int64(1), got.OrgID())

	_, err = s.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _ = s.Authenticate(ctx, "alice", "wrong-password")
	_, err = s.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "alice", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

// TestPurpose: Validates that provisioning rejects duplicates, weak passwords and malformed usernames.
// Scope: Unit Test
// Security: Input validation, credential strength
// Expected: Each invalid input yields its sentinel error and nothing is stored.
// Test Case ID: IDN-02
func TestIdentity_Service_ProvisionValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepository()
	s := newTestService(repo)

	_, err := s.Provision(ctx, ProvisionInput{Username: "bob", Password: "long-enough"})
	require.NoError(t, err)

	_, err = s.Provision(ctx, ProvisionInput{Username: "bob", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = s.Provision(ctx, ProvisionInput{Username: "carol", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = s.Provision(ctx, ProvisionInput{Username: "has:colon", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	assert.Len(t, repo.users, 1)
}

// TestPurpose: Validates that inactive accounts cannot authenticate even with the right password.
// Scope: Unit Test
// Security: Account lifecycle enforcement
// Expected: ErrAccountInactive is returned.
// Test Case ID: IDN-03
func TestIdentity_Service_InactiveUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepository()
	s := newTestService(repo)

	u, err := s.Provision(ctx, ProvisionInput{Username: "dave", Password: "long-enough"})
	require.NoError(t, err)
	u.IsActive = false

	_, err = s.Authenticate(ctx, "dave", "long-enough")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

// TestPurpose: Validates Argon2id hashes round-trip and reject tampering.
// Scope: Unit Test
// Security: Credential storage (CWE-916)
// Expected: Correct password verifies; wrong password and malformed hashes do not.
// Test Case ID: IDN-04
func TestIdentity_PasswordHasher(t *testing.T) {
	h := NewPasswordHasher(1024, 1, 1, 16, 32)

	enc, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.Contains(t, enc, "$argon2id$v=19$m=1024,t=1,p=1$")

	ok, err := h.Verify("correct-horse", enc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", enc)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("x", "$bcrypt$abc")
	assert.Error(t, err)
}

// TestPurpose: Validates that bootstrap creates exactly one superuser and is idempotent.
// Scope: Unit Test
// Security: Privileged account provisioning
// Expected: First run creates a staff superuser; second run is a no-op.
// Test Case ID: IDN-05
func TestIdentity_Bootstrap(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepository()
	s := newTestService(repo)
	b := NewBootstrapService(s, audit.NewSlogLogger())

	require.NoError(t, b.Bootstrap(ctx))
	assert.Empty(t, repo.users)

	t.Setenv(EnvBootstrapAdminUsername, "root")
	t.Setenv(EnvBootstrapAdminPassword, "change-me-now")

	require.NoError(t, b.Bootstrap(ctx))
	require.NoError(t, b.Bootstrap(ctx))
	require.Len(t, repo.users, 1)

	u, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)
}
