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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/workflowhq/workflow/internal/audit"
)

// Service provides identity-related business logic
type Service struct {
	repo               UserRepository
	hasher             *PasswordHasher
	auditLogger        audit.Logger
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
}

// NewService creates a new identity service
func NewService(
	repo UserRepository,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) *Service {
	return &Service{
		repo:               repo,
		hasher:             hasher,
		auditLogger:        auditLogger,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
	}
}

// ProvisionInput describes a user to create.
type ProvisionInput struct {
	Username       string
	Password       string
	FirstName      string
	LastName       string
	Email          string
	IsStaff        bool
	IsSuperuser    bool
	OrganizationID *int64
	Groups         []string
}

// Provision creates a user and, when a password is given, its credentials.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if !isValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if in.Password != "" && !isStrongPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &User{
		Username:       username,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		IsStaff:        in.IsStaff,
		IsSuperuser:    in.IsSuperuser,
		IsActive:       true,
		OrganizationID: in.OrganizationID,
		Groups:         in.Groups,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if in.Password != "" {
		if err := s.SetPassword(ctx, user.ID, in.Password); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// SetPassword hashes and stores a new password for userID.
func (s *Service) SetPassword(ctx context.Context, userID int64, password string) error {
	if !isStrongPassword(password) {
		return ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.SetCredentials(ctx, &Credentials{UserID: userID, PasswordHash: hash, UpdatedAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Authenticate verifies username and password, applying lockout after
// repeated failures.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			Resource: username,
			Metadata: map[string]any{audit.AttrReason: "user_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.auditLogger.Log(ctx, audit.Event{
			Type:           audit.TypeLoginFailed,
			OrganizationID: user.OrgID(),
			ActorID:        user.ID,
			Resource:       "login",
			Metadata:       map[string]any{audit.AttrReason: "inactive"},
		})
		return nil, ErrAccountInactive
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:           audit.TypeLoginFailed,
			OrganizationID: user.OrgID(),
			ActorID:        user.ID,
			Resource:       "login",
			Metadata:       map[string]any{audit.AttrReason: "locked_out"},
		})
		return nil, ErrAccountLocked
	}

	credentials, err := s.repo.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time

		if attempts >= s.lockoutMaxAttempts {
			until := time.Now().Add(s.lockoutDuration)
			lockedUntil = &until
			s.auditLogger.Log(ctx, audit.Event{
				Type:           audit.TypeUserLocked,
				OrganizationID: user.OrgID(),
				ActorID:        user.ID,
				Resource:       "login",
				Metadata:       map[string]any{audit.AttrAttempts: attempts},
			})
		}

		_ = s.repo.UpdateLockout(ctx, user.ID, attempts, lockedUntil)

		s.auditLogger.Log(ctx, audit.Event{
			Type:           audit.TypeLoginFailed,
			OrganizationID: user.OrgID(),
			ActorID:        user.ID,
			Resource:       "login",
			Metadata: map[string]any{
				audit.AttrReason:   "invalid_password",
				audit.AttrAttempts: attempts,
			},
		})

		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.repo.UpdateLockout(ctx, user.ID, 0, nil)
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeLoginSuccess,
		OrganizationID: user.OrgID(),
		ActorID:        user.ID,
		Resource:       "login",
	})

	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func isValidUsername(username string) bool {
	return len(username) >= 1 && len(username) <= 150 && !strings.ContainsAny(username, " :\t\n")
}

func isStrongPassword(password string) bool {
	return len(password) >= 8
}
