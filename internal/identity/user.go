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
	"time"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccountInactive    = errors.New("account is inactive")
)

// User is an authenticated principal. Groups hold global role names; the
// authorization engine only considers the fixed role set and ignores the rest.
type User struct {
	ID                  int64
	Username            string
	FirstName           string
	LastName            string
	Email               string
	IsStaff             bool
	IsSuperuser         bool
	IsActive            bool
	OrganizationID      *int64
	Groups              []string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrgID returns the user's organization, or 0 when unaffiliated.
func (u *User) OrgID() int64 {
	if u == nil || u.OrganizationID == nil {
		return 0
	}
	return *u.OrganizationID
}

// Credentials represents user authentication credentials
type Credentials struct {
	UserID       int64
	PasswordHash string
	UpdatedAt    time.Time
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// SetCredentials creates or replaces the password hash for a user.
	SetCredentials(ctx context.Context, credentials *Credentials) error
	GetCredentials(ctx context.Context, userID int64) (*Credentials, error)

	UpdateLockout(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error

	// ExistsSuperuser reports whether any active superuser is stored.
	ExistsSuperuser(ctx context.Context) (bool, error)
}
