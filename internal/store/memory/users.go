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
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/workflowhq/workflow/internal/identity"
)

func sortByID[T any](list []T, id func(T) int64) {
	slices.SortFunc(list, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
}

// UserRepository implements identity.UserRepository
type UserRepository struct {
	s *Store
}

func cloneUser(u *identity.User) *identity.User {
	cp := *u
	if u.OrganizationID != nil {
		v := *u.OrganizationID
		cp.OrganizationID = &v
	}
	if u.LockedUntil != nil {
		v := *u.LockedUntil
		cp.LockedUntil = &v
	}
	cp.Groups = append([]string(nil), u.Groups...)
	return &cp
}

// Create stores a new user
func (r *UserRepository) Create(_ context.Context, user *identity.User) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableUsers, indexUsername, user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return identity.ErrUserAlreadyExists
	}

	user.ID = r.s.nextID(tableUsers)
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if err := txn.Insert(tableUsers, cloneUser(user)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id int64) (*identity.User, error) {
	raw, err := r.s.db.Txn(false).First(tableUsers, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, identity.ErrUserNotFound
	}
	return cloneUser(raw.(*identity.User)), nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*identity.User, error) {
	raw, err := r.s.db.Txn(false).First(tableUsers, indexUsername, username)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, identity.ErrUserNotFound
	}
	return cloneUser(raw.(*identity.User)), nil
}

// SetCredentials creates or replaces a user's password hash
func (r *UserRepository) SetCredentials(_ context.Context, c *identity.Credentials) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	user, err := txn.First(tableUsers, PK, c.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return identity.ErrUserNotFound
	}
	cp := *c
	cp.UpdatedAt = r.s.now()
	if err := txn.Insert(tableCredentials, &cp); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetCredentials retrieves a user's password hash
func (r *UserRepository) GetCredentials(_ context.Context, userID int64) (*identity.Credentials, error) {
	raw, err := r.s.db.Txn(false).First(tableCredentials, PK, userID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, identity.ErrUserNotFound
	}
	cp := *raw.(*identity.Credentials)
	return &cp, nil
}

// UpdateLockout records failed login state
func (r *UserRepository) UpdateLockout(_ context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableUsers, PK, userID)
	if err != nil {
		return err
	}
	if raw == nil {
		return identity.ErrUserNotFound
	}
	u := cloneUser(raw.(*identity.User))
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = nil
	if lockedUntil != nil {
		v := *lockedUntil
		u.LockedUntil = &v
	}
	u.UpdatedAt = r.s.now()
	if err := txn.Insert(tableUsers, u); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// ExistsSuperuser reports whether an active superuser is stored
func (r *UserRepository) ExistsSuperuser(_ context.Context) (bool, error) {
	iter, err := r.s.db.Txn(false).Get(tableUsers, PK)
	if err != nil {
		return false, err
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		u := raw.(*identity.User)
		if u.IsSuperuser && u.IsActive {
			return true, nil
		}
	}
	return false, nil
}
