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

package workflow

import (
	"context"

	"github.com/workflowhq/workflow/internal/query"
)

// OrganizationRepository defines the interface for organization persistence
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id int64) (*Organization, error)
	GetByName(ctx context.Context, name string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}

// ProgramRepository defines the interface for program persistence. List
// results are ordered by ascending id.
type ProgramRepository interface {
	// CreateWithAdmin stores program and admin in one transaction; admin's
	// ProgramID is set to the new program's id. Either both persist or
	// neither does.
	CreateWithAdmin(ctx context.Context, program *Program, admin *TeamMembership) error

	GetByID(ctx context.Context, id int64) (*Program, error)
	List(ctx context.Context, spec query.Spec) ([]*Program, error)
	Update(ctx context.Context, program *Program) error

	// Delete removes the program together with its activities and team
	// memberships.
	Delete(ctx context.Context, id int64) error
}

// ActivityRepository defines the interface for activity persistence. Reads
// fill the program-derived fields of Activity. List results are ordered by
// ascending id.
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, id int64) (*Activity, error)
	List(ctx context.Context, spec query.Spec) ([]*Activity, error)
	Update(ctx context.Context, activity *Activity) error
	Delete(ctx context.Context, id int64) error
}

// MembershipRepository defines the interface for team membership storage
type MembershipRepository interface {
	Create(ctx context.Context, membership *TeamMembership) error
	GetByID(ctx context.Context, id int64) (*TeamMembership, error)
	ListByUser(ctx context.Context, userID int64) ([]*TeamMembership, error)
	ListByProgram(ctx context.Context, programID int64) ([]*TeamMembership, error)
	Delete(ctx context.Context, id int64) error
}

// ContactRepository defines the interface for contact storage
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	// ListByActivityUUIDs returns contacts linked to any of the given
	// level2_uuids.
	ListByActivityUUIDs(ctx context.Context, uuids []string) ([]*Contact, error)
}
