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
	"fmt"

	hcmemdb "github.com/hashicorp/go-memdb"

	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// OrganizationRepository implements workflow.OrganizationRepository
type OrganizationRepository struct {
	s *Store
}

func cloneOrganization(o *workflow.Organization) *workflow.Organization {
	cp := *o
	return &cp
}

// Create stores a new organization
func (r *OrganizationRepository) Create(_ context.Context, org *workflow.Organization) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableOrganizations, indexName, org.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("organization %q: %w", org.Name, workflow.ErrAlreadyExists)
	}

	org.ID = r.s.nextID(tableOrganizations)
	now := r.s.now()
	org.CreatedAt, org.UpdatedAt = now, now
	if err := txn.Insert(tableOrganizations, cloneOrganization(org)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(_ context.Context, id int64) (*workflow.Organization, error) {
	raw, err := r.s.db.Txn(false).First(tableOrganizations, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, workflow.ErrOrganizationNotFound
	}
	return cloneOrganization(raw.(*workflow.Organization)), nil
}

// GetByName retrieves an organization by name
func (r *OrganizationRepository) GetByName(_ context.Context, name string) (*workflow.Organization, error) {
	raw, err := r.s.db.Txn(false).First(tableOrganizations, indexName, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, workflow.ErrOrganizationNotFound
	}
	return cloneOrganization(raw.(*workflow.Organization)), nil
}

// List returns all organizations ordered by id
func (r *OrganizationRepository) List(_ context.Context) ([]*workflow.Organization, error) {
	iter, err := r.s.db.Txn(false).Get(tableOrganizations, PK)
	if err != nil {
		return nil, err
	}
	list := []*workflow.Organization{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, cloneOrganization(raw.(*workflow.Organization)))
	}
	return list, nil
}

// ProgramRepository implements workflow.ProgramRepository
type ProgramRepository struct {
	s *Store
}

func cloneProgram(p *workflow.Program) *workflow.Program {
	cp := *p
	cp.Countries = append([]string(nil), p.Countries...)
	cp.UserAccess = append([]int64(nil), p.UserAccess...)
	return &cp
}

// CreateWithAdmin stores program and its first Program Admin membership in
// one transaction
func (r *ProgramRepository) CreateWithAdmin(_ context.Context, program *workflow.Program, admin *workflow.TeamMembership) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	org, err := txn.First(tableOrganizations, PK, program.OrganizationID)
	if err != nil {
		return err
	}
	if org == nil {
		return workflow.ErrOrganizationNotFound
	}

	program.ID = r.s.nextID(tablePrograms)
	now := r.s.now()
	program.CreatedAt, program.UpdatedAt = now, now
	if err := txn.Insert(tablePrograms, cloneProgram(program)); err != nil {
		return err
	}

	if admin != nil {
		pid := program.ID
		admin.ProgramID = &pid
		admin.ID = r.s.nextID(tableMemberships)
		admin.CreatedAt = now
		if err := txn.Insert(tableMemberships, newMembershipRow(admin)); err != nil {
			return err
		}
	}

	txn.Commit()
	return nil
}

// GetByID retrieves a program by ID
func (r *ProgramRepository) GetByID(_ context.Context, id int64) (*workflow.Program, error) {
	p, err := getProgram(r.s.db.Txn(false), id)
	if err != nil {
		return nil, err
	}
	return cloneProgram(p), nil
}

func getProgram(txn *hcmemdb.Txn, id int64) (*workflow.Program, error) {
	raw, err := txn.First(tablePrograms, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, workflow.ErrProgramNotFound
	}
	return raw.(*workflow.Program), nil
}

// List returns programs matching spec ordered by id
func (r *ProgramRepository) List(_ context.Context, spec query.Spec) ([]*workflow.Program, error) {
	list := []*workflow.Program{}
	if spec.IsNone() {
		return list, nil
	}
	iter, err := r.s.db.Txn(false).Get(tablePrograms, PK)
	if err != nil {
		return nil, err
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		p := raw.(*workflow.Program)
		if spec.Matches(p) {
			list = append(list, cloneProgram(p))
			if len(list) == spec.MaxResults() {
				break
			}
		}
	}
	return list, nil
}

// Update replaces the mutable fields of a program
func (r *ProgramRepository) Update(_ context.Context, program *workflow.Program) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	existing, err := getProgram(txn, program.ID)
	if err != nil {
		return err
	}
	updated := cloneProgram(program)
	updated.UUID = existing.UUID
	updated.OrganizationID = existing.OrganizationID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.s.now()
	if err := txn.Insert(tablePrograms, updated); err != nil {
		return err
	}
	txn.Commit()
	program.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a program with its activities and memberships
func (r *ProgramRepository) Delete(_ context.Context, id int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	p, err := getProgram(txn, id)
	if err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableActivities, indexProgram, id); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableMemberships, indexProgram, id); err != nil {
		return err
	}
	if err := txn.Delete(tablePrograms, p); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// ActivityRepository implements workflow.ActivityRepository
type ActivityRepository struct {
	s *Store
}

func cloneActivity(a *workflow.Activity) *workflow.Activity {
	cp := *a
	if a.StaffResponsible != nil {
		v := *a.StaffResponsible
		cp.StaffResponsible = &v
	}
	cp.Products = append([]workflow.Product(nil), a.Products...)
	cp.Approvals = make([]workflow.Approval, len(a.Approvals))
	for i, ap := range a.Approvals {
		if ap.AssignedTo != nil {
			v := *ap.AssignedTo
			ap.AssignedTo = &v
		}
		cp.Approvals[i] = ap
	}
	cp.Contact = nil
	cp.OrganizationID = 0
	cp.ProgramName = ""
	cp.ProgramCountries = nil
	return &cp
}

// withProgram returns a copy of a carrying its program's fields.
func withProgram(txn *hcmemdb.Txn, a *workflow.Activity) (*workflow.Activity, error) {
	p, err := getProgram(txn, a.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	out := cloneActivity(a)
	out.OrganizationID = p.OrganizationID
	out.ProgramName = p.Name
	out.ProgramCountries = append([]string(nil), p.Countries...)
	return out, nil
}

// Create stores a new activity
func (r *ActivityRepository) Create(_ context.Context, activity *workflow.Activity) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	if _, err := getProgram(txn, activity.ProgramID); err != nil {
		return err
	}
	activity.ID = r.s.nextID(tableActivities)
	now := r.s.now()
	activity.CreatedAt, activity.UpdatedAt = now, now
	if err := txn.Insert(tableActivities, cloneActivity(activity)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(_ context.Context, id int64) (*workflow.Activity, error) {
	txn := r.s.db.Txn(false)
	raw, err := txn.First(tableActivities, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, workflow.ErrActivityNotFound
	}
	return withProgram(txn, raw.(*workflow.Activity))
}

// List returns activities matching spec ordered by id
func (r *ActivityRepository) List(_ context.Context, spec query.Spec) ([]*workflow.Activity, error) {
	list := []*workflow.Activity{}
	if spec.IsNone() {
		return list, nil
	}
	txn := r.s.db.Txn(false)
	iter, err := txn.Get(tableActivities, PK)
	if err != nil {
		return nil, err
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		a, err := withProgram(txn, raw.(*workflow.Activity))
		if err != nil {
			return nil, err
		}
		if spec.Matches(a) {
			list = append(list, a)
			if len(list) == spec.MaxResults() {
				break
			}
		}
	}
	return list, nil
}

// Update replaces the mutable fields of an activity
func (r *ActivityRepository) Update(_ context.Context, activity *workflow.Activity) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableActivities, PK, activity.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return workflow.ErrActivityNotFound
	}
	if _, err := getProgram(txn, activity.ProgramID); err != nil {
		return err
	}
	existing := raw.(*workflow.Activity)

	updated := cloneActivity(activity)
	updated.UUID = existing.UUID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.s.now()
	if err := txn.Insert(tableActivities, updated); err != nil {
		return err
	}
	txn.Commit()
	activity.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes an activity
func (r *ActivityRepository) Delete(_ context.Context, id int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableActivities, PK, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return workflow.ErrActivityNotFound
	}
	if err := txn.Delete(tableActivities, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// membershipRow flattens the optional program reference for indexing;
// memberships without a program index under 0.
type membershipRow struct {
	ID        int64
	UserID    int64
	ProgramID int64
	m         *workflow.TeamMembership
}

func cloneMembership(m *workflow.TeamMembership) *workflow.TeamMembership {
	cp := *m
	if m.ProgramID != nil {
		v := *m.ProgramID
		cp.ProgramID = &v
	}
	if m.PartnerOrgID != nil {
		v := *m.PartnerOrgID
		cp.PartnerOrgID = &v
	}
	return &cp
}

func newMembershipRow(m *workflow.TeamMembership) *membershipRow {
	row := &membershipRow{ID: m.ID, UserID: m.UserID, m: cloneMembership(m)}
	if m.ProgramID != nil {
		row.ProgramID = *m.ProgramID
	}
	return row
}

// MembershipRepository implements workflow.MembershipRepository
type MembershipRepository struct {
	s *Store
}

// Create stores a new team membership
func (r *MembershipRepository) Create(_ context.Context, m *workflow.TeamMembership) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	if m.ProgramID != nil {
		if _, err := getProgram(txn, *m.ProgramID); err != nil {
			return err
		}
	}
	user, err := txn.First(tableUsers, PK, m.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return identity.ErrUserNotFound
	}

	m.ID = r.s.nextID(tableMemberships)
	m.CreatedAt = r.s.now()
	if err := txn.Insert(tableMemberships, newMembershipRow(m)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID retrieves a team membership by ID
func (r *MembershipRepository) GetByID(_ context.Context, id int64) (*workflow.TeamMembership, error) {
	raw, err := r.s.db.Txn(false).First(tableMemberships, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, workflow.ErrMembershipNotFound
	}
	return cloneMembership(raw.(*membershipRow).m), nil
}

// ListByUser returns a user's memberships ordered by id
func (r *MembershipRepository) ListByUser(_ context.Context, userID int64) ([]*workflow.TeamMembership, error) {
	return r.list(indexUser, userID)
}

// ListByProgram returns a program's memberships ordered by id
func (r *MembershipRepository) ListByProgram(_ context.Context, programID int64) ([]*workflow.TeamMembership, error) {
	return r.list(indexProgram, programID)
}

func (r *MembershipRepository) list(index string, key int64) ([]*workflow.TeamMembership, error) {
	iter, err := r.s.db.Txn(false).Get(tableMemberships, index, key)
	if err != nil {
		return nil, err
	}
	list := []*workflow.TeamMembership{}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, cloneMembership(raw.(*membershipRow).m))
	}
	return list, nil
}

// Delete removes a team membership
func (r *MembershipRepository) Delete(_ context.Context, id int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableMemberships, PK, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return workflow.ErrMembershipNotFound
	}
	if err := txn.Delete(tableMemberships, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// ContactRepository implements workflow.ContactRepository
type ContactRepository struct {
	s *Store
}

func cloneContact(c *workflow.Contact) *workflow.Contact {
	cp := *c
	cp.WorkflowLevel2UUIDs = append([]string(nil), c.WorkflowLevel2UUIDs...)
	return &cp
}

// Create stores a new contact
func (r *ContactRepository) Create(_ context.Context, c *workflow.Contact) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	c.ID = r.s.nextID(tableContacts)
	if err := txn.Insert(tableContacts, cloneContact(c)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// ListByActivityUUIDs returns contacts linked to any of uuids, each once,
// ordered by id
func (r *ContactRepository) ListByActivityUUIDs(_ context.Context, uuids []string) ([]*workflow.Contact, error) {
	txn := r.s.db.Txn(false)
	seen := make(map[int64]bool)
	list := []*workflow.Contact{}
	for _, u := range uuids {
		iter, err := txn.Get(tableContacts, indexActivityUUIDs, u)
		if err != nil {
			return nil, err
		}
		for raw := iter.Next(); raw != nil; raw = iter.Next() {
			c := raw.(*workflow.Contact)
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			list = append(list, cloneContact(c))
		}
	}
	sortByID(list, func(c *workflow.Contact) int64 { return c.ID })
	return list, nil
}
