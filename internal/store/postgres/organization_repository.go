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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/workflowhq/workflow/internal/workflow"
)

// OrganizationRepository implements workflow.OrganizationRepository
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *workflow.Organization) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO organizations (organization_uuid, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, org.UUID, org.Name).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return fmt.Errorf("organization %q: %w", org.Name, workflow.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

func scanOrganization(row pgx.Row) (*workflow.Organization, error) {
	var org workflow.Organization
	err := row.Scan(&org.ID, &org.UUID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*workflow.Organization, error) {
	return scanOrganization(r.db.pool.QueryRow(ctx, `
		SELECT id, organization_uuid, name, created_at, updated_at FROM organizations WHERE id = $1
	`, id))
}

// GetByName retrieves an organization by name
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*workflow.Organization, error) {
	return scanOrganization(r.db.pool.QueryRow(ctx, `
		SELECT id, organization_uuid, name, created_at, updated_at FROM organizations WHERE name = $1
	`, name))
}

// List returns all organizations ordered by id
func (r *OrganizationRepository) List(ctx context.Context) ([]*workflow.Organization, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, organization_uuid, name, created_at, updated_at FROM organizations ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []*workflow.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
