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
	"fmt"

	"github.com/workflowhq/workflow/internal/workflow"
)

// ContactRepository implements workflow.ContactRepository
type ContactRepository struct {
	db *DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(ctx context.Context, c *workflow.Contact) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO contacts (
			uuid, first_name, middle_name, last_name, title, contact_type, customer_type, company,
			organization_id, workflowlevel2_uuids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9::BIGINT, 0), $10)
		RETURNING id
	`,
		c.UUID, c.FirstName, c.MiddleName, c.LastName, c.Title, c.ContactType, c.CustomerType, c.Company,
		c.OrganizationID, nonNil(c.WorkflowLevel2UUIDs),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// ListByActivityUUIDs returns contacts linked to any of uuids ordered by id
func (r *ContactRepository) ListByActivityUUIDs(ctx context.Context, uuids []string) ([]*workflow.Contact, error) {
	contacts := []*workflow.Contact{}
	if len(uuids) == 0 {
		return contacts, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, uuid, first_name, middle_name, last_name, title, contact_type, customer_type, company,
			COALESCE(organization_id, 0), workflowlevel2_uuids
		FROM contacts
		WHERE workflowlevel2_uuids && $1::TEXT[]
		ORDER BY id
	`, uuids)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c workflow.Contact
		if err := rows.Scan(
			&c.ID, &c.UUID, &c.FirstName, &c.MiddleName, &c.LastName, &c.Title, &c.ContactType,
			&c.CustomerType, &c.Company, &c.OrganizationID, &c.WorkflowLevel2UUIDs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}
