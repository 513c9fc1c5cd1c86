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

	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/workflow"
)

// MembershipRepository implements workflow.MembershipRepository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new team membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipSelect = `SELECT id, uuid, user_id, workflowlevel1_id, partner_org_id, role, created_at
	FROM workflow_team`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertMembership(ctx context.Context, q querier, m *workflow.TeamMembership) error {
	err := q.QueryRow(ctx, `
		INSERT INTO workflow_team (uuid, user_id, workflowlevel1_id, partner_org_id, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, m.UUID, m.UserID, m.ProgramID, m.PartnerOrgID, m.Role).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("membership references a missing user or program: %w", identity.ErrUserNotFound)
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

func scanMembership(row pgx.Row) (*workflow.TeamMembership, error) {
	var m workflow.TeamMembership
	err := row.Scan(&m.ID, &m.UUID, &m.UserID, &m.ProgramID, &m.PartnerOrgID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// Create creates a new team membership
func (r *MembershipRepository) Create(ctx context.Context, m *workflow.TeamMembership) error {
	return insertMembership(ctx, r.db.pool, m)
}

// GetByID retrieves a team membership by ID
func (r *MembershipRepository) GetByID(ctx context.Context, id int64) (*workflow.TeamMembership, error) {
	return scanMembership(r.db.pool.QueryRow(ctx, membershipSelect+` WHERE id = $1`, id))
}

// ListByUser returns a user's memberships ordered by id
func (r *MembershipRepository) ListByUser(ctx context.Context, userID int64) ([]*workflow.TeamMembership, error) {
	return r.list(ctx, membershipSelect+` WHERE user_id = $1 ORDER BY id`, userID)
}

// ListByProgram returns a program's memberships ordered by id
func (r *MembershipRepository) ListByProgram(ctx context.Context, programID int64) ([]*workflow.TeamMembership, error) {
	return r.list(ctx, membershipSelect+` WHERE workflowlevel1_id = $1 ORDER BY id`, programID)
}

func (r *MembershipRepository) list(ctx context.Context, sql string, args ...any) ([]*workflow.TeamMembership, error) {
	rows, err := r.db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*workflow.TeamMembership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// Delete removes a team membership
func (r *MembershipRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM workflow_team WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrMembershipNotFound
	}
	return nil
}
