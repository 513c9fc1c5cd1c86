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

	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// ProgramRepository implements workflow.ProgramRepository
type ProgramRepository struct {
	db *DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programSelect = `SELECT p.id, p.level1_uuid, p.name, p.description, p.organization_id,
	p.countries, p.user_access, p.created_at, p.updated_at
	FROM workflowlevel1 p`

func scanProgram(row pgx.Row) (*workflow.Program, error) {
	var p workflow.Program
	err := row.Scan(
		&p.ID, &p.UUID, &p.Name, &p.Description, &p.OrganizationID,
		&p.Countries, &p.UserAccess, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CreateWithAdmin inserts the program and its first Program Admin membership
// in one transaction
func (r *ProgramRepository) CreateWithAdmin(ctx context.Context, program *workflow.Program, admin *workflow.TeamMembership) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO workflowlevel1 (level1_uuid, name, description, organization_id, countries, user_access)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`,
			program.UUID, program.Name, program.Description, program.OrganizationID,
			nonNil(program.Countries), nonNil(program.UserAccess),
		).Scan(&program.ID, &program.CreatedAt, &program.UpdatedAt)
		if err != nil {
			if pgErrorCode(err) == codeForeignKeyViolation {
				return workflow.ErrOrganizationNotFound
			}
			return fmt.Errorf("failed to insert program: %w", err)
		}

		if admin == nil {
			return nil
		}
		pid := program.ID
		admin.ProgramID = &pid
		return insertMembership(ctx, tx, admin)
	})
}

// GetByID retrieves a program by ID
func (r *ProgramRepository) GetByID(ctx context.Context, id int64) (*workflow.Program, error) {
	return scanProgram(r.db.pool.QueryRow(ctx, programSelect+` WHERE p.id = $1`, id))
}

// List returns programs matching spec ordered by id
func (r *ProgramRepository) List(ctx context.Context, spec query.Spec) ([]*workflow.Program, error) {
	if spec.IsNone() {
		return []*workflow.Program{}, nil
	}
	cond, args, err := where(spec, programColumns, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.pool.Query(ctx, programSelect+` WHERE `+cond+` ORDER BY p.id`+limit(spec), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	programs := []*workflow.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// Update updates the mutable fields of a program
func (r *ProgramRepository) Update(ctx context.Context, program *workflow.Program) error {
	err := r.db.pool.QueryRow(ctx, `
		UPDATE workflowlevel1
		SET name = $2, description = $3, countries = $4, user_access = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`,
		program.ID, program.Name, program.Description,
		nonNil(program.Countries), nonNil(program.UserAccess),
	).Scan(&program.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.ErrProgramNotFound
		}
		return fmt.Errorf("failed to update program: %w", err)
	}
	return nil
}

// Delete removes a program; activities and memberships cascade
func (r *ProgramRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM workflowlevel1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrProgramNotFound
	}
	return nil
}
