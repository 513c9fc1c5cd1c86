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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// ActivityRepository implements workflow.ActivityRepository
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activitySelect = `SELECT a.id, a.level2_uuid, a.name, a.description, a.workflowlevel1_id,
	a.progress, a.staff_responsible, a.products, a.approvals, a.created_at, a.updated_at,
	p.organization_id, p.name, p.countries
	FROM workflowlevel2 a
	JOIN workflowlevel1 p ON p.id = a.workflowlevel1_id`

func scanActivity(row pgx.Row) (*workflow.Activity, error) {
	var (
		a         workflow.Activity
		products  []byte
		approvals []byte
	)
	err := row.Scan(
		&a.ID, &a.UUID, &a.Name, &a.Description, &a.ProgramID,
		&a.Progress, &a.StaffResponsible, &products, &approvals, &a.CreatedAt, &a.UpdatedAt,
		&a.OrganizationID, &a.ProgramName, &a.ProgramCountries,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if err := json.Unmarshal(products, &a.Products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	if err := json.Unmarshal(approvals, &a.Approvals); err != nil {
		return nil, fmt.Errorf("failed to decode approvals: %w", err)
	}
	return &a, nil
}

func encodeEmbedded(a *workflow.Activity) (string, string, error) {
	products, err := json.Marshal(nonNil(a.Products))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode products: %w", err)
	}
	approvals, err := json.Marshal(nonNil(a.Approvals))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode approvals: %w", err)
	}
	return string(products), string(approvals), nil
}

// Create creates a new activity
func (r *ActivityRepository) Create(ctx context.Context, a *workflow.Activity) error {
	products, approvals, err := encodeEmbedded(a)
	if err != nil {
		return err
	}
	err = r.db.pool.QueryRow(ctx, `
		INSERT INTO workflowlevel2 (
			level2_uuid, name, description, workflowlevel1_id, progress, staff_responsible, products, approvals
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb)
		RETURNING id, created_at, updated_at
	`,
		a.UUID, a.Name, a.Description, a.ProgramID, a.Progress, a.StaffResponsible, products, approvals,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return workflow.ErrProgramNotFound
		}
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*workflow.Activity, error) {
	return scanActivity(r.db.pool.QueryRow(ctx, activitySelect+` WHERE a.id = $1`, id))
}

// List returns activities matching spec ordered by id
func (r *ActivityRepository) List(ctx context.Context, spec query.Spec) ([]*workflow.Activity, error) {
	if spec.IsNone() {
		return []*workflow.Activity{}, nil
	}
	cond, args, err := where(spec, activityColumns, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.pool.Query(ctx, activitySelect+` WHERE `+cond+` ORDER BY a.id`+limit(spec), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []*workflow.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// Update updates the mutable fields of an activity
func (r *ActivityRepository) Update(ctx context.Context, a *workflow.Activity) error {
	products, approvals, err := encodeEmbedded(a)
	if err != nil {
		return err
	}
	err = r.db.pool.QueryRow(ctx, `
		UPDATE workflowlevel2
		SET name = $2, description = $3, workflowlevel1_id = $4, progress = $5,
			staff_responsible = $6, products = $7::jsonb, approvals = $8::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`,
		a.ID, a.Name, a.Description, a.ProgramID, a.Progress, a.StaffResponsible, products, approvals,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workflow.ErrActivityNotFound
		}
		if pgErrorCode(err) == codeForeignKeyViolation {
			return workflow.ErrProgramNotFound
		}
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

// Delete removes an activity
func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM workflowlevel2 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workflow.ErrActivityNotFound
	}
	return nil
}
