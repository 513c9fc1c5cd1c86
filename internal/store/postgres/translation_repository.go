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

	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/query"
)

// TranslationRepository implements i18n.Repository
type TranslationRepository struct {
	db *DB
}

// NewTranslationRepository creates a new translation repository
func NewTranslationRepository(db *DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

const translationSelect = `SELECT t.id, t.language, t.language_file, t.created_at, t.updated_at
	FROM internationalization t`

func scanTranslation(row pgx.Row) (*i18n.Translation, error) {
	var t i18n.Translation
	err := row.Scan(&t.ID, &t.Language, &t.LanguageFile, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, i18n.ErrTranslationNotFound
		}
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}
	return &t, nil
}

// Create creates a new translation
func (r *TranslationRepository) Create(ctx context.Context, t *i18n.Translation) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO internationalization (language, language_file)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, t.Language, t.LanguageFile).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert translation: %w", err)
	}
	return nil
}

// GetByID retrieves a translation by ID
func (r *TranslationRepository) GetByID(ctx context.Context, id int64) (*i18n.Translation, error) {
	return scanTranslation(r.db.pool.QueryRow(ctx, translationSelect+` WHERE t.id = $1`, id))
}

// List returns translations matching spec ordered by id
func (r *TranslationRepository) List(ctx context.Context, spec query.Spec) ([]*i18n.Translation, error) {
	if spec.IsNone() {
		return []*i18n.Translation{}, nil
	}
	cond, args, err := where(spec, translationColumns, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.pool.Query(ctx, translationSelect+` WHERE `+cond+` ORDER BY t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	list := []*i18n.Translation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update updates a translation
func (r *TranslationRepository) Update(ctx context.Context, t *i18n.Translation) error {
	err := r.db.pool.QueryRow(ctx, `
		UPDATE internationalization SET language = $2, language_file = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.Language, t.LanguageFile).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return i18n.ErrTranslationNotFound
		}
		return fmt.Errorf("failed to update translation: %w", err)
	}
	return nil
}

// Delete removes a translation
func (r *TranslationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM internationalization WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return i18n.ErrTranslationNotFound
	}
	return nil
}
