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

	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/query"
)

// TranslationRepository implements i18n.Repository
type TranslationRepository struct {
	s *Store
}

func cloneTranslation(t *i18n.Translation) *i18n.Translation {
	cp := *t
	return &cp
}

// Create stores a new translation
func (r *TranslationRepository) Create(_ context.Context, t *i18n.Translation) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	t.ID = r.s.nextID(tableTranslations)
	now := r.s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := txn.Insert(tableTranslations, cloneTranslation(t)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// GetByID retrieves a translation by ID
func (r *TranslationRepository) GetByID(_ context.Context, id int64) (*i18n.Translation, error) {
	raw, err := r.s.db.Txn(false).First(tableTranslations, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, i18n.ErrTranslationNotFound
	}
	return cloneTranslation(raw.(*i18n.Translation)), nil
}

// List returns translations matching spec ordered by id
func (r *TranslationRepository) List(_ context.Context, spec query.Spec) ([]*i18n.Translation, error) {
	list := []*i18n.Translation{}
	if spec.IsNone() {
		return list, nil
	}
	iter, err := r.s.db.Txn(false).Get(tableTranslations, PK)
	if err != nil {
		return nil, err
	}
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		t := raw.(*i18n.Translation)
		if spec.Matches(t) {
			list = append(list, cloneTranslation(t))
		}
	}
	return list, nil
}

// Update replaces a translation's language and document
func (r *TranslationRepository) Update(_ context.Context, t *i18n.Translation) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableTranslations, PK, t.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return i18n.ErrTranslationNotFound
	}
	updated := cloneTranslation(t)
	updated.CreatedAt = raw.(*i18n.Translation).CreatedAt
	updated.UpdatedAt = r.s.now()
	if err := txn.Insert(tableTranslations, updated); err != nil {
		return err
	}
	txn.Commit()
	t.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a translation
func (r *TranslationRepository) Delete(_ context.Context, id int64) error {
	txn := r.s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableTranslations, PK, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return i18n.ErrTranslationNotFound
	}
	if err := txn.Delete(tableTranslations, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
