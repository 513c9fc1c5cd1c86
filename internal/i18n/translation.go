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

// Package i18n stores translation documents keyed by language tag.
package i18n

import (
	"context"
	"errors"
	"time"

	"github.com/workflowhq/workflow/internal/query"
)

// Domain errors
var (
	ErrTranslationNotFound = errors.New("translation not found")
	ErrInvalidLanguage     = errors.New("invalid language tag")
	ErrInvalidLanguageFile = errors.New("language_file must be a JSON object")
)

// Translation is one language's string table. LanguageFile holds the JSON
// object text as submitted.
type Translation struct {
	ID           int64     `json:"id"`
	Language     string    `json:"language"`
	LanguageFile string    `json:"language_file"`
	CreatedAt    time.Time `json:"create_date"`
	UpdatedAt    time.Time `json:"edit_date"`
}

// FieldValues implements query.Record.
func (t *Translation) FieldValues(f query.Field) ([]any, bool) {
	switch f {
	case query.FieldID:
		return []any{t.ID}, true
	case query.FieldLanguage:
		return []any{t.Language}, true
	}
	return nil, false
}

// Repository defines the interface for translation persistence. List results
// are ordered by ascending id.
type Repository interface {
	Create(ctx context.Context, t *Translation) error
	GetByID(ctx context.Context, id int64) (*Translation, error)
	List(ctx context.Context, spec query.Spec) ([]*Translation, error)
	Update(ctx context.Context, t *Translation) error
	Delete(ctx context.Context, id int64) error
}
