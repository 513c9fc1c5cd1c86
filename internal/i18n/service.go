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

package i18n

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/query"
)

const (
	resourceTranslation = "internationalization"
	maxLanguageLength   = 16
)

// Input carries writable translation fields. Nil fields are left unchanged
// on update.
type Input struct {
	Language     *string
	LanguageFile *string
}

// Service provides translation operations. Reads are open to every caller;
// writes are restricted to superusers.
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new translation service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// List returns translations matching filters.
func (s *Service) List(ctx context.Context, filters query.Spec) ([]*Translation, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one translation.
func (s *Service) Get(ctx context.Context, id int64) (*Translation, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new translation.
func (s *Service) Create(ctx context.Context, user *identity.User, in Input) (*Translation, error) {
	if err := s.requireSuperuser(ctx, user, authz.ActionCreate); err != nil {
		return nil, err
	}
	if in.Language == nil || in.LanguageFile == nil {
		return nil, fmt.Errorf("%w: language and language_file are required", ErrInvalidLanguage)
	}

	t := &Translation{}
	if err := apply(t, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create translation: %w", err)
	}

	s.audit(ctx, audit.TypeTranslationCreated, user, t)
	return t, nil
}

// Update modifies a translation. A missing id is reported before the
// permission check.
func (s *Service) Update(ctx context.Context, user *identity.User, id int64, in Input) (*Translation, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireSuperuser(ctx, user, authz.ActionUpdate); err != nil {
		return nil, err
	}
	if err := apply(t, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update translation: %w", err)
	}

	s.audit(ctx, audit.TypeTranslationUpdated, user, t)
	return t, nil
}

// Delete removes a translation. A missing id is reported before the
// permission check.
func (s *Service) Delete(ctx context.Context, user *identity.User, id int64) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireSuperuser(ctx, user, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}

	s.audit(ctx, audit.TypeTranslationDeleted, user, t)
	return nil
}

func (s *Service) requireSuperuser(ctx context.Context, user *identity.User, action authz.Action) error {
	if user == nil {
		return authz.ErrUnauthenticated
	}
	subj := authz.NewSubject(user.ID, user.IsStaff, user.IsSuperuser, user.OrgID(), nil, nil)
	if subj.Superuser() {
		return nil
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeAccessDenied,
		OrganizationID: user.OrgID(),
		ActorID:        user.ID,
		Resource:       resourceTranslation,
		Metadata:       map[string]any{audit.AttrAction: string(action), audit.AttrReason: "superuser required"},
	})
	return fmt.Errorf("%w: translations are managed by superusers", authz.ErrForbidden)
}

func (s *Service) audit(ctx context.Context, eventType string, user *identity.User, t *Translation) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     eventType,
		ActorID:  user.ID,
		Resource: resourceTranslation,
		Metadata: map[string]any{audit.AttrLanguage: t.Language},
	})
}

func apply(t *Translation, in Input) error {
	if in.Language != nil {
		lang, err := validateLanguage(*in.Language)
		if err != nil {
			return err
		}
		t.Language = lang
	}
	if in.LanguageFile != nil {
		if err := validateLanguageFile(*in.LanguageFile); err != nil {
			return err
		}
		t.LanguageFile = *in.LanguageFile
	}
	return nil
}

// validateLanguage accepts tags like "en" or "pt-BR".
func validateLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" || len(lang) > maxLanguageLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	for _, r := range lang {
		if !(r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
		}
	}
	return lang, nil
}

func validateLanguageFile(doc string) error {
	if !gjson.Valid(doc) || !gjson.Parse(doc).IsObject() {
		return ErrInvalidLanguageFile
	}
	return nil
}
