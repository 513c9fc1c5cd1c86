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

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/workflowhq/workflow/internal/audit"
	"github.com/workflowhq/workflow/internal/observability/logger"
)

const (
	EnvBootstrapAdminUsername = "WORKFLOW_BOOTSTRAP_ADMIN_USERNAME"
	EnvBootstrapAdminPassword = "WORKFLOW_BOOTSTRAP_ADMIN_PASSWORD"
)

// BootstrapService creates the first superuser of an empty installation.
type BootstrapService struct {
	identityService *Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service, auditLogger audit.Logger) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap provisions a staff superuser from the environment when no
// superuser exists yet. It is a no-op when the username variable is unset.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	username := os.Getenv(EnvBootstrapAdminUsername)
	password := os.Getenv(EnvBootstrapAdminPassword)

	if username == "" {
		return nil
	}

	exists, err := s.identityService.repo.ExistsSuperuser(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing superuser: %w", err)
	}
	if exists {
		return nil
	}

	user, err := s.identityService.Provision(ctx, ProvisionInput{
		Username:    username,
		Password:    password,
		IsStaff:     true,
		IsSuperuser: true,
	})
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return fmt.Errorf("bootstrap user %q exists but is not a superuser: %w", username, err)
		}
		return fmt.Errorf("failed to provision bootstrap superuser: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		Resource: "bootstrap",
		Metadata: map[string]any{audit.AttrRole: "Admin"},
	})
	slog.InfoContext(ctx, "bootstrapped initial superuser", logger.Username(username), logger.UserID(user.ID))

	return nil
}
