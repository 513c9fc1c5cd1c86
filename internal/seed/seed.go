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

// Package seed loads organizations, users, programs and related records
// from a YAML fixture file.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/id"
	"github.com/workflowhq/workflow/internal/identity"
	"github.com/workflowhq/workflow/internal/observability/logger"
	"github.com/workflowhq/workflow/internal/workflow"
)

// Fixtures is the document read by the seed command. Records refer to
// each other by name (organizations, programs, activities) or username.
type Fixtures struct {
	Organizations []Organization `yaml:"organizations"`
	Users         []User         `yaml:"users"`
	Programs      []Program      `yaml:"programs"`
	Activities    []Activity     `yaml:"activities"`
	Memberships   []Membership   `yaml:"memberships"`
	Contacts      []Contact      `yaml:"contacts"`
	Translations  []Translation  `yaml:"translations"`
}

// Organization fixture
type Organization struct {
	Name string `yaml:"name"`
}

// User fixture
type User struct {
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	FirstName    string   `yaml:"first_name"`
	LastName     string   `yaml:"last_name"`
	Email        string   `yaml:"email"`
	Organization string   `yaml:"organization"`
	Staff        bool     `yaml:"is_staff"`
	Superuser    bool     `yaml:"is_superuser"`
	Groups       []string `yaml:"groups"`
}

// Program fixture. Admin becomes the program's first Program Admin.
type Program struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Organization string   `yaml:"organization"`
	Countries    []string `yaml:"countries"`
	Admin        string   `yaml:"admin"`
}

// Activity fixture
type Activity struct {
	Name             string              `yaml:"name"`
	Program          string              `yaml:"program"`
	Progress         string              `yaml:"progress"`
	StaffResponsible string              `yaml:"staff_responsible"`
	Products         []workflow.Product  `yaml:"products"`
	Approvals        []workflow.Approval `yaml:"approval"`
}

// Membership fixture
type Membership struct {
	User    string `yaml:"user"`
	Program string `yaml:"program"`
	Role    string `yaml:"role"`
}

// Contact fixture, linked to activities by name.
type Contact struct {
	FirstName    string   `yaml:"first_name"`
	LastName     string   `yaml:"last_name"`
	Title        string   `yaml:"title"`
	Company      string   `yaml:"company"`
	ContactType  string   `yaml:"contact_type"`
	Organization string   `yaml:"organization"`
	Activities   []string `yaml:"activities"`
}

// Translation fixture. File holds the JSON document inline.
type Translation struct {
	Language string `yaml:"language"`
	File     string `yaml:"language_file"`
}

// LoadFile reads and validates a fixture file.
func LoadFile(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates fixtures.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every dangling reference, duplicate and unknown role at
// once.
func (f *Fixtures) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	orgs := make(map[string]bool)
	for i, o := range f.Organizations {
		if o.Name == "" {
			fail("organizations[%d]: name is required", i)
		} else if orgs[o.Name] {
			fail("organizations[%d]: duplicate name %q", i, o.Name)
		}
		orgs[o.Name] = true
	}

	users := make(map[string]bool)
	for i, u := range f.Users {
		if u.Username == "" {
			fail("users[%d]: username is required", i)
		} else if users[u.Username] {
			fail("users[%d]: duplicate username %q", i, u.Username)
		}
		users[u.Username] = true
		if u.Organization != "" && !orgs[u.Organization] {
			fail("users[%d]: unknown organization %q", i, u.Organization)
		}
		for _, g := range u.Groups {
			if _, ok := authz.ParseRole(g); !ok {
				fail("users[%d]: unknown role group %q", i, g)
			}
		}
	}

	programs := make(map[string]bool)
	for i, p := range f.Programs {
		if p.Name == "" {
			fail("programs[%d]: name is required", i)
		} else if programs[p.Name] {
			fail("programs[%d]: duplicate name %q", i, p.Name)
		}
		programs[p.Name] = true
		if !orgs[p.Organization] {
			fail("programs[%d]: unknown organization %q", i, p.Organization)
		}
		if !users[p.Admin] {
			fail("programs[%d]: unknown admin %q", i, p.Admin)
		}
	}

	activities := make(map[string]bool)
	for i, a := range f.Activities {
		if a.Name == "" {
			fail("activities[%d]: name is required", i)
		} else if activities[a.Name] {
			fail("activities[%d]: duplicate name %q", i, a.Name)
		}
		activities[a.Name] = true
		if !programs[a.Program] {
			fail("activities[%d]: unknown program %q", i, a.Program)
		}
		switch a.Progress {
		case "", workflow.ProgressOpen, workflow.ProgressTracking, workflow.ProgressClosed, workflow.ProgressAwaitingApproval:
		default:
			fail("activities[%d]: invalid progress %q", i, a.Progress)
		}
		if a.StaffResponsible != "" && !users[a.StaffResponsible] {
			fail("activities[%d]: unknown staff_responsible %q", i, a.StaffResponsible)
		}
	}

	for i, m := range f.Memberships {
		if !users[m.User] {
			fail("memberships[%d]: unknown user %q", i, m.User)
		}
		if !programs[m.Program] {
			fail("memberships[%d]: unknown program %q", i, m.Program)
		}
		if _, ok := authz.ParseRole(m.Role); !ok {
			fail("memberships[%d]: unknown role %q", i, m.Role)
		}
	}

	for i, c := range f.Contacts {
		if c.Organization != "" && !orgs[c.Organization] {
			fail("contacts[%d]: unknown organization %q", i, c.Organization)
		}
		for _, a := range c.Activities {
			if !activities[a] {
				fail("contacts[%d]: unknown activity %q", i, a)
			}
		}
	}

	for i, t := range f.Translations {
		if t.Language == "" || t.File == "" {
			fail("translations[%d]: language and language_file are required", i)
		}
	}

	return result.ErrorOrNil()
}

// Loader writes fixtures straight to the stores. Authorization does not
// apply: seeding is an operator action.
type Loader struct {
	stores       workflow.Stores
	translations i18n.Repository
	identity     *identity.Service
}

// NewLoader creates a loader over the given stores.
func NewLoader(stores workflow.Stores, translations i18n.Repository, identityService *identity.Service) *Loader {
	return &Loader{stores: stores, translations: translations, identity: identityService}
}

// Summary counts the records a load created.
type Summary struct {
	Organizations, Users, Programs, Activities, Memberships, Contacts, Translations int
}

// Apply creates every record in f in dependency order. It stops at the
// first failure; records created before it remain.
func (l *Loader) Apply(ctx context.Context, f *Fixtures) (Summary, error) {
	var sum Summary

	orgIDs := make(map[string]int64)
	for _, o := range f.Organizations {
		org := &workflow.Organization{UUID: id.NewUUID(), Name: o.Name}
		if err := l.stores.Organizations.Create(ctx, org); err != nil {
			return sum, fmt.Errorf("organization %q: %w", o.Name, err)
		}
		orgIDs[o.Name] = org.ID
		sum.Organizations++
	}

	userIDs := make(map[string]int64)
	for _, u := range f.Users {
		in := identity.ProvisionInput{
			Username:    u.Username,
			Password:    u.Password,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Email:       u.Email,
			IsStaff:     u.Staff,
			IsSuperuser: u.Superuser,
			Groups:      u.Groups,
		}
		if u.Organization != "" {
			orgID := orgIDs[u.Organization]
			in.OrganizationID = &orgID
		}
		user, err := l.identity.Provision(ctx, in)
		if err != nil {
			return sum, fmt.Errorf("user %q: %w", u.Username, err)
		}
		userIDs[u.Username] = user.ID
		sum.Users++
	}

	programIDs := make(map[string]int64)
	for _, p := range f.Programs {
		adminID := userIDs[p.Admin]
		program := &workflow.Program{
			UUID:           id.NewUUID(),
			Name:           p.Name,
			Description:    p.Description,
			OrganizationID: orgIDs[p.Organization],
			Countries:      p.Countries,
			UserAccess:     []int64{adminID},
		}
		admin := &workflow.TeamMembership{UUID: id.NewUUID(), UserID: adminID, Role: authz.LabelProgramAdmin}
		if err := l.stores.Programs.CreateWithAdmin(ctx, program, admin); err != nil {
			return sum, fmt.Errorf("program %q: %w", p.Name, err)
		}
		programIDs[p.Name] = program.ID
		sum.Programs++
		sum.Memberships++
	}

	activityUUIDs := make(map[string]string)
	for _, a := range f.Activities {
		activity := &workflow.Activity{
			UUID:      id.NewUUID(),
			Name:      a.Name,
			ProgramID: programIDs[a.Program],
			Progress:  a.Progress,
			Products:  a.Products,
			Approvals: a.Approvals,
		}
		if activity.Progress == "" {
			activity.Progress = workflow.ProgressOpen
		}
		if a.StaffResponsible != "" {
			staff := userIDs[a.StaffResponsible]
			activity.StaffResponsible = &staff
		}
		if err := l.stores.Activities.Create(ctx, activity); err != nil {
			return sum, fmt.Errorf("activity %q: %w", a.Name, err)
		}
		activityUUIDs[a.Name] = activity.UUID
		sum.Activities++
	}

	for _, m := range f.Memberships {
		programID := programIDs[m.Program]
		membership := &workflow.TeamMembership{
			UUID:      id.NewUUID(),
			UserID:    userIDs[m.User],
			ProgramID: &programID,
			Role:      m.Role,
		}
		if err := l.stores.Memberships.Create(ctx, membership); err != nil {
			return sum, fmt.Errorf("membership %s on %q: %w", m.User, m.Program, err)
		}
		sum.Memberships++
	}

	for _, c := range f.Contacts {
		contact := &workflow.Contact{
			UUID:           id.NewUUID(),
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			Title:          c.Title,
			Company:        c.Company,
			ContactType:    c.ContactType,
			OrganizationID: orgIDs[c.Organization],
		}
		for _, a := range c.Activities {
			contact.WorkflowLevel2UUIDs = append(contact.WorkflowLevel2UUIDs, activityUUIDs[a])
		}
		if err := l.stores.Contacts.Create(ctx, contact); err != nil {
			return sum, fmt.Errorf("contact %s %s: %w", c.FirstName, c.LastName, err)
		}
		sum.Contacts++
	}

	for _, t := range f.Translations {
		now := time.Now().UTC()
		tr := &i18n.Translation{Language: t.Language, LanguageFile: t.File, CreatedAt: now, UpdatedAt: now}
		if err := l.translations.Create(ctx, tr); err != nil {
			return sum, fmt.Errorf("translation %q: %w", t.Language, err)
		}
		sum.Translations++
	}

	slog.InfoContext(ctx, "fixtures loaded",
		logger.Component("seed"),
		slog.Int("organizations", sum.Organizations),
		slog.Int("users", sum.Users),
		slog.Int("programs", sum.Programs),
		slog.Int("activities", sum.Activities),
		slog.Int("memberships", sum.Memberships),
	)
	return sum, nil
}
