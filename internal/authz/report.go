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

package authz

import (
	"fmt"
	"sort"
)

// PermissionEntry is one program's line in the permissions report.
type PermissionEntry struct {
	ProgramID   int64  `json:"workflowlevel1_id"`
	ProgramUUID string `json:"workflowlevel1_uuid"`
	Role        string `json:"role"`
	Create      bool   `json:"create"`
	Edit        bool   `json:"edit"`
	Remove      bool   `json:"remove"`
	ManageUsers bool   `json:"manageUsers"`
	View        bool   `json:"view"`
}

// Report lists the subject's capabilities per program. RoleOrg is empty,
// and omitted from JSON, when no org-wide role resolves.
type Report struct {
	Permissions []PermissionEntry `json:"permissions"`
	RoleOrg     string            `json:"role_org,omitempty"`
}

// ReportError is a report field holding a label outside the fixed role set.
type ReportError struct {
	Field string
	Value string
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid role", e.Field, e.Value)
}

func (e *ReportError) Unwrap() error { return ErrInvalidRole }

// BuildReport computes the report for s over candidates, which callers
// gather from ReportScopes. Candidates without a resolvable or mapped role
// are dropped; the rest are ordered by program id.
func BuildReport(s Subject, candidates []ProgramRef) (Report, error) {
	if !s.Authenticated {
		return Report{}, ErrUnauthenticated
	}

	sorted := append([]ProgramRef(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	report := Report{Permissions: []PermissionEntry{}}
	seen := make(map[int64]bool, len(sorted))
	for _, p := range sorted {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		r, ok := ResolveProgramRole(s, p)
		if !ok {
			continue
		}
		caps, ok := CapabilitiesFor(r)
		if !ok {
			continue
		}
		report.Permissions = append(report.Permissions, PermissionEntry{
			ProgramID:   p.ID,
			ProgramUUID: p.UUID,
			Role:        r.String(),
			Create:      caps.Create,
			Edit:        caps.Edit,
			Remove:      caps.Remove,
			ManageUsers: caps.ManageUsers,
			View:        caps.View,
		})
	}

	if r, ok := ResolveOrgRole(s); ok {
		report.RoleOrg = r.String()
	}

	if err := report.Validate(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Validate checks every role label against the fixed set.
func (r Report) Validate() error {
	if r.RoleOrg != "" && !IsValidLabel(r.RoleOrg) {
		return &ReportError{Field: "role_org", Value: r.RoleOrg}
	}
	for i, e := range r.Permissions {
		if !IsValidLabel(e.Role) {
			return &ReportError{Field: fmt.Sprintf("permissions[%d].role", i), Value: e.Role}
		}
	}
	return nil
}
