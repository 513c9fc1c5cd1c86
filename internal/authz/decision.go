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

import "fmt"

// Action is a requested operation.
type Action string

const (
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionManageUsers Action = "manage_users"
)

var actionCapability = map[Action]Capability{
	ActionView:        CapView,
	ActionCreate:      CapCreate,
	ActionUpdate:      CapEdit,
	ActionDelete:      CapRemove,
	ActionManageUsers: CapManageUsers,
}

// Decision explains an authorization outcome.
type Decision struct {
	Allowed bool
	Role    Role
	Reason  string
}

// Decide evaluates action by s on target. A nil target with ActionCreate is
// the creation of a new program; any authenticated subject may do that in
// its own organization. Existence of the target must be checked by the
// caller first.
func Decide(s Subject, action Action, target *ProgramRef) Decision {
	if !s.Authenticated {
		return Decision{Reason: "anonymous"}
	}

	capability, ok := actionCapability[action]
	if !ok {
		return Decision{Reason: fmt.Sprintf("unknown action %q", action)}
	}

	if target == nil {
		if action != ActionCreate {
			return Decision{Reason: "no target"}
		}
		r, _ := ResolveOrgRole(s)
		return Decision{Allowed: true, Role: r, Reason: "program creation"}
	}

	r, ok := ResolveProgramRole(s, *target)
	if !ok {
		return Decision{Reason: "no role on program"}
	}
	caps, ok := CapabilitiesFor(r)
	if !ok || !caps.Allows(capability) {
		return Decision{Role: r, Reason: fmt.Sprintf("role %s lacks %s", r, capability)}
	}
	return Decision{Allowed: true, Role: r}
}

// Authorize is Decide reduced to an error: nil, ErrUnauthenticated or a
// wrapped ErrForbidden.
func Authorize(s Subject, action Action, target *ProgramRef) error {
	if !s.Authenticated {
		return ErrUnauthenticated
	}
	d := Decide(s, action, target)
	if !d.Allowed {
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	return nil
}
