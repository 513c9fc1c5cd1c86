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

// Capability names one operation class.
type Capability string

const (
	CapCreate      Capability = "create"
	CapEdit        Capability = "edit"
	CapRemove      Capability = "remove"
	CapManageUsers Capability = "manageUsers"
	CapView        Capability = "view"
)

// Capabilities are the flags derived from a role. There is no per-object
// override.
type Capabilities struct {
	Create      bool
	Edit        bool
	Remove      bool
	ManageUsers bool
	View        bool
}

var (
	fullCapabilities = Capabilities{Create: true, Edit: true, Remove: true, ManageUsers: true, View: true}

	capabilityMatrix = map[string]Capabilities{
		LabelAdmin:             fullCapabilities,
		LabelOrganizationAdmin: fullCapabilities,
		LabelProgramAdmin:      fullCapabilities,
		LabelProgramTeam:       {Create: true, Edit: true, View: true},
		LabelViewOnly:          {View: true},
	}
)

// CapabilitiesFor returns the capability flags for r. ok is false for roles
// without a mapping, which are left out of reports entirely.
func CapabilitiesFor(r Role) (Capabilities, bool) {
	c, ok := capabilityMatrix[r.label]
	return c, ok
}

// Allows reports whether c grants capability.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapCreate:
		return c.Create
	case CapEdit:
		return c.Edit
	case CapRemove:
		return c.Remove
	case CapManageUsers:
		return c.ManageUsers
	case CapView:
		return c.View
	default:
		return false
	}
}
