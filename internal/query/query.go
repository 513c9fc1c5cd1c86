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

// Package query holds the storage-neutral predicates used to scope listings.
//
// A Spec is a conjunction of conditions over logical fields. Stores translate
// fields to their own columns (SQL) or evaluate them against records
// (in-memory); neither sees request parameters directly.
package query

import (
	"fmt"
	"strings"
)

// Field names a logical, filterable attribute.
type Field string

const (
	FieldID                 Field = "id"
	FieldName               Field = "name"
	FieldOrganizationID     Field = "organization_id"
	FieldProgramID          Field = "workflowlevel1_id"
	FieldProgramName        Field = "workflowlevel1_name"
	FieldCountry            Field = "country"
	FieldLevel1UUID         Field = "level1_uuid"
	FieldLevel2UUID         Field = "level2_uuid"
	FieldProgress           Field = "progress"
	FieldStaffResponsible   Field = "staff_responsible"
	FieldApprovalStatus     Field = "approval_status"
	FieldApprovalAssignedTo Field = "approval_assigned_to"
	FieldLanguage           Field = "language"
)

// Op is a comparison operator.
type Op string

const (
	// OpEq matches when any record value equals any condition value.
	OpEq Op = "eq"
	// OpContains matches strings containing any condition value, ignoring case.
	OpContains Op = "contains"
	// OpGt matches integers greater than the single condition value.
	OpGt Op = "gt"
)

// Condition constrains one field.
type Condition struct {
	Field  Field
	Op     Op
	Values []any
}

// Spec is an AND of conditions. The zero value matches everything.
type Spec struct {
	conditions []Condition
	none       bool
	limit      int
}

// All matches every record.
func All() Spec { return Spec{} }

// None matches no record.
func None() Spec { return Spec{none: true} }

// Where builds a single-condition spec. With no values it matches nothing.
func Where(field Field, values ...any) Spec {
	if len(values) == 0 {
		return None()
	}
	return Spec{conditions: []Condition{{Field: field, Op: OpEq, Values: normalize(values)}}}
}

// Contains builds a case-insensitive substring condition. Empty values are
// dropped; with none left it matches everything.
func Contains(field Field, values ...string) Spec {
	vals := make([]any, 0, len(values))
	for _, v := range values {
		if v != "" {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return All()
	}
	return Spec{conditions: []Condition{{Field: field, Op: OpContains, Values: vals}}}
}

// After matches records whose integer field is greater than v.
func After(field Field, v int64) Spec {
	return Spec{conditions: []Condition{{Field: field, Op: OpGt, Values: []any{v}}}}
}

// Limit caps the number of records a store returns for s. Results are
// ordered by id, so the cap keeps the lowest ids. n <= 0 removes the cap.
func (s Spec) Limit(n int) Spec {
	if n < 0 {
		n = 0
	}
	s.conditions = append([]Condition(nil), s.conditions...)
	s.limit = n
	return s
}

// MaxResults returns the cap set by Limit, or 0 when unbounded.
func (s Spec) MaxResults() int { return s.limit }

// And narrows s by other. The tighter limit of the two applies.
func (s Spec) And(other Spec) Spec {
	if s.none || other.none {
		return None()
	}
	out := Spec{
		conditions: make([]Condition, 0, len(s.conditions)+len(other.conditions)),
		limit:      minLimit(s.limit, other.limit),
	}
	out.conditions = append(out.conditions, s.conditions...)
	out.conditions = append(out.conditions, other.conditions...)
	return out
}

func minLimit(a, b int) int {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return min(a, b)
	}
}

// IsNone reports whether s can never match.
func (s Spec) IsNone() bool { return s.none }

// IsAll reports whether s is unconstrained.
func (s Spec) IsAll() bool { return !s.none && len(s.conditions) == 0 }

// Conditions returns the conditions in the order they were combined.
func (s Spec) Conditions() []Condition {
	return append([]Condition(nil), s.conditions...)
}

func (s Spec) String() string {
	if s.none {
		return "none"
	}
	if len(s.conditions) == 0 {
		return "all"
	}
	parts := make([]string, len(s.conditions))
	for i, c := range s.conditions {
		parts[i] = fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Values)
	}
	out := strings.Join(parts, " AND ")
	if s.limit > 0 {
		out += fmt.Sprintf(" LIMIT %d", s.limit)
	}
	return out
}

// Record exposes a stored object's field values to in-memory evaluation.
// Multi-valued fields (countries, approvals) return every value; ok is false
// when the record has no such field.
type Record interface {
	FieldValues(f Field) (values []any, ok bool)
}

// Matches evaluates s against r.
func (s Spec) Matches(r Record) bool {
	if s.none {
		return false
	}
	for _, c := range s.conditions {
		if !c.matches(r) {
			return false
		}
	}
	return true
}

func (c Condition) matches(r Record) bool {
	have, ok := r.FieldValues(c.Field)
	if !ok {
		return false
	}
	for _, h := range normalize(have) {
		for _, want := range c.Values {
			if c.Op.compare(h, want) {
				return true
			}
		}
	}
	return false
}

func (op Op) compare(have, want any) bool {
	switch op {
	case OpContains:
		h, ok1 := have.(string)
		w, ok2 := want.(string)
		return ok1 && ok2 && strings.Contains(strings.ToLower(h), strings.ToLower(w))
	case OpGt:
		h, ok1 := have.(int64)
		w, ok2 := want.(int64)
		return ok1 && ok2 && h > w
	default:
		return have == want
	}
}

// normalize widens integers to int64 so values compare by value.
func normalize(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int:
			out = append(out, int64(n))
		case int32:
			out = append(out, int64(n))
		case *int64:
			if n != nil {
				out = append(out, *n)
			}
		default:
			out = append(out, v)
		}
	}
	return out
}
