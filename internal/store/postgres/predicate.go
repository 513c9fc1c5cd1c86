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
	"fmt"
	"strings"

	"github.com/workflowhq/workflow/internal/query"
)

type columnKind int

const (
	// scalar compares a single column.
	scalar columnKind = iota
	// array matches when any array element equals a value.
	array
	// jsonArray matches when any element of a JSONB array has a matching key.
	jsonArray
)

type column struct {
	expr string
	kind columnKind
	// elem extracts the compared value from a JSONB element aliased e.
	elem string
}

// columns maps logical fields to SQL for one table (or join).
type columns map[query.Field]column

var programColumns = columns{
	query.FieldID:             {expr: "p.id"},
	query.FieldProgramID:      {expr: "p.id"},
	query.FieldName:           {expr: "p.name"},
	query.FieldProgramName:    {expr: "p.name"},
	query.FieldOrganizationID: {expr: "p.organization_id"},
	query.FieldLevel1UUID:     {expr: "p.level1_uuid"},
	query.FieldCountry:        {expr: "p.countries", kind: array},
}

var activityColumns = columns{
	query.FieldID:                 {expr: "a.id"},
	query.FieldName:               {expr: "a.name"},
	query.FieldProgramID:          {expr: "a.workflowlevel1_id"},
	query.FieldProgramName:        {expr: "p.name"},
	query.FieldOrganizationID:     {expr: "p.organization_id"},
	query.FieldCountry:            {expr: "p.countries", kind: array},
	query.FieldLevel2UUID:         {expr: "a.level2_uuid"},
	query.FieldProgress:           {expr: "a.progress"},
	query.FieldStaffResponsible:   {expr: "a.staff_responsible"},
	query.FieldApprovalStatus:     {expr: "a.approvals", kind: jsonArray, elem: "e->>'status'"},
	query.FieldApprovalAssignedTo: {expr: "a.approvals", kind: jsonArray, elem: "(e->>'assigned_to')::BIGINT"},
}

var translationColumns = columns{
	query.FieldID:       {expr: "t.id"},
	query.FieldLanguage: {expr: "t.language"},
}

// where renders spec as a boolean SQL expression with positional parameters
// starting after offset existing arguments. Unknown fields are an error.
func where(spec query.Spec, cols columns, offset int) (string, []any, error) {
	if spec.IsNone() {
		return "FALSE", nil, nil
	}
	if spec.IsAll() {
		return "TRUE", nil, nil
	}

	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", offset+len(args))
	}

	for _, c := range spec.Conditions() {
		col, ok := cols[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		if len(c.Values) == 0 {
			return "FALSE", nil, nil
		}

		switch c.Op {
		case query.OpEq:
		case query.OpContains, query.OpGt:
			if col.kind != scalar {
				return "", nil, fmt.Errorf("operator %q is not supported on %q", c.Op, c.Field)
			}
			clauses = append(clauses, compare(c, col.expr, next))
			continue
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}

		switch col.kind {
		case scalar:
			placeholders := make([]string, len(c.Values))
			for i, v := range c.Values {
				placeholders[i] = next(v)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col.expr, strings.Join(placeholders, ", ")))
		case array:
			parts := make([]string, len(c.Values))
			for i, v := range c.Values {
				parts[i] = fmt.Sprintf("%s = ANY(%s)", next(v), col.expr)
			}
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		case jsonArray:
			placeholders := make([]string, len(c.Values))
			for i, v := range c.Values {
				placeholders[i] = next(v)
			}
			clauses = append(clauses, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements(%s) e WHERE %s IN (%s))",
				col.expr, col.elem, strings.Join(placeholders, ", ")))
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// compare renders a non-equality condition on a scalar column.
func compare(c query.Condition, expr string, next func(any) string) string {
	if c.Op == query.OpGt {
		return fmt.Sprintf("%s > %s", expr, next(c.Values[0]))
	}
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = fmt.Sprintf("%s ILIKE ('%%' || %s || '%%') ESCAPE '\\'", expr, next(escapeLike(v)))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes v match literally inside an ILIKE pattern.
func escapeLike(v any) any {
	if str, ok := v.(string); ok {
		return likeEscaper.Replace(str)
	}
	return v
}

// limit renders a LIMIT clause for spec, or nothing when unbounded.
func limit(spec query.Spec) string {
	if n := spec.MaxResults(); n > 0 {
		return fmt.Sprintf(" LIMIT %d", n)
	}
	return ""
}
