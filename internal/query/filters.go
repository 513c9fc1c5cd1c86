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

package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// FilterError reports a malformed filter parameter.
type FilterError struct {
	Param string
	Value string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid value %q for filter %s", e.Value, e.Param)
}

type kind int

const (
	kindString kind = iota
	kindInt
	// kindContains is a case-insensitive substring match.
	kindContains
)

type param struct {
	field Field
	kind  kind
}

// Filter parameter names accepted on program listings.
var programParams = map[string]param{
	"name":            {FieldName, kindString},
	"name__icontains": {FieldName, kindContains},
	"id":              {FieldID, kindInt},
	"level1_uuid":     {FieldLevel1UUID, kindString},
	"country":         {FieldCountry, kindString},
}

// Filter parameter names accepted on activity listings.
var activityParams = map[string]param{
	"name":                             {FieldName, kindString},
	"name__icontains":                  {FieldName, kindContains},
	"id":                               {FieldID, kindInt},
	"workflowlevel1__name":             {FieldProgramName, kindString},
	"workflowlevel1__name__icontains":  {FieldProgramName, kindContains},
	"workflowlevel1__id":               {FieldProgramID, kindInt},
	"workflowlevel1__country__country": {FieldCountry, kindString},
	"level2_uuid":                      {FieldLevel2UUID, kindString},
	"progress":                         {FieldProgress, kindString},
	"staff_responsible":                {FieldStaffResponsible, kindInt},
	"approval__status":                 {FieldApprovalStatus, kindString},
	"approval__assigned_to":            {FieldApprovalAssignedTo, kindInt},
}

var translationParams = map[string]param{
	"language": {FieldLanguage, kindString},
}

// ProgramFilters parses program listing filters. Unknown keys are ignored.
func ProgramFilters(q url.Values) (Spec, error) { return parse(q, programParams) }

// ActivityFilters parses activity listing filters. Unknown keys are ignored.
func ActivityFilters(q url.Values) (Spec, error) { return parse(q, activityParams) }

// TranslationFilters parses internationalization listing filters.
func TranslationFilters(q url.Values) (Spec, error) { return parse(q, translationParams) }

func parse(q url.Values, params map[string]param) (Spec, error) {
	spec := All()
	// Iterate the known keys, not the query, so the result is deterministic.
	for _, name := range sortedKeys(params) {
		raw, ok := q[name]
		if !ok || len(raw) == 0 {
			continue
		}
		p := params[name]
		if p.kind == kindContains {
			spec = spec.And(Contains(p.field, raw...))
			continue
		}
		values := make([]any, 0, len(raw))
		for _, v := range raw {
			if v == "" {
				continue
			}
			switch p.kind {
			case kindInt:
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return Spec{}, &FilterError{Param: name, Value: v}
				}
				values = append(values, n)
			default:
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		spec = spec.And(Where(p.field, values...))
	}
	return spec, nil
}

func sortedKeys(m map[string]param) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
