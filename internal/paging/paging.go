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


// Package paging implements forward keyset pagination over id-ordered
// listings. A page is fetched with one extra row to detect whether another
// page follows.
package paging

import (
	"encoding/base64"
	"net/url"
	"strconv"

	"github.com/workflowhq/workflow/internal/query"
)

const (
	// PageSize is the default number of records per page.
	PageSize = 50
	// MaxPageSize caps the page_size parameter.
	MaxPageSize = 200
)

// Request is a parsed pagination request. The zero value disables paging.
type Request struct {
	Enabled bool
	// After is the id of the last record on the previous page.
	After int64
	Size  int
}

// Error reports a malformed pagination parameter.
type Error struct {
	Param string
	Value string
}

func (e *Error) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for " + e.Param
}

// Parse reads paginate, cursor and page_size. Paging is on only when
// paginate=true; the other parameters are ignored otherwise.
func Parse(q url.Values) (Request, error) {
	enabled, _ := strconv.ParseBool(q.Get("paginate"))
	if !enabled {
		return Request{}, nil
	}
	req := Request{Enabled: true, Size: PageSize}

	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Request{}, &Error{Param: "page_size", Value: raw}
		}
		req.Size = min(n, MaxPageSize)
	}
	if raw := q.Get("cursor"); raw != "" {
		after, err := DecodeCursor(raw)
		if err != nil {
			return Request{}, &Error{Param: "cursor", Value: raw}
		}
		req.After = after
	}
	return req, nil
}

// LimitPlusOne returns the fetch size that detects a following page.
func (r Request) LimitPlusOne() int { return r.Size + 1 }

// Apply narrows spec to the requested page. It is a no-op when paging is
// disabled.
func (r Request) Apply(spec query.Spec) query.Spec {
	if !r.Enabled {
		return spec
	}
	if r.After > 0 {
		spec = spec.And(query.After(query.FieldID, r.After))
	}
	return spec.Limit(r.LimitPlusOne())
}

// TrimPage drops the look-ahead row from rows and reports whether another
// page follows.
func TrimPage[T any](rows *[]T, size int) (hasNext bool) {
	if len(*rows) > size {
		*rows = (*rows)[:size]
		return true
	}
	return false
}

// Page is one page of results. Next is the URL of the following page, or
// nil on the last page.
type Page[T any] struct {
	Results []T     `json:"results"`
	Next    *string `json:"next"`
}

// NewPage trims rows fetched with LimitPlusOne and links the next page.
// id returns the keyset value of a row; next rewrites the current URL with
// the cursor of the last row kept.
func NewPage[T any](rows []T, r Request, current *url.URL, id func(T) int64) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	page := Page[T]{Results: rows}
	if !TrimPage(&page.Results, r.Size) {
		return page
	}
	next := NextURL(current, EncodeCursor(id(page.Results[len(page.Results)-1])))
	page.Next = &next
	return page
}

// NextURL returns current with its cursor parameter replaced.
func NextURL(current *url.URL, cursor string) string {
	u := *current
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

// EncodeCursor renders an opaque cursor for the record after which the next
// page starts.
func EncodeCursor(after int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(after, 10)))
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	after, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if after < 0 {
		return 0, strconv.ErrRange
	}
	return after, nil
}
