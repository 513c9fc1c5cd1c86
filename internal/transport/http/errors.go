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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/observability/logger"
	"github.com/workflowhq/workflow/internal/paging"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// maxBodyBytes bounds request bodies; translation files are the largest.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondFieldError(w http.ResponseWriter, field, message string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{
		"error":  "validation failed",
		"field":  field,
		"detail": message,
	})
}

// respondServiceError maps domain errors onto status codes. Anything
// unrecognised is logged and reported as a bare 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *workflow.ValidationError
		filter     *query.FilterError
		report     *authz.ReportError
		page       *paging.Error
	)

	switch {
	case workflow.IsNotFound(err), errors.Is(err, i18n.ErrTranslationNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, authz.ErrUnauthenticated):
		respondError(w, http.StatusForbidden, "authentication credentials were not provided")
	case errors.Is(err, authz.ErrForbidden):
		respondError(w, http.StatusForbidden, "you do not have permission to perform this action")
	case errors.As(err, &validation):
		respondFieldError(w, validation.Field, validation.Message)
	case errors.As(err, &filter):
		respondFieldError(w, filter.Param, filter.Error())
	case errors.As(err, &page):
		respondFieldError(w, page.Param, page.Error())
	case errors.As(err, &report):
		respondFieldError(w, report.Field, report.Error())
	case errors.Is(err, i18n.ErrInvalidLanguage):
		respondFieldError(w, "language", err.Error())
	case errors.Is(err, i18n.ErrInvalidLanguageFile):
		respondFieldError(w, "language_file", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into dst. Unknown keys, including
// client-supplied identifiers, are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. Non-numeric ids cannot
// name a record, so they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}
