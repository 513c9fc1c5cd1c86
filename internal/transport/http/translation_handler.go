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
	"net/http"

	"github.com/workflowhq/workflow/internal/i18n"
	"github.com/workflowhq/workflow/internal/query"
)

// TranslationRequest carries a language tag and its JSON document.
type TranslationRequest struct {
	Language     *string `json:"language" example:"pt-BR"`
	LanguageFile *string `json:"language_file" example:"{\"name\":\"Nome\"}"`
}

func (req TranslationRequest) input() i18n.Input {
	return i18n.Input{Language: req.Language, LanguageFile: req.LanguageFile}
}

// ListTranslations lists translations
// @Summary List Translations
// @Tags Internationalization
// @Produce json
// @Param language query string false "Language tag"
// @Success 200 {array} i18n.Translation
// @Failure 400 {object} map[string]string
// @Router /internationalization [get]
func (h *Handler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	filters, err := query.TranslationFilters(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	list, err := h.translationService.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*i18n.Translation{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GetTranslation returns one translation
// @Summary Get Translation
// @Tags Internationalization
// @Produce json
// @Param id path int true "Translation ID"
// @Success 200 {object} i18n.Translation
// @Failure 404 {object} map[string]string
// @Router /internationalization/{id} [get]
func (h *Handler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.translationService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// CreateTranslation adds a translation
// @Summary Create Translation
// @Tags Internationalization
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body TranslationRequest true "Translation"
// @Success 201 {object} i18n.Translation
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /internationalization [post]
func (h *Handler) CreateTranslation(w http.ResponseWriter, r *http.Request) {
	var req TranslationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.translationService.Create(r.Context(), CurrentUser(r.Context()), req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// UpdateTranslation changes a translation
// @Summary Update Translation
// @Tags Internationalization
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Translation ID"
// @Param request body TranslationRequest true "Fields to change"
// @Success 200 {object} i18n.Translation
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /internationalization/{id} [put]
func (h *Handler) UpdateTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req TranslationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.translationService.Update(r.Context(), CurrentUser(r.Context()), id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// DeleteTranslation removes a translation
// @Summary Delete Translation
// @Tags Internationalization
// @Security BasicAuth
// @Param id path int true "Translation ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /internationalization/{id} [delete]
func (h *Handler) DeleteTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.translationService.Delete(r.Context(), CurrentUser(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
