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

	"github.com/workflowhq/workflow/internal/authz"
	"github.com/workflowhq/workflow/internal/paging"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// ProgramRequest is the writable part of a program. level1_uuid, id and
// organization are server-controlled and ignored when sent.
type ProgramRequest struct {
	Name        *string  `json:"name" example:"Clean Water"`
	Description *string  `json:"description" example:"Wells in three districts"`
	Countries   []string `json:"countries" example:"Kenya"`
}

func (req ProgramRequest) input() workflow.ProgramInput {
	return workflow.ProgramInput{
		Name:        req.Name,
		Description: req.Description,
		Countries:   req.Countries,
	}
}

// ListPrograms lists the programs visible to the caller
// @Summary List Programs
// @Description Programs visible to the caller, narrowed by optional filters
// @Tags WorkflowLevel1
// @Produce json
// @Security BasicAuth
// @Param name query string false "Exact name"
// @Param name__icontains query string false "Name substring, case-insensitive"
// @Param id query int false "Program ID"
// @Param level1_uuid query string false "Program UUID"
// @Param country query string false "Country name"
// @Param paginate query bool false "Return {results, next} pages"
// @Param cursor query string false "Cursor from a previous page's next link"
// @Param page_size query int false "Records per page"
// @Success 200 {array} workflow.Program
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /workflowlevel1 [get]
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	filters, err := query.ProgramFilters(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	page, err := paging.Parse(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	programs, err := h.workflowService.ListPrograms(r.Context(), CurrentUser(r.Context()), page.Apply(filters))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if programs == nil {
		programs = []*workflow.Program{}
	}
	if page.Enabled {
		respondJSON(w, http.StatusOK, paging.NewPage(programs, page, r.URL, func(p *workflow.Program) int64 { return p.ID }))
		return
	}
	respondJSON(w, http.StatusOK, programs)
}

// CreateProgram creates a program owned by the caller's organization
// @Summary Create Program
// @Description The creator becomes its Program Admin
// @Tags WorkflowLevel1
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body ProgramRequest true "Program"
// @Success 201 {object} workflow.Program
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /workflowlevel1 [post]
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req ProgramRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.workflowService.CreateProgram(r.Context(), CurrentUser(r.Context()), req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// GetProgram returns one visible program
// @Summary Get Program
// @Tags WorkflowLevel1
// @Produce json
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Success 200 {object} workflow.Program
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id} [get]
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.workflowService.GetProgram(r.Context(), CurrentUser(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// ReplaceProgram updates a program; name is required
// @Summary Update Program
// @Tags WorkflowLevel1
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Param request body ProgramRequest true "Program"
// @Success 200 {object} workflow.Program
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id} [put]
func (h *Handler) ReplaceProgram(w http.ResponseWriter, r *http.Request) {
	h.updateProgram(w, r, true)
}

// PatchProgram updates only the fields sent
// @Summary Patch Program
// @Tags WorkflowLevel1
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Param request body ProgramRequest true "Fields to change"
// @Success 200 {object} workflow.Program
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id} [patch]
func (h *Handler) PatchProgram(w http.ResponseWriter, r *http.Request) {
	h.updateProgram(w, r, false)
}

func (h *Handler) updateProgram(w http.ResponseWriter, r *http.Request, replace bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ProgramRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if replace && req.Name == nil {
		respondFieldError(w, "name", "this field is required")
		return
	}

	p, err := h.workflowService.UpdateProgram(r.Context(), CurrentUser(r.Context()), id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeleteProgram deletes a program with its activities and memberships
// @Summary Delete Program
// @Tags WorkflowLevel1
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id} [delete]
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.workflowService.DeleteProgram(r.Context(), CurrentUser(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProgramPermissions reports the caller's capabilities per program
// @Summary Program Permissions
// @Description Role and capabilities for every program the caller has a role on
// @Tags WorkflowLevel1
// @Produce json
// @Security BasicAuth
// @Success 200 {object} authz.Report
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /workflowlevel1/permissions [get]
func (h *Handler) ProgramPermissions(w http.ResponseWriter, r *http.Request) {
	report, err := h.workflowService.Permissions(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if report.Permissions == nil {
		report.Permissions = []authz.PermissionEntry{}
	}
	respondJSON(w, http.StatusOK, report)
}
