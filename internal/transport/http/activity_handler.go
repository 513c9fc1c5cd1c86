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

	"github.com/workflowhq/workflow/internal/paging"
	"github.com/workflowhq/workflow/internal/query"
	"github.com/workflowhq/workflow/internal/workflow"
)

// ActivityRequest is the writable part of an activity. level2_uuid is
// generated by the server and ignored when sent.
type ActivityRequest struct {
	Name             *string             `json:"name" example:"Baseline survey"`
	Description      *string             `json:"description"`
	ProgramID        *int64              `json:"workflowlevel1" example:"1"`
	Progress         *string             `json:"progress" example:"open"`
	StaffResponsible *int64              `json:"staff_responsible"`
	Products         []workflow.Product  `json:"products"`
	Approvals        []workflow.Approval `json:"approval"`
}

func (req ActivityRequest) input() workflow.ActivityInput {
	return workflow.ActivityInput{
		Name:             req.Name,
		Description:      req.Description,
		ProgramID:        req.ProgramID,
		Progress:         req.Progress,
		StaffResponsible: req.StaffResponsible,
		Products:         req.Products,
		Approvals:        req.Approvals,
	}
}

// ActivityResponse renders an activity with its contact, or {} when it
// has none.
type ActivityResponse struct {
	*workflow.Activity
	Contact any `json:"contact"`
}

func newActivityResponse(a *workflow.Activity) ActivityResponse {
	resp := ActivityResponse{Activity: a, Contact: struct{}{}}
	if a.Contact != nil {
		resp.Contact = a.Contact
	}
	if a.Products == nil {
		a.Products = []workflow.Product{}
	}
	if a.Approvals == nil {
		a.Approvals = []workflow.Approval{}
	}
	return resp
}

// ListActivities lists the activities visible to the caller
// @Summary List Activities
// @Tags WorkflowLevel2
// @Produce json
// @Security BasicAuth
// @Param name__icontains query string false "Name substring, case-insensitive"
// @Param workflowlevel1__name query string false "Program name"
// @Param workflowlevel1__name__icontains query string false "Program name substring, case-insensitive"
// @Param workflowlevel1__id query int false "Program ID"
// @Param workflowlevel1__country__country query string false "Program country"
// @Param level2_uuid query string false "Activity UUID"
// @Param progress query string false "Progress"
// @Param staff_responsible query int false "Responsible user ID"
// @Param approval__status query string false "Approval status"
// @Param approval__assigned_to query int false "Approver user ID"
// @Param paginate query bool false "Return {results, next} pages"
// @Param cursor query string false "Cursor from a previous page's next link"
// @Param page_size query int false "Records per page"
// @Success 200 {array} ActivityResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /workflowlevel2 [get]
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	filters, err := query.ActivityFilters(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	page, err := paging.Parse(r.URL.Query())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	activities, err := h.workflowService.ListActivities(r.Context(), CurrentUser(r.Context()), page.Apply(filters))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = newActivityResponse(a)
	}
	if page.Enabled {
		respondJSON(w, http.StatusOK, paging.NewPage(out, page, r.URL, func(a ActivityResponse) int64 { return a.ID }))
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateActivity creates an activity under a program
// @Summary Create Activity
// @Tags WorkflowLevel2
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param request body ActivityRequest true "Activity"
// @Success 201 {object} ActivityResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /workflowlevel2 [post]
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.workflowService.CreateActivity(r.Context(), CurrentUser(r.Context()), req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newActivityResponse(a))
}

// GetActivity returns one visible activity
// @Summary Get Activity
// @Tags WorkflowLevel2
// @Produce json
// @Security BasicAuth
// @Param id path int true "Activity ID"
// @Success 200 {object} ActivityResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel2/{id} [get]
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.workflowService.GetActivity(r.Context(), CurrentUser(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newActivityResponse(a))
}

// ReplaceActivity updates an activity; name and workflowlevel1 are required
// @Summary Update Activity
// @Tags WorkflowLevel2
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Activity ID"
// @Param request body ActivityRequest true "Activity"
// @Success 200 {object} ActivityResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel2/{id} [put]
func (h *Handler) ReplaceActivity(w http.ResponseWriter, r *http.Request) {
	h.updateActivity(w, r, true)
}

// PatchActivity updates only the fields sent
// @Summary Patch Activity
// @Tags WorkflowLevel2
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Activity ID"
// @Param request body ActivityRequest true "Fields to change"
// @Success 200 {object} ActivityResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel2/{id} [patch]
func (h *Handler) PatchActivity(w http.ResponseWriter, r *http.Request) {
	h.updateActivity(w, r, false)
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, replace bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if replace {
		switch {
		case req.Name == nil:
			respondFieldError(w, "name", "this field is required")
			return
		case req.ProgramID == nil:
			respondFieldError(w, "workflowlevel1", "this field is required")
			return
		}
	}

	a, err := h.workflowService.UpdateActivity(r.Context(), CurrentUser(r.Context()), id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newActivityResponse(a))
}

// DeleteActivity deletes an activity
// @Summary Delete Activity
// @Tags WorkflowLevel2
// @Security BasicAuth
// @Param id path int true "Activity ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel2/{id} [delete]
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.workflowService.DeleteActivity(r.Context(), CurrentUser(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
