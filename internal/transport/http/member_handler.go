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

	"github.com/workflowhq/workflow/internal/workflow"
)

// MemberRequest grants a user a role on a program.
type MemberRequest struct {
	UserID int64  `json:"workflow_user" example:"7"`
	Role   string `json:"role" example:"Program Team"`
}

// ListMembers lists a program's team
// @Summary List Program Members
// @Tags WorkflowTeam
// @Produce json
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Success 200 {array} workflow.TeamMembership
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	programID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	members, err := h.workflowService.ListMembers(r.Context(), CurrentUser(r.Context()), programID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []*workflow.TeamMembership{}
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMember grants a role on a program
// @Summary Add Program Member
// @Tags WorkflowTeam
// @Accept json
// @Produce json
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Param request body MemberRequest true "Membership"
// @Success 201 {object} workflow.TeamMembership
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	programID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.workflowService.AddMember(r.Context(), CurrentUser(r.Context()), programID, workflow.MemberInput{
		UserID: req.UserID,
		Role:   req.Role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// RemoveMember revokes a membership
// @Summary Remove Program Member
// @Tags WorkflowTeam
// @Security BasicAuth
// @Param id path int true "Program ID"
// @Param membershipID path int true "Membership ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /workflowlevel1/{id}/members/{membershipID} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	programID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	membershipID, ok := pathID(w, r, "membershipID")
	if !ok {
		return
	}

	if err := h.workflowService.RemoveMember(r.Context(), CurrentUser(r.Context()), programID, membershipID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
