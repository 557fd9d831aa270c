package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamhub/internal/repository"
)

// ProjectMemberServiceInterface はプロジェクト参加者管理のサービス層インターフェース。
type ProjectMemberServiceInterface interface {
	ListMembers(ctx context.Context, serverID, projectID, profileID string) ([]repository.ProjectMemberWithProfile, error)
	AddMember(ctx context.Context, serverID, projectID, profileID, memberID string) (*repository.ProjectMemberWithProfile, error)
	RemoveMember(ctx context.Context, serverID, projectID, profileID, memberID string) error
}

// ProjectMemberHandler はプロジェクト参加者関連のHTTPリクエストを処理する。
type ProjectMemberHandler struct {
	service ProjectMemberServiceInterface
}

// NewProjectMemberHandler はProjectMemberHandlerを生成する。
func NewProjectMemberHandler(service ProjectMemberServiceInterface) *ProjectMemberHandler {
	return &ProjectMemberHandler{service: service}
}

type addProjectMemberRequest struct {
	MemberID string `json:"member_id"`
}

// List はGET /api/servers/{serverId}/projects/{projectId}/membersを処理する。
func (h *ProjectMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	members, err := h.service.ListMembers(r.Context(), serverID, projectID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]projectMemberResponse, len(members))
	for i, pm := range members {
		resp[i] = toProjectMemberResponse(pm)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add はPOST /api/servers/{serverId}/projects/{projectId}/membersを処理する。
func (h *ProjectMemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	var req addProjectMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	pm, err := h.service.AddMember(r.Context(), serverID, projectID, profileID, req.MemberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectMemberResponse(*pm))
}

// Remove はDELETE /api/servers/{serverId}/projects/{projectId}/members/{memberId}を処理する。
func (h *ProjectMemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")
	memberID := chi.URLParam(r, "memberId")

	if err := h.service.RemoveMember(r.Context(), serverID, projectID, profileID, memberID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
