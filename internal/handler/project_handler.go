package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/project"
)

// ProjectServiceInterface はプロジェクト管理のサービス層インターフェース。
type ProjectServiceInterface interface {
	List(ctx context.Context, serverID, profileID string) ([]project.ProjectDetail, error)
	Create(ctx context.Context, serverID, profileID string, input project.CreateInput) (*project.ProjectDetail, error)
	Get(ctx context.Context, serverID, projectID, profileID string) (*project.ProjectDetail, error)
	Update(ctx context.Context, serverID, projectID, profileID string, input project.UpdateInput) (*project.ProjectDetail, error)
	Delete(ctx context.Context, serverID, projectID, profileID string) error
}

// ProjectHandler はプロジェクト関連のHTTPリクエストを処理する。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type createProjectRequest struct {
	Name        string     `json:"name"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	LeadID      *string    `json:"lead_id"`
	StartDate   *time.Time `json:"start_date"`
	TargetDate  *time.Time `json:"target_date"`
	Milestones  []string   `json:"milestones"`
}

// updateProjectRequest は部分更新のリクエスト。
// lead_id・start_date・target_dateは「省略・null・値あり」を区別する。
type updateProjectRequest struct {
	Name        *string              `json:"name"`
	Summary     *string              `json:"summary"`
	Description *string              `json:"description"`
	Status      *string              `json:"status"`
	Priority    *string              `json:"priority"`
	LeadID      model.OptionalString `json:"lead_id"`
	StartDate   model.OptionalTime   `json:"start_date"`
	TargetDate  model.OptionalTime   `json:"target_date"`
}

// List はGET /api/servers/{serverId}/projectsを処理する。
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")

	details, err := h.service.List(r.Context(), serverID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]projectResponse, len(details))
	for i := range details {
		resp[i] = toProjectResponse(&details[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はPOST /api/servers/{serverId}/projectsを処理する。
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	detail, err := h.service.Create(r.Context(), serverID, profileID, project.CreateInput{
		Name:           req.Name,
		Summary:        req.Summary,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		LeadID:         req.LeadID,
		StartDate:      req.StartDate,
		TargetDate:     req.TargetDate,
		MilestoneNames: req.Milestones,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(detail))
}

// Get はGET /api/servers/{serverId}/projects/{projectId}を処理する。
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	detail, err := h.service.Get(r.Context(), serverID, projectID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(detail))
}

// Update はPATCH /api/servers/{serverId}/projects/{projectId}を処理する。
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	detail, err := h.service.Update(r.Context(), serverID, projectID, profileID, project.UpdateInput{
		Name:        req.Name,
		Summary:     req.Summary,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		LeadID:      req.LeadID,
		StartDate:   req.StartDate,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(detail))
}

// Delete はDELETE /api/servers/{serverId}/projects/{projectId}を処理する。
// 配下のマイルストーン・参加者レコードも同時に削除される。
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	if err := h.service.Delete(r.Context(), serverID, projectID, profileID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
