package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamhub/internal/milestone"
	"github.com/hitoshi/teamhub/internal/model"
)

// MilestoneServiceInterface はマイルストーン管理のサービス層インターフェース。
type MilestoneServiceInterface interface {
	List(ctx context.Context, serverID, projectID, profileID string) ([]*model.Milestone, error)
	Create(ctx context.Context, serverID, projectID, profileID string, input milestone.CreateInput) (*model.Milestone, error)
	Get(ctx context.Context, serverID, projectID, milestoneID, profileID string) (*model.Milestone, error)
	Update(ctx context.Context, serverID, projectID, milestoneID, profileID string, input milestone.UpdateInput) (*model.Milestone, error)
	Delete(ctx context.Context, serverID, projectID, milestoneID, profileID string) error
}

// MilestoneHandler はマイルストーン関連のHTTPリクエストを処理する。
type MilestoneHandler struct {
	service MilestoneServiceInterface
}

// NewMilestoneHandler はMilestoneHandlerを生成する。
func NewMilestoneHandler(service MilestoneServiceInterface) *MilestoneHandler {
	return &MilestoneHandler{service: service}
}

type createMilestoneRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	TargetDate  *time.Time `json:"target_date"`
}

type updateMilestoneRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Status      *string            `json:"status"`
	Completed   *bool              `json:"completed"`
	TargetDate  model.OptionalTime `json:"target_date"`
}

// List はGET /api/servers/{serverId}/projects/{projectId}/milestonesを処理する。
func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	milestones, err := h.service.List(r.Context(), serverID, projectID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]milestoneResponse, len(milestones))
	for i, ms := range milestones {
		resp[i] = toMilestoneResponse(ms)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はPOST /api/servers/{serverId}/projects/{projectId}/milestonesを処理する。
func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")

	var req createMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	ms, err := h.service.Create(r.Context(), serverID, projectID, profileID, milestone.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMilestoneResponse(ms))
}

// Get はGET /api/servers/{serverId}/projects/{projectId}/milestones/{milestoneId}を処理する。
func (h *MilestoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")
	milestoneID := chi.URLParam(r, "milestoneId")

	ms, err := h.service.Get(r.Context(), serverID, projectID, milestoneID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMilestoneResponse(ms))
}

// Update はPATCH /api/servers/{serverId}/projects/{projectId}/milestones/{milestoneId}を処理する。
func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")
	milestoneID := chi.URLParam(r, "milestoneId")

	var req updateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	ms, err := h.service.Update(r.Context(), serverID, projectID, milestoneID, profileID, milestone.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Completed:   req.Completed,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMilestoneResponse(ms))
}

// Delete はDELETE /api/servers/{serverId}/projects/{projectId}/milestones/{milestoneId}を処理する。
func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")
	projectID := chi.URLParam(r, "projectId")
	milestoneID := chi.URLParam(r, "milestoneId")

	if err := h.service.Delete(r.Context(), serverID, projectID, milestoneID, profileID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
