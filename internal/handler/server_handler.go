package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/workspace"
)

// ServerServiceInterface はサーバー管理のサービス層インターフェース。
type ServerServiceInterface interface {
	CreateServer(ctx context.Context, profileID, name string) (*workspace.ServerDetail, error)
	ListMyServers(ctx context.Context, profileID string) ([]*model.Server, error)
	GetServer(ctx context.Context, serverID, profileID string) (*workspace.ServerDetail, error)
}

// ServerHandler はサーバー関連のHTTPリクエストを処理する。
type ServerHandler struct {
	service ServerServiceInterface
}

// NewServerHandler はServerHandlerを生成する。
func NewServerHandler(service ServerServiceInterface) *ServerHandler {
	return &ServerHandler{service: service}
}

type createServerRequest struct {
	Name string `json:"name"`
}

// List はGET /api/serversを処理する。
// 認証プロフィールが所属するサーバー一覧を返す。
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}

	servers, err := h.service.ListMyServers(r.Context(), profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]serverResponse, len(servers))
	for i, s := range servers {
		resp[i] = toServerResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はPOST /api/serversを処理する。
// サーバーを作成し、作成者をADMINメンバーとして登録する。
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}

	var req createServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	detail, err := h.service.CreateServer(r.Context(), profileID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toServerDetailResponse(detail))
}

// Get はGET /api/servers/{serverId}を処理する。
// メンバー一覧付きのサーバー詳細を返す。非メンバーには404を返す。
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileIDFromRequest(w, r)
	if !ok {
		return
	}
	serverID := chi.URLParam(r, "serverId")

	detail, err := h.service.GetServer(r.Context(), serverID, profileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toServerDetailResponse(detail))
}
