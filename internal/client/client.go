// Package client はAPIサーバーを呼び出すクライアントと、
// サーバー状態をミラーするクライアント側ストアを提供する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Project はAPIレスポンスのプロジェクトレコード。
type Project struct {
	ID          string     `json:"id"`
	ServerID    string     `json:"server_id"`
	Name        string     `json:"name"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	LeadID      *string    `json:"lead_id"`
	StartDate   *time.Time `json:"start_date"`
	TargetDate  *time.Time `json:"target_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateProjectRequest はプロジェクト作成のリクエストボディ。
type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	LeadID      *string    `json:"lead_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Milestones  []string   `json:"milestones,omitempty"`
}

// APIError はAPIサーバーが返す統一エラーフォーマット。
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	Action     string `json:"action"`
}

// Error はerrorインターフェースを満たす。
func (e *APIError) Error() string {
	return fmt.Sprintf("APIエラー [%d %s]: %s", e.StatusCode, e.Code, e.Message)
}

// APIClient はAPIサーバーのHTTPクライアント。
// cookiejarでセッションCookieを保持し、認証済みリクエストを発行する。
type APIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewAPIClient はAPIClientの新しいインスタンスを生成する。
func NewAPIClient(baseURL string, logger *slog.Logger) (*APIClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	return &APIClient{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
		logger:  logger,
		baseURL: baseURL,
	}, nil
}

// ListProjects はサーバーのプロジェクト一覧を取得する。
func (c *APIClient) ListProjects(ctx context.Context, serverID string) ([]Project, error) {
	var projects []Project
	path := fmt.Sprintf("/api/servers/%s/projects", serverID)
	if err := c.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject はプロジェクトを作成する。
func (c *APIClient) CreateProject(ctx context.Context, serverID string, req CreateProjectRequest) (*Project, error) {
	var project Project
	path := fmt.Sprintf("/api/servers/%s/projects", serverID)
	if err := c.do(ctx, http.MethodPost, path, req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject はプロジェクトを部分更新する。
// fieldsには更新対象のフィールドのみを含める（nullはフィールドのクリア）。
func (c *APIClient) UpdateProject(ctx context.Context, serverID, projectID string, fields map[string]any) (*Project, error) {
	var project Project
	path := fmt.Sprintf("/api/servers/%s/projects/%s", serverID, projectID)
	if err := c.do(ctx, http.MethodPatch, path, fields, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject はプロジェクトを削除する。
func (c *APIClient) DeleteProject(ctx context.Context, serverID, projectID string) error {
	path := fmt.Sprintf("/api/servers/%s/projects/%s", serverID, projectID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do はHTTPリクエストを発行し、成功時はレスポンスボディをoutにデコードする。
// エラーステータスの場合は統一エラーフォーマットをAPIErrorとして返す。
func (c *APIClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIリクエストに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			return fmt.Errorf("APIがステータス %d を返しました", resp.StatusCode)
		}
		c.logger.Warn("APIがエラーを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}
