// Package milestone はマイルストーン管理のドメインロジックを提供する。
package milestone

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teamhub/internal/authz"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/repository"
)

// CreateInput はマイルストーン作成の入力。
type CreateInput struct {
	Name        string
	Description string
	Status      string
	TargetDate  *time.Time
}

// UpdateInput はマイルストーン部分更新の入力。
// nilポインタのフィールドは据え置き。TargetDateは「省略・null・値あり」を区別する。
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	Completed   *bool
	TargetDate  model.OptionalTime
}

// Sanitizer は説明文のHTMLサニタイズに必要なインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// MetricsRecorder はマイルストーン操作のメトリクス記録に必要なインターフェース。
type MetricsRecorder interface {
	RecordMilestoneCreated()
	RecordAuthzDenied(code string)
}

// Service はマイルストーン管理のサービス層。
// すべての操作はサーバー・プロジェクトのパススコープを解決してから行う。
type Service struct {
	guard     *authz.Guard
	msRepo    repository.MilestoneRepository
	sanitizer Sanitizer
	metrics   MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(guard *authz.Guard, msRepo repository.MilestoneRepository, sanitizer Sanitizer, metrics MetricsRecorder) *Service {
	return &Service{
		guard:     guard,
		msRepo:    msRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// deny は認可拒否をメトリクスに記録してエラーをそのまま返す。
func (s *Service) deny(apiErr *model.APIError) *model.APIError {
	if s.metrics != nil {
		s.metrics.RecordAuthzDenied(apiErr.Code)
	}
	return apiErr
}

// List はプロジェクトのマイルストーン一覧を目標日昇順で返す。
// サーバーの全メンバーが閲覧できる。
func (s *Service) List(ctx context.Context, serverID, projectID, profileID string) ([]*model.Milestone, error) {
	if _, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID); err != nil {
		return nil, err
	}

	milestones, err := s.msRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("マイルストーン一覧の取得に失敗しました: %w", err)
	}

	return milestones, nil
}

// Create はマイルストーンを作成する。リードまたは管理者・モデレーターのみ。
func (s *Service) Create(ctx context.Context, serverID, projectID, profileID string, input CreateInput) (*model.Milestone, error) {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return nil, err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return nil, s.deny(model.NewInsufficientRoleError())
	}

	if input.Name == "" {
		return nil, model.NewNameRequiredError("マイルストーン")
	}

	status := model.MilestonePending
	if input.Status != "" {
		status = model.MilestoneStatus(input.Status)
		if !status.Valid() {
			return nil, model.NewInvalidStatusError(input.Status)
		}
	}

	now := time.Now()
	milestone := &model.Milestone{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        input.Name,
		Description: s.sanitizer.Sanitize(input.Description),
		Status:      status,
		Completed:   status == model.MilestoneCompleted,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.msRepo.Create(ctx, milestone); err != nil {
		return nil, fmt.Errorf("マイルストーンの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordMilestoneCreated()
	}

	return milestone, nil
}

// Get はマイルストーンの詳細を返す。
func (s *Service) Get(ctx context.Context, serverID, projectID, milestoneID, profileID string) (*model.Milestone, error) {
	if _, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID); err != nil {
		return nil, err
	}

	milestone, err := s.msRepo.FindByProjectAndID(ctx, projectID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("マイルストーンの取得に失敗しました: %w", err)
	}
	if milestone == nil {
		return nil, model.NewMilestoneNotFoundError()
	}

	return milestone, nil
}

// Update はマイルストーンを部分更新する。リードまたは管理者・モデレーターのみ。
// TargetDateに明示的なnullが指定された場合は目標日をクリアする。
func (s *Service) Update(ctx context.Context, serverID, projectID, milestoneID, profileID string, input UpdateInput) (*model.Milestone, error) {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return nil, err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return nil, s.deny(model.NewInsufficientRoleError())
	}

	existing, err := s.msRepo.FindByProjectAndID(ctx, projectID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("マイルストーンの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewMilestoneNotFoundError()
	}

	fields := repository.MilestoneUpdateFields{
		Completed:  input.Completed,
		TargetDate: input.TargetDate,
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, model.NewNameRequiredError("マイルストーン")
		}
		fields.Name = input.Name
	}
	if input.Description != nil {
		sanitized := s.sanitizer.Sanitize(*input.Description)
		fields.Description = &sanitized
	}
	if input.Status != nil {
		status := model.MilestoneStatus(*input.Status)
		if !status.Valid() {
			return nil, model.NewInvalidStatusError(*input.Status)
		}
		fields.Status = &status
	}

	updated, err := s.msRepo.UpdateFields(ctx, milestoneID, fields)
	if err != nil {
		return nil, fmt.Errorf("マイルストーンの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewMilestoneNotFoundError()
	}

	return updated, nil
}

// Delete はマイルストーンを削除する。リードまたは管理者・モデレーターのみ。
func (s *Service) Delete(ctx context.Context, serverID, projectID, milestoneID, profileID string) error {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return s.deny(model.NewInsufficientRoleError())
	}

	existing, err := s.msRepo.FindByProjectAndID(ctx, projectID, milestoneID)
	if err != nil {
		return fmt.Errorf("マイルストーンの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewMilestoneNotFoundError()
	}

	if err := s.msRepo.Delete(ctx, milestoneID); err != nil {
		return fmt.Errorf("マイルストーンの削除に失敗しました: %w", err)
	}

	return nil
}
