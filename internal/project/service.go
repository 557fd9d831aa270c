// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teamhub/internal/authz"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/repository"
)

// ProjectDetail はプロジェクトとその関連情報を結合したドメインオブジェクト。
// 一覧・詳細APIの応答単位となる。
type ProjectDetail struct {
	model.Project
	Lead       *repository.MemberWithProfile
	Members    []repository.ProjectMemberWithProfile
	Milestones []*model.Milestone
}

// CreateInput はプロジェクト作成の入力。
// Milestonesには初期マイルストーンの名前のみを指定する。
type CreateInput struct {
	Name           string
	Summary        string
	Description    string
	Status         string
	Priority       string
	LeadID         *string
	StartDate      *time.Time
	TargetDate     *time.Time
	MilestoneNames []string
}

// UpdateInput はプロジェクト部分更新の入力。
// nilポインタのフィールドは据え置き。LeadID・StartDate・TargetDateは
// Optional型で「省略・null・値あり」を区別する。
type UpdateInput struct {
	Name        *string
	Summary     *string
	Description *string
	Status      *string
	Priority    *string
	LeadID      model.OptionalString
	StartDate   model.OptionalTime
	TargetDate  model.OptionalTime
}

// Sanitizer は説明文のHTMLサニタイズに必要なインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// MetricsRecorder はプロジェクト操作のメトリクス記録に必要なインターフェース。
type MetricsRecorder interface {
	RecordProjectCreated()
	RecordAuthzDenied(code string)
}

// Service はプロジェクト管理のサービス層。
// すべての操作はauthz.Guardで解決済みのスコープを起点とし、
// 認可判定をauthzパッケージのポリシーに委譲する。
type Service struct {
	guard       *authz.Guard
	projectRepo repository.ProjectRepository
	memberRepo  repository.MemberRepository
	pmRepo      repository.ProjectMemberRepository
	msRepo      repository.MilestoneRepository
	sanitizer   Sanitizer
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(
	guard *authz.Guard,
	projectRepo repository.ProjectRepository,
	memberRepo repository.MemberRepository,
	pmRepo repository.ProjectMemberRepository,
	msRepo repository.MilestoneRepository,
	sanitizer Sanitizer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		guard:       guard,
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		pmRepo:      pmRepo,
		msRepo:      msRepo,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// deny は認可拒否をメトリクスに記録してエラーをそのまま返す。
func (s *Service) deny(apiErr *model.APIError) *model.APIError {
	if s.metrics != nil {
		s.metrics.RecordAuthzDenied(apiErr.Code)
	}
	return apiErr
}

// List はサーバーのプロジェクト一覧をリード・参加者・マイルストーン付きで
// 作成日時降順に返す。サーバーの全メンバーが閲覧できる。
func (s *Service) List(ctx context.Context, serverID, profileID string) ([]ProjectDetail, error) {
	if _, err := s.guard.ResolveServerScope(ctx, serverID, profileID); err != nil {
		return nil, err
	}

	projects, err := s.projectRepo.ListByServerID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}

	projectIDs := make([]string, len(projects))
	leadIDs := []string{}
	for i, p := range projects {
		projectIDs[i] = p.ID
		if p.LeadID != nil {
			leadIDs = append(leadIDs, *p.LeadID)
		}
	}

	// リード・参加者・マイルストーンをまとめて解決（N+1回避）
	leads, err := s.memberRepo.ListByIDs(ctx, leadIDs)
	if err != nil {
		return nil, fmt.Errorf("リードの取得に失敗しました: %w", err)
	}
	leadByID := make(map[string]repository.MemberWithProfile, len(leads))
	for _, l := range leads {
		leadByID[l.ID] = l
	}

	membersByProject, err := s.pmRepo.ListByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("参加者の取得に失敗しました: %w", err)
	}

	milestonesByProject, err := s.msRepo.ListByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("マイルストーンの取得に失敗しました: %w", err)
	}

	results := make([]ProjectDetail, len(projects))
	for i, p := range projects {
		detail := ProjectDetail{
			Project:    *p,
			Members:    membersByProject[p.ID],
			Milestones: milestonesByProject[p.ID],
		}
		if p.LeadID != nil {
			if lead, ok := leadByID[*p.LeadID]; ok {
				detail.Lead = &lead
			}
		}
		results[i] = detail
	}

	return results, nil
}

// Create はプロジェクトを作成する。管理者・モデレーターのみが作成できる。
// リード未指定の場合は作成者自身がリードになる。
// 初期マイルストーン・作成者の参加レコードを同一トランザクションで作成する。
func (s *Service) Create(ctx context.Context, serverID, profileID string, input CreateInput) (*ProjectDetail, error) {
	scope, err := s.guard.ResolveServerScope(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}

	if !authz.CanCreateProject(scope.Member) {
		return nil, s.deny(model.NewInsufficientRoleError())
	}

	if input.Name == "" {
		return nil, model.NewNameRequiredError("プロジェクト")
	}

	// ステータス・優先度は省略時のデフォルトを補完し、指定時は検証する
	status := model.StatusBacklog
	if input.Status != "" {
		status = model.ProjectStatus(input.Status)
		if !status.Valid() {
			return nil, model.NewInvalidStatusError(input.Status)
		}
	}
	priority := model.PriorityMedium
	if input.Priority != "" {
		priority = model.ProjectPriority(input.Priority)
		if !priority.Valid() {
			return nil, model.NewInvalidPriorityError(input.Priority)
		}
	}

	// リード未指定の場合は作成者自身をリードにする
	leadID := scope.Member.ID
	if input.LeadID != nil {
		lead, err := s.memberRepo.FindByServerAndID(ctx, serverID, *input.LeadID)
		if err != nil {
			return nil, fmt.Errorf("リード候補の取得に失敗しました: %w", err)
		}
		if lead == nil {
			return nil, model.NewMemberNotFoundError()
		}
		leadID = lead.ID
	}

	now := time.Now()
	project := &model.Project{
		ID:          uuid.NewString(),
		ServerID:    serverID,
		Name:        input.Name,
		Summary:     s.sanitizer.Sanitize(input.Summary),
		Description: s.sanitizer.Sanitize(input.Description),
		Status:      status,
		Priority:    priority,
		LeadID:      &leadID,
		StartDate:   input.StartDate,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	milestones := make([]*model.Milestone, 0, len(input.MilestoneNames))
	for _, name := range input.MilestoneNames {
		if name == "" {
			return nil, model.NewNameRequiredError("マイルストーン")
		}
		milestones = append(milestones, &model.Milestone{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Name:      name,
			Status:    model.MilestonePending,
			Completed: false,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	creator := &model.ProjectMember{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		MemberID:  scope.Member.ID,
		CreatedAt: now,
	}

	if err := s.projectRepo.CreateWithDetails(ctx, project, milestones, creator); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordProjectCreated()
	}

	return s.buildDetail(ctx, project)
}

// Get はプロジェクトの詳細をリード・参加者・マイルストーン付きで返す。
func (s *Service) Get(ctx context.Context, serverID, projectID, profileID string) (*ProjectDetail, error) {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return nil, err
	}

	return s.buildDetail(ctx, scope.Project)
}

// Update はプロジェクトを部分更新する。リードまたは管理者・モデレーターのみ。
// 省略されたフィールドは据え置き、明示的なnullはnull許容フィールドをクリアする。
func (s *Service) Update(ctx context.Context, serverID, projectID, profileID string, input UpdateInput) (*ProjectDetail, error) {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return nil, err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return nil, s.deny(model.NewInsufficientRoleError())
	}

	fields := repository.ProjectUpdateFields{
		LeadID:     input.LeadID,
		StartDate:  input.StartDate,
		TargetDate: input.TargetDate,
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, model.NewNameRequiredError("プロジェクト")
		}
		fields.Name = input.Name
	}
	if input.Summary != nil {
		sanitized := s.sanitizer.Sanitize(*input.Summary)
		fields.Summary = &sanitized
	}
	if input.Description != nil {
		sanitized := s.sanitizer.Sanitize(*input.Description)
		fields.Description = &sanitized
	}
	if input.Status != nil {
		status := model.ProjectStatus(*input.Status)
		if !status.Valid() {
			return nil, model.NewInvalidStatusError(*input.Status)
		}
		fields.Status = &status
	}
	if input.Priority != nil {
		priority := model.ProjectPriority(*input.Priority)
		if !priority.Valid() {
			return nil, model.NewInvalidPriorityError(*input.Priority)
		}
		fields.Priority = &priority
	}

	// リードを変更する場合は同一サーバーのメンバーであることを検証する
	if input.LeadID.Set && input.LeadID.Valid {
		lead, err := s.memberRepo.FindByServerAndID(ctx, serverID, input.LeadID.Value)
		if err != nil {
			return nil, fmt.Errorf("リード候補の取得に失敗しました: %w", err)
		}
		if lead == nil {
			return nil, model.NewMemberNotFoundError()
		}
	}

	updated, err := s.projectRepo.UpdateFields(ctx, projectID, fields)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	if updated == nil {
		// スコープ解決後に削除された場合
		return nil, model.NewProjectNotFoundError()
	}

	return s.buildDetail(ctx, updated)
}

// Delete はプロジェクトを削除する。リードまたは管理者・モデレーターのみ。
// マイルストーン・参加レコードはDBのCASCADEで一括削除される。
func (s *Service) Delete(ctx context.Context, serverID, projectID, profileID string) error {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return s.deny(model.NewInsufficientRoleError())
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}

	return nil
}

// ListMembers はプロジェクトの参加者一覧を返す。サーバーの全メンバーが閲覧できる。
func (s *Service) ListMembers(ctx context.Context, serverID, projectID, profileID string) ([]repository.ProjectMemberWithProfile, error) {
	if _, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID); err != nil {
		return nil, err
	}

	members, err := s.pmRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("参加者一覧の取得に失敗しました: %w", err)
	}

	return members, nil
}

// AddMember はサーバーメンバーをプロジェクトに参加させる。
// リードまたは管理者・モデレーターのみ。対象がサーバーメンバーでない場合は
// MEMBER_NOT_FOUND、既に参加済みの場合はALREADY_IN_PROJECTを返す。
func (s *Service) AddMember(ctx context.Context, serverID, projectID, profileID, memberID string) (*repository.ProjectMemberWithProfile, error) {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return nil, err
	}

	if !authz.CanManageProject(scope.Member, scope.Project) {
		return nil, s.deny(model.NewInsufficientRoleError())
	}

	candidate, err := s.memberRepo.FindByServerAndID(ctx, serverID, memberID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if candidate == nil {
		return nil, model.NewMemberNotFoundError()
	}

	// 事前チェック。INSERT時の一意制約違反もALREADY_IN_PROJECTに変換されるため
	// チェックとINSERTの間の競合は書き込み側で吸収される。
	existing, err := s.pmRepo.FindByProjectAndMember(ctx, projectID, memberID)
	if err != nil {
		return nil, fmt.Errorf("参加状態の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyInProjectError()
	}

	pm := &model.ProjectMember{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		MemberID:  memberID,
		CreatedAt: time.Now(),
	}
	if err := s.pmRepo.Create(ctx, pm); err != nil {
		return nil, err
	}

	// プロフィール情報付きで返す
	members, err := s.pmRepo.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("参加者の再取得に失敗しました: %w", err)
	}
	for i := range members {
		if members[i].ID == pm.ID {
			return &members[i], nil
		}
	}

	return nil, fmt.Errorf("作成した参加レコードが見つかりません: %s", pm.ID)
}

// RemoveMember はプロジェクトから参加者を除外する。
// 自己除外・リード・管理者・モデレーターに許可されるが、
// リード自身の除外は管理者・モデレーターのみが行える。
func (s *Service) RemoveMember(ctx context.Context, serverID, projectID, profileID, memberID string) error {
	scope, err := s.guard.ResolveProjectScope(ctx, serverID, projectID, profileID)
	if err != nil {
		return err
	}

	if denied := authz.CanRemoveProjectMember(scope.Member, scope.Project, memberID); denied != nil {
		return s.deny(denied)
	}

	existing, err := s.pmRepo.FindByProjectAndMember(ctx, projectID, memberID)
	if err != nil {
		return fmt.Errorf("参加状態の確認に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewNotInProjectError()
	}

	if err := s.pmRepo.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("参加者の除外に失敗しました: %w", err)
	}

	return nil
}

// buildDetail はプロジェクトのリード・参加者・マイルストーンを解決して
// ProjectDetailを構築する。
func (s *Service) buildDetail(ctx context.Context, project *model.Project) (*ProjectDetail, error) {
	detail := &ProjectDetail{Project: *project}

	if project.LeadID != nil {
		leads, err := s.memberRepo.ListByIDs(ctx, []string{*project.LeadID})
		if err != nil {
			return nil, fmt.Errorf("リードの取得に失敗しました: %w", err)
		}
		if len(leads) > 0 {
			detail.Lead = &leads[0]
		}
	}

	members, err := s.pmRepo.ListByProjectID(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("参加者の取得に失敗しました: %w", err)
	}
	detail.Members = members

	milestones, err := s.msRepo.ListByProjectID(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("マイルストーンの取得に失敗しました: %w", err)
	}
	detail.Milestones = milestones

	return detail, nil
}
