// Package workspace はサーバー（ワークスペース）管理のドメインロジックを提供する。
//
// サーバーはメンバーシップとロールの境界であり、プロジェクト管理の
// すべての操作の前提となる。
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teamhub/internal/authz"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/repository"
)

// ServerDetail はサーバーとメンバー一覧を結合したドメインオブジェクト。
type ServerDetail struct {
	model.Server
	Members []repository.MemberWithProfile
}

// MetricsRecorder はサーバー操作のメトリクス記録に必要なインターフェース。
type MetricsRecorder interface {
	RecordServerCreated()
}

// Service はサーバー管理のサービス層。
type Service struct {
	guard      *authz.Guard
	serverRepo repository.ServerRepository
	memberRepo repository.MemberRepository
	metrics    MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnil可。
func NewService(guard *authz.Guard, serverRepo repository.ServerRepository, memberRepo repository.MemberRepository, metrics MetricsRecorder) *Service {
	return &Service{
		guard:      guard,
		serverRepo: serverRepo,
		memberRepo: memberRepo,
		metrics:    metrics,
	}
}

// CreateServer はサーバーを作成し、作成者をADMINメンバーとして登録する。
// 両者は同一トランザクションで作成される。
func (s *Service) CreateServer(ctx context.Context, profileID, name string) (*ServerDetail, error) {
	if name == "" {
		return nil, model.NewNameRequiredError("サーバー")
	}

	now := time.Now()
	server := &model.Server{
		ID:             uuid.NewString(),
		Name:           name,
		OwnerProfileID: profileID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	admin := &model.Member{
		ID:        uuid.NewString(),
		ServerID:  server.ID,
		ProfileID: profileID,
		Role:      model.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.serverRepo.CreateWithAdminMember(ctx, server, admin); err != nil {
		return nil, fmt.Errorf("サーバーの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordServerCreated()
	}

	members, err := s.memberRepo.ListByServerID(ctx, server.ID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}

	return &ServerDetail{Server: *server, Members: members}, nil
}

// ListMyServers はプロフィールが所属するサーバー一覧を返す。
func (s *Service) ListMyServers(ctx context.Context, profileID string) ([]*model.Server, error) {
	servers, err := s.serverRepo.ListByProfileID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("サーバー一覧の取得に失敗しました: %w", err)
	}
	return servers, nil
}

// GetServer はサーバーの詳細をメンバー一覧付きで返す。所属メンバーのみ。
func (s *Service) GetServer(ctx context.Context, serverID, profileID string) (*ServerDetail, error) {
	scope, err := s.guard.ResolveServerScope(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByServerID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}

	return &ServerDetail{Server: *scope.Server, Members: members}, nil
}
