package authz

import (
	"context"
	"fmt"

	"github.com/hitoshi/teamhub/internal/model"
)

// ServerFinder はガードが必要とするサーバー検索インターフェース。
// repository.ServerRepositoryの部分集合として定義する。
type ServerFinder interface {
	FindByIDForProfile(ctx context.Context, serverID, profileID string) (*model.Server, error)
}

// MemberFinder はガードが必要とするメンバー検索インターフェース。
type MemberFinder interface {
	FindByServerAndProfile(ctx context.Context, serverID, profileID string) (*model.Member, error)
}

// ProjectFinder はガードが必要とするプロジェクト検索インターフェース。
type ProjectFinder interface {
	FindByServerAndID(ctx context.Context, serverID, projectID string) (*model.Project, error)
}

// ServerScope はサーバー単位のリクエストスコープ。
// 呼び出し元の所属確認が済んだサーバーとメンバーを保持する。
type ServerScope struct {
	Server *model.Server
	Member *model.Member
}

// ProjectScope はプロジェクト単位のリクエストスコープ。
type ProjectScope struct {
	ServerScope
	Project *model.Project
}

// Guard は全ハンドラーで繰り返される
// 「所属解決 → リソース解決」の定型処理をまとめた認可ガード。
// 存在確認と可視性確認を意図的に混同し、非メンバーには
// リソースの存在を漏らさない（どちらもnot foundとして扱う）。
type Guard struct {
	servers  ServerFinder
	members  MemberFinder
	projects ProjectFinder
}

// NewGuard はGuardを生成する。
func NewGuard(servers ServerFinder, members MemberFinder, projects ProjectFinder) *Guard {
	return &Guard{
		servers:  servers,
		members:  members,
		projects: projects,
	}
}

// ResolveServerScope は呼び出し元が所属するサーバーとメンバーレコードを解決する。
// サーバー不在・非所属のどちらもSERVER_NOT_FOUNDを返す。
func (g *Guard) ResolveServerScope(ctx context.Context, serverID, profileID string) (*ServerScope, error) {
	server, err := g.servers.FindByIDForProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, fmt.Errorf("サーバーの取得に失敗しました: %w", err)
	}
	if server == nil {
		return nil, model.NewServerNotFoundError()
	}

	member, err := g.members.FindByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if member == nil {
		return nil, model.NewServerNotFoundError()
	}

	return &ServerScope{Server: server, Member: member}, nil
}

// ResolveProjectScope はサーバースコープに加えてプロジェクトを解決する。
// プロジェクトがパスのサーバーに属していない場合はPROJECT_NOT_FOUNDを返す。
func (g *Guard) ResolveProjectScope(ctx context.Context, serverID, projectID, profileID string) (*ProjectScope, error) {
	serverScope, err := g.ResolveServerScope(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}

	project, err := g.projects.FindByServerAndID(ctx, serverID, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError()
	}

	return &ProjectScope{ServerScope: *serverScope, Project: project}, nil
}
