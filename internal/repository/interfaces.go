// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/teamhub/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// CreateWithIdentity はプロフィールとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, profile *model.Profile, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByProfileID は指定プロフィールの全セッションを削除する。
	DeleteByProfileID(ctx context.Context, profileID string) error
}

// ServerRepository はサーバー（ワークスペース）データの永続化インターフェース。
type ServerRepository interface {
	// CreateWithAdminMember はサーバーと作成者のADMINメンバーを
	// 同一トランザクションで作成する。
	CreateWithAdminMember(ctx context.Context, server *model.Server, admin *model.Member) error

	// FindByIDForProfile は指定プロフィールがメンバーとして所属するサーバーを取得する。
	// サーバーが存在しない場合と所属していない場合を区別せず、どちらもnilを返す。
	FindByIDForProfile(ctx context.Context, serverID, profileID string) (*model.Server, error)

	// ListByProfileID は指定プロフィールが所属するサーバー一覧を返す。
	ListByProfileID(ctx context.Context, profileID string) ([]*model.Server, error)
}

// MemberWithProfile はメンバーとプロフィール表示情報を結合した構造体。
type MemberWithProfile struct {
	model.Member
	ProfileName     string
	ProfileEmail    string
	ProfileImageURL string
}

// MemberRepository はサーバーメンバーデータの永続化インターフェース。
type MemberRepository interface {
	// FindByServerAndProfile はサーバーIDとプロフィールIDでメンバーを検索する。
	// 見つからない場合はnilを返す。
	FindByServerAndProfile(ctx context.Context, serverID, profileID string) (*model.Member, error)

	// FindByServerAndID はサーバーIDとメンバーIDでメンバーを検索する。
	// 見つからない場合はnilを返す。
	FindByServerAndID(ctx context.Context, serverID, memberID string) (*model.Member, error)

	// ListByServerID はサーバーの全メンバーをプロフィール情報付きで返す。
	ListByServerID(ctx context.Context, serverID string) ([]MemberWithProfile, error)

	// ListByIDs は指定ID群のメンバーをプロフィール情報付きで返す。
	// プロジェクトリードの一括解決に使用する。
	ListByIDs(ctx context.Context, ids []string) ([]MemberWithProfile, error)
}

// ProjectUpdateFields はプロジェクトの部分更新フィールドを表す。
// nilポインタのフィールドは更新対象外（据え置き）となる。
// LeadID・StartDate・TargetDateはOptional型で「省略・null・値あり」を区別する。
type ProjectUpdateFields struct {
	Name        *string
	Summary     *string
	Description *string
	Status      *model.ProjectStatus
	Priority    *model.ProjectPriority
	LeadID      model.OptionalString
	StartDate   model.OptionalTime
	TargetDate  model.OptionalTime
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// ListByServerID はサーバーのプロジェクト一覧を作成日時降順で返す。
	ListByServerID(ctx context.Context, serverID string) ([]*model.Project, error)

	// FindByServerAndID はサーバーIDとプロジェクトIDでプロジェクトを検索する。
	// サーバーが異なる場合も含め、見つからない場合はnilを返す。
	FindByServerAndID(ctx context.Context, serverID, projectID string) (*model.Project, error)

	// CreateWithDetails はプロジェクト・初期マイルストーン・作成者の参加レコードを
	// 同一トランザクションで作成する。
	CreateWithDetails(ctx context.Context, project *model.Project, milestones []*model.Milestone, creator *model.ProjectMember) error

	// UpdateFields はプロジェクトを部分更新し、更新後のレコードを返す。
	// 対象が存在しない場合はnilを返す。
	UpdateFields(ctx context.Context, projectID string, fields ProjectUpdateFields) (*model.Project, error)

	// Delete は指定IDのプロジェクトを削除する。
	// マイルストーン・プロジェクト参加者はCASCADE削除される。
	Delete(ctx context.Context, projectID string) error
}

// MilestoneUpdateFields はマイルストーンの部分更新フィールドを表す。
// nilポインタのフィールドは更新対象外となる。
// TargetDateは「省略なら据え置き、nullならクリア」を区別する。
type MilestoneUpdateFields struct {
	Name        *string
	Description *string
	Status      *model.MilestoneStatus
	Completed   *bool
	TargetDate  model.OptionalTime
}

// MilestoneRepository はマイルストーンデータの永続化インターフェース。
type MilestoneRepository interface {
	// ListByProjectID はプロジェクトのマイルストーン一覧を目標日昇順で返す。
	// 目標日未設定のものは末尾に置く。
	ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error)

	// ListByProjectIDs は複数プロジェクトのマイルストーンを一括取得し、
	// プロジェクトIDをキーにしたマップで返す。一覧の展開表示に使用する。
	ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]*model.Milestone, error)

	// FindByProjectAndID はプロジェクトIDとマイルストーンIDでマイルストーンを検索する。
	// 見つからない場合はnilを返す。
	FindByProjectAndID(ctx context.Context, projectID, milestoneID string) (*model.Milestone, error)

	// Create はマイルストーンを作成する。
	Create(ctx context.Context, milestone *model.Milestone) error

	// UpdateFields はマイルストーンを部分更新し、更新後のレコードを返す。
	// 対象が存在しない場合はnilを返す。
	UpdateFields(ctx context.Context, milestoneID string, fields MilestoneUpdateFields) (*model.Milestone, error)

	// Delete は指定IDのマイルストーンを削除する。
	Delete(ctx context.Context, milestoneID string) error
}

// ProjectMemberWithProfile はプロジェクト参加レコードとメンバー・プロフィール
// 表示情報を結合した構造体。
type ProjectMemberWithProfile struct {
	model.ProjectMember
	Member MemberWithProfile
}

// ProjectMemberRepository はプロジェクト参加データの永続化インターフェース。
type ProjectMemberRepository interface {
	// ListByProjectID はプロジェクトの参加者一覧をメンバー・プロフィール情報付きで返す。
	ListByProjectID(ctx context.Context, projectID string) ([]ProjectMemberWithProfile, error)

	// ListByProjectIDs は複数プロジェクトの参加者を一括取得し、
	// プロジェクトIDをキーにしたマップで返す。
	ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]ProjectMemberWithProfile, error)

	// FindByProjectAndMember はプロジェクトIDとメンバーIDで参加レコードを検索する。
	// 見つからない場合はnilを返す。
	FindByProjectAndMember(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error)

	// Create は参加レコードを作成する。
	// (project_id, member_id)の一意制約違反の場合はAPIError(ALREADY_IN_PROJECT)を返す。
	Create(ctx context.Context, pm *model.ProjectMember) error

	// Delete は指定IDの参加レコードを削除する。
	Delete(ctx context.Context, id string) error
}
