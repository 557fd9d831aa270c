// Package authz はプロジェクト管理操作の認可ポリシーを提供する。
//
// ポリシーは副作用のない純粋な判定関数として定義し、
// 各サービスはリソース解決後にここへ判定を委譲する。
package authz

import (
	"github.com/hitoshi/teamhub/internal/model"
)

// IsElevated はロールが管理者・モデレーターのいずれかであるかを返す。
func IsElevated(role model.MemberRole) bool {
	switch role {
	case model.RoleAdmin, model.RoleModerator:
		return true
	case model.RoleGuest:
		return false
	}
	return false
}

// IsProjectLead はメンバーがプロジェクトのリードであるかを返す。
func IsProjectLead(member *model.Member, project *model.Project) bool {
	return project.LeadID != nil && *project.LeadID == member.ID
}

// CanCreateProject はプロジェクト作成の可否を判定する。
// 作成前の時点で管理者・モデレーターである必要がある
// （「リードになるから管理者扱い」のブートストラップは認めない）。
func CanCreateProject(member *model.Member) bool {
	return IsElevated(member.Role)
}

// CanManageProject はプロジェクトの更新・削除、マイルストーン操作、
// 参加者追加の可否を判定する。リードまたは管理者・モデレーターに許可する。
func CanManageProject(member *model.Member, project *model.Project) bool {
	return IsElevated(member.Role) || IsProjectLead(member, project)
}

// CanRemoveProjectMember はプロジェクト参加者の除外可否を判定する。
// 許可されるのは自己除外・リード・管理者・モデレーターのいずれか。
// ただしリード自身の除外は、自己除外であっても管理者・モデレーター以外には認めない。
// 拒否の場合は対応するAPIErrorを返し、許可の場合はnilを返す。
func CanRemoveProjectMember(member *model.Member, project *model.Project, targetMemberID string) *model.APIError {
	isSelf := targetMemberID == member.ID

	if !isSelf && !CanManageProject(member, project) {
		return model.NewInsufficientRoleError()
	}

	// リードの除外は昇格ロール必須（自己除外でも不可）
	if project.LeadID != nil && *project.LeadID == targetMemberID && !IsElevated(member.Role) {
		return model.NewLeadRemovalForbiddenError()
	}

	return nil
}
