package authz

import (
	"errors"
	"testing"

	"github.com/hitoshi/teamhub/internal/model"
)

func memberWithRole(id string, role model.MemberRole) *model.Member {
	return &model.Member{ID: id, ServerID: "server-1", Role: role}
}

func projectWithLead(leadID string) *model.Project {
	p := &model.Project{ID: "project-1", ServerID: "server-1"}
	if leadID != "" {
		p.LeadID = &leadID
	}
	return p
}

func TestCanCreateProject(t *testing.T) {
	tests := []struct {
		name string
		role model.MemberRole
		want bool
	}{
		{"管理者は作成可", model.RoleAdmin, true},
		{"モデレーターは作成可", model.RoleModerator, true},
		{"一般メンバーは作成不可", model.RoleGuest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanCreateProject(memberWithRole("m1", tt.role))
			if got != tt.want {
				t.Errorf("CanCreateProject(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestCanManageProject(t *testing.T) {
	tests := []struct {
		name   string
		member *model.Member
		lead   string
		want   bool
	}{
		{"管理者は管理可", memberWithRole("m1", model.RoleAdmin), "other", true},
		{"モデレーターは管理可", memberWithRole("m1", model.RoleModerator), "other", true},
		{"リードは管理可", memberWithRole("m1", model.RoleGuest), "m1", true},
		{"一般メンバーは管理不可", memberWithRole("m1", model.RoleGuest), "other", false},
		{"リード未設定の場合一般メンバーは管理不可", memberWithRole("m1", model.RoleGuest), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanManageProject(tt.member, projectWithLead(tt.lead))
			if got != tt.want {
				t.Errorf("CanManageProject = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRemoveProjectMember(t *testing.T) {
	tests := []struct {
		name     string
		member   *model.Member
		lead     string
		targetID string
		wantCode string // 空文字列なら許可
	}{
		{"自己除外は許可", memberWithRole("m1", model.RoleGuest), "lead-1", "m1", ""},
		{"リードは他メンバーを除外可", memberWithRole("lead-1", model.RoleGuest), "lead-1", "m2", ""},
		{"管理者は他メンバーを除外可", memberWithRole("m1", model.RoleAdmin), "lead-1", "m2", ""},
		{"一般メンバーは他メンバーを除外不可", memberWithRole("m1", model.RoleGuest), "lead-1", "m2", model.ErrCodeInsufficientRole},
		{"リードの自己除外は不可", memberWithRole("lead-1", model.RoleGuest), "lead-1", "lead-1", model.ErrCodeLeadRemovalForbidden},
		{"一般メンバーによるリード除外は不可", memberWithRole("m1", model.RoleGuest), "lead-1", "lead-1", model.ErrCodeInsufficientRole},
		{"管理者によるリード除外は許可", memberWithRole("m1", model.RoleAdmin), "lead-1", "lead-1", ""},
		{"モデレーターによるリード除外は許可", memberWithRole("m1", model.RoleModerator), "lead-1", "lead-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanRemoveProjectMember(tt.member, projectWithLead(tt.lead), tt.targetID)
			if tt.wantCode == "" {
				if got != nil {
					t.Errorf("expected allow, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected deny with code %s, got allow", tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
		})
	}
}

func TestIsElevated(t *testing.T) {
	if !IsElevated(model.RoleAdmin) || !IsElevated(model.RoleModerator) {
		t.Error("ADMIN/MODERATOR should be elevated")
	}
	if IsElevated(model.RoleGuest) {
		t.Error("GUEST should not be elevated")
	}
}

// APIErrorがerrors.Asで取り出せることを検証（サービス層のエラー変換経路）
func TestCanRemoveProjectMember_ReturnsAPIError(t *testing.T) {
	denied := CanRemoveProjectMember(
		memberWithRole("m1", model.RoleGuest), projectWithLead("lead-1"), "m2",
	)
	var apiErr *model.APIError
	if !errors.As(error(denied), &apiErr) {
		t.Fatal("expected *model.APIError")
	}
}
