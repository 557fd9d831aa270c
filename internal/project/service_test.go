package project

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/teamhub/internal/authz"
	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/repository"
)

// --- モック ---

type mockServerFinder struct {
	findFn func(ctx context.Context, serverID, profileID string) (*model.Server, error)
}

func (m *mockServerFinder) FindByIDForProfile(ctx context.Context, serverID, profileID string) (*model.Server, error) {
	return m.findFn(ctx, serverID, profileID)
}

type mockMemberRepo struct {
	findByServerAndProfileFn func(ctx context.Context, serverID, profileID string) (*model.Member, error)
	findByServerAndIDFn      func(ctx context.Context, serverID, memberID string) (*model.Member, error)
	listByIDsFn              func(ctx context.Context, ids []string) ([]repository.MemberWithProfile, error)
}

func (m *mockMemberRepo) FindByServerAndProfile(ctx context.Context, serverID, profileID string) (*model.Member, error) {
	return m.findByServerAndProfileFn(ctx, serverID, profileID)
}
func (m *mockMemberRepo) FindByServerAndID(ctx context.Context, serverID, memberID string) (*model.Member, error) {
	if m.findByServerAndIDFn != nil {
		return m.findByServerAndIDFn(ctx, serverID, memberID)
	}
	return nil, nil
}
func (m *mockMemberRepo) ListByServerID(ctx context.Context, serverID string) ([]repository.MemberWithProfile, error) {
	return nil, nil
}
func (m *mockMemberRepo) ListByIDs(ctx context.Context, ids []string) ([]repository.MemberWithProfile, error) {
	if m.listByIDsFn != nil {
		return m.listByIDsFn(ctx, ids)
	}
	return []repository.MemberWithProfile{}, nil
}

type mockProjectRepo struct {
	listByServerIDFn    func(ctx context.Context, serverID string) ([]*model.Project, error)
	findByServerAndIDFn func(ctx context.Context, serverID, projectID string) (*model.Project, error)
	createWithDetailsFn func(ctx context.Context, project *model.Project, milestones []*model.Milestone, creator *model.ProjectMember) error
	updateFieldsFn      func(ctx context.Context, projectID string, fields repository.ProjectUpdateFields) (*model.Project, error)
	deleteFn            func(ctx context.Context, projectID string) error
}

func (m *mockProjectRepo) ListByServerID(ctx context.Context, serverID string) ([]*model.Project, error) {
	if m.listByServerIDFn != nil {
		return m.listByServerIDFn(ctx, serverID)
	}
	return []*model.Project{}, nil
}
func (m *mockProjectRepo) FindByServerAndID(ctx context.Context, serverID, projectID string) (*model.Project, error) {
	if m.findByServerAndIDFn != nil {
		return m.findByServerAndIDFn(ctx, serverID, projectID)
	}
	return nil, nil
}
func (m *mockProjectRepo) CreateWithDetails(ctx context.Context, project *model.Project, milestones []*model.Milestone, creator *model.ProjectMember) error {
	if m.createWithDetailsFn != nil {
		return m.createWithDetailsFn(ctx, project, milestones, creator)
	}
	return nil
}
func (m *mockProjectRepo) UpdateFields(ctx context.Context, projectID string, fields repository.ProjectUpdateFields) (*model.Project, error) {
	if m.updateFieldsFn != nil {
		return m.updateFieldsFn(ctx, projectID, fields)
	}
	return nil, nil
}
func (m *mockProjectRepo) Delete(ctx context.Context, projectID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, projectID)
	}
	return nil
}

type mockProjectMemberRepo struct {
	listByProjectIDFn        func(ctx context.Context, projectID string) ([]repository.ProjectMemberWithProfile, error)
	listByProjectIDsFn       func(ctx context.Context, projectIDs []string) (map[string][]repository.ProjectMemberWithProfile, error)
	findByProjectAndMemberFn func(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error)
	createFn                 func(ctx context.Context, pm *model.ProjectMember) error
	deleteFn                 func(ctx context.Context, id string) error
}

func (m *mockProjectMemberRepo) ListByProjectID(ctx context.Context, projectID string) ([]repository.ProjectMemberWithProfile, error) {
	if m.listByProjectIDFn != nil {
		return m.listByProjectIDFn(ctx, projectID)
	}
	return []repository.ProjectMemberWithProfile{}, nil
}
func (m *mockProjectMemberRepo) ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]repository.ProjectMemberWithProfile, error) {
	if m.listByProjectIDsFn != nil {
		return m.listByProjectIDsFn(ctx, projectIDs)
	}
	return map[string][]repository.ProjectMemberWithProfile{}, nil
}
func (m *mockProjectMemberRepo) FindByProjectAndMember(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error) {
	if m.findByProjectAndMemberFn != nil {
		return m.findByProjectAndMemberFn(ctx, projectID, memberID)
	}
	return nil, nil
}
func (m *mockProjectMemberRepo) Create(ctx context.Context, pm *model.ProjectMember) error {
	if m.createFn != nil {
		return m.createFn(ctx, pm)
	}
	return nil
}
func (m *mockProjectMemberRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockMilestoneRepo struct {
	listByProjectIDFn  func(ctx context.Context, projectID string) ([]*model.Milestone, error)
	listByProjectIDsFn func(ctx context.Context, projectIDs []string) (map[string][]*model.Milestone, error)
}

func (m *mockMilestoneRepo) ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	if m.listByProjectIDFn != nil {
		return m.listByProjectIDFn(ctx, projectID)
	}
	return []*model.Milestone{}, nil
}
func (m *mockMilestoneRepo) ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]*model.Milestone, error) {
	if m.listByProjectIDsFn != nil {
		return m.listByProjectIDsFn(ctx, projectIDs)
	}
	return map[string][]*model.Milestone{}, nil
}
func (m *mockMilestoneRepo) FindByProjectAndID(ctx context.Context, projectID, milestoneID string) (*model.Milestone, error) {
	return nil, nil
}
func (m *mockMilestoneRepo) Create(ctx context.Context, milestone *model.Milestone) error {
	return nil
}
func (m *mockMilestoneRepo) UpdateFields(ctx context.Context, milestoneID string, fields repository.MilestoneUpdateFields) (*model.Milestone, error) {
	return nil, nil
}
func (m *mockMilestoneRepo) Delete(ctx context.Context, milestoneID string) error {
	return nil
}

// passthroughSanitizer はサニタイズを素通しするテスト用実装。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

// --- フィクスチャ ---

type fixture struct {
	server  *model.Server
	member  *model.Member
	project *model.Project

	memberRepo  *mockMemberRepo
	projectRepo *mockProjectRepo
	pmRepo      *mockProjectMemberRepo
	msRepo      *mockMilestoneRepo
}

// newFixture はserver-1に所属するメンバーとプロジェクトの標準フィクスチャを構築する。
func newFixture(role model.MemberRole, leadID string) *fixture {
	f := &fixture{
		server: &model.Server{ID: "server-1", Name: "開発チーム"},
		member: &model.Member{ID: "member-1", ServerID: "server-1", ProfileID: "profile-1", Role: role},
		project: &model.Project{
			ID:       "project-1",
			ServerID: "server-1",
			Name:     "リニューアル",
			Status:   model.StatusBacklog,
			Priority: model.PriorityMedium,
		},
	}
	if leadID != "" {
		f.project.LeadID = &leadID
	}

	f.memberRepo = &mockMemberRepo{
		findByServerAndProfileFn: func(ctx context.Context, serverID, profileID string) (*model.Member, error) {
			if serverID == f.server.ID && profileID == f.member.ProfileID {
				return f.member, nil
			}
			return nil, nil
		},
	}
	f.projectRepo = &mockProjectRepo{
		findByServerAndIDFn: func(ctx context.Context, serverID, projectID string) (*model.Project, error) {
			if serverID == f.project.ServerID && projectID == f.project.ID {
				return f.project, nil
			}
			return nil, nil
		},
	}
	f.pmRepo = &mockProjectMemberRepo{}
	f.msRepo = &mockMilestoneRepo{}

	return f
}

func (f *fixture) service() *Service {
	guard := authz.NewGuard(
		&mockServerFinder{findFn: func(ctx context.Context, serverID, profileID string) (*model.Server, error) {
			if serverID == f.server.ID {
				return f.server, nil
			}
			return nil, nil
		}},
		f.memberRepo,
		f.projectRepo,
	)
	return NewService(guard, f.projectRepo, f.memberRepo, f.pmRepo, f.msRepo, passthroughSanitizer{}, nil)
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("code = %s, want %s", apiErr.Code, wantCode)
	}
}

// --- テスト ---

func TestService_List_NonMemberGetsServerNotFound(t *testing.T) {
	f := newFixture(model.RoleGuest, "")
	svc := f.service()

	_, err := svc.List(context.Background(), "server-1", "profile-outsider")
	assertAPIErrorCode(t, err, model.ErrCodeServerNotFound)
}

func TestService_List_ExpandsLeadMembersMilestones(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-1")
	f.projectRepo.listByServerIDFn = func(ctx context.Context, serverID string) ([]*model.Project, error) {
		return []*model.Project{f.project}, nil
	}
	f.memberRepo.listByIDsFn = func(ctx context.Context, ids []string) ([]repository.MemberWithProfile, error) {
		return []repository.MemberWithProfile{
			{Member: *f.member, ProfileName: "一郎"},
		}, nil
	}
	f.pmRepo.listByProjectIDsFn = func(ctx context.Context, projectIDs []string) (map[string][]repository.ProjectMemberWithProfile, error) {
		return map[string][]repository.ProjectMemberWithProfile{
			"project-1": {{ProjectMember: model.ProjectMember{ID: "pm-1", ProjectID: "project-1", MemberID: "member-1"}}},
		}, nil
	}
	f.msRepo.listByProjectIDsFn = func(ctx context.Context, projectIDs []string) (map[string][]*model.Milestone, error) {
		return map[string][]*model.Milestone{
			"project-1": {{ID: "ms-1", ProjectID: "project-1", Name: "設計完了"}},
		}, nil
	}

	details, err := f.service().List(context.Background(), "server-1", "profile-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("len(details) = %d, want 1", len(details))
	}
	d := details[0]
	if d.Lead == nil || d.Lead.ProfileName != "一郎" {
		t.Errorf("lead not expanded: %+v", d.Lead)
	}
	if len(d.Members) != 1 || len(d.Milestones) != 1 {
		t.Errorf("members/milestones not expanded: %d/%d", len(d.Members), len(d.Milestones))
	}
}

func TestService_Create_RequiresElevatedRole(t *testing.T) {
	f := newFixture(model.RoleGuest, "")
	_, err := f.service().Create(context.Background(), "server-1", "profile-1", CreateInput{Name: "新規"})
	assertAPIErrorCode(t, err, model.ErrCodeInsufficientRole)
}

func TestService_Create_RequiresName(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	_, err := f.service().Create(context.Background(), "server-1", "profile-1", CreateInput{})
	assertAPIErrorCode(t, err, model.ErrCodeNameRequired)
}

func TestService_Create_AppliesDefaults(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")

	var created *model.Project
	var createdMilestones []*model.Milestone
	var creator *model.ProjectMember
	f.projectRepo.createWithDetailsFn = func(ctx context.Context, project *model.Project, milestones []*model.Milestone, pm *model.ProjectMember) error {
		created = project
		createdMilestones = milestones
		creator = pm
		return nil
	}

	_, err := f.service().Create(context.Background(), "server-1", "profile-1", CreateInput{
		Name:           "新機能開発",
		MilestoneNames: []string{"要件定義", "リリース"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Status != model.StatusBacklog {
		t.Errorf("status = %s, want %s", created.Status, model.StatusBacklog)
	}
	if created.Priority != model.PriorityMedium {
		t.Errorf("priority = %s, want %s", created.Priority, model.PriorityMedium)
	}
	// リード未指定の場合は作成者がリードになる
	if created.LeadID == nil || *created.LeadID != "member-1" {
		t.Errorf("leadID = %v, want member-1", created.LeadID)
	}
	// 作成者は参加者として登録される
	if creator.MemberID != "member-1" {
		t.Errorf("creator memberID = %s, want member-1", creator.MemberID)
	}
	// 初期マイルストーンは名前のみ・未完了・PENDING
	if len(createdMilestones) != 2 {
		t.Fatalf("len(milestones) = %d, want 2", len(createdMilestones))
	}
	for _, ms := range createdMilestones {
		if ms.Completed || ms.Status != model.MilestonePending {
			t.Errorf("milestone %s: completed=%v status=%s", ms.Name, ms.Completed, ms.Status)
		}
	}
}

func TestService_Create_InvalidStatusAndPriority(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	svc := f.service()

	_, err := svc.Create(context.Background(), "server-1", "profile-1", CreateInput{Name: "x", Status: "DOING"})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidStatus)

	_, err = svc.Create(context.Background(), "server-1", "profile-1", CreateInput{Name: "x", Priority: "ASAP"})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidPriority)
}

func TestService_Create_LeadMustBeServerMember(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	f.memberRepo.findByServerAndIDFn = func(ctx context.Context, serverID, memberID string) (*model.Member, error) {
		return nil, nil
	}

	outsider := "member-outsider"
	_, err := f.service().Create(context.Background(), "server-1", "profile-1", CreateInput{Name: "x", LeadID: &outsider})
	assertAPIErrorCode(t, err, model.ErrCodeMemberNotFound)
}

func TestService_Get_WrongProjectID(t *testing.T) {
	f := newFixture(model.RoleGuest, "")
	_, err := f.service().Get(context.Background(), "server-1", "project-unknown", "profile-1")
	assertAPIErrorCode(t, err, model.ErrCodeProjectNotFound)
}

func TestService_Update_RequiresLeadOrElevated(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-other")
	name := "改名"
	_, err := f.service().Update(context.Background(), "server-1", "project-1", "profile-1", UpdateInput{Name: &name})
	assertAPIErrorCode(t, err, model.ErrCodeInsufficientRole)
}

func TestService_Update_LeadCanUpdate(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-1")

	var gotFields repository.ProjectUpdateFields
	f.projectRepo.updateFieldsFn = func(ctx context.Context, projectID string, fields repository.ProjectUpdateFields) (*model.Project, error) {
		gotFields = fields
		updated := *f.project
		updated.Name = *fields.Name
		return &updated, nil
	}

	name := "改名後"
	detail, err := f.service().Update(context.Background(), "server-1", "project-1", "profile-1", UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Name != "改名後" {
		t.Errorf("name = %q, want %q", detail.Name, "改名後")
	}
	// 省略したフィールドは更新対象に含まれない
	if gotFields.Summary != nil || gotFields.Status != nil || gotFields.TargetDate.Set {
		t.Errorf("omitted fields should stay unset: %+v", gotFields)
	}
}

func TestService_Update_EmptyNameRejected(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	empty := ""
	_, err := f.service().Update(context.Background(), "server-1", "project-1", "profile-1", UpdateInput{Name: &empty})
	assertAPIErrorCode(t, err, model.ErrCodeNameRequired)
}

func TestService_Update_NullClearsTargetDate(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")

	var gotFields repository.ProjectUpdateFields
	f.projectRepo.updateFieldsFn = func(ctx context.Context, projectID string, fields repository.ProjectUpdateFields) (*model.Project, error) {
		gotFields = fields
		return f.project, nil
	}

	input := UpdateInput{TargetDate: model.OptionalTime{Set: true, Valid: false}}
	if _, err := f.service().Update(context.Background(), "server-1", "project-1", "profile-1", input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotFields.TargetDate.Set || gotFields.TargetDate.Valid {
		t.Errorf("explicit null should clear target date: %+v", gotFields.TargetDate)
	}
}

func TestService_Update_NewLeadMustBeServerMember(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	f.memberRepo.findByServerAndIDFn = func(ctx context.Context, serverID, memberID string) (*model.Member, error) {
		return nil, nil
	}

	input := UpdateInput{LeadID: model.OptionalString{Set: true, Valid: true, Value: "member-x"}}
	_, err := f.service().Update(context.Background(), "server-1", "project-1", "profile-1", input)
	assertAPIErrorCode(t, err, model.ErrCodeMemberNotFound)
}

func TestService_Delete_RequiresLeadOrElevated(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-other")
	err := f.service().Delete(context.Background(), "server-1", "project-1", "profile-1")
	assertAPIErrorCode(t, err, model.ErrCodeInsufficientRole)
}

func TestService_Delete_Success(t *testing.T) {
	f := newFixture(model.RoleModerator, "")
	deleted := false
	f.projectRepo.deleteFn = func(ctx context.Context, projectID string) error {
		deleted = projectID == "project-1"
		return nil
	}

	if err := f.service().Delete(context.Background(), "server-1", "project-1", "profile-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("project should be deleted")
	}
}

func TestService_AddMember_RequiresLeadOrElevated(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-other")
	_, err := f.service().AddMember(context.Background(), "server-1", "project-1", "profile-1", "member-2")
	assertAPIErrorCode(t, err, model.ErrCodeInsufficientRole)
}

func TestService_AddMember_CandidateMustBeServerMember(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	f.memberRepo.findByServerAndIDFn = func(ctx context.Context, serverID, memberID string) (*model.Member, error) {
		return nil, nil
	}

	_, err := f.service().AddMember(context.Background(), "server-1", "project-1", "profile-1", "member-x")
	assertAPIErrorCode(t, err, model.ErrCodeMemberNotFound)
}

func TestService_AddMember_Duplicate(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	f.memberRepo.findByServerAndIDFn = func(ctx context.Context, serverID, memberID string) (*model.Member, error) {
		return &model.Member{ID: memberID, ServerID: serverID, Role: model.RoleGuest}, nil
	}
	f.pmRepo.findByProjectAndMemberFn = func(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error) {
		return &model.ProjectMember{ID: "pm-1", ProjectID: projectID, MemberID: memberID}, nil
	}

	created := false
	f.pmRepo.createFn = func(ctx context.Context, pm *model.ProjectMember) error {
		created = true
		return nil
	}

	_, err := f.service().AddMember(context.Background(), "server-1", "project-1", "profile-1", "member-2")
	assertAPIErrorCode(t, err, model.ErrCodeAlreadyInProject)
	if created {
		t.Error("duplicate add should not write")
	}
}

func TestService_AddMember_Success(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	f.memberRepo.findByServerAndIDFn = func(ctx context.Context, serverID, memberID string) (*model.Member, error) {
		return &model.Member{ID: memberID, ServerID: serverID, Role: model.RoleGuest}, nil
	}

	var createdID string
	f.pmRepo.createFn = func(ctx context.Context, pm *model.ProjectMember) error {
		createdID = pm.ID
		return nil
	}
	f.pmRepo.listByProjectIDFn = func(ctx context.Context, projectID string) ([]repository.ProjectMemberWithProfile, error) {
		return []repository.ProjectMemberWithProfile{
			{ProjectMember: model.ProjectMember{ID: createdID, ProjectID: projectID, MemberID: "member-2"}},
		}, nil
	}

	pm, err := f.service().AddMember(context.Background(), "server-1", "project-1", "profile-1", "member-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pm.MemberID != "member-2" {
		t.Errorf("memberID = %s, want member-2", pm.MemberID)
	}
}

func TestService_RemoveMember_SelfRemovalAllowed(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-lead")
	f.pmRepo.findByProjectAndMemberFn = func(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error) {
		return &model.ProjectMember{ID: "pm-1", ProjectID: projectID, MemberID: memberID}, nil
	}

	deleted := false
	f.pmRepo.deleteFn = func(ctx context.Context, id string) error {
		deleted = id == "pm-1"
		return nil
	}

	if err := f.service().RemoveMember(context.Background(), "server-1", "project-1", "profile-1", "member-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("self removal should delete the record")
	}
}

// リードの除外は自己除外であっても管理者・モデレーター以外には許されない
func TestService_RemoveMember_LeadRemovalRequiresElevated(t *testing.T) {
	f := newFixture(model.RoleGuest, "member-1")
	err := f.service().RemoveMember(context.Background(), "server-1", "project-1", "profile-1", "member-1")
	assertAPIErrorCode(t, err, model.ErrCodeLeadRemovalForbidden)
}

func TestService_RemoveMember_AdminCanRemoveLead(t *testing.T) {
	f := newFixture(model.RoleAdmin, "member-lead")
	f.pmRepo.findByProjectAndMemberFn = func(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error) {
		return &model.ProjectMember{ID: "pm-lead", ProjectID: projectID, MemberID: memberID}, nil
	}

	if err := f.service().RemoveMember(context.Background(), "server-1", "project-1", "profile-1", "member-lead"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_RemoveMember_NotInProject(t *testing.T) {
	f := newFixture(model.RoleAdmin, "")
	err := f.service().RemoveMember(context.Background(), "server-1", "project-1", "profile-1", "member-9")
	assertAPIErrorCode(t, err, model.ErrCodeNotInProject)
}
