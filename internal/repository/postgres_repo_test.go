package repository

import (
	"testing"
)

// 各Postgresリポジトリが対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
	var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ ServerRepository = (*PostgresServerRepo)(nil)
	var _ MemberRepository = (*PostgresMemberRepo)(nil)
	var _ ProjectRepository = (*PostgresProjectRepo)(nil)
	var _ MilestoneRepository = (*PostgresMilestoneRepo)(nil)
	var _ ProjectMemberRepository = (*PostgresProjectMemberRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresProfileRepo(nil) == nil {
		t.Error("expected non-nil profile repo")
	}
	if NewPostgresIdentityRepo(nil) == nil {
		t.Error("expected non-nil identity repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}
	if NewPostgresServerRepo(nil) == nil {
		t.Error("expected non-nil server repo")
	}
	if NewPostgresMemberRepo(nil) == nil {
		t.Error("expected non-nil member repo")
	}
	if NewPostgresProjectRepo(nil) == nil {
		t.Error("expected non-nil project repo")
	}
	if NewPostgresMilestoneRepo(nil) == nil {
		t.Error("expected non-nil milestone repo")
	}
	if NewPostgresProjectMemberRepo(nil) == nil {
		t.Error("expected non-nil project member repo")
	}
}
