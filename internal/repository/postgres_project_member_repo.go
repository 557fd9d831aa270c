package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/teamhub/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresProjectMemberRepo はPostgreSQLを使用したプロジェクト参加リポジトリ。
type PostgresProjectMemberRepo struct {
	db *sql.DB
}

// NewPostgresProjectMemberRepo はPostgresProjectMemberRepoを生成する。
func NewPostgresProjectMemberRepo(db *sql.DB) *PostgresProjectMemberRepo {
	return &PostgresProjectMemberRepo{db: db}
}

const projectMemberSelect = `
	SELECT pm.id, pm.project_id, pm.member_id, pm.created_at,
	       m.id, m.server_id, m.profile_id, m.role, m.created_at, m.updated_at,
	       p.name, p.email, p.image_url
	FROM project_members pm
	JOIN members m ON m.id = pm.member_id
	JOIN profiles p ON p.id = m.profile_id`

// scanProjectMembers はプロジェクト参加＋メンバー＋プロフィール行をスキャンする。
func scanProjectMembers(rows *sql.Rows) ([]ProjectMemberWithProfile, error) {
	members := []ProjectMemberWithProfile{}
	for rows.Next() {
		var pm ProjectMemberWithProfile
		if err := rows.Scan(
			&pm.ID, &pm.ProjectID, &pm.MemberID, &pm.CreatedAt,
			&pm.Member.ID, &pm.Member.ServerID, &pm.Member.ProfileID, &pm.Member.Role,
			&pm.Member.CreatedAt, &pm.Member.UpdatedAt,
			&pm.Member.ProfileName, &pm.Member.ProfileEmail, &pm.Member.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project members: %w", err)
	}
	return members, nil
}

// ListByProjectID はプロジェクトの参加者一覧をメンバー・プロフィール情報付きで返す。
func (r *PostgresProjectMemberRepo) ListByProjectID(ctx context.Context, projectID string) ([]ProjectMemberWithProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		projectMemberSelect+`
		WHERE pm.project_id = $1
		ORDER BY pm.created_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	return scanProjectMembers(rows)
}

// ListByProjectIDs は複数プロジェクトの参加者を一括取得する。
func (r *PostgresProjectMemberRepo) ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]ProjectMemberWithProfile, error) {
	result := make(map[string][]ProjectMemberWithProfile)
	if len(projectIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		projectMemberSelect+`
		WHERE pm.project_id = ANY($1)
		ORDER BY pm.created_at ASC`,
		pq.Array(projectIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members by project IDs: %w", err)
	}
	defer rows.Close()

	members, err := scanProjectMembers(rows)
	if err != nil {
		return nil, err
	}
	for _, pm := range members {
		result[pm.ProjectID] = append(result[pm.ProjectID], pm)
	}

	return result, nil
}

// FindByProjectAndMember はプロジェクトIDとメンバーIDで参加レコードを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresProjectMemberRepo) FindByProjectAndMember(ctx context.Context, projectID, memberID string) (*model.ProjectMember, error) {
	pm := &model.ProjectMember{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, member_id, created_at
		 FROM project_members
		 WHERE project_id = $1 AND member_id = $2`,
		projectID, memberID,
	).Scan(&pm.ID, &pm.ProjectID, &pm.MemberID, &pm.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project member: %w", err)
	}

	return pm, nil
}

// Create は参加レコードを作成する。
// (project_id, member_id)の一意制約違反はALREADY_IN_PROJECTエラーに変換する。
// 事前チェックとINSERTの間の競合もここで吸収される。
func (r *PostgresProjectMemberRepo) Create(ctx context.Context, pm *model.ProjectMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_members (id, project_id, member_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		pm.ID, pm.ProjectID, pm.MemberID, pm.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return model.NewAlreadyInProjectError()
		}
		return fmt.Errorf("failed to create project member: %w", err)
	}
	return nil
}

// Delete は指定IDの参加レコードを削除する。
func (r *PostgresProjectMemberRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_members WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project member: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProjectMemberRepository = (*PostgresProjectMemberRepo)(nil)
