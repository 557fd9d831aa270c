package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/teamhub/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindByServerAndProfile はサーバーIDとプロフィールIDでメンバーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByServerAndProfile(ctx context.Context, serverID, profileID string) (*model.Member, error) {
	member := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, server_id, profile_id, role, created_at, updated_at
		 FROM members
		 WHERE server_id = $1 AND profile_id = $2`,
		serverID, profileID,
	).Scan(&member.ID, &member.ServerID, &member.ProfileID, &member.Role, &member.CreatedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by profile: %w", err)
	}

	return member, nil
}

// FindByServerAndID はサーバーIDとメンバーIDでメンバーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByServerAndID(ctx context.Context, serverID, memberID string) (*model.Member, error) {
	member := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, server_id, profile_id, role, created_at, updated_at
		 FROM members
		 WHERE server_id = $1 AND id = $2`,
		serverID, memberID,
	).Scan(&member.ID, &member.ServerID, &member.ProfileID, &member.Role, &member.CreatedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member by ID: %w", err)
	}

	return member, nil
}

// ListByServerID はサーバーの全メンバーをプロフィール情報付きで返す。
func (r *PostgresMemberRepo) ListByServerID(ctx context.Context, serverID string) ([]MemberWithProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.server_id, m.profile_id, m.role, m.created_at, m.updated_at,
		        p.name, p.email, p.image_url
		 FROM members m
		 JOIN profiles p ON p.id = m.profile_id
		 WHERE m.server_id = $1
		 ORDER BY m.created_at ASC`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	return scanMembersWithProfile(rows)
}

// ListByIDs は指定ID群のメンバーをプロフィール情報付きで返す。
// idsが空の場合は空スライスを返す。
func (r *PostgresMemberRepo) ListByIDs(ctx context.Context, ids []string) ([]MemberWithProfile, error) {
	if len(ids) == 0 {
		return []MemberWithProfile{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.server_id, m.profile_id, m.role, m.created_at, m.updated_at,
		        p.name, p.email, p.image_url
		 FROM members m
		 JOIN profiles p ON p.id = m.profile_id
		 WHERE m.id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members by IDs: %w", err)
	}
	defer rows.Close()

	return scanMembersWithProfile(rows)
}

// scanMembersWithProfile はメンバー＋プロフィール行をスキャンする。
func scanMembersWithProfile(rows *sql.Rows) ([]MemberWithProfile, error) {
	var members []MemberWithProfile
	for rows.Next() {
		var m MemberWithProfile
		if err := rows.Scan(
			&m.ID, &m.ServerID, &m.ProfileID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
			&m.ProfileName, &m.ProfileEmail, &m.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	if members == nil {
		members = []MemberWithProfile{}
	}
	return members, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
