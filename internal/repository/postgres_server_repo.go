package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamhub/internal/model"
)

// PostgresServerRepo はPostgreSQLを使用したサーバーリポジトリ。
type PostgresServerRepo struct {
	db *sql.DB
}

// NewPostgresServerRepo はPostgresServerRepoを生成する。
func NewPostgresServerRepo(db *sql.DB) *PostgresServerRepo {
	return &PostgresServerRepo{db: db}
}

// CreateWithAdminMember はサーバーと作成者のADMINメンバーを
// 同一トランザクションで作成する。
func (r *PostgresServerRepo) CreateWithAdminMember(ctx context.Context, server *model.Server, admin *model.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO servers (id, name, owner_profile_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		server.ID, server.Name, server.OwnerProfileID, server.CreatedAt, server.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert server: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO members (id, server_id, profile_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		admin.ID, admin.ServerID, admin.ProfileID, admin.Role, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert admin member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByIDForProfile は指定プロフィールがメンバーとして所属するサーバーを取得する。
// サーバー不在と非所属を区別せず、どちらもnilを返す。
func (r *PostgresServerRepo) FindByIDForProfile(ctx context.Context, serverID, profileID string) (*model.Server, error) {
	server := &model.Server{}
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.name, s.owner_profile_id, s.created_at, s.updated_at
		 FROM servers s
		 JOIN members m ON m.server_id = s.id
		 WHERE s.id = $1 AND m.profile_id = $2`,
		serverID, profileID,
	).Scan(&server.ID, &server.Name, &server.OwnerProfileID, &server.CreatedAt, &server.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find server for profile: %w", err)
	}

	return server, nil
}

// ListByProfileID は指定プロフィールが所属するサーバー一覧を作成日時昇順で返す。
func (r *PostgresServerRepo) ListByProfileID(ctx context.Context, profileID string) ([]*model.Server, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.name, s.owner_profile_id, s.created_at, s.updated_at
		 FROM servers s
		 JOIN members m ON m.server_id = s.id
		 WHERE m.profile_id = $1
		 ORDER BY s.created_at ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []*model.Server
	for rows.Next() {
		server := &model.Server{}
		if err := rows.Scan(&server.ID, &server.Name, &server.OwnerProfileID, &server.CreatedAt, &server.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate servers: %w", err)
	}

	return servers, nil
}

// compile-time interface check
var _ ServerRepository = (*PostgresServerRepo)(nil)
