package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/teamhub/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectColumns = `id, server_id, name, summary, description, status, priority,
	lead_id, start_date, target_date, created_at, updated_at`

// scanProject は1行分のプロジェクトをスキャンする。
func scanProject(row interface {
	Scan(dest ...any) error
}) (*model.Project, error) {
	p := &model.Project{}
	var leadID sql.NullString
	var startDate, targetDate sql.NullTime
	err := row.Scan(
		&p.ID, &p.ServerID, &p.Name, &p.Summary, &p.Description, &p.Status, &p.Priority,
		&leadID, &startDate, &targetDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if leadID.Valid {
		p.LeadID = &leadID.String
	}
	if startDate.Valid {
		t := startDate.Time
		p.StartDate = &t
	}
	if targetDate.Valid {
		t := targetDate.Time
		p.TargetDate = &t
	}
	return p, nil
}

// ListByServerID はサーバーのプロジェクト一覧を作成日時降順で返す。
func (r *PostgresProjectRepo) ListByServerID(ctx context.Context, serverID string) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE server_id = $1
		 ORDER BY created_at DESC`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// FindByServerAndID はサーバーIDとプロジェクトIDでプロジェクトを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByServerAndID(ctx context.Context, serverID, projectID string) (*model.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE server_id = $1 AND id = $2`,
		serverID, projectID,
	)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return p, nil
}

// CreateWithDetails はプロジェクト・初期マイルストーン・作成者の参加レコードを
// 同一トランザクションで作成する。
func (r *PostgresProjectRepo) CreateWithDetails(ctx context.Context, project *model.Project, milestones []*model.Milestone, creator *model.ProjectMember) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, server_id, name, summary, description, status, priority,
		                       lead_id, start_date, target_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		project.ID, project.ServerID, project.Name, project.Summary, project.Description,
		project.Status, project.Priority, project.LeadID, project.StartDate, project.TargetDate,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	for _, m := range milestones {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO milestones (id, project_id, name, description, status, completed, target_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, m.ProjectID, m.Name, m.Description, m.Status, m.Completed, m.TargetDate, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert milestone: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (id, project_id, member_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		creator.ID, creator.ProjectID, creator.MemberID, creator.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator project member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateFields はプロジェクトを部分更新し、更新後のレコードを返す。
// 指定のないフィールドはSET句に含めず、既存の値を維持する。
// 対象が存在しない場合はnilを返す。
func (r *PostgresProjectRepo) UpdateFields(ctx context.Context, projectID string, fields ProjectUpdateFields) (*model.Project, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	idx := 1

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if fields.Name != nil {
		addSet("name", *fields.Name)
	}
	if fields.Summary != nil {
		addSet("summary", *fields.Summary)
	}
	if fields.Description != nil {
		addSet("description", *fields.Description)
	}
	if fields.Status != nil {
		addSet("status", *fields.Status)
	}
	if fields.Priority != nil {
		addSet("priority", *fields.Priority)
	}
	if fields.LeadID.Set {
		if fields.LeadID.Valid {
			addSet("lead_id", fields.LeadID.Value)
		} else {
			addSet("lead_id", nil)
		}
	}
	if fields.StartDate.Set {
		if fields.StartDate.Valid {
			addSet("start_date", fields.StartDate.Value)
		} else {
			addSet("start_date", nil)
		}
	}
	if fields.TargetDate.Set {
		if fields.TargetDate.Valid {
			addSet("target_date", fields.TargetDate.Value)
		} else {
			addSet("target_date", nil)
		}
	}

	query := fmt.Sprintf(
		`UPDATE projects SET %s WHERE id = $%d RETURNING `+projectColumns,
		strings.Join(sets, ", "), idx,
	)
	args = append(args, projectID)

	row := r.db.QueryRowContext(ctx, query, args...)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return p, nil
}

// Delete は指定IDのプロジェクトを削除する。
// マイルストーン・プロジェクト参加者はCASCADE削除される。
func (r *PostgresProjectRepo) Delete(ctx context.Context, projectID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`,
		projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("project not found: %s", projectID)
	}
	return nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
