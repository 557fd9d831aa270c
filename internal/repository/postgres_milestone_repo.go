package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/teamhub/internal/model"
)

// PostgresMilestoneRepo はPostgreSQLを使用したマイルストーンリポジトリ。
type PostgresMilestoneRepo struct {
	db *sql.DB
}

// NewPostgresMilestoneRepo はPostgresMilestoneRepoを生成する。
func NewPostgresMilestoneRepo(db *sql.DB) *PostgresMilestoneRepo {
	return &PostgresMilestoneRepo{db: db}
}

const milestoneColumns = `id, project_id, name, description, status, completed, target_date, created_at, updated_at`

// scanMilestone は1行分のマイルストーンをスキャンする。
func scanMilestone(row interface {
	Scan(dest ...any) error
}) (*model.Milestone, error) {
	m := &model.Milestone{}
	var targetDate sql.NullTime
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Status, &m.Completed,
		&targetDate, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetDate.Valid {
		t := targetDate.Time
		m.TargetDate = &t
	}
	return m, nil
}

// ListByProjectID はプロジェクトのマイルストーン一覧を目標日昇順で返す。
// 目標日未設定のものは末尾に置く。
func (r *PostgresMilestoneRepo) ListByProjectID(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+milestoneColumns+`
		 FROM milestones
		 WHERE project_id = $1
		 ORDER BY target_date ASC NULLS LAST, created_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := []*model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}

	return milestones, nil
}

// ListByProjectIDs は複数プロジェクトのマイルストーンを一括取得する。
// プロジェクト一覧の展開表示でのN+1クエリを避けるために使用する。
func (r *PostgresMilestoneRepo) ListByProjectIDs(ctx context.Context, projectIDs []string) (map[string][]*model.Milestone, error) {
	result := make(map[string][]*model.Milestone)
	if len(projectIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+milestoneColumns+`
		 FROM milestones
		 WHERE project_id = ANY($1)
		 ORDER BY target_date ASC NULLS LAST, created_at ASC`,
		pq.Array(projectIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones by project IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		result[m.ProjectID] = append(result[m.ProjectID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}

	return result, nil
}

// FindByProjectAndID はプロジェクトIDとマイルストーンIDでマイルストーンを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresMilestoneRepo) FindByProjectAndID(ctx context.Context, projectID, milestoneID string) (*model.Milestone, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+milestoneColumns+`
		 FROM milestones
		 WHERE project_id = $1 AND id = $2`,
		projectID, milestoneID,
	)

	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find milestone: %w", err)
	}

	return m, nil
}

// Create はマイルストーンを作成する。
func (r *PostgresMilestoneRepo) Create(ctx context.Context, milestone *model.Milestone) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO milestones (id, project_id, name, description, status, completed, target_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		milestone.ID, milestone.ProjectID, milestone.Name, milestone.Description,
		milestone.Status, milestone.Completed, milestone.TargetDate,
		milestone.CreatedAt, milestone.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

// UpdateFields はマイルストーンを部分更新し、更新後のレコードを返す。
// 指定のないフィールドはSET句に含めず、既存の値を維持する。
// 対象が存在しない場合はnilを返す。
func (r *PostgresMilestoneRepo) UpdateFields(ctx context.Context, milestoneID string, fields MilestoneUpdateFields) (*model.Milestone, error) {
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
	if fields.Description != nil {
		addSet("description", *fields.Description)
	}
	if fields.Status != nil {
		addSet("status", *fields.Status)
	}
	if fields.Completed != nil {
		addSet("completed", *fields.Completed)
	}
	if fields.TargetDate.Set {
		if fields.TargetDate.Valid {
			addSet("target_date", fields.TargetDate.Value)
		} else {
			addSet("target_date", nil)
		}
	}

	query := fmt.Sprintf(
		`UPDATE milestones SET %s WHERE id = $%d RETURNING `+milestoneColumns,
		strings.Join(sets, ", "), idx,
	)
	args = append(args, milestoneID)

	row := r.db.QueryRowContext(ctx, query, args...)
	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}

	return m, nil
}

// Delete は指定IDのマイルストーンを削除する。
func (r *PostgresMilestoneRepo) Delete(ctx context.Context, milestoneID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM milestones WHERE id = $1`,
		milestoneID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("milestone not found: %s", milestoneID)
	}
	return nil
}

// compile-time interface check
var _ MilestoneRepository = (*PostgresMilestoneRepo)(nil)
