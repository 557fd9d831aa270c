// Package model はドメインモデルを定義する。
package model

import "time"

// Project はサーバーに属するプロジェクトを表す。
// LeadIDは同一サーバーのMemberを参照する。未設定の場合はnil。
type Project struct {
	ID          string
	ServerID    string
	Name        string
	Summary     string
	Description string
	Status      ProjectStatus
	Priority    ProjectPriority
	LeadID      *string
	StartDate   *time.Time
	TargetDate  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectStatus はプロジェクトの進行状態を表す。
type ProjectStatus string

const (
	// StatusBacklog は未着手（バックログ）状態。
	StatusBacklog ProjectStatus = "BACKLOG"
	// StatusPlanned は計画済み状態。
	StatusPlanned ProjectStatus = "PLANNED"
	// StatusInProgress は進行中状態。
	StatusInProgress ProjectStatus = "IN_PROGRESS"
	// StatusCompleted は完了状態。
	StatusCompleted ProjectStatus = "COMPLETED"
	// StatusCanceled は中止状態。
	StatusCanceled ProjectStatus = "CANCELED"
)

// Valid はステータスが定義済みのタグかどうかを返す。
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusPlanned, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// ProjectPriority はプロジェクトの優先度を表す。
type ProjectPriority string

const (
	// PriorityNone は優先度未設定。
	PriorityNone ProjectPriority = "NO_PRIORITY"
	// PriorityLow は低優先度。
	PriorityLow ProjectPriority = "LOW"
	// PriorityMedium は中優先度。
	PriorityMedium ProjectPriority = "MEDIUM"
	// PriorityHigh は高優先度。
	PriorityHigh ProjectPriority = "HIGH"
	// PriorityUrgent は緊急優先度。
	PriorityUrgent ProjectPriority = "URGENT"
)

// Valid は優先度が定義済みのタグかどうかを返す。
func (p ProjectPriority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ProjectMember はProjectとMemberの参加関係を表す。
// (ProjectID, MemberID)の組は一意。
type ProjectMember struct {
	ID        string
	ProjectID string
	MemberID  string
	CreatedAt time.Time
}
