// Package model はドメインモデルを定義する。
package model

import "time"

// Milestone はプロジェクト内の日付付きチェックポイントを表す。
type Milestone struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Status      MilestoneStatus
	Completed   bool
	TargetDate  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MilestoneStatus はマイルストーンの進行状態を表す。
type MilestoneStatus string

const (
	// MilestonePending は未着手状態。
	MilestonePending MilestoneStatus = "PENDING"
	// MilestoneInProgress は進行中状態。
	MilestoneInProgress MilestoneStatus = "IN_PROGRESS"
	// MilestoneCompleted は完了状態。
	MilestoneCompleted MilestoneStatus = "COMPLETED"
)

// Valid はステータスが定義済みのタグかどうかを返す。
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}
