// Package model はドメインモデルを定義する。
package model

import "time"

// Server はメンバー・チャンネル・プロジェクトを束ねるワークスペースを表す。
type Server struct {
	ID             string
	Name           string
	OwnerProfileID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Member はProfileとServerの所属関係を表す。ロールを保持する。
type Member struct {
	ID        string
	ServerID  string
	ProfileID string
	Role      MemberRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberRole はサーバー内でのメンバーのロールを表す。
type MemberRole string

const (
	// RoleGuest は一般メンバーのロール。
	RoleGuest MemberRole = "GUEST"
	// RoleModerator はモデレーターのロール。
	RoleModerator MemberRole = "MODERATOR"
	// RoleAdmin は管理者のロール。
	RoleAdmin MemberRole = "ADMIN"
)

// Valid はロールが定義済みのタグかどうかを返す。
func (r MemberRole) Valid() bool {
	switch r {
	case RoleGuest, RoleModerator, RoleAdmin:
		return true
	}
	return false
}
