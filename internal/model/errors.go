// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, permission, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeNameRequired         = "NAME_REQUIRED"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidPriority      = "INVALID_PRIORITY"
	ErrCodeServerNotFound       = "SERVER_NOT_FOUND"
	ErrCodeProjectNotFound      = "PROJECT_NOT_FOUND"
	ErrCodeMilestoneNotFound    = "MILESTONE_NOT_FOUND"
	ErrCodeMemberNotFound       = "MEMBER_NOT_FOUND"
	ErrCodeNotInProject         = "NOT_IN_PROJECT"
	ErrCodeAlreadyInProject     = "ALREADY_IN_PROJECT"
	ErrCodeInsufficientRole     = "INSUFFICIENT_ROLE"
	ErrCodeLeadRemovalForbidden = "LEAD_REMOVAL_FORBIDDEN"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
)

// NewServerNotFoundError はサーバー未検出エラーを生成する。
// 非メンバーに対してはサーバーの存在有無を区別せず同一のエラーを返す。
func NewServerNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeServerNotFound,
		Message:  "指定されたサーバーが見つかりません。",
		Category: "resource",
		Action:   "サーバーIDを確認するか、サーバーへの招待を受けてください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  "指定されたプロジェクトが見つかりません。",
		Category: "resource",
		Action:   "プロジェクトIDとサーバーIDの組み合わせを確認してください。",
	}
}

// NewMilestoneNotFoundError はマイルストーン未検出エラーを生成する。
func NewMilestoneNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeMilestoneNotFound,
		Message:  "指定されたマイルストーンが見つかりません。",
		Category: "resource",
		Action:   "マイルストーンIDとプロジェクトIDの組み合わせを確認してください。",
	}
}

// NewMemberNotFoundError はサーバー内メンバー未検出エラーを生成する。
func NewMemberNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  "指定されたメンバーはこのサーバーに存在しません。",
		Category: "resource",
		Action:   "メンバーIDを確認してください。",
	}
}

// NewNotInProjectError はプロジェクト参加者未検出エラーを生成する。
func NewNotInProjectError() *APIError {
	return &APIError{
		Code:     ErrCodeNotInProject,
		Message:  "指定されたメンバーはこのプロジェクトに参加していません。",
		Category: "resource",
		Action:   "プロジェクトの参加者一覧を確認してください。",
	}
}

// NewAlreadyInProjectError は重複参加エラーを生成する。
func NewAlreadyInProjectError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyInProject,
		Message:  "指定されたメンバーは既にこのプロジェクトに参加しています。",
		Category: "validation",
		Action:   "プロジェクトの参加者一覧を確認してください。",
	}
}

// NewInsufficientRoleError は権限不足エラーを生成する。
func NewInsufficientRoleError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientRole,
		Message:  "この操作を行う権限がありません。",
		Category: "permission",
		Action:   "プロジェクトリードまたはサーバー管理者に依頼してください。",
	}
}

// NewLeadRemovalForbiddenError はリード除外禁止エラーを生成する。
// プロジェクトリードの除外は管理者・モデレーターのみが行える。
func NewLeadRemovalForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeLeadRemovalForbidden,
		Message:  "プロジェクトリードをプロジェクトから除外することはできません。",
		Category: "permission",
		Action:   "先に別のメンバーをリードに変更するか、サーバー管理者に依頼してください。",
	}
}

// NewNameRequiredError は名前必須エラーを生成する。
// kindには"プロジェクト"や"マイルストーン"等の対象種別を指定する。
func NewNameRequiredError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeNameRequired,
		Message:  fmt.Sprintf("%s名は必須です。", kind),
		Category: "validation",
		Action:   "名前を入力してください。",
	}
}

// NewInvalidStatusError は無効ステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "定義済みのステータスタグを指定してください。",
	}
}

// NewInvalidPriorityError は無効優先度エラーを生成する。
func NewInvalidPriorityError(priority string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPriority,
		Message:  fmt.Sprintf("無効な優先度です: %s", priority),
		Category: "validation",
		Action:   "定義済みの優先度タグを指定してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "プロフィールが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
