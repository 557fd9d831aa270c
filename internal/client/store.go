package client

import (
	"sort"
	"sync"
)

// ProjectStore はサーバーIDごとにプロジェクト一覧をミラーする
// クライアント側リポジトリ。作成日時降順（新しい順）を維持する。
//
// 正本は常にAPIサーバー側にあり、本ストアは楽観的反映のための
// 一時的なミラーにすぎない。調停ルール:
//   - Seed: ロード・再検証時に一覧を丸ごと置き換える
//   - ApplyCreate/ApplyUpdate/ApplyDelete: 変異を楽観的に反映する
//     （last-write-wins、次のSeedで必ず正本と一致する）
type ProjectStore struct {
	mu       sync.Mutex
	byServer map[string][]Project
}

// NewProjectStore はProjectStoreの新しいインスタンスを生成する。
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		byServer: make(map[string][]Project),
	}
}

// Seed はサーバーのプロジェクト一覧を置き換える。
// ロード時・再検証時に呼び出され、楽観的反映の結果を正本で上書きする。
func (s *ProjectStore) Seed(serverID string, projects []Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make([]Project, len(projects))
	copy(replaced, projects)
	sortNewestFirst(replaced)
	s.byServer[serverID] = replaced
}

// ApplyCreate は作成されたプロジェクトを一覧に反映する。
// 同一IDが既にある場合は置き換える（重複反映の吸収）。
func (s *ProjectStore) ApplyCreate(project Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.removeLocked(project.ServerID, project.ID)
	list = append(list, project)
	sortNewestFirst(list)
	s.byServer[project.ServerID] = list
}

// ApplyUpdate は更新されたプロジェクトを一覧に反映する。
// 一覧に存在しないIDの更新は無視する（次のSeedで調停される）。
func (s *ProjectStore) ApplyUpdate(project Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byServer[project.ServerID]
	for i := range list {
		if list[i].ID == project.ID {
			list[i] = project
			return
		}
	}
}

// ApplyDelete は削除されたプロジェクトを一覧から取り除く。
func (s *ProjectStore) ApplyDelete(serverID, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byServer[serverID] = s.removeLocked(serverID, projectID)
}

// List はサーバーのプロジェクト一覧のコピーを新しい順で返す。
func (s *ProjectStore) List(serverID string) []Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byServer[serverID]
	result := make([]Project, len(list))
	copy(result, list)
	return result
}

// removeLocked は指定IDを除いた一覧を返す。呼び出し元でロックを保持すること。
func (s *ProjectStore) removeLocked(serverID, projectID string) []Project {
	list := s.byServer[serverID]
	result := list[:0:0]
	for _, p := range list {
		if p.ID != projectID {
			result = append(result, p)
		}
	}
	return result
}

// sortNewestFirst は作成日時降順に並べ替える。
// 同時刻の場合はIDで安定させる。
func sortNewestFirst(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID > projects[j].ID
		}
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
}
