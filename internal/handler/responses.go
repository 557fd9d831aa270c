package handler

import (
	"time"

	"github.com/hitoshi/teamhub/internal/model"
	"github.com/hitoshi/teamhub/internal/project"
	"github.com/hitoshi/teamhub/internal/repository"
	"github.com/hitoshi/teamhub/internal/workspace"
)

// memberResponse はサーバーメンバーのAPIレスポンス。
type memberResponse struct {
	ID        string    `json:"id"`
	ServerID  string    `json:"server_id"`
	ProfileID string    `json:"profile_id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// serverResponse はサーバー情報のAPIレスポンス。
type serverResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	OwnerProfileID string           `json:"owner_profile_id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Members        []memberResponse `json:"members,omitempty"`
}

// projectMemberResponse はプロジェクト参加者のAPIレスポンス。
type projectMemberResponse struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	MemberID  string         `json:"member_id"`
	CreatedAt time.Time      `json:"created_at"`
	Member    memberResponse `json:"member"`
}

// milestoneResponse はマイルストーンのAPIレスポンス。
type milestoneResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Completed   bool       `json:"completed"`
	TargetDate  *time.Time `json:"target_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// projectResponse はプロジェクト詳細のAPIレスポンス。
// リード・参加者・マイルストーンを展開して返す。
type projectResponse struct {
	ID          string                  `json:"id"`
	ServerID    string                  `json:"server_id"`
	Name        string                  `json:"name"`
	Summary     string                  `json:"summary"`
	Description string                  `json:"description"`
	Status      string                  `json:"status"`
	Priority    string                  `json:"priority"`
	LeadID      *string                 `json:"lead_id"`
	Lead        *memberResponse         `json:"lead,omitempty"`
	StartDate   *time.Time              `json:"start_date"`
	TargetDate  *time.Time              `json:"target_date"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	Members     []projectMemberResponse `json:"members"`
	Milestones  []milestoneResponse     `json:"milestones"`
}

func toMemberResponse(m repository.MemberWithProfile) memberResponse {
	return memberResponse{
		ID:        m.ID,
		ServerID:  m.ServerID,
		ProfileID: m.ProfileID,
		Role:      string(m.Role),
		Name:      m.ProfileName,
		Email:     m.ProfileEmail,
		ImageURL:  m.ProfileImageURL,
		CreatedAt: m.CreatedAt,
	}
}

func toServerResponse(s *model.Server) serverResponse {
	return serverResponse{
		ID:             s.ID,
		Name:           s.Name,
		OwnerProfileID: s.OwnerProfileID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toServerDetailResponse(d *workspace.ServerDetail) serverResponse {
	resp := toServerResponse(&d.Server)
	resp.Members = make([]memberResponse, len(d.Members))
	for i, m := range d.Members {
		resp.Members[i] = toMemberResponse(m)
	}
	return resp
}

func toProjectMemberResponse(pm repository.ProjectMemberWithProfile) projectMemberResponse {
	return projectMemberResponse{
		ID:        pm.ID,
		ProjectID: pm.ProjectID,
		MemberID:  pm.MemberID,
		CreatedAt: pm.CreatedAt,
		Member:    toMemberResponse(pm.Member),
	}
}

func toMilestoneResponse(ms *model.Milestone) milestoneResponse {
	return milestoneResponse{
		ID:          ms.ID,
		ProjectID:   ms.ProjectID,
		Name:        ms.Name,
		Description: ms.Description,
		Status:      string(ms.Status),
		Completed:   ms.Completed,
		TargetDate:  ms.TargetDate,
		CreatedAt:   ms.CreatedAt,
		UpdatedAt:   ms.UpdatedAt,
	}
}

func toProjectResponse(d *project.ProjectDetail) projectResponse {
	resp := projectResponse{
		ID:          d.ID,
		ServerID:    d.ServerID,
		Name:        d.Name,
		Summary:     d.Summary,
		Description: d.Description,
		Status:      string(d.Status),
		Priority:    string(d.Priority),
		LeadID:      d.LeadID,
		StartDate:   d.StartDate,
		TargetDate:  d.TargetDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Members:     make([]projectMemberResponse, len(d.Members)),
		Milestones:  make([]milestoneResponse, len(d.Milestones)),
	}
	if d.Lead != nil {
		lead := toMemberResponse(*d.Lead)
		resp.Lead = &lead
	}
	for i, pm := range d.Members {
		resp.Members[i] = toProjectMemberResponse(pm)
	}
	for i, ms := range d.Milestones {
		resp.Milestones[i] = toMilestoneResponse(ms)
	}
	return resp
}
