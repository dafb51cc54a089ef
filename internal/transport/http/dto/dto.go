// Package dto holds the JSON shapes of the public API and the converters
// from the domain model.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/you-humble/gearguard/internal/model"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Equipment struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	SerialNumber   string     `json:"serial_number"`
	Category       string     `json:"category"`
	Department     string     `json:"department"`
	Location       string     `json:"location"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id"`
	DefaultTeamID  *uuid.UUID `json:"default_team_id"`
	IsScrap        bool       `json:"is_scrap"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type EquipmentSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SerialNumber string    `json:"serial_number"`
	Category     string    `json:"category"`
	IsScrap      bool      `json:"is_scrap"`
}

type EquipmentStats struct {
	TotalRequests      int64    `json:"total_requests"`
	OpenRequests       int64    `json:"open_requests"`
	AverageDurationHrs *float64 `json:"average_duration_hours"`
}

type Team struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Members     []UserSummary `json:"members,omitempty"`
}

type TeamSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Request struct {
	ID            uuid.UUID  `json:"id"`
	Subject       string     `json:"subject"`
	Description   *string    `json:"description"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	EquipmentID   uuid.UUID  `json:"equipment_id"`
	TeamID        uuid.UUID  `json:"team_id"`
	AssignedToID  *uuid.UUID `json:"assigned_to_id"`
	CreatedByID   uuid.UUID  `json:"created_by_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	DurationHours *float64   `json:"duration_hours"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Equipment  *EquipmentSummary `json:"equipment,omitempty"`
	Team       *TeamSummary      `json:"team,omitempty"`
	AssignedTo *UserSummary      `json:"assigned_to,omitempty"`
	CreatedBy  *UserSummary      `json:"created_by,omitempty"`
}

type RequestPage struct {
	Items []Request `json:"items"`
	Total int64     `json:"total"`
	Page  uint64    `json:"page"`
	Limit uint64    `json:"limit"`
}

type StatusCounts struct {
	New        int64 `json:"new"`
	InProgress int64 `json:"in_progress"`
	Repaired   int64 `json:"repaired"`
	Scrap      int64 `json:"scrap"`
}

type TeamReport struct {
	TeamID   uuid.UUID    `json:"team_id"`
	TeamName string       `json:"team_name"`
	Counts   StatusCounts `json:"counts"`
}

type CategoryReport struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

type StatusReport struct {
	Status     string  `json:"status"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DurationBucket struct {
	Key          string  `json:"key"`
	Requests     int64   `json:"requests"`
	AverageHours float64 `json:"average_hours"`
}

type DurationAnalysis struct {
	OverallAverageHours float64          `json:"overall_average_hours"`
	RepairedRequests    int64            `json:"repaired_requests"`
	ByType              []DurationBucket `json:"by_type"`
	ByCategory          []DurationBucket `json:"by_category"`
	ByTeam              []DurationBucket `json:"by_team"`
}

type DashboardStats struct {
	Counts         StatusCounts `json:"counts"`
	OverdueCount   int64        `json:"overdue_count"`
	EquipmentTotal int64        `json:"equipment_total"`
	ScrappedCount  int64        `json:"scrapped_count"`
}

func UserFromModel(u model.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func UsersFromModel(users []model.User) []User {
	return lo.Map(users, func(u model.User, _ int) User { return UserFromModel(u) })
}

func userSummaryFromModel(s model.UserSummary) UserSummary {
	return UserSummary{ID: s.ID, Name: s.Name, Email: s.Email, Role: string(s.Role)}
}

func LoginResultFromModel(res model.LoginResult) LoginResult {
	return LoginResult{Token: res.Token, User: UserFromModel(res.User)}
}

func EquipmentFromModel(e model.Equipment) Equipment {
	return Equipment{
		ID:             e.ID,
		Name:           e.Name,
		SerialNumber:   e.SerialNumber,
		Category:       e.Category,
		Department:     e.Department,
		Location:       e.Location,
		PurchaseDate:   e.PurchaseDate,
		WarrantyExpiry: e.WarrantyExpiry,
		AssignedToID:   e.AssignedToID,
		DefaultTeamID:  e.DefaultTeamID,
		IsScrap:        e.IsScrap,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func EquipmentListFromModel(items []model.Equipment) []Equipment {
	return lo.Map(items, func(e model.Equipment, _ int) Equipment { return EquipmentFromModel(e) })
}

func EquipmentStatsFromModel(s model.EquipmentStats) EquipmentStats {
	return EquipmentStats{
		TotalRequests:      s.TotalRequests,
		OpenRequests:       s.OpenRequests,
		AverageDurationHrs: s.AverageDurationHrs,
	}
}

func TeamFromModel(t model.Team) Team {
	return Team{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Members: lo.Map(t.Members, func(m model.UserSummary, _ int) UserSummary {
			return userSummaryFromModel(m)
		}),
	}
}

func TeamsFromModel(teams []model.Team) []Team {
	return lo.Map(teams, func(t model.Team, _ int) Team { return TeamFromModel(t) })
}

func RequestFromModel(r model.Request) Request {
	out := Request{
		ID:            r.ID,
		Subject:       r.Subject,
		Description:   r.Description,
		Type:          string(r.Type),
		Status:        string(r.Status),
		EquipmentID:   r.EquipmentID,
		TeamID:        r.TeamID,
		AssignedToID:  r.AssignedToID,
		CreatedByID:   r.CreatedByID,
		ScheduledDate: r.ScheduledDate,
		CompletedAt:   r.CompletedAt,
		DurationHours: r.DurationHours,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if r.Equipment != nil {
		out.Equipment = &EquipmentSummary{
			ID:           r.Equipment.ID,
			Name:         r.Equipment.Name,
			SerialNumber: r.Equipment.SerialNumber,
			Category:     r.Equipment.Category,
			IsScrap:      r.Equipment.IsScrap,
		}
	}
	if r.Team != nil {
		out.Team = &TeamSummary{ID: r.Team.ID, Name: r.Team.Name}
	}
	if r.AssignedTo != nil {
		assignee := userSummaryFromModel(*r.AssignedTo)
		out.AssignedTo = &assignee
	}
	if r.CreatedBy != nil {
		creator := userSummaryFromModel(*r.CreatedBy)
		out.CreatedBy = &creator
	}

	return out
}

func RequestsFromModel(items []model.Request) []Request {
	return lo.Map(items, func(r model.Request, _ int) Request { return RequestFromModel(r) })
}

func RequestPageFromModel(page model.RequestPage) RequestPage {
	return RequestPage{
		Items: RequestsFromModel(page.Items),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}

func TeamReportsFromModel(reports []model.TeamReport) []TeamReport {
	return lo.Map(reports, func(r model.TeamReport, _ int) TeamReport {
		return TeamReport{
			TeamID:   r.TeamID,
			TeamName: r.TeamName,
			Counts:   statusCountsFromModel(r.Counts),
		}
	})
}

func CategoryReportsFromModel(reports []model.CategoryReport) []CategoryReport {
	return lo.Map(reports, func(r model.CategoryReport, _ int) CategoryReport {
		return CategoryReport{Category: r.Category, Total: r.Total}
	})
}

func StatusReportsFromModel(reports []model.StatusReport) []StatusReport {
	return lo.Map(reports, func(r model.StatusReport, _ int) StatusReport {
		return StatusReport{Status: string(r.Status), Count: r.Count, Percentage: r.Percentage}
	})
}

func DurationAnalysisFromModel(a model.DurationAnalysis) DurationAnalysis {
	return DurationAnalysis{
		OverallAverageHours: a.OverallAverageHours,
		RepairedRequests:    a.RepairedRequests,
		ByType:              bucketsFromModel(a.ByType),
		ByCategory:          bucketsFromModel(a.ByCategory),
		ByTeam:              bucketsFromModel(a.ByTeam),
	}
}

func DashboardFromModel(s model.DashboardStats) DashboardStats {
	return DashboardStats{
		Counts:         statusCountsFromModel(s.Counts),
		OverdueCount:   s.OverdueCount,
		EquipmentTotal: s.EquipmentTotal,
		ScrappedCount:  s.ScrappedCount,
	}
}

func statusCountsFromModel(c model.StatusCounts) StatusCounts {
	return StatusCounts{
		New:        c.New,
		InProgress: c.InProgress,
		Repaired:   c.Repaired,
		Scrap:      c.Scrap,
	}
}

func bucketsFromModel(buckets []model.DurationBucket) []DurationBucket {
	return lo.Map(buckets, func(b model.DurationBucket, _ int) DurationBucket {
		return DurationBucket{Key: b.Key, Requests: b.Requests, AverageHours: b.AverageHours}
	})
}
