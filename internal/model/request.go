package model

import (
	"time"

	"github.com/google/uuid"
)

type (
	RequestType   string
	RequestStatus string
)

const (
	RequestTypeCorrective RequestType = "CORRECTIVE"
	RequestTypePreventive RequestType = "PREVENTIVE"
)

const (
	StatusNew        RequestStatus = "NEW"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusRepaired   RequestStatus = "REPAIRED"
	StatusScrap      RequestStatus = "SCRAP"
)

// requestTransitions is the authoritative status graph. Repaired and Scrap
// are terminal; a request found unsalvageable may go New -> Scrap directly.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusNew:        {StatusInProgress, StatusScrap},
	StatusInProgress: {StatusRepaired, StatusScrap},
	StatusRepaired:   {},
	StatusScrap:      {},
}

func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusRepaired || s == StatusScrap
}

// CanTransitionTo reports whether s -> target is an allowed status change.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (t RequestType) Valid() bool {
	return t == RequestTypeCorrective || t == RequestTypePreventive
}

type Request struct {
	// Unique identifier of the maintenance request.
	ID      uuid.UUID
	Subject string
	// Free-form problem description, optional.
	Description *string
	Type        RequestType
	Status      RequestStatus
	// Equipment the request is raised against.
	EquipmentID uuid.UUID
	// Team responsible for the work; auto-filled from the equipment's
	// default team when not supplied at creation.
	TeamID uuid.UUID
	// Assignee; must be a member of TeamID with a non-Requester role.
	AssignedToID *uuid.UUID
	CreatedByID  uuid.UUID
	// Required for preventive requests.
	ScheduledDate *time.Time
	// Stamped when the request reaches a terminal status.
	CompletedAt *time.Time
	// Hours of work spent; mandatory once the request is repaired.
	DurationHours *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Denormalized views, populated on reads.
	Equipment  *EquipmentSummary
	Team       *TeamSummary
	AssignedTo *UserSummary
	CreatedBy  *UserSummary
}

type CreateRequestParams struct {
	Subject       string
	Description   *string
	Type          RequestType
	EquipmentID   uuid.UUID
	TeamID        *uuid.UUID
	AssignedToID  *uuid.UUID
	ScheduledDate *time.Time
}

type UpdateRequestPatch struct {
	Subject       Optional[string]
	Description   Optional[string]
	ScheduledDate Optional[time.Time]
	AssignedToID  Optional[uuid.UUID]
	DurationHours Optional[float64]
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type RequestFilter struct {
	Status       *RequestStatus
	Type         *RequestType
	EquipmentID  *uuid.UUID
	TeamID       *uuid.UUID
	AssignedToID *uuid.UUID
	CreatedByID  *uuid.UUID
	// Case-insensitive match against subject and description.
	Search string
	Page   uint64
	Limit  uint64
}

// VisibilityScope is the row filter derived from the actor's role, applied
// before any caller-supplied filter. The zero value is unrestricted.
type VisibilityScope struct {
	// Restrict to requests created by this identity (Requester scope).
	CreatedByID *uuid.UUID
	// Restrict to requests assigned to this identity or routed to one of
	// TeamIDs (Technician scope).
	AssignedToID *uuid.UUID
	TeamIDs      []uuid.UUID
}

// Unrestricted reports whether the scope filters nothing.
func (s VisibilityScope) Unrestricted() bool {
	return s.CreatedByID == nil && s.AssignedToID == nil && len(s.TeamIDs) == 0
}

// RequestStatusUpdate carries a compare-and-swap status change: the store
// applies it only while the row is still in From. Nil optional fields are
// left untouched.
type RequestStatusUpdate struct {
	ID            uuid.UUID
	From          RequestStatus
	To            RequestStatus
	AssignedToID  *uuid.UUID
	CompletedAt   *time.Time
	DurationHours *float64
}

type RequestPage struct {
	Items []Request
	Total int64
	Page  uint64
	Limit uint64
}
