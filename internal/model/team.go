package model

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	// Unique identifier of the maintenance team.
	ID uuid.UUID
	// Team name, unique across the registry.
	Name        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Populated on detail reads.
	Members []UserSummary
}

// TeamSummary is the denormalized team view embedded into request reads.
type TeamSummary struct {
	ID   uuid.UUID
	Name string
}

type CreateTeamParams struct {
	Name        string
	Description *string
	// Initial members; each must hold a non-Requester role.
	MemberIDs []uuid.UUID
}

type UpdateTeamPatch struct {
	Name        Optional[string]
	Description Optional[string]
	IsActive    Optional[bool]
}
