package model

import (
	"time"

	"github.com/google/uuid"
)

type Equipment struct {
	// Unique identifier of the equipment item.
	ID   uuid.UUID
	Name string
	// Manufacturer serial number, unique across the registry.
	SerialNumber string
	Category     string
	Department   string
	Location     string
	PurchaseDate *time.Time
	// Must not precede PurchaseDate when both are set.
	WarrantyExpiry *time.Time
	// Employee the equipment is handed out to, if any.
	AssignedToID *uuid.UUID
	// Team that maintenance requests are routed to when none is given.
	DefaultTeamID *uuid.UUID
	// One-way flag: once scrapped the equipment is retired and cannot be
	// the target of new maintenance requests.
	IsScrap   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EquipmentSummary is the denormalized equipment view embedded into request reads.
type EquipmentSummary struct {
	ID           uuid.UUID
	Name         string
	SerialNumber string
	Category     string
	IsScrap      bool
}

type CreateEquipmentParams struct {
	Name           string
	SerialNumber   string
	Category       string
	Department     string
	Location       string
	PurchaseDate   *time.Time
	WarrantyExpiry *time.Time
	AssignedToID   *uuid.UUID
	DefaultTeamID  *uuid.UUID
}

type UpdateEquipmentPatch struct {
	Name           Optional[string]
	Category       Optional[string]
	Department     Optional[string]
	Location       Optional[string]
	PurchaseDate   Optional[time.Time]
	WarrantyExpiry Optional[time.Time]
	AssignedToID   Optional[uuid.UUID]
	DefaultTeamID  Optional[uuid.UUID]
}

// EquipmentStats summarizes the maintenance history of one equipment item.
type EquipmentStats struct {
	TotalRequests      int64
	OpenRequests       int64
	AverageDurationHrs *float64
}
