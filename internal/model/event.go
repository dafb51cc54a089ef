package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestCreatedEvent struct {
	EventID     uuid.UUID
	RequestID   uuid.UUID
	Subject     string
	Type        RequestType
	EquipmentID uuid.UUID
	TeamID      uuid.UUID
	CreatedByID uuid.UUID
	OccurredAt  time.Time
}

type RequestStatusChangedEvent struct {
	EventID    uuid.UUID
	RequestID  uuid.UUID
	FromStatus RequestStatus
	ToStatus   RequestStatus
	ActorID    uuid.UUID
	OccurredAt time.Time
}

type RequestAssignedEvent struct {
	EventID    uuid.UUID
	RequestID  uuid.UUID
	AssigneeID uuid.UUID
	ActorID    uuid.UUID
	OccurredAt time.Time
}
