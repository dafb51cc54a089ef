package converter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/you-humble/gearguard/internal/model"
)

const (
	eventTypeCreated       = "request.created"
	eventTypeStatusChanged = "request.status_changed"
	eventTypeAssigned      = "request.assigned"
)

type converter struct{}

func NewKafkaConverter() *converter { return &converter{} }

type envelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type createdPayload struct {
	RequestID   string `json:"request_id"`
	Subject     string `json:"subject"`
	RequestType string `json:"request_type"`
	EquipmentID string `json:"equipment_id"`
	TeamID      string `json:"team_id"`
	CreatedByID string `json:"created_by_id"`
}

type statusChangedPayload struct {
	RequestID  string `json:"request_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
}

type assignedPayload struct {
	RequestID  string `json:"request_id"`
	AssigneeID string `json:"assignee_id"`
	ActorID    string `json:"actor_id"`
}

func (c *converter) RequestCreatedToPayload(e model.RequestCreatedEvent) ([]byte, error) {
	return marshal(envelope{
		EventID:    e.EventID.String(),
		EventType:  eventTypeCreated,
		OccurredAt: e.OccurredAt,
		Payload: createdPayload{
			RequestID:   e.RequestID.String(),
			Subject:     e.Subject,
			RequestType: string(e.Type),
			EquipmentID: e.EquipmentID.String(),
			TeamID:      e.TeamID.String(),
			CreatedByID: e.CreatedByID.String(),
		},
	})
}

func (c *converter) StatusChangedToPayload(e model.RequestStatusChangedEvent) ([]byte, error) {
	return marshal(envelope{
		EventID:    e.EventID.String(),
		EventType:  eventTypeStatusChanged,
		OccurredAt: e.OccurredAt,
		Payload: statusChangedPayload{
			RequestID:  e.RequestID.String(),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID.String(),
		},
	})
}

func (c *converter) RequestAssignedToPayload(e model.RequestAssignedEvent) ([]byte, error) {
	return marshal(envelope{
		EventID:    e.EventID.String(),
		EventType:  eventTypeAssigned,
		OccurredAt: e.OccurredAt,
		Payload: assignedPayload{
			RequestID:  e.RequestID.String(),
			AssigneeID: e.AssigneeID.String(),
			ActorID:    e.ActorID.String(),
		},
	})
}

func marshal(env envelope) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}
