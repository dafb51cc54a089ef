package reqproducer

import (
	"context"
	"fmt"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/kafka"
)

type Converter interface {
	RequestCreatedToPayload(e model.RequestCreatedEvent) ([]byte, error)
	StatusChangedToPayload(e model.RequestStatusChangedEvent) ([]byte, error)
	RequestAssignedToPayload(e model.RequestAssignedEvent) ([]byte, error)
}

type service struct {
	producer kafka.Producer
	conv     Converter
}

func NewRequestProducer(producer kafka.Producer, conv Converter) *service {
	return &service{producer: producer, conv: conv}
}

func (s *service) SendRequestCreated(ctx context.Context, event model.RequestCreatedEvent) error {
	payload, err := s.conv.RequestCreatedToPayload(event)
	if err != nil {
		return fmt.Errorf("converter request_created error: %w", err)
	}

	if err := s.producer.Send(ctx, event.RequestID[:], payload); err != nil {
		return fmt.Errorf("producer to request events topic error: %w", err)
	}

	return nil
}

func (s *service) SendStatusChanged(ctx context.Context, event model.RequestStatusChangedEvent) error {
	payload, err := s.conv.StatusChangedToPayload(event)
	if err != nil {
		return fmt.Errorf("converter status_changed error: %w", err)
	}

	if err := s.producer.Send(ctx, event.RequestID[:], payload); err != nil {
		return fmt.Errorf("producer to request events topic error: %w", err)
	}

	return nil
}

func (s *service) SendRequestAssigned(ctx context.Context, event model.RequestAssignedEvent) error {
	payload, err := s.conv.RequestAssignedToPayload(event)
	if err != nil {
		return fmt.Errorf("converter request_assigned error: %w", err)
	}

	if err := s.producer.Send(ctx, event.RequestID[:], payload); err != nil {
		return fmt.Errorf("producer to request events topic error: %w", err)
	}

	return nil
}
