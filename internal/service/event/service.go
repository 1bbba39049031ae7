package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
)

// Service stages domain events in the outbox table. A separate worker
// publishes them, so request handling never blocks on the broker.
type Service struct {
	outbox repository.OutboxRepository
}

func NewService(outbox repository.OutboxRepository) *Service {
	return &Service{outbox: outbox}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return s.outbox.Create(ctx, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    model.OutboxStatusPending,
	})
}
