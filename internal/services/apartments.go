package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hausakte/hausakte/internal/events"
	"github.com/hausakte/hausakte/internal/logging"
)

// ApartmentDeleter is the REST surface for apartment removal.
// *api.Client satisfies this.
type ApartmentDeleter interface {
	DeleteApartments(ctx context.Context, ids []string) error
}

// ApartmentService handles the bulk deletion of apartments. Deleting
// apartments cascades to their meter readings on the backend; this
// layer only confirms and reports.
type ApartmentService struct {
	client   ApartmentDeleter
	eventBus *events.EventBus
	logger   *logging.Logger
}

// NewApartmentService creates the apartment service.
func NewApartmentService(client ApartmentDeleter, eventBus *events.EventBus) *ApartmentService {
	return &ApartmentService{
		client:   client,
		eventBus: eventBus,
		logger:   logging.NewLogger("apartments"),
	}
}

// DeleteApartments removes the given apartments in one backend call.
// The call is all-or-nothing; on failure nothing was deleted.
func (s *ApartmentService) DeleteApartments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.client.DeleteApartments(ctx, ids); err != nil {
		s.logger.Error().Int("count", len(ids)).Err(err).Msg("Apartment deletion failed")
		if s.eventBus != nil {
			s.eventBus.PublishToast(events.ToastError, "Wohnungen konnten nicht gelöscht werden")
		}
		return err
	}

	s.logger.Info().Int("count", len(ids)).Msg("Deleted apartments")
	if s.eventBus != nil {
		noun := "Wohnungen"
		if len(ids) == 1 {
			noun = "Wohnung"
		}
		s.eventBus.PublishToast(events.ToastSuccess, fmt.Sprintf("%d %s erfolgreich gelöscht", len(ids), noun))
		s.eventBus.Publish(&events.BulkCompletedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventBulkCompleted, Time: time.Now()},
			Operation: "delete_apartments",
			Succeeded: len(ids),
		})
	}
	return nil
}
