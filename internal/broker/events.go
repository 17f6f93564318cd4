package broker

import (
	"context"
	"fmt"

	"catalog-sync/internal/models"
)

// eventWriter is satisfied by Producer
type eventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing catalog sync events
type EventPublisher struct {
	producer eventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishLinkProvisioned publishes LinkProvisioned event keyed by slug
func (ep *EventPublisher) PublishLinkProvisioned(ctx context.Context, event *models.LinkProvisionedEvent) error {
	return ep.producer.PublishEvent(ctx, slugKey(event.Slug), event)
}

// PublishLinkProvisionFailed publishes LinkProvisionFailed event keyed by slug
func (ep *EventPublisher) PublishLinkProvisionFailed(ctx context.Context, event *models.LinkProvisionFailedEvent) error {
	return ep.producer.PublishEvent(ctx, slugKey(event.Slug), event)
}

// PublishCatalogMerged publishes CatalogMerged event keyed by run
func (ep *EventPublisher) PublishCatalogMerged(ctx context.Context, event *models.CatalogMergedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("merge-%s", event.RunID), event)
}

func slugKey(slug string) string {
	return fmt.Sprintf("slug-%s", slug)
}
