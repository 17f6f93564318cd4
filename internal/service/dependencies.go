package service

import (
	"context"

	"catalog-sync/internal/models"
)

// Ledger records provisioning state transitions for auditing
type Ledger interface {
	RecordTransition(ctx context.Context, t *models.ProvisionTransition) error
}

// Checkpoints remembers links created by earlier, interrupted runs, keyed
// by slug and unit amount
type Checkpoints interface {
	GetCheckpoint(ctx context.Context, slug string, unitAmount int64) (string, bool, error)
	SaveCheckpoint(ctx context.Context, slug string, unitAmount int64, checkoutURL string) error
}

// EventPublisher announces row outcomes and merges
type EventPublisher interface {
	PublishLinkProvisioned(ctx context.Context, event *models.LinkProvisionedEvent) error
	PublishLinkProvisionFailed(ctx context.Context, event *models.LinkProvisionFailedEvent) error
	PublishCatalogMerged(ctx context.Context, event *models.CatalogMergedEvent) error
}

type nopLedger struct{}

func (nopLedger) RecordTransition(context.Context, *models.ProvisionTransition) error { return nil }

type nopCheckpoints struct{}

func (nopCheckpoints) GetCheckpoint(context.Context, string, int64) (string, bool, error) {
	return "", false, nil
}

func (nopCheckpoints) SaveCheckpoint(context.Context, string, int64, string) error { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishLinkProvisioned(context.Context, *models.LinkProvisionedEvent) error {
	return nil
}

func (nopPublisher) PublishLinkProvisionFailed(context.Context, *models.LinkProvisionFailedEvent) error {
	return nil
}

func (nopPublisher) PublishCatalogMerged(context.Context, *models.CatalogMergedEvent) error {
	return nil
}
