package store

import (
	"context"

	"catalog-sync/internal/models"
)

// RecordTransition appends a provisioning state transition to the ledger
func (s *Store) RecordTransition(ctx context.Context, t *models.ProvisionTransition) error {
	query := `
		INSERT INTO provisioning_transitions
			(run_id, slug, state, product_ref, price_ref, payment_link_id, checkout_url, failed_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		t.RunID, t.Slug, t.State, t.ProductRef, t.PriceRef,
		t.PaymentLinkID, t.CheckoutURL, t.FailedAt, t.Error,
	).Scan(&t.ID, &t.CreatedAt)
}

// GetTransitionsBySlug returns the ledger history for a slug, oldest first
func (s *Store) GetTransitionsBySlug(ctx context.Context, slug string) ([]models.ProvisionTransition, error) {
	var transitions []models.ProvisionTransition
	err := s.db.SelectContext(ctx, &transitions,
		"SELECT * FROM provisioning_transitions WHERE slug = $1 ORDER BY created_at, id", slug)
	return transitions, err
}

// GetOrphanedTransitions returns the last transition of every slug in a run
// that ended FAILED after a product was already created remotely.
func (s *Store) GetOrphanedTransitions(ctx context.Context, runID string) ([]models.ProvisionTransition, error) {
	var transitions []models.ProvisionTransition
	err := s.db.SelectContext(ctx, &transitions, `
		SELECT * FROM provisioning_transitions
		WHERE run_id = $1 AND state = $2 AND product_ref <> ''
		ORDER BY id`,
		runID, models.ProvisionStateFailed)
	return transitions, err
}
