package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/internal/billing"
	"catalog-sync/internal/models"
	"catalog-sync/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidTransition is returned when a provisioning step is applied out of order
var ErrInvalidTransition = errors.New("invalid provisioning transition")

var allowedTransitions = map[string][]string{
	models.ProvisionStatePending:        {models.ProvisionStateProductCreated, models.ProvisionStateFailed},
	models.ProvisionStateProductCreated: {models.ProvisionStatePriceCreated, models.ProvisionStateFailed},
	models.ProvisionStatePriceCreated:   {models.ProvisionStateLinked, models.ProvisionStateFailed},
}

// Provisioning tracks one catalog row through product, price and payment
// link creation. Remote refs are kept even after a failure so orphaned
// objects can be audited.
type Provisioning struct {
	Slug          string
	ProductID     string
	State         string
	ProductRef    string
	PriceRef      string
	PaymentLinkID string
	CheckoutURL   string
	FailedAt      string
	Err           error
}

// NewProvisioning starts a row in the PENDING state
func NewProvisioning(row models.CatalogRow) *Provisioning {
	return &Provisioning{
		Slug:      row.Slug,
		ProductID: row.ProductID,
		State:     models.ProvisionStatePending,
	}
}

// CanTransition reports whether next is reachable from the current state
func (p *Provisioning) CanTransition(next string) bool {
	for _, s := range allowedTransitions[p.State] {
		if s == next {
			return true
		}
	}
	return false
}

func (p *Provisioning) advance(next string) error {
	if !p.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.State, next)
	}
	p.State = next
	return nil
}

// ProductCreated records the remote product id
func (p *Provisioning) ProductCreated(productRef string) error {
	if err := p.advance(models.ProvisionStateProductCreated); err != nil {
		return err
	}
	p.ProductRef = productRef
	return nil
}

// PriceCreated records the remote price id
func (p *Provisioning) PriceCreated(priceRef string) error {
	if err := p.advance(models.ProvisionStatePriceCreated); err != nil {
		return err
	}
	p.PriceRef = priceRef
	return nil
}

// Linked records the payment link, completing the row
func (p *Provisioning) Linked(link *billing.PaymentLink) error {
	if link == nil || link.URL == "" {
		return errors.New("payment link has no url")
	}
	if err := p.advance(models.ProvisionStateLinked); err != nil {
		return err
	}
	p.PaymentLinkID = link.ID
	p.CheckoutURL = link.URL
	return nil
}

// Fail moves the row to FAILED, remembering the state it failed in
func (p *Provisioning) Fail(err error) error {
	from := p.State
	if advanceErr := p.advance(models.ProvisionStateFailed); advanceErr != nil {
		return advanceErr
	}
	p.FailedAt = from
	p.Err = err
	return nil
}

// Succeeded reports whether the row reached LINKED
func (p *Provisioning) Succeeded() bool {
	return p.State == models.ProvisionStateLinked
}

// Transition snapshots the current state for the ledger
func (p *Provisioning) Transition(runID string) *models.ProvisionTransition {
	t := &models.ProvisionTransition{
		RunID:         runID,
		Slug:          p.Slug,
		State:         p.State,
		ProductRef:    p.ProductRef,
		PriceRef:      p.PriceRef,
		PaymentLinkID: p.PaymentLinkID,
		CheckoutURL:   p.CheckoutURL,
		FailedAt:      p.FailedAt,
	}
	if p.Err != nil {
		t.Error = p.Err.Error()
	}
	return t
}

// provisioner runs the product -> price -> payment link chain for a row
type provisioner struct {
	billing  billing.Client
	ledger   Ledger
	currency string
	runID    string
	logger   *zap.Logger
}

func (pr *provisioner) provision(ctx context.Context, row models.CatalogRow, unitAmount int64) *Provisioning {
	ctx, span := util.StartSpan(ctx, "LinkCreator.provision", util.RunAttr(pr.runID), util.SlugAttr(row.Slug))
	defer span.End()

	p := NewProvisioning(row)
	pr.record(ctx, p)

	metadata := map[string]string{
		models.ColumnSlug:      row.Slug,
		models.ColumnProductID: row.ProductID,
	}

	var productRef string
	err := pr.call(ctx, billing.OperationCreateProduct, func(ctx context.Context) error {
		var err error
		productRef, err = pr.billing.CreateProduct(ctx, billing.ProductParams{
			Name:           row.Name,
			Description:    row.ShortDesc,
			Metadata:       metadata,
			IdempotencyKey: pr.idempotencyKey(row.Slug, "product"),
		})
		return err
	})
	if err == nil {
		err = p.ProductCreated(productRef)
	}
	if err != nil {
		return pr.fail(ctx, p, billing.OperationCreateProduct, err)
	}
	pr.record(ctx, p)

	var priceRef string
	err = pr.call(ctx, billing.OperationCreatePrice, func(ctx context.Context) error {
		var err error
		priceRef, err = pr.billing.CreatePrice(ctx, billing.PriceParams{
			ProductID:      p.ProductRef,
			UnitAmount:     unitAmount,
			Currency:       pr.currency,
			IdempotencyKey: pr.idempotencyKey(row.Slug, "price"),
		})
		return err
	})
	if err == nil {
		err = p.PriceCreated(priceRef)
	}
	if err != nil {
		return pr.fail(ctx, p, billing.OperationCreatePrice, err)
	}
	pr.record(ctx, p)

	var link *billing.PaymentLink
	err = pr.call(ctx, billing.OperationCreatePaymentLink, func(ctx context.Context) error {
		var err error
		link, err = pr.billing.CreatePaymentLink(ctx, billing.PaymentLinkParams{
			PriceID:        p.PriceRef,
			Quantity:       1,
			Metadata:       metadata,
			IdempotencyKey: pr.idempotencyKey(row.Slug, "payment_link"),
		})
		return err
	})
	if err == nil {
		err = p.Linked(link)
	}
	if err != nil {
		return pr.fail(ctx, p, billing.OperationCreatePaymentLink, err)
	}
	pr.record(ctx, p)

	return p
}

func (pr *provisioner) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := util.StartSpan(ctx, "billing."+operation)
	defer span.End()

	start := time.Now()
	defer func() {
		util.BillingRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (pr *provisioner) fail(ctx context.Context, p *Provisioning, operation string, err error) *Provisioning {
	if failErr := p.Fail(err); failErr != nil {
		pr.logger.Error("Failed to mark row failed", zap.String("slug", p.Slug), zap.Error(failErr))
	}
	util.LinkFailuresTotal.WithLabelValues(operation).Inc()

	fields := []zap.Field{
		zap.String("slug", p.Slug),
		zap.String("operation", operation),
		zap.String("failed_at", p.FailedAt),
		zap.Error(err),
	}
	if p.ProductRef != "" {
		fields = append(fields, zap.String("orphaned_product", p.ProductRef))
	}
	if p.PriceRef != "" {
		fields = append(fields, zap.String("orphaned_price", p.PriceRef))
	}
	pr.logger.Warn("Provisioning failed", fields...)

	pr.record(ctx, p)
	return p
}

func (pr *provisioner) record(ctx context.Context, p *Provisioning) {
	if err := pr.ledger.RecordTransition(ctx, p.Transition(pr.runID)); err != nil {
		pr.logger.Error("Failed to record provisioning transition",
			zap.String("slug", p.Slug),
			zap.String("state", p.State),
			zap.Error(err))
	}
}

func (pr *provisioner) idempotencyKey(slug, step string) string {
	return fmt.Sprintf("%s:%s:%s", pr.runID, slug, step)
}
