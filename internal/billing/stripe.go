package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// Operation names reported in Error.Operation
const (
	OperationCreateProduct     = "create_product"
	OperationCreatePrice       = "create_price"
	OperationCreatePaymentLink = "create_payment_link"
)

// StripeClient provisions products, prices and payment links through Stripe
type StripeClient struct {
	api *client.API
}

// NewStripeClient creates a Stripe client. apiURL overrides the Stripe API
// base URL when non-empty. Network retries are disabled: a failed call
// fails the row and is retried by the operator on the next run.
func NewStripeClient(secretKey, apiURL string, logger *zap.Logger) *StripeClient {
	sugar := logger.Named("stripe").Sugar()

	backend := func(kind stripe.SupportedBackend, url string) stripe.Backend {
		cfg := &stripe.BackendConfig{
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     sugar,
		}
		if url != "" {
			cfg.URL = stripe.String(url)
		}
		return stripe.GetBackendWithConfig(kind, cfg)
	}

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     backend(stripe.APIBackend, apiURL),
		Connect: backend(stripe.ConnectBackend, ""),
		Uploads: backend(stripe.UploadsBackend, ""),
	})

	return &StripeClient{api: api}
}

// CreateProduct creates a product and returns its id
func (c *StripeClient) CreateProduct(ctx context.Context, p ProductParams) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	product, err := c.api.Products.New(params)
	if err != nil {
		return "", wrapError(OperationCreateProduct, err)
	}
	return product.ID, nil
}

// CreatePrice creates a one-time price and returns its id
func (c *StripeClient) CreatePrice(ctx context.Context, p PriceParams) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(p.ProductID),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Currency:   stripe.String(p.Currency),
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	price, err := c.api.Prices.New(params)
	if err != nil {
		return "", wrapError(OperationCreatePrice, err)
	}
	return price.ID, nil
}

// CreatePaymentLink creates a payment link for a single price
func (c *StripeClient) CreatePaymentLink(ctx context.Context, p PaymentLinkParams) (*PaymentLink, error) {
	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}

	link, err := c.api.PaymentLinks.New(params)
	if err != nil {
		return nil, wrapError(OperationCreatePaymentLink, err)
	}
	return &PaymentLink{ID: link.ID, URL: link.URL}, nil
}

func wrapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return &Error{
			Operation:  op,
			HTTPStatus: stripeErr.HTTPStatusCode,
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
		}
	}
	return &Error{Operation: op, Message: err.Error()}
}
