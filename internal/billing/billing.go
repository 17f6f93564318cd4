package billing

import "context"

// ProductParams describes a product to create
type ProductParams struct {
	Name           string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// PriceParams describes a one-time price for an existing product
type PriceParams struct {
	ProductID      string
	UnitAmount     int64 // minor currency units
	Currency       string
	IdempotencyKey string
}

// PaymentLinkParams describes a payment link selling one price
type PaymentLinkParams struct {
	PriceID        string
	Quantity       int64
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentLink is a created payment link
type PaymentLink struct {
	ID  string
	URL string
}

// Client is the subset of the billing provider used to provision catalog rows
type Client interface {
	CreateProduct(ctx context.Context, params ProductParams) (string, error)
	CreatePrice(ctx context.Context, params PriceParams) (string, error)
	CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (*PaymentLink, error)
}

// Error is a failed billing call. Error() returns the provider's message verbatim.
type Error struct {
	Operation  string
	HTTPStatus int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}
