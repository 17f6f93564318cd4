package models

import "time"

// Catalog column names
const (
	ColumnSlug        = "slug"
	ColumnName        = "name"
	ColumnPriceUSD    = "price_usd"
	ColumnShortDesc   = "short_desc"
	ColumnProductID   = "product_id"
	ColumnCheckoutURL = "checkout_url"
)

// CatalogRow is the semantic view of one catalog record
type CatalogRow struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	PriceUSD    string `json:"price_usd"`
	ShortDesc   string `json:"short_desc"`
	ProductID   string `json:"product_id"`
	CheckoutURL string `json:"checkout_url"`
}

// LinkResult maps a provisioned slug to its payment link URL
type LinkResult struct {
	Slug        string `json:"slug"`
	CheckoutURL string `json:"checkout_url"`
}

// ProvisionError records why a row could not be provisioned
type ProvisionError struct {
	Slug    string `json:"slug"`
	Message string `json:"message"`
}

// Provisioning states
const (
	ProvisionStatePending        = "PENDING"
	ProvisionStateProductCreated = "PRODUCT_CREATED"
	ProvisionStatePriceCreated   = "PRICE_CREATED"
	ProvisionStateLinked         = "LINKED"
	ProvisionStateFailed         = "FAILED"
)

// ProvisionTransition is one row of the provisioning ledger
type ProvisionTransition struct {
	ID            int64     `db:"id" json:"id"`
	RunID         string    `db:"run_id" json:"run_id"`
	Slug          string    `db:"slug" json:"slug"`
	State         string    `db:"state" json:"state"`
	ProductRef    string    `db:"product_ref" json:"product_ref,omitempty"`
	PriceRef      string    `db:"price_ref" json:"price_ref,omitempty"`
	PaymentLinkID string    `db:"payment_link_id" json:"payment_link_id,omitempty"`
	CheckoutURL   string    `db:"checkout_url" json:"checkout_url,omitempty"`
	FailedAt      string    `db:"failed_at" json:"failed_at,omitempty"`
	Error         string    `db:"error" json:"error,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
