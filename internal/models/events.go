package models

import "time"

// Event types
const (
	EventTypeLinkProvisioned     = "LINK_PROVISIONED"
	EventTypeLinkProvisionFailed = "LINK_PROVISION_FAILED"
	EventTypeCatalogMerged       = "CATALOG_MERGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// LinkProvisionedEvent published when a row reaches the LINKED state
type LinkProvisionedEvent struct {
	BaseEvent
	Slug           string `json:"slug"`
	ProductID      string `json:"product_id"`
	ProductRef     string `json:"product_ref,omitempty"`
	PriceRef       string `json:"price_ref,omitempty"`
	PaymentLinkID  string `json:"payment_link_id,omitempty"`
	CheckoutURL    string `json:"checkout_url"`
	FromCheckpoint bool   `json:"from_checkpoint"`
}

// LinkProvisionFailedEvent published when a row ends in the FAILED state
type LinkProvisionFailedEvent struct {
	BaseEvent
	Slug       string `json:"slug"`
	ProductID  string `json:"product_id"`
	FailedAt   string `json:"failed_at"`
	ProductRef string `json:"product_ref,omitempty"`
	PriceRef   string `json:"price_ref,omitempty"`
	Reason     string `json:"reason"`
}

// CatalogMergedEvent published after the catalog has been rewritten
type CatalogMergedEvent struct {
	BaseEvent
	LinksLoaded int      `json:"links_loaded"`
	RowsUpdated int      `json:"rows_updated"`
	RowsFilled  int      `json:"rows_filled"`
	RowsTotal   int      `json:"rows_total"`
	Missing     []string `json:"missing,omitempty"`
}
