package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog-sync/config"
	"catalog-sync/internal/billing"
	"catalog-sync/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeBilling derives remote ids from the slug so every call can be traced
// back to its row: prod_<slug>, price_<slug>, plink_<slug>.
type fakeBilling struct {
	calls       []string
	products    map[string]billing.ProductParams
	prices      map[string]billing.PriceParams
	links       map[string]billing.PaymentLinkParams
	failProduct map[string]string
	failPrice   map[string]string
	failLink    map[string]string
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		products:    make(map[string]billing.ProductParams),
		prices:      make(map[string]billing.PriceParams),
		links:       make(map[string]billing.PaymentLinkParams),
		failProduct: make(map[string]string),
		failPrice:   make(map[string]string),
		failLink:    make(map[string]string),
	}
}

func (f *fakeBilling) CreateProduct(_ context.Context, p billing.ProductParams) (string, error) {
	slug := p.Metadata[models.ColumnSlug]
	f.calls = append(f.calls, "product:"+slug)
	f.products[slug] = p
	if msg, ok := f.failProduct[slug]; ok {
		return "", &billing.Error{Operation: billing.OperationCreateProduct, Message: msg}
	}
	return "prod_" + slug, nil
}

func (f *fakeBilling) CreatePrice(_ context.Context, p billing.PriceParams) (string, error) {
	slug := strings.TrimPrefix(p.ProductID, "prod_")
	f.calls = append(f.calls, "price:"+slug)
	f.prices[slug] = p
	if msg, ok := f.failPrice[slug]; ok {
		return "", &billing.Error{Operation: billing.OperationCreatePrice, Message: msg}
	}
	return "price_" + slug, nil
}

func (f *fakeBilling) CreatePaymentLink(_ context.Context, p billing.PaymentLinkParams) (*billing.PaymentLink, error) {
	slug := strings.TrimPrefix(p.PriceID, "price_")
	f.calls = append(f.calls, "link:"+slug)
	f.links[slug] = p
	if msg, ok := f.failLink[slug]; ok {
		return nil, &billing.Error{Operation: billing.OperationCreatePaymentLink, Message: msg}
	}
	return &billing.PaymentLink{ID: "plink_" + slug, URL: "https://new/" + slug}, nil
}

type fakeLedger struct {
	transitions []models.ProvisionTransition
}

func (f *fakeLedger) RecordTransition(_ context.Context, t *models.ProvisionTransition) error {
	f.transitions = append(f.transitions, *t)
	return nil
}

func (f *fakeLedger) states(slug string) []string {
	var states []string
	for _, t := range f.transitions {
		if t.Slug == slug {
			states = append(states, t.State)
		}
	}
	return states
}

func (f *fakeLedger) last(slug string) models.ProvisionTransition {
	var last models.ProvisionTransition
	for _, t := range f.transitions {
		if t.Slug == slug {
			last = t
		}
	}
	return last
}

// fakeCheckpoints keys urls by checkpointID(slug, unitAmount)
type fakeCheckpoints struct {
	urls map[string]string
}

func checkpointID(slug string, unitAmount int64) string {
	return fmt.Sprintf("%s:%d", slug, unitAmount)
}

func (f *fakeCheckpoints) GetCheckpoint(_ context.Context, slug string, unitAmount int64) (string, bool, error) {
	url, ok := f.urls[checkpointID(slug, unitAmount)]
	return url, ok, nil
}

func (f *fakeCheckpoints) SaveCheckpoint(_ context.Context, slug string, unitAmount int64, url string) error {
	f.urls[checkpointID(slug, unitAmount)] = url
	return nil
}

type fakePublisher struct {
	provisioned []*models.LinkProvisionedEvent
	failed      []*models.LinkProvisionFailedEvent
	merged      []*models.CatalogMergedEvent
}

func (f *fakePublisher) PublishLinkProvisioned(_ context.Context, e *models.LinkProvisionedEvent) error {
	f.provisioned = append(f.provisioned, e)
	return nil
}

func (f *fakePublisher) PublishLinkProvisionFailed(_ context.Context, e *models.LinkProvisionFailedEvent) error {
	f.failed = append(f.failed, e)
	return nil
}

func (f *fakePublisher) PublishCatalogMerged(_ context.Context, e *models.CatalogMergedEvent) error {
	f.merged = append(f.merged, e)
	return nil
}

const catalogHeader = "slug,name,category,price_usd,short_desc,product_id,checkout_url\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env: "test",
		Billing: config.BillingConfig{
			SecretKey: "sk_test_123",
			Currency:  "usd",
		},
		Paths: config.PathsConfig{
			Catalog: filepath.Join(dir, "products.collection.csv"),
			Results: filepath.Join(dir, "stripe_new_links.csv"),
			Mirror:  filepath.Join(dir, "products.mirror.csv"),
		},
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
