package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"catalog-sync/config"
	"catalog-sync/internal/billing"
	"catalog-sync/internal/catalog"
	"catalog-sync/internal/models"
	"catalog-sync/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var creatorColumns = []string{
	models.ColumnSlug,
	models.ColumnName,
	models.ColumnPriceUSD,
	models.ColumnShortDesc,
	models.ColumnProductID,
	models.ColumnCheckoutURL,
}

// CreateReport summarizes a Link Creator run
type CreateReport struct {
	RunID          string
	Pending        int
	Processed      int
	Reused         int
	Results        []models.LinkResult
	Errors         []models.ProvisionError
	ResultsWritten bool
}

// LinkCreator provisions payment links for catalog rows without a checkout URL
type LinkCreator struct {
	billingCfg  config.BillingConfig
	paths       config.PathsConfig
	provisioner *provisioner
	checkpoints Checkpoints
	events      EventPublisher
	out         io.Writer
	logger      *zap.Logger
	runID       string
}

// NewLinkCreator creates a new link creator. ledger, checkpoints and events
// may be nil to disable them; out receives the human-readable run report.
func NewLinkCreator(
	cfg *config.Config,
	client billing.Client,
	ledger Ledger,
	checkpoints Checkpoints,
	events EventPublisher,
	out io.Writer,
) *LinkCreator {
	if ledger == nil {
		ledger = nopLedger{}
	}
	if checkpoints == nil {
		checkpoints = nopCheckpoints{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	if out == nil {
		out = io.Discard
	}

	runID := uuid.New().String()
	logger := util.GetLogger().With(zap.String("run_id", runID))

	return &LinkCreator{
		billingCfg: cfg.Billing,
		paths:      cfg.Paths,
		provisioner: &provisioner{
			billing:  client,
			ledger:   ledger,
			currency: cfg.Billing.Currency,
			runID:    runID,
			logger:   logger,
		},
		checkpoints: checkpoints,
		events:      events,
		out:         out,
		logger:      logger,
		runID:       runID,
	}
}

// RunID identifies this creator's run in the ledger, events and idempotency keys
func (lc *LinkCreator) RunID() string {
	return lc.runID
}

type pendingRow struct {
	row        models.CatalogRow
	unitAmount int64
}

// Run provisions every pending row and writes the results file. Per-row
// failures are collected in the report; structural problems are returned
// before any remote call is made.
func (lc *LinkCreator) Run(ctx context.Context) (*CreateReport, error) {
	ctx, span := util.StartSpan(ctx, "LinkCreator.Run", util.RunAttr(lc.runID))
	defer span.End()

	if err := lc.billingCfg.RequireSecretKey(); err != nil {
		return nil, err
	}

	cat, err := catalog.Read(lc.paths.Catalog)
	if err != nil {
		return nil, err
	}
	if err := cat.Require(creatorColumns...); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", lc.paths.Catalog, err)
	}

	report := &CreateReport{RunID: lc.runID}

	var rows []models.CatalogRow
	for i := 0; i < cat.Len(); i++ {
		row := cat.Row(i)
		if strings.TrimSpace(row.CheckoutURL) == "" {
			rows = append(rows, row)
		}
	}
	report.Pending = len(rows)

	fmt.Fprintf(lc.out, "Found %d products without a checkout URL.\n", len(rows))
	if len(rows) == 0 {
		fmt.Fprintln(lc.out, "Nothing to do.")
		return report, nil
	}

	pending := make([]pendingRow, 0, len(rows))
	for _, row := range rows {
		unitAmount, err := ParsePriceCents(row.PriceUSD)
		if err != nil {
			return nil, fmt.Errorf("catalog row %q: %w", row.Slug, err)
		}
		pending = append(pending, pendingRow{row: row, unitAmount: unitAmount})
	}

	lc.logger.Info("Provisioning payment links", zap.Int("pending", len(pending)))

	var interrupted error
	for i, item := range pending {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}

		row := item.row
		fmt.Fprintf(lc.out, "[%d/%d] %s ($%s) ... ", i+1, len(pending), row.Name, row.PriceUSD)

		if url, ok := lc.checkpoint(ctx, row.Slug, item.unitAmount); ok {
			report.Results = append(report.Results, models.LinkResult{Slug: row.Slug, CheckoutURL: url})
			report.Reused++
			report.Processed++
			util.LinksReusedTotal.Inc()
			fmt.Fprintf(lc.out, "✓ %s (checkpoint)\n", url)
			lc.publishProvisioned(ctx, row, &Provisioning{Slug: row.Slug, CheckoutURL: url}, true)
			continue
		}

		p := lc.provisioner.provision(ctx, row, item.unitAmount)
		report.Processed++

		if p.Succeeded() {
			report.Results = append(report.Results, models.LinkResult{Slug: row.Slug, CheckoutURL: p.CheckoutURL})
			util.LinksCreatedTotal.Inc()
			fmt.Fprintf(lc.out, "✓ %s\n", p.CheckoutURL)
			lc.saveCheckpoint(ctx, row.Slug, item.unitAmount, p.CheckoutURL)
			lc.publishProvisioned(ctx, row, p, false)
		} else {
			report.Errors = append(report.Errors, models.ProvisionError{Slug: row.Slug, Message: p.Err.Error()})
			fmt.Fprintf(lc.out, "✗ ERROR: %s\n", p.Err.Error())
			lc.publishFailed(ctx, row, p)
		}

		if err := lc.pause(ctx); err != nil {
			interrupted = err
			break
		}
	}

	if err := catalog.WriteResults(lc.paths.Results, report.Results); err != nil {
		return report, err
	}
	report.ResultsWritten = true

	fmt.Fprintf(lc.out, "\nDone. %d links created, %d errors.\n", len(report.Results), len(report.Errors))
	fmt.Fprintf(lc.out, "Output written to: %s\n", lc.paths.Results)

	if len(report.Errors) > 0 {
		fmt.Fprintln(lc.out, "\nFailed slugs:")
		for _, e := range report.Errors {
			fmt.Fprintf(lc.out, "  %s: %s\n", e.Slug, e.Message)
		}
	}

	lc.logger.Info("Link creation finished",
		zap.Int("created", len(report.Results)),
		zap.Int("reused", report.Reused),
		zap.Int("errors", len(report.Errors)))

	if interrupted != nil {
		return report, fmt.Errorf("run interrupted after %d of %d rows: %w", report.Processed, len(pending), interrupted)
	}
	return report, nil
}

// pause applies the fixed inter-row delay that keeps us under the provider's rate limit
func (lc *LinkCreator) pause(ctx context.Context) error {
	if lc.billingCfg.RowDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(lc.billingCfg.RowDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (lc *LinkCreator) checkpoint(ctx context.Context, slug string, unitAmount int64) (string, bool) {
	url, found, err := lc.checkpoints.GetCheckpoint(ctx, slug, unitAmount)
	if err != nil {
		lc.logger.Error("Failed to read checkpoint", zap.String("slug", slug), zap.Error(err))
		return "", false
	}
	if !found || strings.TrimSpace(url) == "" {
		return "", false
	}
	return url, true
}

func (lc *LinkCreator) saveCheckpoint(ctx context.Context, slug string, unitAmount int64, url string) {
	if err := lc.checkpoints.SaveCheckpoint(ctx, slug, unitAmount, url); err != nil {
		lc.logger.Error("Failed to save checkpoint", zap.String("slug", slug), zap.Error(err))
	}
}

func (lc *LinkCreator) publishProvisioned(ctx context.Context, row models.CatalogRow, p *Provisioning, fromCheckpoint bool) {
	event := &models.LinkProvisionedEvent{
		BaseEvent:      lc.baseEvent(models.EventTypeLinkProvisioned),
		Slug:           row.Slug,
		ProductID:      row.ProductID,
		ProductRef:     p.ProductRef,
		PriceRef:       p.PriceRef,
		PaymentLinkID:  p.PaymentLinkID,
		CheckoutURL:    p.CheckoutURL,
		FromCheckpoint: fromCheckpoint,
	}

	if err := lc.events.PublishLinkProvisioned(ctx, event); err != nil {
		lc.logger.Error("Failed to publish LinkProvisioned event", zap.Error(err))
	}
}

func (lc *LinkCreator) publishFailed(ctx context.Context, row models.CatalogRow, p *Provisioning) {
	event := &models.LinkProvisionFailedEvent{
		BaseEvent:  lc.baseEvent(models.EventTypeLinkProvisionFailed),
		Slug:       row.Slug,
		ProductID:  row.ProductID,
		FailedAt:   p.FailedAt,
		ProductRef: p.ProductRef,
		PriceRef:   p.PriceRef,
		Reason:     p.Err.Error(),
	}

	if err := lc.events.PublishLinkProvisionFailed(ctx, event); err != nil {
		lc.logger.Error("Failed to publish LinkProvisionFailed event", zap.Error(err))
	}
}

func (lc *LinkCreator) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		RunID:     lc.runID,
		Timestamp: time.Now(),
	}
}
