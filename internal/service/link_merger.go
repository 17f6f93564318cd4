package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"catalog-sync/config"
	"catalog-sync/internal/catalog"
	"catalog-sync/internal/models"
	"catalog-sync/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrResultsNotFound is returned when the link results file does not exist
var ErrResultsNotFound = errors.New("not found")

// MergeReport summarizes a Link Merger run
type MergeReport struct {
	RunID       string
	LinksLoaded int
	RowsUpdated int
	RowsFilled  int
	RowsTotal   int
	Missing     []string
	MirrorErr   error
}

// Complete reports whether every catalog row has a checkout URL
func (r *MergeReport) Complete() bool {
	return r.RowsFilled == r.RowsTotal
}

// LinkMerger writes checkout URLs from a results file back into the catalog
type LinkMerger struct {
	paths  config.PathsConfig
	events EventPublisher
	out    io.Writer
	logger *zap.Logger
	runID  string
}

// NewLinkMerger creates a new link merger; events may be nil
func NewLinkMerger(cfg *config.Config, events EventPublisher, out io.Writer) *LinkMerger {
	if events == nil {
		events = nopPublisher{}
	}
	if out == nil {
		out = io.Discard
	}

	runID := uuid.New().String()

	return &LinkMerger{
		paths:  cfg.Paths,
		events: events,
		out:    out,
		logger: util.GetLogger().With(zap.String("run_id", runID)),
		runID:  runID,
	}
}

// Run overlays result URLs onto matching catalog rows, rewrites the catalog,
// refreshes the mirror and verifies completeness. Nothing is written when
// the results file is missing.
func (lm *LinkMerger) Run(ctx context.Context) (*MergeReport, error) {
	ctx, span := util.StartSpan(ctx, "LinkMerger.Run", util.RunAttr(lm.runID))
	defer span.End()

	results, err := catalog.ReadResults(lm.paths.Results)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run \"catalog-sync create\" first)", ErrResultsNotFound, lm.paths.Results)
		}
		return nil, err
	}

	links := make(map[string]string, len(results))
	for _, r := range results {
		links[r.Slug] = r.CheckoutURL
	}

	report := &MergeReport{RunID: lm.runID, LinksLoaded: len(links)}
	fmt.Fprintf(lm.out, "Loaded %d new links from %s\n", len(links), lm.paths.Results)

	cat, err := catalog.Read(lm.paths.Catalog)
	if err != nil {
		return nil, err
	}
	if err := cat.Require(models.ColumnSlug, models.ColumnCheckoutURL); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", lm.paths.Catalog, err)
	}

	report.RowsUpdated = applyLinks(cat, links)

	if err := cat.Write(lm.paths.Catalog); err != nil {
		return nil, err
	}
	util.RowsMergedTotal.Add(float64(report.RowsUpdated))
	fmt.Fprintf(lm.out, "Updated %d rows in %s\n", report.RowsUpdated, lm.paths.Catalog)

	lm.syncMirror(report)

	report.RowsTotal = cat.Len()
	for i := 0; i < cat.Len(); i++ {
		if strings.TrimSpace(cat.Value(i, models.ColumnCheckoutURL)) != "" {
			report.RowsFilled++
		} else {
			report.Missing = append(report.Missing, cat.Value(i, models.ColumnSlug))
		}
	}
	util.RowsTotal.Set(float64(report.RowsTotal))
	util.RowsWithCheckoutURL.Set(float64(report.RowsFilled))

	fmt.Fprintf(lm.out, "\nVerification: %d/%d products now have a checkout_url\n", report.RowsFilled, report.RowsTotal)
	if report.Complete() {
		fmt.Fprintln(lm.out, "✓ All products have payment links!")
	} else {
		fmt.Fprintf(lm.out, "Still missing: %s\n", strings.Join(report.Missing, ", "))
	}

	lm.logger.Info("Catalog merge finished",
		zap.Int("links_loaded", report.LinksLoaded),
		zap.Int("rows_updated", report.RowsUpdated),
		zap.Int("rows_filled", report.RowsFilled),
		zap.Int("rows_total", report.RowsTotal))

	lm.publishMerged(ctx, report)
	return report, nil
}

// applyLinks sets checkout_url on every row whose slug has a link and
// returns the number of rows touched
func applyLinks(cat *catalog.Catalog, links map[string]string) int {
	updated := 0
	for i := 0; i < cat.Len(); i++ {
		if url, ok := links[cat.Value(i, models.ColumnSlug)]; ok {
			cat.SetValue(i, models.ColumnCheckoutURL, url)
			updated++
		}
	}
	return updated
}

func (lm *LinkMerger) syncMirror(report *MergeReport) {
	if lm.paths.Mirror == "" {
		return
	}

	if err := catalog.CopyFile(lm.paths.Catalog, lm.paths.Mirror); err != nil {
		report.MirrorErr = err
		lm.logger.Warn("Mirror sync failed", zap.String("mirror", lm.paths.Mirror), zap.Error(err))
		fmt.Fprintf(lm.out, "Warning: could not sync to %s: %v\n", lm.paths.Mirror, err)
		return
	}
	fmt.Fprintf(lm.out, "Synced to %s\n", lm.paths.Mirror)
}

func (lm *LinkMerger) publishMerged(ctx context.Context, report *MergeReport) {
	event := &models.CatalogMergedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogMerged,
			RunID:     lm.runID,
			Timestamp: time.Now(),
		},
		LinksLoaded: report.LinksLoaded,
		RowsUpdated: report.RowsUpdated,
		RowsFilled:  report.RowsFilled,
		RowsTotal:   report.RowsTotal,
		Missing:     report.Missing,
	}

	if err := lm.events.PublishCatalogMerged(ctx, event); err != nil {
		lm.logger.Error("Failed to publish CatalogMerged event", zap.Error(err))
	}
}
