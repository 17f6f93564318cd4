package service

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkMergerFillsCatalogAndMirror(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+
		"mug,Coffee Mug,home,12.50,A mug,p-1,\n"+
		"hat,Sun Hat,apparel,20,A hat,p-2,https://old\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://new/mug\n")

	var out bytes.Buffer
	report, err := NewLinkMerger(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)

	expected := catalogHeader +
		"mug,Coffee Mug,home,12.50,A mug,p-1,https://new/mug\n" +
		"hat,Sun Hat,apparel,20,A hat,p-2,https://old\n"
	assert.Equal(t, expected, readTestFile(t, cfg.Paths.Catalog))
	assert.Equal(t, expected, readTestFile(t, cfg.Paths.Mirror))

	assert.Equal(t, 1, report.LinksLoaded)
	assert.Equal(t, 1, report.RowsUpdated)
	assert.Equal(t, 2, report.RowsFilled)
	assert.Equal(t, 2, report.RowsTotal)
	assert.True(t, report.Complete())
	assert.NoError(t, report.MirrorErr)

	assert.Contains(t, out.String(), "Loaded 1 new links from "+cfg.Paths.Results)
	assert.Contains(t, out.String(), "Updated 1 rows in "+cfg.Paths.Catalog)
	assert.Contains(t, out.String(), "Synced to "+cfg.Paths.Mirror)
	assert.Contains(t, out.String(), "Verification: 2/2 products now have a checkout_url")
	assert.Contains(t, out.String(), "✓ All products have payment links!")
}

func TestLinkMergerMissingResults(t *testing.T) {
	cfg := testConfig(t)
	original := catalogHeader + "mug,Coffee Mug,home,12.50,A mug,p-1,\n"
	writeTestFile(t, cfg.Paths.Catalog, original)

	_, err := NewLinkMerger(cfg, nil, nil).Run(context.Background())

	require.ErrorIs(t, err, ErrResultsNotFound)
	assert.EqualError(t, err, "not found: "+cfg.Paths.Results+` (run "catalog-sync create" first)`)
	assert.Equal(t, original, readTestFile(t, cfg.Paths.Catalog))

	_, statErr := os.Stat(cfg.Paths.Mirror)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestLinkMergerIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+"mug,Coffee Mug,home,12.50,A mug,p-1,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://new/mug\n")

	merger := NewLinkMerger(cfg, nil, nil)
	_, err := merger.Run(context.Background())
	require.NoError(t, err)
	first := readTestFile(t, cfg.Paths.Catalog)

	report, err := merger.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, readTestFile(t, cfg.Paths.Catalog))
	assert.Equal(t, 1, report.RowsUpdated)
}

func TestLinkMergerReportsMissingRows(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+
		"mug,Coffee Mug,home,12.50,A mug,p-1,\n"+
		"cap,Cap,apparel,8,A cap,p-3,\n"+
		"sock,Sock,apparel,3,A sock,p-4,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://new/mug\nghost,https://new/ghost\n")

	var out bytes.Buffer
	report, err := NewLinkMerger(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.LinksLoaded)
	assert.Equal(t, 1, report.RowsUpdated, "unknown slugs are ignored")
	assert.False(t, report.Complete())
	assert.Equal(t, []string{"cap", "sock"}, report.Missing)
	assert.Contains(t, out.String(), "Verification: 1/3 products now have a checkout_url")
	assert.Contains(t, out.String(), "Still missing: cap, sock")
}

func TestLinkMergerLastDuplicateWins(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+"mug,Coffee Mug,home,12.50,A mug,p-1,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://first\nmug,https://second\n")

	report, err := NewLinkMerger(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.LinksLoaded)
	assert.Contains(t, readTestFile(t, cfg.Paths.Catalog), "https://second")
	assert.NotContains(t, readTestFile(t, cfg.Paths.Catalog), "https://first")
}

func TestLinkMergerMirrorFailureIsWarning(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Mirror = filepath.Join(t.TempDir(), "missing-dir", "products.collection.csv")
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+"mug,Coffee Mug,home,12.50,A mug,p-1,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://new/mug\n")

	var out bytes.Buffer
	report, err := NewLinkMerger(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Error(t, report.MirrorErr)
	assert.Contains(t, out.String(), "Warning: could not sync to "+cfg.Paths.Mirror)
	assert.Contains(t, readTestFile(t, cfg.Paths.Catalog), "https://new/mug")
	assert.Contains(t, out.String(), "Verification: 1/1")
}

func TestLinkMergerWithoutMirror(t *testing.T) {
	cfg := testConfig(t)
	mirror := cfg.Paths.Mirror
	cfg.Paths.Mirror = ""
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+"mug,Coffee Mug,home,12.50,A mug,p-1,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\n")

	var out bytes.Buffer
	report, err := NewLinkMerger(cfg, nil, &out).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.RowsUpdated)
	assert.NotContains(t, out.String(), "Synced to")
	_, statErr := os.Stat(mirror)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestLinkMergerPublishesEvent(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+
		"mug,Coffee Mug,home,12.50,A mug,p-1,\n"+
		"cap,Cap,apparel,8,A cap,p-3,\n")
	writeTestFile(t, cfg.Paths.Results, "slug,checkout_url\nmug,https://new/mug\n")

	publisher := &fakePublisher{}
	report, err := NewLinkMerger(cfg, publisher, nil).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, publisher.merged, 1)
	event := publisher.merged[0]
	assert.Equal(t, report.RunID, event.RunID)
	assert.Equal(t, 1, event.RowsUpdated)
	assert.Equal(t, 1, event.RowsFilled)
	assert.Equal(t, 2, event.RowsTotal)
	assert.Equal(t, []string{"cap"}, event.Missing)
}

func TestCreateThenMerge(t *testing.T) {
	cfg := testConfig(t)
	writeTestFile(t, cfg.Paths.Catalog, catalogHeader+
		"mug,Coffee Mug,home,12.50,A mug,p-1,\n"+
		"hat,Sun Hat,apparel,20,A hat,p-2,https://old\n"+
		"cap,Cap,apparel,8,A cap,p-3,\n")

	fake := newFakeBilling()
	fake.failPrice["cap"] = "Invalid currency: usd"

	_, err := NewLinkCreator(cfg, fake, nil, nil, nil, nil).Run(context.Background())
	require.NoError(t, err)

	report, err := NewLinkMerger(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, catalogHeader+
		"mug,Coffee Mug,home,12.50,A mug,p-1,https://new/mug\n"+
		"hat,Sun Hat,apparel,20,A hat,p-2,https://old\n"+
		"cap,Cap,apparel,8,A cap,p-3,\n", readTestFile(t, cfg.Paths.Catalog))
	assert.Equal(t, []string{"cap"}, report.Missing)
}
