package catalog

import (
	"encoding/csv"
	"fmt"
	"io"

	"catalog-sync/internal/models"
)

var resultsHeader = []string{models.ColumnSlug, models.ColumnCheckoutURL}

// ReadResults loads a link results file. A missing file surfaces as an
// error wrapping fs.ErrNotExist.
func ReadResults(path string) ([]models.LinkResult, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Require(resultsHeader...); err != nil {
		return nil, fmt.Errorf("invalid results file %s: %w", path, err)
	}

	results := make([]models.LinkResult, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		results = append(results, models.LinkResult{
			Slug:        c.Value(i, models.ColumnSlug),
			CheckoutURL: c.Value(i, models.ColumnCheckoutURL),
		})
	}
	return results, nil
}

// WriteResults replaces the results file with one row per result
func WriteResults(path string, results []models.LinkResult) error {
	err := WriteFileAtomic(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(resultsHeader); err != nil {
			return err
		}
		for _, r := range results {
			if err := writer.Write([]string{r.Slug, r.CheckoutURL}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
