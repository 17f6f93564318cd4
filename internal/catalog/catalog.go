package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog-sync/internal/models"
)

// ErrMissingColumn is returned when a required column is absent from the header
var ErrMissingColumn = errors.New("missing required column")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Catalog is a header plus ordered records. Unknown columns are carried
// through untouched so a rewrite only changes the values that were set.
type Catalog struct {
	Header  []string
	Records [][]string

	bom     bool
	crlf    bool
	columns map[string]int
}

// New creates a catalog from a header and its records
func New(header []string, records [][]string) *Catalog {
	c := &Catalog{
		Header:  header,
		Records: records,
		columns: make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, exists := c.columns[name]; !exists {
			c.columns[name] = i
		}
	}
	return c
}

// Read loads a catalog file fully into memory
func Read(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes CSV with a header row. A leading UTF-8 BOM is stripped and
// remembered so Encode can write it back, as is a CRLF header line ending.
func Parse(r io.Reader) (*Catalog, error) {
	br := bufio.NewReader(r)

	bom := false
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
		bom = true
	}
	crlf := usesCRLF(br)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, errors.New("no header row")
	}

	c := New(all[0], all[1:])
	c.bom = bom
	c.crlf = crlf
	return c, nil
}

// usesCRLF reports whether the first buffered line ends in \r\n
func usesCRLF(br *bufio.Reader) bool {
	buf, _ := br.Peek(br.Size())
	i := bytes.IndexByte(buf, '\n')
	return i > 0 && buf[i-1] == '\r'
}

// Len returns the number of records
func (c *Catalog) Len() int {
	return len(c.Records)
}

// Has reports whether the header contains column
func (c *Catalog) Has(column string) bool {
	_, ok := c.columns[column]
	return ok
}

// Require checks that every column is present in the header
func (c *Catalog) Require(columns ...string) error {
	var missing []string
	for _, column := range columns {
		if !c.Has(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Value returns the cell for record i, or "" for an unknown column or a short record
func (c *Catalog) Value(i int, column string) string {
	idx, ok := c.columns[column]
	if !ok || idx >= len(c.Records[i]) {
		return ""
	}
	return c.Records[i][idx]
}

// SetValue sets the cell for record i, padding a short record to the header width
func (c *Catalog) SetValue(i int, column, value string) {
	idx, ok := c.columns[column]
	if !ok {
		return
	}
	for len(c.Records[i]) < len(c.Header) {
		c.Records[i] = append(c.Records[i], "")
	}
	c.Records[i][idx] = value
}

// Row returns the semantic view of record i
func (c *Catalog) Row(i int) models.CatalogRow {
	return models.CatalogRow{
		Slug:        c.Value(i, models.ColumnSlug),
		Name:        c.Value(i, models.ColumnName),
		PriceUSD:    c.Value(i, models.ColumnPriceUSD),
		ShortDesc:   c.Value(i, models.ColumnShortDesc),
		ProductID:   c.Value(i, models.ColumnProductID),
		CheckoutURL: c.Value(i, models.ColumnCheckoutURL),
	}
}

// Encode writes the header and all records as CSV
func (c *Catalog) Encode(w io.Writer) error {
	if c.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}

	writer := csv.NewWriter(w)
	writer.UseCRLF = c.crlf
	if err := writer.Write(c.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(c.Records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Write replaces the file at path with the encoded catalog
func (c *Catalog) Write(path string) error {
	if err := WriteFileAtomic(path, c.Encode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
