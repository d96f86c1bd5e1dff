// Package table wraps a gota dataframe as the row-oriented record set every
// pipeline stage consumes. All values stay strings until a stage coerces them,
// and column access is case-insensitive because the source portals are not
// consistent about header casing.
package table

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// RecordSet is an in-memory table of raw line items.
type RecordSet struct {
	df dataframe.DataFrame

	// lowered column name -> actual column name
	columns map[string]string
}

// New wraps an already loaded dataframe.
func New(df dataframe.DataFrame) *RecordSet {
	rs := &RecordSet{df: df, columns: make(map[string]string, len(df.Names()))}
	for _, name := range df.Names() {
		rs.columns[strings.ToLower(name)] = name
	}
	return rs
}

// FromRecords builds a RecordSet from a header row plus data rows. All columns
// are kept as strings.
func FromRecords(records [][]string) *RecordSet {
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	return New(df)
}

// FromCSV reads an entire CSV stream into a RecordSet.
func FromCSV(r io.Reader) (*RecordSet, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Error() != nil {
		return nil, df.Error()
	}
	return New(df), nil
}

// WriteCSV writes the record set back out as CSV, header included.
func (rs *RecordSet) WriteCSV(w io.Writer) error {
	return rs.df.WriteCSV(w)
}

// Nrow returns the number of data rows.
func (rs *RecordSet) Nrow() int {
	return rs.df.Nrow()
}

// Columns returns the actual column names in table order.
func (rs *RecordSet) Columns() []string {
	return rs.df.Names()
}

// Column resolves a case-insensitive column name to the actual header.
func (rs *RecordSet) Column(name string) (string, bool) {
	actual, ok := rs.columns[strings.ToLower(name)]
	return actual, ok
}

// Get returns the string value of col at row, or "" when the column does not
// exist. Missing columns are a routine condition (e.g. revenue datasets
// without a category field), not an error.
func (rs *RecordSet) Get(col string, row int) string {
	actual, ok := rs.Column(col)
	if !ok {
		return ""
	}
	return rs.df.Col(actual).Elem(row).String()
}

// Amount coerces the value of col at row to a dollar amount. Currency symbols
// and thousands separators are tolerated. ok is false for unparseable values;
// callers drop those rows instead of failing the batch.
func (rs *RecordSet) Amount(col string, row int) (float64, bool) {
	raw := strings.TrimSpace(rs.Get(col, row))
	if raw == "" {
		return 0, false
	}
	clean := strings.ReplaceAll(strings.ReplaceAll(raw, "$", ""), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
