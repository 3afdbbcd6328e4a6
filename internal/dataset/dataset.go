// Package dataset loads the department indicator table.
//
// A Dataset is keyed by department name and holds only complete rows: any row
// with a blank key or a missing/unparseable indicator is dropped on load and
// recorded in Dropped.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingColumn is returned when a requested column is not in the header.
	ErrMissingColumn = errors.New("column not found")
	// ErrDuplicateKey is returned when two complete rows share a department name.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrEmptyDataset is returned when no complete rows remain.
	ErrEmptyDataset = errors.New("no complete rows")
	// ErrNoIndicators is returned when the table has no indicator columns.
	ErrNoIndicators = errors.New("no indicator columns")
)

// DroppedRow describes a row removed by DropNA.
type DroppedRow struct {
	// Index is the 0-based position among data rows (header excluded).
	Index   int
	Key     string
	Missing []string
}

// Dataset is the cleaned indicator table.
type Dataset struct {
	KeyColumn  string
	Keys       []string
	Indicators []string
	// Values is len(Keys) x len(Indicators).
	Values  *mat.Dense
	Dropped []DroppedRow
}

// Rows returns the number of departments.
func (d *Dataset) Rows() int { return len(d.Keys) }

// Column returns a copy of the named indicator column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := d.IndicatorIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return mat.Col(nil, j, d.Values), nil
}

// IndicatorIndex returns the index of the named indicator, matching names the
// way headers are matched on load, or -1.
func (d *Dataset) IndicatorIndex(name string) int {
	want := NormalizeName(name)
	for j, ind := range d.Indicators {
		if NormalizeName(ind) == want {
			return j
		}
	}
	return -1
}

// Frame returns the dataset as a gota DataFrame, key column first.
func (d *Dataset) Frame() dataframe.DataFrame {
	cols := make([]series.Series, 0, len(d.Indicators)+1)
	cols = append(cols, series.New(d.Keys, series.String, d.KeyColumn))
	for j, name := range d.Indicators {
		cols = append(cols, series.New(mat.Col(nil, j, d.Values), series.Float, name))
	}
	return dataframe.New(cols...)
}

// Describe returns gota's summary statistics for the indicator columns as
// string records, header first.
func (d *Dataset) Describe() [][]string {
	return d.Frame().Drop(d.KeyColumn).Describe().Records()
}

// DropNA removes every row of df that has a null or infinite value in an
// indicator column or a blank value in keyColumn. The key is checked only for
// blankness, so a department literally named "NaN" is kept. Remaining rows
// keep their order. When every row is dropped the returned frame is the zero
// DataFrame.
func DropNA(df dataframe.DataFrame, keyColumn string) (dataframe.DataFrame, []DroppedRow) {
	n := df.Nrow()
	names := df.Names()
	missing := make([][]string, n)

	var keys []string
	for _, name := range names {
		col := df.Col(name)
		if name == keyColumn {
			keys = col.Records()
			for i, k := range keys {
				if strings.TrimSpace(k) == "" {
					missing[i] = append(missing[i], name)
				}
			}
			continue
		}
		nan := col.IsNaN()
		vals := col.Float()
		for i := 0; i < n; i++ {
			if nan[i] || math.IsInf(vals[i], 0) {
				missing[i] = append(missing[i], name)
			}
		}
	}

	keep := make([]int, 0, n)
	var dropped []DroppedRow
	for i := 0; i < n; i++ {
		if len(missing[i]) == 0 {
			keep = append(keep, i)
			continue
		}
		row := DroppedRow{Index: i, Missing: missing[i]}
		if keys != nil && !contains(missing[i], keyColumn) {
			row.Key = keys[i]
		}
		dropped = append(dropped, row)
	}

	if len(dropped) == 0 {
		return df, nil
	}
	if len(keep) == 0 {
		return dataframe.DataFrame{}, dropped
	}
	return df.Subset(keep), dropped
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fromFrame builds a Dataset from an already cleaned frame.
func fromFrame(df dataframe.DataFrame, keyColumn string, dropped []DroppedRow) (*Dataset, error) {
	if df.Nrow() == 0 {
		return nil, ErrEmptyDataset
	}

	col := df.Col(keyColumn)
	if col.Err != nil {
		return nil, fmt.Errorf("%w: key column %q", ErrMissingColumn, keyColumn)
	}
	keys := col.Records()
	seen := make(map[string]int, len(keys))
	for i, k := range keys {
		k = strings.TrimSpace(k)
		keys[i] = k
		if prev, ok := seen[k]; ok {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateKey, k, prev+1, i+1)
		}
		seen[k] = i
	}

	var indicators []string
	for _, name := range df.Names() {
		if name != keyColumn {
			indicators = append(indicators, name)
		}
	}
	if len(indicators) == 0 {
		return nil, ErrNoIndicators
	}

	values := mat.NewDense(len(keys), len(indicators), nil)
	for j, name := range indicators {
		values.SetCol(j, df.Col(name).Float())
	}

	return &Dataset{
		KeyColumn:  keyColumn,
		Keys:       keys,
		Indicators: indicators,
		Values:     values,
		Dropped:    dropped,
	}, nil
}
