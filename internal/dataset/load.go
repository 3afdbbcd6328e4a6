package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrSheetNotFound is returned when the requested worksheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrDuplicateColumn is returned when a selected header appears twice.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// unnamedKey labels a key column whose header cell is blank.
const unnamedKey = "Departamento"

// Options control how the table is read.
type Options struct {
	// Sheet selects the worksheet of an xlsx file. Empty means the first sheet.
	Sheet string
	// KeyColumn names the department column. Empty means the first column.
	KeyColumn string
	// Indicators restricts the table to these columns. Empty means every
	// column except the key.
	Indicators []string
}

// NormalizeName folds case and strips accents so "Área" matches "area".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Load reads an .xlsx/.xlsm or .csv file into a cleaned Dataset.
func Load(path string, opts Options) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		records, err = ReadExcel(path, opts.Sheet)
	case ".csv":
		records, err = ReadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return FromRecords(records, opts)
}

// ReadExcel returns the raw cell values of a worksheet, header row first.
func ReadExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else {
		found := false
		for _, name := range f.GetSheetList() {
			if name == sheet {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheet, path)
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ReadCSV returns the cells of a CSV file as strings, header row first.
func ReadCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	df := dataframe.ReadCSV(file,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, df.Err)
	}
	return df.Records(), nil
}

// FromRecords selects the key and indicator columns from records, types them
// through gota, drops incomplete rows and builds the Dataset.
func FromRecords(records [][]string, opts Options) (*Dataset, error) {
	if len(records) < 2 {
		return nil, ErrEmptyDataset
	}
	header := records[0]

	keyIdx := 0
	if opts.KeyColumn != "" {
		keyIdx = findColumn(header, opts.KeyColumn)
		if keyIdx < 0 {
			return nil, fmt.Errorf("%w: key column %q", ErrMissingColumn, opts.KeyColumn)
		}
	}
	if keyIdx >= len(header) {
		return nil, fmt.Errorf("%w: key column", ErrMissingColumn)
	}

	var cols []int
	if len(opts.Indicators) > 0 {
		for _, name := range opts.Indicators {
			idx := findColumn(header, name)
			if idx < 0 {
				return nil, fmt.Errorf("%w: indicator %q", ErrMissingColumn, name)
			}
			cols = append(cols, idx)
		}
	} else {
		for j, h := range header {
			if j != keyIdx && strings.TrimSpace(h) != "" {
				cols = append(cols, j)
			}
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoIndicators
	}

	keyName := strings.TrimSpace(header[keyIdx])
	if keyName == "" {
		keyName = unnamedKey
	}
	seen := map[string]bool{keyName: true}
	selected := make([][]string, 0, len(records))
	row := []string{keyName}
	for _, j := range cols {
		name := strings.TrimSpace(header[j])
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = true
		row = append(row, name)
	}
	selected = append(selected, row)

	for _, rec := range records[1:] {
		out := make([]string, 0, len(cols)+1)
		out = append(out, cell(rec, keyIdx))
		for _, j := range cols {
			out = append(out, strings.TrimSpace(cell(rec, j)))
		}
		selected = append(selected, out)
	}

	df := dataframe.LoadRecords(selected,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{keyName: series.String}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("error typing records: %w", df.Err)
	}

	clean, dropped := DropNA(df, keyName)
	return fromFrame(clean, keyName, dropped)
}

// cell returns rec[j], or "" when excelize trimmed trailing empty cells.
func cell(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}

func findColumn(header []string, name string) int {
	want := NormalizeName(name)
	for j, h := range header {
		if NormalizeName(h) == want {
			return j
		}
	}
	return -1
}
