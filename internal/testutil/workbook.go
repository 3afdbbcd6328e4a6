package testutil

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes records to the first sheet of a new xlsx file in a
// temp dir and returns its path. Cells that parse as numbers are stored as
// numbers, empty strings are left blank.
func WriteWorkbook(t testing.TB, name string, records [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, rec := range records {
		for j, v := range rec {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			var value interface{} = v
			if i > 0 {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					value = n
				}
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// IndicatorRecords is a small department table with two clearly separated
// groups and one incomplete row.
func IndicatorRecords() [][]string {
	return [][]string{
		{"Departamento", "ipm", "hog_acued", "acc_internet", "edu_sup", "afi_seg_soc"},
		{"Bogotá D.C.", "4.4", "99.6", "75.8", "42.1", "61.0"},
		{"Antioquia", "10.1", "90.2", "61.3", "31.9", "47.5"},
		{"Valle del Cauca", "8.3", "94.7", "63.5", "30.2", "45.1"},
		{"Atlántico", "11.2", "96.1", "52.0", "28.7", "38.9"},
		{"Santander", "9.7", "88.4", "55.8", "33.4", "40.2"},
		{"Vichada", "65.6", "30.1", "8.2", "6.1", "9.5"},
		{"Vaupés", "65.4", "22.6", "5.9", "5.4", "8.8"},
		{"Guainía", "59.2", "35.0", "10.4", "7.0", "11.3"},
		{"La Guajira", "51.4", "48.3", "18.7", "12.2", "15.0"},
		{"Chocó", "", "29.6", "12.1", "9.8", "10.4"},
	}
}
