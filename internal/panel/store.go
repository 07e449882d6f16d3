package panel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// panelKeyColumns are the non-float columns persisted ahead of the schema
// columns.
var panelKeyColumns = []string{"bank_id", "charter_id", "year", "quarter", "fail_year"}

// Save writes the panel to a CSV file, creating parent directories.
// Missing values round-trip as empty fields.
func Save(obs []Observation, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create panel directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create panel file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(append([]string{}, panelKeyColumns...), ColumnNames()...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write panel header: %w", err)
	}

	for i := range obs {
		o := &obs[i]
		rec := []string{
			o.BankID,
			o.CharterID,
			strconv.Itoa(o.Year),
			strconv.Itoa(o.Quarter),
			strconv.Itoa(o.FailYear),
		}
		for _, name := range ColumnNames() {
			v, _ := columnValue(o, name)
			rec = append(rec, formatValue(v))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write panel row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Load reads a panel previously written by Save.
func Load(path string) ([]Observation, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx := indexColumns(header)

	obs := make([]Observation, 0, len(records))
	for i, rec := range records {
		year, errY := fieldInt(rec, idx, "year")
		bank := fieldString(rec, idx, "bank_id")
		if bank == "" || errY != nil {
			return nil, fmt.Errorf("panel file %s: bad key on line %d", path, i+2)
		}
		o := Observation{
			BankID:    bank,
			CharterID: fieldString(rec, idx, "charter_id"),
			Year:      year,
		}
		if q, err := fieldInt(rec, idx, "quarter"); err == nil {
			o.Quarter = q
		}
		if fy, err := fieldInt(rec, idx, "fail_year"); err == nil {
			o.FailYear = fy
		}
		for _, name := range ColumnNames() {
			setColumn(&o, name, fieldFloat(rec, idx, name))
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
