package panel

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadHistorical reads the historical (1863-1941) annual call-report
// table. Expected columns: charter_id, year, established, assets,
// deposits, loans, equity, liquid_assets, net_income. Amounts are nominal
// thousands of dollars. Rows that fail to parse are logged and skipped.
func LoadHistorical(path string) ([]Observation, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	var obs []Observation
	for i, rec := range records {
		o, err := parseObservation(rec, header, false)
		if err != nil {
			slog.Warn("skipping historical call-report row",
				"file", filepath.Base(path),
				"line", i+2,
				"error", err)
			continue
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("historical table %s produced no observations", path)
	}
	return obs, nil
}

// LoadModern reads the modern (1959-present) call-report table, which
// adds a quarter column and the noncore funding breakdown.
func LoadModern(path string) ([]Observation, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	var obs []Observation
	for i, rec := range records {
		o, err := parseObservation(rec, header, true)
		if err != nil {
			slog.Warn("skipping modern call-report row",
				"file", filepath.Base(path),
				"line", i+2,
				"error", err)
			continue
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("modern table %s produced no observations", path)
	}
	return obs, nil
}

// LoadReceiverships reads the receivership record. Expected columns:
// charter_id, start_year, end_year; end_year empty for a terminal
// receivership.
func LoadReceiverships(path string) ([]Receivership, error) {
	records, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx := indexColumns(header)
	var recs []Receivership
	for i, rec := range records {
		charter := fieldString(rec, idx, "charter_id")
		start, err := fieldInt(rec, idx, "start_year")
		if charter == "" || err != nil {
			slog.Warn("skipping receivership row",
				"file", filepath.Base(path),
				"line", i+2)
			continue
		}
		end, err := fieldInt(rec, idx, "end_year")
		if err != nil {
			end = 0
		}
		recs = append(recs, Receivership{CharterID: charter, StartYear: start, EndYear: end})
	}
	return recs, nil
}

func readTable(path string) (records [][]string, header []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read source table %s: %w", path, err)
	}
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("source table %s has no data rows", path)
	}
	return all[1:], all[0], nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseObservation(rec []string, header []string, quarterly bool) (Observation, error) {
	idx := indexColumns(header)

	charter := fieldString(rec, idx, "charter_id")
	if charter == "" {
		return Observation{}, fmt.Errorf("empty charter_id")
	}
	year, err := fieldInt(rec, idx, "year")
	if err != nil {
		return Observation{}, fmt.Errorf("parse year: %w", err)
	}

	o := Observation{CharterID: charter, BankID: charter, Year: year}

	if quarterly {
		q, err := fieldInt(rec, idx, "quarter")
		if err != nil {
			return Observation{}, fmt.Errorf("parse quarter: %w", err)
		}
		o.Quarter = q
	}

	if est, err := fieldInt(rec, idx, "established"); err == nil && est > 0 {
		o.Age = float64(year - est)
	} else {
		o.Age = math.NaN()
	}

	o.Assets = fieldFloat(rec, idx, "assets")
	o.Deposits = fieldFloat(rec, idx, "deposits")
	o.Loans = fieldFloat(rec, idx, "loans")
	o.Equity = fieldFloat(rec, idx, "equity")
	o.LiquidAssets = fieldFloat(rec, idx, "liquid_assets")
	o.NetIncome = fieldFloat(rec, idx, "net_income")
	if quarterly {
		o.Noncore = fieldFloat(rec, idx, "noncore")
	} else {
		o.Noncore = math.NaN()
	}
	return o, nil
}

func fieldString(rec []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func fieldInt(rec []string, idx map[string]int, name string) (int, error) {
	s := fieldString(rec, idx, name)
	if s == "" {
		return 0, fmt.Errorf("empty %s", name)
	}
	return strconv.Atoi(s)
}

// fieldFloat parses an amount, mapping absent or blank fields to missing.
func fieldFloat(rec []string, idx map[string]int, name string) float64 {
	s := fieldString(rec, idx, name)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
