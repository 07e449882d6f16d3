package series

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadAnnual reads a year-value series from a headed CSV file, selecting
// the named columns. Rows with an unparseable year or value are skipped;
// a file with no usable rows is an error.
func LoadAnnual(path, yearCol, valueCol string) (*Annual, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series records: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("series file %s has no data rows", path)
	}

	yearIdx, valIdx := -1, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(yearCol):
			yearIdx = i
		case strings.ToLower(valueCol):
			valIdx = i
		}
	}
	if yearIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("series file %s lacks columns %q/%q", path, yearCol, valueCol)
	}

	out := NewAnnual()
	for _, rec := range records[1:] {
		if len(rec) <= yearIdx || len(rec) <= valIdx {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[yearIdx]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valIdx]), 64)
		if err != nil {
			continue
		}
		out.Set(year, v)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("series file %s produced no observations", path)
	}
	return out, nil
}

// LoadGDP reads the nominal GDP series.
func LoadGDP(path string) (*Annual, error) {
	return LoadAnnual(path, "year", "gdp")
}

// LoadCPI reads the consumer price index, interpolating the sparse early
// years so the deflator covers every panel year.
func LoadCPI(path string) (*Annual, error) {
	cpi, err := LoadAnnual(path, "year", "cpi")
	if err != nil {
		return nil, err
	}
	return cpi.Interpolate(), nil
}

// LoadYields reads the long-term government bond yield series.
func LoadYields(path string) (*Annual, error) {
	return LoadAnnual(path, "year", "yield")
}
